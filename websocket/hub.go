// Package websocket carries the live side of the engine: the presence
// registry (which connections belong to which user) and the delivery
// router (room-scoped fan-out and targeted notifications).
package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/yesuf435/im-safechat/pkg/logger"
)

// Event is the wire envelope for everything pushed to a client.
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// MembershipSource answers the authorization questions the hub needs
// for subscriptions; the chat service implements it.
type MembershipSource interface {
	IsParticipant(convID, userID string) (bool, error)
	ConversationIDsOf(userID string) ([]string, error)
}

type Hub struct {
	mu        sync.RWMutex
	clients   map[string]*Client          // connection id -> client
	userConns map[string]map[*Client]bool // bound user -> live connections
	rooms     map[string]map[*Client]bool // conversation id -> subscribed connections
	pending   map[*Client]*time.Timer     // admitted but not yet authenticated

	members   MembershipSource
	authGrace time.Duration
}

var HubInstance *Hub

func NewHub(members MembershipSource, authGrace time.Duration) *Hub {
	return &Hub{
		clients:   make(map[string]*Client),
		userConns: make(map[string]map[*Client]bool),
		rooms:     make(map[string]map[*Client]bool),
		pending:   make(map[*Client]*time.Timer),
		members:   members,
		authGrace: authGrace,
	}
}

// Admit tracks a fresh connection before it has authenticated. If no
// authenticate event arrives within the grace period the connection is
// closed, so idle sockets cannot pile up.
func (h *Hub) Admit(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.pending[client] = time.AfterFunc(h.authGrace, func() {
		logger.Debug("closing unauthenticated connection", "connection", client.ID)
		h.Unregister(client)
	})
	h.mu.Unlock()
}

// Bind associates an authenticated user with a connection and joins the
// rooms of every conversation the user participates in. Calling it
// again for the same connection is a no-op.
func (h *Hub) Bind(client *Client, userID string) {
	h.mu.Lock()
	if client.UserID != "" {
		h.mu.Unlock()
		return
	}
	if timer, ok := h.pending[client]; ok {
		timer.Stop()
		delete(h.pending, client)
	}
	client.UserID = userID
	if h.userConns[userID] == nil {
		h.userConns[userID] = make(map[*Client]bool)
	}
	h.userConns[userID][client] = true
	h.mu.Unlock()

	convIDs, err := h.members.ConversationIDsOf(userID)
	if err != nil {
		logger.Warn("failed to load conversations on bind", "user", userID, "error", err)
		return
	}

	h.mu.Lock()
	for _, id := range convIDs {
		h.joinLocked(client, id)
	}
	h.mu.Unlock()
}

// Unregister drops a connection from the registry, its owner's set and
// every room, then closes its channel. Safe to call more than once.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.ID)

	if timer, ok := h.pending[client]; ok {
		timer.Stop()
		delete(h.pending, client)
	}
	if client.UserID != "" && h.userConns[client.UserID] != nil {
		delete(h.userConns[client.UserID], client)
		if len(h.userConns[client.UserID]) == 0 {
			delete(h.userConns, client.UserID)
		}
	}
	for convID, room := range h.rooms {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, convID)
		}
	}
	close(client.Send)
	h.mu.Unlock()

	if client.Conn != nil {
		client.Conn.Close()
	}
}

// Subscribe adds a bound connection to a conversation's room. A caller
// who is not a participant is silently ignored so the existence of the
// conversation is not leaked.
func (h *Hub) Subscribe(client *Client, convID string) {
	h.mu.RLock()
	userID := client.UserID
	h.mu.RUnlock()
	if userID == "" {
		return
	}

	ok, err := h.members.IsParticipant(convID, userID)
	if err != nil || !ok {
		return
	}

	h.mu.Lock()
	h.joinLocked(client, convID)
	h.mu.Unlock()
}

func (h *Hub) joinLocked(client *Client, convID string) {
	if h.rooms[convID] == nil {
		h.rooms[convID] = make(map[*Client]bool)
	}
	h.rooms[convID][client] = true
}

// JoinRoom subscribes every live connection of a user to a room; used
// when the user gains membership while online.
func (h *Hub) JoinRoom(userID, convID string) {
	h.mu.Lock()
	for client := range h.userConns[userID] {
		h.joinLocked(client, convID)
	}
	h.mu.Unlock()
}

func (h *Hub) LeaveRoom(userID, convID string) {
	h.mu.Lock()
	if room := h.rooms[convID]; room != nil {
		for client := range h.userConns[userID] {
			delete(room, client)
		}
		if len(room) == 0 {
			delete(h.rooms, convID)
		}
	}
	h.mu.Unlock()
}

func (h *Hub) CloseRoom(convID string) {
	h.mu.Lock()
	delete(h.rooms, convID)
	h.mu.Unlock()
}

// Publish fans an event out to every connection that is subscribed to
// the conversation's room and belongs to a participant. It returns the
// number of connections that accepted the payload; a connection whose
// outbound buffer is full is forcibly disconnected instead of stalling
// the fan-out.
func (h *Hub) Publish(convID string, participants []string, event string, payload interface{}) int {
	data, err := json.Marshal(&Event{Event: event, Data: payload})
	if err != nil {
		return 0
	}

	allowed := make(map[string]bool, len(participants))
	for _, id := range participants {
		allowed[id] = true
	}

	var overflowed []*Client
	delivered := 0

	h.mu.RLock()
	for client := range h.rooms[convID] {
		if client.UserID == "" || !allowed[client.UserID] {
			continue
		}
		select {
		case client.Send <- data:
			delivered++
		default:
			overflowed = append(overflowed, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range overflowed {
		logger.Warn("disconnecting slow client", "connection", client.ID, "user", client.UserID)
		h.Unregister(client)
	}
	return delivered
}

// trySend queues data for a connection that is still registered. It
// runs under the read lock; Unregister closes Send under the write
// lock, so the send here cannot hit a closed channel.
func (h *Hub) trySend(client *Client, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	select {
	case client.Send <- data:
	default:
	}
}

// Notify pushes an out-of-band event to all of a user's connections,
// independent of rooms.
func (h *Hub) Notify(userID, event string, payload interface{}) {
	data, err := json.Marshal(&Event{Event: event, Data: payload})
	if err != nil {
		return
	}

	var overflowed []*Client

	h.mu.RLock()
	for client := range h.userConns[userID] {
		select {
		case client.Send <- data:
		default:
			overflowed = append(overflowed, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range overflowed {
		h.Unregister(client)
	}
}

// ConnectionsOf reports how many live connections a user has; zero
// means fully offline.
func (h *Hub) ConnectionsOf(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userConns[userID])
}

func (h *Hub) IsOnline(userID string) bool {
	return h.ConnectionsOf(userID) > 0
}
