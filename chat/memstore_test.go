package chat

import (
	"sort"
	"sync"
	"time"

	"github.com/yesuf435/im-safechat/models"

	apperr "github.com/yesuf435/im-safechat/pkg/errors"
)

// In-memory store implementations backing the service tests. They keep
// the same contracts as the MySQL stores, including transactional
// all-or-nothing behavior where the interfaces promise it.

type memUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemUsers(ids ...string) *memUsers {
	m := &memUsers{users: make(map[string]*models.User)}
	for _, id := range ids {
		m.users[id] = &models.User{ID: id, Username: id, Nickname: id, CreatedAt: time.Now()}
	}
	return m
}

func (m *memUsers) GetUser(id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

type memFriends struct {
	mu       sync.Mutex
	requests map[string]*models.FriendRequest
	edges    map[string]bool // "a->b"
}

func newMemFriends() *memFriends {
	return &memFriends{
		requests: make(map[string]*models.FriendRequest),
		edges:    make(map[string]bool),
	}
}

func edgeKey(a, b string) string { return a + "->" + b }

func (m *memFriends) RequestByID(id string) (*models.FriendRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, apperr.ErrRequestNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memFriends) RequestBetween(from, to string) (*models.FriendRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.requests {
		if r.FromUser == from && r.ToUser == to {
			cp := *r
			return &cp, nil
		}
	}
	return nil, apperr.ErrRequestNotFound
}

func (m *memFriends) InsertRequest(req *models.FriendRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *req
	m.requests[req.ID] = &cp
	return nil
}

func (m *memFriends) UpdateRequestStatus(id, status string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return apperr.ErrRequestNotFound
	}
	r.Status = status
	r.UpdatedAt = at
	return nil
}

func (m *memFriends) AreFriends(a, b string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.edges[edgeKey(a, b)], nil
}

func (m *memFriends) InsertFriendship(a, b string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edges[edgeKey(a, b)] = true
	m.edges[edgeKey(b, a)] = true
	return nil
}

func (m *memFriends) DeleteFriendship(a, b string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.edges, edgeKey(a, b))
	delete(m.edges, edgeKey(b, a))
	return nil
}

func (m *memFriends) ListFriends(userID string) ([]models.FriendWithUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.FriendWithUser
	for key := range m.edges {
		var a, b string
		for i := 0; i < len(key)-1; i++ {
			if key[i] == '-' && key[i+1] == '>' {
				a, b = key[:i], key[i+2:]
				break
			}
		}
		if a == userID {
			out = append(out, models.FriendWithUser{
				Friendship: models.Friendship{UserID: a, FriendID: b},
				Friend:     models.UserResponse{ID: b, Username: b},
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FriendID < out[j].FriendID })
	return out, nil
}

func (m *memFriends) ListIncomingRequests(userID string) ([]models.RequestWithUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.RequestWithUser
	for _, r := range m.requests {
		if r.ToUser == userID && r.Status == models.RequestPending {
			out = append(out, models.RequestWithUser{FriendRequest: *r})
		}
	}
	return out, nil
}

type memConvs struct {
	mu      sync.Mutex
	convs   map[string]*models.Conversation
	members map[string]map[string]*models.Member // convID -> userID -> member
	msgs    *memMessages                         // so Dissolve can wipe history
}

func newMemConvs(msgs *memMessages) *memConvs {
	return &memConvs{
		convs:   make(map[string]*models.Conversation),
		members: make(map[string]map[string]*models.Member),
		msgs:    msgs,
	}
}

func (m *memConvs) Conversation(id string) (*models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.convs[id]
	if !ok {
		return nil, apperr.ErrConversationNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memConvs) FindPrivate(a, b string) (*models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.convs {
		if c.Type != models.ConversationPrivate {
			continue
		}
		mem := m.members[id]
		if len(mem) == 2 && mem[a] != nil && mem[b] != nil {
			cp := *c
			return &cp, nil
		}
	}
	return nil, apperr.ErrConversationNotFound
}

func (m *memConvs) InsertPrivate(conv *models.Conversation, a, b string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *conv
	m.convs[conv.ID] = &cp
	m.members[conv.ID] = map[string]*models.Member{
		a: {ConversationID: conv.ID, UserID: a, Role: models.RoleMember, JoinedAt: conv.CreatedAt},
		b: {ConversationID: conv.ID, UserID: b, Role: models.RoleMember, JoinedAt: conv.CreatedAt},
	}
	return nil
}

func (m *memConvs) InsertGroup(conv *models.Conversation, ownerID string, memberIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *conv
	m.convs[conv.ID] = &cp
	mem := map[string]*models.Member{
		ownerID: {ConversationID: conv.ID, UserID: ownerID, Role: models.RoleOwner, JoinedAt: conv.CreatedAt},
	}
	for _, id := range memberIDs {
		mem[id] = &models.Member{ConversationID: conv.ID, UserID: id, Role: models.RoleMember, JoinedAt: conv.CreatedAt}
	}
	m.members[conv.ID] = mem
	return nil
}

func (m *memConvs) ListForUser(userID string) ([]models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Conversation
	for id, c := range m.convs {
		if m.members[id][userID] != nil {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *memConvs) ConversationIDsOf(userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id := range m.convs {
		if m.members[id][userID] != nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *memConvs) Rename(id, name string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.convs[id]
	if !ok {
		return apperr.ErrConversationNotFound
	}
	c.Name = name
	c.UpdatedAt = at
	return nil
}

func (m *memConvs) Dissolve(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.convs[id]; !ok {
		return apperr.ErrConversationNotFound
	}
	delete(m.convs, id)
	delete(m.members, id)
	m.msgs.deleteConversation(id)
	return nil
}

func (m *memConvs) TouchLastMessage(id, messageID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.convs[id]
	if !ok {
		return apperr.ErrConversationNotFound
	}
	c.LastMessageID = messageID
	c.UpdatedAt = at
	return nil
}

func (m *memConvs) Members(convID string) ([]models.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Member
	for _, mem := range m.members[convID] {
		out = append(out, *mem)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (m *memConvs) ParticipantIDs(convID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id := range m.members[convID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *memConvs) Role(convID, userID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mem := m.members[convID][userID]
	if mem == nil {
		return "", nil
	}
	return mem.Role, nil
}

func (m *memConvs) AddMember(convID, userID, role string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.members[convID] == nil {
		m.members[convID] = make(map[string]*models.Member)
	}
	m.members[convID][userID] = &models.Member{ConversationID: convID, UserID: userID, Role: role, JoinedAt: at}
	return nil
}

func (m *memConvs) UpdateRole(convID, userID, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mem := m.members[convID][userID]
	if mem == nil {
		return apperr.ErrTargetNotMember
	}
	mem.Role = role
	return nil
}

func (m *memConvs) RemoveMember(convID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.members[convID], userID)
	return nil
}

func (m *memConvs) TransferOwnership(convID, oldOwner, newOwner string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mem := m.members[convID]
	if mem[oldOwner] == nil || mem[oldOwner].Role != models.RoleOwner {
		return apperr.ErrOwnerRequired
	}
	if mem[newOwner] == nil {
		return apperr.ErrTargetNotMember
	}
	mem[oldOwner].Role = models.RoleMember
	mem[newOwner].Role = models.RoleOwner
	return nil
}

type memMessages struct {
	mu   sync.Mutex
	msgs []models.Message
}

func newMemMessages() *memMessages {
	return &memMessages{}
}

func (m *memMessages) Insert(msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, *msg)
	return nil
}

func (m *memMessages) ByID(id string) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.msgs {
		if m.msgs[i].ID == id {
			cp := m.msgs[i]
			return &cp, nil
		}
	}
	return nil, apperr.ErrMessageNotFound
}

func (m *memMessages) ListSince(convID string, after Cursor, limit int) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Message
	for _, msg := range m.msgs {
		if msg.ConversationID != convID {
			continue
		}
		if msg.CreatedAt.Before(after.At) {
			continue
		}
		if msg.CreatedAt.Equal(after.At) && msg.ID <= after.ID {
			continue
		}
		out = append(out, msg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memMessages) MarkRecalled(id, by string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.msgs {
		if m.msgs[i].ID == id {
			if m.msgs[i].RecalledAt != nil {
				return apperr.ErrAlreadyRecalled
			}
			t := at
			m.msgs[i].RecalledAt = &t
			m.msgs[i].RecalledBy = by
			return nil
		}
	}
	return apperr.ErrMessageNotFound
}

func (m *memMessages) deleteConversation(convID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.msgs[:0]
	for _, msg := range m.msgs {
		if msg.ConversationID != convID {
			kept = append(kept, msg)
		}
	}
	m.msgs = kept
}

func (m *memMessages) countForConversation(convID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, msg := range m.msgs {
		if msg.ConversationID == convID {
			n++
		}
	}
	return n
}

// fakeRouter records everything the service pushes at it.
type fakeRouter struct {
	mu        sync.Mutex
	published []routedEvent
	notified  []routedEvent
	joined    []string // "user:conv"
	left      []string
	closed    []string
}

type routedEvent struct {
	ConvID       string
	Participants []string
	UserID       string
	Event        string
	Payload      interface{}
}

func (f *fakeRouter) Publish(convID string, participants []string, event string, payload interface{}) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, routedEvent{ConvID: convID, Participants: participants, Event: event, Payload: payload})
	return len(participants)
}

func (f *fakeRouter) Notify(userID, event string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notified = append(f.notified, routedEvent{UserID: userID, Event: event, Payload: payload})
}

func (f *fakeRouter) JoinRoom(userID, convID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joined = append(f.joined, userID+":"+convID)
}

func (f *fakeRouter) LeaveRoom(userID, convID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.left = append(f.left, userID+":"+convID)
}

func (f *fakeRouter) CloseRoom(convID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = append(f.closed, convID)
}

func (f *fakeRouter) notifiedEvents(userID string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.notified {
		if e.UserID == userID {
			out = append(out, e.Event)
		}
	}
	return out
}

// newTestService builds a service over fresh in-memory stores.
func newTestService(userIDs ...string) (*Service, *memUsers, *memFriends, *memConvs, *memMessages, *fakeRouter) {
	users := newMemUsers(userIDs...)
	friends := newMemFriends()
	msgs := newMemMessages()
	convs := newMemConvs(msgs)
	router := &fakeRouter{}
	svc := NewService(users, friends, convs, msgs, router, 2*time.Minute)
	return svc, users, friends, convs, msgs, router
}

// befriend wires a symmetric edge directly, skipping the request flow.
func befriend(friends *memFriends, a, b string) {
	_ = friends.InsertFriendship(a, b, time.Now())
}
