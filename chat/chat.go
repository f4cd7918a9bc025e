// Package chat is the presence-independent core of the messaging engine:
// the friend relationship state machine, the conversation registry with
// its membership rules, and message publishing. It talks to durable
// storage through the store interfaces below and to live connections
// through the Router, so it can be exercised end to end without MySQL
// or a websocket listener.
package chat

import (
	"time"

	"github.com/yesuf435/im-safechat/models"
)

type UserStore interface {
	GetUser(id string) (*models.User, error)
}

type FriendStore interface {
	RequestByID(id string) (*models.FriendRequest, error)
	// RequestBetween returns the request row for the ordered (from, to)
	// pair regardless of status, or ErrRequestNotFound.
	RequestBetween(from, to string) (*models.FriendRequest, error)
	InsertRequest(req *models.FriendRequest) error
	UpdateRequestStatus(id, status string, at time.Time) error

	AreFriends(a, b string) (bool, error)
	// InsertFriendship creates both directed rows in one transaction and
	// is a no-op for rows that already exist.
	InsertFriendship(a, b string, at time.Time) error
	// DeleteFriendship removes both directed rows in one transaction.
	DeleteFriendship(a, b string) error
	ListFriends(userID string) ([]models.FriendWithUser, error)
	ListIncomingRequests(userID string) ([]models.RequestWithUser, error)
}

type ConversationStore interface {
	Conversation(id string) (*models.Conversation, error)
	// FindPrivate looks up the private conversation whose participant set
	// is exactly {a, b}, or returns ErrConversationNotFound.
	FindPrivate(a, b string) (*models.Conversation, error)
	InsertPrivate(conv *models.Conversation, a, b string) error
	InsertGroup(conv *models.Conversation, ownerID string, memberIDs []string) error
	ListForUser(userID string) ([]models.Conversation, error)
	ConversationIDsOf(userID string) ([]string, error)
	Rename(id, name string, at time.Time) error
	// Dissolve removes memberships, message history and the conversation
	// row as one transaction.
	Dissolve(id string) error
	TouchLastMessage(id, messageID string, at time.Time) error

	Members(convID string) ([]models.Member, error)
	ParticipantIDs(convID string) ([]string, error)
	// Role returns "" when the user is not a participant.
	Role(convID, userID string) (string, error)
	AddMember(convID, userID, role string, at time.Time) error
	UpdateRole(convID, userID, role string) error
	RemoveMember(convID, userID string) error
	// TransferOwnership demotes oldOwner and promotes newOwner in one
	// transaction; either both changes apply or neither does.
	TransferOwnership(convID, oldOwner, newOwner string, at time.Time) error
}

// Cursor addresses a position in a conversation's message log. Messages
// order by (CreatedAt, ID) with the id as tie-break.
type Cursor struct {
	At time.Time
	ID string
}

type MessageStore interface {
	Insert(msg *models.Message) error
	ByID(id string) (*models.Message, error)
	ListSince(convID string, after Cursor, limit int) ([]models.Message, error)
	MarkRecalled(id, by string, at time.Time) error
}

// Router is the live-delivery side: the websocket hub implements it.
// Publish returns how many connections accepted the payload; offline
// participants are skipped, never queued.
type Router interface {
	Publish(convID string, participants []string, event string, payload interface{}) int
	Notify(userID, event string, payload interface{})
	JoinRoom(userID, convID string)
	LeaveRoom(userID, convID string)
	CloseRoom(convID string)
}

type Service struct {
	users    UserStore
	friends  FriendStore
	convs    ConversationStore
	messages MessageStore
	router   Router

	locks        *keyedMutex
	recallWindow time.Duration
}

func NewService(users UserStore, friends FriendStore, convs ConversationStore, messages MessageStore, router Router, recallWindow time.Duration) *Service {
	return &Service{
		users:        users,
		friends:      friends,
		convs:        convs,
		messages:     messages,
		router:       router,
		locks:        newKeyedMutex(),
		recallWindow: recallWindow,
	}
}

// IsParticipant and ConversationIDsOf let the websocket hub authorize
// room subscriptions without reaching into the stores directly.
func (s *Service) IsParticipant(convID, userID string) (bool, error) {
	role, err := s.convs.Role(convID, userID)
	if err != nil {
		return false, err
	}
	return role != "", nil
}

func (s *Service) ConversationIDsOf(userID string) ([]string, error) {
	return s.convs.ConversationIDsOf(userID)
}
