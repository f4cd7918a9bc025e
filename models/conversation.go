package models

import "time"

const (
	ConversationPrivate = "private"
	ConversationGroup   = "group"
)

const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

type Conversation struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"` // private, group
	Name          string    `json:"name"`
	CreatedBy     string    `json:"created_by"`
	LastMessageID string    `json:"last_message_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Member struct {
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	Role           string    `json:"role"` // owner, admin, member
	JoinedAt       time.Time `json:"joined_at"`
}

type ConversationResponse struct {
	ID            string           `json:"id"`
	Type          string           `json:"type"`
	Name          string           `json:"name"`
	CreatedBy     string           `json:"created_by"`
	LastMessageID string           `json:"last_message_id,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	Members       []MemberWithUser `json:"members,omitempty"`
}

type MemberWithUser struct {
	UserID   string       `json:"user_id"`
	Role     string       `json:"role"`
	JoinedAt time.Time    `json:"joined_at"`
	User     UserResponse `json:"user"`
}

func (c *Conversation) ToResponse() *ConversationResponse {
	return &ConversationResponse{
		ID:            c.ID,
		Type:          c.Type,
		Name:          c.Name,
		CreatedBy:     c.CreatedBy,
		LastMessageID: c.LastMessageID,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// ExcludedMember reports one user who was dropped from a group creation
// or invite, with the reason. Partial success is the designed behavior.
type ExcludedMember struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason"`
}

const (
	ExcludeNotFound      = "not_found"
	ExcludeNotFriend     = "not_friend"
	ExcludeAlreadyMember = "already_member"
)
