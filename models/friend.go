package models

import "time"

// Friend request lifecycle. Declined requests stay around as an audit
// trail; only the original sender may flip one back to pending.
const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
	RequestDeclined = "declined"
)

type FriendRequest struct {
	ID        string    `json:"id"`
	FromUser  string    `json:"from_user"`
	ToUser    string    `json:"to_user"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RequestWithUser struct {
	FriendRequest
	From UserResponse `json:"from"`
}

// Friendship is stored as two directed rows so existence checks are a
// single indexed lookup from either side.
type Friendship struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	FriendID  string    `json:"friend_id"`
	CreatedAt time.Time `json:"created_at"`
}

type FriendWithUser struct {
	Friendship
	Friend UserResponse `json:"friend"`
}
