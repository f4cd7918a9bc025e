package models

import "time"

type Message struct {
	ID             string     `json:"id"`
	ConversationID string     `json:"conversation_id"`
	SenderID       string     `json:"sender_id"`
	Content        string     `json:"content"`
	RecalledAt     *time.Time `json:"recalled_at,omitempty"`
	RecalledBy     string     `json:"recalled_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (m *Message) Recalled() bool {
	return m.RecalledAt != nil
}

type MessageResponse struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Content        string    `json:"content"`
	Recalled       bool      `json:"recalled,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ToResponse hides the content of a recalled message unless the reader
// holds an admin view. The row itself is always kept.
func (m *Message) ToResponse(adminView bool) *MessageResponse {
	resp := &MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		Recalled:       m.Recalled(),
		CreatedAt:      m.CreatedAt,
	}
	if m.Recalled() && !adminView {
		resp.Content = ""
	}
	return resp
}
