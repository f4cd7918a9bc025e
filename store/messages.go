package store

import (
	"database/sql"
	"time"

	"github.com/yesuf435/im-safechat/chat"
	"github.com/yesuf435/im-safechat/models"

	apperr "github.com/yesuf435/im-safechat/pkg/errors"
)

type MessageStore struct {
	db *sql.DB
}

func NewMessageStore(db *sql.DB) *MessageStore {
	return &MessageStore{db: db}
}

func (s *MessageStore) Insert(msg *models.Message) error {
	_, err := s.db.Exec(
		"INSERT INTO messages (id, conversation_id, sender_id, content, created_at) VALUES (?, ?, ?, ?, ?)",
		msg.ID, msg.ConversationID, msg.SenderID, msg.Content, msg.CreatedAt,
	)
	if err != nil {
		return apperr.Unavailable("failed to insert message", err)
	}
	return nil
}

func (s *MessageStore) ByID(id string) (*models.Message, error) {
	var m models.Message
	var recalledAt sql.NullTime
	var recalledBy sql.NullString
	err := s.db.QueryRow(
		"SELECT id, conversation_id, sender_id, content, recalled_at, recalled_by, created_at FROM messages WHERE id = ?",
		id,
	).Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &recalledAt, &recalledBy, &m.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, apperr.ErrMessageNotFound
	}
	if err != nil {
		return nil, apperr.Unavailable("message lookup failed", err)
	}
	if recalledAt.Valid {
		m.RecalledAt = &recalledAt.Time
	}
	m.RecalledBy = recalledBy.String
	return &m, nil
}

// ListSince pages forward through a conversation's log in the ordering
// key (created_at, id); the id breaks ties for same-timestamp inserts.
func (s *MessageStore) ListSince(convID string, after chat.Cursor, limit int) ([]models.Message, error) {
	rows, err := s.db.Query(`
		SELECT id, conversation_id, sender_id, content, recalled_at, recalled_by, created_at
		FROM messages
		WHERE conversation_id = ? AND (created_at > ? OR (created_at = ? AND id > ?))
		ORDER BY created_at, id
		LIMIT ?
	`, convID, after.At, after.At, after.ID, limit)
	if err != nil {
		return nil, apperr.Unavailable("failed to list messages", err)
	}
	defer rows.Close()

	msgs := []models.Message{}
	for rows.Next() {
		var m models.Message
		var recalledAt sql.NullTime
		var recalledBy sql.NullString
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &recalledAt, &recalledBy, &m.CreatedAt); err != nil {
			continue
		}
		if recalledAt.Valid {
			m.RecalledAt = &recalledAt.Time
		}
		m.RecalledBy = recalledBy.String
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func (s *MessageStore) MarkRecalled(id, by string, at time.Time) error {
	result, err := s.db.Exec(
		"UPDATE messages SET recalled_at = ?, recalled_by = ? WHERE id = ? AND recalled_at IS NULL",
		at, by, id,
	)
	if err != nil {
		return apperr.Unavailable("failed to recall message", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return apperr.ErrAlreadyRecalled
	}
	return nil
}
