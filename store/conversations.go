package store

import (
	"database/sql"
	"time"

	"github.com/yesuf435/im-safechat/models"
	"github.com/yesuf435/im-safechat/utils"

	apperr "github.com/yesuf435/im-safechat/pkg/errors"
)

type ConversationStore struct {
	db *sql.DB
}

func NewConversationStore(db *sql.DB) *ConversationStore {
	return &ConversationStore{db: db}
}

func (s *ConversationStore) Conversation(id string) (*models.Conversation, error) {
	var c models.Conversation
	var name, lastMsg sql.NullString
	err := s.db.QueryRow(
		"SELECT id, type, name, created_by, last_message_id, created_at, updated_at FROM conversations WHERE id = ?",
		id,
	).Scan(&c.ID, &c.Type, &name, &c.CreatedBy, &lastMsg, &c.CreatedAt, &c.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, apperr.ErrConversationNotFound
	}
	if err != nil {
		return nil, apperr.Unavailable("conversation lookup failed", err)
	}
	c.Name = name.String
	c.LastMessageID = lastMsg.String
	return &c, nil
}

// FindPrivate joins conversation_members twice so the match is exact:
// a private conversation containing both users.
func (s *ConversationStore) FindPrivate(a, b string) (*models.Conversation, error) {
	if a > b {
		a, b = b, a
	}

	var convID string
	err := s.db.QueryRow(`
		SELECT c.id FROM conversations c
		JOIN conversation_members m1 ON c.id = m1.conversation_id AND m1.user_id = ?
		JOIN conversation_members m2 ON c.id = m2.conversation_id AND m2.user_id = ?
		WHERE c.type = 'private'
	`, a, b).Scan(&convID)

	if err == sql.ErrNoRows {
		return nil, apperr.ErrConversationNotFound
	}
	if err != nil {
		return nil, apperr.Unavailable("private conversation lookup failed", err)
	}
	return s.Conversation(convID)
}

func (s *ConversationStore) InsertPrivate(conv *models.Conversation, a, b string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return apperr.Unavailable("failed to begin transaction", err)
	}

	_, err = tx.Exec(
		"INSERT INTO conversations (id, type, created_by, created_at, updated_at) VALUES (?, 'private', ?, ?, ?)",
		conv.ID, conv.CreatedBy, conv.CreatedAt, conv.UpdatedAt,
	)
	if err != nil {
		tx.Rollback()
		return apperr.Unavailable("failed to insert conversation", err)
	}

	for _, uid := range []string{a, b} {
		_, err = tx.Exec(
			"INSERT INTO conversation_members (id, conversation_id, user_id, role, joined_at) VALUES (?, ?, ?, 'member', ?)",
			utils.GenerateUUID(), conv.ID, uid, conv.CreatedAt,
		)
		if err != nil {
			tx.Rollback()
			return apperr.Unavailable("failed to insert member", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperr.Unavailable("failed to commit conversation", err)
	}
	return nil
}

func (s *ConversationStore) InsertGroup(conv *models.Conversation, ownerID string, memberIDs []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return apperr.Unavailable("failed to begin transaction", err)
	}

	_, err = tx.Exec(
		"INSERT INTO conversations (id, type, name, created_by, created_at, updated_at) VALUES (?, 'group', ?, ?, ?, ?)",
		conv.ID, conv.Name, conv.CreatedBy, conv.CreatedAt, conv.UpdatedAt,
	)
	if err != nil {
		tx.Rollback()
		return apperr.Unavailable("failed to insert conversation", err)
	}

	_, err = tx.Exec(
		"INSERT INTO conversation_members (id, conversation_id, user_id, role, joined_at) VALUES (?, ?, ?, 'owner', ?)",
		utils.GenerateUUID(), conv.ID, ownerID, conv.CreatedAt,
	)
	if err != nil {
		tx.Rollback()
		return apperr.Unavailable("failed to insert owner", err)
	}

	for _, uid := range memberIDs {
		_, err = tx.Exec(
			"INSERT INTO conversation_members (id, conversation_id, user_id, role, joined_at) VALUES (?, ?, ?, 'member', ?)",
			utils.GenerateUUID(), conv.ID, uid, conv.CreatedAt,
		)
		if err != nil {
			tx.Rollback()
			return apperr.Unavailable("failed to insert member", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperr.Unavailable("failed to commit group", err)
	}
	return nil
}

func (s *ConversationStore) ListForUser(userID string) ([]models.Conversation, error) {
	rows, err := s.db.Query(`
		SELECT c.id, c.type, c.name, c.created_by, c.last_message_id, c.created_at, c.updated_at
		FROM conversations c
		JOIN conversation_members m ON c.id = m.conversation_id
		WHERE m.user_id = ?
		ORDER BY c.updated_at DESC
	`, userID)
	if err != nil {
		return nil, apperr.Unavailable("failed to list conversations", err)
	}
	defer rows.Close()

	convs := []models.Conversation{}
	for rows.Next() {
		var c models.Conversation
		var name, lastMsg sql.NullString
		if err := rows.Scan(&c.ID, &c.Type, &name, &c.CreatedBy, &lastMsg, &c.CreatedAt, &c.UpdatedAt); err != nil {
			continue
		}
		c.Name = name.String
		c.LastMessageID = lastMsg.String
		convs = append(convs, c)
	}
	return convs, nil
}

func (s *ConversationStore) ConversationIDsOf(userID string) ([]string, error) {
	rows, err := s.db.Query(
		"SELECT conversation_id FROM conversation_members WHERE user_id = ?",
		userID,
	)
	if err != nil {
		return nil, apperr.Unavailable("failed to list memberships", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *ConversationStore) Rename(id, name string, at time.Time) error {
	result, err := s.db.Exec(
		"UPDATE conversations SET name = ?, updated_at = ? WHERE id = ?",
		name, at, id,
	)
	if err != nil {
		return apperr.Unavailable("failed to rename conversation", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return apperr.ErrConversationNotFound
	}
	return nil
}

// Dissolve deletes memberships, message history and the conversation
// row in one transaction; a failure rolls back all three.
func (s *ConversationStore) Dissolve(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return apperr.Unavailable("failed to begin transaction", err)
	}

	if _, err = tx.Exec("DELETE FROM conversation_members WHERE conversation_id = ?", id); err != nil {
		tx.Rollback()
		return apperr.Unavailable("failed to delete members", err)
	}
	if _, err = tx.Exec("DELETE FROM messages WHERE conversation_id = ?", id); err != nil {
		tx.Rollback()
		return apperr.Unavailable("failed to delete messages", err)
	}
	if _, err = tx.Exec("DELETE FROM conversations WHERE id = ?", id); err != nil {
		tx.Rollback()
		return apperr.Unavailable("failed to delete conversation", err)
	}

	if err := tx.Commit(); err != nil {
		return apperr.Unavailable("failed to commit dissolve", err)
	}
	return nil
}

func (s *ConversationStore) TouchLastMessage(id, messageID string, at time.Time) error {
	_, err := s.db.Exec(
		"UPDATE conversations SET last_message_id = ?, updated_at = ? WHERE id = ?",
		messageID, at, id,
	)
	if err != nil {
		return apperr.Unavailable("failed to touch conversation", err)
	}
	return nil
}

func (s *ConversationStore) Members(convID string) ([]models.Member, error) {
	rows, err := s.db.Query(
		"SELECT conversation_id, user_id, role, joined_at FROM conversation_members WHERE conversation_id = ?",
		convID,
	)
	if err != nil {
		return nil, apperr.Unavailable("failed to list members", err)
	}
	defer rows.Close()

	members := []models.Member{}
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.ConversationID, &m.UserID, &m.Role, &m.JoinedAt); err == nil {
			members = append(members, m)
		}
	}
	return members, nil
}

func (s *ConversationStore) ParticipantIDs(convID string) ([]string, error) {
	rows, err := s.db.Query(
		"SELECT user_id FROM conversation_members WHERE conversation_id = ?",
		convID,
	)
	if err != nil {
		return nil, apperr.Unavailable("failed to list participants", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *ConversationStore) Role(convID, userID string) (string, error) {
	var role string
	err := s.db.QueryRow(
		"SELECT role FROM conversation_members WHERE conversation_id = ? AND user_id = ?",
		convID, userID,
	).Scan(&role)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", apperr.Unavailable("role lookup failed", err)
	}
	return role, nil
}

func (s *ConversationStore) AddMember(convID, userID, role string, at time.Time) error {
	_, err := s.db.Exec(
		"INSERT INTO conversation_members (id, conversation_id, user_id, role, joined_at) VALUES (?, ?, ?, ?, ?)",
		utils.GenerateUUID(), convID, userID, role, at,
	)
	if err != nil {
		return apperr.Unavailable("failed to add member", err)
	}
	return nil
}

func (s *ConversationStore) UpdateRole(convID, userID, role string) error {
	result, err := s.db.Exec(
		"UPDATE conversation_members SET role = ? WHERE conversation_id = ? AND user_id = ?",
		role, convID, userID,
	)
	if err != nil {
		return apperr.Unavailable("failed to update role", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return apperr.ErrTargetNotMember
	}
	return nil
}

func (s *ConversationStore) RemoveMember(convID, userID string) error {
	_, err := s.db.Exec(
		"DELETE FROM conversation_members WHERE conversation_id = ? AND user_id = ?",
		convID, userID,
	)
	if err != nil {
		return apperr.Unavailable("failed to remove member", err)
	}
	return nil
}

// TransferOwnership guards the demote with a status check inside the
// transaction: if the actor is no longer the owner, zero rows update
// and the whole transfer aborts.
func (s *ConversationStore) TransferOwnership(convID, oldOwner, newOwner string, at time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return apperr.Unavailable("failed to begin transaction", err)
	}

	result, err := tx.Exec(
		"UPDATE conversation_members SET role = 'member' WHERE conversation_id = ? AND user_id = ? AND role = 'owner'",
		convID, oldOwner,
	)
	if err != nil {
		tx.Rollback()
		return apperr.Unavailable("failed to demote owner", err)
	}
	if n, err := result.RowsAffected(); err != nil || n == 0 {
		tx.Rollback()
		return apperr.ErrOwnerRequired
	}

	result, err = tx.Exec(
		"UPDATE conversation_members SET role = 'owner' WHERE conversation_id = ? AND user_id = ?",
		convID, newOwner,
	)
	if err != nil {
		tx.Rollback()
		return apperr.Unavailable("failed to promote new owner", err)
	}
	if n, err := result.RowsAffected(); err != nil || n == 0 {
		tx.Rollback()
		return apperr.ErrTargetNotMember
	}

	_, err = tx.Exec("UPDATE conversations SET updated_at = ? WHERE id = ?", at, convID)
	if err != nil {
		tx.Rollback()
		return apperr.Unavailable("failed to touch conversation", err)
	}

	if err := tx.Commit(); err != nil {
		return apperr.Unavailable("failed to commit transfer", err)
	}
	return nil
}
