// Package store holds the MySQL-backed implementations of the chat
// core's store interfaces.
package store

import (
	"database/sql"

	"github.com/yesuf435/im-safechat/models"

	apperr "github.com/yesuf435/im-safechat/pkg/errors"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) GetUser(id string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow(
		"SELECT id, username, nickname, created_at, updated_at FROM users WHERE id = ?",
		id,
	).Scan(&u.ID, &u.Username, &u.Nickname, &u.CreatedAt, &u.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, apperr.ErrUserNotFound
	}
	if err != nil {
		return nil, apperr.Unavailable("user lookup failed", err)
	}
	return &u, nil
}
