package store

import (
	"database/sql"
	"time"

	"github.com/yesuf435/im-safechat/models"
	"github.com/yesuf435/im-safechat/utils"

	apperr "github.com/yesuf435/im-safechat/pkg/errors"
)

type FriendStore struct {
	db *sql.DB
}

func NewFriendStore(db *sql.DB) *FriendStore {
	return &FriendStore{db: db}
}

func (s *FriendStore) RequestByID(id string) (*models.FriendRequest, error) {
	return s.scanRequest(s.db.QueryRow(
		"SELECT id, from_user, to_user, status, created_at, updated_at FROM friend_requests WHERE id = ?",
		id,
	))
}

func (s *FriendStore) RequestBetween(from, to string) (*models.FriendRequest, error) {
	return s.scanRequest(s.db.QueryRow(
		"SELECT id, from_user, to_user, status, created_at, updated_at FROM friend_requests WHERE from_user = ? AND to_user = ?",
		from, to,
	))
}

func (s *FriendStore) scanRequest(row *sql.Row) (*models.FriendRequest, error) {
	var r models.FriendRequest
	err := row.Scan(&r.ID, &r.FromUser, &r.ToUser, &r.Status, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.ErrRequestNotFound
	}
	if err != nil {
		return nil, apperr.Unavailable("friend request lookup failed", err)
	}
	return &r, nil
}

func (s *FriendStore) InsertRequest(req *models.FriendRequest) error {
	_, err := s.db.Exec(
		"INSERT INTO friend_requests (id, from_user, to_user, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		req.ID, req.FromUser, req.ToUser, req.Status, req.CreatedAt, req.UpdatedAt,
	)
	if err != nil {
		return apperr.Unavailable("failed to insert friend request", err)
	}
	return nil
}

func (s *FriendStore) UpdateRequestStatus(id, status string, at time.Time) error {
	result, err := s.db.Exec(
		"UPDATE friend_requests SET status = ?, updated_at = ? WHERE id = ?",
		status, at, id,
	)
	if err != nil {
		return apperr.Unavailable("failed to update friend request", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return apperr.ErrRequestNotFound
	}
	return nil
}

func (s *FriendStore) AreFriends(a, b string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM friendships WHERE user_id = ? AND friend_id = ?)",
		a, b,
	).Scan(&exists)
	if err != nil {
		return false, apperr.Unavailable("friendship lookup failed", err)
	}
	return exists, nil
}

// InsertFriendship writes both directed rows in one transaction.
// INSERT IGNORE keeps it idempotent against an edge that already
// exists in one direction.
func (s *FriendStore) InsertFriendship(a, b string, at time.Time) error {
	tx, err := s.db.Begin()
	if err != nil {
		return apperr.Unavailable("failed to begin transaction", err)
	}

	for _, pair := range [][2]string{{a, b}, {b, a}} {
		_, err = tx.Exec(
			"INSERT IGNORE INTO friendships (id, user_id, friend_id, created_at) VALUES (?, ?, ?, ?)",
			utils.GenerateUUID(), pair[0], pair[1], at,
		)
		if err != nil {
			tx.Rollback()
			return apperr.Unavailable("failed to insert friendship", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperr.Unavailable("failed to commit friendship", err)
	}
	return nil
}

func (s *FriendStore) DeleteFriendship(a, b string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return apperr.Unavailable("failed to begin transaction", err)
	}

	_, err = tx.Exec(
		"DELETE FROM friendships WHERE (user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
		a, b, b, a,
	)
	if err != nil {
		tx.Rollback()
		return apperr.Unavailable("failed to delete friendship", err)
	}

	if err := tx.Commit(); err != nil {
		return apperr.Unavailable("failed to commit unfriend", err)
	}
	return nil
}

func (s *FriendStore) ListFriends(userID string) ([]models.FriendWithUser, error) {
	rows, err := s.db.Query(`
		SELECT f.id, f.user_id, f.friend_id, f.created_at,
			   u.id, u.username, u.nickname, u.created_at
		FROM friendships f
		JOIN users u ON u.id = f.friend_id
		WHERE f.user_id = ?
		ORDER BY u.nickname
	`, userID)
	if err != nil {
		return nil, apperr.Unavailable("failed to list friends", err)
	}
	defer rows.Close()

	friends := []models.FriendWithUser{}
	for rows.Next() {
		var f models.FriendWithUser
		if err := rows.Scan(
			&f.ID, &f.UserID, &f.FriendID, &f.CreatedAt,
			&f.Friend.ID, &f.Friend.Username, &f.Friend.Nickname, &f.Friend.CreatedAt,
		); err != nil {
			continue
		}
		friends = append(friends, f)
	}
	return friends, nil
}

func (s *FriendStore) ListIncomingRequests(userID string) ([]models.RequestWithUser, error) {
	rows, err := s.db.Query(`
		SELECT r.id, r.from_user, r.to_user, r.status, r.created_at, r.updated_at,
			   u.id, u.username, u.nickname, u.created_at
		FROM friend_requests r
		JOIN users u ON u.id = r.from_user
		WHERE r.to_user = ? AND r.status = 'pending'
		ORDER BY r.created_at DESC
	`, userID)
	if err != nil {
		return nil, apperr.Unavailable("failed to list friend requests", err)
	}
	defer rows.Close()

	requests := []models.RequestWithUser{}
	for rows.Next() {
		var r models.RequestWithUser
		if err := rows.Scan(
			&r.ID, &r.FromUser, &r.ToUser, &r.Status, &r.CreatedAt, &r.UpdatedAt,
			&r.From.ID, &r.From.Username, &r.From.Nickname, &r.From.CreatedAt,
		); err != nil {
			continue
		}
		requests = append(requests, r)
	}
	return requests, nil
}
