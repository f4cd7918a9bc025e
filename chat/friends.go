package chat

import (
	"errors"
	"time"

	"github.com/yesuf435/im-safechat/models"
	"github.com/yesuf435/im-safechat/utils"

	apperr "github.com/yesuf435/im-safechat/pkg/errors"
)

// SendFriendRequest inserts a pending request from "from" to "to", or resurrects a
// previously declined one. A pending request in the opposite direction
// is rejected so the caller responds to that one instead of racing it.
func (s *Service) SendFriendRequest(from, to string) (*models.FriendRequest, error) {
	if from == to {
		return nil, apperr.ErrSelfFriendRequest
	}
	if _, err := s.users.GetUser(to); err != nil {
		return nil, err
	}

	key := "friend:" + pairKey(from, to)
	s.locks.lock(key)
	defer s.locks.unlock(key)

	friends, err := s.friends.AreFriends(from, to)
	if err != nil {
		return nil, err
	}
	if friends {
		return nil, apperr.ErrAlreadyFriends
	}

	now := time.Now()

	existing, err := s.friends.RequestBetween(from, to)
	if err != nil && !errors.Is(err, apperr.ErrRequestNotFound) {
		return nil, err
	}
	if existing != nil && existing.Status == models.RequestPending {
		return nil, apperr.ErrDuplicatePending
	}

	// A pending reverse request blocks both a fresh insert and a
	// declined-row resurrection; at most one direction may be pending.
	reverse, err := s.friends.RequestBetween(to, from)
	if err != nil && !errors.Is(err, apperr.ErrRequestNotFound) {
		return nil, err
	}
	if reverse != nil && reverse.Status == models.RequestPending {
		return nil, apperr.ErrReciprocalPending
	}

	if existing != nil && existing.Status == models.RequestDeclined {
		// Re-request: sender-only resurrection of a declined row.
		if err := s.friends.UpdateRequestStatus(existing.ID, models.RequestPending, now); err != nil {
			return nil, err
		}
		existing.Status = models.RequestPending
		existing.UpdatedAt = now
		s.router.Notify(to, EventFriendRequest, existing)
		return existing, nil
	}

	req := &models.FriendRequest{
		ID:        utils.GenerateUUID(),
		FromUser:  from,
		ToUser:    to,
		Status:    models.RequestPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.friends.InsertRequest(req); err != nil {
		return nil, err
	}

	s.router.Notify(to, EventFriendRequest, req)
	return req, nil
}

// RespondFriendRequest applies the addressee's decision. Acceptance
// materializes the symmetric friendship edge and notifies the sender.
func (s *Service) RespondFriendRequest(requestID, responder, decision string) error {
	if decision != models.RequestAccepted && decision != models.RequestDeclined {
		return apperr.ErrInvalidDecision
	}

	req, err := s.friends.RequestByID(requestID)
	if err != nil {
		return err
	}

	key := "friend:" + pairKey(req.FromUser, req.ToUser)
	s.locks.lock(key)
	defer s.locks.unlock(key)

	// Re-read under the lock; a concurrent respond may have won.
	req, err = s.friends.RequestByID(requestID)
	if err != nil {
		return err
	}
	if req.Status != models.RequestPending {
		return apperr.ErrRequestNotFound
	}
	if req.ToUser != responder {
		return apperr.ErrNotAddressee
	}

	now := time.Now()
	if err := s.friends.UpdateRequestStatus(req.ID, decision, now); err != nil {
		return err
	}

	if decision == models.RequestAccepted {
		if err := s.friends.InsertFriendship(req.FromUser, req.ToUser, now); err != nil {
			return err
		}
		s.router.Notify(req.FromUser, EventFriendAccepted, map[string]string{
			"request_id": req.ID,
			"user_id":    req.ToUser,
		})
	}
	return nil
}

func (s *Service) AreFriends(a, b string) (bool, error) {
	return s.friends.AreFriends(a, b)
}

func (s *Service) ListFriends(userID string) ([]models.FriendWithUser, error) {
	return s.friends.ListFriends(userID)
}

func (s *Service) ListIncomingRequests(userID string) ([]models.RequestWithUser, error) {
	return s.friends.ListIncomingRequests(userID)
}

// Unfriend removes the symmetric edge in both directions.
func (s *Service) Unfriend(userID, friendID string) error {
	key := "friend:" + pairKey(userID, friendID)
	s.locks.lock(key)
	defer s.locks.unlock(key)

	friends, err := s.friends.AreFriends(userID, friendID)
	if err != nil {
		return err
	}
	if !friends {
		return apperr.ErrNotFriends
	}
	if err := s.friends.DeleteFriendship(userID, friendID); err != nil {
		return err
	}
	s.router.Notify(friendID, EventFriendRemoved, map[string]string{"user_id": userID})
	return nil
}
