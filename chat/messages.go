package chat

import (
	"time"

	"github.com/yesuf435/im-safechat/models"
	"github.com/yesuf435/im-safechat/pkg/logger"
	"github.com/yesuf435/im-safechat/utils"

	apperr "github.com/yesuf435/im-safechat/pkg/errors"
)

// PublishMessage appends to the conversation's log and fans out to the
// live connections of every participant. The conversation lock holds
// across append and fan-out so subscribers see log order; delivery to a
// participant with no live connection is skipped, not queued.
func (s *Service) PublishMessage(convID, senderID, content string) (*models.Message, int, error) {
	if content == "" {
		return nil, 0, apperr.ErrEmptyContent
	}

	s.locks.lock("conv:" + convID)
	defer s.locks.unlock("conv:" + convID)

	// Membership is checked under the lock: a concurrent removal cannot
	// slip a message in after the sender was ejected.
	role, err := s.convs.Role(convID, senderID)
	if err != nil {
		return nil, 0, err
	}
	if role == "" {
		return nil, 0, apperr.ErrNotMember
	}

	now := time.Now()
	msg := &models.Message{
		ID:             utils.GenerateUUID(),
		ConversationID: convID,
		SenderID:       senderID,
		Content:        content,
		CreatedAt:      now,
	}
	if err := s.messages.Insert(msg); err != nil {
		return nil, 0, err
	}
	if err := s.convs.TouchLastMessage(convID, msg.ID, now); err != nil {
		return nil, 0, err
	}

	participants, err := s.convs.ParticipantIDs(convID)
	if err != nil {
		return nil, 0, err
	}
	delivered := s.router.Publish(convID, participants, EventNewMessage, msg.ToResponse(false))
	if delivered == 0 {
		logger.Debug("no live connections for message", "conversation", convID, "message", msg.ID)
	}
	return msg, delivered, nil
}

// History reads messages after the cursor in (created_at, id) order.
// Recalled content is suppressed unless the reader is a group admin or
// owner; clients use this to reconcile after a reconnect.
func (s *Service) History(convID, userID string, after Cursor, limit int) ([]models.MessageResponse, error) {
	role, err := s.convs.Role(convID, userID)
	if err != nil {
		return nil, err
	}
	if role == "" {
		return nil, apperr.ErrNotMember
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}

	msgs, err := s.messages.ListSince(convID, after, limit)
	if err != nil {
		return nil, err
	}

	adminView := role == models.RoleOwner || role == models.RoleAdmin
	out := make([]models.MessageResponse, 0, len(msgs))
	for i := range msgs {
		out = append(out, *msgs[i].ToResponse(adminView))
	}
	return out, nil
}

// RecallMessage suppresses a message's content without deleting the
// row. The sender may recall within the configured window; a group
// admin or owner may recall at any time.
func (s *Service) RecallMessage(messageID, actor string) error {
	msg, err := s.messages.ByID(messageID)
	if err != nil {
		return err
	}

	s.locks.lock("conv:" + msg.ConversationID)
	defer s.locks.unlock("conv:" + msg.ConversationID)

	msg, err = s.messages.ByID(messageID)
	if err != nil {
		return err
	}
	if msg.Recalled() {
		return apperr.ErrAlreadyRecalled
	}

	role, err := s.convs.Role(msg.ConversationID, actor)
	if err != nil {
		return err
	}
	if role == "" {
		return apperr.ErrNotMember
	}

	isAdmin := role == models.RoleOwner || role == models.RoleAdmin
	switch {
	case msg.SenderID == actor:
		if !isAdmin && time.Since(msg.CreatedAt) > s.recallWindow {
			return apperr.ErrRecallWindow
		}
	case isAdmin:
		// Admins recall anyone's message, no window.
	default:
		return apperr.ErrRecallNotAllowed
	}

	if err := s.messages.MarkRecalled(messageID, actor, time.Now()); err != nil {
		return err
	}

	participants, err := s.convs.ParticipantIDs(msg.ConversationID)
	if err == nil {
		s.router.Publish(msg.ConversationID, participants, EventMessageRecalled, map[string]string{
			"conversation_id": msg.ConversationID,
			"message_id":      messageID,
			"recalled_by":     actor,
		})
	}
	return nil
}
