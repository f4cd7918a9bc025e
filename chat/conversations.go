package chat

import (
	"errors"
	"time"

	"github.com/yesuf435/im-safechat/models"
	"github.com/yesuf435/im-safechat/utils"

	apperr "github.com/yesuf435/im-safechat/pkg/errors"
)

// GetOrCreatePrivate returns the unique private conversation for the
// unordered pair, creating it on first use. It deliberately does not
// check friendship: that policy belongs to the caller boundary, which
// keeps the registry a pure structural index.
func (s *Service) GetOrCreatePrivate(userA, userB string) (*models.Conversation, error) {
	if userA == userB {
		return nil, apperr.InvalidInput("cannot start a private conversation with yourself")
	}
	if _, err := s.users.GetUser(userB); err != nil {
		return nil, err
	}

	key := "private:" + pairKey(userA, userB)
	s.locks.lock(key)
	defer s.locks.unlock(key)

	conv, err := s.convs.FindPrivate(userA, userB)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, apperr.ErrConversationNotFound) {
		return nil, err
	}

	now := time.Now()
	conv = &models.Conversation{
		ID:        utils.GenerateUUID(),
		Type:      models.ConversationPrivate,
		CreatedBy: userA,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.convs.InsertPrivate(conv, userA, userB); err != nil {
		return nil, err
	}

	s.router.JoinRoom(userA, conv.ID)
	s.router.JoinRoom(userB, conv.ID)
	return conv, nil
}

// CreateGroup creates a group owned by the creator. Candidate members
// who don't exist or aren't friends of the creator are excluded and
// reported individually; the group is still created as long as at least
// one member survives.
func (s *Service) CreateGroup(creator, name string, memberIDs []string) (*models.Conversation, []models.ExcludedMember, error) {
	if name == "" {
		return nil, nil, apperr.ErrEmptyGroupName
	}

	var accepted []string
	var excluded []models.ExcludedMember
	seen := map[string]bool{creator: true}

	for _, id := range memberIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		if _, err := s.users.GetUser(id); err != nil {
			excluded = append(excluded, models.ExcludedMember{UserID: id, Reason: models.ExcludeNotFound})
			continue
		}
		friends, err := s.friends.AreFriends(creator, id)
		if err != nil {
			return nil, nil, err
		}
		if !friends {
			excluded = append(excluded, models.ExcludedMember{UserID: id, Reason: models.ExcludeNotFriend})
			continue
		}
		accepted = append(accepted, id)
	}

	if len(accepted) == 0 {
		return nil, excluded, apperr.ErrNoInitialMembers
	}

	now := time.Now()
	conv := &models.Conversation{
		ID:        utils.GenerateUUID(),
		Type:      models.ConversationGroup,
		Name:      name,
		CreatedBy: creator,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.convs.InsertGroup(conv, creator, accepted); err != nil {
		return nil, nil, err
	}

	s.router.JoinRoom(creator, conv.ID)
	for _, id := range accepted {
		s.router.JoinRoom(id, conv.ID)
		s.router.Notify(id, EventGroupInvited, map[string]string{
			"conversation_id": conv.ID,
			"name":            name,
			"invited_by":      creator,
		})
	}
	return conv, excluded, nil
}

// InviteMembers adds users to a group. Invitees must exist, be friends
// of the actor and not already be members; failures are reported
// per-user, not as a whole-call error.
func (s *Service) InviteMembers(convID, actor string, memberIDs []string) ([]string, []models.ExcludedMember, error) {
	s.locks.lock("conv:" + convID)
	defer s.locks.unlock("conv:" + convID)

	if err := s.requireGroupRole(convID, actor, models.RoleAdmin); err != nil {
		return nil, nil, err
	}

	now := time.Now()
	var added []string
	var excluded []models.ExcludedMember
	seen := map[string]bool{}

	for _, id := range memberIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		if _, err := s.users.GetUser(id); err != nil {
			excluded = append(excluded, models.ExcludedMember{UserID: id, Reason: models.ExcludeNotFound})
			continue
		}
		role, err := s.convs.Role(convID, id)
		if err != nil {
			return nil, nil, err
		}
		if role != "" {
			excluded = append(excluded, models.ExcludedMember{UserID: id, Reason: models.ExcludeAlreadyMember})
			continue
		}
		friends, err := s.friends.AreFriends(actor, id)
		if err != nil {
			return nil, nil, err
		}
		if !friends {
			excluded = append(excluded, models.ExcludedMember{UserID: id, Reason: models.ExcludeNotFriend})
			continue
		}

		if err := s.convs.AddMember(convID, id, models.RoleMember, now); err != nil {
			return nil, nil, err
		}
		added = append(added, id)
		s.router.JoinRoom(id, convID)
		s.router.Notify(id, EventGroupInvited, map[string]string{
			"conversation_id": convID,
			"invited_by":      actor,
		})
	}
	return added, excluded, nil
}

// LeaveGroup removes the caller. The owner cannot leave while the group
// exists; ownership must be transferred first.
func (s *Service) LeaveGroup(convID, userID string) error {
	s.locks.lock("conv:" + convID)
	defer s.locks.unlock("conv:" + convID)

	role, err := s.groupRole(convID, userID)
	if err != nil {
		return err
	}
	if role == "" {
		return apperr.ErrNotMember
	}
	if role == models.RoleOwner {
		return apperr.ErrOwnerCannotLeave
	}

	if err := s.convs.RemoveMember(convID, userID); err != nil {
		return err
	}
	s.router.LeaveRoom(userID, convID)

	participants, err := s.convs.ParticipantIDs(convID)
	if err == nil {
		s.router.Publish(convID, participants, EventMemberLeft, map[string]string{
			"conversation_id": convID,
			"user_id":         userID,
		})
	}
	return nil
}

// RemoveMember ejects target from a group. Admins cannot remove other
// admins and nobody removes the owner.
func (s *Service) RemoveMember(convID, actor, target string) error {
	if actor == target {
		return s.LeaveGroup(convID, actor)
	}

	s.locks.lock("conv:" + convID)
	defer s.locks.unlock("conv:" + convID)

	if err := s.requireGroupRole(convID, actor, models.RoleAdmin); err != nil {
		return err
	}

	targetRole, err := s.convs.Role(convID, target)
	if err != nil {
		return err
	}
	if targetRole == "" {
		return apperr.ErrTargetNotMember
	}
	if targetRole == models.RoleOwner {
		return apperr.ErrCannotRemoveOwner
	}
	actorRole, err := s.convs.Role(convID, actor)
	if err != nil {
		return err
	}
	if actorRole == models.RoleAdmin && targetRole == models.RoleAdmin {
		return apperr.ErrAdminRemoveAdmin
	}

	if err := s.convs.RemoveMember(convID, target); err != nil {
		return err
	}
	s.router.LeaveRoom(target, convID)
	s.router.Notify(target, EventGroupRemoved, map[string]string{
		"conversation_id": convID,
		"removed_by":      actor,
	})
	return nil
}

// TransferOwnership atomically demotes the current owner to member and
// promotes newOwner. Checked and applied under the conversation lock so
// two concurrent transfers cannot both succeed.
func (s *Service) TransferOwnership(convID, actor, newOwner string) error {
	s.locks.lock("conv:" + convID)
	defer s.locks.unlock("conv:" + convID)

	if err := s.requireGroupRole(convID, actor, models.RoleOwner); err != nil {
		return err
	}

	targetRole, err := s.convs.Role(convID, newOwner)
	if err != nil {
		return err
	}
	if targetRole == "" {
		return apperr.ErrTargetNotMember
	}
	if newOwner == actor {
		return apperr.InvalidInput("already the owner")
	}

	if err := s.convs.TransferOwnership(convID, actor, newOwner, time.Now()); err != nil {
		return err
	}

	participants, err := s.convs.ParticipantIDs(convID)
	if err == nil {
		s.router.Publish(convID, participants, EventGroupTransferred, map[string]string{
			"conversation_id": convID,
			"old_owner":       actor,
			"new_owner":       newOwner,
		})
	}
	return nil
}

// SetMemberRole moves a member between admin and member. Owner-only;
// the owner's own role changes through TransferOwnership, never here.
func (s *Service) SetMemberRole(convID, actor, target, role string) error {
	if role != models.RoleAdmin && role != models.RoleMember {
		return apperr.ErrInvalidRole
	}

	s.locks.lock("conv:" + convID)
	defer s.locks.unlock("conv:" + convID)

	if err := s.requireGroupRole(convID, actor, models.RoleOwner); err != nil {
		return err
	}

	targetRole, err := s.convs.Role(convID, target)
	if err != nil {
		return err
	}
	if targetRole == "" {
		return apperr.ErrTargetNotMember
	}
	if targetRole == models.RoleOwner {
		return apperr.InvalidInput("transfer ownership to change the owner")
	}
	if targetRole == role {
		return nil
	}

	if err := s.convs.UpdateRole(convID, target, role); err != nil {
		return err
	}
	s.router.Notify(target, EventGroupRoleChanged, map[string]string{
		"conversation_id": convID,
		"role":            role,
		"changed_by":      actor,
	})
	return nil
}

// Dissolve removes the group, its memberships and its message history
// as one unit, then tells every former participant.
func (s *Service) Dissolve(convID, actor string) error {
	s.locks.lock("conv:" + convID)
	defer s.locks.unlock("conv:" + convID)

	if err := s.requireGroupRole(convID, actor, models.RoleOwner); err != nil {
		return err
	}

	participants, err := s.convs.ParticipantIDs(convID)
	if err != nil {
		return err
	}

	if err := s.convs.Dissolve(convID); err != nil {
		return err
	}

	for _, id := range participants {
		s.router.Notify(id, EventGroupDissolved, map[string]string{
			"conversation_id": convID,
			"dissolved_by":    actor,
		})
	}
	s.router.CloseRoom(convID)
	return nil
}

func (s *Service) RenameGroup(convID, actor, name string) error {
	if name == "" {
		return apperr.ErrEmptyGroupName
	}

	s.locks.lock("conv:" + convID)
	defer s.locks.unlock("conv:" + convID)

	if err := s.requireGroupRole(convID, actor, models.RoleAdmin); err != nil {
		return err
	}
	if err := s.convs.Rename(convID, name, time.Now()); err != nil {
		return err
	}

	participants, err := s.convs.ParticipantIDs(convID)
	if err == nil {
		s.router.Publish(convID, participants, EventGroupRenamed, map[string]string{
			"conversation_id": convID,
			"name":            name,
			"renamed_by":      actor,
		})
	}
	return nil
}

func (s *Service) ListConversations(userID string) ([]models.Conversation, error) {
	return s.convs.ListForUser(userID)
}

func (s *Service) ConversationDetail(convID, userID string) (*models.ConversationResponse, error) {
	role, err := s.convs.Role(convID, userID)
	if err != nil {
		return nil, err
	}
	if role == "" {
		return nil, apperr.ErrNotMember
	}

	conv, err := s.convs.Conversation(convID)
	if err != nil {
		return nil, err
	}
	resp := conv.ToResponse()

	members, err := s.convs.Members(convID)
	if err != nil {
		return nil, err
	}
	for _, m := range members {
		mw := models.MemberWithUser{UserID: m.UserID, Role: m.Role, JoinedAt: m.JoinedAt}
		if u, err := s.users.GetUser(m.UserID); err == nil {
			mw.User = *u.ToResponse()
		}
		resp.Members = append(resp.Members, mw)
	}
	return resp, nil
}

// groupRole resolves the caller's role, requiring the conversation to
// exist and be a group.
func (s *Service) groupRole(convID, userID string) (string, error) {
	conv, err := s.convs.Conversation(convID)
	if err != nil {
		return "", err
	}
	if conv.Type != models.ConversationGroup {
		return "", apperr.ErrNotAGroup
	}
	return s.convs.Role(convID, userID)
}

// requireGroupRole enforces a minimum role: RoleAdmin accepts admin or
// owner, RoleOwner accepts only the owner.
func (s *Service) requireGroupRole(convID, userID, min string) error {
	role, err := s.groupRole(convID, userID)
	if err != nil {
		return err
	}
	if role == "" {
		return apperr.ErrNotMember
	}
	switch min {
	case models.RoleOwner:
		if role != models.RoleOwner {
			return apperr.ErrOwnerRequired
		}
	case models.RoleAdmin:
		if role != models.RoleOwner && role != models.RoleAdmin {
			return apperr.ErrAdminRequired
		}
	}
	return nil
}
