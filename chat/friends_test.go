package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yesuf435/im-safechat/models"

	apperr "github.com/yesuf435/im-safechat/pkg/errors"
)

func TestSendFriendRequest(t *testing.T) {
	svc, _, _, _, _, router := newTestService("alice", "bob")

	req, err := svc.SendFriendRequest("alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, req.Status)
	assert.Equal(t, "alice", req.FromUser)
	assert.Equal(t, "bob", req.ToUser)
	assert.Contains(t, router.notifiedEvents("bob"), EventFriendRequest)
}

func TestSendFriendRequestToSelf(t *testing.T) {
	svc, _, _, _, _, _ := newTestService("alice")

	_, err := svc.SendFriendRequest("alice", "alice")
	assert.ErrorIs(t, err, apperr.ErrSelfFriendRequest)
}

func TestSendFriendRequestUnknownUser(t *testing.T) {
	svc, _, _, _, _, _ := newTestService("alice")

	_, err := svc.SendFriendRequest("alice", "ghost")
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)
}

func TestSendFriendRequestDuplicatePending(t *testing.T) {
	svc, _, _, _, _, _ := newTestService("alice", "bob")

	_, err := svc.SendFriendRequest("alice", "bob")
	require.NoError(t, err)

	_, err = svc.SendFriendRequest("alice", "bob")
	assert.ErrorIs(t, err, apperr.ErrDuplicatePending)
	assert.Equal(t, apperr.CodeConflict, apperr.CodeOf(err))
}

func TestSendFriendRequestReciprocalPending(t *testing.T) {
	svc, _, _, _, _, _ := newTestService("alice", "bob")

	_, err := svc.SendFriendRequest("alice", "bob")
	require.NoError(t, err)

	// Bob must respond to Alice's request instead of racing his own.
	_, err = svc.SendFriendRequest("bob", "alice")
	assert.ErrorIs(t, err, apperr.ErrReciprocalPending)
}

func TestSendFriendRequestAlreadyFriends(t *testing.T) {
	svc, _, friends, _, _, _ := newTestService("alice", "bob")
	befriend(friends, "alice", "bob")

	_, err := svc.SendFriendRequest("alice", "bob")
	assert.ErrorIs(t, err, apperr.ErrAlreadyFriends)
}

func TestRespondAcceptCreatesSymmetricEdge(t *testing.T) {
	svc, _, friends, _, _, router := newTestService("alice", "bob")

	req, err := svc.SendFriendRequest("alice", "bob")
	require.NoError(t, err)

	require.NoError(t, svc.RespondFriendRequest(req.ID, "bob", models.RequestAccepted))

	ab, _ := friends.AreFriends("alice", "bob")
	ba, _ := friends.AreFriends("bob", "alice")
	assert.True(t, ab)
	assert.True(t, ba)
	assert.Contains(t, router.notifiedEvents("alice"), EventFriendAccepted)
}

func TestRespondOnlyAddressee(t *testing.T) {
	svc, _, _, _, _, _ := newTestService("alice", "bob", "carol")

	req, err := svc.SendFriendRequest("alice", "bob")
	require.NoError(t, err)

	err = svc.RespondFriendRequest(req.ID, "carol", models.RequestAccepted)
	assert.ErrorIs(t, err, apperr.ErrNotAddressee)

	// The sender cannot accept their own request either.
	err = svc.RespondFriendRequest(req.ID, "alice", models.RequestAccepted)
	assert.ErrorIs(t, err, apperr.ErrNotAddressee)
}

func TestRespondInvalidDecision(t *testing.T) {
	svc, _, _, _, _, _ := newTestService("alice", "bob")

	req, err := svc.SendFriendRequest("alice", "bob")
	require.NoError(t, err)

	err = svc.RespondFriendRequest(req.ID, "bob", "maybe")
	assert.ErrorIs(t, err, apperr.ErrInvalidDecision)
}

func TestRespondUnknownOrSettledRequest(t *testing.T) {
	svc, _, _, _, _, _ := newTestService("alice", "bob")

	err := svc.RespondFriendRequest("missing", "bob", models.RequestAccepted)
	assert.ErrorIs(t, err, apperr.ErrRequestNotFound)

	req, err := svc.SendFriendRequest("alice", "bob")
	require.NoError(t, err)
	require.NoError(t, svc.RespondFriendRequest(req.ID, "bob", models.RequestDeclined))

	// Already settled: responding again reports not-found, not a flip.
	err = svc.RespondFriendRequest(req.ID, "bob", models.RequestAccepted)
	assert.ErrorIs(t, err, apperr.ErrRequestNotFound)
}

func TestDeclinedRequestResendBySenderOnly(t *testing.T) {
	svc, _, _, _, _, _ := newTestService("alice", "bob")

	req, err := svc.SendFriendRequest("alice", "bob")
	require.NoError(t, err)
	require.NoError(t, svc.RespondFriendRequest(req.ID, "bob", models.RequestDeclined))

	// Sender resurrects the declined row back to pending.
	resent, err := svc.SendFriendRequest("alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, req.ID, resent.ID)
	assert.Equal(t, models.RequestPending, resent.Status)

	// The receiver cannot resend on the sender's behalf: from bob's side
	// there is now a reciprocal pending request to answer.
	_, err = svc.SendFriendRequest("bob", "alice")
	assert.ErrorIs(t, err, apperr.ErrReciprocalPending)
}

func TestDeclinedResendBlockedByReciprocalPending(t *testing.T) {
	svc, _, friends, _, _, _ := newTestService("alice", "bob")

	req, err := svc.SendFriendRequest("alice", "bob")
	require.NoError(t, err)
	require.NoError(t, svc.RespondFriendRequest(req.ID, "bob", models.RequestDeclined))

	// Bob changes his mind and sends his own request.
	_, err = svc.SendFriendRequest("bob", "alice")
	require.NoError(t, err)

	// Alice's resend must answer bob's pending request, not resurrect
	// her declined row alongside it.
	_, err = svc.SendFriendRequest("alice", "bob")
	assert.ErrorIs(t, err, apperr.ErrReciprocalPending)

	row, err := friends.RequestBetween("alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, models.RequestDeclined, row.Status)
}

func TestDeclineLeavesNoEdge(t *testing.T) {
	svc, _, friends, _, _, _ := newTestService("alice", "bob")

	req, err := svc.SendFriendRequest("alice", "bob")
	require.NoError(t, err)
	require.NoError(t, svc.RespondFriendRequest(req.ID, "bob", models.RequestDeclined))

	ab, _ := friends.AreFriends("alice", "bob")
	assert.False(t, ab)
}

func TestAcceptIsIdempotentOnEdge(t *testing.T) {
	svc, _, friends, _, _, _ := newTestService("alice", "bob")
	befriend(friends, "alice", "bob")

	// An edge that already exists must not break acceptance.
	req := &models.FriendRequest{ID: "r1", FromUser: "alice", ToUser: "bob", Status: models.RequestPending}
	require.NoError(t, friends.InsertRequest(req))
	require.NoError(t, svc.RespondFriendRequest("r1", "bob", models.RequestAccepted))

	ab, _ := friends.AreFriends("alice", "bob")
	assert.True(t, ab)
}

func TestUnfriendRemovesBothDirections(t *testing.T) {
	svc, _, friends, _, _, router := newTestService("alice", "bob")
	befriend(friends, "alice", "bob")

	require.NoError(t, svc.Unfriend("alice", "bob"))

	ab, _ := friends.AreFriends("alice", "bob")
	ba, _ := friends.AreFriends("bob", "alice")
	assert.False(t, ab)
	assert.False(t, ba)
	assert.Contains(t, router.notifiedEvents("bob"), EventFriendRemoved)

	err := svc.Unfriend("alice", "bob")
	assert.ErrorIs(t, err, apperr.ErrNotFriends)
}

func TestListFriends(t *testing.T) {
	svc, _, friends, _, _, _ := newTestService("alice", "bob", "carol")
	befriend(friends, "alice", "bob")
	befriend(friends, "alice", "carol")

	list, err := svc.ListFriends("alice")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "bob", list[0].FriendID)
	assert.Equal(t, "carol", list[1].FriendID)
}
