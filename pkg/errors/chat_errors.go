package errors

// Domain errors used by the chat core, mapped to HTTP status codes at
// the handler boundary.
var (
	ErrUserNotFound         = NotFound("user not found")
	ErrRequestNotFound      = NotFound("friend request not found")
	ErrConversationNotFound = NotFound("conversation not found")
	ErrMessageNotFound      = NotFound("message not found")

	ErrSelfFriendRequest = InvalidInput("cannot send a friend request to yourself")
	ErrAlreadyFriends    = Conflict("already friends")
	ErrDuplicatePending  = Conflict("friend request already pending")
	ErrReciprocalPending = Conflict("the other user already sent you a pending request")
	ErrNotFriends        = NotFound("friendship not found")
	ErrNotAddressee      = Forbidden("only the addressee may respond to this request")
	ErrInvalidDecision   = InvalidInput("decision must be accepted or declined")

	ErrNotMember         = Forbidden("not a member of this conversation")
	ErrAdminRequired     = Forbidden("only owner or admin may do this")
	ErrOwnerRequired     = Forbidden("only the owner may do this")
	ErrOwnerCannotLeave  = Conflict("owner must transfer ownership before leaving")
	ErrCannotRemoveOwner = Forbidden("cannot remove the owner")
	ErrAdminRemoveAdmin  = Forbidden("admin cannot remove another admin")
	ErrTargetNotMember   = NotFound("target user is not a member")
	ErrInvalidRole       = InvalidInput("role must be admin or member")
	ErrNotAGroup         = InvalidInput("conversation is not a group")

	ErrEmptyGroupName    = InvalidInput("group name cannot be empty")
	ErrNoInitialMembers  = InvalidInput("a group needs at least one other member")
	ErrEmptyContent      = InvalidInput("message content cannot be empty")
	ErrRecallWindow      = Forbidden("recall window has closed")
	ErrRecallNotAllowed  = Forbidden("only the sender or a group admin may recall")
	ErrAlreadyRecalled   = Conflict("message already recalled")
)
