package chat

// Socket event names pushed through the Router.
const (
	EventNewMessage       = "message.new"
	EventMessageRecalled  = "message.recalled"
	EventFriendRequest    = "friend.request"
	EventFriendAccepted   = "friend.accepted"
	EventFriendRemoved    = "friend.removed"
	EventGroupInvited     = "group.invited"
	EventGroupRemoved     = "group.removed"
	EventGroupRenamed     = "group.renamed"
	EventGroupRoleChanged = "group.role_changed"
	EventGroupTransferred = "group.owner_transferred"
	EventGroupDissolved   = "group.dissolved"
	EventMemberLeft       = "group.member_left"
)
