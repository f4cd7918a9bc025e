package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yesuf435/im-safechat/middleware"
	"github.com/yesuf435/im-safechat/utils"

	apperr "github.com/yesuf435/im-safechat/pkg/errors"
)

type StartPrivateChatRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type CreateGroupRequest struct {
	Name      string   `json:"name" binding:"required"`
	MemberIDs []string `json:"member_ids" binding:"required"`
}

type InviteMembersRequest struct {
	UserIDs []string `json:"user_ids" binding:"required"`
}

type TransferOwnershipRequest struct {
	NewOwnerID string `json:"new_owner_id" binding:"required"`
}

type RenameGroupRequest struct {
	Name string `json:"name" binding:"required"`
}

type UpdateMemberRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=admin member"`
}

// StartPrivateChat is the policy boundary for private conversations:
// the friendship check lives here, not in the registry.
func StartPrivateChat(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req StartPrivateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	friends, err := core.AreFriends(userID, req.UserID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	if !friends {
		utils.Fail(c, apperr.Forbidden("can only chat with friends"))
		return
	}

	conv, err := core.GetOrCreatePrivate(userID, req.UserID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, conv.ToResponse())
}

func GetConversations(c *gin.Context) {
	userID := middleware.GetUserID(c)

	convs, err := core.ListConversations(userID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, convs)
}

func GetConversation(c *gin.Context) {
	userID := middleware.GetUserID(c)
	convID := c.Param("id")

	resp, err := core.ConversationDetail(convID, userID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, resp)
}

func CreateGroup(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	conv, excluded, err := core.CreateGroup(userID, req.Name, req.MemberIDs)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, gin.H{
		"conversation": conv.ToResponse(),
		"excluded":     excluded,
	})
}

func InviteMembers(c *gin.Context) {
	userID := middleware.GetUserID(c)
	convID := c.Param("id")

	var req InviteMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	added, excluded, err := core.InviteMembers(convID, userID, req.UserIDs)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, gin.H{
		"added":    added,
		"excluded": excluded,
	})
}

func LeaveGroup(c *gin.Context) {
	userID := middleware.GetUserID(c)
	convID := c.Param("id")

	if err := core.LeaveGroup(convID, userID); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, nil)
}

func RemoveMember(c *gin.Context) {
	userID := middleware.GetUserID(c)
	convID := c.Param("id")
	targetUserID := c.Param("user_id")

	if err := core.RemoveMember(convID, userID, targetUserID); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, nil)
}

func UpdateMemberRole(c *gin.Context) {
	userID := middleware.GetUserID(c)
	convID := c.Param("id")
	targetUserID := c.Param("user_id")

	var req UpdateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	if err := core.SetMemberRole(convID, userID, targetUserID, req.Role); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, gin.H{"user_id": targetUserID, "role": req.Role})
}

func TransferOwnership(c *gin.Context) {
	userID := middleware.GetUserID(c)
	convID := c.Param("id")

	var req TransferOwnershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	if err := core.TransferOwnership(convID, userID, req.NewOwnerID); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, nil)
}

func RenameGroup(c *gin.Context) {
	userID := middleware.GetUserID(c)
	convID := c.Param("id")

	var req RenameGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	if err := core.RenameGroup(convID, userID, req.Name); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, nil)
}

func DissolveGroup(c *gin.Context) {
	userID := middleware.GetUserID(c)
	convID := c.Param("id")

	if err := core.Dissolve(convID, userID); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, nil)
}
