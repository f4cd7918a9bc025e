package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yesuf435/im-safechat/middleware"
	"github.com/yesuf435/im-safechat/utils"
)

type SendFriendRequestRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type RespondFriendRequestRequest struct {
	Decision string `json:"decision" binding:"required,oneof=accepted declined"`
}

func GetFriends(c *gin.Context) {
	userID := middleware.GetUserID(c)

	friends, err := core.ListFriends(userID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, friends)
}

func GetFriendRequests(c *gin.Context) {
	userID := middleware.GetUserID(c)

	requests, err := core.ListIncomingRequests(userID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, requests)
}

func SendFriendRequest(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req SendFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	request, err := core.SendFriendRequest(userID, req.UserID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, request)
}

func RespondFriendRequest(c *gin.Context) {
	userID := middleware.GetUserID(c)
	requestID := c.Param("id")

	var req RespondFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	if err := core.RespondFriendRequest(requestID, userID, req.Decision); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, gin.H{"status": req.Decision})
}

func DeleteFriend(c *gin.Context) {
	userID := middleware.GetUserID(c)
	friendID := c.Param("user_id")

	if err := core.Unfriend(userID, friendID); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, nil)
}
