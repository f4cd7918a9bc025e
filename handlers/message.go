package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yesuf435/im-safechat/chat"
	"github.com/yesuf435/im-safechat/middleware"
	"github.com/yesuf435/im-safechat/utils"
)

type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

func SendMessage(c *gin.Context) {
	userID := middleware.GetUserID(c)
	convID := c.Param("id")

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	msg, delivered, err := core.PublishMessage(convID, userID, req.Content)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, gin.H{
		"message":         msg.ToResponse(false),
		"delivered_count": delivered,
	})
}

// GetMessages pages forward from an (after, after_id) cursor; clients
// use it to reconcile missed messages after a reconnect.
func GetMessages(c *gin.Context) {
	userID := middleware.GetUserID(c)
	convID := c.Param("id")

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	var after chat.Cursor
	if v := c.Query("after"); v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			utils.BadRequest(c, "after must be an RFC3339 timestamp")
			return
		}
		after.At = t
		after.ID = c.Query("after_id")
	}

	messages, err := core.History(convID, userID, after, limit)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, messages)
}

func RecallMessage(c *gin.Context) {
	userID := middleware.GetUserID(c)
	messageID := c.Param("id")

	if err := core.RecallMessage(messageID, userID); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, gin.H{"recalled": true})
}
