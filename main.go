package main

import (
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/yesuf435/im-safechat/chat"
	"github.com/yesuf435/im-safechat/config"
	"github.com/yesuf435/im-safechat/database"
	"github.com/yesuf435/im-safechat/handlers"
	"github.com/yesuf435/im-safechat/middleware"
	"github.com/yesuf435/im-safechat/pkg/logger"
	"github.com/yesuf435/im-safechat/store"
	"github.com/yesuf435/im-safechat/websocket"
)

func main() {
	_ = godotenv.Load()
	config.Load()
	logger.Init()
	defer logger.Sync()

	if err := database.Connect(); err != nil {
		logger.Fatal("failed to connect to database", err)
	}
	defer database.Close()

	if err := database.CreateTables(); err != nil {
		logger.Fatal("failed to create tables", err)
	}

	users := store.NewUserStore(database.DB)
	friends := store.NewFriendStore(database.DB)
	convs := store.NewConversationStore(database.DB)
	messages := store.NewMessageStore(database.DB)

	// The hub needs the service for membership checks and the service
	// needs the hub for delivery, so the membership source is wired in
	// two steps.
	wiring := &membershipWiring{}
	hub := websocket.NewHub(wiring, config.Cfg.AuthGrace)
	websocket.HubInstance = hub

	svc := chat.NewService(users, friends, convs, messages, hub, config.Cfg.RecallWindow)
	wiring.svc = svc
	websocket.SetPublisher(svc)
	handlers.Init(svc)

	r := gin.Default()
	r.Use(middleware.CORSMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	auth := r.Group("/api/auth")
	{
		auth.POST("/register", handlers.Register)
		auth.POST("/login", handlers.Login)
	}

	friendsAPI := r.Group("/api/friends")
	friendsAPI.Use(middleware.AuthMiddleware())
	{
		friendsAPI.GET("", handlers.GetFriends)
		friendsAPI.GET("/requests", handlers.GetFriendRequests)
		friendsAPI.POST("/requests", handlers.SendFriendRequest)
		friendsAPI.POST("/requests/:id/respond", handlers.RespondFriendRequest)
		friendsAPI.DELETE("/:user_id", handlers.DeleteFriend)
	}

	conversations := r.Group("/api/conversations")
	conversations.Use(middleware.AuthMiddleware())
	{
		conversations.GET("", handlers.GetConversations)
		conversations.POST("", handlers.CreateGroup)
		conversations.POST("/private", handlers.StartPrivateChat)
		conversations.GET("/:id", handlers.GetConversation)
		conversations.PUT("/:id", handlers.RenameGroup)
		conversations.DELETE("/:id", handlers.DissolveGroup)

		conversations.POST("/:id/members", handlers.InviteMembers)
		conversations.DELETE("/:id/members/me", handlers.LeaveGroup)
		conversations.DELETE("/:id/members/:user_id", handlers.RemoveMember)
		conversations.PUT("/:id/members/:user_id", handlers.UpdateMemberRole)
		conversations.POST("/:id/transfer", handlers.TransferOwnership)

		conversations.GET("/:id/messages", handlers.GetMessages)
		conversations.POST("/:id/messages", handlers.SendMessage)
	}

	messagesAPI := r.Group("/api/messages")
	messagesAPI.Use(middleware.AuthMiddleware())
	{
		messagesAPI.POST("/:id/recall", handlers.RecallMessage)
	}

	r.GET("/ws", websocket.HandleWebSocket)

	logger.Info("server starting", "addr", config.Cfg.ServerAddr)
	if err := r.Run(config.Cfg.ServerAddr); err != nil {
		logger.Fatal("server exited", err)
	}
}

// membershipWiring defers the hub's view of the service until both exist.
type membershipWiring struct {
	svc *chat.Service
}

func (w *membershipWiring) IsParticipant(convID, userID string) (bool, error) {
	return w.svc.IsParticipant(convID, userID)
}

func (w *membershipWiring) ConversationIDsOf(userID string) ([]string, error) {
	return w.svc.ConversationIDsOf(userID)
}
