package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/yesuf435/im-safechat/config"
	"github.com/yesuf435/im-safechat/models"
	"github.com/yesuf435/im-safechat/pkg/logger"
	"github.com/yesuf435/im-safechat/utils"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// MessagePublisher is the slice of the chat service the socket needs to
// accept messages sent over the websocket itself.
type MessagePublisher interface {
	PublishMessage(convID, senderID, content string) (*models.Message, int, error)
}

var publisher MessagePublisher

// SetPublisher wires the chat service in after both sides exist; the
// hub is constructed before the service, which needs the hub.
func SetPublisher(p MessagePublisher) {
	publisher = p
}

type Client struct {
	ID     string
	UserID string // empty until authenticated
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan []byte
}

// ClientMessage is what clients send us.
type ClientMessage struct {
	Action         string `json:"action"`
	Token          string `json:"token,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	Content        string `json:"content,omitempty"`
}

func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Debug("websocket read error", "connection", c.ID, "error", err)
			}
			break
		}

		c.handleMessage(message)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(message []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return
	}

	switch msg.Action {
	case "authenticate":
		c.handleAuthenticate(&msg)
	case "subscribe":
		c.Hub.Subscribe(c, msg.ConversationID)
	case "send_message":
		c.handleSendMessage(&msg)
	case "ping":
		c.sendEvent("pong", nil)
	}
}

func (c *Client) handleAuthenticate(msg *ClientMessage) {
	claims, err := utils.ParseToken(msg.Token)
	if err != nil {
		c.sendEvent("auth_failed", map[string]string{"error": "invalid token"})
		return
	}
	c.Hub.Bind(c, claims.UserID)
	c.sendEvent("authenticated", map[string]string{"user_id": claims.UserID})
}

func (c *Client) handleSendMessage(msg *ClientMessage) {
	if c.UserID == "" || publisher == nil {
		return
	}

	_, _, err := publisher.PublishMessage(msg.ConversationID, c.UserID, msg.Content)
	if err != nil {
		c.sendEvent("send_failed", map[string]string{
			"conversation_id": msg.ConversationID,
			"error":           err.Error(),
		})
	}
}

func (c *Client) sendEvent(event string, data interface{}) {
	payload, err := json.Marshal(&Event{Event: event, Data: data})
	if err != nil {
		return
	}
	c.Hub.trySend(c, payload)
}

// HandleWebSocket upgrades the connection and admits it pending
// authentication; identity arrives later over the socket itself.
func HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		ID:   utils.GenerateUUID(),
		Hub:  HubInstance,
		Conn: conn,
		Send: make(chan []byte, config.Cfg.SendBuffer),
	}

	HubInstance.Admit(client)

	go client.WritePump()
	go client.ReadPump()
}
