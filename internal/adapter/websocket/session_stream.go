package websocket

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/bafoka-labs/voicebank/internal/adapter/queue"
)

// SessionStreamHandler streams session lifecycle events to websocket clients.
// Events originate on the message queue; the handler bridges them to the hub.
type SessionStreamHandler struct {
	hub *Hub
	log *zap.Logger
}

func NewSessionStreamHandler(hub *Hub, log *zap.Logger) *SessionStreamHandler {
	return &SessionStreamHandler{
		hub: hub,
		log: log,
	}
}

// BridgeQueue subscribes to session and banking events and forwards them to
// connected clients. Events carry a user_id field used for targeting.
func (h *SessionStreamHandler) BridgeQueue(mq queue.MessageQueue) error {
	subjects := []string{"session.turn.recorded", "banking.executed", "security.alert"}
	for _, subject := range subjects {
		subject := subject
		err := mq.Subscribe(subject, func(data []byte) error {
			h.forward(subject, data)
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (h *SessionStreamHandler) forward(subject string, data []byte) {
	var envelope struct {
		UserID string `json:"user_id"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		h.log.Warn("Dropping malformed event", zap.String("subject", subject), zap.Error(err))
		return
	}

	framed, err := json.Marshal(map[string]json.RawMessage{
		"subject": json.RawMessage(`"` + subject + `"`),
		"event":   json.RawMessage(data),
	})
	if err != nil {
		return
	}

	h.hub.SendToUser(envelope.UserID, framed)
}

// HandleSessionStream attaches one websocket client to the hub. A user_id
// query parameter scopes the stream to that user; without it the client
// receives every event.
func (h *SessionStreamHandler) HandleSessionStream(c *websocket.Conn) {
	userID, _ := c.Locals("watch_user_id").(string)

	h.log.Info("Session stream client connected", zap.String("user_id", userID))
	h.hub.Attach(c, userID)
	h.log.Info("Session stream client disconnected", zap.String("user_id", userID))
}

// SetupSessionRoutes configures the websocket route for session events
func SetupSessionRoutes(app *fiber.App, handler *SessionStreamHandler) {
	app.Use("/ws/sessions", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("watch_user_id", c.Query("user_id"))
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/sessions", websocket.New(handler.HandleSessionStream))
}
