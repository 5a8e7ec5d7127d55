package stream

import (
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/ishaanzatey/incident-handler/pkg/broadcaster"
)

// wsSubscriber adapts a websocket connection to the broadcaster's
// Subscriber interface. Writes are serialized because the hub's delivery
// goroutine is the only writer but close can race with a final send.
type wsSubscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *wsSubscriber) Send(envelope broadcaster.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(envelope)
}

// RegisterRoutes registers the live stream websocket endpoint. Connected
// clients receive every processing event as a JSON envelope; the client
// sends nothing beyond liveness, and a read error ends the subscription.
func RegisterRoutes(app *fiber.App, hub *broadcaster.Hub) {
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		sub := &wsSubscriber{conn: c}
		hub.Subscribe(sub)
		defer hub.Unsubscribe(sub)

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}))
}
