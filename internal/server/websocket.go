package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/brydenu/blfs-cafe-sub001/internal/bus"
	"github.com/brydenu/blfs-cafe-sub001/internal/monitoring"
)

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Kiosk and tracker pages are served from other origins
	},
}

// wsClient maintains one viewer's WebSocket connection and its bus
// subscription. Missed messages are recovered by the client's own
// refresh fallback, never by the server.
type wsClient struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan []byte
	sub  *bus.Subscription
	bus  *bus.Bus
}

// handleWebSocket upgrades the connection and subscribes it to the
// requested topics (default: both). Staff boards subscribe to
// refresh-queue; per-order trackers subscribe to order-update and filter
// events by public code on their side.
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	topics := parseTopics(c.Query("topics"))
	client := &wsClient{
		id:   uuid.New(),
		conn: conn,
		send: make(chan []byte, 256),
		sub:  s.bus.Subscribe(topics...),
		bus:  s.bus,
	}

	monitoring.ConnectedClients.Inc()

	go client.forwardPump()
	go client.writePump()
	go client.readPump()
}

func parseTopics(raw string) []string {
	if raw == "" {
		return []string{bus.TopicRefreshQueue, bus.TopicOrderUpdate}
	}
	var topics []string
	for _, topic := range strings.Split(raw, ",") {
		switch strings.TrimSpace(topic) {
		case bus.TopicRefreshQueue, bus.TopicOrderUpdate:
			topics = append(topics, strings.TrimSpace(topic))
		}
	}
	if len(topics) == 0 {
		topics = []string{bus.TopicRefreshQueue, bus.TopicOrderUpdate}
	}
	return topics
}

// forwardPump moves bus messages into the socket's send buffer. If the
// buffer is full the message is dropped; the viewer re-fetches on its
// next refresh cycle.
func (c *wsClient) forwardPump() {
	for msg := range c.sub.C() {
		data, err := json.Marshal(msg)
		if err != nil {
			log.Printf("Error marshaling bus message: %v", err)
			continue
		}
		select {
		case c.send <- data:
		default:
			log.Printf("WebSocket %s buffer full, dropping message", c.id)
		}
	}
	close(c.send)
}

// readPump consumes client frames to keep pong handling alive and tears
// the connection down on close.
func (c *wsClient) readPump() {
	defer func() {
		c.bus.Unsubscribe(c.sub)
		c.conn.Close()
		monitoring.ConnectedClients.Dec()
	}()

	c.conn.SetReadLimit(4 * 1024)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
	}
}

// writePump pumps buffered messages to the WebSocket connection and keeps
// it alive with pings.
func (c *wsClient) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
