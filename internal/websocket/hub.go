package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/lumi-launcher/backend/internal/logging"
)

// InstallationsRoom carries installation summary pushes.
const InstallationsRoom = "installations"

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 16
)

// Message represents a WebSocket message
type Message struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// MessageHandler receives messages sent by a client.
type MessageHandler func(client *Client, msg *Message)

// Client represents a WebSocket client connection
type Client struct {
	ID   string
	Conn *websocket.Conn
	Room string
	Send chan *Message
	Hub  *Hub
	mu   sync.Mutex
}

// NewClient wraps an upgraded connection for a room.
func NewClient(hub *Hub, conn *websocket.Conn, room string) *Client {
	return &Client{
		ID:   uuid.NewString(),
		Conn: conn,
		Room: room,
		Send: make(chan *Message, sendBuffer),
		Hub:  hub,
	}
}

// Hub manages all WebSocket connections and rooms
type Hub struct {
	rooms map[string]map[*Client]bool

	Register   chan *Client
	Unregister chan *Client

	broadcast chan *BroadcastMessage

	// Last message per room, replayed to clients that join later
	retained map[string]*Message

	handler MessageHandler

	// Closed when Run returns so pumps and handlers stop waiting on the loop
	done     chan struct{}
	doneOnce sync.Once

	mu sync.RWMutex
}

// BroadcastMessage represents a message to broadcast to a room
type BroadcastMessage struct {
	Room    string
	Message *Message
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 64),
		retained:   make(map[string]*Message),
		done:       make(chan struct{}),
	}
}

// SetMessageHandler installs the callback for inbound client messages.
func (h *Hub) SetMessageHandler(handler MessageHandler) {
	h.mu.Lock()
	h.handler = handler
	h.mu.Unlock()
}

// Run starts the hub's main loop
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastToRoom(message)

		case <-ctx.Done():
			logging.Component("websocket").Info("hub_shutdown")
			h.doneOnce.Do(func() { close(h.done) })
			h.shutdown()
			return
		}
	}
}

// Join hands a client to the hub loop. It returns false once the hub has stopped.
func (h *Hub) Join(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Leave removes a client from its room. It does not block after the hub has stopped.
func (h *Hub) Leave(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[client.Room] == nil {
		h.rooms[client.Room] = make(map[*Client]bool)
	}
	h.rooms[client.Room][client] = true

	logging.Component("websocket").Debug("client_joined",
		"client_id", client.ID, "room", client.Room, "room_size", len(h.rooms[client.Room]))

	if last, ok := h.retained[client.Room]; ok {
		select {
		case client.Send <- last:
		default:
		}
	}
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.rooms[client.Room]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}

	delete(clients, client)
	close(client.Send)
	if len(clients) == 0 {
		delete(h.rooms, client.Room)
	}

	logging.Component("websocket").Debug("client_left", "client_id", client.ID, "room", client.Room)
}

func (h *Hub) broadcastToRoom(bm *BroadcastMessage) {
	h.mu.Lock()
	h.retained[bm.Room] = bm.Message
	h.mu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[bm.Room] {
		select {
		case client.Send <- bm.Message:
		default:
			// Slow client: drop rather than block the hub; the next push supersedes this one.
			logging.Component("websocket").Warn("send_buffer_full", "client_id", client.ID)
		}
	}
}

// GetRoomSize returns the number of clients in a room
func (h *Hub) GetRoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.rooms[room])
}

// BroadcastToRoom queues a message for every client in a room.
// It never blocks; when the queue is full the message is dropped.
func (h *Hub) BroadcastToRoom(room string, msgType string, payload interface{}) {
	message := &Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
	select {
	case h.broadcast <- &BroadcastMessage{Room: room, Message: message}:
	default:
		logging.Component("websocket").Warn("broadcast_queue_full", "room", room, "type", msgType)
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.rooms {
		for client := range clients {
			close(client.Send)
			if client.Conn != nil {
				client.Conn.Close()
			}
		}
	}

	h.rooms = make(map[string]map[*Client]bool)
}

func (h *Hub) dispatch(client *Client, msg *Message) {
	h.mu.RLock()
	handler := h.handler
	h.mu.RUnlock()

	if handler != nil {
		handler(client, msg)
	}
}

// ReadPump pumps messages from WebSocket connection to hub
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Leave(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(4096)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	log := logging.Component("websocket")
	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn("read_error", "client_id", c.ID, "error", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Debug("invalid_message", "client_id", c.ID, "error", err)
			continue
		}
		msg.Timestamp = time.Now()
		c.Hub.dispatch(c, &msg)
	}
}

// WritePump pumps messages from hub to WebSocket connection
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

			if err := c.Conn.WriteJSON(message); err != nil {
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

// SendMessage sends a message to this specific client
func (c *Client) SendMessage(msgType string, payload interface{}) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("client send channel is closed")
		}
	}()

	msg := &Message{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	select {
	case c.Send <- msg:
		return nil
	default:
		return fmt.Errorf("client send channel is full")
	}
}
