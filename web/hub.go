package web

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	WRITE_WAIT       = 10 * time.Second // Time allowed to write a message to the peer.
	MAX_MESSAGE_SIZE = 4096             // Maximum message size allowed from the peer.
	SEND_DEPTH       = 64               // Outbound frames buffered per client.
	CONTROL_DEPTH    = 16               // Control messages buffered for the server.
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is a middleman between a websocket connection and the hub.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte // Outbound messages.
}

// readPump forwards control messages from the connection to the hub.
// A broken connection is detected by a write failure in writePump.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(MAX_MESSAGE_SIZE)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("web: read: %v", err)
			}
			return
		}

		var msg Message
		err = json.Unmarshal(data, &msg)
		if err != nil {
			log.Printf("web: control: %v", err)
			continue
		}

		select {
		case c.hub.Control <- msg:
		default:
			log.Printf("web: control %v dropped", msg.Type)
		}
	}
}

// writePump writes hub messages to the connection. It is the only writer.
func (c *Client) writePump() {
	defer c.conn.Close()

	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(WRITE_WAIT))
		err := c.conn.WriteMessage(websocket.TextMessage, data)
		if err != nil {
			log.Printf("web: write: %v", err)
			return
		}
	}

	// The hub closed the channel.
	c.conn.SetWriteDeadline(time.Now().Add(WRITE_WAIT))
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// Hub keeps the set of connected clients, broadcasts frames to them, and
// collects their control messages.
type Hub struct {
	Verbose bool         // Set to enable verbose logging.
	Control chan Message // Control messages from every client.

	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

// NewHub creates a hub. Call Run to start it.
func NewHub() *Hub {
	return &Hub{
		Control:    make(chan Message, CONTROL_DEPTH),
		clients:    map[*Client]bool{},
		broadcast:  make(chan []byte, SEND_DEPTH),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Broadcast queues a message for every client, without blocking. It reports
// false if the message was dropped.
func (h *Hub) Broadcast(data []byte) bool {
	select {
	case h.broadcast <- data:
		return true
	default:
		return false
	}
}

// Run handles registrations and broadcasts until ctx is done, then
// disconnects every client. A hub runs once.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for client := range h.clients {
			delete(h.clients, client)
			close(client.send)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.clients[client] = true
			if h.Verbose {
				log.Printf("web: %v connected", client.conn.RemoteAddr())
			}
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case data := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					// A slow client misses frames rather than stalling the rest.
				}
			}
		}
	}
}

// ServeHTTP upgrades the connection and registers a client for it.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: upgrade: %v", err)
		return
	}

	client := &Client{hub: h, conn: conn, send: make(chan []byte, SEND_DEPTH)}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
