package websocket

import (
	"context"
	"time"

	"github.com/cristianortiz/sealedbid/internal/shared/logger"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
	// must be less than pongWait
	pingPeriod = (pongWait * 9) / 10
	// reveal messages carry two 64 char hex strings plus ids
	maxMessageSize = 1024

	sendBuffer    = 16
	inboundBuffer = 64
)

// Hub keeps the client registry grouped by topic (an auction ID) and fans out
// broadcasts. All registry mutations happen on the Run goroutine.
type Hub struct {
	clients    map[string]map[*Client]bool
	broadcast  chan *Message
	register   chan *Client
	unregister chan *Client
	// listened to by module specific handlers
	InboundMessages chan *ClientMessage
}

// Client is one websocket connection subscribed to a topic
type Client struct {
	Hub   *Hub
	Conn  *websocket.Conn
	Send  chan []byte
	Topic string
	ID    string
}

type Message struct {
	Topic string
	Data  []byte
}

// ClientMessage wraps an inbound frame with the client that sent it
type ClientMessage struct {
	Client *Client
	Data   []byte
}

func NewHub() *Hub {
	return &Hub{
		broadcast:       make(chan *Message, inboundBuffer),
		register:        make(chan *Client, inboundBuffer),
		unregister:      make(chan *Client, inboundBuffer),
		clients:         make(map[string]map[*Client]bool),
		InboundMessages: make(chan *ClientMessage, inboundBuffer),
	}
}

// NewClient builds a client with a buffered send channel
func (h *Hub) NewClient(conn *websocket.Conn, topic, id string) *Client {
	return &Client{
		Hub:   h,
		Conn:  conn,
		Send:  make(chan []byte, sendBuffer),
		Topic: topic,
		ID:    id,
	}
}

// Run serves registrations and broadcasts until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	log.Info("WebSocket Hub started")
	for {
		select {
		case <-ctx.Done():
			for topic, clients := range h.clients {
				for client := range clients {
					close(client.Send)
				}
				delete(h.clients, topic)
			}
			log.Info("WebSocket Hub shutting down")
			return

		case client := <-h.register:
			if _, ok := h.clients[client.Topic]; !ok {
				h.clients[client.Topic] = make(map[*Client]bool)
			}
			h.clients[client.Topic][client] = true
			log.Info("Client registered",
				zap.String("clientID", client.ID),
				zap.String("topic", client.Topic),
				zap.Int("total_clients", h.total()),
			)

		case client := <-h.unregister:
			h.drop(client)

		case message := <-h.broadcast:
			clients, ok := h.clients[message.Topic]
			if !ok {
				continue
			}
			log.Debug("Broadcasting message", zap.String("topic", message.Topic), zap.Int("clients", len(clients)))
			for client := range clients {
				select {
				case client.Send <- message.Data:
				default:
					// slow consumer, cut it loose rather than block every other subscriber
					log.Warn("Client send buffer full, unregistering",
						zap.String("clientID", client.ID),
						zap.String("topic", client.Topic),
					)
					h.drop(client)
				}
			}
		}
	}
}

func (h *Hub) drop(client *Client) {
	clients, ok := h.clients[client.Topic]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.Send)
	log.Info("Client unregistered",
		zap.String("clientID", client.ID),
		zap.String("topic", client.Topic),
		zap.Int("total_clients", h.total()),
	)
	if len(clients) == 0 {
		delete(h.clients, client.Topic)
	}
}

func (h *Hub) total() int {
	count := 0
	for _, clients := range h.clients {
		count += len(clients)
	}
	return count
}

// RegisterClient queues client for registration, closing the connection if the hub is saturated
func (h *Hub) RegisterClient(client *Client) {
	select {
	case h.register <- client:
	default:
		log.Error("Register channel is full, client registration failed",
			zap.String("clientID", client.ID),
			zap.String("topic", client.Topic),
		)
		if client.Conn != nil {
			_ = client.Conn.Close()
		}
	}
}

func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	default:
		log.Error("Unregister channel is full, client unregistration failed",
			zap.String("clientID", client.ID),
			zap.String("topic", client.Topic),
		)
	}
}

// Broadcast sends data to every client subscribed to topic. It never blocks;
// when the hub is saturated the message is dropped.
func (h *Hub) Broadcast(topic string, data []byte) {
	select {
	case h.broadcast <- &Message{Topic: topic, Data: data}:
	default:
		log.Error("Broadcast channel is full, message dropped", zap.String("topic", topic))
	}
}

// ReadPump forwards frames from the connection to InboundMessages.
// One goroutine per client.
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.Hub.UnregisterClient(c)
		_ = c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { return c.Conn.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		if ctx.Err() != nil {
			return
		}
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("WebSocket read error",
					zap.String("clientID", c.ID),
					zap.String("topic", c.Topic),
					zap.Error(err),
				)
			}
			return
		}

		select {
		case c.Hub.InboundMessages <- &ClientMessage{Client: c, Data: message}:
		default:
			log.Error("Hub InboundMessages channel is full, dropping message",
				zap.String("clientID", c.ID),
				zap.String("topic", c.Topic),
			)
		}
	}
}

// WritePump is the only writer of the connection: queued messages, pings and the close frame.
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Hub.UnregisterClient(c)
		_ = c.Conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = c.Conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return

		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// one JSON document per frame, clients parse frames independently
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error("Failed to write message to client",
					zap.String("clientID", c.ID),
					zap.String("topic", c.Topic),
					zap.Error(err),
				)
				return
			}

		case <-ticker.C:
			if err := c.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Error("Failed to write ping message to client",
					zap.String("clientID", c.ID),
					zap.String("topic", c.Topic),
					zap.Error(err),
				)
				return
			}
		}
	}
}
