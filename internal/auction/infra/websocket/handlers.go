package websocket

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/cristianortiz/sealedbid/internal/auction/application"
	"github.com/cristianortiz/sealedbid/internal/auction/domain"
	"github.com/cristianortiz/sealedbid/internal/shared/logger"
	"github.com/cristianortiz/sealedbid/internal/shared/websocket"
	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

const identityLocal = "ws_identity"

var errIdentityRequired = errors.New("connection has no bidder identity")

// AuctionWSHandler handles the ws inbound msgs which are specific for the auction module
type AuctionWSHandler struct {
	auctionService application.AuctionService
	hub            *websocket.Hub
}

func NewAuctionWSHandler(auctionService application.AuctionService, hub *websocket.Hub) *AuctionWSHandler {
	return &AuctionWSHandler{
		auctionService: auctionService,
		hub:            hub,
	}
}

// RegisterRoutes mounts GET /ws/auctions/:id. The optional bidder identity comes
// from the X-Bidder-ID header or the bidder query parameter; without one the
// connection can only watch.
func (h *AuctionWSHandler) RegisterRoutes(ctx context.Context, router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if !fiberws.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		identity := c.Get("X-Bidder-ID")
		if identity == "" {
			identity = c.Query("bidder")
		}
		c.Locals(identityLocal, identity)
		return c.Next()
	})
	router.Get("/ws/auctions/:id", fiberws.New(func(conn *fiberws.Conn) {
		h.serve(ctx, conn)
	}))
}

func (h *AuctionWSHandler) serve(ctx context.Context, conn *fiberws.Conn) {
	auctionID, err := uuid.Parse(conn.Params("id"))
	if err != nil {
		_ = conn.WriteMessage(fiberws.TextMessage, errorFrame("invalid auction id", ""))
		return
	}
	state, err := h.auctionService.GetAuctionState(ctx, auctionID)
	if err != nil {
		_ = conn.WriteMessage(fiberws.TextMessage, errorFrame(err.Error(), string(domain.KindOf(err))))
		return
	}

	id, _ := conn.Locals(identityLocal).(string)
	if _, err := uuid.Parse(id); err != nil {
		id = "watcher-" + uuid.NewString()
	}
	client := h.hub.NewClient(conn, auctionID.String(), id)

	initial, err := json.Marshal(ServerInitialStateMessage{
		BaseMessage: BaseMessage{Type: MessageTypeServerInitialState},
		Payload:     state,
	})
	if err == nil {
		client.Send <- initial
	}
	h.hub.RegisterClient(client)

	// the connection is closed as soon as this handler returns
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}

// ListenForMessages consumes the hub inbound channel until ctx is cancelled
func (h *AuctionWSHandler) ListenForMessages(ctx context.Context) {
	log.Info("AuctionWSHandler started listening for inbound messages from hub")
	for {
		select {
		case <-ctx.Done():
			log.Info("AuctionWSHandler stopped listening for inbound messages from hub")
			return
		case msg := <-h.hub.InboundMessages:
			go h.processMessage(ctx, msg.Client, msg.Data)
		}
	}
}

func (h *AuctionWSHandler) processMessage(ctx context.Context, client *websocket.Client, data []byte) {
	var baseMsg BaseMessage
	if err := json.Unmarshal(data, &baseMsg); err != nil {
		h.sendToClient(client, errorFrame("invalid message format", ""))
		return
	}
	switch baseMsg.Type {
	case MessageTypeClientRevealBid:
		h.handleRevealBid(ctx, client, data)
	default:
		h.sendToClient(client, errorFrame("unknown message type", ""))
	}
}

func (h *AuctionWSHandler) handleRevealBid(ctx context.Context, client *websocket.Client, data []byte) {
	var msg ClientRevealBidMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.sendToClient(client, errorFrame("invalid reveal message format", ""))
		return
	}
	if msg.Payload.AuctionID.String() != client.Topic {
		h.sendToClient(client, errorFrame("auction ID mismatch", ""))
		return
	}
	bidder, err := uuid.Parse(client.ID)
	if err != nil {
		h.sendToClient(client, errorFrame(errIdentityRequired.Error(), string(domain.KindAuthorization)))
		return
	}

	res, err := h.auctionService.RevealBid(ctx, application.RevealBidDTO{
		AuctionID: msg.Payload.AuctionID,
		Bidder:    bidder,
		Amount:    msg.Payload.Amount,
		Nonce:     msg.Payload.Nonce,
	})
	if err != nil {
		h.sendToClient(client, errorFrame(err.Error(), string(domain.KindOf(err))))
		return
	}

	// everybody else learns about the reveal through the notifier broadcast
	reply := ServerRevealResultMessage{BaseMessage: BaseMessage{Type: MessageTypeServerRevealResult}}
	reply.Payload.AuctionID = msg.Payload.AuctionID
	reply.Payload.IsHighest = res.IsHighest
	reply.Payload.HighestBid = res.HighestBid
	out, err := json.Marshal(reply)
	if err != nil {
		log.Error("failed to marshal ServerRevealResultMessage", zap.Error(err))
		return
	}
	h.sendToClient(client, out)
}

// sendToClient never blocks the caller on a slow client
func (h *AuctionWSHandler) sendToClient(client *websocket.Client, data []byte) {
	if data == nil {
		return
	}
	defer func() {
		// Send may have been closed by the hub in the meantime
		_ = recover()
	}()
	select {
	case client.Send <- data:
	default:
		log.Warn("client send channel full, could not send message", zap.String("clientID", client.ID))
	}
}

func errorFrame(message, kind string) []byte {
	errMsg := ServerErrorMessage{BaseMessage: BaseMessage{Type: MessageTypeServerError}}
	errMsg.Payload.Error = message
	errMsg.Payload.Kind = kind
	data, err := json.Marshal(errMsg)
	if err != nil {
		log.Error("failed to marshal ServerErrorMessage", zap.Error(err))
		return nil
	}
	return data
}

// HubNotifier implements application.Notifier by broadcasting every event to
// the subscribers of its auction
type HubNotifier struct {
	hub *websocket.Hub
}

func NewHubNotifier(hub *websocket.Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) Publish(event application.AuctionEvent) {
	if event.Auction == nil {
		return
	}
	data, err := json.Marshal(ServerAuctionUpdateMessage{
		BaseMessage: BaseMessage{Type: MessageTypeServerUpdate},
		Payload:     event,
	})
	if err != nil {
		log.Error("failed to marshal ServerAuctionUpdateMessage", zap.Error(err))
		return
	}
	n.hub.Broadcast(event.Auction.AuctionID.String(), data)
}
