package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/cristianortiz/sealedbid/internal/auction/application"
	"github.com/cristianortiz/sealedbid/internal/auction/domain"
	"github.com/cristianortiz/sealedbid/internal/shared/websocket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestHubNotifierPublishesToAuctionTopic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := websocket.NewHub()
	go hub.Run(ctx)

	auctionID, bidder := uuid.New(), uuid.New()
	client := hub.NewClient(nil, auctionID.String(), "watcher")
	hub.RegisterClient(client)

	n := NewHubNotifier(hub)
	amount := domain.Amount(42)
	event := application.AuctionEvent{
		Type:    application.EventBidRevealed,
		Auction: &application.AuctionStateDTO{AuctionID: auctionID, Status: "active", HighestBid: 42},
		Bidder:  &bidder,
		Amount:  &amount,
	}

	var raw []byte
	require.Eventually(t, func() bool {
		n.Publish(event)
		select {
		case raw = <-client.Send:
			return true
		case <-time.After(10 * time.Millisecond):
			return false
		}
	}, time.Second, 5*time.Millisecond)

	var msg ServerAuctionUpdateMessage
	require.NoError(t, json.Unmarshal(raw, &msg))
	require.Equal(t, MessageTypeServerUpdate, msg.Type)
	require.Equal(t, application.EventBidRevealed, msg.Payload.Type)
	require.Equal(t, auctionID, msg.Payload.Auction.AuctionID)
	require.Equal(t, bidder, *msg.Payload.Bidder)
	require.Equal(t, domain.Amount(42), *msg.Payload.Amount)
}

func TestErrorFrame(t *testing.T) {
	var msg ServerErrorMessage
	require.NoError(t, json.Unmarshal(errorFrame("nope", "state"), &msg))
	require.Equal(t, MessageTypeServerError, msg.Type)
	require.Equal(t, "nope", msg.Payload.Error)
	require.Equal(t, "state", msg.Payload.Kind)
}
