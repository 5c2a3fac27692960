package application

import (
	"github.com/cristianortiz/sealedbid/internal/auction/domain"
	"github.com/google/uuid"
)

// EventType names what happened to an auction
type EventType string

const (
	EventAuctionCreated   EventType = "auction_created"
	EventBidSubmitted     EventType = "bid_submitted"
	EventBidRevealed      EventType = "bid_revealed"
	EventAuctionSettled   EventType = "auction_settled"
	EventAuctionFinalized EventType = "auction_finalized"
	EventTradeCompleted   EventType = "trade_completed"
	EventAuctionCancelled EventType = "auction_cancelled"
	EventBidClaimed       EventType = "bid_claimed"
	EventForfeitCollected EventType = "forfeit_collected"
)

// AuctionEvent is published after the transaction that produced it committed
type AuctionEvent struct {
	Type    EventType        `json:"type"`
	Auction *AuctionStateDTO `json:"auction"`
	Bidder  *uuid.UUID       `json:"bidder,omitempty"`
	Amount  *domain.Amount   `json:"amount,omitempty"`
}

// Notifier receives auction events, e.g. to push them to websocket subscribers
type Notifier interface {
	Publish(event AuctionEvent)
}

type noopNotifier struct{}

func (noopNotifier) Publish(AuctionEvent) {}

func eventFor(t EventType, a *domain.Auction) AuctionEvent {
	return AuctionEvent{Type: t, Auction: NewAuctionStateDTO(a)}
}

func (e AuctionEvent) withBidder(bidder uuid.UUID, amount *domain.Amount) AuctionEvent {
	e.Bidder = &bidder
	e.Amount = amount
	return e
}
