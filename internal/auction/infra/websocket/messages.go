package websocket

import (
	"github.com/cristianortiz/sealedbid/internal/auction/application"
	"github.com/cristianortiz/sealedbid/internal/auction/domain"
	"github.com/google/uuid"
)

// MessageType defines ws type message
type MessageType string

const (
	MessageTypeClientRevealBid    MessageType = "client_reveal_bid"     // client reveals its sealed bid
	MessageTypeServerUpdate       MessageType = "server_auction_update" // server pushes an auction event
	MessageTypeServerInitialState MessageType = "server_initial_state"  // sent once on connect
	MessageTypeServerRevealResult MessageType = "server_reveal_result"  // only to the revealing client
	MessageTypeServerError        MessageType = "server_error"
)

// BaseMessage carries the discriminator every ws message starts with
type BaseMessage struct {
	Type MessageType `json:"type"`
}

// ClientRevealBidMessage is the DTO a bidder sends to open its commitment.
// The bidder is the identity the connection was opened with, not a payload field.
type ClientRevealBidMessage struct {
	BaseMessage
	Payload struct {
		AuctionID uuid.UUID     `json:"auction_id"`
		Amount    domain.Amount `json:"amount"`
		Nonce     domain.Nonce  `json:"nonce"`
	} `json:"payload"`
}

type ServerAuctionUpdateMessage struct {
	BaseMessage
	Payload application.AuctionEvent `json:"payload"`
}

type ServerInitialStateMessage struct {
	BaseMessage
	Payload *application.AuctionStateDTO `json:"payload"`
}

type ServerRevealResultMessage struct {
	BaseMessage
	Payload struct {
		AuctionID  uuid.UUID     `json:"auction_id"`
		IsHighest  bool          `json:"is_highest"`
		HighestBid domain.Amount `json:"highest_bid"`
	} `json:"payload"`
}

type ServerErrorMessage struct {
	BaseMessage
	Payload struct {
		Error string `json:"error"`
		Kind  string `json:"kind,omitempty"`
	} `json:"payload"`
}
