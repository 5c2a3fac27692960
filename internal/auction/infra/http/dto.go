package http

import (
	"time"

	"github.com/cristianortiz/sealedbid/internal/auction/application"
	"github.com/cristianortiz/sealedbid/internal/auction/domain"
	"github.com/google/uuid"
)

// CreateAuctionRequest either sets BiddingEnd or a duration from the start.
// Empty rule fields fall back to the service defaults.
type CreateAuctionRequest struct {
	AssetID               string        `json:"asset_id"`
	ReservePrice          domain.Amount `json:"reserve_price"`
	StartTime             *time.Time    `json:"start_time,omitempty"`
	DurationSeconds       int64         `json:"duration_seconds,omitempty"`
	BiddingEnd            *time.Time    `json:"bidding_end,omitempty"`
	RevealDurationSeconds int64         `json:"reveal_duration_seconds,omitempty"`
	RevealEnd             *time.Time    `json:"reveal_end,omitempty"`
	SettlementMode        string        `json:"settlement_mode,omitempty"`
	CollateralRule        string        `json:"collateral_rule,omitempty"`
	CommitmentScheme      string        `json:"commitment_scheme,omitempty"`
}

type SubmitBidRequest struct {
	Commitment   domain.Digest `json:"commitment"`
	LockedAmount domain.Amount `json:"locked_amount"`
}

type RevealBidRequest struct {
	Amount domain.Amount `json:"amount"`
	Nonce  domain.Nonce  `json:"nonce"`
}

// CompleteTradeRequest is optional, an empty body completes with the recorded winner
type CompleteTradeRequest struct {
	WinningBidder *uuid.UUID `json:"winning_bidder,omitempty"`
}

type RevealBidResponse struct {
	Bid        *application.BidStateDTO `json:"bid"`
	IsHighest  bool                     `json:"is_highest"`
	HighestBid domain.Amount            `json:"highest_bid"`
}

type SettlementResponse struct {
	Auction        *application.AuctionStateDTO `json:"auction"`
	Outcome        string                       `json:"outcome"`
	Winner         *uuid.UUID                   `json:"winner,omitempty"`
	SellerProceeds domain.Amount                `json:"seller_proceeds"`
	AssetRecipient uuid.UUID                    `json:"asset_recipient"`
}

type ClaimResponse struct {
	Bid    *application.BidStateDTO `json:"bid"`
	Amount domain.Amount            `json:"amount"`
}

type ForfeitResponse struct {
	Bidder uuid.UUID     `json:"bidder"`
	Amount domain.Amount `json:"amount"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func newSettlementResponse(a *domain.Auction, plan *domain.SettlementPlan) SettlementResponse {
	return SettlementResponse{
		Auction:        application.NewAuctionStateDTO(a),
		Outcome:        string(plan.Outcome),
		Winner:         plan.Winner,
		SellerProceeds: plan.SellerProceeds,
		AssetRecipient: plan.AssetRecipient,
	}
}
