package application

import (
	"context"
	"time"

	"github.com/cristianortiz/sealedbid/internal/auction/domain"
	"github.com/google/uuid"
)

// AuctionStateDTO is the output DTO for exposing auction state to the UI/WS
type AuctionStateDTO struct {
	AuctionID      uuid.UUID     `json:"auction_id"`
	Seller         uuid.UUID     `json:"seller"`
	AssetID        string        `json:"asset_id"`
	ReservePrice   domain.Amount `json:"reserve_price"`
	BiddingStart   time.Time     `json:"bidding_start"`
	BiddingEnd     time.Time     `json:"bidding_end"`
	RevealEnd      *time.Time    `json:"reveal_end,omitempty"`
	SettlementMode string        `json:"settlement_mode"`
	CollateralRule string        `json:"collateral_rule"`
	Scheme         string        `json:"commitment_scheme"`
	Status         string        `json:"status"`
	HighestBid     domain.Amount `json:"highest_bid"`
	HighestBidder  *uuid.UUID    `json:"highest_bidder,omitempty"`
	WinningBidder  *uuid.UUID    `json:"winning_bidder,omitempty"`
	BidCount       uint64        `json:"bid_count"`
}

func NewAuctionStateDTO(a *domain.Auction) *AuctionStateDTO {
	return &AuctionStateDTO{
		AuctionID:      a.ID,
		Seller:         a.Seller,
		AssetID:        a.AssetID,
		ReservePrice:   a.ReservePrice,
		BiddingStart:   a.BiddingStart,
		BiddingEnd:     a.BiddingEnd,
		RevealEnd:      a.RevealEnd,
		SettlementMode: string(a.Rules.Settlement),
		CollateralRule: string(a.Rules.Collateral),
		Scheme:         string(a.Rules.Scheme),
		Status:         string(a.Status),
		HighestBid:     a.HighestBid,
		HighestBidder:  a.HighestBidder,
		WinningBidder:  a.Winner(),
		BidCount:       a.BidCount,
	}
}

// BidStateDTO exposes a bid record; the nonce is only shown once revealed
type BidStateDTO struct {
	AuctionID        uuid.UUID      `json:"auction_id"`
	Bidder           uuid.UUID      `json:"bidder"`
	Commitment       domain.Digest  `json:"commitment"`
	DepositLocked    domain.Amount  `json:"deposit_locked"`
	Revealed         bool           `json:"revealed"`
	RevealedAmount   *domain.Amount `json:"revealed_amount,omitempty"`
	SubmittedAt      time.Time      `json:"submitted_at"`
	RevealedAt       *time.Time     `json:"revealed_at,omitempty"`
	ClaimProcessed   bool           `json:"claim_processed"`
	ClaimedAmount    domain.Amount  `json:"claimed_amount"`
	ForfeitCollected bool           `json:"forfeit_collected"`
}

func NewBidStateDTO(b *domain.Bid) *BidStateDTO {
	return &BidStateDTO{
		AuctionID:        b.AuctionID,
		Bidder:           b.Bidder,
		Commitment:       b.Commitment,
		DepositLocked:    b.DepositLocked,
		Revealed:         b.Revealed,
		RevealedAmount:   b.RevealedAmount,
		SubmittedAt:      b.SubmittedAt,
		RevealedAt:       b.RevealedAt,
		ClaimProcessed:   b.ClaimProcessed,
		ClaimedAmount:    b.ClaimedAmount,
		ForfeitCollected: b.ForfeitCollected,
	}
}

// GetAuctionStateUseCase retrieves the current state of an auction and its bids
type GetAuctionStateUseCase struct {
	store domain.Store
}

func NewGetAuctionStateUseCase(store domain.Store) *GetAuctionStateUseCase {
	return &GetAuctionStateUseCase{store: store}
}

func (uc *GetAuctionStateUseCase) Execute(ctx context.Context, auctionID uuid.UUID) (*AuctionStateDTO, error) {
	a, err := uc.store.Read().Auctions().GetByID(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	return NewAuctionStateDTO(a), nil
}

// Bid returns a single bid record
func (uc *GetAuctionStateUseCase) Bid(ctx context.Context, auctionID uuid.UUID, bidder uuid.UUID) (*BidStateDTO, error) {
	b, err := uc.store.Read().Bids().Get(ctx, auctionID, bidder)
	if err != nil {
		return nil, err
	}
	return NewBidStateDTO(b), nil
}

// Bids lists the bids of an auction, for display only; no fund movement ever iterates them
func (uc *GetAuctionStateUseCase) Bids(ctx context.Context, auctionID uuid.UUID) ([]*BidStateDTO, error) {
	if _, err := uc.store.Read().Auctions().GetByID(ctx, auctionID); err != nil {
		return nil, err
	}
	bids, err := uc.store.Read().Bids().ListByAuction(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	out := make([]*BidStateDTO, 0, len(bids))
	for _, b := range bids {
		out = append(out, NewBidStateDTO(b))
	}
	return out, nil
}
