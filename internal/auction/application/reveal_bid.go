package application

import (
	"context"
	"fmt"

	"github.com/cristianortiz/sealedbid/internal/auction/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RevealBidDTO struct {
	AuctionID uuid.UUID
	Bidder    uuid.UUID
	Amount    domain.Amount
	Nonce     domain.Nonce
}

// RevealResult tells the bidder where they stand after the reveal
type RevealResult struct {
	Bid        *domain.Bid
	IsHighest  bool
	HighestBid domain.Amount
}

// RevealBidUseCase verifies a reveal against the stored commitment and updates winner tracking.
// Whoever commits later sees the latest highest bid, there is no batching.
type RevealBidUseCase struct {
	Deps
}

func NewRevealBidUseCase(deps Deps) *RevealBidUseCase {
	return &RevealBidUseCase{Deps: deps}
}

func (uc *RevealBidUseCase) Execute(ctx context.Context, cmd RevealBidDTO) (*RevealResult, error) {
	var (
		res     RevealResult
		auction *domain.Auction
	)
	fields := []zap.Field{zap.String("auctionID", cmd.AuctionID.String()), zap.String("bidder", cmd.Bidder.String())}
	err := runInTx(ctx, uc.Store, "RevealBidUseCase", fields, func(ctx context.Context, tx domain.Tx) error {
		now := uc.Clock.Now()
		a, err := tx.Auctions().GetForUpdate(ctx, cmd.AuctionID)
		if err != nil {
			return err
		}
		if err := a.CheckRevealWindow(now); err != nil {
			return err
		}
		b, err := tx.Bids().Get(ctx, cmd.AuctionID, cmd.Bidder)
		if err != nil {
			return err
		}
		if err := b.Reveal(a.Rules, cmd.Amount, cmd.Nonce, now); err != nil {
			return err
		}
		isHighest := a.RecordReveal(b.Bidder, cmd.Amount)

		if err := tx.Bids().Update(ctx, b); err != nil {
			return err
		}
		if err := tx.Auctions().Update(ctx, a); err != nil {
			return err
		}
		res = RevealResult{Bid: b, IsHighest: isHighest, HighestBid: a.HighestBid}
		auction = a
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reveal bid use case: %w", err)
	}

	log.Info("Bid revealed",
		append(fields,
			zap.Stringer("amount", cmd.Amount),
			zap.Bool("isHighest", res.IsHighest),
			zap.Stringer("highestBid", res.HighestBid),
		)...,
	)
	amount := cmd.Amount
	uc.notify(eventFor(EventBidRevealed, auction).withBidder(cmd.Bidder, &amount))
	return &res, nil
}
