package application

import (
	"context"
	"fmt"

	"github.com/cristianortiz/sealedbid/internal/auction/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ClaimBidDTO identifies the caller's own bid; Bidder comes from the authenticated identity
type ClaimBidDTO struct {
	AuctionID uuid.UUID
	Bidder    uuid.UUID
}

type ClaimResult struct {
	Bid    *domain.Bid
	Amount domain.Amount
}

// ClaimBidUseCase refunds one bid after settlement. It only ever touches that one
// bid record, and pays at most once: the flag is flipped in the same transaction
// as the transfer.
type ClaimBidUseCase struct {
	Deps
}

func NewClaimBidUseCase(deps Deps) *ClaimBidUseCase {
	return &ClaimBidUseCase{Deps: deps}
}

func (uc *ClaimBidUseCase) Execute(ctx context.Context, cmd ClaimBidDTO) (*ClaimResult, error) {
	var (
		res     ClaimResult
		auction *domain.Auction
	)
	fields := []zap.Field{zap.String("auctionID", cmd.AuctionID.String()), zap.String("bidder", cmd.Bidder.String())}
	err := runInTx(ctx, uc.Store, "ClaimBidUseCase", fields, func(ctx context.Context, tx domain.Tx) error {
		a, err := tx.Auctions().GetByID(ctx, cmd.AuctionID)
		if err != nil {
			return err
		}
		b, err := tx.Bids().Get(ctx, cmd.AuctionID, cmd.Bidder)
		if err != nil {
			return err
		}
		amount, err := b.ComputeClaim(a)
		if err != nil {
			return err
		}
		if err := b.MarkClaimed(amount); err != nil {
			return err
		}
		if err := tx.Bids().Update(ctx, b); err != nil {
			return err
		}
		if err := uc.escrow.Refund(ctx, tx, a, b.Bidder, amount); err != nil {
			return err
		}
		res = ClaimResult{Bid: b, Amount: amount}
		auction = a
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("claim bid use case: %w", err)
	}

	if res.Amount == 0 {
		log.Info("Deposit forfeited: bid never revealed",
			append(fields, zap.Stringer("depositLocked", res.Bid.DepositLocked))...)
	} else {
		log.Info("Deposit claimed", append(fields, zap.Stringer("refund", res.Amount))...)
	}
	amount := res.Amount
	uc.notify(eventFor(EventBidClaimed, auction).withBidder(cmd.Bidder, &amount))
	return &res, nil
}

type CollectForfeitDTO struct {
	AuctionID uuid.UUID
	Caller    uuid.UUID
	Bidder    uuid.UUID
}

// CollectForfeitUseCase lets the seller take the collateral of one bid that was
// never revealed. One bid per call, like claims.
type CollectForfeitUseCase struct {
	Deps
}

func NewCollectForfeitUseCase(deps Deps) *CollectForfeitUseCase {
	return &CollectForfeitUseCase{Deps: deps}
}

func (uc *CollectForfeitUseCase) Execute(ctx context.Context, cmd CollectForfeitDTO) (domain.Amount, error) {
	var (
		collected domain.Amount
		auction   *domain.Auction
	)
	fields := []zap.Field{
		zap.String("auctionID", cmd.AuctionID.String()),
		zap.String("caller", cmd.Caller.String()),
		zap.String("bidder", cmd.Bidder.String()),
	}
	err := runInTx(ctx, uc.Store, "CollectForfeitUseCase", fields, func(ctx context.Context, tx domain.Tx) error {
		a, err := tx.Auctions().GetByID(ctx, cmd.AuctionID)
		if err != nil {
			return err
		}
		if cmd.Caller != a.Seller {
			return domain.ErrUnauthorized
		}
		b, err := tx.Bids().Get(ctx, cmd.AuctionID, cmd.Bidder)
		if err != nil {
			return err
		}
		amount, err := b.ForfeitAmount(a)
		if err != nil {
			return err
		}
		if err := b.MarkForfeitCollected(); err != nil {
			return err
		}
		if err := tx.Bids().Update(ctx, b); err != nil {
			return err
		}
		if err := uc.escrow.Payout(ctx, tx, a, a.Seller, amount); err != nil {
			return err
		}
		collected, auction = amount, a
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("collect forfeit use case: %w", err)
	}

	log.Info("Forfeited deposit collected", append(fields, zap.Stringer("amount", collected))...)
	uc.notify(eventFor(EventForfeitCollected, auction).withBidder(cmd.Bidder, &collected))
	return collected, nil
}
