package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/cristianortiz/sealedbid/internal/auction/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubmitBidDTO is DTO input for SubmitBid useCase, contains the sealed commitment and the collateral to lock
type SubmitBidDTO struct {
	AuctionID    uuid.UUID
	Bidder       uuid.UUID
	Commitment   domain.Digest
	LockedAmount domain.Amount
}

// SubmitBidUseCase creates the bid record and locks its collateral in one transaction
type SubmitBidUseCase struct {
	Deps
}

func NewSubmitBidUseCase(deps Deps) *SubmitBidUseCase {
	return &SubmitBidUseCase{Deps: deps}
}

func (uc *SubmitBidUseCase) Execute(ctx context.Context, cmd SubmitBidDTO) (*domain.Bid, error) {
	log.Info("Executing SubmitBidUseCase",
		zap.String("auctionID", cmd.AuctionID.String()),
		zap.String("bidder", cmd.Bidder.String()),
		zap.Stringer("lockedAmount", cmd.LockedAmount),
	)
	// basic input validation, the rest is business logic in the domain
	if cmd.LockedAmount == 0 {
		return nil, fmt.Errorf("submit bid use case: %w", domain.ErrInvalidAmount)
	}

	var (
		bid     *domain.Bid
		auction *domain.Auction
	)
	fields := []zap.Field{zap.String("auctionID", cmd.AuctionID.String()), zap.String("bidder", cmd.Bidder.String())}
	err := runInTx(ctx, uc.Store, "SubmitBidUseCase", fields, func(ctx context.Context, tx domain.Tx) error {
		now := uc.Clock.Now()
		a, err := tx.Auctions().GetForUpdate(ctx, cmd.AuctionID)
		if err != nil {
			return err
		}
		if _, err := tx.Bids().Get(ctx, cmd.AuctionID, cmd.Bidder); err == nil {
			return domain.ErrBidExists
		} else if !errors.Is(err, domain.ErrBidNotFound) {
			return err
		}

		if err := a.AcceptBid(cmd.Bidder, cmd.LockedAmount, now); err != nil {
			return err
		}
		b, err := domain.NewBid(a.ID, cmd.Bidder, cmd.Commitment, cmd.LockedAmount, now)
		if err != nil {
			return err
		}
		if err := tx.Bids().Create(ctx, b); err != nil {
			return err
		}
		if err := uc.escrow.LockCollateral(ctx, tx, a, cmd.Bidder, cmd.LockedAmount); err != nil {
			return err
		}
		if err := tx.Auctions().Update(ctx, a); err != nil {
			return err
		}
		bid, auction = b, a
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("submit bid use case: bid failed for auction %s: %w", cmd.AuctionID, err)
	}

	log.Info("Bid submitted successfully",
		append(fields,
			zap.String("commitment", bid.Commitment.String()),
			zap.Stringer("depositLocked", bid.DepositLocked),
			zap.Uint64("bidCount", auction.BidCount),
		)...,
	)
	locked := bid.DepositLocked
	uc.notify(eventFor(EventBidSubmitted, auction).withBidder(bid.Bidder, &locked))
	return bid, nil
}
