package application

import (
	"context"
	"fmt"
	"time"

	"github.com/cristianortiz/sealedbid/internal/auction/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateAuctionDTO is the input of CreateAuction. The bidding end is either
// explicit (BiddingEnd) or relative to the start (Duration); the reveal window
// works the same way and is optional.
type CreateAuctionDTO struct {
	Seller         uuid.UUID
	AssetID        string
	ReservePrice   domain.Amount
	StartTime      time.Time // zero means now
	Duration       time.Duration
	BiddingEnd     time.Time
	RevealDuration time.Duration
	RevealEnd      *time.Time
	Rules          *domain.Rules // nil means the service defaults
}

type CreateAuctionUseCase struct {
	Deps
}

func NewCreateAuctionUseCase(deps Deps) *CreateAuctionUseCase {
	return &CreateAuctionUseCase{Deps: deps}
}

func (uc *CreateAuctionUseCase) Execute(ctx context.Context, cmd CreateAuctionDTO) (*domain.Auction, error) {
	now := uc.Clock.Now()

	start := cmd.StartTime
	if start.IsZero() {
		start = now
	}
	end := cmd.BiddingEnd
	if end.IsZero() {
		if cmd.Duration <= 0 {
			return nil, domain.ErrInvalidDeadline
		}
		end = start.Add(cmd.Duration)
	}
	revealEnd := cmd.RevealEnd
	if revealEnd == nil && cmd.RevealDuration > 0 {
		re := end.Add(cmd.RevealDuration)
		revealEnd = &re
	}
	rules := uc.Rules
	if cmd.Rules != nil {
		rules = *cmd.Rules
	}

	a, err := domain.NewAuction(uuid.New(), domain.AuctionParams{
		Seller:       cmd.Seller,
		AssetID:      cmd.AssetID,
		ReservePrice: cmd.ReservePrice,
		BiddingStart: start,
		BiddingEnd:   end,
		RevealEnd:    revealEnd,
		Rules:        rules,
	}, now)
	if err != nil {
		log.Warn("CreateAuctionUseCase: invalid auction",
			zap.String("seller", cmd.Seller.String()),
			zap.String("assetID", cmd.AssetID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("create auction use case: %w", err)
	}

	fields := []zap.Field{zap.String("auctionID", a.ID.String()), zap.String("seller", cmd.Seller.String())}
	err = runInTx(ctx, uc.Store, "CreateAuctionUseCase", fields, func(ctx context.Context, tx domain.Tx) error {
		if err := tx.Auctions().Create(ctx, a); err != nil {
			return err
		}
		return uc.escrow.LockAsset(ctx, tx, a)
	})
	if err != nil {
		return nil, fmt.Errorf("create auction use case: %w", err)
	}

	log.Info("Auction created",
		append(fields,
			zap.String("assetID", a.AssetID),
			zap.Stringer("reservePrice", a.ReservePrice),
			zap.Time("biddingEnd", a.BiddingEnd),
			zap.String("settlement", string(a.Rules.Settlement)),
		)...,
	)
	uc.notify(eventFor(EventAuctionCreated, a))
	return a, nil
}
