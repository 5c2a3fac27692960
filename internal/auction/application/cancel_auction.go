package application

import (
	"context"
	"fmt"

	"github.com/cristianortiz/sealedbid/internal/auction/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CancelAuctionDTO struct {
	AuctionID uuid.UUID
	Caller    uuid.UUID
}

// CancelAuctionUseCase withdraws an auction nobody has bid on and gives the asset back to the seller
type CancelAuctionUseCase struct {
	Deps
}

func NewCancelAuctionUseCase(deps Deps) *CancelAuctionUseCase {
	return &CancelAuctionUseCase{Deps: deps}
}

func (uc *CancelAuctionUseCase) Execute(ctx context.Context, cmd CancelAuctionDTO) (*domain.Auction, error) {
	var auction *domain.Auction
	fields := []zap.Field{zap.String("auctionID", cmd.AuctionID.String()), zap.String("caller", cmd.Caller.String())}
	err := runInTx(ctx, uc.Store, "CancelAuctionUseCase", fields, func(ctx context.Context, tx domain.Tx) error {
		a, err := tx.Auctions().GetByID(ctx, cmd.AuctionID)
		if err != nil {
			return err
		}
		plan, err := a.Cancel(cmd.Caller, uc.Clock.Now())
		if err != nil {
			return err
		}
		if err := tx.Auctions().Update(ctx, a); err != nil {
			return err
		}
		if err := uc.escrow.Execute(ctx, tx, a, plan); err != nil {
			return err
		}
		auction = a
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cancel auction use case: %w", err)
	}

	log.Info("Auction cancelled by seller", fields...)
	uc.notify(eventFor(EventAuctionCancelled, auction))
	return auction, nil
}
