package application

import (
	"context"
	"fmt"

	"github.com/cristianortiz/sealedbid/internal/auction/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SettleAuctionUseCase closes a single phase auction: proceeds to the seller and
// the asset to the winner, or the asset back to the seller when the reserve was
// not met. Permissionless; a repeat fails with ErrAlreadySettled and moves nothing.
type SettleAuctionUseCase struct {
	Deps
}

func NewSettleAuctionUseCase(deps Deps) *SettleAuctionUseCase {
	return &SettleAuctionUseCase{Deps: deps}
}

func (uc *SettleAuctionUseCase) Execute(ctx context.Context, auctionID uuid.UUID) (*domain.Auction, *domain.SettlementPlan, error) {
	var (
		auction *domain.Auction
		plan    *domain.SettlementPlan
	)
	fields := []zap.Field{zap.String("auctionID", auctionID.String())}
	err := runInTx(ctx, uc.Store, "SettleAuctionUseCase", fields, func(ctx context.Context, tx domain.Tx) error {
		a, err := tx.Auctions().GetByID(ctx, auctionID)
		if err != nil {
			return err
		}
		p, err := a.Settle(uc.Clock.Now())
		if err != nil {
			return err
		}
		// status first, so a concurrent settle loses the version race before any fund moves
		if err := tx.Auctions().Update(ctx, a); err != nil {
			return err
		}
		if err := uc.escrow.Execute(ctx, tx, a, p); err != nil {
			return err
		}
		auction, plan = a, p
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("settle auction use case: %w", err)
	}

	logSettlement("Auction settled", auction, plan)
	evt := EventAuctionSettled
	if plan.Outcome == domain.StatusCancelled {
		evt = EventAuctionCancelled
	}
	uc.notify(eventFor(evt, auction))
	return auction, plan, nil
}

// FinalizeAuctionUseCase fixes the winner of a two phase auction. It never moves
// funds, so it can be retried freely by anyone.
type FinalizeAuctionUseCase struct {
	Deps
}

func NewFinalizeAuctionUseCase(deps Deps) *FinalizeAuctionUseCase {
	return &FinalizeAuctionUseCase{Deps: deps}
}

func (uc *FinalizeAuctionUseCase) Execute(ctx context.Context, auctionID uuid.UUID) (*domain.Auction, error) {
	var auction *domain.Auction
	fields := []zap.Field{zap.String("auctionID", auctionID.String())}
	err := runInTx(ctx, uc.Store, "FinalizeAuctionUseCase", fields, func(ctx context.Context, tx domain.Tx) error {
		a, err := tx.Auctions().GetByID(ctx, auctionID)
		if err != nil {
			return err
		}
		if err := a.Finalize(uc.Clock.Now()); err != nil {
			return err
		}
		if err := tx.Auctions().Update(ctx, a); err != nil {
			return err
		}
		auction = a
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("finalize auction use case: %w", err)
	}

	winner := "none"
	if auction.WinningBidder != nil {
		winner = auction.WinningBidder.String()
	}
	log.Info("Auction finalized",
		zap.String("auctionID", auction.ID.String()),
		zap.String("winningBidder", winner),
		zap.Stringer("highestBid", auction.HighestBid),
	)
	uc.notify(eventFor(EventAuctionFinalized, auction))
	return auction, nil
}

// CompleteTradeDTO names the bid the caller presents as the winner; nil means
// the one recorded at finalization.
type CompleteTradeDTO struct {
	AuctionID     uuid.UUID
	WinningBidder *uuid.UUID
}

// CompleteTradeUseCase disburses a finalized auction after re-validating the winning bid
type CompleteTradeUseCase struct {
	Deps
}

func NewCompleteTradeUseCase(deps Deps) *CompleteTradeUseCase {
	return &CompleteTradeUseCase{Deps: deps}
}

func (uc *CompleteTradeUseCase) Execute(ctx context.Context, cmd CompleteTradeDTO) (*domain.Auction, *domain.SettlementPlan, error) {
	var (
		auction *domain.Auction
		plan    *domain.SettlementPlan
	)
	fields := []zap.Field{zap.String("auctionID", cmd.AuctionID.String())}
	err := runInTx(ctx, uc.Store, "CompleteTradeUseCase", fields, func(ctx context.Context, tx domain.Tx) error {
		a, err := tx.Auctions().GetByID(ctx, cmd.AuctionID)
		if err != nil {
			return err
		}

		ref := cmd.WinningBidder
		if ref == nil {
			ref = a.WinningBidder
		}
		var winning *domain.Bid
		if ref != nil && a.WinningBidder != nil {
			winning, err = tx.Bids().Get(ctx, a.ID, *ref)
			if err != nil {
				return err
			}
		}

		p, err := a.CompleteTrade(winning, uc.Clock.Now())
		if err != nil {
			return err
		}
		if err := tx.Auctions().Update(ctx, a); err != nil {
			return err
		}
		if err := uc.escrow.Execute(ctx, tx, a, p); err != nil {
			return err
		}
		auction, plan = a, p
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("complete trade use case: %w", err)
	}

	logSettlement("Trade completed", auction, plan)
	evt := EventTradeCompleted
	if plan.Outcome == domain.StatusCancelled {
		evt = EventAuctionCancelled
	}
	uc.notify(eventFor(evt, auction))
	return auction, plan, nil
}

func logSettlement(msg string, a *domain.Auction, plan *domain.SettlementPlan) {
	fields := []zap.Field{
		zap.String("auctionID", a.ID.String()),
		zap.String("outcome", string(plan.Outcome)),
		zap.Stringer("sellerProceeds", plan.SellerProceeds),
		zap.String("assetRecipient", plan.AssetRecipient.String()),
	}
	if plan.Winner != nil {
		fields = append(fields, zap.String("winner", plan.Winner.String()))
	}
	log.Info(msg, fields...)
}
