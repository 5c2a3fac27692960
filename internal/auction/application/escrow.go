package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/cristianortiz/sealedbid/internal/auction/domain"
	"go.uber.org/zap"
)

// Escrow moves collateral and the traded asset between parties and an auction's
// custody account. Every move goes through the transaction it is given, so it
// commits or rolls back together with the record changes.
type Escrow struct{}

// LockAsset takes the seller's asset into custody when the auction is created
func (Escrow) LockAsset(ctx context.Context, tx domain.Tx, a *domain.Auction) error {
	if err := tx.Assets().Deposit(ctx, domain.UserAccount(a.Seller), a.Custody(), a.AssetID); err != nil {
		return fmt.Errorf("escrow: lock asset %s: %w", a.AssetID, err)
	}
	log.Debug("Asset locked in custody",
		zap.String("auctionID", a.ID.String()),
		zap.String("assetID", a.AssetID),
	)
	return nil
}

// LockCollateral debits bidder and credits the auction custody with exactly amount
func (Escrow) LockCollateral(ctx context.Context, tx domain.Tx, a *domain.Auction, bidder domain.Identity, amount domain.Amount) error {
	if err := tx.Ledger().Lock(ctx, domain.UserAccount(bidder), a.Custody(), amount); err != nil {
		return fmt.Errorf("escrow: lock collateral: %w", err)
	}
	log.Debug("Collateral locked",
		zap.String("auctionID", a.ID.String()),
		zap.String("bidder", bidder.String()),
		zap.Stringer("amount", amount),
	)
	return nil
}

// Payout moves amount from custody to recipient. A zero amount is a no-op.
// Custody running short means the records and the ledger disagree, which is
// reported as ErrCustodyInconsistent.
func (Escrow) Payout(ctx context.Context, tx domain.Tx, a *domain.Auction, recipient domain.Identity, amount domain.Amount) error {
	if amount == 0 {
		return nil
	}
	err := tx.Ledger().Payout(ctx, a.Custody(), domain.UserAccount(recipient), amount)
	if errors.Is(err, domain.ErrInsufficientCustodyBalance) {
		log.Error("Escrow custody short, records and ledger disagree",
			zap.String("auctionID", a.ID.String()),
			zap.String("recipient", recipient.String()),
			zap.Stringer("amount", amount),
		)
		return fmt.Errorf("escrow: payout: %w: %w", domain.ErrCustodyInconsistent, err)
	}
	if err != nil {
		return fmt.Errorf("escrow: payout: %w", err)
	}
	log.Info("Escrow payout",
		zap.String("auctionID", a.ID.String()),
		zap.String("recipient", recipient.String()),
		zap.Stringer("amount", amount),
	)
	return nil
}

// Refund is a payout back to the bidder
func (e Escrow) Refund(ctx context.Context, tx domain.Tx, a *domain.Auction, bidder domain.Identity, amount domain.Amount) error {
	return e.Payout(ctx, tx, a, bidder, amount)
}

// Execute performs the disbursements of a terminal transition: the proceeds
// to the seller, then the single asset release.
func (e Escrow) Execute(ctx context.Context, tx domain.Tx, a *domain.Auction, plan *domain.SettlementPlan) error {
	if err := e.Payout(ctx, tx, a, a.Seller, plan.SellerProceeds); err != nil {
		return err
	}
	err := tx.Assets().Release(ctx, a.Custody(), domain.UserAccount(plan.AssetRecipient), a.AssetID)
	if errors.Is(err, domain.ErrAssetNotOwned) {
		return fmt.Errorf("escrow: release asset %s: %w: %w", a.AssetID, domain.ErrCustodyInconsistent, err)
	}
	if err != nil {
		return fmt.Errorf("escrow: release asset %s: %w", a.AssetID, err)
	}
	return nil
}
