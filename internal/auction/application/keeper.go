package application

import (
	"context"
	"errors"
	"time"

	"github.com/cristianortiz/sealedbid/internal/auction/domain"
	"github.com/cristianortiz/sealedbid/internal/shared/clock"
	"go.uber.org/zap"
)

// SettlementKeeper periodically settles auctions whose window has closed, so
// nobody has to remember to call settle. It only pages through auctions, never bids.
type SettlementKeeper struct {
	service  AuctionService
	store    domain.Store
	clock    clock.Clock
	interval time.Duration
	batch    int
}

func NewSettlementKeeper(service AuctionService, store domain.Store, clk clock.Clock, interval time.Duration, batch int) *SettlementKeeper {
	return &SettlementKeeper{
		service:  service,
		store:    store,
		clock:    clk,
		interval: interval,
		batch:    batch,
	}
}

// Run ticks until ctx is cancelled
func (k *SettlementKeeper) Run(ctx context.Context) {
	log.Info("SettlementKeeper started", zap.Duration("interval", k.interval), zap.Int("batch", k.batch))
	ticker := time.NewTicker(k.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("SettlementKeeper stopped")
			return
		case <-ticker.C:
			if _, err := k.Tick(ctx); err != nil {
				log.Error("SettlementKeeper: tick failed", zap.Error(err))
			}
		}
	}
}

// Tick settles one page of due auctions and returns how many reached a terminal state
func (k *SettlementKeeper) Tick(ctx context.Context) (int, error) {
	due, err := k.store.Read().Auctions().ListDue(ctx, k.clock.Now(), k.batch)
	if err != nil {
		return 0, err
	}
	settled := 0
	for _, a := range due {
		if ctx.Err() != nil {
			return settled, ctx.Err()
		}
		_, _, err := k.service.SettleAuction(ctx, a.ID)
		switch {
		case err == nil:
			settled++
		case isBenignSettleError(err):
			log.Debug("SettlementKeeper: auction already handled", zap.String("auctionID", a.ID.String()), zap.Error(err))
		default:
			log.Warn("SettlementKeeper: settle failed", zap.String("auctionID", a.ID.String()), zap.Error(err))
		}
	}
	return settled, nil
}

// someone else settled first, which is fine
func isBenignSettleError(err error) bool {
	return errors.Is(err, domain.ErrAlreadySettled) ||
		errors.Is(err, domain.ErrAlreadyFinalized) ||
		errors.Is(err, domain.ErrConcurrentUpdate)
}
