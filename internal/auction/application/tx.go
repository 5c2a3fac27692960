package application

import (
	"context"

	"github.com/cristianortiz/sealedbid/internal/auction/domain"
	"github.com/cristianortiz/sealedbid/internal/shared/clock"
	"github.com/cristianortiz/sealedbid/internal/shared/logger"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// Deps are the collaborators shared by every use case, received through injection
type Deps struct {
	Store    domain.Store
	Clock    clock.Clock
	Notifier Notifier
	// Rules applied to auctions created without explicit rules
	Rules domain.Rules
	// escrow moves funds inside the caller's transaction
	escrow Escrow
}

func (d Deps) notify(e AuctionEvent) {
	if d.Notifier == nil {
		return
	}
	d.Notifier.Publish(e)
}

// runInTx executes fn as one atomic operation. When fn fails nothing it did is
// visible afterwards; the error is logged here and returned unchanged.
func runInTx(ctx context.Context, store domain.Store, op string, fields []zap.Field, fn func(ctx context.Context, tx domain.Tx) error) error {
	fields = fields[:len(fields):len(fields)]
	defer func() {
		if r := recover(); r != nil {
			log.Error(op+": recovered from panic during transaction", append(fields, zap.Any("panic", r))...)
			panic(r)
		}
	}()

	if err := store.WithinTx(ctx, fn); err != nil {
		lvl := log.Warn
		if k := domain.KindOf(err); k == domain.KindConsistency || k == domain.KindUnknown {
			lvl = log.Error
		}
		lvl(op+": rolled back", append(fields, zap.Error(err), zap.String("kind", string(domain.KindOf(err))))...)
		return err
	}
	log.Debug(op+": committed", fields...)
	return nil
}
