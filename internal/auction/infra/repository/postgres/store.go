// Package postgres persists auctions, bids and the escrow ledger with pgx.
// Every use case runs inside one pgx transaction, so a failure anywhere rolls
// back records and balances together.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/cristianortiz/sealedbid/internal/auction/domain"
	"github.com/cristianortiz/sealedbid/internal/shared/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, repositories do not
// care whether they run inside a transaction
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements domain.Store on a pgx pool
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// WithinTx runs fn in a read committed transaction. Bids and reveals queue on the
// auction row lock, settlement and claims rely on row versions and conditional debits.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.Tx) error) (err error) {
	pgTx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = pgTx.Rollback(context.Background())
			panic(p)
		}
		if err != nil {
			if rbErr := pgTx.Rollback(context.Background()); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				log.Error("Store: rollback failed", zap.Error(rbErr))
				err = multierr.Append(err, fmt.Errorf("rollback: %w", rbErr))
			}
		}
	}()

	if err = fn(ctx, newTx(pgTx)); err != nil {
		return err
	}
	if err = pgTx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Read runs queries straight on the pool
func (s *Store) Read() domain.Tx {
	return newTx(s.pool)
}

// Credit adds funds to an account, used to fund parties in local setups
func (s *Store) Credit(ctx context.Context, account domain.AccountID, amount domain.Amount) error {
	return credit(ctx, s.pool, account, amount)
}

// Mint registers assetID as held by holder, replacing any previous holder
func (s *Store) Mint(ctx context.Context, assetID string, holder domain.AccountID) error {
	_, err := s.pool.Exec(ctx, `
        INSERT INTO asset_holdings (asset_id, holder)
        VALUES ($1, $2)
        ON CONFLICT (asset_id) DO UPDATE SET holder = EXCLUDED.holder, updated_at = NOW()
    `, assetID, string(holder))
	return err
}

type tx struct {
	q querier
}

func newTx(q querier) *tx { return &tx{q: q} }

func (t *tx) Auctions() domain.AuctionRepository { return &AuctionRepository{q: t.q} }
func (t *tx) Bids() domain.BidRepository         { return &BidRepository{q: t.q} }
func (t *tx) Ledger() domain.Ledger              { return &Ledger{q: t.q} }
func (t *tx) Assets() domain.AssetCustody        { return &AssetCustody{q: t.q} }

func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
