package postgres

import (
	"context"
	"errors"

	"github.com/cristianortiz/sealedbid/internal/auction/domain"
	"github.com/jackc/pgx/v5"
)

// Ledger implements domain.Ledger on ledger_accounts. Debits are a single
// conditional UPDATE, so two transactions can never both spend the same balance.
type Ledger struct {
	q querier
}

func (l *Ledger) Lock(ctx context.Context, payer, custody domain.AccountID, amount domain.Amount) error {
	return l.move(ctx, payer, custody, amount, domain.ErrInsufficientFunds)
}

func (l *Ledger) Payout(ctx context.Context, custody, recipient domain.AccountID, amount domain.Amount) error {
	return l.move(ctx, custody, recipient, amount, domain.ErrInsufficientCustodyBalance)
}

func (l *Ledger) move(ctx context.Context, from, to domain.AccountID, amount domain.Amount, short error) error {
	if amount == 0 || from == to {
		return nil
	}
	tag, err := l.q.Exec(ctx, `
        UPDATE ledger_accounts
        SET balance = balance - $2::text::numeric, updated_at = NOW()
        WHERE account_id = $1 AND balance >= $2::text::numeric
    `, string(from), amount.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return short
	}
	return credit(ctx, l.q, to, amount)
}

func (l *Ledger) Balance(ctx context.Context, account domain.AccountID) (domain.Amount, error) {
	var balance string
	err := l.q.QueryRow(ctx,
		`SELECT balance::text FROM ledger_accounts WHERE account_id = $1`, string(account),
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return domain.ParseAmount(balance)
}

// credit upserts the account; the table CHECK caps balances at the uint64 range
func credit(ctx context.Context, q querier, account domain.AccountID, amount domain.Amount) error {
	_, err := q.Exec(ctx, `
        INSERT INTO ledger_accounts (account_id, balance)
        VALUES ($1, $2::text::numeric)
        ON CONFLICT (account_id) DO UPDATE
        SET balance = ledger_accounts.balance + EXCLUDED.balance, updated_at = NOW()
    `, string(account), amount.String())
	if pgErrCode(err) == pgCheckViolation {
		return domain.ErrAmountOverflow
	}
	return err
}

// AssetCustody implements domain.AssetCustody on asset_holdings
type AssetCustody struct {
	q querier
}

func (c *AssetCustody) Deposit(ctx context.Context, owner, custody domain.AccountID, assetID string) error {
	return c.transfer(ctx, owner, custody, assetID)
}

func (c *AssetCustody) Release(ctx context.Context, custody, recipient domain.AccountID, assetID string) error {
	return c.transfer(ctx, custody, recipient, assetID)
}

func (c *AssetCustody) transfer(ctx context.Context, from, to domain.AccountID, assetID string) error {
	tag, err := c.q.Exec(ctx, `
        UPDATE asset_holdings SET holder = $3, updated_at = NOW()
        WHERE asset_id = $1 AND holder = $2
    `, assetID, string(from), string(to))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAssetNotOwned
	}
	return nil
}

func (c *AssetCustody) Holder(ctx context.Context, assetID string) (domain.AccountID, error) {
	var holder string
	err := c.q.QueryRow(ctx, `SELECT holder FROM asset_holdings WHERE asset_id = $1`, assetID).Scan(&holder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrAssetNotOwned
		}
		return "", err
	}
	return domain.AccountID(holder), nil
}
