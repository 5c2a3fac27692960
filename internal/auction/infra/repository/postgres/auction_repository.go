package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cristianortiz/sealedbid/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// amounts travel as text and are cast to NUMERIC(20,0), pgx has no uint64 <-> numeric plan without pgtype plumbing
const auctionColumns = `
        id, seller, asset_id, reserve_price::text, bidding_start, bidding_end, reveal_end,
        settlement_mode, collateral_rule, commitment_scheme,
        highest_bid::text, highest_bidder, first_bidder, winning_bidder, bid_count,
        status, version, created_at, updated_at`

// AuctionRepository implements domain.AuctionRepository
type AuctionRepository struct {
	q querier
}

func (r *AuctionRepository) Create(ctx context.Context, a *domain.Auction) error {
	query := `
        INSERT INTO auctions (
            id, seller, asset_id, reserve_price, bidding_start, bidding_end, reveal_end,
            settlement_mode, collateral_rule, commitment_scheme,
            highest_bid, highest_bidder, first_bidder, winning_bidder, bid_count,
            status, version, created_at, updated_at)
        VALUES ($1, $2, $3, $4::text::numeric, $5, $6, $7, $8, $9, $10, $11::text::numeric, $12, $13, $14, $15, $16, $17, $18, $19)
    `
	_, err := r.q.Exec(ctx, query,
		a.ID,
		a.Seller,
		a.AssetID,
		a.ReservePrice.String(),
		a.BiddingStart,
		a.BiddingEnd,
		a.RevealEnd,
		string(a.Rules.Settlement),
		string(a.Rules.Collateral),
		string(a.Rules.Scheme),
		a.HighestBid.String(),
		a.HighestBidder,
		a.FirstBidder,
		a.WinningBidder,
		int64(a.BidCount),
		string(a.Status),
		a.Version,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if pgErrCode(err) == pgUniqueViolation {
		return domain.ErrAuctionExists
	}
	return err
}

func (r *AuctionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = $1`
	a, err := scanAuction(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAuctionNotFound
		}
		return nil, err
	}
	return a, nil
}

// GetForUpdate takes the row lock, a concurrent writer waits for this transaction to end
// and then reads the committed highest bid instead of failing its version check
func (r *AuctionRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = $1 FOR UPDATE`
	a, err := scanAuction(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAuctionNotFound
		}
		return nil, err
	}
	return a, nil
}

// Update writes the mutable part of the auction if nobody bumped the version since it was read
func (r *AuctionRepository) Update(ctx context.Context, a *domain.Auction) error {
	query := `
        UPDATE auctions SET
            highest_bid = $3::text::numeric,
            highest_bidder = $4,
            first_bidder = $5,
            winning_bidder = $6,
            bid_count = $7,
            status = $8,
            version = version + 1,
            updated_at = NOW()
        WHERE id = $1 AND version = $2
    `
	tag, err := r.q.Exec(ctx, query,
		a.ID,
		a.Version,
		a.HighestBid.String(),
		a.HighestBidder,
		a.FirstBidder,
		a.WinningBidder,
		int64(a.BidCount),
		string(a.Status),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return r.missingOrStale(ctx, a.ID)
	}
	a.Version++
	return nil
}

func (r *AuctionRepository) missingOrStale(ctx context.Context, id uuid.UUID) error {
	var exists bool
	if err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM auctions WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return domain.ErrAuctionNotFound
	}
	return domain.ErrConcurrentUpdate
}

// ListDue returns open auctions whose last window closed at or before now, oldest first
func (r *AuctionRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + `
        FROM auctions
        WHERE status IN ($1, $2) AND COALESCE(reveal_end, bidding_end) <= $3
        ORDER BY COALESCE(reveal_end, bidding_end) ASC
        LIMIT $4
    `
	rows, err := r.q.Query(ctx, query, string(domain.StatusActive), string(domain.StatusFinalized), now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var due []*domain.Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, err
		}
		due = append(due, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return due, nil
}

func scanAuction(row pgx.Row) (*domain.Auction, error) {
	var (
		a                                         domain.Auction
		reserve, highest                          string
		settlement, collateral, scheme, status    string
		highestBidder, firstBidder, winningBidder uuid.NullUUID
		bidCount                                  int64
	)
	err := row.Scan(
		&a.ID,
		&a.Seller,
		&a.AssetID,
		&reserve,
		&a.BiddingStart,
		&a.BiddingEnd,
		&a.RevealEnd,
		&settlement,
		&collateral,
		&scheme,
		&highest,
		&highestBidder,
		&firstBidder,
		&winningBidder,
		&bidCount,
		&status,
		&a.Version,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if a.ReservePrice, err = domain.ParseAmount(reserve); err != nil {
		return nil, fmt.Errorf("auction %s reserve_price: %w", a.ID, err)
	}
	if a.HighestBid, err = domain.ParseAmount(highest); err != nil {
		return nil, fmt.Errorf("auction %s highest_bid: %w", a.ID, err)
	}
	a.Rules = domain.Rules{
		Settlement: domain.SettlementMode(settlement),
		Collateral: domain.CollateralRule(collateral),
		Scheme:     domain.CommitmentScheme(scheme),
	}
	a.HighestBidder = nullableID(highestBidder)
	a.FirstBidder = nullableID(firstBidder)
	a.WinningBidder = nullableID(winningBidder)
	a.BidCount = uint64(bidCount)
	a.Status = domain.AuctionStatus(status)
	return &a, nil
}

func nullableID(n uuid.NullUUID) *domain.Identity {
	if !n.Valid {
		return nil
	}
	id := n.UUID
	return &id
}
