package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cristianortiz/sealedbid/internal/auction/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestWithinTxRollsBackEverything(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	alice := domain.UserAccount(uuid.New())
	custody := domain.CustodyAccount(uuid.New())
	require.NoError(t, s.Credit(ctx, alice, 100))
	require.NoError(t, s.Mint(ctx, "nft", alice))

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		require.NoError(t, tx.Ledger().Lock(ctx, alice, custody, 60))
		require.NoError(t, tx.Assets().Deposit(ctx, alice, custody, "nft"))
		bal, err := tx.Ledger().Balance(ctx, custody)
		require.NoError(t, err)
		require.Equal(t, domain.Amount(60), bal)
		return boom
	})
	require.ErrorIs(t, err, boom)

	bal, err := s.Read().Ledger().Balance(ctx, alice)
	require.NoError(t, err)
	require.Equal(t, domain.Amount(100), bal)
	holder, err := s.Read().Assets().Holder(ctx, "nft")
	require.NoError(t, err)
	require.Equal(t, alice, holder)
}

func TestLedger(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	alice := domain.UserAccount(uuid.New())
	bob := domain.UserAccount(uuid.New())
	custody := domain.CustodyAccount(uuid.New())
	require.NoError(t, s.Credit(ctx, alice, 100))

	err := s.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		return tx.Ledger().Lock(ctx, alice, custody, 101)
	})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	err = s.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		if err := tx.Ledger().Lock(ctx, alice, custody, 100); err != nil {
			return err
		}
		return tx.Ledger().Payout(ctx, custody, bob, 40)
	})
	require.NoError(t, err)

	err = s.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		return tx.Ledger().Payout(ctx, custody, bob, 61)
	})
	require.ErrorIs(t, err, domain.ErrInsufficientCustodyBalance)

	for acc, want := range map[domain.AccountID]domain.Amount{alice: 0, bob: 40, custody: 60} {
		got, err := s.Read().Ledger().Balance(ctx, acc)
		require.NoError(t, err)
		require.Equal(t, want, got, string(acc))
	}

	require.ErrorIs(t, s.Read().Ledger().Lock(ctx, bob, custody, 1), errReadOnly)
}

func TestRepositoriesOptimisticUpdate(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a, err := domain.NewAuction(uuid.New(), domain.AuctionParams{
		Seller: uuid.New(), AssetID: "nft", BiddingEnd: now.Add(time.Hour), Rules: domain.DefaultRules(),
	}, now)
	require.NoError(t, err)

	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		return tx.Auctions().Create(ctx, a)
	}))
	require.ErrorIs(t, s.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		return tx.Auctions().Create(ctx, a)
	}), domain.ErrAuctionExists)

	first, err := s.Read().Auctions().GetByID(ctx, a.ID)
	require.NoError(t, err)
	second, err := s.Read().Auctions().GetByID(ctx, a.ID)
	require.NoError(t, err)

	first.BidCount = 1
	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		return tx.Auctions().Update(ctx, first)
	}))
	require.Equal(t, int64(1), first.Version)

	second.BidCount = 7
	require.ErrorIs(t, s.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		return tx.Auctions().Update(ctx, second)
	}), domain.ErrConcurrentUpdate)

	stored, err := s.Read().Auctions().GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(1), stored.BidCount)

	_, err = s.Read().Auctions().GetByID(ctx, uuid.New())
	require.ErrorIs(t, err, domain.ErrAuctionNotFound)

	bidder := uuid.New()
	bid, err := domain.NewBid(a.ID, bidder, domain.Digest{1}, 10, now)
	require.NoError(t, err)
	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		return tx.Bids().Create(ctx, bid)
	}))
	dup, err := domain.NewBid(a.ID, bidder, domain.Digest{2}, 20, now)
	require.NoError(t, err)
	require.ErrorIs(t, s.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		return tx.Bids().Create(ctx, dup)
	}), domain.ErrBidExists)

	bids, err := s.Read().Bids().ListByAuction(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, bids, 1)
	require.Equal(t, domain.Digest{1}, bids[0].Commitment)
}

func TestListDue(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mk := func(end time.Duration) *domain.Auction {
		a, err := domain.NewAuction(uuid.New(), domain.AuctionParams{
			Seller: uuid.New(), AssetID: uuid.NewString(), BiddingEnd: now.Add(end), Rules: domain.DefaultRules(),
		}, now)
		require.NoError(t, err)
		require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
			return tx.Auctions().Create(ctx, a)
		}))
		return a
	}
	late := mk(2 * time.Hour)
	early := mk(time.Hour)
	mk(5 * time.Hour)

	due, err := s.Read().Auctions().ListDue(ctx, now.Add(3*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, due, 2)
	require.Equal(t, early.ID, due[0].ID)
	require.Equal(t, late.ID, due[1].ID)

	due, err = s.Read().Auctions().ListDue(ctx, now.Add(3*time.Hour), 1)
	require.NoError(t, err)
	require.Len(t, due, 1)
}

func TestGetForUpdateSerializesWriters(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a, err := domain.NewAuction(uuid.New(), domain.AuctionParams{
		Seller: uuid.New(), AssetID: "nft", BiddingEnd: now.Add(time.Hour), Rules: domain.DefaultRules(),
	}, now)
	require.NoError(t, err)
	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		return tx.Auctions().Create(ctx, a)
	}))

	_, err = s.Read().Auctions().GetForUpdate(ctx, a.ID)
	require.ErrorIs(t, err, errReadOnly)

	const writers = 20
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.WithinTx(ctx, func(ctx context.Context, tx domain.Tx) error {
				locked, err := tx.Auctions().GetForUpdate(ctx, a.ID)
				if err != nil {
					return err
				}
				locked.BidCount++
				return tx.Auctions().Update(ctx, locked)
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	stored, err := s.Read().Auctions().GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(writers), stored.BidCount)
	require.Equal(t, int64(writers), stored.Version)
}
