package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cristianortiz/sealedbid/internal/auction/domain"
	"github.com/cristianortiz/sealedbid/internal/auction/infra/repository/memory"
	"github.com/cristianortiz/sealedbid/internal/shared/clock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []AuctionEvent
}

func (r *recorder) Publish(e AuctionEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type harness struct {
	ctx    context.Context
	store  *memory.Store
	clk    *clock.Fake
	svc    AuctionService
	events *recorder
	seller uuid.UUID
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		ctx:    context.Background(),
		store:  memory.NewStore(),
		clk:    clock.NewFake(t0),
		events: &recorder{},
		seller: uuid.New(),
	}
	h.svc = NewAuctionService(Deps{
		Store:    h.store,
		Clock:    h.clk,
		Notifier: h.events,
		Rules:    domain.DefaultRules(),
	})
	return h
}

func (h *harness) fund(t *testing.T, id uuid.UUID, amount domain.Amount) {
	t.Helper()
	require.NoError(t, h.store.Credit(h.ctx, domain.UserAccount(id), amount))
}

func (h *harness) balance(t *testing.T, acc domain.AccountID) domain.Amount {
	t.Helper()
	bal, err := h.store.Read().Ledger().Balance(h.ctx, acc)
	require.NoError(t, err)
	return bal
}

func (h *harness) holder(t *testing.T, assetID string) domain.AccountID {
	t.Helper()
	holder, err := h.store.Read().Assets().Holder(h.ctx, assetID)
	require.NoError(t, err)
	return holder
}

// create mints a fresh asset for the seller and auctions it with a one hour
// bidding window followed by a one hour reveal window
func (h *harness) create(t *testing.T, reserve domain.Amount, rules *domain.Rules) *domain.Auction {
	t.Helper()
	assetID := "asset-" + uuid.NewString()
	require.NoError(t, h.store.Mint(h.ctx, assetID, domain.UserAccount(h.seller)))
	a, err := h.svc.CreateAuction(h.ctx, CreateAuctionDTO{
		Seller:         h.seller,
		AssetID:        assetID,
		ReservePrice:   reserve,
		Duration:       time.Hour,
		RevealDuration: time.Hour,
		Rules:          rules,
	})
	require.NoError(t, err)
	return a
}

type sealed struct {
	bidder uuid.UUID
	amount domain.Amount
	nonce  domain.Nonce
}

func (h *harness) bid(t *testing.T, a *domain.Auction, bidder uuid.UUID, locked, amount domain.Amount) sealed {
	t.Helper()
	nonce, err := domain.NewNonce()
	require.NoError(t, err)
	_, err = h.svc.SubmitBid(h.ctx, SubmitBidDTO{
		AuctionID:    a.ID,
		Bidder:       bidder,
		Commitment:   domain.ComputeCommitment(a.Rules.Scheme, amount, nonce, bidder),
		LockedAmount: locked,
	})
	require.NoError(t, err)
	return sealed{bidder: bidder, amount: amount, nonce: nonce}
}

func (h *harness) reveal(t *testing.T, a *domain.Auction, s sealed) *RevealResult {
	t.Helper()
	res, err := h.svc.RevealBid(h.ctx, RevealBidDTO{AuctionID: a.ID, Bidder: s.bidder, Amount: s.amount, Nonce: s.nonce})
	require.NoError(t, err)
	return res
}

func (h *harness) claim(t *testing.T, a *domain.Auction, bidder uuid.UUID) domain.Amount {
	t.Helper()
	res, err := h.svc.ClaimBid(h.ctx, ClaimBidDTO{AuctionID: a.ID, Bidder: bidder})
	require.NoError(t, err)
	return res.Amount
}

func TestSealedBidAuctionHappyPath(t *testing.T) {
	h := newHarness(t)
	alice, bob := uuid.New(), uuid.New()
	h.fund(t, alice, 1000)
	h.fund(t, bob, 1000)

	a := h.create(t, 100, nil)
	require.Equal(t, domain.CustodyAccount(a.ID), h.holder(t, a.AssetID))

	h.clk.Advance(10 * time.Minute)
	sa := h.bid(t, a, alice, 150, 120)
	sb := h.bid(t, a, bob, 200, 90)
	require.Equal(t, domain.Amount(350), h.balance(t, domain.CustodyAccount(a.ID)))

	_, err := h.svc.RevealBid(h.ctx, RevealBidDTO{AuctionID: a.ID, Bidder: alice, Amount: sa.amount, Nonce: sa.nonce})
	require.ErrorIs(t, err, domain.ErrCommitPeriodNotEnded)

	h.clk.Set(t0.Add(time.Hour + time.Minute))
	_, err = h.svc.SubmitBid(h.ctx, SubmitBidDTO{AuctionID: a.ID, Bidder: uuid.New(), LockedAmount: 10})
	require.ErrorIs(t, err, domain.ErrCommitPeriodEnded)

	require.True(t, h.reveal(t, a, sa).IsHighest)
	res := h.reveal(t, a, sb)
	require.False(t, res.IsHighest)
	require.Equal(t, domain.Amount(120), res.HighestBid)

	_, _, err = h.svc.SettleAuction(h.ctx, a.ID)
	require.ErrorIs(t, err, domain.ErrRevealPeriodNotEnded)

	h.clk.Set(t0.Add(2 * time.Hour))
	settled, plan, err := h.svc.SettleAuction(h.ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusSettled, settled.Status)
	require.Equal(t, alice, *plan.Winner)
	require.Equal(t, domain.Amount(120), plan.SellerProceeds)

	require.Equal(t, domain.UserAccount(alice), h.holder(t, a.AssetID))
	require.Equal(t, domain.Amount(120), h.balance(t, domain.UserAccount(h.seller)))

	require.Equal(t, domain.Amount(30), h.claim(t, a, alice))
	require.Equal(t, domain.Amount(200), h.claim(t, a, bob))

	require.Equal(t, domain.Amount(880), h.balance(t, domain.UserAccount(alice)))
	require.Equal(t, domain.Amount(1000), h.balance(t, domain.UserAccount(bob)))
	require.Zero(t, h.balance(t, domain.CustodyAccount(a.ID)))

	require.Equal(t, []EventType{
		EventAuctionCreated,
		EventBidSubmitted, EventBidSubmitted,
		EventBidRevealed, EventBidRevealed,
		EventAuctionSettled,
		EventBidClaimed, EventBidClaimed,
	}, h.events.types())
}

func TestUnrevealedBidIsForfeited(t *testing.T) {
	h := newHarness(t)
	alice, bob := uuid.New(), uuid.New()
	h.fund(t, alice, 150)
	h.fund(t, bob, 200)

	a := h.create(t, 100, nil)
	h.bid(t, a, alice, 150, 120)
	sb := h.bid(t, a, bob, 200, 90)

	h.clk.Advance(time.Hour)
	h.reveal(t, a, sb)

	h.clk.Advance(time.Hour)
	settled, plan, err := h.svc.SettleAuction(h.ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, settled.Status)
	require.Nil(t, plan.Winner)
	require.Equal(t, domain.UserAccount(h.seller), h.holder(t, a.AssetID))
	require.Zero(t, h.balance(t, domain.UserAccount(h.seller)))

	require.Equal(t, domain.Amount(200), h.claim(t, a, bob))
	require.Zero(t, h.claim(t, a, alice))
	require.Zero(t, h.balance(t, domain.UserAccount(alice)))

	_, err = h.svc.CollectForfeit(h.ctx, CollectForfeitDTO{AuctionID: a.ID, Caller: bob, Bidder: alice})
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = h.svc.CollectForfeit(h.ctx, CollectForfeitDTO{AuctionID: a.ID, Caller: h.seller, Bidder: bob})
	require.ErrorIs(t, err, domain.ErrNothingToForfeit)

	got, err := h.svc.CollectForfeit(h.ctx, CollectForfeitDTO{AuctionID: a.ID, Caller: h.seller, Bidder: alice})
	require.NoError(t, err)
	require.Equal(t, domain.Amount(150), got)
	_, err = h.svc.CollectForfeit(h.ctx, CollectForfeitDTO{AuctionID: a.ID, Caller: h.seller, Bidder: alice})
	require.ErrorIs(t, err, domain.ErrAlreadyCollected)

	require.Equal(t, domain.Amount(150), h.balance(t, domain.UserAccount(h.seller)))
	require.Zero(t, h.balance(t, domain.CustodyAccount(a.ID)))
}

func TestSettleAndClaimHappenOnce(t *testing.T) {
	h := newHarness(t)
	alice := uuid.New()
	h.fund(t, alice, 500)

	a := h.create(t, 0, nil)
	sa := h.bid(t, a, alice, 500, 300)
	h.clk.Advance(time.Hour)
	h.reveal(t, a, sa)
	h.clk.Advance(time.Hour)

	_, _, err := h.svc.SettleAuction(h.ctx, a.ID)
	require.NoError(t, err)
	_, _, err = h.svc.SettleAuction(h.ctx, a.ID)
	require.ErrorIs(t, err, domain.ErrAlreadySettled)
	require.Equal(t, domain.Amount(300), h.balance(t, domain.UserAccount(h.seller)))

	require.Equal(t, domain.Amount(200), h.claim(t, a, alice))
	_, err = h.svc.ClaimBid(h.ctx, ClaimBidDTO{AuctionID: a.ID, Bidder: alice})
	require.ErrorIs(t, err, domain.ErrAlreadyClaimed)
	require.Equal(t, domain.Amount(200), h.balance(t, domain.UserAccount(alice)))

	_, err = h.svc.ClaimBid(h.ctx, ClaimBidDTO{AuctionID: a.ID, Bidder: uuid.New()})
	require.ErrorIs(t, err, domain.ErrBidNotFound)
}

func TestFailedOperationLeavesNoTrace(t *testing.T) {
	h := newHarness(t)
	poor := uuid.New()
	h.fund(t, poor, 50)

	a := h.create(t, 10, nil)
	_, err := h.svc.SubmitBid(h.ctx, SubmitBidDTO{AuctionID: a.ID, Bidder: poor, Commitment: domain.Digest{1}, LockedAmount: 80})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	state, err := h.svc.GetAuctionState(h.ctx, a.ID)
	require.NoError(t, err)
	require.Zero(t, state.BidCount)
	_, err = h.svc.GetBidState(h.ctx, a.ID, poor)
	require.ErrorIs(t, err, domain.ErrBidNotFound)
	require.Equal(t, domain.Amount(50), h.balance(t, domain.UserAccount(poor)))

	// the seller does not hold this asset, nothing is created
	_, err = h.svc.CreateAuction(h.ctx, CreateAuctionDTO{Seller: h.seller, AssetID: "ghost", Duration: time.Hour})
	require.ErrorIs(t, err, domain.ErrAssetNotOwned)
	due, err := h.store.Read().Auctions().ListDue(h.ctx, t0.Add(24*time.Hour), 0)
	require.NoError(t, err)
	require.Len(t, due, 1)
}

func TestSubmitBidRules(t *testing.T) {
	h := newHarness(t)
	alice := uuid.New()
	h.fund(t, alice, 1000)
	exact := domain.Rules{Settlement: domain.SinglePhase, Collateral: domain.CollateralExact, Scheme: domain.SchemeSHA256}
	a := h.create(t, 100, &exact)

	tests := []struct {
		name   string
		bidder uuid.UUID
		locked domain.Amount
		want   error
	}{
		{"seller cannot bid", h.seller, 100, domain.ErrUnauthorized},
		{"zero deposit", alice, 0, domain.ErrInvalidAmount},
		{"deposit below reserve", alice, 99, domain.ErrBidBelowMinimum},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.SubmitBid(h.ctx, SubmitBidDTO{AuctionID: a.ID, Bidder: tt.bidder, LockedAmount: tt.locked})
			require.ErrorIs(t, err, tt.want)
		})
	}

	sa := h.bid(t, a, alice, 150, 120)
	_, err := h.svc.SubmitBid(h.ctx, SubmitBidDTO{AuctionID: a.ID, Bidder: alice, LockedAmount: 150})
	require.ErrorIs(t, err, domain.ErrBidExists)

	h.clk.Advance(time.Hour)
	_, err = h.svc.RevealBid(h.ctx, RevealBidDTO{AuctionID: a.ID, Bidder: alice, Amount: sa.amount + 1, Nonce: sa.nonce})
	require.ErrorIs(t, err, domain.ErrInvalidCommitment)
	// exact collateral: 150 locked against a 120 reveal
	_, err = h.svc.RevealBid(h.ctx, RevealBidDTO{AuctionID: a.ID, Bidder: alice, Amount: sa.amount, Nonce: sa.nonce})
	require.ErrorIs(t, err, domain.ErrDepositMismatch)

	bid, err := h.svc.GetBidState(h.ctx, a.ID, alice)
	require.NoError(t, err)
	require.False(t, bid.Revealed)
}

func TestTieGoesToFirstBidder(t *testing.T) {
	for _, revealFirstBidderLast := range []bool{true, false} {
		h := newHarness(t)
		first, second := uuid.New(), uuid.New()
		h.fund(t, first, 100)
		h.fund(t, second, 100)

		a := h.create(t, 50, nil)
		sf := h.bid(t, a, first, 100, 80)
		ss := h.bid(t, a, second, 100, 80)
		h.clk.Advance(time.Hour)
		if revealFirstBidderLast {
			require.True(t, h.reveal(t, a, ss).IsHighest)
			require.True(t, h.reveal(t, a, sf).IsHighest)
		} else {
			require.True(t, h.reveal(t, a, sf).IsHighest)
			require.False(t, h.reveal(t, a, ss).IsHighest)
		}

		h.clk.Advance(time.Hour)
		_, plan, err := h.svc.SettleAuction(h.ctx, a.ID)
		require.NoError(t, err)
		require.Equal(t, first, *plan.Winner)
	}
}

func TestKeccakScheme(t *testing.T) {
	h := newHarness(t)
	alice := uuid.New()
	h.fund(t, alice, 100)
	rules := domain.DefaultRules()
	rules.Scheme = domain.SchemeKeccak256
	a := h.create(t, 10, &rules)

	nonce := domain.Nonce{7}
	_, err := h.svc.SubmitBid(h.ctx, SubmitBidDTO{
		AuctionID:    a.ID,
		Bidder:       alice,
		Commitment:   domain.ComputeCommitment(domain.SchemeSHA256, 50, nonce, alice),
		LockedAmount: 100,
	})
	require.NoError(t, err)
	h.clk.Advance(time.Hour)

	_, err = h.svc.RevealBid(h.ctx, RevealBidDTO{AuctionID: a.ID, Bidder: alice, Amount: 50, Nonce: nonce})
	require.ErrorIs(t, err, domain.ErrInvalidCommitment)
}

func TestTwoPhaseSettlement(t *testing.T) {
	h := newHarness(t)
	alice, bob := uuid.New(), uuid.New()
	h.fund(t, alice, 150)
	h.fund(t, bob, 200)
	rules := domain.DefaultRules()
	rules.Settlement = domain.TwoPhase
	a := h.create(t, 100, &rules)

	sa := h.bid(t, a, alice, 150, 120)
	sb := h.bid(t, a, bob, 200, 90)
	h.clk.Advance(time.Hour)
	h.reveal(t, a, sa)
	h.reveal(t, a, sb)
	h.clk.Advance(time.Hour)

	_, _, err := h.svc.CompleteTrade(h.ctx, CompleteTradeDTO{AuctionID: a.ID})
	require.ErrorIs(t, err, domain.ErrAuctionNotFinalized)

	fin, err := h.svc.FinalizeAuction(h.ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusFinalized, fin.Status)
	require.Equal(t, alice, *fin.WinningBidder)
	_, err = h.svc.FinalizeAuction(h.ctx, a.ID)
	require.ErrorIs(t, err, domain.ErrAlreadyFinalized)

	// finalization moves nothing and claims must wait for completion
	require.Zero(t, h.balance(t, domain.UserAccount(h.seller)))
	_, err = h.svc.ClaimBid(h.ctx, ClaimBidDTO{AuctionID: a.ID, Bidder: bob})
	require.ErrorIs(t, err, domain.ErrAuctionNotSettled)

	_, _, err = h.svc.CompleteTrade(h.ctx, CompleteTradeDTO{AuctionID: a.ID, WinningBidder: &bob})
	require.ErrorIs(t, err, domain.ErrInvalidBid)

	done, plan, err := h.svc.CompleteTrade(h.ctx, CompleteTradeDTO{AuctionID: a.ID})
	require.NoError(t, err)
	require.Equal(t, domain.StatusCompleted, done.Status)
	require.Equal(t, domain.Amount(120), plan.SellerProceeds)
	require.Equal(t, domain.UserAccount(alice), h.holder(t, a.AssetID))

	require.Equal(t, domain.Amount(30), h.claim(t, a, alice))
	require.Equal(t, domain.Amount(200), h.claim(t, a, bob))
	require.Zero(t, h.balance(t, domain.CustodyAccount(a.ID)))

	_, _, err = h.svc.SettleAuction(h.ctx, a.ID)
	require.ErrorIs(t, err, domain.ErrAlreadySettled)
}

func TestTwoPhaseWithoutWinnerCancels(t *testing.T) {
	h := newHarness(t)
	rules := domain.DefaultRules()
	rules.Settlement = domain.TwoPhase
	a := h.create(t, 100, &rules)
	h.clk.Advance(2 * time.Hour)

	done, plan, err := h.svc.SettleAuction(h.ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, done.Status)
	require.Equal(t, h.seller, plan.AssetRecipient)
	require.Equal(t, domain.UserAccount(h.seller), h.holder(t, a.AssetID))
}

func TestCancelAuction(t *testing.T) {
	h := newHarness(t)
	alice := uuid.New()
	h.fund(t, alice, 100)

	a := h.create(t, 10, nil)
	_, err := h.svc.CancelAuction(h.ctx, CancelAuctionDTO{AuctionID: a.ID, Caller: alice})
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	cancelled, err := h.svc.CancelAuction(h.ctx, CancelAuctionDTO{AuctionID: a.ID, Caller: h.seller})
	require.NoError(t, err)
	require.Equal(t, domain.StatusCancelled, cancelled.Status)
	require.Equal(t, domain.UserAccount(h.seller), h.holder(t, a.AssetID))

	_, err = h.svc.SubmitBid(h.ctx, SubmitBidDTO{AuctionID: a.ID, Bidder: alice, LockedAmount: 10})
	require.ErrorIs(t, err, domain.ErrAuctionNotActive)

	withBid := h.create(t, 10, nil)
	h.bid(t, withBid, alice, 10, 10)
	_, err = h.svc.CancelAuction(h.ctx, CancelAuctionDTO{AuctionID: withBid.ID, Caller: h.seller})
	require.ErrorIs(t, err, domain.ErrCannotCancel)
}

func TestFundsAreConserved(t *testing.T) {
	h := newHarness(t)
	bidders := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	for _, b := range bidders {
		h.fund(t, b, 1000)
	}
	const total = 4000

	a := h.create(t, 200, nil)
	bids := []sealed{
		h.bid(t, a, bidders[0], 300, 250),
		h.bid(t, a, bidders[1], 500, 400),
		h.bid(t, a, bidders[2], 400, 150),
		h.bid(t, a, bidders[3], 900, 800),
	}
	h.clk.Advance(time.Hour)
	for _, s := range bids[:3] {
		h.reveal(t, a, s)
	}
	h.clk.Advance(time.Hour)
	_, plan, err := h.svc.SettleAuction(h.ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, bidders[1], *plan.Winner)

	for _, b := range bidders {
		h.claim(t, a, b)
	}
	_, err = h.svc.CollectForfeit(h.ctx, CollectForfeitDTO{AuctionID: a.ID, Caller: h.seller, Bidder: bidders[3]})
	require.NoError(t, err)

	var sum domain.Amount
	for _, acc := range []domain.AccountID{
		domain.UserAccount(h.seller),
		domain.UserAccount(bidders[0]),
		domain.UserAccount(bidders[1]),
		domain.UserAccount(bidders[2]),
		domain.UserAccount(bidders[3]),
		domain.CustodyAccount(a.ID),
	} {
		sum += h.balance(t, acc)
	}
	require.Equal(t, domain.Amount(total), sum)
	require.Zero(t, h.balance(t, domain.CustodyAccount(a.ID)))
	require.Equal(t, domain.Amount(400+900), h.balance(t, domain.UserAccount(h.seller)))
}

func TestSettlementKeeper(t *testing.T) {
	h := newHarness(t)
	alice := uuid.New()
	h.fund(t, alice, 100)

	single := h.create(t, 10, nil)
	sa := h.bid(t, single, alice, 100, 40)
	rules := domain.DefaultRules()
	rules.Settlement = domain.TwoPhase
	twoPhase := h.create(t, 10, &rules)

	keeper := NewSettlementKeeper(h.svc, h.store, h.clk, time.Minute, 10)
	n, err := keeper.Tick(h.ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	h.clk.Advance(time.Hour)
	h.reveal(t, single, sa)
	h.clk.Advance(time.Hour)

	n, err = keeper.Tick(h.ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	s, err := h.svc.GetAuctionState(h.ctx, single.ID)
	require.NoError(t, err)
	require.Equal(t, string(domain.StatusSettled), s.Status)
	require.Equal(t, alice, *s.WinningBidder)
	s, err = h.svc.GetAuctionState(h.ctx, twoPhase.ID)
	require.NoError(t, err)
	require.Equal(t, string(domain.StatusCancelled), s.Status)

	n, err = keeper.Tick(h.ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestListBids(t *testing.T) {
	h := newHarness(t)
	alice, bob := uuid.New(), uuid.New()
	h.fund(t, alice, 100)
	h.fund(t, bob, 100)
	a := h.create(t, 10, nil)
	h.bid(t, a, alice, 20, 15)
	h.clk.Advance(time.Minute)
	h.bid(t, a, bob, 30, 25)

	bids, err := h.svc.ListBids(h.ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, bids, 2)
	require.Equal(t, alice, bids[0].Bidder)
	require.Equal(t, bob, bids[1].Bidder)
	require.Nil(t, bids[0].RevealedAmount)
}

func TestConcurrentRevealsAllLand(t *testing.T) {
	h := newHarness(t)
	a := h.create(t, 10, nil)

	const bidders = 12
	bids := make([]sealed, 0, bidders)
	for i := 0; i < bidders; i++ {
		bidder := uuid.New()
		h.fund(t, bidder, 1000)
		bids = append(bids, h.bid(t, a, bidder, 500, domain.Amount(100+i)))
	}

	h.clk.Advance(time.Hour)
	var wg sync.WaitGroup
	errs := make(chan error, bidders)
	for _, s := range bids {
		s := s
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.svc.RevealBid(h.ctx, RevealBidDTO{AuctionID: a.ID, Bidder: s.bidder, Amount: s.amount, Nonce: s.nonce})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	state, err := h.svc.GetAuctionState(h.ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, domain.Amount(100+bidders-1), state.HighestBid)
	require.Equal(t, bids[bidders-1].bidder, *state.HighestBidder)
}

func TestSubmitBidWithoutCommitment(t *testing.T) {
	h := newHarness(t)
	alice := uuid.New()
	h.fund(t, alice, 100)
	a := h.create(t, 10, nil)

	_, err := h.svc.SubmitBid(h.ctx, SubmitBidDTO{AuctionID: a.ID, Bidder: alice, LockedAmount: 50})
	require.ErrorIs(t, err, domain.ErrMissingCommitment)
	require.Equal(t, domain.Amount(100), h.balance(t, domain.UserAccount(alice)))
	require.Zero(t, h.balance(t, domain.CustodyAccount(a.ID)))
}
