package http

import (
	"errors"
	"time"

	"github.com/cristianortiz/sealedbid/internal/auction/application"
	"github.com/cristianortiz/sealedbid/internal/auction/domain"
	"github.com/cristianortiz/sealedbid/internal/shared/logger"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// identity headers, the first one present wins; authentication happens upstream
var identityHeaders = []string{"X-Bidder-ID", "X-User-ID"}

var (
	errMissingIdentity = errors.New("missing caller identity header")
	errBadRequest      = errors.New("malformed request")
)

// AuctionHandler exposes the auction service over REST
type AuctionHandler struct {
	service  application.AuctionService
	defaults domain.Rules
}

func NewAuctionHandler(service application.AuctionService, defaults domain.Rules) *AuctionHandler {
	return &AuctionHandler{service: service, defaults: defaults}
}

func (h *AuctionHandler) RegisterRoutes(router fiber.Router) {
	g := router.Group("/auctions")
	g.Post("/", h.createAuction)
	g.Get("/:id", h.getAuction)
	g.Post("/:id/bids", h.submitBid)
	g.Get("/:id/bids", h.listBids)
	g.Get("/:id/bids/:bidder", h.getBid)
	g.Post("/:id/reveal", h.revealBid)
	g.Post("/:id/settle", h.settle)
	g.Post("/:id/finalize", h.finalize)
	g.Post("/:id/complete", h.complete)
	g.Post("/:id/claim", h.claim)
	g.Post("/:id/cancel", h.cancel)
	g.Post("/:id/forfeits/:bidder", h.collectForfeit)
}

func (h *AuctionHandler) createAuction(c *fiber.Ctx) error {
	seller, err := caller(c)
	if err != nil {
		return writeError(c, err)
	}
	var req CreateAuctionRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, errBadRequest)
	}

	cmd := application.CreateAuctionDTO{
		Seller:         seller,
		AssetID:        req.AssetID,
		ReservePrice:   req.ReservePrice,
		Duration:       time.Duration(req.DurationSeconds) * time.Second,
		RevealDuration: time.Duration(req.RevealDurationSeconds) * time.Second,
		RevealEnd:      req.RevealEnd,
	}
	if req.StartTime != nil {
		cmd.StartTime = *req.StartTime
	}
	if req.BiddingEnd != nil {
		cmd.BiddingEnd = *req.BiddingEnd
	}
	if req.SettlementMode != "" || req.CollateralRule != "" || req.CommitmentScheme != "" {
		rules, err := domain.ParseRules(
			orDefault(req.SettlementMode, string(h.defaults.Settlement)),
			orDefault(req.CollateralRule, string(h.defaults.Collateral)),
			orDefault(req.CommitmentScheme, string(h.defaults.Scheme)),
		)
		if err != nil {
			return writeError(c, err)
		}
		cmd.Rules = &rules
	}

	a, err := h.service.CreateAuction(c.UserContext(), cmd)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(application.NewAuctionStateDTO(a))
}

func (h *AuctionHandler) getAuction(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	state, err := h.service.GetAuctionState(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(state)
}

func (h *AuctionHandler) submitBid(c *fiber.Ctx) error {
	id, bidder, err := auctionAndCaller(c)
	if err != nil {
		return writeError(c, err)
	}
	var req SubmitBidRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, errBadRequest)
	}
	b, err := h.service.SubmitBid(c.UserContext(), application.SubmitBidDTO{
		AuctionID:    id,
		Bidder:       bidder,
		Commitment:   req.Commitment,
		LockedAmount: req.LockedAmount,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(application.NewBidStateDTO(b))
}

func (h *AuctionHandler) listBids(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	bids, err := h.service.ListBids(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(bids)
}

func (h *AuctionHandler) getBid(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	bidder, err := pathID(c, "bidder")
	if err != nil {
		return writeError(c, err)
	}
	bid, err := h.service.GetBidState(c.UserContext(), id, bidder)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(bid)
}

func (h *AuctionHandler) revealBid(c *fiber.Ctx) error {
	id, bidder, err := auctionAndCaller(c)
	if err != nil {
		return writeError(c, err)
	}
	var req RevealBidRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, errBadRequest)
	}
	res, err := h.service.RevealBid(c.UserContext(), application.RevealBidDTO{
		AuctionID: id,
		Bidder:    bidder,
		Amount:    req.Amount,
		Nonce:     req.Nonce,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(RevealBidResponse{
		Bid:        application.NewBidStateDTO(res.Bid),
		IsHighest:  res.IsHighest,
		HighestBid: res.HighestBid,
	})
}

// settle is permissionless, no identity needed
func (h *AuctionHandler) settle(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	a, plan, err := h.service.SettleAuction(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(newSettlementResponse(a, plan))
}

func (h *AuctionHandler) finalize(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	a, err := h.service.FinalizeAuction(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(application.NewAuctionStateDTO(a))
}

func (h *AuctionHandler) complete(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req CompleteTradeRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, errBadRequest)
		}
	}
	a, plan, err := h.service.CompleteTrade(c.UserContext(), application.CompleteTradeDTO{
		AuctionID:     id,
		WinningBidder: req.WinningBidder,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(newSettlementResponse(a, plan))
}

func (h *AuctionHandler) claim(c *fiber.Ctx) error {
	id, bidder, err := auctionAndCaller(c)
	if err != nil {
		return writeError(c, err)
	}
	res, err := h.service.ClaimBid(c.UserContext(), application.ClaimBidDTO{AuctionID: id, Bidder: bidder})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(ClaimResponse{Bid: application.NewBidStateDTO(res.Bid), Amount: res.Amount})
}

func (h *AuctionHandler) cancel(c *fiber.Ctx) error {
	id, seller, err := auctionAndCaller(c)
	if err != nil {
		return writeError(c, err)
	}
	a, err := h.service.CancelAuction(c.UserContext(), application.CancelAuctionDTO{AuctionID: id, Caller: seller})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(application.NewAuctionStateDTO(a))
}

func (h *AuctionHandler) collectForfeit(c *fiber.Ctx) error {
	id, seller, err := auctionAndCaller(c)
	if err != nil {
		return writeError(c, err)
	}
	bidder, err := pathID(c, "bidder")
	if err != nil {
		return writeError(c, err)
	}
	amount, err := h.service.CollectForfeit(c.UserContext(), application.CollectForfeitDTO{
		AuctionID: id,
		Caller:    seller,
		Bidder:    bidder,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(ForfeitResponse{Bidder: bidder, Amount: amount})
}

func caller(c *fiber.Ctx) (uuid.UUID, error) {
	for _, hdr := range identityHeaders {
		if v := c.Get(hdr); v != "" {
			id, err := uuid.Parse(v)
			if err != nil {
				return uuid.Nil, errMissingIdentity
			}
			return id, nil
		}
	}
	return uuid.Nil, errMissingIdentity
}

func pathID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, errBadRequest
	}
	return id, nil
}

func auctionAndCaller(c *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	id, err := pathID(c, "id")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	who, err := caller(c)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return id, who, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// statusFor maps a domain error category to an HTTP status
func statusFor(err error) (int, domain.ErrorKind) {
	switch {
	case errors.Is(err, errBadRequest):
		return fiber.StatusBadRequest, domain.KindValue
	case errors.Is(err, errMissingIdentity):
		return fiber.StatusUnauthorized, domain.KindAuthorization
	}
	kind := domain.KindOf(err)
	switch kind {
	case domain.KindNotFound:
		return fiber.StatusNotFound, kind
	case domain.KindTiming, domain.KindState, domain.KindConflict:
		return fiber.StatusConflict, kind
	case domain.KindIntegrity, domain.KindValue:
		return fiber.StatusUnprocessableEntity, kind
	case domain.KindAuthorization:
		return fiber.StatusForbidden, kind
	}
	return fiber.StatusInternalServerError, kind
}

func writeError(c *fiber.Ctx, err error) error {
	status, kind := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		log.Error("HTTP request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}
	return c.Status(status).JSON(ErrorResponse{Error: err.Error(), Kind: string(kind)})
}
