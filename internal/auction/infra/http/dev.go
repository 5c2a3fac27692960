package http

import (
	"context"

	"github.com/cristianortiz/sealedbid/internal/auction/domain"
	"github.com/gofiber/fiber/v2"
)

// Funder seeds balances and assets; both stores implement it
type Funder interface {
	Credit(ctx context.Context, account domain.AccountID, amount domain.Amount) error
	Mint(ctx context.Context, assetID string, holder domain.AccountID) error
}

type CreditRequest struct {
	Amount domain.Amount `json:"amount"`
}

type BalanceResponse struct {
	Account domain.AccountID `json:"account"`
	Balance domain.Amount    `json:"balance"`
}

// DevHandler serves the local-only routes used to fund parties and mint assets
type DevHandler struct {
	funder Funder
	store  domain.Store
}

func NewDevHandler(funder Funder, store domain.Store) *DevHandler {
	return &DevHandler{funder: funder, store: store}
}

func (h *DevHandler) RegisterRoutes(router fiber.Router) {
	g := router.Group("/dev")
	g.Post("/accounts/:id/credit", h.credit)
	g.Get("/accounts/:id", h.balance)
	g.Post("/assets/:asset/mint", h.mint)
}

func (h *DevHandler) credit(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var req CreditRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, errBadRequest)
	}
	if err := h.funder.Credit(c.UserContext(), domain.UserAccount(id), req.Amount); err != nil {
		return writeError(c, err)
	}
	return h.balance(c)
}

func (h *DevHandler) balance(c *fiber.Ctx) error {
	id, err := pathID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	account := domain.UserAccount(id)
	bal, err := h.store.Read().Ledger().Balance(c.UserContext(), account)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(BalanceResponse{Account: account, Balance: bal})
}

// mint hands the asset to the caller
func (h *DevHandler) mint(c *fiber.Ctx) error {
	owner, err := caller(c)
	if err != nil {
		return writeError(c, err)
	}
	assetID := c.Params("asset")
	if assetID == "" {
		return writeError(c, domain.ErrInvalidAsset)
	}
	if err := h.funder.Mint(c.UserContext(), assetID, domain.UserAccount(owner)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"asset_id": assetID, "holder": domain.UserAccount(owner)})
}
