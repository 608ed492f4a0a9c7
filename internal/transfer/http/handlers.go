// Package http is the transfer fiber adapter: initiate a transfer and look its
// status up by reference, following the same thin-handler convention as
// internal/ledger/http.
package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/meridianledger/corebank/internal/identity"
	"github.com/meridianledger/corebank/internal/platform/httpserver"
	"github.com/meridianledger/corebank/internal/platform/money"
	"github.com/meridianledger/corebank/internal/transfer"
)

// Handler wires transfer.Service onto a fiber.Router.
type Handler struct {
	Svc *transfer.Service
}

// Register mounts the transfer routes. Initiating a transfer moves funds and is
// gated OPERATOR+ like ledger postings.
func (h *Handler) Register(router fiber.Router) {
	transfers := router.Group("/transfers")

	transfers.Post("/", httpserver.RequireMinRole(identity.RoleOperator), h.initiate)
	transfers.Get("/:reference", h.getByReference)
}

type initiateRequest struct {
	FromAccount    string `json:"fromAccount" validate:"required"`
	ToAccount      string `json:"toAccount" validate:"required"`
	Amount         string `json:"amount" validate:"required"`
	Currency       string `json:"currency" validate:"required,len=3"`
	IdempotencyKey string `json:"idempotencyKey"`
}

func (h *Handler) initiate(c *fiber.Ctx) error {
	var req initiateRequest
	if err := httpserver.ParseBody(c, &req); err != nil {
		return httpserver.WithError(c, err)
	}

	amount, err := money.New(req.Currency, req.Amount)
	if err != nil {
		return httpserver.WithError(c, err)
	}

	t, err := h.Svc.InitiateTransfer(c.UserContext(), req.FromAccount, req.ToAccount, amount, req.IdempotencyKey)
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.Created(c, t)
}

func (h *Handler) getByReference(c *fiber.Ctx) error {
	t, err := h.Svc.Repo.FindByReference(c.UserContext(), c.Params("reference"))
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.OK(c, t)
}
