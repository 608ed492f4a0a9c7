// Package http is the ledger's fiber adapter: thin handlers that parse a
// request DTO, call the Service, and hand the result or error to
// internal/platform/httpserver.
package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/meridianledger/corebank/internal/identity"
	"github.com/meridianledger/corebank/internal/ledger"
	"github.com/meridianledger/corebank/internal/platform/apperr"
	"github.com/meridianledger/corebank/internal/platform/httpserver"
	"github.com/meridianledger/corebank/internal/platform/money"
)

// Handler wires ledger.Service onto a fiber.Router, following the URI
// convention "/<domain>/<aggregate>/<id>/<action>".
type Handler struct {
	Svc *ledger.Service
}

// Register mounts every ledger route under router, gating each by the role
// table: account freeze/close/activate -> ADMIN, credit/debit ->
// OPERATOR+.
func (h *Handler) Register(router fiber.Router) {
	accounts := router.Group("/ledger/accounts")

	accounts.Post("/", h.openAccount)
	accounts.Get("/:accountNumber", h.getAccount)
	accounts.Get("/:accountNumber/balance", h.getBalance)
	accounts.Get("/:accountNumber/history", h.getHistory)

	accounts.Post("/:accountNumber/freeze", httpserver.RequireRole(identity.RoleAdmin), h.setStatus(ledger.StatusFrozen))
	accounts.Post("/:accountNumber/close", httpserver.RequireRole(identity.RoleAdmin), h.setStatus(ledger.StatusClosed))
	accounts.Post("/:accountNumber/activate", httpserver.RequireRole(identity.RoleAdmin), h.setStatus(ledger.StatusActive))

	accounts.Post("/:accountNumber/credit", httpserver.RequireMinRole(identity.RoleOperator), h.credit)
	accounts.Post("/:accountNumber/debit", httpserver.RequireMinRole(identity.RoleOperator), h.debit)
}

type openAccountRequest struct {
	CustomerID    string `json:"customerId" validate:"required,uuid"`
	AccountNumber string `json:"accountNumber" validate:"required"`
	Currency      string `json:"currency" validate:"required,len=3"`
	Type          string `json:"type" validate:"required,oneof=CHECKING SAVINGS"`
	InitialAmount string `json:"initialAmount" validate:"required"`
}

func (h *Handler) openAccount(c *fiber.Ctx) error {
	var req openAccountRequest
	if err := httpserver.ParseBody(c, &req); err != nil {
		return httpserver.WithError(c, err)
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		return httpserver.WithError(c, apperr.New(apperr.KindValidation, "Account",
			"INVALID_CUSTOMER_ID", "Invalid Customer Id", "customerId is not a valid UUID"))
	}

	amount, err := money.New(req.Currency, req.InitialAmount)
	if err != nil {
		return httpserver.WithError(c, err)
	}

	account, err := h.Svc.OpenAccount(c.UserContext(), customerID, req.AccountNumber, req.Currency, ledger.AccountType(req.Type), amount)
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.Created(c, account)
}

func (h *Handler) getAccount(c *fiber.Ctx) error {
	account, err := h.Svc.GetAccount(c.UserContext(), c.Params("accountNumber"))
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.OK(c, account)
}

func (h *Handler) getBalance(c *fiber.Ctx) error {
	balance, err := h.Svc.GetBalance(c.UserContext(), c.Params("accountNumber"))
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.OK(c, balance)
}

func (h *Handler) getHistory(c *fiber.Ctx) error {
	from := queryTime(c, "from", time.Now().UTC().AddDate(0, 0, -30))
	to := queryTime(c, "to", time.Now().UTC())

	lines, err := h.Svc.History(c.UserContext(), c.Params("accountNumber"), from, to)
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.OK(c, lines)
}

func (h *Handler) setStatus(status ledger.Status) fiber.Handler {
	return func(c *fiber.Ctx) error {
		account, err := h.Svc.SetStatus(c.UserContext(), c.Params("accountNumber"), status)
		if err != nil {
			return httpserver.WithError(c, err)
		}

		return httpserver.OK(c, account)
	}
}

type postingRequest struct {
	Amount      string `json:"amount" validate:"required"`
	Currency    string `json:"currency" validate:"required,len=3"`
	ReferenceID string `json:"referenceId" validate:"required"`
	Description string `json:"description"`
}

func (h *Handler) credit(c *fiber.Ctx) error {
	return h.post(c, h.Svc.Credit)
}

func (h *Handler) debit(c *fiber.Ctx) error {
	return h.post(c, h.Svc.Debit)
}

type postingFunc func(ctx context.Context, accountNumber string, amount money.Amount, referenceID, description string) (*ledger.PostingLine, error)

func (h *Handler) post(c *fiber.Ctx, apply postingFunc) error {
	var req postingRequest
	if err := httpserver.ParseBody(c, &req); err != nil {
		return httpserver.WithError(c, err)
	}

	amount, err := money.New(req.Currency, req.Amount)
	if err != nil {
		return httpserver.WithError(c, err)
	}

	line, err := apply(c.UserContext(), c.Params("accountNumber"), amount, req.ReferenceID, req.Description)
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.OK(c, line)
}

func queryTime(c *fiber.Ctx, key string, fallback time.Time) time.Time {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return fallback
	}

	return t
}
