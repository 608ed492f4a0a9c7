// Package http is the SWIFT fiber adapter for MT103 cross-border
// transfers.
package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/meridianledger/corebank/internal/identity"
	"github.com/meridianledger/corebank/internal/platform/httpserver"
	"github.com/meridianledger/corebank/internal/platform/money"
	"github.com/meridianledger/corebank/internal/swift"
)

// Handler wires swift.Service onto a fiber.Router.
type Handler struct {
	Svc *swift.Service
}

// Register mounts the SWIFT routes.
func (h *Handler) Register(router fiber.Router) {
	transfers := router.Group("/swift/transfers")

	transfers.Post("/", httpserver.RequireMinRole(identity.RoleOperator), h.initiate)
	transfers.Get("/:reference", h.getByReference)
}

type initiateRequest struct {
	FromAccount        string `json:"fromAccount" validate:"required"`
	SenderBIC          string `json:"senderBic" validate:"required"`
	ReceiverBIC        string `json:"receiverBic" validate:"required"`
	BeneficiaryAccount string `json:"beneficiaryAccount" validate:"required"`
	BeneficiaryName    string `json:"beneficiaryName" validate:"required"`
	OrderingCustomer   string `json:"orderingCustomer" validate:"required"`
	RemittanceInfo     string `json:"remittanceInfo"`
	ChargeType         string `json:"chargeType" validate:"required,oneof=OUR SHA BEN"`
	Amount             string `json:"amount" validate:"required"`
	Currency           string `json:"currency" validate:"required,len=3"`
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

	t, err := h.Svc.InitiateTransfer(c.UserContext(), swift.InitiateRequest{
		FromAccount:        req.FromAccount,
		SenderBIC:          req.SenderBIC,
		ReceiverBIC:        req.ReceiverBIC,
		BeneficiaryAccount: req.BeneficiaryAccount,
		BeneficiaryName:    req.BeneficiaryName,
		OrderingCustomer:   req.OrderingCustomer,
		RemittanceInfo:     req.RemittanceInfo,
		ChargeType:         swift.ChargeType(req.ChargeType),
		Amount:             amount,
	})
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
