// Package http is the SEPA fiber adapter: SCT/SCT_INST credit transfers,
// SDD mandates, batches and R-transaction returns.
package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/meridianledger/corebank/internal/identity"
	"github.com/meridianledger/corebank/internal/platform/apperr"
	"github.com/meridianledger/corebank/internal/platform/httpserver"
	"github.com/meridianledger/corebank/internal/platform/money"
	"github.com/meridianledger/corebank/internal/sepa"
)

// Handler wires sepa.Service onto a fiber.Router.
type Handler struct {
	Svc *sepa.Service
}

// Register mounts the SEPA routes. Everything that moves money or alters a
// mandate requires OPERATOR+.
func (h *Handler) Register(router fiber.Router) {
	transfers := router.Group("/sepa/transfers")

	transfers.Post("/", httpserver.RequireMinRole(identity.RoleOperator), h.initiate)
	transfers.Get("/:reference", h.getByReference)

	mandates := router.Group("/sepa/mandates", httpserver.RequireMinRole(identity.RoleOperator))
	mandates.Post("/", h.createMandate)
	mandates.Get("/:umr", h.getMandate)
	mandates.Post("/:umr/activate", h.mandateAction(h.Svc.ActivateMandate))
	mandates.Post("/:umr/suspend", h.mandateAction(h.Svc.SuspendMandate))
	mandates.Post("/:umr/resume", h.mandateAction(h.Svc.ResumeMandate))
	mandates.Post("/:umr/cancel", h.mandateAction(h.Svc.CancelMandate))
	mandates.Post("/:umr/collections", h.recordCollection)

	batches := router.Group("/sepa/batches", httpserver.RequireMinRole(identity.RoleOperator))
	batches.Post("/", h.createBatch)
	batches.Get("/:messageId", h.getBatch)
	batches.Post("/:messageId/validate", h.batchAction(h.Svc.ValidateBatch))
	batches.Post("/:messageId/submit", h.batchAction(h.Svc.SubmitBatch))
	batches.Post("/:messageId/results", h.recordBatchResult)

	returns := router.Group("/sepa/returns", httpserver.RequireMinRole(identity.RoleOperator))
	returns.Post("/", h.initiateReturn)
	returns.Get("/:id", h.getReturn)
	returns.Post("/:id/validate", h.returnAction(h.Svc.ValidateReturn))
	returns.Post("/:id/process", h.returnAction(h.Svc.ProcessReturn))
	returns.Post("/:id/complete", h.returnAction(h.Svc.CompleteReturn))
	returns.Post("/:id/refund", h.returnAction(h.Svc.RefundReturn))
}

type initiateRequest struct {
	Scheme         string `json:"scheme" validate:"required,oneof=SCT SCT_INST"`
	FromAccount    string `json:"fromAccount" validate:"required"`
	CreditorIBAN   string `json:"creditorIban" validate:"required"`
	CreditorName   string `json:"creditorName" validate:"required"`
	RemittanceInfo string `json:"remittanceInfo"`
	Amount         string `json:"amount" validate:"required"`
	Currency       string `json:"currency" validate:"required,len=3"`
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

	t, err := h.Svc.InitiateTransfer(c.UserContext(), sepa.Scheme(req.Scheme), req.FromAccount, req.CreditorIBAN, req.CreditorName, req.RemittanceInfo, amount)
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

type createMandateRequest struct {
	UMR           string `json:"umr" validate:"required"`
	DebtorIBAN    string `json:"debtorIban" validate:"required"`
	CreditorIBAN  string `json:"creditorIban" validate:"required"`
	CreditorID    string `json:"creditorId" validate:"required"`
	Type          string `json:"type" validate:"required,oneof=SDD_CORE SDD_B2B"`
	SignatureDate string `json:"signatureDate" validate:"required"`
	Currency      string `json:"currency" validate:"required,len=3"`
	MaxAmount     string `json:"maxAmount"`
}

func (h *Handler) createMandate(c *fiber.Ctx) error {
	var req createMandateRequest
	if err := httpserver.ParseBody(c, &req); err != nil {
		return httpserver.WithError(c, err)
	}

	signed, err := time.Parse("2006-01-02", req.SignatureDate)
	if err != nil {
		return httpserver.WithError(c, apperr.New(apperr.KindValidation, "SepaMandate",
			"INVALID_SIGNATURE_DATE", "Invalid Signature Date", "signatureDate must be YYYY-MM-DD"))
	}

	var maxAmount *money.Amount

	if req.MaxAmount != "" {
		amt, err := money.New(req.Currency, req.MaxAmount)
		if err != nil {
			return httpserver.WithError(c, err)
		}

		maxAmount = &amt
	}

	m, err := h.Svc.CreateMandate(c.UserContext(), req.UMR, req.DebtorIBAN, req.CreditorIBAN, req.CreditorID,
		sepa.MandateType(req.Type), signed, req.Currency, maxAmount)
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.Created(c, m)
}

func (h *Handler) getMandate(c *fiber.Ctx) error {
	m, err := h.Svc.GetMandate(c.UserContext(), c.Params("umr"))
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.OK(c, m)
}

func (h *Handler) mandateAction(apply func(ctx context.Context, umr string) (*sepa.Mandate, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		m, err := apply(c.UserContext(), c.Params("umr"))
		if err != nil {
			return httpserver.WithError(c, err)
		}

		return httpserver.OK(c, m)
	}
}

type recordCollectionRequest struct {
	Amount   string `json:"amount" validate:"required"`
	Currency string `json:"currency" validate:"required,len=3"`
	Success  bool   `json:"success"`
}

func (h *Handler) recordCollection(c *fiber.Ctx) error {
	var req recordCollectionRequest
	if err := httpserver.ParseBody(c, &req); err != nil {
		return httpserver.WithError(c, err)
	}

	amount, err := money.New(req.Currency, req.Amount)
	if err != nil {
		return httpserver.WithError(c, err)
	}

	m, err := h.Svc.RecordCollection(c.UserContext(), c.Params("umr"), amount, req.Success)
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.OK(c, m)
}

type createBatchRequest struct {
	Type       string   `json:"type" validate:"required,oneof=SCT SCT_INST SDD_CORE SDD_B2B"`
	References []string `json:"references" validate:"required,min=1"`
}

func (h *Handler) createBatch(c *fiber.Ctx) error {
	var req createBatchRequest
	if err := httpserver.ParseBody(c, &req); err != nil {
		return httpserver.WithError(c, err)
	}

	b, err := h.Svc.CreateBatch(c.UserContext(), sepa.BatchType(req.Type), req.References)
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.Created(c, b)
}

func (h *Handler) getBatch(c *fiber.Ctx) error {
	b, err := h.Svc.GetBatch(c.UserContext(), c.Params("messageId"))
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.OK(c, b)
}

func (h *Handler) batchAction(apply func(ctx context.Context, messageID string) (*sepa.Batch, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		b, err := apply(c.UserContext(), c.Params("messageId"))
		if err != nil {
			return httpserver.WithError(c, err)
		}

		return httpserver.OK(c, b)
	}
}

type recordBatchResultRequest struct {
	Success bool `json:"success"`
}

func (h *Handler) recordBatchResult(c *fiber.Ctx) error {
	var req recordBatchResultRequest
	if err := httpserver.ParseBody(c, &req); err != nil {
		return httpserver.WithError(c, err)
	}

	b, err := h.Svc.RecordBatchResult(c.UserContext(), c.Params("messageId"), req.Success)
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.OK(c, b)
}

type initiateReturnRequest struct {
	OriginalReference string `json:"originalReference" validate:"required"`
	ReasonCode        string `json:"reasonCode" validate:"required"`
}

func (h *Handler) initiateReturn(c *fiber.Ctx) error {
	var req initiateReturnRequest
	if err := httpserver.ParseBody(c, &req); err != nil {
		return httpserver.WithError(c, err)
	}

	r, err := h.Svc.InitiateReturn(c.UserContext(), req.OriginalReference, sepa.ReasonCode(req.ReasonCode))
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.Created(c, r)
}

func (h *Handler) getReturn(c *fiber.Ctx) error {
	r, err := h.Svc.GetReturn(c.UserContext(), c.Params("id"))
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.OK(c, r)
}

func (h *Handler) returnAction(apply func(ctx context.Context, id string) (*sepa.Return, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := apply(c.UserContext(), c.Params("id"))
		if err != nil {
			return httpserver.WithError(c, err)
		}

		return httpserver.OK(c, r)
	}
}
