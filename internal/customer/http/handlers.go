// Package http is the registry's fiber adapter: customer onboarding, KYC document
// upload/verification, and status transitions.
package http

import (
	"encoding/base64"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/meridianledger/corebank/internal/customer"
	"github.com/meridianledger/corebank/internal/identity"
	"github.com/meridianledger/corebank/internal/platform/httpserver"
)

// Handler wires customer.Service onto a fiber.Router.
type Handler struct {
	Svc *customer.Service
}

// Register mounts the customer routes. Suspend/close/reinstate are identity-risk
// decisions gated ADMIN, same tier as ledger account freeze/close.
func (h *Handler) Register(router fiber.Router) {
	customers := router.Group("/customers")

	customers.Post("/", h.openCustomer)
	customers.Post("/:id/documents", h.uploadDocument)
	customers.Post("/:id/verify", httpserver.RequireMinRole(identity.RoleOperator), h.verifyCustomer)
	customers.Post("/:id/approve", httpserver.RequireMinRole(identity.RoleOperator), h.approveCustomer)
	customers.Post("/:id/suspend", httpserver.RequireRole(identity.RoleAdmin), h.suspendCustomer)
	customers.Post("/:id/reinstate", httpserver.RequireRole(identity.RoleAdmin), h.reinstateCustomer)
	customers.Post("/:id/close", httpserver.RequireRole(identity.RoleAdmin), h.closeCustomer)
	customers.Post("/:id/risk-attributes", httpserver.RequireRole(identity.RoleCompliance), h.setRiskAttributes)

	documents := router.Group("/customers/documents")
	documents.Post("/:docId/verify", httpserver.RequireMinRole(identity.RoleOperator), h.verifyDocument)
	documents.Post("/:docId/reject", httpserver.RequireMinRole(identity.RoleOperator), h.rejectDocument)
	documents.Post("/:docId/scan", h.attachScan)
	documents.Get("/:docId/scan", httpserver.RequireMinRole(identity.RoleOperator), h.getScan)
}

type openCustomerRequest struct {
	FullName    string `json:"fullName" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	CountryCode string `json:"countryCode" validate:"required,len=2"`
}

func (h *Handler) openCustomer(c *fiber.Ctx) error {
	var req openCustomerRequest
	if err := httpserver.ParseBody(c, &req); err != nil {
		return httpserver.WithError(c, err)
	}

	cust, err := h.Svc.OpenCustomer(c.UserContext(), req.FullName, req.Email, req.CountryCode)
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.Created(c, cust)
}

type uploadDocumentRequest struct {
	Type      string `json:"type" validate:"required"`
	ExpiresAt string `json:"expiresAt" validate:"required"`
}

func (h *Handler) uploadDocument(c *fiber.Ctx) error {
	var req uploadDocumentRequest
	if err := httpserver.ParseBody(c, &req); err != nil {
		return httpserver.WithError(c, err)
	}

	expiresAt, err := time.Parse(time.RFC3339, req.ExpiresAt)
	if err != nil {
		return httpserver.WithError(c, customer.ErrDocumentExpired(""))
	}

	doc, err := h.Svc.UploadDocument(c.UserContext(), c.Params("id"), customer.DocumentType(req.Type), expiresAt)
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.Created(c, doc)
}

func (h *Handler) verifyDocument(c *fiber.Ctx) error {
	doc, err := h.Svc.VerifyDocument(c.UserContext(), c.Params("docId"))
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.OK(c, doc)
}

type rejectDocumentRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (h *Handler) rejectDocument(c *fiber.Ctx) error {
	var req rejectDocumentRequest
	if err := httpserver.ParseBody(c, &req); err != nil {
		return httpserver.WithError(c, err)
	}

	doc, err := h.Svc.RejectDocument(c.UserContext(), c.Params("docId"), req.Reason)
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.OK(c, doc)
}

type attachScanRequest struct {
	Filename string `json:"filename" validate:"required"`
	MimeType string `json:"mimeType" validate:"required"`
	Data     string `json:"data" validate:"required,base64"`
}

func (h *Handler) attachScan(c *fiber.Ctx) error {
	var req attachScanRequest
	if err := httpserver.ParseBody(c, &req); err != nil {
		return httpserver.WithError(c, err)
	}

	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		return httpserver.WithError(c, customer.ErrDocumentNotFound(c.Params("docId")))
	}

	if err := h.Svc.AttachScan(c.UserContext(), c.Params("docId"), req.Filename, req.MimeType, data); err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.Created(c, fiber.Map{"documentId": c.Params("docId")})
}

func (h *Handler) getScan(c *fiber.Ctx) error {
	scan, err := h.Svc.GetScan(c.UserContext(), c.Params("docId"))
	if err != nil {
		return httpserver.WithError(c, err)
	}

	if scan == nil {
		return httpserver.OK(c, nil)
	}

	return httpserver.OK(c, fiber.Map{
		"documentId": scan.DocumentID,
		"filename":   scan.Filename,
		"mimeType":   scan.MimeType,
		"data":       base64.StdEncoding.EncodeToString(scan.Data),
		"capturedAt": scan.CapturedAt,
	})
}

func (h *Handler) verifyCustomer(c *fiber.Ctx) error {
	cust, err := h.Svc.VerifyCustomer(c.UserContext(), c.Params("id"))
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.OK(c, cust)
}

func (h *Handler) approveCustomer(c *fiber.Ctx) error {
	cust, err := h.Svc.ApproveCustomer(c.UserContext(), c.Params("id"))
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.OK(c, cust)
}

func (h *Handler) suspendCustomer(c *fiber.Ctx) error {
	cust, err := h.Svc.SuspendCustomer(c.UserContext(), c.Params("id"))
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.OK(c, cust)
}

func (h *Handler) reinstateCustomer(c *fiber.Ctx) error {
	cust, err := h.Svc.ReinstateCustomer(c.UserContext(), c.Params("id"))
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.OK(c, cust)
}

func (h *Handler) closeCustomer(c *fiber.Ctx) error {
	cust, err := h.Svc.CloseCustomer(c.UserContext(), c.Params("id"))
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.OK(c, cust)
}

type setRiskAttributesRequest struct {
	PEP              bool `json:"pep"`
	HighRiskBusiness bool `json:"highRiskBusiness"`
}

func (h *Handler) setRiskAttributes(c *fiber.Ctx) error {
	var req setRiskAttributesRequest
	if err := httpserver.ParseBody(c, &req); err != nil {
		return httpserver.WithError(c, err)
	}

	cust, err := h.Svc.SetRiskAttributes(c.UserContext(), c.Params("id"), req.PEP, req.HighRiskBusiness)
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.OK(c, cust)
}
