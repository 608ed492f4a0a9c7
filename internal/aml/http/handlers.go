// Package http is the AML fiber adapter: transaction screening plus the
// case and four-eyes report workflows, gated by the COMPLIANCE/MANAGER+
// roles.
package http

import (
	"bytes"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/meridianledger/corebank/internal/aml"
	"github.com/meridianledger/corebank/internal/identity"
	"github.com/meridianledger/corebank/internal/platform/httpserver"
	"github.com/meridianledger/corebank/internal/platform/money"
)

// Handler wires aml.Service onto a fiber.Router.
type Handler struct {
	Svc *aml.Service
}

// Register mounts the AML routes. Case review actions require COMPLIANCE;
// report approval requires MANAGER+.
func (h *Handler) Register(router fiber.Router) {
	router.Post("/aml/transactions/screen", httpserver.RequireMinRole(identity.RoleOperator), h.evaluateTransaction)
	router.Post("/aml/subjects/screen", httpserver.RequireRole(identity.RoleCompliance), h.screenSubject)
	router.Post("/aml/sanctions/import", httpserver.RequireRole(identity.RoleCompliance), h.importSanctions)

	cases := router.Group("/aml/cases", httpserver.RequireRole(identity.RoleCompliance))
	cases.Post("/", h.openCase)
	cases.Post("/:id/investigate", h.beginInvestigation)
	cases.Post("/:id/submit-for-review", h.submitForReview)
	cases.Post("/:id/escalate", h.escalateCase)
	cases.Post("/:id/pending-closure", h.pendingClosure)
	cases.Post("/:id/close", h.closeCase)
	cases.Post("/:id/reopen", h.reopenCase)
	cases.Post("/:id/notes", h.addCaseNote)
	cases.Get("/:id/notes", h.listCaseNotes)

	reports := router.Group("/aml/reports")
	reports.Post("/", httpserver.RequireRole(identity.RoleCompliance), h.prepareReport)
	reports.Post("/:id/submit", httpserver.RequireRole(identity.RoleCompliance), h.submitReport)
	reports.Post("/:id/review", httpserver.RequireRole(identity.RoleCompliance), h.reviewReport)
	reports.Post("/:id/approve", httpserver.RequireMinRole(identity.RoleManager), h.approveReport)
	reports.Post("/:id/file", httpserver.RequireMinRole(identity.RoleManager), h.fileReport)
	reports.Post("/:id/acknowledge", httpserver.RequireMinRole(identity.RoleManager), h.acknowledgeReport)
}

type priorTransaction struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	At       string `json:"at"`
}

type evaluateTransactionRequest struct {
	AccountNumber     string             `json:"accountNumber" validate:"required"`
	TransactionID     string             `json:"transactionId" validate:"required"`
	Amount            string             `json:"amount" validate:"required"`
	Currency          string             `json:"currency" validate:"required,len=3"`
	TransactionTime   string             `json:"transactionTime"`
	PriorTransactions []priorTransaction `json:"priorTransactions"`
}

func (h *Handler) evaluateTransaction(c *fiber.Ctx) error {
	var req evaluateTransactionRequest
	if err := httpserver.ParseBody(c, &req); err != nil {
		return httpserver.WithError(c, err)
	}

	amount, err := money.New(req.Currency, req.Amount)
	if err != nil {
		return httpserver.WithError(c, err)
	}

	txnTime := parseTimeOrNow(req.TransactionTime)

	priors := make([]aml.PriorTransaction, 0, len(req.PriorTransactions))

	for _, p := range req.PriorTransactions {
		pAmount, err := money.New(p.Currency, p.Amount)
		if err != nil {
			return httpserver.WithError(c, err)
		}

		priors = append(priors, aml.PriorTransaction{Amount: pAmount, At: parseTimeOrNow(p.At)})
	}

	txn := aml.MonitoredTransaction{
		AccountNumber:     req.AccountNumber,
		Amount:            amount,
		TransactionTime:   txnTime,
		PriorTransactions: priors,
	}

	alert, err := h.Svc.EvaluateTransaction(c.UserContext(), req.AccountNumber, req.TransactionID, txn)
	if err != nil {
		return httpserver.WithError(c, err)
	}

	if alert == nil {
		return httpserver.OK(c, fiber.Map{"flagged": false})
	}

	return httpserver.Created(c, alert)
}

type screenSubjectRequest struct {
	Name       string `json:"name"`
	NationalID string `json:"nationalId"`
	PassportNo string `json:"passportNo"`
}

func (h *Handler) screenSubject(c *fiber.Ctx) error {
	var req screenSubjectRequest
	if err := httpserver.ParseBody(c, &req); err != nil {
		return httpserver.WithError(c, err)
	}

	matches, err := h.Svc.ScreenSubject(c.UserContext(), req.Name, req.NationalID, req.PassportNo)
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.OK(c, matches)
}

func (h *Handler) importSanctions(c *fiber.Ctx) error {
	result, err := h.Svc.ImportSanctionList(c.UserContext(), bytes.NewReader(c.Body()))
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.OK(c, result)
}

type openCaseRequest struct {
	AccountNumber string   `json:"accountNumber" validate:"required"`
	AlertIDs      []string `json:"alertIds" validate:"required,min=1"`
}

func (h *Handler) openCase(c *fiber.Ctx) error {
	var req openCaseRequest
	if err := httpserver.ParseBody(c, &req); err != nil {
		return httpserver.WithError(c, err)
	}

	cs, err := h.Svc.OpenCase(c.UserContext(), req.AccountNumber, req.AlertIDs)
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.Created(c, cs)
}

func (h *Handler) beginInvestigation(c *fiber.Ctx) error {
	cs, err := h.Svc.BeginInvestigation(c.UserContext(), c.Params("id"))
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.OK(c, cs)
}

func (h *Handler) submitForReview(c *fiber.Ctx) error {
	cs, err := h.Svc.SubmitCaseForReview(c.UserContext(), c.Params("id"))
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.OK(c, cs)
}

type escalateRequest struct {
	Actor string `json:"actor" validate:"required"`
}

func (h *Handler) escalateCase(c *fiber.Ctx) error {
	var req escalateRequest
	if err := httpserver.ParseBody(c, &req); err != nil {
		return httpserver.WithError(c, err)
	}

	cs, err := h.Svc.EscalateCase(c.UserContext(), c.Params("id"), req.Actor)
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.OK(c, cs)
}

type closeCaseRequest struct {
	Resolution string `json:"resolution" validate:"required"`
}

func (h *Handler) closeCase(c *fiber.Ctx) error {
	var req closeCaseRequest
	if err := httpserver.ParseBody(c, &req); err != nil {
		return httpserver.WithError(c, err)
	}

	cs, err := h.Svc.CloseCase(c.UserContext(), c.Params("id"), req.Resolution)
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.OK(c, cs)
}

func (h *Handler) pendingClosure(c *fiber.Ctx) error {
	cs, err := h.Svc.MoveCaseToPendingClosure(c.UserContext(), c.Params("id"))
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.OK(c, cs)
}

func (h *Handler) reopenCase(c *fiber.Ctx) error {
	cs, err := h.Svc.ReopenCase(c.UserContext(), c.Params("id"))
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.OK(c, cs)
}

type addCaseNoteRequest struct {
	Author string `json:"author" validate:"required"`
	Text   string `json:"text" validate:"required"`
}

func (h *Handler) addCaseNote(c *fiber.Ctx) error {
	var req addCaseNoteRequest
	if err := httpserver.ParseBody(c, &req); err != nil {
		return httpserver.WithError(c, err)
	}

	if err := h.Svc.AddCaseNote(c.UserContext(), c.Params("id"), req.Author, req.Text); err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.Created(c, fiber.Map{"caseId": c.Params("id")})
}

func (h *Handler) listCaseNotes(c *fiber.Ctx) error {
	notes, err := h.Svc.ListCaseNotes(c.UserContext(), c.Params("id"))
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.OK(c, notes)
}

type prepareReportRequest struct {
	CaseID     string `json:"caseId" validate:"required"`
	PreparedBy string `json:"preparedBy" validate:"required"`
	Narrative  string `json:"narrative" validate:"required"`
}

func (h *Handler) prepareReport(c *fiber.Ctx) error {
	var req prepareReportRequest
	if err := httpserver.ParseBody(c, &req); err != nil {
		return httpserver.WithError(c, err)
	}

	r, err := h.Svc.PrepareReport(c.UserContext(), req.CaseID, req.PreparedBy, req.Narrative)
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.Created(c, r)
}

func (h *Handler) submitReport(c *fiber.Ctx) error {
	r, err := h.Svc.SubmitReportForReview(c.UserContext(), c.Params("id"))
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.OK(c, r)
}

type reviewReportRequest struct {
	ReviewedBy string `json:"reviewedBy" validate:"required"`
	Approve    bool   `json:"approve"`
}

func (h *Handler) reviewReport(c *fiber.Ctx) error {
	var req reviewReportRequest
	if err := httpserver.ParseBody(c, &req); err != nil {
		return httpserver.WithError(c, err)
	}

	r, err := h.Svc.ReviewReport(c.UserContext(), c.Params("id"), req.ReviewedBy, req.Approve)
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.OK(c, r)
}

type approveReportRequest struct {
	ApprovedBy string `json:"approvedBy" validate:"required"`
}

func (h *Handler) approveReport(c *fiber.Ctx) error {
	var req approveReportRequest
	if err := httpserver.ParseBody(c, &req); err != nil {
		return httpserver.WithError(c, err)
	}

	r, err := h.Svc.ApproveReport(c.UserContext(), c.Params("id"), req.ApprovedBy)
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.OK(c, r)
}

func (h *Handler) fileReport(c *fiber.Ctx) error {
	r, err := h.Svc.FileReport(c.UserContext(), c.Params("id"))
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.OK(c, r)
}

func (h *Handler) acknowledgeReport(c *fiber.Ctx) error {
	r, err := h.Svc.AcknowledgeReport(c.UserContext(), c.Params("id"))
	if err != nil {
		return httpserver.WithError(c, err)
	}

	return httpserver.OK(c, r)
}

func parseTimeOrNow(raw string) time.Time {
	if raw == "" {
		return time.Now().UTC()
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Now().UTC()
	}

	return t
}
