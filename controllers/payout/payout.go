package payout

import (
	"procur/helpers"
	"procur/ledger"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	svc *ledger.PayoutService
}

func NewHandler(svc *ledger.PayoutService) *Handler {
	return &Handler{svc: svc}
}

type CreateBatchRequest struct {
	MinAmountCents int64  `json:"min_amount_cents"`
	Notes          string `json:"notes"`
}

func (h *Handler) CreateBatch(c *fiber.Ctx) error {
	var req CreateBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, fiber.StatusBadRequest, "INVALID_JSON")
	}

	summary, err := h.svc.CreateBatch(req.MinAmountCents, req.Notes)
	if err != nil {
		return helpers.JSONLedgerError(c, err)
	}
	return helpers.JSONSuccess(c, "Payout batch created", summary)
}

func (h *Handler) ListBatches(c *fiber.Ctx) error {
	batches, total, err := h.svc.ListBatches(ledger.ListFilter{
		Status: c.Query("status"),
		Limit:  c.QueryInt("limit"),
		Offset: c.QueryInt("offset"),
	})
	if err != nil {
		return helpers.JSONLedgerError(c, err)
	}
	return helpers.JSONSuccess(c, "Payout batches", fiber.Map{
		"batches": batches,
		"total":   total,
	})
}

func (h *Handler) ExportCSV(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return helpers.JSONError(c, fiber.StatusBadRequest, "INVALID_BATCH_ID")
	}

	out, err := h.svc.ExportBatchCSV(uint(id))
	if err != nil {
		return helpers.JSONLedgerError(c, err)
	}

	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", `attachment; filename="payout_batch.csv"`)
	return c.Send(out)
}

type MarkPaidRequest struct {
	Notes string `json:"notes"`
}

func (h *Handler) MarkPaid(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return helpers.JSONError(c, fiber.StatusBadRequest, "INVALID_BATCH_ID")
	}

	var req MarkPaidRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, fiber.StatusBadRequest, "INVALID_JSON")
	}

	summary, err := h.svc.MarkBatchPaid(uint(id), req.Notes)
	if err != nil {
		return helpers.JSONLedgerError(c, err)
	}
	return helpers.JSONSuccess(c, "Payout batch marked paid", summary)
}

type CreditRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Credit is the upstream order-settlement hook crediting a seller's
// available balance.
func (h *Handler) Credit(c *fiber.Ctx) error {
	id, err := c.ParamsInt("sellerOrgId")
	if err != nil || id <= 0 {
		return helpers.JSONError(c, fiber.StatusBadRequest, "INVALID_SELLER_ORG_ID")
	}

	var req CreditRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, fiber.StatusBadRequest, "INVALID_JSON")
	}

	bal, err := h.svc.CreditSeller(uint(id), req.Amount, req.Currency)
	if err != nil {
		return helpers.JSONLedgerError(c, err)
	}
	return helpers.JSONSuccess(c, "Seller balance credited", bal)
}
