package clearing

import (
	"procur/helpers"
	"procur/ledger"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	svc *ledger.ClearingService
}

func NewHandler(svc *ledger.ClearingService) *Handler {
	return &Handler{svc: svc}
}

// Open creates both clearing legs for an inspection-approved order.
func (h *Handler) Open(c *fiber.Ctx) error {
	id, err := c.ParamsInt("orderId")
	if err != nil || id <= 0 {
		return helpers.JSONError(c, fiber.StatusBadRequest, "INVALID_ORDER_ID")
	}

	buyer, farmer, err := h.svc.OpenForOrder(uint(id))
	if err != nil {
		return helpers.JSONLedgerError(c, err)
	}
	return helpers.JSONSuccess(c, "Clearing transactions opened", fiber.Map{
		"buyer_settlement": buyer,
		"farmer_payout":    farmer,
	})
}

type CompleteBuyerRequest struct {
	BankReference string `json:"bank_reference"`
	ProofURL      string `json:"proof_url"`
}

func (h *Handler) CompleteBuyer(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return helpers.JSONError(c, fiber.StatusBadRequest, "INVALID_TRANSACTION_ID")
	}

	var req CompleteBuyerRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, fiber.StatusBadRequest, "INVALID_JSON")
	}

	txn, err := h.svc.CompleteBuyerSettlement(uint(id), req.BankReference, req.ProofURL)
	if err != nil {
		return helpers.JSONLedgerError(c, err)
	}
	return helpers.JSONSuccess(c, "Buyer settlement completed", txn)
}

type CompleteFarmerRequest struct {
	ProofURL string `json:"proof_url"`
}

func (h *Handler) CompleteFarmer(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return helpers.JSONError(c, fiber.StatusBadRequest, "INVALID_TRANSACTION_ID")
	}

	var req CompleteFarmerRequest
	if err := c.BodyParser(&req); err != nil {
		return helpers.JSONError(c, fiber.StatusBadRequest, "INVALID_JSON")
	}

	txn, err := h.svc.CompleteFarmerPayout(uint(id), req.ProofURL)
	if err != nil {
		return helpers.JSONLedgerError(c, err)
	}
	return helpers.JSONSuccess(c, "Farmer payout completed", txn)
}

func (h *Handler) ListBuyerSettlements(c *fiber.Ctx) error {
	rows, total, err := h.svc.ListBuyerSettlements(h.filter(c))
	if err != nil {
		return helpers.JSONLedgerError(c, err)
	}
	return helpers.JSONSuccess(c, "Buyer settlements", fiber.Map{
		"transactions": rows,
		"total":        total,
	})
}

func (h *Handler) ListFarmerPayouts(c *fiber.Ctx) error {
	rows, total, err := h.svc.ListFarmerPayouts(h.filter(c))
	if err != nil {
		return helpers.JSONLedgerError(c, err)
	}
	return helpers.JSONSuccess(c, "Farmer payouts", fiber.Map{
		"transactions": rows,
		"total":        total,
	})
}

func (h *Handler) filter(c *fiber.Ctx) ledger.ListFilter {
	return ledger.ListFilter{
		Status: c.Query("status"),
		Limit:  c.QueryInt("limit"),
		Offset: c.QueryInt("offset"),
	}
}
