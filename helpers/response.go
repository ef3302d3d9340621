package helpers

import (
	"procur/ledger"

	"github.com/gofiber/fiber/v2"
)

func JSONSuccess(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func JSONError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
		"data":    nil,
	})
}

// JSONLedgerError maps the ledger error taxonomy onto HTTP statuses:
// validation and conflicts are client errors, store failures are 5xx.
func JSONLedgerError(c *fiber.Ctx, err error) error {
	switch ledger.KindOf(err) {
	case ledger.KindValidation:
		return JSONError(c, fiber.StatusBadRequest, err.Error())
	case ledger.KindNotFound:
		return JSONError(c, fiber.StatusNotFound, err.Error())
	case ledger.KindStateConflict:
		return JSONError(c, fiber.StatusConflict, err.Error())
	case ledger.KindInsufficientBalance:
		return JSONError(c, fiber.StatusUnprocessableEntity, err.Error())
	default:
		return JSONError(c, fiber.StatusInternalServerError, "internal error")
	}
}
