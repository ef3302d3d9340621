package middlewares

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"os"

	"github.com/gofiber/fiber/v2"
)

// OperatorAuth verifies the HMAC signature on operator requests. The
// signature is hex(HMAC-SHA256(body, OPERATOR_API_SECRET)) carried in the
// X-Signature header.
func OperatorAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		secret := os.Getenv("OPERATOR_API_SECRET")
		if secret == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "OPERATOR_NOT_CONFIGURED",
			})
		}

		h := hmac.New(sha256.New, []byte(secret))
		h.Write(c.Body())
		expected := hex.EncodeToString(h.Sum(nil))

		if !hmac.Equal([]byte(c.Get("X-Signature")), []byte(expected)) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "INVALID_SIGNATURE",
			})
		}

		return c.Next()
	}
}
