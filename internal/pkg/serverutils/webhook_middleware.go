package serverutils

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// SecretTokenHeader carries the secret the Bot API echoes on every webhook call.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookSecretMiddleware accepts a request only when both the :secret path
// parameter and the secret token header match secret.
func WebhookSecretMiddleware(secret string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if secret == "" {
			return ctx.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Webhook disabled"})
		}
		if !equal(ctx.Params("secret"), secret) || !equal(ctx.Get(SecretTokenHeader), secret) {
			return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid secret"})
		}
		return ctx.Next()
	}
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
