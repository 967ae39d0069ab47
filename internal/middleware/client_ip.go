package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/loom-academy/loom-go-api/internal/privacy"
)

// ClientAddress resolves the raw client network address from proxy headers,
// preferring X-Forwarded-For, then X-Real-IP. Without either it returns the
// "unknown" sentinel; the service sits behind a proxy in every deployment,
// so the socket address is the proxy, not the client.
func ClientAddress(c *fiber.Ctx) string {
	if forwarded := strings.TrimSpace(c.Get("X-Forwarded-For")); forwarded != "" {
		// The first hop is the original client.
		parts := strings.Split(forwarded, ",")
		if first := strings.TrimSpace(parts[0]); first != "" {
			return first
		}
	}

	if real := strings.TrimSpace(c.Get("X-Real-IP")); real != "" {
		return real
	}

	return privacy.UnknownAddress
}
