package middleware

// identity.go bridges the external authentication service. Tokens are
// issued elsewhere; this middleware only verifies the HMAC signature and
// exposes the subject claim to handlers and to the rate limiter's key
// builder. Requests without a token pass through as "guest" because the
// booking surface is keyed by touristId in the body, not by session.

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Identity returns middleware that validates a Bearer token when one is
// present and stores its claims in the request context. A malformed or
// badly signed token is rejected with 401; a missing token is allowed.
func Identity(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return next(c)
			}
			raw := strings.TrimPrefix(auth, "Bearer ")
			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			if claims, ok := tok.Claims.(jwt.MapClaims); ok {
				c.Set("subject", claims["sub"])
			}
			return next(c)
		}
	}
}

// subjectID extracts the authenticated subject from context, or "guest"
// when the request carried no token.
func subjectID(c echo.Context) string {
	if v, ok := c.Get("subject").(string); ok && v != "" {
		return v
	}
	return "guest"
}
