package middleware

// identity.go defines helper functions shared across middleware files. It
// provides extraction of the caller identity injected by JWTAuth and a
// guard middleware for routes that must not be reached anonymously.

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// CallerIdentity extracts the authenticated identity from the Echo context.
// It returns "" when no identity is present, which lets the registry reject
// the call as a null identity instead of guessing a default.
func CallerIdentity(c echo.Context) string {
	if v := c.Get("identity"); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// RequireIdentity aborts with 401 when JWTAuth did not leave a non-empty
// identity in the context.  It assumes JWTAuth ran earlier in the chain.
func RequireIdentity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if CallerIdentity(c) == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "identity required"})
			}
			return next(c)
		}
	}
}
