package handler

import (
	"errors"   // for errors.Is comparisons against registry sentinels
	"net/http" // HTTP status codes
	"strconv"  // parsing path parameters
	"time"     // parsing date fields

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/ticket-registry/internal/middleware"
	"github.com/iliyamo/ticket-registry/internal/model"
	"github.com/iliyamo/ticket-registry/internal/monitoring"
	"github.com/iliyamo/ticket-registry/internal/registry"
)

// caller returns the authenticated identity as the registry's identity type.
// JWTAuth plus RequireIdentity guarantee a non-empty value on protected
// routes; on public routes this yields model.NoIdentity.
func caller(c echo.Context) model.Identity {
	return model.Identity(middleware.CallerIdentity(c))
}

// ticketID parses the :id path parameter.
func ticketID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

// parseDate accepts RFC3339 timestamps in request bodies.
func parseDate(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// writeRegistryError maps the registry's error taxonomy onto HTTP statuses:
//
//	not authorized  -> 403
//	unknown ticket  -> 404
//	invalid state   -> 409
//	invalid input   -> 400
//	date rule       -> 400
//
// The response body carries a stable machine-readable class next to the
// human-readable message so clients can branch without string matching.
func writeRegistryError(c echo.Context, err error) error {
	var (
		status = http.StatusInternalServerError
		class  = "internal"
	)
	switch {
	case errors.Is(err, registry.ErrNotAuthorized):
		status, class = http.StatusForbidden, "not_authorized"
	case errors.Is(err, registry.ErrInvalidID):
		status, class = http.StatusNotFound, "invalid_id"
	case errors.Is(err, registry.ErrInvalidState):
		status, class = http.StatusConflict, "invalid_state"
	case errors.Is(err, registry.ErrDate):
		status, class = http.StatusBadRequest, "date_error"
	case errors.Is(err, registry.ErrInvalidInput):
		status, class = http.StatusBadRequest, "invalid_input"
	}
	monitoring.TrackRejection(class)
	return c.JSON(status, echo.Map{"error": class, "message": err.Error()})
}
