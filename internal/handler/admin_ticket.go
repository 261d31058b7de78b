package handler

import (
	"net/http" // HTTP status codes
	"strings"  // trimming request fields
	"time"     // zero time for optional reservation dates

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/ticket-registry/internal/model"
	"github.com/iliyamo/ticket-registry/internal/registry"
)

// AdminHandler exposes the administrative side of the lifecycle: minting,
// the lock/unlock/use cycle driven by sport centers, forced expiration,
// date corrections, metadata and capability management.  Authorization is
// NOT checked here: every call is forwarded with the caller identity and
// the registry decides, so the HTTP layer can never drift from the
// capability rules.
type AdminHandler struct {
	Reg *registry.Registry
}

func NewAdminHandler(reg *registry.Registry) *AdminHandler {
	if reg == nil {
		panic("nil registry passed to NewAdminHandler")
	}
	return &AdminHandler{Reg: reg}
}

// ----- DTOs -----

type createTicketReq struct {
	Owner       string `json:"owner"`
	ProductCode string `json:"product_code"`
	Price       uint64 `json:"price"`
}
type lockReq struct {
	CenterCode      string `json:"center_code"`
	ReservationDate string `json:"reservation_date,omitempty"` // RFC3339, optional
}
type unlockReq struct {
	CenterCode string `json:"center_code"`
}
type dateReq struct {
	Date string `json:"date"` // RFC3339
}
type uriReq struct {
	URI string `json:"uri"` // empty clears
}
type adminReq struct {
	Identity string `json:"identity"`
}

// CreateTicket handles POST /v1/tickets.  It mints a new ticket for the
// given owner and returns the full record, including the assigned id and
// the computed limit date.
func (h *AdminHandler) CreateTicket(c echo.Context) error {
	var req createTicketReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	t, err := h.Reg.CreateTicket(caller(c), model.Identity(strings.TrimSpace(req.Owner)), strings.TrimSpace(req.ProductCode), req.Price)
	if err != nil {
		return writeRegistryError(c, err)
	}
	return c.JSON(http.StatusCreated, ticketJSON(t))
}

// Lock handles POST /v1/tickets/:id/lock.  A sport center locks an
// available ticket under its center code, optionally booking a reservation
// date inside the validity window.
func (h *AdminHandler) Lock(c echo.Context) error {
	id, err := ticketID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	var req lockReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	var reservation time.Time // zero = no reservation booked
	if s := strings.TrimSpace(req.ReservationDate); s != "" {
		reservation, err = parseDate(s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation_date must be RFC3339"})
		}
	}
	if err := h.Reg.Lock(caller(c), id, strings.TrimSpace(req.CenterCode), reservation); err != nil {
		return writeRegistryError(c, err)
	}
	return h.respondTicket(c, id)
}

// Unlock handles POST /v1/tickets/:id/unlock.  Only the center holding the
// lock may release it; the center code in the body must match.
func (h *AdminHandler) Unlock(c echo.Context) error {
	id, err := ticketID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	var req unlockReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.Reg.Unlock(caller(c), id, strings.TrimSpace(req.CenterCode)); err != nil {
		return writeRegistryError(c, err)
	}
	return h.respondTicket(c, id)
}

// Use handles POST /v1/tickets/:id/use.  The locked ticket is consumed and
// becomes a collector item.
func (h *AdminHandler) Use(c echo.Context) error {
	id, err := ticketID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	if err := h.Reg.Use(caller(c), id); err != nil {
		return writeRegistryError(c, err)
	}
	return h.respondTicket(c, id)
}

// Expire handles POST /v1/tickets/:id/expire, forcing expiration ahead of
// the limit date.
func (h *AdminHandler) Expire(c echo.Context) error {
	id, err := ticketID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	if err := h.Reg.MarkExpired(caller(c), id); err != nil {
		return writeRegistryError(c, err)
	}
	return h.respondTicket(c, id)
}

// SetLimitDate handles PUT /v1/tickets/:id/limit-date.
func (h *AdminHandler) SetLimitDate(c echo.Context) error {
	id, err := ticketID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	var req dateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	date, err := parseDate(strings.TrimSpace(req.Date))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be RFC3339"})
	}
	if err := h.Reg.SetLimitDate(caller(c), id, date); err != nil {
		return writeRegistryError(c, err)
	}
	return h.respondTicket(c, id)
}

// SetReservationDate handles PUT /v1/tickets/:id/reservation-date.  Only
// meaningful on locked tickets.
func (h *AdminHandler) SetReservationDate(c echo.Context) error {
	id, err := ticketID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	var req dateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	date, err := parseDate(strings.TrimSpace(req.Date))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be RFC3339"})
	}
	if err := h.Reg.SetReservationDate(caller(c), id, date); err != nil {
		return writeRegistryError(c, err)
	}
	return h.respondTicket(c, id)
}

// SetTicketURI handles PUT /v1/tickets/:id/uri.  An empty uri clears the
// per-ticket override so resolution falls back to the product default.
func (h *AdminHandler) SetTicketURI(c echo.Context) error {
	id, err := ticketID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	var req uriReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.Reg.SetTicketURI(caller(c), id, strings.TrimSpace(req.URI)); err != nil {
		return writeRegistryError(c, err)
	}
	return h.respondTicket(c, id)
}

// SetProductURI handles PUT /v1/products/:code/uri, updating the default
// metadata location shared by all tickets of a product.
func (h *AdminHandler) SetProductURI(c echo.Context) error {
	code := strings.TrimSpace(c.Param("code"))
	var req uriReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	uri := strings.TrimSpace(req.URI)
	if err := h.Reg.SetProductURI(caller(c), code, uri); err != nil {
		return writeRegistryError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"product_code": code, "uri": uri})
}

// GrantAdmin handles POST /v1/admins.  Super-admin only.
func (h *AdminHandler) GrantAdmin(c echo.Context) error {
	var req adminReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	identity := model.Identity(strings.TrimSpace(req.Identity))
	if err := h.Reg.GrantAdmin(caller(c), identity); err != nil {
		return writeRegistryError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"identity": string(identity), "admin": true})
}

// RevokeAdmin handles DELETE /v1/admins/:identity.
func (h *AdminHandler) RevokeAdmin(c echo.Context) error {
	identity := model.Identity(strings.TrimSpace(c.Param("identity")))
	if err := h.Reg.RevokeAdmin(caller(c), identity); err != nil {
		return writeRegistryError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"identity": string(identity), "admin": false})
}

// respondTicket returns the post-mutation view of a ticket.
func (h *AdminHandler) respondTicket(c echo.Context, id uint64) error {
	t, err := h.Reg.GetTicket(id)
	if err != nil {
		return writeRegistryError(c, err)
	}
	return c.JSON(http.StatusOK, ticketJSON(t))
}
