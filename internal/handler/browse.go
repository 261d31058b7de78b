package handler

import (
	"context"       // request-scoped timeouts for journal queries
	"database/sql"  // sentinel comparison for journal misses
	"encoding/json" // raw payload passthrough for journal rows
	"net/http"      // HTTP status codes
	"strconv"      // query parameter parsing
	"time"         // timeouts and RFC3339 rendering

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/ticket-registry/internal/model"
	"github.com/iliyamo/ticket-registry/internal/queue"
	"github.com/iliyamo/ticket-registry/internal/registry"
	"github.com/iliyamo/ticket-registry/internal/repository"
)

// BrowseHandler serves the read-only surface: ticket lookups, ownership and
// expiry probes, metadata resolution, the live event feed and the durable
// journal.  None of these routes require authentication.
type BrowseHandler struct {
	Reg     *registry.Registry
	Journal *repository.EventJournal // may be nil when MySQL is not configured
}

func NewBrowseHandler(reg *registry.Registry, journal *repository.EventJournal) *BrowseHandler {
	if reg == nil {
		panic("nil registry passed to NewBrowseHandler")
	}
	return &BrowseHandler{Reg: reg, Journal: journal}
}

// ticketView is the JSON shape shared by every route that returns a ticket.
type ticketView struct {
	ID              uint64 `json:"id"`
	Owner           string `json:"owner"`
	ProductCode     string `json:"product_code"`
	Price           uint64 `json:"price"`
	Status          string `json:"status"`
	CenterCode      string `json:"center_code"`
	LimitDate       string `json:"limit_date"`
	ReservationDate string `json:"reservation_date,omitempty"`
	SpecificURI     string `json:"specific_uri,omitempty"`
	CreatedAt       string `json:"created_at"`
}

func ticketJSON(t model.Ticket) ticketView {
	v := ticketView{
		ID:          t.ID,
		Owner:       string(t.Owner),
		ProductCode: t.ProductCode,
		Price:       t.Price,
		Status:      string(t.Status),
		CenterCode:  t.CenterCode,
		LimitDate:   t.LimitDate.UTC().Format(time.RFC3339),
		SpecificURI: t.SpecificURI,
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
	}
	if !t.ReservationDate.IsZero() {
		v.ReservationDate = t.ReservationDate.UTC().Format(time.RFC3339)
	}
	return v
}

// GetTicket handles GET /v1/tickets/:id.  The returned status reflects an
// elapsed limit date even before any mutation has persisted the flip.
func (h *BrowseHandler) GetTicket(c echo.Context) error {
	id, err := ticketID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	t, err := h.Reg.GetTicket(id)
	if err != nil {
		return writeRegistryError(c, err)
	}
	return c.JSON(http.StatusOK, ticketJSON(t))
}

// Owner handles GET /v1/tickets/:id/owner.
func (h *BrowseHandler) Owner(c echo.Context) error {
	id, err := ticketID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	owner, err := h.Reg.OwnerOf(id)
	if err != nil {
		return writeRegistryError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ticket_id": id, "owner": string(owner)})
}

// Expired handles GET /v1/tickets/:id/expired.
func (h *BrowseHandler) Expired(c echo.Context) error {
	id, err := ticketID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	expired, err := h.Reg.IsExpired(id)
	if err != nil {
		return writeRegistryError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ticket_id": id, "expired": expired})
}

// URI handles GET /v1/tickets/:id/uri, resolving the per-ticket override
// before falling back to the product default.
func (h *BrowseHandler) URI(c echo.Context) error {
	id, err := ticketID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	uri, err := h.Reg.ResolveURI(id)
	if err != nil {
		return writeRegistryError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ticket_id": id, "uri": uri})
}

// Count handles GET /v1/tickets/count.
func (h *BrowseHandler) Count(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"count": h.Reg.Count()})
}

// Admin handles GET /v1/admins/:identity, reporting the capability flags
// the registry holds for an identity.
func (h *BrowseHandler) Admin(c echo.Context) error {
	identity := model.Identity(c.Param("identity"))
	return c.JSON(http.StatusOK, echo.Map{
		"identity":    string(identity),
		"admin":       h.Reg.IsAdmin(identity),
		"super_admin": h.Reg.IsSuperAdmin(identity),
	})
}

// Events handles GET /v1/events?since=N, streaming the in-memory event log
// tail.  since is exclusive; omit it for the full log.  The JSON shape is
// the same one published to the broker.
func (h *BrowseHandler) Events(c echo.Context) error {
	var since uint64
	if s := c.QueryParam("since"); s != "" {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "since must be a sequence number"})
		}
		since = n
	}
	evs := h.Reg.Events(since)
	out := make([]queue.TicketEventMessage, 0, len(evs))
	for _, ev := range evs {
		out = append(out, queue.FromRegistryEvent(ev))
	}
	return c.JSON(http.StatusOK, out)
}

// History handles GET /v1/history?since=N&limit=M, reading the durable
// MySQL journal instead of the in-memory log.  It survives restarts, at
// the price of only covering events the forwarder managed to persist.
func (h *BrowseHandler) History(c echo.Context) error {
	if h.Journal == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "journal not configured"})
	}
	var since uint64
	if s := c.QueryParam("since"); s != "" {
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "since must be a sequence number"})
		}
		since = n
	}
	limit := 100
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 1000 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be 1..1000"})
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	entries, err := h.Journal.ListSince(ctx, since, limit)
	if err != nil && err != sql.ErrNoRows {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "journal query failed"})
	}
	out := make([]historyView, 0, len(entries))
	for _, e := range entries {
		v := historyView{
			EntryID:   e.EntryID,
			Seq:       e.Seq,
			Kind:      e.Kind,
			Payload:   json.RawMessage(e.Payload),
			EmittedAt: e.EmittedAt.UTC().Format(time.RFC3339),
		}
		if e.TicketID.Valid {
			id := uint64(e.TicketID.Int64)
			v.TicketID = &id
		}
		out = append(out, v)
	}
	return c.JSON(http.StatusOK, out)
}

// historyView is the JSON shape of one journal row.
type historyView struct {
	EntryID   string          `json:"entry_id"`
	Seq       uint64          `json:"seq"`
	Kind      string          `json:"kind"`
	TicketID  *uint64         `json:"ticket_id,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	EmittedAt string          `json:"emitted_at"`
}
