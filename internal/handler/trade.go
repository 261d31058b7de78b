package handler

import (
	"net/http" // HTTP status codes
	"strings"  // trimming request fields

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/ticket-registry/internal/model"
	"github.com/iliyamo/ticket-registry/internal/registry"
)

// TradeHandler exposes the owner-driven side of the lifecycle: putting a
// ticket on sale, buying, direct transfer, and delegation.  As with the
// admin handler, authorization lives entirely in the registry.
type TradeHandler struct {
	Reg *registry.Registry
}

func NewTradeHandler(reg *registry.Registry) *TradeHandler {
	if reg == nil {
		panic("nil registry passed to NewTradeHandler")
	}
	return &TradeHandler{Reg: reg}
}

// ----- DTOs -----

type transferReq struct {
	To string `json:"to"`
}
type approveReq struct {
	Delegate string `json:"delegate"` // empty clears the approval
}
type operatorReq struct {
	Operator string `json:"operator"`
	Approved bool   `json:"approved"`
}

// Sale handles POST /v1/tickets/:id/sale.  The owner (or a delegate)
// offers the ticket; the price stays the one fixed at minting.
func (h *TradeHandler) Sale(c echo.Context) error {
	id, err := ticketID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	if err := h.Reg.PutForSale(caller(c), id); err != nil {
		return writeRegistryError(c, err)
	}
	return h.respondTicket(c, id)
}

// Buy handles POST /v1/tickets/:id/buy.  The caller becomes the new owner
// and any center lock context from the previous owner is wiped.
func (h *TradeHandler) Buy(c echo.Context) error {
	id, err := ticketID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	if err := h.Reg.Buy(caller(c), id); err != nil {
		return writeRegistryError(c, err)
	}
	return h.respondTicket(c, id)
}

// Transfer handles POST /v1/tickets/:id/transfer.  Works like a sale
// settlement without the on-sale step; expired tickets may still move as
// collector items.
func (h *TradeHandler) Transfer(c echo.Context) error {
	id, err := ticketID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	var req transferReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if err := h.Reg.Transfer(caller(c), id, model.Identity(strings.TrimSpace(req.To))); err != nil {
		return writeRegistryError(c, err)
	}
	return h.respondTicket(c, id)
}

// Approve handles POST /v1/tickets/:id/approve, pointing the single
// per-ticket delegate slot at another identity.  An empty delegate clears
// the slot.
func (h *TradeHandler) Approve(c echo.Context) error {
	id, err := ticketID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket id"})
	}
	var req approveReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	delegate := model.Identity(strings.TrimSpace(req.Delegate))
	if err := h.Reg.Approve(caller(c), id, delegate); err != nil {
		return writeRegistryError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ticket_id": id, "delegate": string(delegate)})
}

// SetOperator handles POST /v1/approvals, granting or revoking an
// all-tickets operator for the caller.
func (h *TradeHandler) SetOperator(c echo.Context) error {
	var req operatorReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	operator := model.Identity(strings.TrimSpace(req.Operator))
	if err := h.Reg.SetOperator(caller(c), operator, req.Approved); err != nil {
		return writeRegistryError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"operator": string(operator), "approved": req.Approved})
}

// respondTicket returns the post-mutation view of a ticket.
func (h *TradeHandler) respondTicket(c echo.Context, id uint64) error {
	t, err := h.Reg.GetTicket(id)
	if err != nil {
		return writeRegistryError(c, err)
	}
	return c.JSON(http.StatusOK, ticketJSON(t))
}
