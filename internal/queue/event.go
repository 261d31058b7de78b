// Package queue defines message payloads exchanged over the message broker.
package queue

import (
    "time"

    "github.com/iliyamo/ticket-registry/internal/registry"
)

// TicketEventName is the durable queue carrying every committed registry
// mutation, in commit order.  Indexers and UIs subscribe to it instead of
// polling the registry.
const TicketEventName = "ticket.events"

// TicketEventMessage is the wire form of one registry event.  Optional
// fields are omitted so each kind carries only the identifiers and values
// it affects.
type TicketEventMessage struct {
    Seq         uint64  `json:"seq"`
    Kind        string  `json:"kind"`
    TicketID    *uint64 `json:"ticket_id,omitempty"`
    Owner       string  `json:"owner,omitempty"`
    Identity    string  `json:"identity,omitempty"`
    ProductCode string  `json:"product_code,omitempty"`
    CenterCode  string  `json:"center_code,omitempty"`
    URI         string  `json:"uri,omitempty"`
    Date        string  `json:"date,omitempty"`
    Approved    bool    `json:"approved,omitempty"`
    EmittedAt   string  `json:"emitted_at"`
}

// FromRegistryEvent converts a committed registry event into its broker
// payload.  Timestamps are serialized as RFC 3339 UTC strings.
func FromRegistryEvent(ev registry.Event) TicketEventMessage {
    msg := TicketEventMessage{
        Seq:         ev.Seq,
        Kind:        ev.Kind,
        TicketID:    ev.TicketID,
        Owner:       string(ev.Owner),
        Identity:    string(ev.Identity),
        ProductCode: ev.ProductCode,
        CenterCode:  ev.CenterCode,
        URI:         ev.URI,
        Approved:    ev.Approved,
        EmittedAt:   ev.At.UTC().Format(time.RFC3339),
    }
    if ev.Date != nil {
        msg.Date = ev.Date.UTC().Format(time.RFC3339)
    }
    return msg
}
