package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ticket-registry/internal/registry"
)

func TestFromRegistryEventCarriesOnlyRelevantFields(t *testing.T) {
	id := uint64(7)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	msg := FromRegistryEvent(registry.Event{
		Seq:        3,
		Kind:       registry.KindTicketLocked,
		At:         at,
		TicketID:   &id,
		CenterCode: "123456",
	})

	b, err := json.Marshal(msg)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))

	assert.Equal(t, float64(3), m["seq"])
	assert.Equal(t, "ticket.locked", m["kind"])
	assert.Equal(t, float64(7), m["ticket_id"])
	assert.Equal(t, "123456", m["center_code"])
	assert.Equal(t, "2026-03-01T12:00:00Z", m["emitted_at"])

	// empty fields stay off the wire
	_, hasOwner := m["owner"]
	_, hasDate := m["date"]
	_, hasURI := m["uri"]
	assert.False(t, hasOwner)
	assert.False(t, hasDate)
	assert.False(t, hasURI)
}

func TestFromRegistryEventFormatsDates(t *testing.T) {
	id := uint64(1)
	date := time.Date(2027, 9, 1, 0, 0, 0, 0, time.UTC)

	msg := FromRegistryEvent(registry.Event{
		Seq:      9,
		Kind:     registry.KindLimitDateSet,
		At:       date,
		TicketID: &id,
		Date:     &date,
	})

	assert.Equal(t, "2027-09-01T00:00:00Z", msg.Date)
	assert.Equal(t, TicketEventName, "ticket.events")
}
