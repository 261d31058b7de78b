package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadata_ResolutionPrecedence(t *testing.T) {
	r, _ := newTestRegistry()
	tk := mustCreate(t, r, alice)

	// Nothing set: empty.
	uri, err := r.ResolveURI(tk.ID)
	require.NoError(t, err)
	assert.Equal(t, "", uri)

	// Product default applies to every ticket of the line.
	require.NoError(t, r.SetProductURI(genesis, "P01T01", "ipfs://product-default"))
	uri, _ = r.ResolveURI(tk.ID)
	assert.Equal(t, "ipfs://product-default", uri)

	// The per-ticket override wins over the product default.
	require.NoError(t, r.SetTicketURI(genesis, tk.ID, "ipfs://ticket-override"))
	uri, _ = r.ResolveURI(tk.ID)
	assert.Equal(t, "ipfs://ticket-override", uri)

	// Clearing the override falls back to the product default.
	require.NoError(t, r.SetTicketURI(genesis, tk.ID, ""))
	uri, _ = r.ResolveURI(tk.ID)
	assert.Equal(t, "ipfs://product-default", uri)
}

func TestMetadata_SettersValidate(t *testing.T) {
	r, _ := newTestRegistry()

	assert.ErrorIs(t, r.SetProductURI(genesis, "", "ipfs://x"), ErrInvalidInput)
	assert.ErrorIs(t, r.SetTicketURI(genesis, 7, "ipfs://x"), ErrInvalidID)
	assert.ErrorIs(t, r.SetProductURI(alice, "P01T01", "ipfs://x"), ErrNotAuthorized)
}

func TestMetadata_ProductURIIndependentOfTickets(t *testing.T) {
	r, _ := newTestRegistry()

	// The product table is managed independently of any ticket's existence.
	require.NoError(t, r.SetProductURI(genesis, "P09T01", "ipfs://future-product"))
	tk, err := r.CreateTicket(genesis, alice, "P09T01", 10)
	require.NoError(t, err)
	uri, _ := r.ResolveURI(tk.ID)
	assert.Equal(t, "ipfs://future-product", uri)
}

func TestMetadata_SettersEmitKeyAndValue(t *testing.T) {
	r, _ := newTestRegistry()
	tk := mustCreate(t, r, alice)

	require.NoError(t, r.SetProductURI(genesis, "P01T01", "ipfs://a"))
	require.NoError(t, r.SetTicketURI(genesis, tk.ID, "ipfs://b"))

	evs := r.Events(1) // skip ticket.created
	require.Len(t, evs, 2)
	assert.Equal(t, KindProductURISet, evs[0].Kind)
	assert.Equal(t, "P01T01", evs[0].ProductCode)
	assert.Equal(t, "ipfs://a", evs[0].URI)
	assert.Equal(t, KindTicketURISet, evs[1].Kind)
	require.NotNil(t, evs[1].TicketID)
	assert.Equal(t, tk.ID, *evs[1].TicketID)
	assert.Equal(t, "ipfs://b", evs[1].URI)
}
