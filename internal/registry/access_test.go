package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ticket-registry/internal/model"
)

func TestAccess_GenesisHoldsBothCapabilities(t *testing.T) {
	r, _ := newTestRegistry()

	assert.True(t, r.IsAdmin(genesis))
	assert.True(t, r.IsSuperAdmin(genesis))
	assert.False(t, r.IsAdmin(alice))
	assert.False(t, r.IsSuperAdmin(alice))
}

func TestAccess_GrantAndRevokeAdmin(t *testing.T) {
	r, _ := newTestRegistry()

	require.NoError(t, r.GrantAdmin(genesis, alice))
	assert.True(t, r.IsAdmin(alice))
	// Granted admins may run lifecycle operations but not grant others.
	_, err := r.CreateTicket(alice, bob, "P02T01", 50)
	assert.NoError(t, err)
	assert.False(t, r.IsSuperAdmin(alice))

	require.NoError(t, r.RevokeAdmin(genesis, alice))
	assert.False(t, r.IsAdmin(alice))
	_, err = r.CreateTicket(alice, bob, "P02T01", 50)
	assert.ErrorIs(t, err, ErrNotAuthorized)
}

func TestAccess_SelfEscalationFails(t *testing.T) {
	r, _ := newTestRegistry()
	require.NoError(t, r.GrantAdmin(genesis, alice))

	// A plain admin cannot grant, not even to itself.
	assert.ErrorIs(t, r.GrantAdmin(alice, alice), ErrNotAuthorized)
	assert.ErrorIs(t, r.GrantAdmin(bob, bob), ErrNotAuthorized)
	assert.ErrorIs(t, r.RevokeAdmin(alice, genesis), ErrNotAuthorized)
	assert.True(t, r.IsAdmin(genesis))
}

func TestAccess_GrantRejectsNullIdentity(t *testing.T) {
	r, _ := newTestRegistry()

	assert.ErrorIs(t, r.GrantAdmin(genesis, model.NoIdentity), ErrInvalidInput)
}

func TestAccess_GrantEmitsEvent(t *testing.T) {
	r, _ := newTestRegistry()

	require.NoError(t, r.GrantAdmin(genesis, alice))
	evs := r.Events(0)
	require.Len(t, evs, 1)
	assert.Equal(t, KindAdminGranted, evs[0].Kind)
	assert.Equal(t, alice, evs[0].Identity)
	assert.Nil(t, evs[0].TicketID)
}
