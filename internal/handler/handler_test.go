package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ticket-registry/internal/registry"
)

const (
	genesis = "0xGENESIS"
	alice   = "0xALICE"
	bob     = "0xBOB"
)

// request builds an echo context carrying the given identity, the way the
// JWT middleware would after validating a token.  identity "" simulates an
// unauthenticated request on public routes.
func request(t *testing.T, method, target, identity, body string, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if identity != "" {
		c.Set("identity", identity)
	}
	for i := 0; i+1 < len(params); i += 2 {
		c.SetParamNames(params[i])
		c.SetParamValues(params[i+1])
	}
	return c, rec
}

// timeZero is the "no reservation" value accepted by Lock.
func timeZero() time.Time { return time.Time{} }

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func newHandlers(t *testing.T) (*AdminHandler, *TradeHandler, *BrowseHandler, *registry.Registry) {
	t.Helper()
	reg := registry.New(genesis, 0)
	return NewAdminHandler(reg), NewTradeHandler(reg), NewBrowseHandler(reg, nil), reg
}

func TestCreateTicketReturnsRecord(t *testing.T) {
	admin, _, _, _ := newHandlers(t)

	c, rec := request(t, http.MethodPost, "/v1/tickets", genesis,
		`{"owner":"`+alice+`","product_code":"P01T01","price":250}`)
	require.NoError(t, admin.CreateTicket(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, float64(0), body["id"])
	assert.Equal(t, alice, body["owner"])
	assert.Equal(t, "AVAILABLE", body["status"])
	assert.Equal(t, "000000", body["center_code"])
	assert.NotEmpty(t, body["limit_date"])
}

func TestCreateTicketByStrangerIsForbidden(t *testing.T) {
	admin, _, _, _ := newHandlers(t)

	c, rec := request(t, http.MethodPost, "/v1/tickets", bob,
		`{"owner":"`+alice+`","product_code":"P01T01","price":250}`)
	require.NoError(t, admin.CreateTicket(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "not_authorized", decode(t, rec)["error"])
}

func TestLockUnlockRoundTrip(t *testing.T) {
	admin, _, _, reg := newHandlers(t)
	_, err := reg.CreateTicket(genesis, alice, "P01T01", 100)
	require.NoError(t, err)

	c, rec := request(t, http.MethodPost, "/v1/tickets/0/lock", genesis,
		`{"center_code":"123456"}`, "id", "0")
	require.NoError(t, admin.Lock(c))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "LOCKED", body["status"])
	assert.Equal(t, "123456", body["center_code"])

	// wrong center cannot unlock
	c, rec = request(t, http.MethodPost, "/v1/tickets/0/unlock", genesis,
		`{"center_code":"654321"}`, "id", "0")
	require.NoError(t, admin.Unlock(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_input", decode(t, rec)["error"])

	c, rec = request(t, http.MethodPost, "/v1/tickets/0/unlock", genesis,
		`{"center_code":"123456"}`, "id", "0")
	require.NoError(t, admin.Unlock(c))
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "AVAILABLE", body["status"])
	assert.Equal(t, "000000", body["center_code"])
}

func TestLockRejectsSentinelCenter(t *testing.T) {
	admin, _, _, reg := newHandlers(t)
	_, err := reg.CreateTicket(genesis, alice, "P01T01", 100)
	require.NoError(t, err)

	c, rec := request(t, http.MethodPost, "/v1/tickets/0/lock", genesis,
		`{"center_code":"000000"}`, "id", "0")
	require.NoError(t, admin.Lock(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLockOnUnknownTicketIs404(t *testing.T) {
	admin, _, _, _ := newHandlers(t)

	c, rec := request(t, http.MethodPost, "/v1/tickets/42/lock", genesis,
		`{"center_code":"123456"}`, "id", "42")
	require.NoError(t, admin.Lock(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "invalid_id", decode(t, rec)["error"])
}

func TestRelockConflicts(t *testing.T) {
	admin, _, _, reg := newHandlers(t)
	_, err := reg.CreateTicket(genesis, alice, "P01T01", 100)
	require.NoError(t, err)
	require.NoError(t, reg.Lock(genesis, 0, "123456", timeZero()))

	c, rec := request(t, http.MethodPost, "/v1/tickets/0/lock", genesis,
		`{"center_code":"222222"}`, "id", "0")
	require.NoError(t, admin.Lock(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_state", decode(t, rec)["error"])
}

func TestSaleAndBuyFlow(t *testing.T) {
	_, trade, _, reg := newHandlers(t)
	_, err := reg.CreateTicket(genesis, alice, "P01T01", 100)
	require.NoError(t, err)

	c, rec := request(t, http.MethodPost, "/v1/tickets/0/sale", alice, "", "id", "0")
	require.NoError(t, trade.Sale(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ON_SALE", decode(t, rec)["status"])

	// owner cannot buy its own offer
	c, rec = request(t, http.MethodPost, "/v1/tickets/0/buy", alice, "", "id", "0")
	require.NoError(t, trade.Buy(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = request(t, http.MethodPost, "/v1/tickets/0/buy", bob, "", "id", "0")
	require.NoError(t, trade.Buy(c))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, bob, body["owner"])
	assert.Equal(t, "AVAILABLE", body["status"])
}

func TestTransferByStrangerIsForbidden(t *testing.T) {
	_, trade, _, reg := newHandlers(t)
	_, err := reg.CreateTicket(genesis, alice, "P01T01", 100)
	require.NoError(t, err)

	c, rec := request(t, http.MethodPost, "/v1/tickets/0/transfer", bob,
		`{"to":"`+bob+`"}`, "id", "0")
	require.NoError(t, trade.Transfer(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBrowseTicketAndCount(t *testing.T) {
	_, _, browse, reg := newHandlers(t)
	_, err := reg.CreateTicket(genesis, alice, "P01T01", 100)
	require.NoError(t, err)

	c, rec := request(t, http.MethodGet, "/v1/tickets/0", "", "", "id", "0")
	require.NoError(t, browse.GetTicket(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, alice, decode(t, rec)["owner"])

	c, rec = request(t, http.MethodGet, "/v1/tickets/count", "", "")
	require.NoError(t, browse.Count(c))
	assert.Equal(t, float64(1), decode(t, rec)["count"])

	c, rec = request(t, http.MethodGet, "/v1/tickets/9", "", "", "id", "9")
	require.NoError(t, browse.GetTicket(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventsFeed(t *testing.T) {
	_, _, browse, reg := newHandlers(t)
	_, err := reg.CreateTicket(genesis, alice, "P01T01", 100)
	require.NoError(t, err)
	require.NoError(t, reg.Lock(genesis, 0, "123456", timeZero()))

	c, rec := request(t, http.MethodGet, "/v1/events", "", "")
	require.NoError(t, browse.Events(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var feed []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feed))
	require.Len(t, feed, 2)
	assert.Equal(t, "ticket.created", feed[0]["kind"])
	assert.Equal(t, "ticket.locked", feed[1]["kind"])
	assert.Equal(t, float64(1), feed[0]["seq"])

	// tail after seq 1
	c, rec = request(t, http.MethodGet, "/v1/events?since=1", "", "")
	require.NoError(t, browse.Events(c))
	feed = nil
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feed))
	require.Len(t, feed, 1)
	assert.Equal(t, "ticket.locked", feed[0]["kind"])
}

func TestAdminCapabilityProbe(t *testing.T) {
	_, _, browse, reg := newHandlers(t)
	require.NoError(t, reg.GrantAdmin(genesis, alice))

	c, rec := request(t, http.MethodGet, "/v1/admins/"+alice, "", "", "identity", alice)
	require.NoError(t, browse.Admin(c))
	body := decode(t, rec)
	assert.Equal(t, true, body["admin"])
	assert.Equal(t, false, body["super_admin"])
}

func TestGrantAndRevokeAdminRoutes(t *testing.T) {
	admin, _, _, reg := newHandlers(t)

	c, rec := request(t, http.MethodPost, "/v1/admins", genesis,
		`{"identity":"`+alice+`"}`)
	require.NoError(t, admin.GrantAdmin(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, reg.IsAdmin(alice))

	c, rec = request(t, http.MethodDelete, "/v1/admins/"+alice, genesis, "", "identity", alice)
	require.NoError(t, admin.RevokeAdmin(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, reg.IsAdmin(alice))

	// non-super-admin cannot grant
	c, rec = request(t, http.MethodPost, "/v1/admins", bob,
		`{"identity":"`+alice+`"}`)
	require.NoError(t, admin.GrantAdmin(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMetadataRoutes(t *testing.T) {
	admin, _, browse, reg := newHandlers(t)
	_, err := reg.CreateTicket(genesis, alice, "P01T01", 100)
	require.NoError(t, err)

	c, rec := request(t, http.MethodPut, "/v1/products/P01T01/uri", genesis,
		`{"uri":"https://meta.example/p01"}`, "code", "P01T01")
	require.NoError(t, admin.SetProductURI(c))
	require.Equal(t, http.StatusOK, rec.Code)

	c, rec = request(t, http.MethodGet, "/v1/tickets/0/uri", "", "", "id", "0")
	require.NoError(t, browse.URI(c))
	assert.Equal(t, "https://meta.example/p01", decode(t, rec)["uri"])

	c, rec = request(t, http.MethodPut, "/v1/tickets/0/uri", genesis,
		`{"uri":"https://meta.example/t0"}`, "id", "0")
	require.NoError(t, admin.SetTicketURI(c))
	require.Equal(t, http.StatusOK, rec.Code)

	c, rec = request(t, http.MethodGet, "/v1/tickets/0/uri", "", "", "id", "0")
	require.NoError(t, browse.URI(c))
	assert.Equal(t, "https://meta.example/t0", decode(t, rec)["uri"])
}

func TestHistoryWithoutJournalIsUnavailable(t *testing.T) {
	_, _, browse, _ := newHandlers(t)

	c, rec := request(t, http.MethodGet, "/v1/history", "", "")
	require.NoError(t, browse.History(c))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
