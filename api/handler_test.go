package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Fiedly71/up-to-date-store-sub000/cache"
	"github.com/Fiedly71/up-to-date-store-sub000/catalog"
	"github.com/Fiedly71/up-to-date-store-sub000/flow"
	"github.com/Fiedly71/up-to-date-store-sub000/payment"
	"github.com/Fiedly71/up-to-date-store-sub000/persistence"
	"github.com/Fiedly71/up-to-date-store-sub000/pricing"
	"github.com/Fiedly71/up-to-date-store-sub000/rbac"
	"github.com/Fiedly71/up-to-date-store-sub000/session"
	"github.com/Fiedly71/up-to-date-store-sub000/token"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type outbox struct {
	mu   sync.Mutex
	msgs []flow.Message
}

func (o *outbox) Notify(_ context.Context, msg flow.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, msg)
	return nil
}

func (o *outbox) lastToken(t *testing.T) string {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	require.NotEmpty(t, o.msgs)
	u, err := url.Parse(o.msgs[len(o.msgs)-1].Link)
	require.NoError(t, err)
	return u.Query().Get("token")
}

type testServer struct {
	e      *echo.Echo
	outbox *outbox
	cache  *cache.Memory
	reg    *flow.RegistrationManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	repo, err := persistence.NewStorage("sqlite", filepath.Join(t.TempDir(), "api.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	signer, err := token.NewSigner([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	cat, err := catalog.Default()
	require.NoError(t, err)

	hasher := flow.NewBcryptHasher(bcrypt.MinCost)
	sessions := session.NewManager(session.NewDatabaseStrategy(repo, time.Hour))
	box := &outbox{}

	recovery := flow.NewRecoveryManager(repo, signer, hasher, "https://shop.example")
	recovery.SetNotifier(box)
	recovery.SetSessionRevoker(sessions)
	invites := flow.NewInviteManager(repo, signer, hasher, "https://shop.example")
	invites.SetNotifier(box)
	profile := flow.NewProfileManager(repo, hasher)
	profile.SetSessionRevoker(sessions)

	conv := pricing.NewConverter(0, "")
	mem := cache.NewMemory()
	reg := flow.NewRegistrationManager(repo, hasher)

	h := NewHandler(Options{
		Accounts:     repo,
		Registration: reg,
		Login:        flow.NewLoginManager(repo, hasher),
		Profile:      profile,
		Recovery:     recovery,
		Invites:      invites,
		Orders:       flow.NewOrderManager(repo, cat),
		Sessions:     sessions,
		Access:       rbac.NewMiddleware(rbac.BasicStrategy{}, sessions, repo),
		Catalog:      cat,
		Converter:    conv,
		WhatsApp:     payment.NewWhatsApp("+254700000000", conv),
		Cache:        mem,
	})

	e := echo.New()
	h.RegisterRoutes(e.Group("/api/v1"))
	return &testServer{e: e, outbox: box, cache: mem, reg: reg}
}

func (s *testServer) do(t *testing.T, method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (s *testServer) login(t *testing.T, email, password string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/login", "", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode(t, rec)["token"].(string)
}

func TestAPIIntegration(t *testing.T) {
	s := newTestServer(t)

	// 1. Registration
	rec := s.do(t, http.MethodPost, "/registration", "", map[string]string{
		"email": "test@example.com", "name": "Test", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")

	rec = s.do(t, http.MethodPost, "/registration", "", map[string]string{
		"email": "test@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// 2. Login and WhoAmI
	rec = s.do(t, http.MethodPost, "/login", "", map[string]string{"email": "test@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok := s.login(t, "test@example.com", "password123")
	rec = s.do(t, http.MethodGet, "/whoami", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "authenticated", decode(t, rec)["status"])

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/whoami", "", nil).Code)
}

func TestAPIRecovery(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/registration", "", map[string]string{"email": "jane@example.com", "password": "password123"})
	require.Equal(t, http.StatusCreated, rec.Code)
	oldSession := s.login(t, "jane@example.com", "password123")

	// Unknown emails look the same as known ones
	unknown := s.do(t, http.MethodPost, "/recovery", "", map[string]string{"email": "nobody@example.com"})
	known := s.do(t, http.MethodPost, "/recovery", "", map[string]string{"email": "jane@example.com"})
	assert.Equal(t, http.StatusAccepted, unknown.Code)
	assert.Equal(t, unknown.Body.String(), known.Body.String())

	link := s.outbox.lastToken(t)

	rec = s.do(t, http.MethodGet, "/recovery?token="+url.QueryEscape(link), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jane@example.com", decode(t, rec)["email"])

	rec = s.do(t, http.MethodPost, "/recovery/reset", "", map[string]string{"token": link, "password": "new-password"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// the link is single use and gives no detail on why it failed
	reused := s.do(t, http.MethodPost, "/recovery/reset", "", map[string]string{"token": link, "password": "other-password"})
	forged := s.do(t, http.MethodPost, "/recovery/reset", "", map[string]string{"token": link + "x", "password": "other-password"})
	assert.Equal(t, http.StatusBadRequest, reused.Code)
	assert.Equal(t, reused.Body.String(), forged.Body.String())
	assert.Equal(t, msgInvalidLink, decode(t, reused)["status"])

	// sessions from before the reset are gone
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/whoami", oldSession, nil).Code)
	s.login(t, "jane@example.com", "new-password")
}

func TestAPICatalogAndQuote(t *testing.T) {
	s := newTestServer(t)

	first := s.do(t, http.MethodGet, "/catalog", "", nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := s.do(t, http.MethodGet, "/catalog", "", nil)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())

	rec := s.do(t, http.MethodGet, "/catalog/categories", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/catalog/does-not-exist", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/quote?price=250", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	q := decode(t, rec)
	assert.Equal(t, 50.0, q["fee"])
	assert.Equal(t, 300.0, q["total"])
	assert.Equal(t, "42,000 KES", q["display_text"])

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/quote?price=-1", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/quote?price=abc", "", nil).Code)

	rec = s.do(t, http.MethodPost, "/links/parse", "", map[string]string{"url": "https://www.amazon.com/dp/B08N5WRWNW"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "amazon", decode(t, rec)["marketplace"])
}

func TestAPIOrders(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	_, err := s.reg.EnsureAdmin(ctx, "admin@example.com", "admin-password")
	require.NoError(t, err)
	admin := s.login(t, "admin@example.com", "admin-password")

	rec := s.do(t, http.MethodPost, "/registration", "", map[string]string{"email": "buyer@example.com", "password": "password123"})
	require.Equal(t, http.StatusCreated, rec.Code)
	buyer := s.login(t, "buyer@example.com", "password123")

	rec = s.do(t, http.MethodPost, "/orders", buyer, map[string]interface{}{
		"product_url":      "https://www.ebay.com/itm/123456789",
		"title":            "Vintage camera",
		"unit_price":       80,
		"shipping_address": "Nairobi",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)
	id := created["id"].(string)
	assert.Equal(t, 12.0, created["fee"])
	assert.Equal(t, "12,880 KES", created["display_total"])

	rec = s.do(t, http.MethodGet, "/orders", buyer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = s.do(t, http.MethodGet, "/orders/"+id+"/whatsapp", buyer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode(t, rec)["url"], "https://wa.me/254700000000")

	// customers cannot use admin routes
	rec = s.do(t, http.MethodPatch, "/admin/orders/"+id+"/status", buyer, map[string]string{"status": "paid"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPatch, "/admin/orders/"+id+"/price", admin, map[string]float64{"unit_price": 150})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 20.0, decode(t, rec)["fee"])

	rec = s.do(t, http.MethodPatch, "/admin/orders/"+id+"/payment", admin, map[string]string{"method": "whatsapp", "reference": "MPESA-1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "paid", decode(t, rec)["status"])

	rec = s.do(t, http.MethodPatch, "/admin/orders/"+id+"/status", admin, map[string]string{"status": "in_transit"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tracking := decode(t, rec)["tracking"].(map[string]interface{})
	assert.Equal(t, 66.0, tracking["progress"])

	rec = s.do(t, http.MethodPatch, "/admin/orders/"+id+"/status", admin, map[string]string{"status": "pending"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodGet, "/admin/orders?status=in_transit", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = s.do(t, http.MethodGet, "/admin/orders?status=lost", admin, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPIInvitations(t *testing.T) {
	s := newTestServer(t)
	_, err := s.reg.EnsureAdmin(context.Background(), "admin@example.com", "admin-password")
	require.NoError(t, err)
	admin := s.login(t, "admin@example.com", "admin-password")

	rec := s.do(t, http.MethodPost, "/admin/invitations", admin, map[string]interface{}{"email": "staff@example.com", "name": "Staff"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	link := s.outbox.lastToken(t)

	rec = s.do(t, http.MethodGet, "/invitations?token="+url.QueryEscape(link), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "staff@example.com", decode(t, rec)["email"])

	// an invite link cannot reset a password
	rec = s.do(t, http.MethodPost, "/recovery/reset", "", map[string]string{"token": link, "password": "password123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/invitations/accept", "", map[string]string{"token": link, "password": "staff-password"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/invitations/accept", "", map[string]string{"token": link, "password": "staff-password"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.login(t, "staff@example.com", "staff-password")
}
