package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/barklazza/projeto-vendas/internal/auth"
	"github.com/barklazza/projeto-vendas/internal/handlers"
	"github.com/barklazza/projeto-vendas/internal/services"
	"github.com/barklazza/projeto-vendas/internal/services/servicestest"
	"github.com/barklazza/projeto-vendas/types"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cookieName = "app_session_id"

type testAPI struct {
	router   http.Handler
	users    *servicestest.Users
	sales    *servicestest.Sales
	backups  *servicestest.Backups
	archive  *servicestest.Archive
	sessions *auth.Sessions
}

func newTestAPI(t *testing.T, provider *auth.Provider) *testAPI {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	api := &testAPI{
		users:    servicestest.NewUsers(),
		sales:    servicestest.NewSales(),
		backups:  servicestest.NewBackups(),
		archive:  servicestest.NewArchive(),
		sessions: auth.NewSessions("test-secret", time.Hour),
	}
	userService := services.NewUserService(api.users, nil, logger)
	saleService := services.NewSaleService(api.sales, nil)
	backupService := services.NewBackupService(api.backups, api.sales, api.archive, nil, logger)
	authHandler := handlers.NewAuthHandler(userService, api.sessions, provider, handlers.CookieOptions{Name: cookieName}, logger)

	r := chi.NewRouter()
	r.Get("/healthz", handlers.Healthz)
	r.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authHandler)
	})
	r.Group(func(r chi.Router) {
		r.Use(authHandler.RequireAuth)
		r.Route("/sales", func(r chi.Router) {
			handlers.SaleRouter(r, saleService, logger)
		})
		r.Route("/backups", func(r chi.Router) {
			handlers.BackupRouter(r, backupService, logger)
		})
		r.Route("/admin", func(r chi.Router) {
			handlers.AdminRouter(r, userService, saleService, logger)
		})
	})
	api.router = r
	return api
}

// signIn stores a user and returns a session cookie for it.
func (a *testAPI) signIn(t *testing.T, openID, role string) (types.User, *http.Cookie) {
	t.Helper()
	user := a.users.Add(types.User{OpenID: openID, Role: role})
	token, err := a.sessions.Issue(types.Identity{OpenID: openID})
	require.NoError(t, err)
	return user, &http.Cookie{Name: cookieName, Value: token}
}

func (a *testAPI) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func saleBody() map[string]any {
	return map[string]any{
		"product_code":   "JOI-001",
		"client_name":    "João Silva",
		"type":           "Anel",
		"value":          150,
		"payment_method": "PIX",
		"payment_date":   "2024-03-01",
	}
}

func TestHealthz(t *testing.T) {
	api := newTestAPI(t, nil)
	rec := api.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	api := newTestAPI(t, nil)

	for _, path := range []string{"/sales", "/sales/stats", "/backups", "/admin/users"} {
		rec := api.do(t, http.MethodGet, path, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := api.do(t, http.MethodGet, "/sales", nil, &http.Cookie{Name: cookieName, Value: "forged"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := api.sessions.Issue(types.Identity{OpenID: "never-stored"})
	require.NoError(t, err)
	rec = api.do(t, http.MethodGet, "/sales", nil, &http.Cookie{Name: cookieName, Value: token})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerTokenAccepted(t *testing.T) {
	api := newTestAPI(t, nil)
	_, cookie := api.signIn(t, "oid-1", types.RoleUser)

	req := httptest.NewRequest(http.MethodGet, "/sales", nil)
	req.Header.Set("Authorization", "Bearer "+cookie.Value)
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMe(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodGet, "/auth/me", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))

	user, cookie := api.signIn(t, "oid-1", types.RoleAdmin)
	rec = api.do(t, http.MethodGet, "/auth/me", nil, cookie)
	me := decode[types.User](t, rec)
	assert.Equal(t, user.ID, me.ID)
	assert.Equal(t, types.RoleAdmin, me.Role)

	token, err := api.sessions.Issue(types.Identity{OpenID: "ghost"})
	require.NoError(t, err)
	rec = api.do(t, http.MethodGet, "/auth/me", nil, &http.Cookie{Name: cookieName, Value: token})
	me = decode[types.User](t, rec)
	assert.Equal(t, "ghost", me.OpenID)
	assert.Equal(t, types.RoleUser, me.Role)
}

func TestLogoutClearsCookie(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodPost, "/auth/logout", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, cookieName, cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
	assert.True(t, decode[handlers.SuccessResponse](t, rec).Success)
}

func TestSalesLifecycle(t *testing.T) {
	api := newTestAPI(t, nil)
	_, cookie := api.signIn(t, "oid-1", types.RoleUser)

	rec := api.do(t, http.MethodPost, "/sales", saleBody(), cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[handlers.SuccessResponse](t, rec)
	assert.True(t, created.Success)

	rec = api.do(t, http.MethodGet, "/sales", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"value":150.00`)
	sales := decode[[]handlers.SaleResponse](t, rec)
	require.Len(t, sales, 1)
	assert.Equal(t, "2024-03-01", sales[0].PaymentDate)

	rec = api.do(t, http.MethodGet, "/sales/stats", nil, cookie)
	stats := decode[handlers.StatsResponse](t, rec)
	assert.Equal(t, "150.00", stats.TotalGross.String())
	assert.Equal(t, "45.00", stats.TotalCommission.String())
	assert.Equal(t, "105.00", stats.TotalNet.String())
	assert.Equal(t, 1, stats.Count)

	body := saleBody()
	body["value"] = "200,50"
	rec = api.do(t, http.MethodPut, "/sales/"+itoa(created.ID), body, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(t, http.MethodGet, "/sales", nil, cookie)
	sales = decode[[]handlers.SaleResponse](t, rec)
	assert.Equal(t, "200.50", sales[0].Value.String())

	rec = api.do(t, http.MethodDelete, "/sales/"+itoa(created.ID), nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(t, http.MethodDelete, "/sales/"+itoa(created.ID), nil, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaleValidationError(t *testing.T) {
	api := newTestAPI(t, nil)
	_, cookie := api.signIn(t, "oid-1", types.RoleUser)

	body := saleBody()
	body["value"] = -5
	rec := api.do(t, http.MethodPost, "/sales", body, cookie)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[handlers.ErrorResponse](t, rec)
	assert.Equal(t, "value", resp.Field)
	assert.NotEmpty(t, resp.Error)

	rec = api.do(t, http.MethodPut, "/sales/abc", saleBody(), cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSalesAreOwnerScoped(t *testing.T) {
	api := newTestAPI(t, nil)
	_, alice := api.signIn(t, "alice", types.RoleUser)
	_, bob := api.signIn(t, "bob", types.RoleUser)

	rec := api.do(t, http.MethodPost, "/sales", saleBody(), alice)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[handlers.SuccessResponse](t, rec).ID

	rec = api.do(t, http.MethodGet, "/sales", nil, bob)
	assert.Empty(t, decode[[]handlers.SaleResponse](t, rec))

	rec = api.do(t, http.MethodPut, "/sales/"+itoa(id), saleBody(), bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = api.do(t, http.MethodDelete, "/sales/"+itoa(id), nil, bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodGet, "/sales", nil, alice)
	assert.Len(t, decode[[]handlers.SaleResponse](t, rec), 1)
}

func TestSalesReportAndExport(t *testing.T) {
	api := newTestAPI(t, nil)
	_, cookie := api.signIn(t, "oid-1", types.RoleUser)

	for _, method := range []string{"PIX", "Dinheiro"} {
		body := saleBody()
		body["payment_method"] = method
		rec := api.do(t, http.MethodPost, "/sales", body, cookie)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := api.do(t, http.MethodGet, "/sales/report?payment_method=PIX", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	rep := decode[handlers.ReportResponse](t, rec)
	assert.Len(t, rep.Sales, 1)
	assert.Equal(t, "150.00", rep.Summary.TotalGross.String())
	assert.ElementsMatch(t, []string{"PIX", "Dinheiro"}, rep.PaymentMethods)

	rec = api.do(t, http.MethodGet, "/sales/report?start_date=garbage", nil, cookie)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "start_date", decode[handlers.ErrorResponse](t, rec).Field)

	rec = api.do(t, http.MethodGet, "/sales/export", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "relatorio_vendas_")
	assert.NotZero(t, rec.Body.Len())

	rec = api.do(t, http.MethodGet, "/sales/export?client_name=ninguem", nil, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBackups(t *testing.T) {
	api := newTestAPI(t, nil)
	_, cookie := api.signIn(t, "oid-1", types.RoleUser)
	_, other := api.signIn(t, "oid-2", types.RoleUser)

	rec := api.do(t, http.MethodPost, "/backups/export", nil, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, api.backups.Count())

	rec = api.do(t, http.MethodPost, "/sales", saleBody(), cookie)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodPost, "/backups/export", nil, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	backupID := rec.Header().Get("X-Backup-Id")
	require.NotEmpty(t, backupID)
	workbook := rec.Body.Bytes()

	rec = api.do(t, http.MethodGet, "/backups/"+backupID+"/download", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, workbook, rec.Body.Bytes())

	rec = api.do(t, http.MethodGet, "/backups/"+backupID+"/download", nil, other)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(t, http.MethodPost, "/backups", map[string]any{"file_name": "manual.xlsx", "sales_count": 1}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = api.do(t, http.MethodPost, "/backups", map[string]any{"file_name": ""}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodGet, "/backups", nil, cookie)
	backups := decode[[]types.Backup](t, rec)
	require.Len(t, backups, 2)
	assert.Equal(t, "manual.xlsx", backups[0].FileName)

	rec = api.do(t, http.MethodDelete, "/backups/"+backupID, nil, other)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = api.do(t, http.MethodDelete, "/backups/"+backupID, nil, cookie)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, api.archive.Objects)
}

func TestAdminRoutes(t *testing.T) {
	api := newTestAPI(t, nil)
	_, admin := api.signIn(t, "owner", types.RoleAdmin)
	seller, cookie := api.signIn(t, "seller", types.RoleUser)

	rec := api.do(t, http.MethodGet, "/admin/users", nil, cookie)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", decode[handlers.ErrorResponse](t, rec).Error)

	rec = api.do(t, http.MethodPost, "/sales", saleBody(), cookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	saleID := decode[handlers.SuccessResponse](t, rec).ID

	rec = api.do(t, http.MethodGet, "/admin/users", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]types.User](t, rec), 2)

	rec = api.do(t, http.MethodGet, "/admin/sales", nil, admin)
	assert.Len(t, decode[[]handlers.SaleResponse](t, rec), 1)

	rec = api.do(t, http.MethodGet, "/admin/users/"+itoa(seller.ID)+"/sales", nil, admin)
	assert.Len(t, decode[[]handlers.SaleResponse](t, rec), 1)

	body := saleBody()
	body["client_name"] = "Corrigido"
	rec = api.do(t, http.MethodPut, "/admin/sales/"+itoa(saleID), body, admin)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/sales", nil, cookie)
	assert.Equal(t, "Corrigido", decode[[]handlers.SaleResponse](t, rec)[0].ClientName)

	rec = api.do(t, http.MethodDelete, "/admin/sales/"+itoa(saleID), nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = api.do(t, http.MethodDelete, "/admin/sales/"+itoa(saleID), nil, admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminSalesStats(t *testing.T) {
	api := newTestAPI(t, nil)
	_, admin := api.signIn(t, "owner", types.RoleAdmin)
	seller, cookie := api.signIn(t, "seller", types.RoleUser)
	_, other := api.signIn(t, "other", types.RoleUser)

	rec := api.do(t, http.MethodPost, "/sales", saleBody(), cookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	body := saleBody()
	body["value"] = "50"
	rec = api.do(t, http.MethodPost, "/sales", body, other)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodGet, "/admin/sales/stats", nil, cookie)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = api.do(t, http.MethodGet, "/admin/sales/stats", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	all := decode[handlers.StatsResponse](t, rec)
	assert.Equal(t, "200.00", all.TotalGross.String())
	assert.Equal(t, "60.00", all.TotalCommission.String())
	assert.Equal(t, 2, all.Count)

	rec = api.do(t, http.MethodGet, "/admin/sales/stats?user_id="+itoa(seller.ID), nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	one := decode[handlers.StatsResponse](t, rec)
	assert.Equal(t, "150.00", one.TotalGross.String())
	assert.Equal(t, "45.00", one.TotalCommission.String())
	assert.Equal(t, 1, one.Count)

	rec = api.do(t, http.MethodGet, "/admin/sales/stats?user_id=abc", nil, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStoreFailureIsUnavailable(t *testing.T) {
	api := newTestAPI(t, nil)
	_, cookie := api.signIn(t, "oid-1", types.RoleUser)
	api.sales.Err = assert.AnError

	rec := api.do(t, http.MethodGet, "/sales", nil, cookie)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error())
}
