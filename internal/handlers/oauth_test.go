package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/barklazza/projeto-vendas/config"
	"github.com/barklazza/projeto-vendas/internal/auth"
	"github.com/barklazza/projeto-vendas/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func itoa(i int) string { return strconv.Itoa(i) }

func fakeIdentityProvider(t *testing.T) *auth.Provider {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "token_type": "Bearer"})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"openId": "oid-new", "name": "Nova", "loginMethod": "google"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return auth.NewProvider(config.OAuthConfig{
		ClientID:    "client",
		AuthURL:     srv.URL + "/authorize",
		TokenURL:    srv.URL + "/token",
		UserInfoURL: srv.URL + "/userinfo",
		RedirectURL: "http://localhost/auth/callback",
	})
}

func loginState(t *testing.T, api *testAPI) *http.Cookie {
	t.Helper()
	rec := api.do(t, http.MethodGet, "/auth/login", nil, nil)
	require.Equal(t, http.StatusFound, rec.Code)

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")
	require.NotEmpty(t, state)

	for _, c := range rec.Result().Cookies() {
		if c.Name == "oauth_state" {
			assert.Equal(t, state, c.Value)
			return c
		}
	}
	t.Fatal("state cookie not set")
	return nil
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == cookieName && c.Value != "" {
			return c
		}
	}
	return nil
}

func TestOAuthCallbackSignsIn(t *testing.T) {
	api := newTestAPI(t, fakeIdentityProvider(t))
	state := loginState(t, api)

	rec := api.do(t, http.MethodGet, "/auth/callback?code=abc&state="+state.Value, nil, state)
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
	assert.Equal(t, "/", rec.Header().Get("Location"))

	session := sessionCookie(rec)
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)

	rec = api.do(t, http.MethodGet, "/sales", nil, session)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOAuthCallbackRejectsBadState(t *testing.T) {
	api := newTestAPI(t, fakeIdentityProvider(t))
	state := loginState(t, api)

	rec := api.do(t, http.MethodGet, "/auth/callback?code=abc&state=other", nil, state)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodGet, "/auth/callback?code=abc&state="+state.Value, nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOAuthCallbackSurvivesStoreFailure(t *testing.T) {
	api := newTestAPI(t, fakeIdentityProvider(t))
	api.users.Err = store.ErrUnavailable
	state := loginState(t, api)

	rec := api.do(t, http.MethodGet, "/auth/callback?code=abc&state="+state.Value, nil, state)
	require.Equal(t, http.StatusFound, rec.Code)
	session := sessionCookie(rec)
	require.NotNil(t, session)

	rec = api.do(t, http.MethodGet, "/auth/me", nil, session)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"open_id":"oid-new"`)
	assert.Contains(t, rec.Body.String(), `"role":"user"`)
}

func TestLoginWithoutProvider(t *testing.T) {
	api := newTestAPI(t, nil)
	rec := api.do(t, http.MethodGet, "/auth/login", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
