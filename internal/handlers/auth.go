package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/barklazza/projeto-vendas/internal/auth"
	"github.com/barklazza/projeto-vendas/internal/services"
	"github.com/barklazza/projeto-vendas/internal/store"
	"github.com/barklazza/projeto-vendas/types"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	stateCookieName = "oauth_state"
	stateTTL        = 10 * time.Minute
)

// CookieOptions controls the session cookie.
type CookieOptions struct {
	Name   string
	Secure bool
}

// AuthHandler serves the session endpoints and guards the other routers.
type AuthHandler struct {
	users    *services.UserService
	sessions *auth.Sessions
	provider *auth.Provider
	cookie   CookieOptions
	logger   *slog.Logger
}

// NewAuthHandler constructs an AuthHandler. provider may be nil, in which
// case only token-based sessions are accepted.
func NewAuthHandler(users *services.UserService, sessions *auth.Sessions, provider *auth.Provider, cookie CookieOptions, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		users:    users,
		sessions: sessions,
		provider: provider,
		cookie:   cookie,
		logger:   logger,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, h *AuthHandler) {
	r.Get("/me", h.Me)
	r.Post("/logout", h.Logout)
	r.Get("/login", h.Login)
	r.Get("/callback", h.Callback)
}

// RequireAuth rejects requests without a valid session and injects the
// stored user into the context.
func (h *AuthHandler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := h.session(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		user, err := h.users.GetByOpenID(r.Context(), identity.OpenID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			writeServiceError(w, r, h.logger, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

// Me returns the current user, null without a session.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.session(r)
	if !ok {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	user, err := h.users.GetByOpenID(r.Context(), identity.OpenID)
	if err == nil {
		writeJSON(w, http.StatusOK, user)
		return
	}
	if !errors.Is(err, store.ErrNotFound) {
		h.logger.WarnContext(r.Context(), "user lookup failed, answering from session", "error", err)
	}
	writeJSON(w, http.StatusOK, types.User{
		OpenID:      identity.OpenID,
		Name:        identity.Name,
		Email:       identity.Email,
		LoginMethod: identity.LoginMethod,
		Role:        types.RoleUser,
	})
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// Login starts the provider's authorization-code flow.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		writeError(w, http.StatusNotFound, "login not configured")
		return
	}

	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/auth",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.provider.AuthCodeURL(state), http.StatusFound)
}

// Callback completes sign-in, sets the session cookie and redirects home.
// A store failure during sign-in does not block the session.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		writeError(w, http.StatusNotFound, "login not configured")
		return
	}

	stateCookie, err := r.Cookie(stateCookieName)
	state := r.URL.Query().Get("state")
	if err != nil || state == "" || stateCookie.Value != state {
		writeError(w, http.StatusBadRequest, "invalid state")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Path: "/auth", MaxAge: -1})

	identity, err := h.provider.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.logger.WarnContext(r.Context(), "oauth callback failed", "error", err)
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if _, _, err := h.users.SignIn(r.Context(), identity); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	token, err := h.sessions.Issue(identity)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}

// session reads the session cookie, falling back to a bearer token.
func (h *AuthHandler) session(r *http.Request) (types.Identity, bool) {
	var token string
	if cookie, err := r.Cookie(h.cookie.Name); err == nil && cookie.Value != "" {
		token = cookie.Value
	} else if bearer, err := bearerToken(r); err == nil {
		token = bearer
	} else {
		return types.Identity{}, false
	}

	identity, err := h.sessions.Parse(token)
	if err != nil {
		return types.Identity{}, false
	}
	return identity, true
}

// requireAdmin must run after RequireAuth.
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := userFromContext(r.Context())
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if err := services.RequireAdmin(user); err != nil {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
