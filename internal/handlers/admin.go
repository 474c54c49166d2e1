package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/barklazza/projeto-vendas/internal/services"
	"github.com/go-chi/chi/v5"
)

// AdminHandler serves the cross-user views. Every route requires the
// admin role.
type AdminHandler struct {
	users  *services.UserService
	sales  *services.SaleService
	logger *slog.Logger
}

func NewAdminHandler(users *services.UserService, sales *services.SaleService, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{users: users, sales: sales, logger: logger}
}

// AdminRouter registers admin routes. Callers must mount it behind RequireAuth.
func AdminRouter(r chi.Router, users *services.UserService, sales *services.SaleService, logger *slog.Logger) {
	handler := NewAdminHandler(users, sales, logger)

	r.Use(requireAdmin)
	r.Get("/users", handler.ListUsers)
	r.Get("/users/{userID}/sales", handler.UserSales)
	r.Get("/sales", handler.ListSales)
	r.Get("/sales/stats", handler.SalesStats)
	r.Route("/sales/{saleID}", func(r chi.Router) {
		r.Put("/", handler.UpdateSale)
		r.Delete("/", handler.DeleteSale)
	})
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *AdminHandler) ListSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.sales.ListAll(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleResponses(sales))
}

// SalesStats summarizes every sale, or a single user's with ?user_id=.
func (h *AdminHandler) SalesStats(w http.ResponseWriter, r *http.Request) {
	var userID int
	if raw := strings.TrimSpace(r.URL.Query().Get("user_id")); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id < 1 {
			writeError(w, http.StatusBadRequest, "invalid user id")
			return
		}
		userID = id
	}

	summary, err := h.sales.StatsAny(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatsResponse(summary))
}

func (h *AdminHandler) UserSales(w http.ResponseWriter, r *http.Request) {
	userID, err := idParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	sales, err := h.sales.ListByUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleResponses(sales))
}

func (h *AdminHandler) UpdateSale(w http.ResponseWriter, r *http.Request) {
	admin, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	saleID, err := idParam(r, "saleID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid sale id")
		return
	}

	var req SaleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	if err := h.sales.UpdateAny(r.Context(), admin.ID, saleID, req.input()); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

func (h *AdminHandler) DeleteSale(w http.ResponseWriter, r *http.Request) {
	admin, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	saleID, err := idParam(r, "saleID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid sale id")
		return
	}

	if err := h.sales.DeleteAny(r.Context(), admin.ID, saleID); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}
