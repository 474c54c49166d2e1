package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/barklazza/projeto-vendas/internal/export"
	"github.com/barklazza/projeto-vendas/internal/report"
	"github.com/barklazza/projeto-vendas/internal/services"
	"github.com/barklazza/projeto-vendas/types"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// SaleHandler provides HTTP handlers for a reseller's own sales.
type SaleHandler struct {
	sales  *services.SaleService
	logger *slog.Logger
	now    func() time.Time
}

func NewSaleHandler(sales *services.SaleService, logger *slog.Logger) *SaleHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SaleHandler{sales: sales, logger: logger, now: time.Now}
}

// SaleRouter registers sale routes. Callers must mount it behind RequireAuth.
func SaleRouter(r chi.Router, sales *services.SaleService, logger *slog.Logger) {
	handler := NewSaleHandler(sales, logger)

	r.Post("/", handler.Create)
	r.Get("/", handler.List)
	r.Get("/stats", handler.Stats)
	r.Get("/report", handler.Report)
	r.Get("/export", handler.Export)
	r.Route("/{saleID}", func(r chi.Router) {
		r.Put("/", handler.Update)
		r.Delete("/", handler.Delete)
	})
}

type SaleRequest struct {
	ProductCode   string     `json:"product_code"`
	ClientName    string     `json:"client_name"`
	Type          string     `json:"type"`
	Value         flexString `json:"value"`
	PaymentMethod string     `json:"payment_method"`
	PaymentDate   string     `json:"payment_date"`
}

func (req SaleRequest) input() services.SaleInput {
	return services.SaleInput{
		ProductCode:   req.ProductCode,
		ClientName:    req.ClientName,
		Type:          req.Type,
		Value:         string(req.Value),
		PaymentMethod: req.PaymentMethod,
		PaymentDate:   req.PaymentDate,
	}
}

type SaleResponse struct {
	ID            int         `json:"id"`
	UserID        int         `json:"user_id"`
	ProductCode   string      `json:"product_code"`
	ClientName    string      `json:"client_name"`
	Type          string      `json:"type"`
	Value         json.Number `json:"value"`
	PaymentMethod string      `json:"payment_method"`
	PaymentDate   string      `json:"payment_date"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

type StatsResponse struct {
	TotalGross      json.Number            `json:"total_gross"`
	TotalCommission json.Number            `json:"total_commission"`
	TotalNet        json.Number            `json:"total_net"`
	Count           int                    `json:"count"`
	ByPaymentMethod map[string]json.Number `json:"by_payment_method"`
}

type ReportResponse struct {
	Sales          []SaleResponse `json:"sales"`
	Summary        StatsResponse  `json:"summary"`
	PaymentMethods []string       `json:"payment_methods"`
}

func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

func toSaleResponse(sale types.Sale) SaleResponse {
	return SaleResponse{
		ID:            sale.ID,
		UserID:        sale.UserID,
		ProductCode:   sale.ProductCode,
		ClientName:    sale.ClientName,
		Type:          sale.Type,
		Value:         money(sale.Value),
		PaymentMethod: sale.PaymentMethod,
		PaymentDate:   sale.PaymentDate.Format(types.DateLayout),
		CreatedAt:     sale.CreatedAt,
		UpdatedAt:     sale.UpdatedAt,
	}
}

func toSaleResponses(sales []types.Sale) []SaleResponse {
	out := make([]SaleResponse, 0, len(sales))
	for _, sale := range sales {
		out = append(out, toSaleResponse(sale))
	}
	return out
}

func toStatsResponse(summary report.Summary) StatsResponse {
	byMethod := make(map[string]json.Number, len(summary.ByPaymentMethod))
	for method, total := range summary.ByPaymentMethod {
		byMethod[method] = money(total)
	}
	return StatsResponse{
		TotalGross:      money(summary.Gross),
		TotalCommission: money(summary.Commission),
		TotalNet:        money(summary.Net),
		Count:           summary.Count,
		ByPaymentMethod: byMethod,
	}
}

func (h *SaleHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req SaleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	sale, err := h.sales.Create(r.Context(), user.ID, req.input())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, SuccessResponse{Success: true, ID: sale.ID})
}

func (h *SaleHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	sales, err := h.sales.List(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toSaleResponses(sales))
}

func (h *SaleHandler) Stats(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	summary, err := h.sales.Stats(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toStatsResponse(summary))
}

// Report returns the filtered sales with their summary.
func (h *SaleHandler) Report(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	result, err := h.sales.Report(r.Context(), user.ID, filter)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ReportResponse{
		Sales:          toSaleResponses(result.Sales),
		Summary:        toStatsResponse(result.Summary),
		PaymentMethods: result.PaymentMethods,
	})
}

// Export downloads the filtered report as a workbook.
func (h *SaleHandler) Export(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	filter, err := parseFilter(r)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	file, err := h.sales.ExportReport(r.Context(), user.ID, filter, h.now())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeFile(w, http.StatusOK, file)
}

func (h *SaleHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
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

	if err := h.sales.Update(r.Context(), user.ID, saleID, req.input()); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

func (h *SaleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, err := userFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	saleID, err := idParam(r, "saleID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid sale id")
		return
	}

	if err := h.sales.Delete(r.Context(), user.ID, saleID); err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

func parseFilter(r *http.Request) (report.Filter, error) {
	q := r.URL.Query()
	filter := report.Filter{
		PaymentMethod: strings.TrimSpace(q.Get("payment_method")),
		ClientName:    strings.TrimSpace(q.Get("client_name")),
	}
	if raw := strings.TrimSpace(q.Get("start_date")); raw != "" {
		start, err := services.ParseDate(raw)
		if err != nil {
			return report.Filter{}, &services.ValidationError{Field: "start_date", Message: "Data inicial inválida"}
		}
		filter.StartDate = &start
	}
	if raw := strings.TrimSpace(q.Get("end_date")); raw != "" {
		end, err := services.ParseDate(raw)
		if err != nil {
			return report.Filter{}, &services.ValidationError{Field: "end_date", Message: "Data final inválida"}
		}
		filter.EndDate = &end
	}
	return filter, nil
}

func writeFile(w http.ResponseWriter, status int, file export.File) {
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.Header().Set("Content-Length", fmt.Sprint(file.Size()))
	w.WriteHeader(status)
	_, _ = w.Write(file.Data)
}
