package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/barklazza/projeto-vendas/internal/export"
	"github.com/barklazza/projeto-vendas/internal/report"
	"github.com/barklazza/projeto-vendas/types"
	"github.com/shopspring/decimal"
)

// maxSaleValue is the first value that no longer fits NUMERIC(10,2).
var maxSaleValue = decimal.New(1, 8)

// Column widths of the sales table, in characters.
const (
	maxProductCodeLen   = 100
	maxClientNameLen    = 255
	maxTypeLen          = 100
	maxPaymentMethodLen = 50
)

// SaleRepository defines persistence operations for sales.
type SaleRepository interface {
	Create(ctx context.Context, sale types.Sale) (types.Sale, error)
	ListByOwner(ctx context.Context, ownerID int) ([]types.Sale, error)
	ListAll(ctx context.Context) ([]types.Sale, error)
	Update(ctx context.Context, id, ownerID int, patch types.SalePatch) error
	UpdateAny(ctx context.Context, id int, patch types.SalePatch) error
	Delete(ctx context.Context, id, ownerID int) error
	DeleteAny(ctx context.Context, id int) error
}

// SaleInput is the raw form of a sale as submitted by a client.
type SaleInput struct {
	ProductCode   string
	ClientName    string
	Type          string
	Value         string
	PaymentMethod string
	PaymentDate   string
}

// Validate checks every field and returns a patch that sets all of them.
func (in SaleInput) Validate() (types.SalePatch, error) {
	productCode := strings.TrimSpace(in.ProductCode)
	if productCode == "" {
		return types.SalePatch{}, invalid("product_code", "Código do produto é obrigatório")
	}
	if utf8.RuneCountInString(productCode) > maxProductCodeLen {
		return types.SalePatch{}, invalid("product_code", fmt.Sprintf("Código do produto excede %d caracteres", maxProductCodeLen))
	}
	clientName := strings.TrimSpace(in.ClientName)
	if clientName == "" {
		return types.SalePatch{}, invalid("client_name", "Nome do cliente é obrigatório")
	}
	if utf8.RuneCountInString(clientName) > maxClientNameLen {
		return types.SalePatch{}, invalid("client_name", fmt.Sprintf("Nome do cliente excede %d caracteres", maxClientNameLen))
	}
	saleType := strings.TrimSpace(in.Type)
	if saleType == "" {
		return types.SalePatch{}, invalid("type", "Tipo é obrigatório")
	}
	if utf8.RuneCountInString(saleType) > maxTypeLen {
		return types.SalePatch{}, invalid("type", fmt.Sprintf("Tipo excede %d caracteres", maxTypeLen))
	}
	value, err := ParseValue(in.Value)
	if err != nil {
		return types.SalePatch{}, err
	}
	paymentMethod := strings.TrimSpace(in.PaymentMethod)
	if paymentMethod == "" {
		return types.SalePatch{}, invalid("payment_method", "Forma de pagamento é obrigatória")
	}
	if utf8.RuneCountInString(paymentMethod) > maxPaymentMethodLen {
		return types.SalePatch{}, invalid("payment_method", fmt.Sprintf("Forma de pagamento excede %d caracteres", maxPaymentMethodLen))
	}
	paymentDate, err := ParseDate(in.PaymentDate)
	if err != nil {
		return types.SalePatch{}, err
	}

	return types.SalePatch{
		ProductCode:   &productCode,
		ClientName:    &clientName,
		Type:          &saleType,
		Value:         &value,
		PaymentMethod: &paymentMethod,
		PaymentDate:   &paymentDate,
	}, nil
}

// ParseValue parses a monetary amount and rounds it to cents. A decimal
// comma is accepted when no dot is present.
func ParseValue(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Decimal{}, invalid("value", "Valor é obrigatório")
	}
	if !strings.Contains(raw, ".") {
		raw = strings.Replace(raw, ",", ".", 1)
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, invalid("value", "Valor inválido")
	}
	value = value.Round(2)
	if !value.IsPositive() {
		return decimal.Decimal{}, invalid("value", "Valor deve ser positivo")
	}
	if value.GreaterThanOrEqual(maxSaleValue) {
		return decimal.Decimal{}, invalid("value", "Valor excede o limite permitido")
	}
	return value, nil
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp and returns the
// calendar date at midnight UTC.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, invalid("payment_date", "Data do pagamento é obrigatória")
	}
	t, err := time.Parse(types.DateLayout, raw)
	if err != nil {
		t, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, invalid("payment_date", "Data do pagamento inválida")
		}
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// ReportResult is a filtered view over a reseller's sales.
type ReportResult struct {
	Sales          []types.Sale
	Summary        report.Summary
	PaymentMethods []string
}

// SaleService encapsulates sale use-cases. Owner-scoped methods take the
// caller's user id; the *Any variants are for admins.
type SaleService struct {
	repo   SaleRepository
	events EventPublisher
}

func NewSaleService(repo SaleRepository, events EventPublisher) *SaleService {
	return &SaleService{repo: repo, events: publisherOrNoop(events)}
}

func (s *SaleService) Create(ctx context.Context, ownerID int, in SaleInput) (types.Sale, error) {
	patch, err := in.Validate()
	if err != nil {
		return types.Sale{}, err
	}

	sale, err := s.repo.Create(ctx, types.Sale{
		UserID:        ownerID,
		ProductCode:   *patch.ProductCode,
		ClientName:    *patch.ClientName,
		Type:          *patch.Type,
		Value:         *patch.Value,
		PaymentMethod: *patch.PaymentMethod,
		PaymentDate:   *patch.PaymentDate,
	})
	if err != nil {
		return types.Sale{}, err
	}

	s.events.Publish(ctx, EventSaleCreated, ownerID, map[string]any{
		"sale_id": sale.ID,
		"value":   sale.Value.StringFixed(2),
	})
	return sale, nil
}

func (s *SaleService) List(ctx context.Context, ownerID int) ([]types.Sale, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Stats summarizes all of the owner's sales.
func (s *SaleService) Stats(ctx context.Context, ownerID int) (report.Summary, error) {
	sales, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return report.Summary{}, err
	}
	return report.Summarize(sales), nil
}

// Report filters the owner's sales and summarizes the result. Payment
// methods are collected before filtering so they can populate a picker.
func (s *SaleService) Report(ctx context.Context, ownerID int, filter report.Filter) (ReportResult, error) {
	sales, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return ReportResult{}, err
	}
	filtered := filter.Apply(sales)
	return ReportResult{
		Sales:          filtered,
		Summary:        report.Summarize(filtered),
		PaymentMethods: report.PaymentMethods(sales),
	}, nil
}

// ExportReport renders the filtered report as a workbook.
func (s *SaleService) ExportReport(ctx context.Context, ownerID int, filter report.Filter, now time.Time) (export.File, error) {
	result, err := s.Report(ctx, ownerID, filter)
	if err != nil {
		return export.File{}, err
	}
	if len(result.Sales) == 0 {
		return export.File{}, invalid("", "Nenhuma venda para exportar")
	}
	file, err := export.Report(result.Sales, result.Summary, now)
	if err != nil {
		return export.File{}, fmt.Errorf("build report workbook: %w", err)
	}
	return file, nil
}

func (s *SaleService) Update(ctx context.Context, ownerID, id int, in SaleInput) error {
	patch, err := in.Validate()
	if err != nil {
		return err
	}
	if err := s.repo.Update(ctx, id, ownerID, patch); err != nil {
		return err
	}
	s.events.Publish(ctx, EventSaleUpdated, ownerID, map[string]any{"sale_id": id})
	return nil
}

func (s *SaleService) Delete(ctx context.Context, ownerID, id int) error {
	if err := s.repo.Delete(ctx, id, ownerID); err != nil {
		return err
	}
	s.events.Publish(ctx, EventSaleDeleted, ownerID, map[string]any{"sale_id": id})
	return nil
}

// ListAll returns every user's sales.
func (s *SaleService) ListAll(ctx context.Context) ([]types.Sale, error) {
	return s.repo.ListAll(ctx)
}

// ListByUser returns one user's sales without scoping to the caller.
func (s *SaleService) ListByUser(ctx context.Context, userID int) ([]types.Sale, error) {
	return s.repo.ListByOwner(ctx, userID)
}

// StatsAny summarizes one user's sales, or everyone's when userID is zero.
func (s *SaleService) StatsAny(ctx context.Context, userID int) (report.Summary, error) {
	var (
		sales []types.Sale
		err   error
	)
	if userID == 0 {
		sales, err = s.repo.ListAll(ctx)
	} else {
		sales, err = s.repo.ListByOwner(ctx, userID)
	}
	if err != nil {
		return report.Summary{}, err
	}
	return report.Summarize(sales), nil
}

func (s *SaleService) UpdateAny(ctx context.Context, actorID, id int, in SaleInput) error {
	patch, err := in.Validate()
	if err != nil {
		return err
	}
	if err := s.repo.UpdateAny(ctx, id, patch); err != nil {
		return err
	}
	s.events.Publish(ctx, EventSaleUpdated, actorID, map[string]any{"sale_id": id, "admin": true})
	return nil
}

func (s *SaleService) DeleteAny(ctx context.Context, actorID, id int) error {
	if err := s.repo.DeleteAny(ctx, id); err != nil {
		return err
	}
	s.events.Publish(ctx, EventSaleDeleted, actorID, map[string]any{"sale_id": id, "admin": true})
	return nil
}
