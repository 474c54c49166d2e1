// Package export renders sales into the two-sheet workbooks resellers
// download: a "Vendas" sheet with one row per sale and a "Resumo" sheet
// of metric/value pairs.
package export

import (
	"fmt"
	"time"

	"github.com/barklazza/projeto-vendas/internal/report"
	"github.com/barklazza/projeto-vendas/types"
	"github.com/xuri/excelize/v2"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	SalesSheet   = "Vendas"
	SummarySheet = "Resumo"

	dateLayout     = "02/01/2006"
	dateTimeLayout = "02/01/2006 15:04:05"
)

var salesHeader = []any{
	"Código do Produto",
	"Cliente",
	"Tipo",
	"Valor",
	"Forma de Pagamento",
	"Data do Pagamento",
}

var summaryHeader = []any{"Métrica", "Valor"}

// File is a generated workbook ready to be sent or archived.
type File struct {
	Name string
	Data []byte
}

// Size returns the workbook size in bytes.
func (f File) Size() int64 {
	return int64(len(f.Data))
}

// ReportFileName is the download name of a report generated at now.
func ReportFileName(now time.Time) string {
	return "relatorio_vendas_" + now.Format("02-01-2006") + ".xlsx"
}

// BackupFileName is the download name of a backup generated at now.
func BackupFileName(now time.Time) string {
	return "backup_vendas_" + now.Format("02-01-2006_15-04-05") + ".xlsx"
}

// Report builds the sales report workbook with gross, commission and count.
func Report(sales []types.Sale, summary report.Summary, now time.Time) (File, error) {
	rows := [][]any{
		{"Total Bruto", summary.Gross.Round(2).InexactFloat64()},
		{"Comissão (30%)", summary.Commission.InexactFloat64()},
		{"Quantidade de Vendas", summary.Count},
	}
	data, err := build(sales, rows)
	if err != nil {
		return File{}, err
	}
	return File{Name: ReportFileName(now), Data: data}, nil
}

// Backup builds the full backup workbook of sales.
func Backup(sales []types.Sale, now time.Time) (File, error) {
	rows := [][]any{
		{"Total de Vendas", len(sales)},
		{"Data do Backup", now.Format(dateTimeLayout)},
	}
	data, err := build(sales, rows)
	if err != nil {
		return File{}, err
	}
	return File{Name: BackupFileName(now), Data: data}, nil
}

func build(sales []types.Sale, summary [][]any) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName(f.GetSheetName(0), SalesSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeRows(f, SalesSheet, salesHeader, salesRows(sales)); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return nil, fmt.Errorf("create summary sheet: %w", err)
	}
	if err := writeRows(f, SummarySheet, summaryHeader, summary); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func salesRows(sales []types.Sale) [][]any {
	rows := make([][]any, 0, len(sales))
	for _, sale := range sales {
		rows = append(rows, []any{
			sale.ProductCode,
			sale.ClientName,
			sale.Type,
			sale.Value.Round(2).InexactFloat64(),
			sale.PaymentMethod,
			sale.PaymentDate.Format(dateLayout),
		})
	}
	return rows
}

func writeRows(f *excelize.File, sheet string, header []any, rows [][]any) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
