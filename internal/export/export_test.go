package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/barklazza/projeto-vendas/internal/report"
	"github.com/barklazza/projeto-vendas/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleSales() []types.Sale {
	return []types.Sale{
		{
			ProductCode:   "JOI-001",
			ClientName:    "João Silva",
			Type:          "Anel",
			Value:         decimal.RequireFromString("150.00"),
			PaymentMethod: "PIX",
			PaymentDate:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ProductCode:   "JOI-002",
			ClientName:    "Maria",
			Type:          "Colar",
			Value:         decimal.RequireFromString("89.9"),
			PaymentMethod: "Cartão",
			PaymentDate:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		},
	}
}

func openRows(t *testing.T, data []byte, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SalesSheet, SummarySheet}, f.GetSheetList())

	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestReport(t *testing.T) {
	now := time.Date(2024, 3, 20, 9, 5, 7, 0, time.UTC)
	sales := sampleSales()

	file, err := Report(sales, report.Summarize(sales), now)
	require.NoError(t, err)
	assert.Equal(t, "relatorio_vendas_20-03-2024.xlsx", file.Name)
	assert.Equal(t, int64(len(file.Data)), file.Size())

	rows := openRows(t, file.Data, SalesSheet)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Código do Produto", "Cliente", "Tipo", "Valor", "Forma de Pagamento", "Data do Pagamento"}, rows[0])
	assert.Equal(t, []string{"JOI-001", "João Silva", "Anel", "150", "PIX", "01/03/2024"}, rows[1])
	assert.Equal(t, "89.9", rows[2][3])

	summary := openRows(t, file.Data, SummarySheet)
	assert.Equal(t, [][]string{
		{"Métrica", "Valor"},
		{"Total Bruto", "239.9"},
		{"Comissão (30%)", "71.97"},
		{"Quantidade de Vendas", "2"},
	}, summary)
}

func TestBackup(t *testing.T) {
	now := time.Date(2024, 3, 20, 9, 5, 7, 0, time.UTC)

	file, err := Backup(sampleSales(), now)
	require.NoError(t, err)
	assert.Equal(t, "backup_vendas_20-03-2024_09-05-07.xlsx", file.Name)
	assert.NotZero(t, file.Size())

	summary := openRows(t, file.Data, SummarySheet)
	assert.Equal(t, [][]string{
		{"Métrica", "Valor"},
		{"Total de Vendas", "2"},
		{"Data do Backup", "20/03/2024 09:05:07"},
	}, summary)
}

func TestBackup_NoSalesStillHasHeaders(t *testing.T) {
	file, err := Backup(nil, time.Now())
	require.NoError(t, err)

	rows := openRows(t, file.Data, SalesSheet)
	require.Len(t, rows, 1)
	assert.Len(t, rows[0], 6)
}
