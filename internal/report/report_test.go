package report

import (
	"testing"
	"time"

	"github.com/barklazza/projeto-vendas/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sale(id int, client, method, value string, date time.Time) types.Sale {
	return types.Sale{
		ID:            id,
		ClientName:    client,
		PaymentMethod: method,
		Value:         decimal.RequireFromString(value),
		PaymentDate:   date,
	}
}

func fixture() []types.Sale {
	return []types.Sale{
		sale(1, "João Silva", "PIX", "150.00", day(2024, 3, 1)),
		sale(2, "Maria Souza", "Cartão", "89.90", day(2024, 3, 5)),
		sale(3, "joão pedro", "PIX", "10.01", day(2024, 3, 31)),
		sale(4, "Ana", "Dinheiro", "0.05", day(2024, 4, 1)),
	}
}

func TestSummarize_SingleSale(t *testing.T) {
	s := Summarize([]types.Sale{sale(1, "João Silva", "PIX", "150.00", day(2024, 3, 1))})

	assert.Equal(t, "150.00", s.Gross.StringFixed(2))
	assert.Equal(t, "45.00", s.Commission.StringFixed(2))
	assert.Equal(t, "105.00", s.Net.StringFixed(2))
	assert.Equal(t, 1, s.Count)
	require.Contains(t, s.ByPaymentMethod, "PIX")
	assert.Equal(t, "150.00", s.ByPaymentMethod["PIX"].StringFixed(2))
}

func TestSummarize_CommissionPlusNetIsGross(t *testing.T) {
	s := Summarize(fixture())

	assert.Equal(t, "249.96", s.Gross.StringFixed(2))
	assert.True(t, s.Commission.Add(s.Net).Equal(s.Gross))
	assert.Equal(t, "74.99", s.Commission.StringFixed(2))
	assert.Equal(t, 4, s.Count)
	assert.Len(t, s.ByPaymentMethod, 3)
	assert.Equal(t, "160.01", s.ByPaymentMethod["PIX"].StringFixed(2))
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)

	assert.True(t, s.Gross.IsZero())
	assert.True(t, s.Commission.IsZero())
	assert.True(t, s.Net.IsZero())
	assert.Zero(t, s.Count)
	assert.NotNil(t, s.ByPaymentMethod)
}

func TestFilter_Apply(t *testing.T) {
	start := day(2024, 3, 5)
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.FixedZone("BRT", -3*3600))

	tests := []struct {
		name   string
		filter Filter
		want   []int
	}{
		{name: "zero keeps all", filter: Filter{}, want: []int{1, 2, 3, 4}},
		{name: "payment method exact", filter: Filter{PaymentMethod: "PIX"}, want: []int{1, 3}},
		{name: "payment method is case sensitive", filter: Filter{PaymentMethod: "pix"}, want: []int{}},
		{name: "client substring ignores case", filter: Filter{ClientName: "JOÃO"}, want: []int{1, 3}},
		{name: "start inclusive", filter: Filter{StartDate: &start}, want: []int{2, 3, 4}},
		{name: "end inclusive through the day", filter: Filter{EndDate: &end}, want: []int{1, 2, 3}},
		{name: "combined", filter: Filter{PaymentMethod: "PIX", StartDate: &start, EndDate: &end}, want: []int{3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Apply(fixture())
			ids := make([]int, 0, len(got))
			for _, s := range got {
				ids = append(ids, s.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestFilter_Idempotent(t *testing.T) {
	start := day(2024, 3, 2)
	f := Filter{ClientName: "a", StartDate: &start}

	once := f.Apply(fixture())
	twice := f.Apply(once)
	assert.Equal(t, once, twice)
}

func TestUnfilteredMatchesSummary(t *testing.T) {
	all := fixture()
	assert.Equal(t, Summarize(all), Summarize(Filter{}.Apply(all)))
	assert.True(t, Filter{}.IsZero())
	assert.False(t, Filter{ClientName: "x"}.IsZero())
}

func TestPaymentMethods(t *testing.T) {
	assert.Equal(t, []string{"PIX", "Cartão", "Dinheiro"}, PaymentMethods(fixture()))
	assert.Empty(t, PaymentMethods(nil))
}
