package analytics

import (
	"testing"

	"github.com/moneta-finance/moneta/pkg/api"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCsvReportRendererImpl_RenderReport(t *testing.T) {
	tests := []struct {
		name   string
		report Report
		want   string
	}{
		{
			name: "categories with and without budgets",
			report: Report{
				Year:  2024,
				Month: 3,
				Summary: api.MonthlySummary{
					Income:  decimal.NewFromInt(3000),
					Expense: decimal.RequireFromString("1020.5"),
					Net:     decimal.RequireFromString("1979.5"),
				},
				Breakdown: api.CategoryBreakdown{
					"Food": decimal.RequireFromString("120.5"),
					"Rent": decimal.NewFromInt(900),
				},
				Budgets: []api.Budget{budget("Food", 100, 0, 0)},
			},
			want: "2024-03,Food,Rent,SUM\n" +
				"Spent,120.50,900.00,1020.50\n" +
				"Limit,100.00,,100.00\n" +
				"Remaining,-20.50,,-920.50\n" +
				"Income,3000.00\n" +
				"Expense,1020.50\n" +
				"Net,1979.50\n",
		},
		{
			name:   "empty month",
			report: Report{Year: 2024, Month: 11},
			want: "2024-11,SUM\n" +
				"Spent,0.00\n" +
				"Limit,0.00\n" +
				"Remaining,0.00\n" +
				"Income,0.00\n" +
				"Expense,0.00\n" +
				"Net,0.00\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewCsvReportRenderer().RenderReport(tt.report)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
