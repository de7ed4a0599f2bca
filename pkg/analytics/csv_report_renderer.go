package analytics

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type CsvReportRendererImpl struct {
}

func NewCsvReportRenderer() *CsvReportRendererImpl {
	return &CsvReportRendererImpl{}
}

// RenderReport lays the report out as one column per category followed by a
// SUM column, then the month totals.
func (t *CsvReportRendererImpl) RenderReport(report Report) (string, error) {
	categories := report.CategoryStats()

	names := make([]string, 0, len(categories)+2)
	names = append(names, fmt.Sprintf("%d-%02d", report.Year, report.Month))
	spent := make([]string, 0, len(categories)+2)
	spent = append(spent, "Spent")
	limits := make([]string, 0, len(categories)+2)
	limits = append(limits, "Limit")
	remaining := make([]string, 0, len(categories)+2)
	remaining = append(remaining, "Remaining")

	totalSpent, totalLimit := decimal.Zero, decimal.Zero
	for _, c := range categories {
		names = append(names, c.Name)
		spent = append(spent, amountToString(c.Spent))
		totalSpent = totalSpent.Add(c.Spent)
		if c.HasBudget {
			limits = append(limits, amountToString(c.Limit))
			remaining = append(remaining, amountToString(c.Remaining()))
			totalLimit = totalLimit.Add(c.Limit)
		} else {
			limits = append(limits, "")
			remaining = append(remaining, "")
		}
	}
	names = append(names, "SUM")
	spent = append(spent, amountToString(totalSpent))
	limits = append(limits, amountToString(totalLimit))
	remaining = append(remaining, amountToString(totalLimit.Sub(totalSpent)))

	data := [][]string{
		names, spent, limits, remaining,
		{"Income", amountToString(report.Summary.Income)},
		{"Expense", amountToString(report.Summary.Expense)},
		{"Net", amountToString(report.Summary.Net)},
	}

	var b bytes.Buffer
	writer := csv.NewWriter(&b)
	for _, row := range data {
		err := writer.Write(row)
		if err != nil {
			log.Errorf("Error writing to csv: %v", err)
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Errorf("Error writing to csv: %v", err)
		return "", err
	}

	return b.String(), nil
}

func amountToString(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
