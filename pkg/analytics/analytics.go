package analytics

import (
	"sort"

	"github.com/moneta-finance/moneta/pkg/api"
	"github.com/moneta-finance/moneta/pkg/budget_alert"
	"github.com/shopspring/decimal"
)

// Report is everything the analytics view shows for one month.
type Report struct {
	Year      int
	Month     int
	Summary   api.MonthlySummary
	Breakdown api.CategoryBreakdown
	Budgets   []api.Budget
	Alerts    []budget_alert.BudgetAlert
}

// Categories returns the names present in the breakdown, sorted.
func (r Report) Categories() []string {
	return r.Breakdown.Names()
}

// CategoryStats joins a category's spend with the budget set for it.
type CategoryStats struct {
	Name      string
	Spent     decimal.Decimal
	Limit     decimal.Decimal
	HasBudget bool
}

func (c CategoryStats) Remaining() decimal.Decimal {
	return c.Limit.Sub(c.Spent)
}

// CategoryStats lists every category that has spending or a category budget,
// sorted by name. When a category has several budgets the last one wins.
func (r Report) CategoryStats() []CategoryStats {
	byName := make(map[string]*CategoryStats)
	for _, name := range r.Categories() {
		byName[name] = &CategoryStats{Name: name, Spent: r.Breakdown.Spent(name)}
	}
	for _, b := range r.Budgets {
		if b.IsGeneral() || b.Category.Name == "" {
			continue
		}
		name := b.Category.Name
		stats, ok := byName[name]
		if !ok {
			stats = &CategoryStats{Name: name, Spent: decimal.Zero}
			byName[name] = stats
		}
		stats.Limit = b.MonthlyLimit
		stats.HasBudget = true
	}

	result := make([]CategoryStats, 0, len(byName))
	for _, stats := range byName {
		result = append(result, *stats)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}
