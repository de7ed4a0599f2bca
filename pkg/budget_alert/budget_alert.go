package budget_alert

import (
	"fmt"
	"strings"

	"github.com/moneta-finance/moneta/pkg/api"
	"github.com/shopspring/decimal"
)

// BudgetAlert reports a category whose spending went over its monthly limit.
type BudgetAlert struct {
	Category string
	Spent    decimal.Decimal
	Limit    decimal.Decimal
}

func (a BudgetAlert) String() string {
	return fmt.Sprintf("%s: spent %s / limit %s", a.Category, a.Spent.String(), a.Limit.String())
}

// Evaluate returns an alert for every category budget whose limit is strictly
// below the category's spend in breakdown. Alerts follow the order of budgets
// and are not deduplicated. General budgets and budgets whose category carries
// no name never alert.
func Evaluate(breakdown api.CategoryBreakdown, budgets []api.Budget) []BudgetAlert {
	alerts := make([]BudgetAlert, 0)
	for _, budget := range budgets {
		if budget.IsGeneral() || budget.Category.Name == "" {
			continue
		}
		name := budget.Category.Name
		spent := breakdown.Spent(name)
		if spent.GreaterThan(budget.MonthlyLimit) {
			alerts = append(alerts, BudgetAlert{
				Category: name,
				Spent:    spent,
				Limit:    budget.MonthlyLimit,
			})
		}
	}
	return alerts
}

// FormatNotice renders alerts as a user notice, or "" when there are none.
func FormatNotice(alerts []BudgetAlert) string {
	if len(alerts) == 0 {
		return ""
	}
	lines := make([]string, 0, len(alerts))
	for _, alert := range alerts {
		lines = append(lines, alert.String())
	}
	return "Budget exceeded in:\n\n" + strings.Join(lines, "\n")
}
