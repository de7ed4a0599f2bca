package budget_alert

import (
	"testing"

	"github.com/moneta-finance/moneta/pkg/api"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func categoryBudget(name string, limit int64) api.Budget {
	return api.Budget{
		Id:           name,
		Category:     &api.Category{Id: "cat-" + name, Name: name},
		MonthlyLimit: decimal.NewFromInt(limit),
	}
}

func generalBudget(limit int64) api.Budget {
	return api.Budget{Id: "general", MonthlyLimit: decimal.NewFromInt(limit)}
}

func TestEvaluate(t *testing.T) {
	t.Run("only the overspent category alerts", func(t *testing.T) {
		breakdown := api.CategoryBreakdown{
			"Food": decimal.NewFromInt(120),
			"Rent": decimal.NewFromInt(900),
		}
		budgets := []api.Budget{categoryBudget("Food", 100), categoryBudget("Rent", 1000), generalBudget(500)}

		alerts := Evaluate(breakdown, budgets)

		assert.Len(t, alerts, 1)
		assert.Equal(t, "Food", alerts[0].Category)
		assert.True(t, decimal.NewFromInt(120).Equal(alerts[0].Spent))
		assert.True(t, decimal.NewFromInt(100).Equal(alerts[0].Limit))
	})

	t.Run("category missing from breakdown counts as zero spend", func(t *testing.T) {
		breakdown := api.CategoryBreakdown{"Food": decimal.NewFromInt(50)}
		budgets := []api.Budget{categoryBudget("Travel", 0), categoryBudget("Travel", 10)}

		alerts := Evaluate(breakdown, budgets)

		assert.Empty(t, alerts)
	})

	t.Run("spend equal to the limit does not alert", func(t *testing.T) {
		breakdown := api.CategoryBreakdown{"Food": decimal.RequireFromString("100.00")}

		alerts := Evaluate(breakdown, []api.Budget{categoryBudget("Food", 100)})

		assert.Empty(t, alerts)
	})

	t.Run("general budgets never alert", func(t *testing.T) {
		breakdown := api.CategoryBreakdown{"Food": decimal.NewFromInt(10000), "Uncategorized": decimal.NewFromInt(10000)}

		alerts := Evaluate(breakdown, []api.Budget{generalBudget(1), generalBudget(0)})

		assert.Empty(t, alerts)
	})

	t.Run("budget whose category has no name is skipped", func(t *testing.T) {
		breakdown := api.CategoryBreakdown{"": decimal.NewFromInt(500), "Food": decimal.NewFromInt(120)}
		budgets := []api.Budget{
			{Id: "unnamed", Category: &api.Category{Id: "cat-1"}, MonthlyLimit: decimal.NewFromInt(1)},
			categoryBudget("Food", 100),
		}

		alerts := Evaluate(breakdown, budgets)

		assert.Len(t, alerts, 1)
		assert.Equal(t, "Food", alerts[0].Category)
	})

	t.Run("alerts follow budget order and keep duplicates", func(t *testing.T) {
		breakdown := api.CategoryBreakdown{
			"Food":   decimal.NewFromInt(120),
			"Fun":    decimal.NewFromInt(80),
			"Travel": decimal.RequireFromString("10.01"),
		}
		budgets := []api.Budget{
			categoryBudget("Travel", 10),
			categoryBudget("Food", 100),
			categoryBudget("Fun", 50),
			categoryBudget("Food", 110),
		}

		alerts := Evaluate(breakdown, budgets)

		var names []string
		for _, a := range alerts {
			names = append(names, a.Category)
		}
		assert.Equal(t, []string{"Travel", "Food", "Fun", "Food"}, names)
		assert.True(t, decimal.NewFromInt(110).Equal(alerts[3].Limit))
	})

	t.Run("empty inputs", func(t *testing.T) {
		assert.Empty(t, Evaluate(nil, nil))
		assert.NotNil(t, Evaluate(api.CategoryBreakdown{}, nil))
	})
}

func TestFormatNotice(t *testing.T) {
	alerts := []BudgetAlert{
		{Category: "Food", Spent: decimal.NewFromInt(120), Limit: decimal.NewFromInt(100)},
		{Category: "Fun", Spent: decimal.RequireFromString("80.5"), Limit: decimal.NewFromInt(50)},
	}

	notice := FormatNotice(alerts)

	assert.Equal(t, "Budget exceeded in:\n\nFood: spent 120 / limit 100\nFun: spent 80.5 / limit 50", notice)
	assert.Empty(t, FormatNotice(nil))
}
