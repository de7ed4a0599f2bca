package api

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// the backend models amounts as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

type TransactionType string

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToUpper(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	}
	return "", fmt.Errorf("%w: transaction type must be INCOME or EXPENSE, got %q", ErrValidation, s)
}

const DateLayout = "2006-01-02"

// Date is a calendar date without time of day, serialised as YYYY-MM-DD.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func Today(now time.Time) Date {
	return NewDate(now.Year(), now.Month(), now.Day())
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", ErrValidation, s)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	// tolerate full timestamps from backends that serialise LocalDateTime
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return err
	}
	*d = Date{t}
	return nil
}

type Category struct {
	Id   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type Transaction struct {
	Id       string          `json:"id,omitempty"`
	Amount   decimal.Decimal `json:"amount"`
	Type     TransactionType `json:"type"`
	Date     Date            `json:"date"`
	Note     string          `json:"note,omitempty"`
	Category *Category       `json:"category,omitempty"`
}

// CategoryName returns the display name of the transaction's category.
func (t Transaction) CategoryName() string {
	if t.Category == nil || t.Category.Name == "" {
		return "Uncategorized"
	}
	return t.Category.Name
}

type Budget struct {
	Id            string          `json:"id"`
	Category      *Category       `json:"category"`
	MonthlyLimit  decimal.Decimal `json:"monthlyLimit"`
	Year          int             `json:"year,omitempty"`
	Month         int             `json:"month,omitempty"`
	AllowRollover bool            `json:"allowRollover,omitempty"`
	PreventExceed bool            `json:"preventExceed,omitempty"`
}

// IsGeneral reports whether the budget applies to all spending rather than
// to a single category.
func (b Budget) IsGeneral() bool {
	return b.Category == nil
}

func (b Budget) CategoryName() string {
	if b.Category == nil || b.Category.Name == "" {
		return "General"
	}
	return b.Category.Name
}

// BudgetRequest creates or updates a budget. An empty CategoryId creates a
// general budget.
type BudgetRequest struct {
	CategoryId    string          `json:"categoryId,omitempty"`
	MonthlyLimit  decimal.Decimal `json:"monthlyLimit"`
	Year          int             `json:"year,omitempty"`
	Month         int             `json:"month,omitempty"`
	AllowRollover bool            `json:"allowRollover,omitempty"`
	PreventExceed bool            `json:"preventExceed,omitempty"`
}

type MonthlySummary struct {
	Year    int             `json:"year,omitempty"`
	Month   int             `json:"month,omitempty"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

// CategoryBreakdown maps a category name to the amount spent on it.
type CategoryBreakdown map[string]decimal.Decimal

// Spent returns the amount recorded for name, zero when absent.
func (b CategoryBreakdown) Spent(name string) decimal.Decimal {
	if v, ok := b[name]; ok {
		return v
	}
	return decimal.Zero
}

// Names returns the category names in alphabetical order.
func (b CategoryBreakdown) Names() []string {
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type BudgetStatusLevel string

const (
	BudgetSafe     BudgetStatusLevel = "SAFE"
	BudgetWarning  BudgetStatusLevel = "WARNING"
	BudgetExceeded BudgetStatusLevel = "EXCEEDED"
)

// BudgetStatus is the server-side evaluation of budgets for one month.
type BudgetStatus struct {
	OverallStatus          BudgetStatusLevel      `json:"overallStatus"`
	OverallBudget          decimal.Decimal        `json:"overallBudget"`
	OverallSpent           decimal.Decimal        `json:"overallSpent"`
	OverallRemaining       decimal.Decimal        `json:"overallRemaining"`
	OverallUsagePercentage decimal.Decimal        `json:"overallUsagePercentage"`
	CategoryBudgets        []CategoryBudgetStatus `json:"categoryBudgets"`
	Alerts                 []BudgetStatusAlert    `json:"alerts"`
}

type CategoryBudgetStatus struct {
	CategoryId      string            `json:"categoryId"`
	CategoryName    string            `json:"categoryName"`
	Budget          decimal.Decimal   `json:"budget"`
	Spent           decimal.Decimal   `json:"spent"`
	Remaining       decimal.Decimal   `json:"remaining"`
	UsagePercentage decimal.Decimal   `json:"usagePercentage"`
	Status          BudgetStatusLevel `json:"status"`
}

type BudgetStatusAlert struct {
	Type      string          `json:"type"`
	Message   string          `json:"message"`
	Severity  string          `json:"severity"`
	Threshold decimal.Decimal `json:"threshold"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type messageResponse struct {
	Message string `json:"message"`
}
