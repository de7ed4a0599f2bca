package api

import (
	"context"
	"net/http"
	"strconv"
	"sync"

	"github.com/moneta-finance/moneta/pkg/session"
)

// ClientStub is an in-memory Client for tests of code built on top of the
// API client. Login stores the token in the session like the real client.
type ClientStub struct {
	mu      sync.RWMutex
	session *session.Session

	users        map[string]RegisterRequest // email -> registration
	transactions []Transaction
	categories   []Category
	budgets      []Budget
	summaries    map[[2]int]MonthlySummary
	breakdowns   map[[2]int]CategoryBreakdown
	export       []byte
	nextId       int

	errs  map[string]error
	calls map[string]int
}

func NewClientStub(s *session.Session) *ClientStub {
	c := &ClientStub{session: s}
	c.reset()
	return c
}

func (c *ClientStub) reset() {
	c.users = make(map[string]RegisterRequest)
	c.transactions = nil
	c.categories = nil
	c.budgets = nil
	c.summaries = make(map[[2]int]MonthlySummary)
	c.breakdowns = make(map[[2]int]CategoryBreakdown)
	c.export = nil
	c.nextId = 0
	c.errs = make(map[string]error)
	c.calls = make(map[string]int)
}

// call records an invocation of op and returns the configured error for it.
func (c *ClientStub) call(op string) error {
	c.calls[op]++
	return c.errs[op]
}

func (c *ClientStub) newId() string {
	c.nextId++
	return strconv.Itoa(c.nextId)
}

func (c *ClientStub) Register(ctx context.Context, req RegisterRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.call("Register"); err != nil {
		return "", err
	}
	if _, exists := c.users[req.Email]; exists {
		return "", &Error{Status: http.StatusConflict, Message: "User with this email already exists"}
	}
	c.users[req.Email] = req
	return "User registered successfully", nil
}

func (c *ClientStub) Login(ctx context.Context, creds Credentials) (string, error) {
	c.mu.Lock()
	if err := c.call("Login"); err != nil {
		c.mu.Unlock()
		return "", err
	}
	user, exists := c.users[creds.Email]
	if !exists {
		c.mu.Unlock()
		return "", &Error{Status: http.StatusNotFound, Message: "User not found"}
	}
	if user.Password != creds.Password {
		c.mu.Unlock()
		return "", &Error{Status: http.StatusUnauthorized, Message: "Invalid credentials"}
	}
	token := "token-" + c.newId()
	c.mu.Unlock()

	if err := c.session.SetToken(ctx, token); err != nil {
		return "", err
	}
	return token, nil
}

func (c *ClientStub) Logout(ctx context.Context) error {
	c.mu.Lock()
	c.calls["Logout"]++
	c.mu.Unlock()
	return c.session.ClearToken(ctx)
}

func (c *ClientStub) ListTransactions(ctx context.Context) ([]Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.call("ListTransactions"); err != nil {
		return nil, err
	}
	result := make([]Transaction, len(c.transactions))
	copy(result, c.transactions)
	return result, nil
}

func (c *ClientStub) AddTransaction(ctx context.Context, tx Transaction) (Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.call("AddTransaction"); err != nil {
		return Transaction{}, err
	}
	tx.Id = c.newId()
	c.transactions = append(c.transactions, tx)
	return tx, nil
}

func (c *ClientStub) UpdateTransaction(ctx context.Context, id string, tx Transaction) (Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.call("UpdateTransaction"); err != nil {
		return Transaction{}, err
	}
	for i := range c.transactions {
		if c.transactions[i].Id == id {
			tx.Id = id
			c.transactions[i] = tx
			return tx, nil
		}
	}
	return Transaction{}, &Error{Status: http.StatusNotFound, Message: "Transaction not found"}
}

func (c *ClientStub) DeleteTransaction(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.call("DeleteTransaction"); err != nil {
		return err
	}
	for i := range c.transactions {
		if c.transactions[i].Id == id {
			c.transactions = append(c.transactions[:i], c.transactions[i+1:]...)
			return nil
		}
	}
	return &Error{Status: http.StatusNotFound, Message: "Transaction not found"}
}

func (c *ClientStub) ListCategories(ctx context.Context) ([]Category, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.call("ListCategories"); err != nil {
		return nil, err
	}
	result := make([]Category, len(c.categories))
	copy(result, c.categories)
	return result, nil
}

func (c *ClientStub) CreateCategory(ctx context.Context, name string) (Category, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.call("CreateCategory"); err != nil {
		return Category{}, err
	}
	category := Category{Id: c.newId(), Name: name}
	c.categories = append(c.categories, category)
	return category, nil
}

func (c *ClientStub) ListBudgets(ctx context.Context) ([]Budget, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.call("ListBudgets"); err != nil {
		return nil, err
	}
	result := make([]Budget, len(c.budgets))
	copy(result, c.budgets)
	return result, nil
}

func (c *ClientStub) ListBudgetsForMonth(ctx context.Context, year, month int) ([]Budget, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.call("ListBudgetsForMonth"); err != nil {
		return nil, err
	}
	result := make([]Budget, 0)
	for _, b := range c.budgets {
		if b.Year == year && b.Month == month {
			result = append(result, b)
		}
	}
	return result, nil
}

func (c *ClientStub) budgetFromRequest(req BudgetRequest) Budget {
	b := Budget{
		MonthlyLimit:  req.MonthlyLimit,
		Year:          req.Year,
		Month:         req.Month,
		AllowRollover: req.AllowRollover,
		PreventExceed: req.PreventExceed,
	}
	if req.CategoryId != "" {
		b.Category = &Category{Id: req.CategoryId}
		for _, cat := range c.categories {
			if cat.Id == req.CategoryId {
				b.Category.Name = cat.Name
			}
		}
	}
	return b
}

func (c *ClientStub) CreateBudget(ctx context.Context, req BudgetRequest) (Budget, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.call("CreateBudget"); err != nil {
		return Budget{}, err
	}
	b := c.budgetFromRequest(req)
	b.Id = c.newId()
	c.budgets = append(c.budgets, b)
	return b, nil
}

func (c *ClientStub) UpdateBudget(ctx context.Context, id string, req BudgetRequest) (Budget, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.call("UpdateBudget"); err != nil {
		return Budget{}, err
	}
	for i := range c.budgets {
		if c.budgets[i].Id == id {
			b := c.budgetFromRequest(req)
			b.Id = id
			c.budgets[i] = b
			return b, nil
		}
	}
	return Budget{}, &Error{Status: http.StatusNotFound, Message: "Budget not found"}
}

func (c *ClientStub) DeleteBudget(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.call("DeleteBudget"); err != nil {
		return err
	}
	for i := range c.budgets {
		if c.budgets[i].Id == id {
			c.budgets = append(c.budgets[:i], c.budgets[i+1:]...)
			return nil
		}
	}
	return &Error{Status: http.StatusNotFound, Message: "Budget not found"}
}

func (c *ClientStub) GetBudgetStatus(ctx context.Context, year, month int) (BudgetStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.call("GetBudgetStatus"); err != nil {
		return BudgetStatus{}, err
	}
	return BudgetStatus{OverallStatus: BudgetSafe}, nil
}

func (c *ClientStub) GetMonthlySummary(ctx context.Context, year, month int) (MonthlySummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.call("GetMonthlySummary"); err != nil {
		return MonthlySummary{}, err
	}
	return c.summaries[[2]int{year, month}], nil
}

func (c *ClientStub) GetCategoryBreakdown(ctx context.Context, year, month int) (CategoryBreakdown, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.call("GetCategoryBreakdown"); err != nil {
		return nil, err
	}
	result := CategoryBreakdown{}
	for k, v := range c.breakdowns[[2]int{year, month}] {
		result[k] = v
	}
	return result, nil
}

func (c *ClientStub) ExportExcel(ctx context.Context) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.call("ExportExcel"); err != nil {
		return nil, err
	}
	return append([]byte(nil), c.export...), nil
}

// Helper methods for test setup

func (c *ClientStub) SetSummary(year, month int, summary MonthlySummary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summaries[[2]int{year, month}] = summary
}

func (c *ClientStub) SetBreakdown(year, month int, breakdown CategoryBreakdown) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.breakdowns[[2]int{year, month}] = breakdown
}

func (c *ClientStub) SetBudgets(budgets []Budget) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.budgets = make([]Budget, len(budgets))
	copy(c.budgets, budgets)
}

func (c *ClientStub) SetCategories(categories []Category) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.categories = make([]Category, len(categories))
	copy(c.categories, categories)
}

func (c *ClientStub) SetExport(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.export = append([]byte(nil), data...)
}

// SetError makes every later call of op (a Client method name) fail with err.
// A nil err clears it.
func (c *ClientStub) SetError(op string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.errs, op)
		return
	}
	c.errs[op] = err
}

// Calls returns how many times op was invoked.
func (c *ClientStub) Calls(op string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.calls[op]
}

// Reset clears all data
func (c *ClientStub) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

var _ Client = (*ClientStub)(nil)
