package test_utils

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// Backend is an in-process finance backend speaking the same JSON API as the
// real server. Tests point an api client at URL().
type Backend struct {
	mu     sync.Mutex
	secret []byte
	users  map[string]*backendUser // email -> user
	data   map[string]*userData    // user id -> owned records
	now    func() time.Time
	hits   map[string]int

	server *httptest.Server
}

type backendUser struct {
	id           string
	name         string
	email        string
	passwordHash []byte
}

type userData struct {
	transactions []transactionDTO
	categories   []categoryDTO
	budgets      []budgetDTO
}

type categoryDTO struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

type transactionDTO struct {
	Id       string          `json:"id"`
	Amount   decimal.Decimal `json:"amount"`
	Type     string          `json:"type"`
	Date     string          `json:"date"`
	Note     string          `json:"note,omitempty"`
	Category *categoryDTO    `json:"category,omitempty"`
}

type budgetDTO struct {
	Id            string          `json:"id"`
	Category      *categoryDTO    `json:"category"`
	MonthlyLimit  decimal.Decimal `json:"monthlyLimit"`
	Year          int             `json:"year"`
	Month         int             `json:"month"`
	AllowRollover bool            `json:"allowRollover"`
	PreventExceed bool            `json:"preventExceed"`
}

type budgetRequestDTO struct {
	CategoryId    string          `json:"categoryId"`
	MonthlyLimit  decimal.Decimal `json:"monthlyLimit"`
	Year          int             `json:"year"`
	Month         int             `json:"month"`
	AllowRollover bool            `json:"allowRollover"`
	PreventExceed bool            `json:"preventExceed"`
}

type userKey struct{}

// NewBackend starts a backend on a random local port. It is shut down when
// the test ends.
func NewBackend(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{
		secret: []byte(uuid.NewString()),
		users:  make(map[string]*backendUser),
		data:   make(map[string]*userData),
		now:    time.Now,
		hits:   make(map[string]int),
	}
	b.server = httptest.NewServer(b.Router())
	t.Cleanup(b.server.Close)
	return b
}

// URL is the API base URL, including the /api prefix.
func (b *Backend) URL() string {
	return b.server.URL + "/api"
}

// SetNow fixes the backend clock used for token expiry and default periods.
func (b *Backend) SetNow(now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.now = func() time.Time { return now }
}

// RevokeTokens invalidates every token issued so far.
func (b *Backend) RevokeTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.secret = []byte(uuid.NewString())
}

// Hits returns how many requests reached the route "METHOD /path".
func (b *Backend) Hits(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[route]
}

// RegisterUser creates an account directly, bypassing the HTTP layer.
func (b *Backend) RegisterUser(t *testing.T, name, email, password string) {
	t.Helper()
	if err := b.register(name, email, password); err != nil {
		t.Fatalf("Failed to register user %s: %v", email, err)
	}
}

func (b *Backend) Router() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.Use(b.countHits)

	api.HandleFunc("/auth/register", b.handleRegister).Methods("POST")
	api.HandleFunc("/auth/login", b.handleLogin).Methods("POST")

	protected := api.NewRoute().Subrouter()
	protected.Use(b.authenticate)
	protected.HandleFunc("/transactions", b.listTransactions).Methods("GET")
	protected.HandleFunc("/transactions", b.createTransaction).Methods("POST")
	protected.HandleFunc("/transactions/{id}", b.updateTransaction).Methods("PUT")
	protected.HandleFunc("/transactions/{id}", b.deleteTransaction).Methods("DELETE")
	protected.HandleFunc("/categories", b.listCategories).Methods("GET")
	protected.HandleFunc("/categories", b.createCategory).Methods("POST")
	protected.HandleFunc("/budgets", b.listBudgets).Methods("GET")
	protected.HandleFunc("/budgets", b.createBudget).Methods("POST")
	protected.HandleFunc("/budgets/month", b.listBudgetsForMonth).Methods("GET")
	protected.HandleFunc("/budgets/status", b.budgetStatus).Methods("GET")
	protected.HandleFunc("/budgets/{id}", b.updateBudget).Methods("PUT")
	protected.HandleFunc("/budgets/{id}", b.deleteBudget).Methods("DELETE")
	protected.HandleFunc("/analytics/monthly-summary", b.monthlySummary).Methods("GET")
	protected.HandleFunc("/analytics/category-breakdown", b.categoryBreakdown).Methods("GET")
	protected.HandleFunc("/export/excel", b.exportExcel).Methods("GET")
	return r
}

func (b *Backend) countHits(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + strings.TrimPrefix(r.URL.Path, "/api")
		b.mu.Lock()
		b.hits[route]++
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !found || raw == "" {
			writeMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		userId, err := b.parseToken(raw)
		if err != nil {
			log.Debugf("rejected token: %v", err)
			writeMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(contextWithUser(r, userId)))
	})
}

func (b *Backend) issueToken(userId string) (string, error) {
	b.mu.Lock()
	now := b.now()
	secret := b.secret
	b.mu.Unlock()

	claims := jwt.RegisteredClaims{
		Subject:   userId,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (b *Backend) parseToken(raw string) (string, error) {
	b.mu.Lock()
	secret := b.secret
	now := b.now
	b.mu.Unlock()

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(now))
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

var errUserExists = errors.New("User with this email already exists")

func (b *Backend) register(name, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return err
	}
	email = strings.ToLower(strings.TrimSpace(email))

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.users[email]; exists {
		return errUserExists
	}
	u := &backendUser{id: uuid.NewString(), name: name, email: email, passwordHash: hash}
	b.users[email] = u
	b.data[u.id] = &userData{}
	return nil
}

func (b *Backend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed request")
		return
	}
	if body.Email == "" || body.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Email and password are required")
		return
	}
	if err := b.register(body.Name, body.Email, body.Password); err != nil {
		if errors.Is(err, errUserExists) {
			writeMessage(w, http.StatusConflict, err.Error())
			return
		}
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeMessage(w, http.StatusCreated, "User registered successfully")
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed request")
		return
	}

	b.mu.Lock()
	u, exists := b.users[strings.ToLower(strings.TrimSpace(body.Email))]
	b.mu.Unlock()
	if !exists {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	if bcrypt.CompareHashAndPassword(u.passwordHash, []byte(body.Password)) != nil {
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	token, err := b.issueToken(u.id)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (b *Backend) listTransactions(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	result := append([]transactionDTO{}, b.userData(r).transactions...)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, result)
}

func (b *Backend) decodeTransaction(w http.ResponseWriter, r *http.Request) (transactionDTO, bool) {
	var tx transactionDTO
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed request")
		return tx, false
	}
	if !tx.Amount.IsPositive() || tx.Date == "" || (tx.Type != "INCOME" && tx.Type != "EXPENSE") {
		writeMessage(w, http.StatusBadRequest, "Invalid transaction")
		return tx, false
	}
	return tx, true
}

// resolveCategory replaces a category reference by the stored category.
func (d *userData) resolveCategory(ref *categoryDTO) (*categoryDTO, bool) {
	if ref == nil || ref.Id == "" {
		return nil, true
	}
	for _, c := range d.categories {
		if c.Id == ref.Id {
			found := c
			return &found, true
		}
	}
	return nil, false
}

func (b *Backend) createTransaction(w http.ResponseWriter, r *http.Request) {
	tx, ok := b.decodeTransaction(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	data := b.userData(r)
	category, ok := data.resolveCategory(tx.Category)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Category not found")
		return
	}
	tx.Category = category
	tx.Id = uuid.NewString()
	data.transactions = append(data.transactions, tx)
	writeJSON(w, http.StatusCreated, tx)
}

func (b *Backend) updateTransaction(w http.ResponseWriter, r *http.Request) {
	tx, ok := b.decodeTransaction(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	b.mu.Lock()
	defer b.mu.Unlock()
	data := b.userData(r)
	category, ok := data.resolveCategory(tx.Category)
	if !ok {
		writeMessage(w, http.StatusBadRequest, "Category not found")
		return
	}
	for i := range data.transactions {
		if data.transactions[i].Id == id {
			tx.Id = id
			tx.Category = category
			data.transactions[i] = tx
			writeJSON(w, http.StatusOK, tx)
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "Transaction not found")
}

func (b *Backend) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	b.mu.Lock()
	defer b.mu.Unlock()
	data := b.userData(r)
	for i := range data.transactions {
		if data.transactions[i].Id == id {
			data.transactions = append(data.transactions[:i], data.transactions[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "Transaction not found")
}

func (b *Backend) listCategories(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	result := append([]categoryDTO{}, b.userData(r).categories...)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, result)
}

func (b *Backend) createCategory(w http.ResponseWriter, r *http.Request) {
	var category categoryDTO
	if err := json.NewDecoder(r.Body).Decode(&category); err != nil || strings.TrimSpace(category.Name) == "" {
		writeMessage(w, http.StatusBadRequest, "Category name is required")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	data := b.userData(r)
	for _, existing := range data.categories {
		if strings.EqualFold(existing.Name, category.Name) {
			writeMessage(w, http.StatusConflict, "Category already exists")
			return
		}
	}
	category.Id = uuid.NewString()
	data.categories = append(data.categories, category)
	writeJSON(w, http.StatusCreated, category)
}

func (b *Backend) listBudgets(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	result := append([]budgetDTO{}, b.userData(r).budgets...)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, result)
}

func (b *Backend) listBudgetsForMonth(w http.ResponseWriter, r *http.Request) {
	year, month, ok := b.period(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	result := b.userData(r).budgetsFor(year, month)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, result)
}

func (d *userData) budgetsFor(year, month int) []budgetDTO {
	result := make([]budgetDTO, 0)
	for _, budget := range d.budgets {
		if budget.Year == year && budget.Month == month {
			result = append(result, budget)
		}
	}
	return result
}

func (b *Backend) budgetFromRequest(w http.ResponseWriter, r *http.Request, data *userData) (budgetDTO, bool) {
	var req budgetRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed request")
		return budgetDTO{}, false
	}
	if req.MonthlyLimit.IsNegative() {
		writeMessage(w, http.StatusBadRequest, "Monthly limit must not be negative")
		return budgetDTO{}, false
	}
	budget := budgetDTO{
		MonthlyLimit:  req.MonthlyLimit,
		Year:          req.Year,
		Month:         req.Month,
		AllowRollover: req.AllowRollover,
		PreventExceed: req.PreventExceed,
	}
	if budget.Year == 0 || budget.Month == 0 {
		now := b.now()
		budget.Year, budget.Month = now.Year(), int(now.Month())
	}
	if req.CategoryId != "" {
		category, ok := data.resolveCategory(&categoryDTO{Id: req.CategoryId})
		if !ok {
			writeMessage(w, http.StatusBadRequest, "Category not found")
			return budgetDTO{}, false
		}
		budget.Category = category
	}
	return budget, true
}

func (b *Backend) createBudget(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data := b.userData(r)
	budget, ok := b.budgetFromRequest(w, r, data)
	if !ok {
		return
	}
	for _, existing := range data.budgetsFor(budget.Year, budget.Month) {
		if sameCategory(existing.Category, budget.Category) {
			writeMessage(w, http.StatusConflict, "Budget already exists for this category and month")
			return
		}
	}
	budget.Id = uuid.NewString()
	data.budgets = append(data.budgets, budget)
	writeJSON(w, http.StatusCreated, budget)
}

func (b *Backend) updateBudget(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	b.mu.Lock()
	defer b.mu.Unlock()
	data := b.userData(r)
	budget, ok := b.budgetFromRequest(w, r, data)
	if !ok {
		return
	}
	for i := range data.budgets {
		if data.budgets[i].Id == id {
			budget.Id = id
			data.budgets[i] = budget
			writeJSON(w, http.StatusOK, budget)
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "Budget not found")
}

func (b *Backend) deleteBudget(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	b.mu.Lock()
	defer b.mu.Unlock()
	data := b.userData(r)
	for i := range data.budgets {
		if data.budgets[i].Id == id {
			data.budgets = append(data.budgets[:i], data.budgets[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "Budget not found")
}

func (b *Backend) budgetStatus(w http.ResponseWriter, r *http.Request) {
	year, month, ok := b.period(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	data := b.userData(r)
	spent := data.expensesByCategory(year, month)
	budgets := data.budgetsFor(year, month)
	b.mu.Unlock()

	type categoryStatus struct {
		CategoryId      string          `json:"categoryId"`
		CategoryName    string          `json:"categoryName"`
		Budget          decimal.Decimal `json:"budget"`
		Spent           decimal.Decimal `json:"spent"`
		Remaining       decimal.Decimal `json:"remaining"`
		UsagePercentage decimal.Decimal `json:"usagePercentage"`
		Status          string          `json:"status"`
	}
	type alert struct {
		Type      string          `json:"type"`
		Message   string          `json:"message"`
		Severity  string          `json:"severity"`
		Threshold decimal.Decimal `json:"threshold"`
	}

	totalSpent := decimal.Zero
	for _, v := range spent {
		totalSpent = totalSpent.Add(v)
	}
	overallBudget := decimal.Zero
	categories := make([]categoryStatus, 0)
	alerts := make([]alert, 0)
	for _, budget := range budgets {
		if budget.Category == nil {
			overallBudget = overallBudget.Add(budget.MonthlyLimit)
			continue
		}
		catSpent := spent[budget.Category.Name]
		usage := usagePercentage(catSpent, budget.MonthlyLimit)
		categories = append(categories, categoryStatus{
			CategoryId:      budget.Category.Id,
			CategoryName:    budget.Category.Name,
			Budget:          budget.MonthlyLimit,
			Spent:           catSpent,
			Remaining:       budget.MonthlyLimit.Sub(catSpent),
			UsagePercentage: usage,
			Status:          statusLevel(usage),
		})
		if usage.GreaterThanOrEqual(decimal.NewFromInt(100)) {
			alerts = append(alerts, alert{
				Type:      budget.Category.Id,
				Message:   fmt.Sprintf("Budget exceeded! (%s / %s)", catSpent.StringFixed(2), budget.MonthlyLimit.StringFixed(2)),
				Severity:  "EXCEEDED",
				Threshold: decimal.NewFromInt(100),
			})
		}
	}
	overallUsage := usagePercentage(totalSpent, overallBudget)
	writeJSON(w, http.StatusOK, map[string]any{
		"overallBudget":          overallBudget,
		"overallSpent":           totalSpent,
		"overallRemaining":       overallBudget.Sub(totalSpent),
		"overallUsagePercentage": overallUsage,
		"overallStatus":          statusLevel(overallUsage),
		"categoryBudgets":        categories,
		"alerts":                 alerts,
	})
}

func usagePercentage(spent, limit decimal.Decimal) decimal.Decimal {
	if !limit.IsPositive() {
		return decimal.Zero
	}
	return spent.Div(limit).Mul(decimal.NewFromInt(100)).Round(2)
}

func statusLevel(usage decimal.Decimal) string {
	switch {
	case usage.GreaterThanOrEqual(decimal.NewFromInt(90)):
		return "EXCEEDED"
	case usage.GreaterThanOrEqual(decimal.NewFromInt(50)):
		return "WARNING"
	default:
		return "SAFE"
	}
}

func (b *Backend) monthlySummary(w http.ResponseWriter, r *http.Request) {
	year, month, ok := b.period(w, r)
	if !ok {
		return
	}
	income, expense := decimal.Zero, decimal.Zero
	b.mu.Lock()
	for _, tx := range b.userData(r).transactionsIn(year, month) {
		if tx.Type == "INCOME" {
			income = income.Add(tx.Amount)
		} else {
			expense = expense.Add(tx.Amount)
		}
	}
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"year":    year,
		"month":   month,
		"income":  income,
		"expense": expense,
		"net":     income.Sub(expense),
	})
}

func (b *Backend) categoryBreakdown(w http.ResponseWriter, r *http.Request) {
	year, month, ok := b.period(w, r)
	if !ok {
		return
	}
	b.mu.Lock()
	result := b.userData(r).expensesByCategory(year, month)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, result)
}

func (d *userData) transactionsIn(year, month int) []transactionDTO {
	prefix := fmt.Sprintf("%04d-%02d-", year, month)
	result := make([]transactionDTO, 0)
	for _, tx := range d.transactions {
		if strings.HasPrefix(tx.Date, prefix) {
			result = append(result, tx)
		}
	}
	return result
}

func (d *userData) expensesByCategory(year, month int) map[string]decimal.Decimal {
	result := make(map[string]decimal.Decimal)
	for _, tx := range d.transactionsIn(year, month) {
		if tx.Type != "EXPENSE" {
			continue
		}
		name := "Uncategorized"
		if tx.Category != nil && tx.Category.Name != "" {
			name = tx.Category.Name
		}
		result[name] = result[name].Add(tx.Amount)
	}
	return result
}

func (b *Backend) exportExcel(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	transactions := append([]transactionDTO{}, b.userData(r).transactions...)
	b.mu.Unlock()

	var sheet strings.Builder
	sheet.WriteString("Date,Type,Category,Amount,Note\n")
	for _, tx := range transactions {
		category := ""
		if tx.Category != nil {
			category = tx.Category.Name
		}
		fmt.Fprintf(&sheet, "%s,%s,%s,%s,%s\n", tx.Date, tx.Type, category, tx.Amount.String(), tx.Note)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("xl/worksheets/transactions.csv")
	if err == nil {
		_, err = f.Write([]byte(sheet.String()))
	}
	if err == nil {
		err = zw.Close()
	}
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=transactions.xlsx")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// period reads year and month query parameters, defaulting to the current month.
func (b *Backend) period(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	b.mu.Lock()
	now := b.now()
	b.mu.Unlock()
	year, month := now.Year(), int(now.Month())

	q := r.URL.Query()
	if q.Has("year") && q.Has("month") {
		y, errY := strconv.Atoi(q.Get("year"))
		m, errM := strconv.Atoi(q.Get("month"))
		if errY != nil || errM != nil || m < 1 || m > 12 {
			writeMessage(w, http.StatusBadRequest, "Invalid period")
			return 0, 0, false
		}
		year, month = y, m
	}
	return year, month, true
}

// userData must be called with b.mu held.
func (b *Backend) userData(r *http.Request) *userData {
	userId, _ := r.Context().Value(userKey{}).(string)
	data, ok := b.data[userId]
	if !ok {
		data = &userData{}
		b.data[userId] = data
	}
	return data
}

func contextWithUser(r *http.Request, userId string) context.Context {
	return context.WithValue(r.Context(), userKey{}, userId)
}

func sameCategory(a, b *categoryDTO) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Id == b.Id
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
