package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/moneta-finance/moneta/internal/test_utils"
	"github.com/moneta-finance/moneta/pkg/session"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

func newSession() *session.Session {
	return session.New(session.NewMemoryStore())
}

type recorder struct {
	mu   sync.Mutex
	last *http.Request
}

func (r *recorder) Last() *http.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// respondWith starts a server that answers every request with the given
// status, content type and body, recording the last request.
func respondWith(t *testing.T, status int, contentType, body string) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.mu.Lock()
		rec.last = r.Clone(context.Background())
		rec.mu.Unlock()
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, rec
}

func loggedInClient(t *testing.T) (*ClientImpl, *test_utils.Backend) {
	t.Helper()
	backend := test_utils.NewBackend(t)
	backend.RegisterUser(t, "Ann", "ann@example.com", "secret")
	client := NewClient(backend.URL(), newSession())
	_, err := client.Login(ctx, Credentials{Email: "ann@example.com", Password: "secret"})
	require.NoError(t, err)
	return client, backend
}

func TestClient_LoginStoresToken(t *testing.T) {
	backend := test_utils.NewBackend(t)
	backend.RegisterUser(t, "Ann", "ann@example.com", "secret")
	s := newSession()
	client := NewClient(backend.URL(), s)

	token, err := client.Login(ctx, Credentials{Email: "ann@example.com", Password: "secret"})

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	stored, ok := s.Token()
	assert.True(t, ok)
	assert.Equal(t, token, stored)
}

func TestClient_LoginRejectedKeepsServerMessage(t *testing.T) {
	server, _ := respondWith(t, http.StatusUnauthorized, "application/json", `{"message": "invalid credentials"}`)
	s := newSession()
	var hookCalls atomic.Int32
	client := NewClient(server.URL, s, WithUnauthorizedHandler(func(context.Context) { hookCalls.Add(1) }))

	_, err := client.Login(ctx, Credentials{Email: "a@x.com", Password: "wrong"})

	require.Error(t, err)
	assert.Equal(t, "invalid credentials", Message(err))
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))
	_, ok := s.Token()
	assert.False(t, ok)
	assert.Zero(t, hookCalls.Load(), "a login failure is not a session expiry")
}

func TestClient_LoginWithoutTokenInBody(t *testing.T) {
	server, _ := respondWith(t, http.StatusOK, "application/json", `{}`)
	client := NewClient(server.URL, newSession())

	_, err := client.Login(ctx, Credentials{Email: "a@x.com", Password: "pw"})

	assert.ErrorIs(t, err, ErrNoToken)
}

func TestClient_NoContentYieldsNil(t *testing.T) {
	server, rec := respondWith(t, http.StatusNoContent, "", "")
	client := NewClient(server.URL, newSession())

	payload, err := client.Request(ctx, http.MethodDelete, "/transactions/7", nil, nil)

	require.NoError(t, err)
	assert.Nil(t, payload)
	assert.Equal(t, http.MethodDelete, rec.Last().Method)
	assert.Equal(t, "/transactions/7", rec.Last().URL.Path)
}

func TestClient_ResponseBodyByContentType(t *testing.T) {
	t.Run("JSON content type is parsed as JSON", func(t *testing.T) {
		server, _ := respondWith(t, http.StatusOK, "application/json; charset=utf-8", `{"token":"abc"}`)
		client := NewClient(server.URL, newSession())

		payload, err := client.Request(ctx, http.MethodGet, "/anything", nil, nil)

		require.NoError(t, err)
		require.NotNil(t, payload)
		assert.JSONEq(t, `{"token":"abc"}`, string(payload.JSON))
		var body loginResponse
		require.NoError(t, payload.Decode(&body))
		assert.Equal(t, "abc", body.Token)
	})
	t.Run("other content types are kept as text", func(t *testing.T) {
		server, _ := respondWith(t, http.StatusOK, "text/plain", `{"token":"abc"}`)
		client := NewClient(server.URL, newSession())

		payload, err := client.Request(ctx, http.MethodGet, "/anything", nil, nil)

		require.NoError(t, err)
		require.NotNil(t, payload)
		assert.Nil(t, payload.JSON)
		assert.Equal(t, `{"token":"abc"}`, payload.Text)
	})
	t.Run("text registration message is returned", func(t *testing.T) {
		server, _ := respondWith(t, http.StatusOK, "text/plain", "User registered successfully\n")
		client := NewClient(server.URL, newSession())

		message, err := client.Register(ctx, RegisterRequest{Name: "A", Email: "a@x.com", Password: "pw"})

		require.NoError(t, err)
		assert.Equal(t, "User registered successfully", message)
	})
}

func TestClient_ErrorMessageNormalization(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		message     string
	}{
		{"JSON message", http.StatusConflict, "application/json", `{"message":"User with this email already exists"}`, "User with this email already exists"},
		{"JSON without message", http.StatusBadRequest, "application/json", `{"error":"bad"}`, "Request failed"},
		{"plain text", http.StatusInternalServerError, "text/plain", "database is down\n", "database is down"},
		{"empty body", http.StatusBadGateway, "", "", "Request failed"},
		{"malformed JSON", http.StatusBadRequest, "application/json", `{"message":`, "Request failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := respondWith(t, tt.status, tt.contentType, tt.body)
			client := NewClient(server.URL, newSession())

			_, err := client.ListCategories(ctx)

			require.Error(t, err)
			assert.Equal(t, tt.message, Message(err))
			assert.Equal(t, tt.status, StatusOf(err))
		})
	}
}

func TestClient_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()
	client := NewClient(url, newSession(), WithTimeout(time.Second))

	_, err := client.ListTransactions(ctx)

	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, "Request failed", Message(err))
	assert.Zero(t, StatusOf(err))
}

func TestClient_BearerHeader(t *testing.T) {
	server, rec := respondWith(t, http.StatusOK, "application/json", `[]`)
	s := newSession()
	client := NewClient(server.URL, s)

	_, err := client.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, rec.Last().Header.Get("Authorization"))

	require.NoError(t, s.SetToken(ctx, "abc.def.ghi"))
	_, err = client.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc.def.ghi", rec.Last().Header.Get("Authorization"))
}

func TestClient_PeriodQuery(t *testing.T) {
	server, rec := respondWith(t, http.StatusOK, "application/json", `{"income":10,"expense":4,"net":6}`)
	client := NewClient(server.URL, newSession())

	summary, err := client.GetMonthlySummary(ctx, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, rec.Last().URL.RawQuery)
	assert.True(t, decimal.NewFromInt(6).Equal(summary.Net))

	_, err = client.GetMonthlySummary(ctx, 2024, 3)
	require.NoError(t, err)
	assert.Equal(t, "2024", rec.Last().URL.Query().Get("year"))
	assert.Equal(t, "3", rec.Last().URL.Query().Get("month"))

	_, err = client.GetMonthlySummary(ctx, 2024, 13)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestClient_UnauthorizedHookOnProtectedRequest(t *testing.T) {
	client, backend := loggedInClient(t)
	var hookCalls atomic.Int32
	client.SetUnauthorizedHandler(func(context.Context) { hookCalls.Add(1) })

	_, err := client.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Zero(t, hookCalls.Load())

	backend.RevokeTokens()
	_, err = client.ListTransactions(ctx)

	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))
	assert.Equal(t, int32(1), hookCalls.Load())
}

func TestClient_ValidationSendsNoRequest(t *testing.T) {
	client, backend := loggedInClient(t)

	_, err := client.AddTransaction(ctx, Transaction{Amount: decimal.Zero, Type: Expense, Date: NewDate(2024, 3, 1)})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = client.AddTransaction(ctx, Transaction{Amount: decimal.NewFromInt(5), Type: "GIFT", Date: NewDate(2024, 3, 1)})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = client.CreateCategory(ctx, "   ")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = client.CreateBudget(ctx, BudgetRequest{MonthlyLimit: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, ErrValidation)

	err = client.DeleteTransaction(ctx, "")
	assert.ErrorIs(t, err, ErrValidation)

	assert.Zero(t, backend.Hits("POST /transactions"))
	assert.Zero(t, backend.Hits("POST /categories"))
	assert.Zero(t, backend.Hits("POST /budgets"))
}

func TestClient_TransactionsAndAnalytics(t *testing.T) {
	client, _ := loggedInClient(t)

	food, err := client.CreateCategory(ctx, "Food")
	require.NoError(t, err)
	assert.NotEmpty(t, food.Id)

	_, err = client.CreateCategory(ctx, "Food")
	assert.Equal(t, http.StatusConflict, StatusOf(err))

	lunch, err := client.AddTransaction(ctx, Transaction{
		Amount: decimal.RequireFromString("12.50"), Type: Expense, Date: NewDate(2024, 3, 4),
		Note: "lunch", Category: &Category{Id: food.Id},
	})
	require.NoError(t, err)
	assert.Equal(t, "Food", lunch.CategoryName())

	_, err = client.AddTransaction(ctx, Transaction{
		Amount: decimal.NewFromInt(7), Type: Expense, Date: NewDate(2024, 3, 5),
	})
	require.NoError(t, err)
	_, err = client.AddTransaction(ctx, Transaction{
		Amount: decimal.NewFromInt(1000), Type: Income, Date: NewDate(2024, 3, 1),
	})
	require.NoError(t, err)

	breakdown, err := client.GetCategoryBreakdown(ctx, 2024, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"Food", "Uncategorized"}, breakdown.Names())
	assert.True(t, decimal.RequireFromString("12.5").Equal(breakdown.Spent("Food")))
	assert.True(t, breakdown.Spent("Rent").IsZero())

	summary, err := client.GetMonthlySummary(ctx, 2024, 3)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1000).Equal(summary.Income))
	assert.True(t, decimal.RequireFromString("19.5").Equal(summary.Expense))
	assert.True(t, decimal.RequireFromString("980.5").Equal(summary.Net))

	lunch.Amount = decimal.NewFromInt(15)
	updated, err := client.UpdateTransaction(ctx, lunch.Id, lunch)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(15).Equal(updated.Amount))

	require.NoError(t, client.DeleteTransaction(ctx, lunch.Id))
	transactions, err := client.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, transactions, 2)

	err = client.DeleteTransaction(ctx, lunch.Id)
	assert.Equal(t, http.StatusNotFound, StatusOf(err))
	assert.Equal(t, "Transaction not found", Message(err))
}

func TestClient_EmptyBreakdownIsNotNil(t *testing.T) {
	client, _ := loggedInClient(t)

	breakdown, err := client.GetCategoryBreakdown(ctx, 2020, 1)

	require.NoError(t, err)
	assert.NotNil(t, breakdown)
	assert.Empty(t, breakdown)
}

func TestClient_Budgets(t *testing.T) {
	client, _ := loggedInClient(t)
	food, err := client.CreateCategory(ctx, "Food")
	require.NoError(t, err)

	general, err := client.CreateBudget(ctx, BudgetRequest{MonthlyLimit: decimal.NewFromInt(500), Year: 2024, Month: 3})
	require.NoError(t, err)
	assert.True(t, general.IsGeneral())
	assert.Equal(t, "General", general.CategoryName())

	foodBudget, err := client.CreateBudget(ctx, BudgetRequest{CategoryId: food.Id, MonthlyLimit: decimal.NewFromInt(100), Year: 2024, Month: 3})
	require.NoError(t, err)
	assert.Equal(t, "Food", foodBudget.CategoryName())

	_, err = client.AddTransaction(ctx, Transaction{
		Amount: decimal.NewFromInt(120), Type: Expense, Date: NewDate(2024, 3, 10), Category: &Category{Id: food.Id},
	})
	require.NoError(t, err)

	status, err := client.GetBudgetStatus(ctx, 2024, 3)
	require.NoError(t, err)
	require.Len(t, status.CategoryBudgets, 1)
	assert.Equal(t, BudgetExceeded, status.CategoryBudgets[0].Status)
	assert.Len(t, status.Alerts, 1)

	month, err := client.ListBudgetsForMonth(ctx, 2024, 3)
	require.NoError(t, err)
	assert.Len(t, month, 2)

	updated, err := client.UpdateBudget(ctx, foodBudget.Id, BudgetRequest{CategoryId: food.Id, MonthlyLimit: decimal.NewFromInt(150), Year: 2024, Month: 3})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(150).Equal(updated.MonthlyLimit))

	require.NoError(t, client.DeleteBudget(ctx, general.Id))
	all, err := client.ListBudgets(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestClient_LogoutIsLocal(t *testing.T) {
	client, backend := loggedInClient(t)

	require.NoError(t, client.Logout(ctx))

	_, ok := client.session.Token()
	assert.False(t, ok)
	assert.Zero(t, backend.Hits("POST /auth/logout"))
}

func TestSaveExport(t *testing.T) {
	client, _ := loggedInClient(t)
	dir := filepath.Join(t.TempDir(), "exports")

	path, err := SaveExport(ctx, client, dir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ExportFilename), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "PK", string(data[:2]))
}

func TestSaveExport_FailureWritesNothing(t *testing.T) {
	stub := NewClientStub(newSession())
	stub.SetError("ExportExcel", &Error{Status: http.StatusInternalServerError, Message: "export failed"})
	dir := t.TempDir()

	_, err := SaveExport(ctx, stub, dir)

	require.Error(t, err)
	assert.Equal(t, "export failed", Message(err))
	_, statErr := os.Stat(filepath.Join(dir, ExportFilename))
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}
