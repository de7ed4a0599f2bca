package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/moneta-finance/moneta/pkg/session"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// ExportFilename is the fixed name given to saved spreadsheet exports.
const ExportFilename = "transactions.xlsx"

type Client interface {
	Register(ctx context.Context, req RegisterRequest) (string, error) // POST /auth/register
	Login(ctx context.Context, creds Credentials) (string, error)      // POST /auth/login
	Logout(ctx context.Context) error                                  // local only

	ListTransactions(ctx context.Context) ([]Transaction, error)                           // GET /transactions
	AddTransaction(ctx context.Context, tx Transaction) (Transaction, error)               // POST /transactions
	UpdateTransaction(ctx context.Context, id string, tx Transaction) (Transaction, error) // PUT /transactions/{id}
	DeleteTransaction(ctx context.Context, id string) error                                // DELETE /transactions/{id}

	ListCategories(ctx context.Context) ([]Category, error)            // GET /categories
	CreateCategory(ctx context.Context, name string) (Category, error) // POST /categories

	ListBudgets(ctx context.Context) ([]Budget, error)                                    // GET /budgets
	ListBudgetsForMonth(ctx context.Context, year, month int) ([]Budget, error)           // GET /budgets/month
	CreateBudget(ctx context.Context, req BudgetRequest) (Budget, error)                  // POST /budgets
	UpdateBudget(ctx context.Context, id string, req BudgetRequest) (Budget, error)       // PUT /budgets/{id}
	DeleteBudget(ctx context.Context, id string) error                                    // DELETE /budgets/{id}
	GetBudgetStatus(ctx context.Context, year, month int) (BudgetStatus, error)           // GET /budgets/status
	GetMonthlySummary(ctx context.Context, year, month int) (MonthlySummary, error)       // GET /analytics/monthly-summary
	GetCategoryBreakdown(ctx context.Context, year, month int) (CategoryBreakdown, error) // GET /analytics/category-breakdown

	ExportExcel(ctx context.Context) ([]byte, error) // GET /export/excel
}

// UnauthorizedHandler is invoked when a request that carried a bearer token
// is answered with 401.
type UnauthorizedHandler func(ctx context.Context)

type ClientImpl struct {
	baseURL string
	http    *http.Client
	session *session.Session

	mu             sync.RWMutex
	onUnauthorized UnauthorizedHandler
}

type Option func(*ClientImpl)

func WithHTTPClient(c *http.Client) Option {
	return func(impl *ClientImpl) {
		impl.http = c
	}
}

func WithTimeout(d time.Duration) Option {
	return func(impl *ClientImpl) {
		impl.http = &http.Client{Timeout: d}
	}
}

func WithUnauthorizedHandler(h UnauthorizedHandler) Option {
	return func(impl *ClientImpl) {
		impl.onUnauthorized = h
	}
}

func NewClient(baseURL string, s *session.Session, opts ...Option) *ClientImpl {
	c := &ClientImpl{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		session: s,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetUnauthorizedHandler replaces the hook invoked on 401 responses to
// protected requests.
func (c *ClientImpl) SetUnauthorizedHandler(h UnauthorizedHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = h
}

// Payload is a decoded non-empty response body.
type Payload struct {
	// JSON holds the body when the response declared a JSON content type.
	JSON json.RawMessage
	// Text holds the body otherwise.
	Text string
}

// Decode unmarshals the payload into out. A nil payload (204) leaves out
// untouched. Text payloads can only be decoded into *string.
func (p *Payload) Decode(out any) error {
	if p == nil || out == nil {
		return nil
	}
	if p.JSON != nil {
		if err := json.Unmarshal(p.JSON, out); err != nil {
			return fmt.Errorf("%w: malformed JSON response: %w", ErrTransport, err)
		}
		return nil
	}
	if s, ok := out.(*string); ok {
		*s = p.Text
		return nil
	}
	return fmt.Errorf("%w: expected a JSON response, got text", ErrTransport)
}

// Request performs one backend call. body may be nil, an io.Reader sent
// as-is, or any value encoded as JSON. A 204 response yields a nil Payload.
func (c *ClientImpl) Request(ctx context.Context, method, path string, query url.Values, body any) (*Payload, error) {
	resp, err := c.send(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Errorf("Failed to read response body of %s %s: %v", method, path, err)
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}

	var payload *Payload
	if isJSON(resp.Header.Get("Content-Type")) && len(bytes.TrimSpace(data)) > 0 {
		payload = &Payload{JSON: data}
	} else {
		payload = &Payload{Text: string(data)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newError(resp.StatusCode, payload)
	}
	return payload, nil
}

// send builds and executes the HTTP request and notifies the unauthorized
// hook. The caller owns the response body.
func (c *ClientImpl) send(ctx context.Context, method, path string, query url.Values, body any) (*http.Response, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	contentType := ""
	switch b := body.(type) {
	case nil:
	case io.Reader:
		reader = b
	default:
		encoded, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("unable to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		log.Errorf("Failed to create request: %v", err)
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	authenticated := false
	if token, ok := c.session.Token(); ok {
		(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
		authenticated = true
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.Errorf("Failed to execute request %s %s: %v", method, path, err)
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}
	log.Debugf("%s %s -> %d", method, path, resp.StatusCode)

	if resp.StatusCode == http.StatusUnauthorized && authenticated {
		c.mu.RLock()
		hook := c.onUnauthorized
		c.mu.RUnlock()
		if hook != nil {
			log.Warnf("%s %s rejected the session token", method, path)
			hook(ctx)
		}
	}
	return resp, nil
}

func newError(status int, payload *Payload) *Error {
	message := ""
	if payload.JSON != nil {
		var body messageResponse
		if err := json.Unmarshal(payload.JSON, &body); err == nil {
			message = body.Message
		}
	} else {
		message = strings.TrimSpace(payload.Text)
	}
	if message == "" {
		message = genericFailure
	}
	return &Error{Status: status, Message: message}
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(contentType, "application/json")
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func doJSON[T any](ctx context.Context, c *ClientImpl, method, path string, query url.Values, body any) (T, error) {
	var out T
	payload, err := c.Request(ctx, method, path, query, body)
	if err != nil {
		return out, err
	}
	if err := payload.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}

func periodQuery(year, month int) (url.Values, error) {
	if year == 0 || month == 0 {
		return nil, nil
	}
	if month < 1 || month > 12 {
		return nil, validationError("month must be between 1 and 12, got %d", month)
	}
	return url.Values{
		"year":  []string{strconv.Itoa(year)},
		"month": []string{strconv.Itoa(month)},
	}, nil
}

func idPath(prefix, id string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", validationError("id is required")
	}
	return prefix + "/" + url.PathEscape(id), nil
}

func (c *ClientImpl) Register(ctx context.Context, req RegisterRequest) (string, error) {
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return "", validationError("name, email and password are required")
	}
	payload, err := c.Request(ctx, http.MethodPost, "/auth/register", nil, req)
	if err != nil {
		return "", err
	}
	if payload == nil {
		return "", nil
	}
	if payload.JSON == nil {
		return strings.TrimSpace(payload.Text), nil
	}
	var body messageResponse
	if err := payload.Decode(&body); err != nil {
		return "", err
	}
	return body.Message, nil
}

// Login exchanges credentials for a bearer token and stores it in the session.
func (c *ClientImpl) Login(ctx context.Context, creds Credentials) (string, error) {
	if creds.Email == "" || creds.Password == "" {
		return "", validationError("email and password are required")
	}
	body, err := doJSON[loginResponse](ctx, c, http.MethodPost, "/auth/login", nil, creds)
	if err != nil {
		return "", err
	}
	if body.Token == "" {
		return "", ErrNoToken
	}
	if err := c.session.SetToken(ctx, body.Token); err != nil {
		return "", err
	}
	return body.Token, nil
}

// Logout only forgets the local token; the backend keeps no session state.
func (c *ClientImpl) Logout(ctx context.Context) error {
	return c.session.ClearToken(ctx)
}

func (c *ClientImpl) ListTransactions(ctx context.Context) ([]Transaction, error) {
	return doJSON[[]Transaction](ctx, c, http.MethodGet, "/transactions", nil, nil)
}

func validateTransaction(tx Transaction) error {
	if !tx.Amount.IsPositive() {
		return validationError("amount must be greater than zero")
	}
	if tx.Type != Income && tx.Type != Expense {
		return validationError("transaction type must be INCOME or EXPENSE")
	}
	if tx.Date.IsZero() {
		return validationError("date is required")
	}
	return nil
}

func (c *ClientImpl) AddTransaction(ctx context.Context, tx Transaction) (Transaction, error) {
	if err := validateTransaction(tx); err != nil {
		return Transaction{}, err
	}
	return doJSON[Transaction](ctx, c, http.MethodPost, "/transactions", nil, tx)
}

func (c *ClientImpl) UpdateTransaction(ctx context.Context, id string, tx Transaction) (Transaction, error) {
	path, err := idPath("/transactions", id)
	if err != nil {
		return Transaction{}, err
	}
	if err := validateTransaction(tx); err != nil {
		return Transaction{}, err
	}
	return doJSON[Transaction](ctx, c, http.MethodPut, path, nil, tx)
}

func (c *ClientImpl) DeleteTransaction(ctx context.Context, id string) error {
	path, err := idPath("/transactions", id)
	if err != nil {
		return err
	}
	_, err = c.Request(ctx, http.MethodDelete, path, nil, nil)
	return err
}

func (c *ClientImpl) ListCategories(ctx context.Context) ([]Category, error) {
	return doJSON[[]Category](ctx, c, http.MethodGet, "/categories", nil, nil)
}

func (c *ClientImpl) CreateCategory(ctx context.Context, name string) (Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, validationError("category name is required")
	}
	return doJSON[Category](ctx, c, http.MethodPost, "/categories", nil, Category{Name: name})
}

func (c *ClientImpl) ListBudgets(ctx context.Context) ([]Budget, error) {
	return doJSON[[]Budget](ctx, c, http.MethodGet, "/budgets", nil, nil)
}

func (c *ClientImpl) ListBudgetsForMonth(ctx context.Context, year, month int) ([]Budget, error) {
	query, err := periodQuery(year, month)
	if err != nil {
		return nil, err
	}
	return doJSON[[]Budget](ctx, c, http.MethodGet, "/budgets/month", query, nil)
}

func validateBudget(req BudgetRequest) error {
	if req.MonthlyLimit.IsNegative() {
		return validationError("monthly limit must not be negative")
	}
	if req.Month < 0 || req.Month > 12 {
		return validationError("month must be between 1 and 12, got %d", req.Month)
	}
	return nil
}

func (c *ClientImpl) CreateBudget(ctx context.Context, req BudgetRequest) (Budget, error) {
	if err := validateBudget(req); err != nil {
		return Budget{}, err
	}
	return doJSON[Budget](ctx, c, http.MethodPost, "/budgets", nil, req)
}

func (c *ClientImpl) UpdateBudget(ctx context.Context, id string, req BudgetRequest) (Budget, error) {
	path, err := idPath("/budgets", id)
	if err != nil {
		return Budget{}, err
	}
	if err := validateBudget(req); err != nil {
		return Budget{}, err
	}
	return doJSON[Budget](ctx, c, http.MethodPut, path, nil, req)
}

func (c *ClientImpl) DeleteBudget(ctx context.Context, id string) error {
	path, err := idPath("/budgets", id)
	if err != nil {
		return err
	}
	_, err = c.Request(ctx, http.MethodDelete, path, nil, nil)
	return err
}

func (c *ClientImpl) GetBudgetStatus(ctx context.Context, year, month int) (BudgetStatus, error) {
	query, err := periodQuery(year, month)
	if err != nil {
		return BudgetStatus{}, err
	}
	return doJSON[BudgetStatus](ctx, c, http.MethodGet, "/budgets/status", query, nil)
}

func (c *ClientImpl) GetMonthlySummary(ctx context.Context, year, month int) (MonthlySummary, error) {
	query, err := periodQuery(year, month)
	if err != nil {
		return MonthlySummary{}, err
	}
	return doJSON[MonthlySummary](ctx, c, http.MethodGet, "/analytics/monthly-summary", query, nil)
}

func (c *ClientImpl) GetCategoryBreakdown(ctx context.Context, year, month int) (CategoryBreakdown, error) {
	query, err := periodQuery(year, month)
	if err != nil {
		return nil, err
	}
	breakdown, err := doJSON[CategoryBreakdown](ctx, c, http.MethodGet, "/analytics/category-breakdown", query, nil)
	if err != nil {
		return nil, err
	}
	if breakdown == nil {
		breakdown = CategoryBreakdown{}
	}
	return breakdown, nil
}

// ExportExcel downloads the spreadsheet export as raw bytes.
func (c *ClientImpl) ExportExcel(ctx context.Context) ([]byte, error) {
	resp, err := c.send(ctx, http.MethodGet, "/export/excel", nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: GET /export/excel: %w", ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload := &Payload{Text: string(data)}
		if isJSON(resp.Header.Get("Content-Type")) {
			payload = &Payload{JSON: data}
		}
		return nil, newError(resp.StatusCode, payload)
	}
	return data, nil
}

// SaveExport downloads the export and writes it to dir under ExportFilename,
// replacing any previous export. It returns the written path.
func SaveExport(ctx context.Context, c Client, dir string) (string, error) {
	data, err := c.ExportExcel(ctx)
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("unable to create export directory: %w", err)
	}
	path := filepath.Join(dir, ExportFilename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("unable to save export: %w", err)
	}
	log.Infof("Saved export to %s (%d bytes)", path, len(data))
	return path, nil
}

var _ Client = (*ClientImpl)(nil)
