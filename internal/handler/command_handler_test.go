package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/eaglebank/ledger-service/internal/cqrs"
	"github.com/eaglebank/ledger-service/internal/domain"
	"github.com/eaglebank/ledger-service/internal/eventstore"
)

// ---- mock implementations ----

type mockCommander struct {
	createFn func(cqrs.CreateAccountCommand) (string, error)
	creditFn func(cqrs.CreditAccountCommand) (string, error)
	debitFn  func(cqrs.DebitAccountCommand) (string, error)
}

func (m *mockCommander) CreateAccount(ctx context.Context, cmd cqrs.CreateAccountCommand) (string, error) {
	if m.createFn != nil {
		return m.createFn(cmd)
	}
	return "", fmt.Errorf("not configured")
}
func (m *mockCommander) CreditAccount(ctx context.Context, cmd cqrs.CreditAccountCommand) (string, error) {
	if m.creditFn != nil {
		return m.creditFn(cmd)
	}
	return "", fmt.Errorf("not configured")
}
func (m *mockCommander) DebitAccount(ctx context.Context, cmd cqrs.DebitAccountCommand) (string, error) {
	if m.debitFn != nil {
		return m.debitFn(cmd)
	}
	return "", fmt.Errorf("not configured")
}

// ---- helpers ----

func newCommandTestRouter(cmds AccountCommander) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewCommandHandler(cmds)
	commands := r.Group("/commands/accounts")
	commands.POST("/create", h.CreateAccount)
	commands.PUT("/credit", h.CreditAccount)
	commands.PUT("/debit", h.DebitAccount)
	return r
}

func doRequest(router *gin.Engine, method, url string, body interface{}) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, url, nil)
	if body != nil {
		b, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, url, strings.NewReader(string(b)))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ---- tests ----

func TestCreateAccountEndpoint(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		createFn       func(cqrs.CreateAccountCommand) (string, error)
		expectedStatus int
	}{
		{
			name:           "created - valid request",
			body:           map[string]interface{}{"initialBalance": 100, "currency": "USD"},
			createFn:       func(cmd cqrs.CreateAccountCommand) (string, error) { return "acc-1", nil },
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "bad request - missing currency",
			body:           map[string]interface{}{"initialBalance": 100},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - lowercase currency",
			body:           map[string]interface{}{"initialBalance": 100, "currency": "usd"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "bad request - non-positive balance rejected by aggregate",
			body: map[string]interface{}{"initialBalance": 0, "currency": "USD"},
			createFn: func(cmd cqrs.CreateAccountCommand) (string, error) {
				return "", fmt.Errorf("%w: initial balance must be positive", domain.ErrValidation)
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - malformed body",
			body:           nil,
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newCommandTestRouter(&mockCommander{createFn: tt.createFn})
			w := doRequest(router, http.MethodPost, "/commands/accounts/create", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestCreditAccountEndpoint(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		creditFn       func(cqrs.CreditAccountCommand) (string, error)
		expectedStatus int
	}{
		{
			name:           "ok - valid credit",
			body:           map[string]interface{}{"id": "acc-1", "amount": 50, "currency": "USD"},
			creditFn:       func(cmd cqrs.CreditAccountCommand) (string, error) { return cmd.ID, nil },
			expectedStatus: http.StatusOK,
		},
		{
			name: "not found - unknown account",
			body: map[string]interface{}{"id": "ghost", "amount": 50, "currency": "USD"},
			creditFn: func(cmd cqrs.CreditAccountCommand) (string, error) {
				return "", fmt.Errorf("%w: %s", domain.ErrNotFound, cmd.ID)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "bad request - currency mismatch",
			body: map[string]interface{}{"id": "acc-1", "amount": 50, "currency": "EUR"},
			creditFn: func(cmd cqrs.CreditAccountCommand) (string, error) {
				return "", fmt.Errorf("%w: account acc-1 holds USD, not EUR", domain.ErrCurrencyMismatch)
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "conflict - retries exhausted",
			body: map[string]interface{}{"id": "acc-1", "amount": 50, "currency": "USD"},
			creditFn: func(cmd cqrs.CreditAccountCommand) (string, error) {
				return "", eventstore.ErrConcurrencyConflict
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "bad request - missing id",
			body:           map[string]interface{}{"amount": 50, "currency": "USD"},
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newCommandTestRouter(&mockCommander{creditFn: tt.creditFn})
			w := doRequest(router, http.MethodPut, "/commands/accounts/credit", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestDebitAccountEndpoint(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		debitFn        func(cqrs.DebitAccountCommand) (string, error)
		expectedStatus int
	}{
		{
			name:           "ok - valid debit",
			body:           map[string]interface{}{"id": "acc-1", "amount": 30, "currency": "USD"},
			debitFn:        func(cmd cqrs.DebitAccountCommand) (string, error) { return cmd.ID, nil },
			expectedStatus: http.StatusOK,
		},
		{
			name: "unprocessable - insufficient funds",
			body: map[string]interface{}{"id": "acc-1", "amount": 1000, "currency": "USD"},
			debitFn: func(cmd cqrs.DebitAccountCommand) (string, error) {
				return "", fmt.Errorf("%w: balance 120, requested 1000", domain.ErrInsufficientFunds)
			},
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "not found - unknown account",
			body: map[string]interface{}{"id": "ghost", "amount": 30, "currency": "USD"},
			debitFn: func(cmd cqrs.DebitAccountCommand) (string, error) {
				return "", fmt.Errorf("%w: %s", domain.ErrNotFound, cmd.ID)
			},
			expectedStatus: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newCommandTestRouter(&mockCommander{debitFn: tt.debitFn})
			w := doRequest(router, http.MethodPut, "/commands/accounts/debit", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}
