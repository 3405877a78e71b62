package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/familybicons/socios-server/internal/api"
	"github.com/familybicons/socios-server/internal/auth"
	"github.com/familybicons/socios-server/internal/metrics"
	"github.com/familybicons/socios-server/internal/models"
	"github.com/familybicons/socios-server/internal/repository"
	"github.com/familybicons/socios-server/internal/service"
	"github.com/familybicons/socios-server/internal/session"
	"github.com/familybicons/socios-server/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	TestUsername = "ana"
	TestPassword = "secreto"
	TestSecret   = "test-secret-key"
)

// TestContext holds all dependencies for tests
type TestContext struct {
	Router   *gin.Engine
	Gateway  *FakeGateway
	Service  service.Service
	Store    *session.MemoryStore
	Tokens   *auth.TokenIssuer
	Registry *prometheus.Registry
}

// SetupTestContext creates a router backed by an in-memory gateway seeded
// with one member
func SetupTestContext(t *testing.T) *TestContext {
	t.Helper()
	return SetupTestContextWithLimit(t, 1000)
}

// SetupTestContextWithLimit is SetupTestContext with a custom login rate limit
func SetupTestContextWithLimit(t *testing.T, loginLimit int) *TestContext {
	t.Helper()
	return setupTestContext(t, loginLimit, nil)
}

// SetupTestContextWithStore is SetupTestContext with the handler's session
// store wrapped by wrap
func SetupTestContextWithStore(t *testing.T, wrap func(*session.MemoryStore) session.Store) *TestContext {
	t.Helper()
	return setupTestContext(t, 1000, wrap)
}

func setupTestContext(t *testing.T, loginLimit int, wrap func(*session.MemoryStore) session.Store) *TestContext {
	t.Helper()

	gateway := NewFakeGateway()
	gateway.AddMember(TestUsername, TestPassword, models.MemberData{
		Investments: []models.InvestmentRecord{{Owner: TestUsername, MonthValues: "10,20,30"}},
		Debts: []models.DebtRecord{
			{Owner: TestUsername, Month: "Ene", Amount: decimal.NewFromInt(120), Term: 12, Status: models.StatusPending},
			{Owner: TestUsername, Month: "Feb", Amount: decimal.NewFromInt(50), Term: 0, Status: models.StatusPending},
		},
	})

	logger := utils.NewDiscardLogger()
	reg := prometheus.NewRegistry()
	svc := service.NewDefaultService(gateway, logger, metrics.New(reg), service.DefaultOptions())
	store := session.NewMemoryStore(time.Hour)
	tokens := auth.NewTokenIssuer(TestSecret, time.Hour)

	var handlerStore session.Store = store
	if wrap != nil {
		handlerStore = wrap(store)
	}

	handler := api.NewHandler(svc, handlerStore, tokens, api.NewLoginLimiter(loginLimit, time.Minute), logger)

	// Set up Gin router
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler.SetupRoutes(router, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return &TestContext{
		Router:   router,
		Gateway:  gateway,
		Service:  svc,
		Store:    store,
		Tokens:   tokens,
		Registry: reg,
	}
}

// Login performs a login request and returns the issued token
func (tc *TestContext) Login(t *testing.T, username, password string) string {
	t.Helper()

	w := PerformRequest(tc.Router, http.MethodPost, "/api/auth/login",
		models.LoginRequest{Username: username, Password: password}, nil)
	require.Equal(t, http.StatusOK, w.Code, "login failed: %s", w.Body.String())

	var resp models.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

// FakeGateway is an in-memory persistence gateway that records every call
type FakeGateway struct {
	mu        sync.Mutex
	passwords map[string]string
	data      map[string]models.MemberData

	Unavailable bool

	AuthCalls           int
	FetchCalls          int
	ChangePasswordCalls int
	LoanRequests        []models.LoanRequest
}

var _ repository.Repository = (*FakeGateway)(nil)

// NewFakeGateway creates an empty FakeGateway
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		passwords: make(map[string]string),
		data:      make(map[string]models.MemberData),
	}
}

// AddMember seeds a member and their records
func (g *FakeGateway) AddMember(username, password string, data models.MemberData) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.passwords[username] = password
	g.data[username] = data
}

// SetUnavailable simulates a lost store connection
func (g *FakeGateway) SetUnavailable(v bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Unavailable = v
}

// Snapshot returns call counters under the lock
func (g *FakeGateway) Snapshot() (authCalls, fetchCalls, changeCalls int, loans []models.LoanRequest) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.AuthCalls, g.FetchCalls, g.ChangePasswordCalls, append([]models.LoanRequest(nil), g.LoanRequests...)
}

func (g *FakeGateway) unavailableErr() error {
	return fmt.Errorf("%w: fake store offline", repository.ErrUnavailable)
}

func (g *FakeGateway) Authenticate(_ context.Context, username, password string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.AuthCalls++
	if g.Unavailable {
		return false, g.unavailableErr()
	}
	stored, ok := g.passwords[username]
	return ok && stored == password, nil
}

func (g *FakeGateway) FetchMemberData(_ context.Context, username string) (models.MemberData, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.FetchCalls++
	if g.Unavailable {
		return models.EmptyMemberData(), g.unavailableErr()
	}
	data, ok := g.data[username]
	if !ok {
		return models.EmptyMemberData(), nil
	}
	return data, nil
}

func (g *FakeGateway) ChangePassword(_ context.Context, username, newPassword string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ChangePasswordCalls++
	if g.Unavailable {
		return false, g.unavailableErr()
	}
	g.passwords[username] = newPassword
	return true, nil
}

func (g *FakeGateway) SubmitLoanRequest(_ context.Context, req *models.LoanRequest) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Unavailable {
		return false, g.unavailableErr()
	}
	req.CreatedAt = time.Now().UTC()
	req.Status = models.StatusPending
	g.LoanRequests = append(g.LoanRequests, *req)
	return true, nil
}

// PerformRequest executes an HTTP request against the router
func PerformRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer

	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// AuthHeaders returns headers with Authorization token
func AuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	}
}
