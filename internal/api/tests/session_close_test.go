package api_test

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/familybicons/socios-server/internal/api/testutils"
	"github.com/familybicons/socios-server/internal/models"
	"github.com/familybicons/socios-server/internal/session"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// interleavingStore runs afterGet once, right after the next successful Get,
// so another request can land between a request's session lookup and the
// end of its handler
type interleavingStore struct {
	*session.MemoryStore

	mu       sync.Mutex
	afterGet func()
}

func (s *interleavingStore) arm(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.afterGet = fn
}

func (s *interleavingStore) Get(ctx context.Context, id string) (*session.Session, error) {
	sess, err := s.MemoryStore.Get(ctx, id)

	s.mu.Lock()
	fn := s.afterGet
	s.afterGet = nil
	s.mu.Unlock()

	if err == nil && fn != nil {
		fn()
	}
	return sess, err
}

func setupInterleaving(t *testing.T) (*testutils.TestContext, *interleavingStore) {
	t.Helper()
	var wrapped *interleavingStore
	testCtx := testutils.SetupTestContextWithStore(t, func(m *session.MemoryStore) session.Store {
		wrapped = &interleavingStore{MemoryStore: m}
		return wrapped
	})
	return testCtx, wrapped
}

func TestPasswordChangeDuringDashboardRequest(t *testing.T) {
	testCtx, store := setupInterleaving(t)
	token := testCtx.Login(t, testutils.TestUsername, testutils.TestPassword)

	var changeCode int
	store.arm(func() {
		w := testutils.PerformRequest(testCtx.Router, http.MethodPut, "/api/profile/password",
			models.ChangePasswordRequest{NewPassword: "nueva", ConfirmPassword: "nueva"},
			testutils.AuthHeaders(token))
		changeCode = w.Code
	})

	w := testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/dashboard", nil,
		testutils.AuthHeaders(token))
	require.Equal(t, http.StatusOK, changeCode)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// The in-flight request must not bring the closed session back
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/dashboard", nil,
		testutils.AuthHeaders(token))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	n, err := testCtx.Store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestLogoutDuringLoanRequest(t *testing.T) {
	testCtx, store := setupInterleaving(t)
	token := testCtx.Login(t, testutils.TestUsername, testutils.TestPassword)

	store.arm(func() {
		w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/auth/logout", nil,
			testutils.AuthHeaders(token))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	// The loan was accepted before the logout took effect
	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/loans",
		models.LoanRequestForm{Amount: decimal.NewFromInt(50), Reason: "test"},
		testutils.AuthHeaders(token))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/dashboard", nil,
		testutils.AuthHeaders(token))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
