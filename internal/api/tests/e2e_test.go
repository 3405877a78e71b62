package api_test

import (
	"net/http"
	"testing"

	"github.com/familybicons/socios-server/internal/api/testutils"
	"github.com/familybicons/socios-server/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemberLoanFlow(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)

	token := testCtx.Login(t, testutils.TestUsername, testutils.TestPassword)

	// Dashboard, including the payments tab
	d := getDashboard(t, testCtx, token)
	require.Len(t, d.Payments.Debts, 2)
	assert.Equal(t, "10.00", d.Loan.MinAmount.StringFixed(2))

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/api/loans",
		models.LoanRequestForm{Amount: decimal.NewFromInt(50), Reason: "test"},
		testutils.AuthHeaders(token))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	_, _, _, loans := testCtx.Gateway.Snapshot()
	require.Len(t, loans, 1)
	assert.Equal(t, testutils.TestUsername, loans[0].Username)
	assert.True(t, decimal.NewFromInt(50).Equal(loans[0].Amount))
	assert.Equal(t, "test", loans[0].Reason)
	assert.Equal(t, models.StatusPending, loans[0].Status)
	assert.False(t, loans[0].CreatedAt.IsZero())

	// The session stays open after a loan request
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/api/dashboard", nil,
		testutils.AuthHeaders(token))
	assert.Equal(t, http.StatusOK, w.Code)
}
