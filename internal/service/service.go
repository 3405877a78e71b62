package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/familybicons/socios-server/internal/metrics"
	"github.com/familybicons/socios-server/internal/models"
	"github.com/familybicons/socios-server/internal/repository"
	"github.com/familybicons/socios-server/internal/session"
	"github.com/familybicons/socios-server/internal/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Service drives a member session between the login screen and the dashboard.
// It is the only place that decides what a gateway failure means to the member.
type Service interface {
	// Anonymous
	SubmitCredentials(ctx context.Context, sess *session.Session, username, password string) error

	// Authenticated
	ViewDashboard(sess *session.Session) (*models.Dashboard, error)
	ChangePassword(ctx context.Context, sess *session.Session, newPassword, confirm string) error
	RequestLoan(ctx context.Context, sess *session.Session, amount decimal.Decimal, reason string) error
	Logout(sess *session.Session)
}

// Options are the business constants of the portal
type Options struct {
	SharePrice    decimal.Decimal
	MinLoanAmount decimal.Decimal
}

// DefaultOptions are the values used by the cooperative today
func DefaultOptions() Options {
	return Options{
		SharePrice:    decimal.NewFromInt(5),
		MinLoanAmount: decimal.NewFromInt(10),
	}
}

// DefaultService implements the Service interface
type DefaultService struct {
	repo    repository.Repository
	log     *utils.Logger
	metrics *metrics.Collector
	opts    Options
}

// NewDefaultService creates a new DefaultService
func NewDefaultService(repo repository.Repository, log *utils.Logger, m *metrics.Collector, opts Options) Service {
	return &DefaultService{
		repo:    repo,
		log:     log,
		metrics: m,
		opts:    opts,
	}
}

var errMemberDataUnavailable = errors.New("your account data could not be loaded, please try again later")

// Authentication
func (s *DefaultService) SubmitCredentials(ctx context.Context, sess *session.Session, username, password string) error {
	if sess.IsAuthenticated() {
		return ErrAlreadyAuthenticated
	}

	ok, err := s.repo.Authenticate(ctx, username, password)
	if err != nil {
		s.gatewayFailed("authenticate", username, err)
	}
	if err != nil || !ok {
		if errors.Is(err, repository.ErrUnavailable) {
			s.metrics.LoginAttempt(metrics.LoginUnavailable)
			return fmt.Errorf("%w: %w", ErrInvalidCredentials, ErrServiceUnavailable)
		}
		s.metrics.LoginAttempt(metrics.LoginInvalid)
		return ErrInvalidCredentials
	}
	s.metrics.LoginAttempt(metrics.LoginSuccess)

	data, err := s.repo.FetchMemberData(ctx, username)
	var dataErr error
	if err != nil {
		s.gatewayFailed("fetch_member_data", username, err)
		data = models.EmptyMemberData()
		dataErr = errMemberDataUnavailable
	}

	sess.SignIn(username, data, dataErr)
	s.log.WithFields(logrus.Fields{"user": username, "session": sess.ID}).Info("member logged in")
	return nil
}

func (s *DefaultService) Logout(sess *session.Session) {
	if sess == nil {
		return
	}
	if sess.IsAuthenticated() {
		s.log.WithFields(logrus.Fields{"user": sess.Username, "session": sess.ID}).Info("member logged out")
	}
	sess.Reset()
}

// Dashboard
func (s *DefaultService) ViewDashboard(sess *session.Session) (*models.Dashboard, error) {
	if !sess.IsAuthenticated() {
		return nil, ErrNotAuthenticated
	}

	data := models.EmptyMemberData()
	if sess.Data != nil {
		data = *sess.Data
	}

	dashboard := &models.Dashboard{
		Username:    sess.Username,
		Investments: s.investmentsTab(sess.Username, data.Investments),
		Payments:    paymentsTab(data.Debts),
		Loan:        models.LoanTab{MinAmount: models.NewMoney(s.opts.MinLoanAmount)},
	}

	if len(dashboard.Investments.Issues) > 0 {
		dashboard.Notices = append(dashboard.Notices,
			"some investment values could not be read and were counted as zero")
	}
	if sess.DataError != "" {
		dashboard.Notices = append(dashboard.Notices, sess.DataError)
	}

	return dashboard, nil
}

func (s *DefaultService) investmentsTab(username string, records []models.InvestmentRecord) models.InvestmentsTab {
	tab := models.InvestmentsTab{
		Series:      []models.MonthPoint{},
		TotalShares: decimal.Zero,
		SharePrice:  models.NewMoney(s.opts.SharePrice),
		Capital:     models.NewMoney(decimal.Zero),
	}

	if len(records) == 0 {
		tab.Notice = "you have no active investments"
		return tab
	}
	tab.HasInvestments = true

	// Only the first record is shown
	raw := records[0].MonthValues
	if strings.TrimSpace(raw) == "" {
		tab.Notice = "investment data is incomplete"
		return tab
	}

	series := models.ParseMonthSeries(raw)
	tab.Series = series.Points
	tab.TotalShares = series.TotalShares()
	tab.Capital = models.NewMoney(series.Capital(s.opts.SharePrice))
	tab.Issues = series.Issues

	for _, issue := range series.Issues {
		s.log.WithFields(logrus.Fields{
			"user":   username,
			"month":  issue.Month,
			"token":  issue.Token,
			"reason": issue.Reason,
		}).Warn("malformed investment series value")
	}

	return tab
}

func paymentsTab(debts []models.DebtRecord) models.PaymentsTab {
	tab := models.PaymentsTab{Debts: make([]models.DebtView, 0, len(debts))}
	for _, d := range debts {
		tab.Debts = append(tab.Debts, models.DebtView{
			Month:       d.Month,
			Amount:      models.NewMoney(d.Amount),
			Term:        d.Term,
			Installment: models.NewMoney(models.Installment(d.Amount, d.Term)),
			Status:      d.Status,
		})
	}
	tab.AllPaid = len(tab.Debts) == 0
	return tab
}

// Profile
func (s *DefaultService) ChangePassword(ctx context.Context, sess *session.Session, newPassword, confirm string) error {
	if !sess.IsAuthenticated() {
		return ErrNotAuthenticated
	}

	if newPassword == "" {
		return &ValidationError{Field: "newPassword", Message: "password must not be empty"}
	}
	if newPassword != confirm {
		return &ValidationError{Field: "confirmPassword", Message: "passwords do not match"}
	}

	ok, err := s.repo.ChangePassword(ctx, sess.Username, newPassword)
	if err != nil || !ok {
		s.gatewayFailed("change_password", sess.Username, err)
		return failure(ErrPasswordChangeFailed, err)
	}

	s.log.WithFields(logrus.Fields{"user": sess.Username, "session": sess.ID}).Info("password changed, session closed")
	sess.Reset()
	return nil
}

// Loan requests
func (s *DefaultService) RequestLoan(ctx context.Context, sess *session.Session, amount decimal.Decimal, reason string) error {
	if !sess.IsAuthenticated() {
		return ErrNotAuthenticated
	}

	if amount.LessThan(s.opts.MinLoanAmount) {
		s.metrics.LoanRequest("rejected")
		return &ValidationError{
			Field:   "amount",
			Message: fmt.Sprintf("amount must be at least %s", s.opts.MinLoanAmount.StringFixed(2)),
		}
	}

	req := &models.LoanRequest{
		Username: sess.Username,
		Amount:   amount,
		Reason:   reason,
	}

	ok, err := s.repo.SubmitLoanRequest(ctx, req)
	if err != nil || !ok {
		s.metrics.LoanRequest("failed")
		s.gatewayFailed("submit_loan_request", sess.Username, err)
		return failure(ErrLoanRequestFailed, err)
	}

	s.metrics.LoanRequest("accepted")
	s.log.WithFields(logrus.Fields{"user": sess.Username, "amount": amount.String()}).Info("loan request submitted")
	return nil
}

// Helper methods
func (s *DefaultService) gatewayFailed(op, username string, err error) {
	kind := "query"
	if errors.Is(err, repository.ErrUnavailable) {
		kind = "unavailable"
	}
	s.metrics.GatewayFailure(op, kind)
	s.log.WithFields(logrus.Fields{"op": op, "user": username, "kind": kind}).
		Errorf("gateway call failed: %v", err)
}

// failure wraps sentinel so that store outages also match ErrServiceUnavailable
func failure(sentinel, err error) error {
	if errors.Is(err, repository.ErrUnavailable) {
		return fmt.Errorf("%w: %w", sentinel, ErrServiceUnavailable)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", sentinel, err)
	}
	return sentinel
}
