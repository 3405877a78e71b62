package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/familybicons/socios-server/internal/auth"
	"github.com/familybicons/socios-server/internal/models"
	"github.com/jmoiron/sqlx"
)

var (
	// ErrUnavailable means the store could not be reached
	ErrUnavailable = errors.New("store unavailable")
	// ErrQuery means the store was reached but the statement failed
	ErrQuery = errors.New("store query failed")
)

// Repository is the persistence gateway. Every method returns its
// fail-closed value (false or empty collections) together with any error,
// so a caller that only looks at the value still denies.
type Repository interface {
	Authenticate(ctx context.Context, username, password string) (bool, error)
	FetchMemberData(ctx context.Context, username string) (models.MemberData, error)
	ChangePassword(ctx context.Context, username, newPassword string) (bool, error)
	SubmitLoanRequest(ctx context.Context, req *models.LoanRequest) (bool, error)
}

// DBProvider hands out the shared connection pool
type DBProvider interface {
	DB() (*sqlx.DB, error)
}

// PostgresRepository implements the Repository interface using PostgreSQL
type PostgresRepository struct {
	conn      DBProvider
	passwords auth.PasswordScheme
	now       func() time.Time
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(conn DBProvider, passwords auth.PasswordScheme) *PostgresRepository {
	return &PostgresRepository{
		conn:      conn,
		passwords: passwords,
		now:       time.Now,
	}
}

// GetDB returns the underlying database connection
func (r *PostgresRepository) GetDB() (*sqlx.DB, error) {
	return r.db()
}

func (r *PostgresRepository) db() (*sqlx.DB, error) {
	db, err := r.conn.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return db, nil
}

// classify tags a statement error as unavailable when the connection itself broke
func classify(err error) error {
	var netErr net.Error
	if errors.Is(err, driver.ErrBadConn) || errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return fmt.Errorf("%w: %w", ErrQuery, err)
}

// Member operations
func (r *PostgresRepository) Authenticate(ctx context.Context, username, password string) (bool, error) {
	db, err := r.db()
	if err != nil {
		return false, err
	}

	query := `SELECT usuario, password FROM usuarios WHERE usuario = $1`

	var members []models.Member
	if err := db.SelectContext(ctx, &members, query, username); err != nil {
		return false, classify(err)
	}

	for _, m := range members {
		if r.passwords.Verify(m.Password, password) {
			return true, nil
		}
	}
	return false, nil
}

func (r *PostgresRepository) ChangePassword(ctx context.Context, username, newPassword string) (bool, error) {
	stored, err := r.passwords.Hash(newPassword)
	if err != nil {
		return false, err
	}

	db, err := r.db()
	if err != nil {
		return false, err
	}

	query := `UPDATE usuarios SET password = $1 WHERE usuario = $2`

	if _, err := db.ExecContext(ctx, query, stored, username); err != nil {
		return false, classify(err)
	}
	return true, nil
}

// Dashboard data
func (r *PostgresRepository) FetchMemberData(ctx context.Context, username string) (models.MemberData, error) {
	data := models.EmptyMemberData()

	db, err := r.db()
	if err != nil {
		return data, err
	}

	investmentsQuery := `
		SELECT nombre, COALESCE(valores_meses, '') AS valores_meses
		FROM inversiones
		WHERE nombre = $1
	`

	var investments []models.InvestmentRecord
	if err := db.SelectContext(ctx, &investments, investmentsQuery, username); err != nil {
		return data, classify(err)
	}

	debtsQuery := `
		SELECT nombre, COALESCE(mes, '') AS mes, COALESCE(monto, 0) AS monto, COALESCE(plazo, 0) AS plazo, estado
		FROM deudores
		WHERE nombre = $1 AND estado = $2
	`

	var debts []models.DebtRecord
	if err := db.SelectContext(ctx, &debts, debtsQuery, username, models.StatusPending); err != nil {
		// Both collections stay empty; never hand back half a dashboard
		return data, classify(err)
	}

	if investments != nil {
		data.Investments = investments
	}
	if debts != nil {
		data.Debts = debts
	}
	return data, nil
}

// Loan requests
func (r *PostgresRepository) SubmitLoanRequest(ctx context.Context, req *models.LoanRequest) (bool, error) {
	db, err := r.db()
	if err != nil {
		return false, err
	}

	req.CreatedAt = r.now()
	req.Status = models.StatusPending

	query := `
		INSERT INTO solicitudes (usuario, monto, motivo, fecha, estado)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = db.ExecContext(ctx, query,
		req.Username, req.Amount, req.Reason, req.CreatedAt, req.Status)
	if err != nil {
		return false, classify(err)
	}
	return true, nil
}
