package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatusPending is the only debt status fetched and the status every new
// loan request is created with
const StatusPending = "Pendiente"

// Member represents a row of the usuarios table
type Member struct {
	Username string `db:"usuario" json:"username"`
	Password string `db:"password" json:"-"` // Stored password, never returned in JSON
}

// InvestmentRecord represents a row of the inversiones table.
// MonthValues is the raw comma-separated share series, one value per month.
type InvestmentRecord struct {
	Owner       string `db:"nombre" json:"owner"`
	MonthValues string `db:"valores_meses" json:"monthValues"`
}

// DebtRecord represents a row of the deudores table
type DebtRecord struct {
	Owner  string          `db:"nombre" json:"owner"`
	Month  string          `db:"mes" json:"month"`
	Amount decimal.Decimal `db:"monto" json:"amount"`
	Term   int             `db:"plazo" json:"term"`
	Status string          `db:"estado" json:"status"`
}

// LoanRequest represents a row appended to the solicitudes table
type LoanRequest struct {
	Username  string          `db:"usuario" json:"username"`
	Amount    decimal.Decimal `db:"monto" json:"amount"`
	Reason    string          `db:"motivo" json:"reason"`
	CreatedAt time.Time       `db:"fecha" json:"createdAt"`
	Status    string          `db:"estado" json:"status"`
}

// MemberData is everything fetched for a member when a session is opened
type MemberData struct {
	Investments []InvestmentRecord `json:"investments"`
	Debts       []DebtRecord       `json:"debts"`
}

// EmptyMemberData returns a MemberData with non-nil empty collections
func EmptyMemberData() MemberData {
	return MemberData{
		Investments: []InvestmentRecord{},
		Debts:       []DebtRecord{},
	}
}
