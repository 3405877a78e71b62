package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// MonthLabels are the chart labels for the twelve values of a share series
var MonthLabels = [12]string{"Ene", "Feb", "Mar", "Abr", "May", "Jun", "Jul", "Ago", "Sep", "Oct", "Nov", "Dic"}

// MonthPoint is one month of a member's share series
type MonthPoint struct {
	Month  string  `json:"month"`
	Shares float64 `json:"shares"`
}

// DataIssue describes a stored value that could not be used as-is
type DataIssue struct {
	Month  string `json:"month,omitempty"`
	Token  string `json:"token"`
	Reason string `json:"reason"`
}

// MonthSeries is a parsed valores_meses column
type MonthSeries struct {
	Points []MonthPoint `json:"points"`
	Issues []DataIssue  `json:"issues,omitempty"`
}

// ParseMonthSeries splits a comma-separated share series. An empty string
// yields an empty series. Malformed or negative tokens are zeroed and
// reported; tokens past December are dropped and reported.
func ParseMonthSeries(raw string) MonthSeries {
	series := MonthSeries{Points: []MonthPoint{}}
	if strings.TrimSpace(raw) == "" {
		return series
	}

	tokens := strings.Split(raw, ",")
	if len(tokens) > len(MonthLabels) {
		series.Issues = append(series.Issues, DataIssue{
			Token:  strings.Join(tokens[len(MonthLabels):], ","),
			Reason: fmt.Sprintf("series has %d values, only %d months are kept", len(tokens), len(MonthLabels)),
		})
		tokens = tokens[:len(MonthLabels)]
	}

	for i, tok := range tokens {
		month := MonthLabels[i]
		tok = strings.TrimSpace(tok)

		value, err := strconv.ParseFloat(tok, 64)
		switch {
		case err != nil || math.IsNaN(value) || math.IsInf(value, 0):
			series.Issues = append(series.Issues, DataIssue{Month: month, Token: tok, Reason: "not a number"})
			value = 0
		case value < 0:
			series.Issues = append(series.Issues, DataIssue{Month: month, Token: tok, Reason: "negative share count"})
			value = 0
		}

		series.Points = append(series.Points, MonthPoint{Month: month, Shares: value})
	}

	return series
}

// TotalShares sums the series
func (s MonthSeries) TotalShares() decimal.Decimal {
	total := decimal.Zero
	for _, p := range s.Points {
		total = total.Add(decimal.NewFromFloat(p.Shares))
	}
	return total
}

// Capital is the share total valued at sharePrice
func (s MonthSeries) Capital(sharePrice decimal.Decimal) decimal.Decimal {
	return s.TotalShares().Mul(sharePrice)
}

// Installment is the monthly payment of a debt. A zero or negative term
// falls back to the full amount.
func Installment(amount decimal.Decimal, term int) decimal.Decimal {
	if term <= 0 {
		return amount
	}
	return amount.Div(decimal.NewFromInt(int64(term)))
}

// Money is a display amount. It is rounded to cents and always encoded with
// two decimal places, so 300 goes out as "300.00".
type Money struct {
	decimal.Decimal
}

// NewMoney rounds d to cents
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d.Round(2)}
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.StringFixed(2) + `"`), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	return m.Decimal.UnmarshalJSON(data)
}

// Dashboard is the derived view of a member session
type Dashboard struct {
	Username    string         `json:"username"`
	Investments InvestmentsTab `json:"investments"`
	Payments    PaymentsTab    `json:"payments"`
	Loan        LoanTab        `json:"loan"`
	Notices     []string       `json:"notices,omitempty"`
}

// InvestmentsTab holds the share series and the capital derived from it
type InvestmentsTab struct {
	HasInvestments bool            `json:"hasInvestments"`
	Series         []MonthPoint    `json:"series"`
	TotalShares    decimal.Decimal `json:"totalShares"`
	SharePrice     Money           `json:"sharePrice"`
	Capital        Money           `json:"capital"`
	Issues         []DataIssue     `json:"issues,omitempty"`
	Notice         string          `json:"notice,omitempty"`
}

// PaymentsTab lists pending debts with their installments
type PaymentsTab struct {
	Debts   []DebtView `json:"debts"`
	AllPaid bool       `json:"allPaid"`
}

// DebtView is a pending debt as shown to the member
type DebtView struct {
	Month       string `json:"month"`
	Amount      Money  `json:"amount"`
	Term        int    `json:"term"`
	Installment Money  `json:"installment"`
	Status      string `json:"status"`
}

// LoanTab carries the constraints of the loan request form
type LoanTab struct {
	MinAmount Money `json:"minAmount"`
}
