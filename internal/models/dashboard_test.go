package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sharePrice = decimal.RequireFromString("5.00")

func TestParseMonthSeries(t *testing.T) {
	series := ParseMonthSeries("10,20,30")

	require.Len(t, series.Points, 3)
	assert.Empty(t, series.Issues)
	assert.Equal(t, MonthPoint{Month: "Ene", Shares: 10}, series.Points[0])
	assert.Equal(t, MonthPoint{Month: "Mar", Shares: 30}, series.Points[2])
	assert.True(t, series.TotalShares().Equal(decimal.NewFromInt(60)))
	assert.Equal(t, "300.00", series.Capital(sharePrice).StringFixed(2))
}

func TestParseMonthSeriesEmpty(t *testing.T) {
	for _, raw := range []string{"", "   "} {
		series := ParseMonthSeries(raw)

		assert.NotNil(t, series.Points)
		assert.Empty(t, series.Points)
		assert.Empty(t, series.Issues)
		assert.True(t, series.TotalShares().IsZero())
		assert.Equal(t, "0.00", series.Capital(sharePrice).StringFixed(2))
	}
}

func TestParseMonthSeriesMalformedTokens(t *testing.T) {
	series := ParseMonthSeries("10, abc ,-4,2.5,")

	require.Len(t, series.Points, 5)
	assert.Equal(t, 10.0, series.Points[0].Shares)
	assert.Equal(t, 0.0, series.Points[1].Shares)
	assert.Equal(t, 0.0, series.Points[2].Shares)
	assert.Equal(t, 2.5, series.Points[3].Shares)
	assert.Equal(t, 0.0, series.Points[4].Shares)

	require.Len(t, series.Issues, 3)
	assert.Equal(t, DataIssue{Month: "Feb", Token: "abc", Reason: "not a number"}, series.Issues[0])
	assert.Equal(t, "negative share count", series.Issues[1].Reason)
	assert.Equal(t, "May", series.Issues[2].Month)

	assert.Equal(t, "62.50", series.Capital(sharePrice).StringFixed(2))
}

func TestParseMonthSeriesTruncatesAfterDecember(t *testing.T) {
	series := ParseMonthSeries("1,1,1,1,1,1,1,1,1,1,1,1,7,8")

	require.Len(t, series.Points, 12)
	assert.Equal(t, "Dic", series.Points[11].Month)
	require.Len(t, series.Issues, 1)
	assert.Equal(t, "7,8", series.Issues[0].Token)
	assert.True(t, series.TotalShares().Equal(decimal.NewFromInt(12)))
}

func TestInstallment(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		term   int
		want   string
	}{
		{"regular term", "120", 12, "10.00"},
		{"zero term falls back to amount", "50", 0, "50.00"},
		{"negative term falls back to amount", "75.5", -3, "75.50"},
		{"uneven split", "100", 3, "33.33"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Installment(decimal.RequireFromString(tt.amount), tt.term)
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}

func TestMoneyJSON(t *testing.T) {
	tab := InvestmentsTab{
		SharePrice: NewMoney(decimal.NewFromInt(5)),
		Capital:    NewMoney(decimal.RequireFromString("300")),
	}

	raw, err := json.Marshal(tab)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"capital":"300.00"`)
	assert.Contains(t, string(raw), `"sharePrice":"5.00"`)

	var debt DebtView
	require.NoError(t, json.Unmarshal([]byte(`{"installment":"33.333"}`), &debt))
	assert.Equal(t, "33.33", debt.Installment.StringFixed(2))

	rounded := NewMoney(decimal.RequireFromString("33.335"))
	assert.Equal(t, "33.34", rounded.String())
}
