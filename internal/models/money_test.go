package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMoney_ApplyRates(t *testing.T) {
	tests := []struct {
		name  string
		m     Money
		rates []Rate
		want  Money
	}{
		{"No Rates", NewMoney(12, 30), nil, NewMoney(12, 30)},
		{"Single Rate Half Up", NewMoney(12, 30), []Rate{RateWeekend}, NewMoney(14, 15)},
		// 12.30 * 1.15 * 0.50 = 7.0725, rounding the weekend fare first would give 7.08
		{"Combined Rounded Once", NewMoney(12, 30), []Rate{RateWeekend, RateChild}, NewMoney(7, 7)},
		// 0.07 * 1.15 * 0.50 = 0.04025
		{"Small Amount", NewMoney(0, 7), []Rate{RateWeekend, RateChild}, NewMoney(0, 4)},
		{"Exact Half", NewMoney(0, 5), []Rate{RateChild}, NewMoney(0, 3)},
		{"Negative Symmetric", -NewMoney(0, 5), []Rate{RateChild}, -NewMoney(0, 3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.m.ApplyRates(tt.rates...))
		})
	}

	assert.Equal(t, NewMoney(14, 15), NewMoney(12, 30).ApplyRate(RateWeekend))
}

func TestParseMoney(t *testing.T) {
	m, err := ParseMoney("12.4")
	assert.NoError(t, err)
	assert.Equal(t, NewMoney(12, 40), m)

	m, err = ParseMoney("7.0700")
	assert.NoError(t, err)
	assert.Equal(t, NewMoney(7, 7), m)

	_, err = ParseMoney("7.071")
	assert.Error(t, err)
	assert.Equal(t, "7.07", NewMoney(7, 7).String())
}
