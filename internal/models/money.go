package models

import (
	"database/sql/driver"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Money is an amount in minor currency units (kopecks).
type Money int64

// Rate is a price multiplier expressed in basis points (10000 = x1.00).
type Rate int64

const (
	RateOne     Rate = 10000
	RateWeekend Rate = 11500
	RateChild   Rate = 5000
	RateBenefit Rate = 8000
)

// NewMoney builds an amount from whole units and minor units.
func NewMoney(units, minor int64) Money {
	return Money(units*100 + minor)
}

// Times multiplies the amount by a passenger count.
func (m Money) Times(n int) Money {
	return m * Money(n)
}

// ApplyRate multiplies the amount by r and rounds half-up to the nearest minor unit.
func (m Money) ApplyRate(r Rate) Money {
	return m.ApplyRates(r)
}

// ApplyRates multiplies the amount by every rate and rounds half-up once, at
// the end. Intermediate products are exact.
func (m Money) ApplyRates(rates ...Rate) Money {
	num := big.NewInt(int64(m))
	den := big.NewInt(1)
	one := big.NewInt(int64(RateOne))
	for _, r := range rates {
		num.Mul(num, big.NewInt(int64(r)))
		den.Mul(den, one)
	}

	negative := num.Sign() < 0
	num.Abs(num)
	// floor((num + den/2) / den)
	num.Add(num, new(big.Int).Rsh(den, 1))
	num.Quo(num, den)
	if negative {
		num.Neg(num)
	}
	return Money(num.Int64())
}

// String renders the amount with two decimal places, e.g. "12.30".
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// ParseMoney parses a decimal string with at most two fractional digits.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > 2 {
		// Postgres numeric(12,2) never produces more, but tolerate trailing zeros.
		if strings.Trim(frac[2:], "0") != "" {
			return 0, fmt.Errorf("amount %q has more than two decimal places", s)
		}
		frac = frac[:2]
	}
	for len(frac) < 2 {
		frac += "0"
	}
	if whole == "" {
		whole = "0"
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	minor, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}

	m := NewMoney(units, minor)
	if negative {
		m = -m
	}
	return m, nil
}

// MarshalJSON renders the amount as a JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts both JSON numbers and quoted decimal strings.
func (m *Money) UnmarshalJSON(data []byte) error {
	parsed, err := ParseMoney(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value implements the driver.Valuer interface
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

// Scan implements the sql.Scanner interface
func (m *Money) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*m = 0
		return nil
	case []byte:
		parsed, err := ParseMoney(string(v))
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	case string:
		parsed, err := ParseMoney(v)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	case int64:
		*m = Money(v * 100)
		return nil
	case float64:
		parsed, err := ParseMoney(strconv.FormatFloat(v, 'f', 2, 64))
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Money", src)
	}
}
