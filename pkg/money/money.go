// Package money provides fixed-point monetary arithmetic for budget and
// cost computations.
//
// All aggregation in Meridian runs on decimal values so that binary
// floating point error never accumulates across sums of time-entry and
// direct-cost amounts. Rounding to two places happens only at the
// presentation boundary (String, MarshalJSON), never mid-computation.
package money

import (
	"github.com/shopspring/decimal"
)

// Money is a fixed-point monetary amount.
//
// The zero value is a valid zero amount. Money values are immutable;
// arithmetic methods return new values.
type Money struct {
	d decimal.Decimal
}

// Zero is the zero monetary amount.
var Zero = Money{}

// New creates a Money from an integer amount and exponent,
// e.g. New(8550, -2) is 85.50.
func New(value int64, exp int32) Money {
	return Money{d: decimal.New(value, exp)}
}

// FromFloat creates a Money from a float64.
//
// Intended for configuration and test fixtures where values originate as
// literals; stored amounts should arrive via Parse or New.
func FromFloat(f float64) Money {
	return Money{d: decimal.NewFromFloat(f)}
}

// FromInt creates a Money from a whole-unit integer amount.
func FromInt(v int64) Money {
	return Money{d: decimal.NewFromInt(v)}
}

// Parse parses a decimal string such as "1234.56".
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, err
	}
	return Money{d: d}, nil
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{d: m.d.Add(other.d)}
}

// Sub returns m - other.
func (m Money) Sub(other Money) Money {
	return Money{d: m.d.Sub(other.d)}
}

// Mul returns m multiplied by a decimal factor.
func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{d: m.d.Mul(factor)}
}

// MulFloat returns m multiplied by a float factor (e.g. hours worked).
func (m Money) MulFloat(factor float64) Money {
	return Money{d: m.d.Mul(decimal.NewFromFloat(factor))}
}

// Div returns m divided by a non-zero decimal divisor.
func (m Money) Div(divisor decimal.Decimal) Money {
	return Money{d: m.d.Div(divisor)}
}

// DivInt returns m divided by a non-zero integer divisor.
func (m Money) DivInt(divisor int64) Money {
	return Money{d: m.d.Div(decimal.NewFromInt(divisor))}
}

// DivMoney returns the dimensionless ratio m / other.
func (m Money) DivMoney(other Money) decimal.Decimal {
	return m.d.Div(other.d)
}

// Neg returns -m.
func (m Money) Neg() Money {
	return Money{d: m.d.Neg()}
}

// IsZero reports whether m is exactly zero.
func (m Money) IsZero() bool {
	return m.d.IsZero()
}

// IsNegative reports whether m < 0.
func (m Money) IsNegative() bool {
	return m.d.IsNegative()
}

// IsPositive reports whether m > 0.
func (m Money) IsPositive() bool {
	return m.d.IsPositive()
}

// Cmp compares m and other: -1 if m < other, 0 if equal, +1 if m > other.
func (m Money) Cmp(other Money) int {
	return m.d.Cmp(other.d)
}

// Equal reports whether m and other represent the same amount.
func (m Money) Equal(other Money) bool {
	return m.d.Equal(other.d)
}

// Decimal returns the underlying decimal value.
func (m Money) Decimal() decimal.Decimal {
	return m.d
}

// Float64 returns the amount as a float64, losing precision.
//
// Use only for statistics (variance, trend ratios) where exact monetary
// precision is not required.
func (m Money) Float64() float64 {
	f, _ := m.d.Float64()
	return f
}

// Round2 returns the amount rounded to two decimal places.
// This is the presentation rounding step and must not feed back into
// further aggregation.
func (m Money) Round2() Money {
	return Money{d: m.d.Round(2)}
}

// String formats the amount rounded to two decimal places.
func (m Money) String() string {
	return m.d.StringFixed(2)
}

// MarshalJSON encodes the amount as a JSON string with two decimal places.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.d.StringFixed(2) + `"`), nil
}

// UnmarshalJSON decodes a JSON number or string into a Money.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	m.d = d
	return nil
}
