package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MaxPrice is the largest amount a Price may hold.
var MaxPrice = decimal.RequireFromString("999999.99")

// Price is an immutable monetary amount in the range [0, MaxPrice].
// The zero value is a valid price of 0.00. Compare with Equal, not ==.
type Price struct {
	value decimal.Decimal
}

// NewPrice validates amount and wraps it.
func NewPrice(amount decimal.Decimal) (Price, error) {
	if amount.IsNegative() {
		return Price{}, fmt.Errorf("%w: price %s cannot be negative", ErrInvalidAmount, amount.String())
	}
	if amount.GreaterThan(MaxPrice) {
		return Price{}, fmt.Errorf("%w: price %s exceeds maximum %s", ErrInvalidAmount, amount.String(), MaxPrice.StringFixed(2))
	}
	return Price{value: amount}, nil
}

// NewPriceFromString parses a base-10 amount such as "19.99".
func NewPriceFromString(s string) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, fmt.Errorf("%w: %q is not a decimal amount", ErrInvalidAmount, s)
	}
	return NewPrice(d)
}

// NewPriceFromInt builds a whole-unit price.
func NewPriceFromInt(n int64) (Price, error) {
	return NewPrice(decimal.NewFromInt(n))
}

// Value returns the underlying decimal amount.
func (p Price) Value() decimal.Decimal { return p.value }

func (p Price) Add(other Price) (Price, error) {
	return NewPrice(p.value.Add(other.value))
}

func (p Price) Sub(other Price) (Price, error) {
	result := p.value.Sub(other.value)
	if result.IsNegative() {
		return Price{}, fmt.Errorf("%w: %s - %s", ErrNegativeResult, p, other)
	}
	return NewPrice(result)
}

func (p Price) Mul(factor decimal.Decimal) (Price, error) {
	return NewPrice(p.value.Mul(factor))
}

func (p Price) Div(divisor decimal.Decimal) (Price, error) {
	if divisor.IsZero() {
		return Price{}, ErrDivisionByZero
	}
	return NewPrice(p.value.Div(divisor))
}

// Cmp returns -1, 0 or +1 depending on whether p is less than, equal to or
// greater than other.
func (p Price) Cmp(other Price) int { return p.value.Cmp(other.value) }

func (p Price) Equal(other Price) bool       { return p.value.Equal(other.value) }
func (p Price) LessThan(other Price) bool    { return p.value.LessThan(other.value) }
func (p Price) GreaterThan(other Price) bool { return p.value.GreaterThan(other.value) }
func (p Price) IsZero() bool                 { return p.value.IsZero() }

// String renders the amount with exactly two fractional digits.
func (p Price) String() string { return p.value.StringFixed(2) }

func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

func (p *Price) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	parsed, err := NewPrice(d)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
