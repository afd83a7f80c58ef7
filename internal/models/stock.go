package models

import (
	"fmt"
	"strconv"
)

const (
	// MaxStock is the largest quantity a Stock may hold.
	MaxStock = 999999
	// DefaultLowStockThreshold is used when callers do not pick their own.
	DefaultLowStockThreshold = 10
)

// Stock is an immutable inventory quantity in the range [0, MaxStock].
type Stock struct {
	value int
}

func NewStock(quantity int) (Stock, error) {
	if quantity < 0 {
		return Stock{}, fmt.Errorf("%w: stock %d cannot be negative", ErrInvalidQuantity, quantity)
	}
	if quantity > MaxStock {
		return Stock{}, fmt.Errorf("%w: stock %d exceeds maximum %d", ErrInvalidQuantity, quantity, MaxStock)
	}
	return Stock{value: quantity}, nil
}

func (s Stock) Value() int { return s.value }

// Add returns a new Stock increased by delta. Use Sub to decrease.
func (s Stock) Add(delta int) (Stock, error) {
	if delta < 0 {
		return Stock{}, fmt.Errorf("%w: cannot add negative quantity %d", ErrInvalidQuantity, delta)
	}
	return NewStock(s.value + delta)
}

// Sub returns a new Stock decreased by delta.
func (s Stock) Sub(delta int) (Stock, error) {
	if delta < 0 {
		return Stock{}, fmt.Errorf("%w: cannot subtract negative quantity %d", ErrInvalidQuantity, delta)
	}
	if s.value-delta < 0 {
		return Stock{}, fmt.Errorf("%w: stock %d minus %d would be negative", ErrInvalidQuantity, s.value, delta)
	}
	return NewStock(s.value - delta)
}

func (s Stock) IsAvailable() bool  { return s.value > 0 }
func (s Stock) IsOutOfStock() bool { return s.value == 0 }

// IsLowStock reports whether some, but no more than threshold, units remain.
func (s Stock) IsLowStock(threshold int) bool {
	return s.value > 0 && s.value <= threshold
}

func (s Stock) Cmp(other Stock) int {
	switch {
	case s.value < other.value:
		return -1
	case s.value > other.value:
		return 1
	}
	return 0
}

func (s Stock) Equal(other Stock) bool { return s.value == other.value }

func (s Stock) String() string { return strconv.Itoa(s.value) }

func (s Stock) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Itoa(s.value)), nil
}

func (s *Stock) UnmarshalJSON(data []byte) error {
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("%w: %s is not an integer", ErrInvalidQuantity, data)
	}
	parsed, err := NewStock(n)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
