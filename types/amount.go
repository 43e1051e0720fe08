// Package types provides common types used across streampay.
package types

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

// ErrOverflow is returned by checked arithmetic when a result does not
// fit in 128 bits (or would go below zero for subtraction).
var ErrOverflow = errors.New("amount: overflow")

// Amount represents a monetary value in the smallest unit of its asset,
// as an unsigned 128-bit integer. All arithmetic is integer-only — no
// floating point — and every operation either checks for overflow
// explicitly or panics when an overflow would violate a caller-held
// invariant. Values never wrap silently.
//
// The zero value is the amount 0 and is ready to use.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type Amount struct {
	hi, lo uint64
}

// Zero is the zero Amount.
var Zero Amount

// NewAmount creates an Amount from a uint64 value.
func NewAmount(v uint64) Amount { return Amount{lo: v} }

// NewAmount128 creates an Amount from high and low 64-bit halves.
func NewAmount128(hi, lo uint64) Amount { return Amount{hi: hi, lo: lo} }

// ParseAmount parses a non-negative decimal string into an Amount.
func ParseAmount(s string) (Amount, error) {
	if s == "" {
		return Zero, fmt.Errorf("amount: parse %q: empty string", s)
	}

	var a Amount
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return Zero, fmt.Errorf("amount: parse %q: invalid character %q", s, c)
		}

		shifted, err := a.MulChecked(10)
		if err != nil {
			return Zero, fmt.Errorf("amount: parse %q: %w", s, ErrOverflow)
		}
		a, err = shifted.AddChecked(NewAmount(uint64(c - '0')))
		if err != nil {
			return Zero, fmt.Errorf("amount: parse %q: %w", s, ErrOverflow)
		}
	}
	return a, nil
}

// MustParseAmount is like ParseAmount but panics on error.
// Use for hardcoded values.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Arithmetic operations

// AddChecked returns a+other, or ErrOverflow if the sum exceeds 128 bits.
func (a Amount) AddChecked(other Amount) (Amount, error) {
	lo, carry := bits.Add64(a.lo, other.lo, 0)
	hi, carry := bits.Add64(a.hi, other.hi, carry)
	if carry != 0 {
		return Zero, ErrOverflow
	}
	return Amount{hi: hi, lo: lo}, nil
}

// Add returns a+other. Panics on overflow; use AddChecked when the
// operands are not already bounded by an invariant.
func (a Amount) Add(other Amount) Amount {
	sum, err := a.AddChecked(other)
	if err != nil {
		panic("amount: addition overflow")
	}
	return sum
}

// SubChecked returns a-other, or ErrOverflow if other > a.
func (a Amount) SubChecked(other Amount) (Amount, error) {
	lo, borrow := bits.Sub64(a.lo, other.lo, 0)
	hi, borrow := bits.Sub64(a.hi, other.hi, borrow)
	if borrow != 0 {
		return Zero, ErrOverflow
	}
	return Amount{hi: hi, lo: lo}, nil
}

// Sub returns a-other. Panics if other > a.
func (a Amount) Sub(other Amount) Amount {
	diff, err := a.SubChecked(other)
	if err != nil {
		panic("amount: subtraction underflow")
	}
	return diff
}

// SubFloor returns a-other floored at zero.
func (a Amount) SubFloor(other Amount) Amount {
	diff, err := a.SubChecked(other)
	if err != nil {
		return Zero
	}
	return diff
}

// MulChecked returns a*x, or ErrOverflow if the product exceeds 128 bits.
func (a Amount) MulChecked(x uint64) (Amount, error) {
	carry, lo := bits.Mul64(a.lo, x)
	hiOverflow, hiPart := bits.Mul64(a.hi, x)
	if hiOverflow != 0 {
		return Zero, ErrOverflow
	}
	hi, carry := bits.Add64(hiPart, carry, 0)
	if carry != 0 {
		return Zero, ErrOverflow
	}
	return Amount{hi: hi, lo: lo}, nil
}

// Mul returns a*x. Panics on overflow.
func (a Amount) Mul(x uint64) Amount {
	product, err := a.MulChecked(x)
	if err != nil {
		panic("amount: multiplication overflow")
	}
	return product
}

// Div returns a/x using integer (floor) division. Panics if x is zero.
func (a Amount) Div(x uint64) Amount {
	q, _ := a.divmod(x)
	return q
}

// divmod returns the quotient and remainder of a/x. Panics if x is zero.
func (a Amount) divmod(x uint64) (Amount, uint64) {
	if x == 0 {
		panic("amount: division by zero")
	}
	qhi := a.hi / x
	rem := a.hi % x
	qlo, rem := bits.Div64(rem, a.lo, x)
	return Amount{hi: qhi, lo: qlo}, rem
}

// Comparison methods

// Cmp compares a and other, returning -1, 0 or +1.
func (a Amount) Cmp(other Amount) int {
	switch {
	case a.hi < other.hi:
		return -1
	case a.hi > other.hi:
		return 1
	case a.lo < other.lo:
		return -1
	case a.lo > other.lo:
		return 1
	default:
		return 0
	}
}

// IsZero returns true if the amount is zero.
func (a Amount) IsZero() bool { return a.hi == 0 && a.lo == 0 }

// IsPositive returns true if the amount is greater than zero.
func (a Amount) IsPositive() bool { return !a.IsZero() }

// Equal returns true if both amounts are equal.
func (a Amount) Equal(other Amount) bool { return a == other }

// LessThan returns true if a < other.
func (a Amount) LessThan(other Amount) bool { return a.Cmp(other) < 0 }

// GreaterThan returns true if a > other.
func (a Amount) GreaterThan(other Amount) bool { return a.Cmp(other) > 0 }

// Min returns the smaller of two amounts.
func (a Amount) Min(other Amount) Amount {
	if a.Cmp(other) < 0 {
		return a
	}
	return other
}

// Max returns the larger of two amounts.
func (a Amount) Max(other Amount) Amount {
	if a.Cmp(other) > 0 {
		return a
	}
	return other
}

// Uint64 returns the amount as a uint64 and whether it fits.
func (a Amount) Uint64() (uint64, bool) {
	return a.lo, a.hi == 0
}

// Formatting

// String returns the decimal representation of the amount.
func (a Amount) String() string {
	if a.hi == 0 {
		return strconv.FormatUint(a.lo, 10)
	}

	// Peel off 19 decimal digits per division.
	const chunk = uint64(1e19)
	var rems []uint64
	for v := a; !v.IsZero(); {
		q, r := v.divmod(chunk)
		rems = append(rems, r)
		v = q
	}

	var b strings.Builder
	b.WriteString(strconv.FormatUint(rems[len(rems)-1], 10))
	for i := len(rems) - 2; i >= 0; i-- {
		fmt.Fprintf(&b, "%019d", rems[i])
	}
	return b.String()
}

// MarshalText implements encoding.TextMarshaler.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Amount) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*a = Zero
		return nil
	}

	parsed, err := ParseAmount(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value implements driver.Valuer for database storage. Amounts are
// stored as decimal strings so the full 128-bit range round-trips.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan implements sql.Scanner for database retrieval.
func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = Zero
		return nil
	case string:
		return a.UnmarshalText([]byte(v))
	case []byte:
		return a.UnmarshalText(v)
	case int64:
		if v < 0 {
			return fmt.Errorf("amount: cannot scan negative value %d", v)
		}
		*a = NewAmount(uint64(v))
		return nil
	default:
		return fmt.Errorf("amount: cannot scan %T into Amount", src)
	}
}
