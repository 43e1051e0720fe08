package types

import (
	"encoding/json"
	"math"
	"testing"
)

func TestAmountParseAndString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"Zero", "0", "0"},
		{"Small", "42", "42"},
		{"MaxUint64", "18446744073709551615", "18446744073709551615"},
		{"Above64Bits", "18446744073709551616", "18446744073709551616"},
		{"Large", "340282366920938463463374607431768211455", "340282366920938463463374607431768211455"},
		{"ChunkBoundary", "10000000000000000000", "10000000000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParseAmount(tt.in)
			if err != nil {
				t.Fatalf("ParseAmount(%q): %v", tt.in, err)
			}
			if got := a.String(); got != tt.want {
				t.Errorf("String: got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAmountParseErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"Empty", ""},
		{"Negative", "-1"},
		{"NonDigit", "12x3"},
		{"TooLarge", "340282366920938463463374607431768211456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseAmount(tt.in); err == nil {
				t.Errorf("ParseAmount(%q): expected error", tt.in)
			}
		})
	}
}

func TestAmountArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		op       func() Amount
		expected Amount
	}{
		{"Add", func() Amount { return NewAmount(100).Add(NewAmount(200)) }, NewAmount(300)},
		{"AddCarry", func() Amount { return NewAmount(math.MaxUint64).Add(NewAmount(1)) }, NewAmount128(1, 0)},
		{"Sub", func() Amount { return NewAmount(500).Sub(NewAmount(200)) }, NewAmount(300)},
		{"SubBorrow", func() Amount { return NewAmount128(1, 0).Sub(NewAmount(1)) }, NewAmount(math.MaxUint64)},
		{"SubFloor", func() Amount { return NewAmount(100).SubFloor(NewAmount(200)) }, Zero},
		{"Mul", func() Amount { return NewAmount(1157).Mul(2592000) }, NewAmount(2998944000)},
		{"Div", func() Amount { return NewAmount(2998944000).Div(2592000) }, NewAmount(1157)},
		{"DivFloors", func() Amount { return NewAmount(10).Div(3) }, NewAmount(3)},
		{"DivWide", func() Amount { return NewAmount128(1, 0).Div(2) }, NewAmount(1 << 63)},
		{"Min", func() Amount { return NewAmount(7).Min(NewAmount(5)) }, NewAmount(5)},
		{"Max", func() Amount { return NewAmount(7).Max(NewAmount(5)) }, NewAmount(7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.op(); !got.Equal(tt.expected) {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAmountCheckedOverflow(t *testing.T) {
	maxAmount := NewAmount128(math.MaxUint64, math.MaxUint64)

	if _, err := maxAmount.AddChecked(NewAmount(1)); err == nil {
		t.Error("AddChecked: expected overflow")
	}
	if _, err := Zero.SubChecked(NewAmount(1)); err == nil {
		t.Error("SubChecked: expected underflow")
	}
	if _, err := maxAmount.MulChecked(2); err == nil {
		t.Error("MulChecked: expected overflow")
	}
	if got, err := NewAmount128(1, 0).MulChecked(math.MaxUint64); err != nil {
		t.Errorf("MulChecked wide: unexpected error: %v", err)
	} else if want := NewAmount128(math.MaxUint64, 0); !got.Equal(want) {
		t.Errorf("MulChecked wide = %s, want %s", got, want)
	}
	if _, err := NewAmount128(2, 0).MulChecked(math.MaxUint64); err == nil {
		t.Error("MulChecked wide: expected overflow")
	}
}

func TestAmountAddPanicsOnOverflow(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on overflow")
		}
	}()

	maxAmount := NewAmount128(math.MaxUint64, math.MaxUint64)
	_ = maxAmount.Add(NewAmount(1))
}

func TestAmountDivisionByZero(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on division by zero")
		}
	}()

	_ = NewAmount(100).Div(0)
}

func TestAmountComparisons(t *testing.T) {
	small := NewAmount(5)
	big := NewAmount128(1, 0)

	if !small.LessThan(big) {
		t.Error("LessThan: 5 should be less than 2^64")
	}
	if !big.GreaterThan(small) {
		t.Error("GreaterThan: 2^64 should be greater than 5")
	}
	if small.Cmp(small) != 0 {
		t.Error("Cmp: equal amounts should compare 0")
	}
	if !Zero.IsZero() || Zero.IsPositive() {
		t.Error("Zero should be zero and not positive")
	}
	if !small.IsPositive() {
		t.Error("5 should be positive")
	}
}

func TestAmountJSONRoundTrip(t *testing.T) {
	a := MustParseAmount("340282366920938463463374607431768211455")

	data, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `"340282366920938463463374607431768211455"` {
		t.Errorf("marshal: got %s", data)
	}

	var back Amount
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if !back.Equal(a) {
		t.Errorf("round trip: got %v, want %v", back, a)
	}
}

func TestAmountScan(t *testing.T) {
	tests := []struct {
		name string
		src  any
		want Amount
	}{
		{"String", "123", NewAmount(123)},
		{"Bytes", []byte("456"), NewAmount(456)},
		{"Int64", int64(789), NewAmount(789)},
		{"Nil", nil, Zero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Amount
			if err := a.Scan(tt.src); err != nil {
				t.Fatal(err)
			}
			if !a.Equal(tt.want) {
				t.Errorf("got %v, want %v", a, tt.want)
			}
		})
	}

	var a Amount
	if err := a.Scan(int64(-1)); err == nil {
		t.Error("expected error scanning negative int64")
	}
	if err := a.Scan(3.14); err == nil {
		t.Error("expected error scanning float64")
	}
}

func TestAmountUint64(t *testing.T) {
	if v, ok := NewAmount(42).Uint64(); !ok || v != 42 {
		t.Errorf("got %d, %v", v, ok)
	}
	if _, ok := NewAmount128(1, 0).Uint64(); ok {
		t.Error("2^64 should not fit in uint64")
	}
}
