package id_test

import (
	"strings"
	"testing"

	"github.com/xraph/streampay/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"CreationID", id.NewCreationID, "sevt_"},
		{"WithdrawalID", id.NewWithdrawalID, "wevt_"},
		{"CancellationID", id.NewCancellationID, "cevt_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestNew(t *testing.T) {
	i := id.New(id.PrefixWithdrawal)
	if i.IsNil() {
		t.Fatal("expected non-nil ID")
	}
	if i.Prefix() != id.PrefixWithdrawal {
		t.Errorf("expected prefix %q, got %q", id.PrefixWithdrawal, i.Prefix())
	}
}

func TestParseRoundTrip(t *testing.T) {
	original := id.NewCreationID()
	parsed, err := id.Parse(original.String())
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if parsed.String() != original.String() {
		t.Errorf("round-trip mismatch: %q != %q", parsed.String(), original.String())
	}
}

func TestParseWithPrefixRejection(t *testing.T) {
	withdrawal := id.NewWithdrawalID()

	if _, err := id.ParseWithPrefix(withdrawal.String(), id.PrefixCancellation); err == nil {
		t.Error("expected prefix mismatch error")
	}
	if _, err := id.ParseWithPrefix(withdrawal.String(), id.PrefixWithdrawal); err != nil {
		t.Errorf("expected match, got %v", err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"Empty", ""},
		{"Garbage", "not-a-typeid"},
		{"BadSuffix", "wevt_!!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := id.Parse(tt.in); err == nil {
				t.Errorf("Parse(%q): expected error", tt.in)
			}
		})
	}
}

func TestNilID(t *testing.T) {
	var nilID id.ID

	if !nilID.IsNil() {
		t.Error("zero value should be nil")
	}
	if nilID.String() != "" {
		t.Errorf("nil String: got %q", nilID.String())
	}

	text, err := nilID.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	if len(text) != 0 {
		t.Errorf("nil MarshalText: got %q", text)
	}
}

func TestScanAndValue(t *testing.T) {
	original := id.NewCancellationID()

	v, err := original.Value()
	if err != nil {
		t.Fatal(err)
	}

	var scanned id.ID
	if err := scanned.Scan(v); err != nil {
		t.Fatal(err)
	}
	if scanned.String() != original.String() {
		t.Errorf("scan round-trip mismatch: %q != %q", scanned.String(), original.String())
	}

	var fromNil id.ID
	if err := fromNil.Scan(nil); err != nil {
		t.Fatal(err)
	}
	if !fromNil.IsNil() {
		t.Error("scanning nil should yield nil ID")
	}

	if err := scanned.Scan(42); err == nil {
		t.Error("expected error scanning int")
	}
}
