package money

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/congo-pay/tradepay/internal/apperrors"
)

func TestToMinor(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		err  bool
	}{
		{in: "300", want: 30_000},
		{in: "300.5", want: 30_050},
		{in: "0.01", want: 1},
		{in: "0", err: true},
		{in: "-10", err: true},
		{in: "1.005", err: true},
		{in: "100000000000000000000", err: true},
	}
	for _, tc := range cases {
		got, err := ToMinor(decimal.RequireFromString(tc.in))
		if tc.err {
			if !errors.Is(err, apperrors.ErrInvalidAmount) {
				t.Fatalf("%s: expected invalid amount, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.in, tc.want, got)
		}
	}
}

func TestFormat(t *testing.T) {
	if got := Format(30_050); got != "R$300.50" {
		t.Fatalf("unexpected format %q", got)
	}
	if got := Format(7); got != "R$0.07" {
		t.Fatalf("unexpected format %q", got)
	}
}
