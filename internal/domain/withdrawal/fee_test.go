package withdrawal

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFeeBands(t *testing.T) {
	cases := []struct {
		amount string
		fee    string
	}{
		{"100", "10"},
		{"5000", "10"},
		{"5000.01", "25"},
		{"50000", "25"},
		{"50000.01", "50"},
		{"1000000", "50"},
	}

	for _, tc := range cases {
		amount, _ := decimal.NewFromString(tc.amount)
		want, _ := decimal.NewFromString(tc.fee)
		if got := Fee(amount); !got.Equal(want) {
			t.Errorf("Fee(%s) = %s, want %s", tc.amount, got, tc.fee)
		}
	}
}

func TestFeePlusNetEqualsAmount(t *testing.T) {
	amounts := []string{"1000", "4999.99", "5000", "25000.50", "50000", "75000", "999999.99"}

	for _, s := range amounts {
		amount, _ := decimal.NewFromString(s)
		if sum := Fee(amount).Add(Net(amount)); !sum.Equal(amount) {
			t.Errorf("Fee(%s)+Net(%s) = %s, want %s", s, s, sum, s)
		}
	}
}

func TestFeeDeterministic(t *testing.T) {
	amount, _ := decimal.NewFromString("12345.67")
	first := Fee(amount)
	for i := 0; i < 10; i++ {
		if got := Fee(amount); !got.Equal(first) {
			t.Fatalf("Fee not deterministic: %s vs %s", got, first)
		}
	}
}
