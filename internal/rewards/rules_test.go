package rewards

import (
	"errors"
	"testing"

	"github.com/win-bin/win_bin/internal/ledger"
)

func TestCoinsForBottle(t *testing.T) {
	if CoinsForBottle() != 10 {
		t.Fatalf("expected 10 coins per bottle, got %d", CoinsForBottle())
	}
}

func TestCanAfford(t *testing.T) {
	cases := []struct {
		balance, cost int64
		want          bool
	}{
		{200, 200, true},
		{201, 200, true},
		{150, 200, false},
		{0, 0, true},
	}
	for _, tc := range cases {
		if got := CanAfford(tc.balance, tc.cost); got != tc.want {
			t.Fatalf("CanAfford(%d, %d) = %v, want %v", tc.balance, tc.cost, got, tc.want)
		}
	}
}

func TestApplyEarnDoesNotAliasInput(t *testing.T) {
	bottles := make([]ledger.BottleRecord, 1, 4)
	bottles[0] = ledger.BottleRecord{ID: "a", Type: "Pepsi"}

	balance, next := ApplyEarn(10, bottles, ledger.BottleRecord{ID: "b", Type: "Water Bottle"})
	if balance != 20 {
		t.Fatalf("expected balance 20, got %d", balance)
	}
	if len(next) != 2 || next[1].ID != "b" {
		t.Fatalf("expected bottle appended, got %+v", next)
	}
	if len(bottles) != 1 {
		t.Fatalf("input slice length changed")
	}

	// A second earn from the original slice must not clobber the first result.
	_, other := ApplyEarn(10, bottles, ledger.BottleRecord{ID: "c"})
	if next[1].ID != "b" || other[1].ID != "c" {
		t.Fatalf("results share backing array: %+v %+v", next, other)
	}
}

func TestApplyRedeem(t *testing.T) {
	balance, err := ApplyRedeem(200, 200)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if balance != 0 {
		t.Fatalf("expected 0, got %d", balance)
	}

	_, err = ApplyRedeem(balance, 100)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
}

func TestApplyRedeemReportsShortfall(t *testing.T) {
	balance, err := ApplyRedeem(150, 200)
	var insufficient *InsufficientBalanceError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected *InsufficientBalanceError, got %v", err)
	}
	if insufficient.Shortfall() != 50 {
		t.Fatalf("expected shortfall 50, got %d", insufficient.Shortfall())
	}
	if balance != 150 {
		t.Fatalf("rejected redeem changed balance to %d", balance)
	}
}

func TestApplyRedeemRejectsNonPositiveCost(t *testing.T) {
	for _, cost := range []int64{0, -5} {
		if _, err := ApplyRedeem(100, cost); !errors.Is(err, ErrInvalidCost) {
			t.Fatalf("cost %d: expected ErrInvalidCost, got %v", cost, err)
		}
	}
}

func TestExpectedBalance(t *testing.T) {
	if got := ExpectedBalance(25, 200); got != 50 {
		t.Fatalf("expected 50, got %d", got)
	}
}
