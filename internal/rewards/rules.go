// Package rewards holds the EcoCoin arithmetic. Nothing here performs I/O.
package rewards

import (
	"errors"
	"fmt"

	"github.com/win-bin/win_bin/internal/ledger"
)

// CoinsPerBottle is the reward for one accepted bottle scan.
const CoinsPerBottle int64 = 10

var (
	// ErrInsufficientBalance matches any *InsufficientBalanceError.
	ErrInsufficientBalance = errors.New("insufficient eco coins")

	// ErrInvalidCost rejects zero or negative redemption amounts.
	ErrInvalidCost = errors.New("cost must be positive")
)

// InsufficientBalanceError reports how far a balance is from a cost.
type InsufficientBalanceError struct {
	Balance int64
	Cost    int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient eco coins: need %d more", e.Shortfall())
}

// Is lets errors.Is match ErrInsufficientBalance.
func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}

// Shortfall is the number of coins still needed.
func (e *InsufficientBalanceError) Shortfall() int64 {
	return e.Cost - e.Balance
}

// CoinsForBottle returns the reward for one bottle.
func CoinsForBottle() int64 {
	return CoinsPerBottle
}

// CanAfford reports whether balance covers cost.
func CanAfford(balance, cost int64) bool {
	return balance >= cost
}

// ApplyEarn appends bottle to a copy of bottles and adds the bottle reward.
func ApplyEarn(balance int64, bottles []ledger.BottleRecord, bottle ledger.BottleRecord) (int64, []ledger.BottleRecord) {
	next := make([]ledger.BottleRecord, len(bottles), len(bottles)+1)
	copy(next, bottles)
	next = append(next, bottle)
	return balance + CoinsForBottle(), next
}

// ApplyRedeem subtracts cost from balance, refusing to go below zero.
func ApplyRedeem(balance, cost int64) (int64, error) {
	if cost <= 0 {
		return balance, ErrInvalidCost
	}
	if !CanAfford(balance, cost) {
		return balance, &InsufficientBalanceError{Balance: balance, Cost: cost}
	}
	return balance - cost, nil
}

// ExpectedBalance is the balance an account must hold after bottleCount scans
// and redeemed coins spent.
func ExpectedBalance(bottleCount int, redeemed int64) int64 {
	return int64(bottleCount)*CoinsPerBottle - redeemed
}
