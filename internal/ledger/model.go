package ledger

import (
	"encoding/json"
	"fmt"
)

// UserAccount is the durable per-user record: identity, bottle history and coin balance.
type UserAccount struct {
	Name     string         `json:"name"`
	Mobile   string         `json:"mobile"`
	Bottles  []BottleRecord `json:"bottles"`
	EcoCoins int64          `json:"ecoCoins"`
}

// BottleRecord is one accepted bottle scan.
type BottleRecord struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	SizeMl    int    `json:"sizeMl"`
	Timestamp int64  `json:"timestamp"`
}

// Patch lists the fields an update replaces. Nil fields are left untouched.
type Patch struct {
	Bottles  []BottleRecord
	EcoCoins *int64
}

// Coins is a convenience for building a Patch balance.
func Coins(v int64) *int64 {
	return &v
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Bottles == nil && p.EcoCoins == nil
}

func (a UserAccount) merge(p Patch) UserAccount {
	out := a.Clone()
	if p.Bottles != nil {
		out.Bottles = append([]BottleRecord{}, p.Bottles...)
	}
	if p.EcoCoins != nil {
		out.EcoCoins = *p.EcoCoins
	}
	return out
}

// Clone returns a deep copy so callers never share the bottles slice.
func (a UserAccount) Clone() UserAccount {
	out := a
	out.Bottles = make([]BottleRecord, len(a.Bottles))
	copy(out.Bottles, a.Bottles)
	return out
}

func encodeAccount(a UserAccount) ([]byte, error) {
	if a.Bottles == nil {
		a.Bottles = []BottleRecord{}
	}
	return json.Marshal(a)
}

func decodeAccount(raw []byte) (UserAccount, error) {
	var a UserAccount
	if err := json.Unmarshal(raw, &a); err != nil {
		return UserAccount{}, fmt.Errorf("decode account: %w", err)
	}
	if a.Bottles == nil {
		a.Bottles = []BottleRecord{}
	}
	return a, nil
}
