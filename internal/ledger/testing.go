package ledger

import "context"

// Seed writes acc straight into a backend, bypassing the cap and the existence
// check. Test helper.
func Seed(kv KV, acc UserAccount) error {
	raw, err := encodeAccount(acc)
	if err != nil {
		return err
	}
	return kv.Set(context.Background(), AccountKey(acc.Mobile), raw)
}
