package rewards

import (
	"errors"
	"fmt"
)

// Redemption actions.
const (
	ActionRoute     = "route"
	ActionAnimation = "animation"
)

// FullWaiverValue marks a discount that waives the whole tax.
const FullWaiverValue = 999

// ErrUnknownOption is returned for ids not in the catalog.
var ErrUnknownOption = errors.New("unknown redemption option")

// Option is one thing EcoCoins can be spent on.
type Option struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Cost        int64  `json:"cost"`
	Action      string `json:"action"`
	// Value is the discount handed to the food demo; FullWaiverValue means all tax.
	Value int64 `json:"value"`
}

var catalog = []Option{
	{
		ID:          "gst10",
		Name:        "GST Off (Orders up to ₹200)",
		Description: "Redeem for a full GST waiver on food orders up to ₹200.",
		Cost:        100,
		Action:      ActionRoute,
		Value:       20,
	},
	{
		ID:          "gst_full_above_200",
		Name:        "GST Off (Orders above ₹200)",
		Description: "Redeem for a full GST waiver on food orders above ₹200.",
		Cost:        200,
		Action:      ActionRoute,
		Value:       FullWaiverValue,
	},
	{
		ID:          "tree",
		Name:        "Plant a Tree",
		Description: "Contribute to planting a tree in your name.",
		Cost:        200,
		Action:      ActionAnimation,
		Value:       0,
	},
}

// Catalog returns a copy of the redemption options in display order.
func Catalog() []Option {
	out := make([]Option, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup finds an option by id.
func Lookup(id string) (Option, error) {
	for _, o := range catalog {
		if o.ID == id {
			return o, nil
		}
	}
	return Option{}, fmt.Errorf("%w: %s", ErrUnknownOption, id)
}

// RedirectPath is where the client goes after a route redemption, empty otherwise.
func (o Option) RedirectPath() string {
	if o.Action != ActionRoute {
		return ""
	}
	return fmt.Sprintf("/irctc-food-demo?discount=%d", o.Value)
}
