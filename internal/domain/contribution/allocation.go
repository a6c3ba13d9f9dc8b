package contribution

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wishpool/wishpool-api/internal/domain/wishlist"
)

type Strategy string

const (
	StrategyEqual        Strategy = "equal"
	StrategyProportional Strategy = "proportional"
	StrategyPriority     Strategy = "priority"
)

// Allocation is one item's share of a lump-sum contribution. Zero shares
// are kept in the result so callers can see untouched items.
type Allocation struct {
	ItemID uuid.UUID       `json:"item_id"`
	Amount decimal.Decimal `json:"amount"`
}

// Allocate splits total across the given unfunded items. Rounding follows
// the whole-naira floor policy: equal and proportional shares are floored
// and the remainder is left unallocated, not redistributed. The priority
// strategy fills exact needs in priority order and loses nothing to
// rounding; it just stops when the money runs out.
func Allocate(total decimal.Decimal, items []wishlist.Item, strategy Strategy) ([]Allocation, error) {
	if !total.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if len(items) == 0 {
		return nil, ErrNoUnfundedItems
	}

	switch strategy {
	case StrategyEqual, "":
		return allocateEqual(total, items), nil
	case StrategyProportional:
		return allocateProportional(total, items), nil
	case StrategyPriority:
		return allocatePriority(total, items), nil
	default:
		return nil, ErrUnknownStrategy
	}
}

func allocateEqual(total decimal.Decimal, items []wishlist.Item) []Allocation {
	share := total.Div(decimal.NewFromInt(int64(len(items)))).Floor()

	out := make([]Allocation, len(items))
	for i := range items {
		out[i] = Allocation{ItemID: items[i].ID, Amount: share}
	}
	return out
}

func allocateProportional(total decimal.Decimal, items []wishlist.Item) []Allocation {
	totalNeeded := decimal.Zero
	for i := range items {
		totalNeeded = totalNeeded.Add(items[i].Needed())
	}

	out := make([]Allocation, len(items))
	for i := range items {
		share := decimal.Zero
		if totalNeeded.IsPositive() {
			share = total.Mul(items[i].Needed()).Div(totalNeeded).Floor()
		}
		out[i] = Allocation{ItemID: items[i].ID, Amount: share}
	}
	return out
}

func allocatePriority(total decimal.Decimal, items []wishlist.Item) []Allocation {
	ordered := make([]wishlist.Item, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(a, b int) bool {
		return ordered[a].EffectivePriority() < ordered[b].EffectivePriority()
	})

	remaining := total
	out := make([]Allocation, len(ordered))
	for i := range ordered {
		fill := ordered[i].Needed()
		if fill.GreaterThan(remaining) {
			fill = remaining
		}
		out[i] = Allocation{ItemID: ordered[i].ID, Amount: fill}
		remaining = remaining.Sub(fill)
	}
	return out
}
