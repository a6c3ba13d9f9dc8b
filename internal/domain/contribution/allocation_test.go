package contribution

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wishpool/wishpool-api/internal/domain/wishlist"
)

func unfundedItem(price string, priority int) wishlist.Item {
	p, _ := decimal.NewFromString(price)
	item := wishlist.Item{ID: uuid.New(), Price: p, TotalContributed: decimal.Zero}
	if priority > 0 {
		item.Priority = sql.NullInt32{Int32: int32(priority), Valid: true}
	}
	return item
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func TestAllocatePriorityFillsInOrder(t *testing.T) {
	items := []wishlist.Item{
		unfundedItem("500", 1),
		unfundedItem("300", 2),
		unfundedItem("200", 3),
	}

	got, err := Allocate(dec(t, "700"), items, StrategyPriority)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	want := []string{"500", "200", "0"}
	for i, alloc := range got {
		if !alloc.Amount.Equal(dec(t, want[i])) {
			t.Errorf("allocation[%d] = %s, want %s", i, alloc.Amount, want[i])
		}
	}
}

func TestAllocatePrioritySortsUnsetLast(t *testing.T) {
	first := unfundedItem("400", 5)
	unset := unfundedItem("400", 0) // no priority, treated as 999

	got, err := Allocate(dec(t, "500"), []wishlist.Item{unset, first}, StrategyPriority)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	byItem := map[uuid.UUID]decimal.Decimal{}
	for _, a := range got {
		byItem[a.ItemID] = a.Amount
	}
	if !byItem[first.ID].Equal(dec(t, "400")) {
		t.Errorf("prioritized item got %s, want 400", byItem[first.ID])
	}
	if !byItem[unset.ID].Equal(dec(t, "100")) {
		t.Errorf("unprioritized item got %s, want 100", byItem[unset.ID])
	}
}

func TestAllocateEqualFloorsAndDropsRemainder(t *testing.T) {
	items := []wishlist.Item{
		unfundedItem("1000", 0),
		unfundedItem("1000", 0),
		unfundedItem("1000", 0),
	}

	got, err := Allocate(dec(t, "100"), items, StrategyEqual)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	allocated := decimal.Zero
	for i, alloc := range got {
		if !alloc.Amount.Equal(dec(t, "33")) {
			t.Errorf("allocation[%d] = %s, want 33", i, alloc.Amount)
		}
		allocated = allocated.Add(alloc.Amount)
	}
	// 1 naira is deliberately unallocated, not redistributed
	if !allocated.Equal(dec(t, "99")) {
		t.Errorf("total allocated = %s, want 99", allocated)
	}
}

func TestAllocateProportionalSplitsByNeed(t *testing.T) {
	big := unfundedItem("600", 0)
	small := unfundedItem("300", 0)

	got, err := Allocate(dec(t, "300"), []wishlist.Item{big, small}, StrategyProportional)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	byItem := map[uuid.UUID]decimal.Decimal{}
	for _, a := range got {
		byItem[a.ItemID] = a.Amount
	}
	if !byItem[big.ID].Equal(dec(t, "200")) {
		t.Errorf("big item got %s, want 200", byItem[big.ID])
	}
	if !byItem[small.ID].Equal(dec(t, "100")) {
		t.Errorf("small item got %s, want 100", byItem[small.ID])
	}
}

func TestAllocateDefaultsToEqual(t *testing.T) {
	items := []wishlist.Item{unfundedItem("100", 0), unfundedItem("100", 0)}

	got, err := Allocate(dec(t, "50"), items, "")
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	for i, alloc := range got {
		if !alloc.Amount.Equal(dec(t, "25")) {
			t.Errorf("allocation[%d] = %s, want 25", i, alloc.Amount)
		}
	}
}

func TestAllocateRejectsBadInput(t *testing.T) {
	items := []wishlist.Item{unfundedItem("100", 0)}

	if _, err := Allocate(decimal.Zero, items, StrategyEqual); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("zero total: got %v, want ErrInvalidAmount", err)
	}
	if _, err := Allocate(dec(t, "-10"), items, StrategyEqual); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("negative total: got %v, want ErrInvalidAmount", err)
	}
	if _, err := Allocate(dec(t, "100"), nil, StrategyEqual); !errors.Is(err, ErrNoUnfundedItems) {
		t.Errorf("no items: got %v, want ErrNoUnfundedItems", err)
	}
	if _, err := Allocate(dec(t, "100"), items, Strategy("random")); !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("bad strategy: got %v, want ErrUnknownStrategy", err)
	}
}
