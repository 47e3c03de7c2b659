package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sudo-init-do/fixmate/internal/provider"
)

func eligibleProvider(id string, rating provider.Rating, specs ...string) provider.Provider {
	return provider.Provider{
		ID:              id,
		AccountID:       "acct-" + id,
		DisplayName:     "Provider " + id,
		Specializations: specs,
		Available:       true,
		Verified:        true,
		Rating:          rating,
	}
}

func pendingBooking(id, category string) *Booking {
	now := time.Now().UTC()
	return &Booking{
		ID:        id,
		AccountID: "acct-customer",
		Category:  category,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestAssign_SkipsIneligibleProviders(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	unavailable := eligibleProvider("p1", 50, "Leak Repair")
	unavailable.Available = false
	unverified := eligibleProvider("p2", 50, "Leak Repair")
	unverified.Verified = false
	store.addProvider(unavailable)
	store.addProvider(unverified)
	store.addProvider(eligibleProvider("p3", 10, "Leak Repair"))

	b := pendingBooking("b1", "Leak Repair")
	if err := store.CreateBooking(ctx, b); err != nil {
		t.Fatal(err)
	}

	picked, err := NewEngine(store).Assign(ctx, "b1", "Leak Repair")
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if picked == nil || picked.ID != "p3" {
		t.Fatalf("picked = %+v, want p3", picked)
	}
}

func TestAssign_PicksHighestRatingDeterministically(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addProvider(eligibleProvider("p-a", 10, "Leak Repair"))
	store.addProvider(eligibleProvider("p-c", 47, "Leak Repair"))
	store.addProvider(eligibleProvider("p-b", 47, "Leak Repair"))
	store.addProvider(eligibleProvider("p-d", 5, "Leak Repair"))

	b := pendingBooking("b1", "Leak Repair")
	if err := store.CreateBooking(ctx, b); err != nil {
		t.Fatal(err)
	}

	// Tie on 47 between p-b and p-c: lowest id wins, every time.
	for i := 0; i < 5; i++ {
		picked, err := NewEngine(store).Assign(ctx, "b1", "Leak Repair")
		if err != nil {
			t.Fatalf("Assign: %v", err)
		}
		if picked.ID != "p-b" {
			t.Fatalf("run %d: picked %s, want p-b", i, picked.ID)
		}
		// reset for the next round
		store.bookings["b1"].Status = StatusPending
	}
}

func TestAssign_EmptyPoolIsNoOp(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addProvider(eligibleProvider("p1", 40, "Drain Cleaning"))

	b := pendingBooking("b1", "Leak Repair")
	if err := store.CreateBooking(ctx, b); err != nil {
		t.Fatal(err)
	}

	picked, err := NewEngine(store).Assign(ctx, "b1", "Leak Repair")
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if picked != nil {
		t.Fatalf("picked = %+v, want nil", picked)
	}

	got, _ := store.GetBooking(ctx, "b1")
	if got.Status != StatusPending {
		t.Errorf("status: got %s, want %s", got.Status, StatusPending)
	}
	if len(got.History) != 0 {
		t.Errorf("history length: got %d, want 0", len(got.History))
	}
	if got.AssignedProviderID != nil {
		t.Errorf("assigned provider: got %v, want nil", *got.AssignedProviderID)
	}
}

func TestAssign_RecordsStatusAndHistory(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addProvider(eligibleProvider("p1", 30, "Leak Repair"))

	b := pendingBooking("b1", "Leak Repair")
	if err := store.CreateBooking(ctx, b); err != nil {
		t.Fatal(err)
	}

	picked, err := NewEngine(store).Assign(ctx, "b1", "Leak Repair")
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}

	got, _ := store.GetBooking(ctx, "b1")
	if got.Status != StatusAssigned {
		t.Errorf("status: got %s, want %s", got.Status, StatusAssigned)
	}
	if got.AssignedProviderID == nil || *got.AssignedProviderID != picked.ID {
		t.Errorf("assigned provider: got %v, want %s", got.AssignedProviderID, picked.ID)
	}
	if len(got.History) != 1 {
		t.Fatalf("history length: got %d, want 1", len(got.History))
	}
	entry := got.History[0]
	if entry.ProviderID != "p1" || entry.Status != StatusAssigned {
		t.Errorf("history entry: got %+v", entry)
	}
	if entry.AssignedAt.IsZero() {
		t.Error("history entry missing timestamp")
	}
}

func TestAssign_ConflictOnStaleStatus(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addProvider(eligibleProvider("p1", 30, "Leak Repair"))

	// The booking moved on between the candidate read and the write; the
	// conditional update must refuse and leave the record alone.
	b := pendingBooking("b1", "Leak Repair")
	if err := store.CreateBooking(ctx, b); err != nil {
		t.Fatal(err)
	}
	store.bookings["b1"].Status = StatusAccepted

	_, err := NewEngine(store).Assign(ctx, "b1", "Leak Repair")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("got %v, want ErrConflict", err)
	}

	got, _ := store.GetBooking(ctx, "b1")
	if got.Status != StatusAccepted || got.AssignedProviderID != nil || len(got.History) != 0 {
		t.Errorf("booking mutated on refused update: %+v", got)
	}
}

func TestAssign_StoreFailurePropagates(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addProvider(eligibleProvider("p1", 30, "Leak Repair"))
	store.updateErr = errors.New("connection reset")

	b := pendingBooking("b1", "Leak Repair")
	if err := store.CreateBooking(ctx, b); err != nil {
		t.Fatal(err)
	}

	if _, err := NewEngine(store).Assign(ctx, "b1", "Leak Repair"); err == nil {
		t.Fatal("expected error from failed store update")
	}
	got, _ := store.GetBooking(ctx, "b1")
	if got.Status != StatusPending || len(got.History) != 0 {
		t.Errorf("booking mutated despite failed update: %+v", got)
	}
}
