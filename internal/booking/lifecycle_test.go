package booking

import (
	"context"
	"errors"
	"testing"

	"github.com/sudo-init-do/fixmate/internal/provider"
)

// recordingNotifier counts published events so tests can assert on the
// notification flow without a queue.
type recordingNotifier struct {
	assigned   int
	unassigned int
	completed  int
	cancelled  int
}

func (r *recordingNotifier) BookingAssigned(context.Context, *Booking, *provider.Provider) error {
	r.assigned++
	return nil
}
func (r *recordingNotifier) BookingUnassigned(context.Context, *Booking) error {
	r.unassigned++
	return nil
}
func (r *recordingNotifier) BookingCompleted(context.Context, *Booking) error {
	r.completed++
	return nil
}
func (r *recordingNotifier) BookingCancelled(context.Context, *Booking) error {
	r.cancelled++
	return nil
}

func newTestService(store *memStore) (*Service, *recordingNotifier) {
	n := &recordingNotifier{}
	return NewService(store, NewEngine(store), n, nil), n
}

func TestCreate_AssignsBestProvider(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addProvider(eligibleProvider("p-a", 30, "Emergency"))
	store.addProvider(eligibleProvider("p-b", 80, "Emergency"))
	svc, notifier := newTestService(store)

	res, err := svc.Create(ctx, CreateInput{
		AccountID:   "acct-customer",
		Category:    "Emergency",
		Description: "burst pipe under the sink",
		Address:     "12 Canal St",
		Phone:       "+15550100",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.Assigned == nil || res.Assigned.ID != "p-b" {
		t.Fatalf("assigned = %+v, want p-b", res.Assigned)
	}
	if res.Booking.Status != StatusAssigned {
		t.Errorf("status: got %s, want %s", res.Booking.Status, StatusAssigned)
	}
	if len(res.Booking.History) != 1 {
		t.Errorf("history length: got %d, want 1", len(res.Booking.History))
	}
	if notifier.assigned != 1 {
		t.Errorf("assigned notifications: got %d, want 1", notifier.assigned)
	}
}

func TestCreate_SucceedsWithoutProvider(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc, notifier := newTestService(store)

	res, err := svc.Create(ctx, CreateInput{AccountID: "acct-customer", Category: "Emergency"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if res.Assigned != nil {
		t.Fatalf("assigned = %+v, want nil", res.Assigned)
	}
	if res.Booking.Status != StatusPending {
		t.Errorf("status: got %s, want %s", res.Booking.Status, StatusPending)
	}
	if res.Message == "" {
		t.Error("expected a message telling the caller assignment did not happen")
	}
	if notifier.assigned != 0 {
		t.Errorf("assigned notifications: got %d, want 0", notifier.assigned)
	}

	// The record really exists and stays queued.
	got, err := store.GetBooking(ctx, res.Booking.ID)
	if err != nil {
		t.Fatalf("booking not stored: %v", err)
	}
	if got.Status != StatusPending {
		t.Errorf("stored status: got %s, want %s", got.Status, StatusPending)
	}
}

// Full walk of the happy path with one decline, mirroring a real flow:
// create assigns the top-rated provider, that provider declines, the
// runner-up takes it through accepted, in_progress and completed.
func TestLifecycle_EndToEnd(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addProvider(eligibleProvider("p-a", 30, "Emergency"))
	store.addProvider(eligibleProvider("p-b", 80, "Emergency"))
	svc, notifier := newTestService(store)

	res, err := svc.Create(ctx, CreateInput{AccountID: "acct-customer", Category: "Emergency"})
	if err != nil {
		t.Fatal(err)
	}
	id := res.Booking.ID
	if res.Assigned.ID != "p-b" {
		t.Fatalf("initial pick: got %s, want p-b", res.Assigned.ID)
	}

	actorB := Actor{AccountID: "acct-p-b", Role: RoleProvider}
	actorA := Actor{AccountID: "acct-p-a", Role: RoleProvider}

	// B declines, A takes over.
	st, err := svc.SetStatus(ctx, id, actorB, StatusRejected)
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if !st.Reassigned || st.NewPick == nil || st.NewPick.ID != "p-a" {
		t.Fatalf("reassignment: got %+v, want p-a", st)
	}
	if len(st.Booking.History) != 2 {
		t.Fatalf("history length: got %d, want 2", len(st.Booking.History))
	}

	for _, next := range []Status{StatusAccepted, StatusInProgress, StatusCompleted} {
		if st, err = svc.SetStatus(ctx, id, actorA, next); err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
		if st.Booking.Status != next {
			t.Fatalf("status after %s: got %s", next, st.Booking.Status)
		}
	}

	p, _ := store.ProviderByID(ctx, "p-a")
	if p.JobsDone != 1 {
		t.Errorf("jobs done: got %d, want 1", p.JobsDone)
	}
	if notifier.assigned != 2 || notifier.completed != 1 {
		t.Errorf("notifications: assigned=%d completed=%d, want 2 and 1", notifier.assigned, notifier.completed)
	}
}

func TestSetStatus_DeclineWithEmptyPoolQueuesBooking(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addProvider(eligibleProvider("p-x", 50, "Emergency"))
	svc, notifier := newTestService(store)

	res, err := svc.Create(ctx, CreateInput{AccountID: "acct-customer", Category: "Emergency"})
	if err != nil {
		t.Fatal(err)
	}

	st, err := svc.SetStatus(ctx, res.Booking.ID, Actor{AccountID: "acct-p-x", Role: RoleProvider}, StatusRejected)
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if st.Reassigned {
		t.Error("reassigned = true, want false")
	}
	if st.Booking.Status != StatusPending || st.Booking.AssignedProviderID != nil {
		t.Errorf("booking after exhausted decline: %+v", st.Booking)
	}
	if notifier.unassigned != 1 {
		t.Errorf("unassigned notifications: got %d, want 1", notifier.unassigned)
	}
}

func TestSetStatus_TerminalStatesRefuseTransitions(t *testing.T) {
	ctx := context.Background()
	admin := Actor{AccountID: "acct-admin", Role: RoleAdmin}

	for _, terminal := range []Status{StatusCompleted, StatusCancelled} {
		store := newMemStore()
		b := pendingBooking("b1", "Emergency")
		b.Status = terminal
		if err := store.CreateBooking(ctx, b); err != nil {
			t.Fatal(err)
		}
		svc, _ := newTestService(store)

		for _, requested := range []Status{StatusAccepted, StatusInProgress, StatusCompleted, StatusCancelled, StatusRejected} {
			_, err := svc.SetStatus(ctx, "b1", admin, requested)
			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("%s -> %s: got %v, want ErrInvalidTransition", terminal, requested, err)
			}
		}
		got, _ := store.GetBooking(ctx, "b1")
		if got.Status != terminal {
			t.Errorf("terminal booking mutated: got %s, want %s", got.Status, terminal)
		}
	}
}

func TestSetStatus_ForeignProviderIsRefused(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.addProvider(eligibleProvider("p-x", 50, "Emergency"))
	store.addProvider(eligibleProvider("p-y", 40, "Emergency"))
	svc, _ := newTestService(store)

	res, err := svc.Create(ctx, CreateInput{AccountID: "acct-customer", Category: "Emergency"})
	if err != nil {
		t.Fatal(err)
	}

	intruder := Actor{AccountID: "acct-p-y", Role: RoleProvider}
	for _, requested := range []Status{StatusAccepted, StatusRejected, StatusInProgress, StatusCompleted} {
		_, err := svc.SetStatus(ctx, res.Booking.ID, intruder, requested)
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("requested %s: got %v, want ErrUnauthorized", requested, err)
		}
	}

	got, _ := store.GetBooking(ctx, res.Booking.ID)
	if got.Status != StatusAssigned || *got.AssignedProviderID != "p-x" {
		t.Errorf("booking changed by refused actor: %+v", got)
	}
}

func TestSetStatus_CancelOwnershipGuard(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc, _ := newTestService(store)

	res, err := svc.Create(ctx, CreateInput{AccountID: "acct-owner", Category: "Emergency"})
	if err != nil {
		t.Fatal(err)
	}

	// A different customer may not cancel.
	_, err = svc.SetStatus(ctx, res.Booking.ID, Actor{AccountID: "acct-other", Role: RoleCustomer}, StatusCancelled)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("foreign customer cancel: got %v, want ErrUnauthorized", err)
	}

	// The owner may.
	st, err := svc.SetStatus(ctx, res.Booking.ID, Actor{AccountID: "acct-owner", Role: RoleCustomer}, StatusCancelled)
	if err != nil {
		t.Fatalf("owner cancel: %v", err)
	}
	if st.Booking.Status != StatusCancelled {
		t.Errorf("status: got %s, want %s", st.Booking.Status, StatusCancelled)
	}
}

func TestSetStatus_AdminBypassesOwnershipButNotEdges(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc, _ := newTestService(store)

	res, err := svc.Create(ctx, CreateInput{AccountID: "acct-owner", Category: "Emergency"})
	if err != nil {
		t.Fatal(err)
	}
	admin := Actor{AccountID: "acct-admin", Role: RoleAdmin}

	// No pending -> completed jump, even for admins.
	_, err = svc.SetStatus(ctx, res.Booking.ID, admin, StatusCompleted)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("pending -> completed: got %v, want ErrInvalidTransition", err)
	}

	// Cancelling someone else's pending booking is a defined edge.
	st, err := svc.SetStatus(ctx, res.Booking.ID, admin, StatusCancelled)
	if err != nil {
		t.Fatalf("admin cancel: %v", err)
	}
	if st.Booking.Status != StatusCancelled {
		t.Errorf("status: got %s, want %s", st.Booking.Status, StatusCancelled)
	}
}

func TestSetStatus_EngineStatesNotRequestable(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc, _ := newTestService(store)

	res, err := svc.Create(ctx, CreateInput{AccountID: "acct-owner", Category: "Emergency"})
	if err != nil {
		t.Fatal(err)
	}
	admin := Actor{AccountID: "acct-admin", Role: RoleAdmin}

	for _, requested := range []Status{StatusPending, StatusAssigned} {
		if _, err := svc.SetStatus(ctx, res.Booking.ID, admin, requested); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("requested %s: got %v, want ErrInvalidTransition", requested, err)
		}
	}
}

func TestSetStatus_UnknownBooking(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)
	_, err := svc.SetStatus(context.Background(), "nope", Actor{AccountID: "a", Role: RoleAdmin}, StatusCancelled)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}
