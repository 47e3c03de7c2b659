package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/sudo-init-do/fixmate/internal/provider"
)

// Engine selects providers for bookings. It reads and writes through the
// injected Store and holds no state of its own; the clock is injectable
// for tests.
type Engine struct {
	store Store
	now   func() time.Time
}

// NewEngine wires an Engine to a store.
func NewEngine(s Store) *Engine {
	return &Engine{store: s, now: time.Now}
}

// Assign picks the best eligible provider for a pending booking and
// records the decision. It returns nil when no eligible provider carries
// the category; in that case the booking is left untouched in pending.
//
// Selection: among providers with availability and verification both true
// whose specializations include the category, the highest rated wins.
// Ties are broken by ascending provider id, the order EligibleProviders
// is required to return, so results are reproducible.
func (e *Engine) Assign(ctx context.Context, bookingID, category string) (*provider.Provider, error) {
	candidates, err := e.store.EligibleProviders(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("assign: list providers: %w", err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	picked := candidates[0]
	if err := e.record(ctx, bookingID, picked.ID, StatusPending); err != nil {
		return nil, err
	}
	return &picked, nil
}

// record moves the booking to assigned and appends the history entry in
// one conditional store update, keyed on the expected prior status.
func (e *Engine) record(ctx context.Context, bookingID, providerID string, expect Status) error {
	assigned := StatusAssigned
	_, err := e.store.UpdateBooking(ctx, bookingID, Patch{
		Status:           &assigned,
		AssignedProvider: &providerID,
		ExpectStatus:     &expect,
		Append: &Assignment{
			ProviderID: providerID,
			AssignedAt: e.now().UTC(),
			Status:     StatusAssigned,
		},
	})
	if err != nil {
		return fmt.Errorf("assign booking %s to provider %s: %w", bookingID, providerID, err)
	}
	return nil
}
