package booking

import (
	"context"
	"fmt"

	"github.com/sudo-init-do/fixmate/internal/provider"
)

// Reassign re-runs selection for a booking whose assigned provider just
// declined, excluding the decliner. When nobody else is eligible the
// booking returns to pending with no assigned provider; its history keeps
// the prior entries. Not idempotent: the lifecycle controller gates it to
// exactly one call per decline.
func (e *Engine) Reassign(ctx context.Context, bookingID, excludedProviderID string) (*provider.Provider, error) {
	b, err := e.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("reassign: get booking: %w", err)
	}

	candidates, err := e.store.EligibleProviders(ctx, b.Category)
	if err != nil {
		return nil, fmt.Errorf("reassign: list providers: %w", err)
	}

	var picked *provider.Provider
	for i := range candidates {
		if candidates[i].ID != excludedProviderID {
			picked = &candidates[i]
			break
		}
	}

	if picked == nil {
		pending := StatusPending
		expect := StatusAssigned
		_, err := e.store.UpdateBooking(ctx, bookingID, Patch{
			Status:        &pending,
			ClearAssigned: true,
			ExpectStatus:  &expect,
		})
		if err != nil {
			return nil, fmt.Errorf("reassign: unassign booking: %w", err)
		}
		return nil, nil
	}

	if err := e.record(ctx, bookingID, picked.ID, StatusAssigned); err != nil {
		return nil, err
	}
	return picked, nil
}
