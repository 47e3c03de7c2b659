package booking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sudo-init-do/fixmate/internal/provider"
)

// memStore is an in-memory Store for exercising the engines and the
// lifecycle controller without Postgres. It mirrors the ordering contract
// of the real store: rating descending, id ascending.
type memStore struct {
	bookings  map[string]*Booking
	providers map[string]*provider.Provider

	updateErr error // when set, UpdateBooking fails with it
}

func newMemStore() *memStore {
	return &memStore{
		bookings:  make(map[string]*Booking),
		providers: make(map[string]*provider.Provider),
	}
}

func (m *memStore) addProvider(p provider.Provider) {
	cp := p
	m.providers[p.ID] = &cp
}

func (m *memStore) CreateBooking(_ context.Context, b *Booking) error {
	cp := *b
	m.bookings[b.ID] = &cp
	return nil
}

func (m *memStore) GetBooking(_ context.Context, id string) (*Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", id, ErrNotFound)
	}
	return copyBooking(b), nil
}

func (m *memStore) UpdateBooking(_ context.Context, id string, p Patch) (*Booking, error) {
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	b, ok := m.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", id, ErrNotFound)
	}
	if p.ExpectStatus != nil && b.Status != *p.ExpectStatus {
		return nil, fmt.Errorf("booking %s is %s, expected %s: %w", id, b.Status, *p.ExpectStatus, ErrConflict)
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
	if p.AssignedProvider != nil {
		v := *p.AssignedProvider
		b.AssignedProviderID = &v
	}
	if p.ClearAssigned {
		b.AssignedProviderID = nil
	}
	if p.Append != nil {
		b.History = append(b.History, *p.Append)
	}
	b.UpdatedAt = time.Now().UTC()
	return copyBooking(b), nil
}

func (m *memStore) EligibleProviders(_ context.Context, specialization string) ([]provider.Provider, error) {
	var out []provider.Provider
	for _, p := range m.providers {
		if p.Eligible() && p.HasSpecialization(specialization) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memStore) ProviderByID(_ context.Context, id string) (*provider.Provider, error) {
	p, ok := m.providers[id]
	if !ok {
		return nil, fmt.Errorf("provider %s: %w", id, ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) ProviderByAccount(_ context.Context, accountID string) (*provider.Provider, error) {
	for _, p := range m.providers {
		if p.AccountID == accountID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("provider for account %s: %w", accountID, ErrNotFound)
}

func (m *memStore) BookingsByAccount(_ context.Context, accountID string) ([]Booking, error) {
	var out []Booking
	for _, b := range m.bookings {
		if b.AccountID == accountID {
			out = append(out, *copyBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) BookingsByProvider(_ context.Context, providerID string) ([]Booking, error) {
	var out []Booking
	for _, b := range m.bookings {
		if b.AssignedProviderID != nil && *b.AssignedProviderID == providerID {
			out = append(out, *copyBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) IncrementProviderJobs(_ context.Context, providerID string) error {
	p, ok := m.providers[providerID]
	if !ok {
		return fmt.Errorf("provider %s: %w", providerID, ErrNotFound)
	}
	p.JobsDone++
	return nil
}

func copyBooking(b *Booking) *Booking {
	cp := *b
	if b.AssignedProviderID != nil {
		v := *b.AssignedProviderID
		cp.AssignedProviderID = &v
	}
	cp.History = append([]Assignment(nil), b.History...)
	return &cp
}
