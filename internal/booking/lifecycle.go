package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sudo-init-do/fixmate/internal/provider"
)

var (
	// ErrUnauthorized reports an actor failing the ownership or role guard.
	// Nothing is written when it is returned.
	ErrUnauthorized = errors.New("actor not allowed")
	// ErrInvalidTransition reports a requested status with no edge from the
	// booking's current status.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Notifier publishes booking lifecycle events. Failures are logged, never
// surfaced: notification delivery is best-effort.
type Notifier interface {
	BookingAssigned(ctx context.Context, b *Booking, p *provider.Provider) error
	BookingUnassigned(ctx context.Context, b *Booking) error
	BookingCompleted(ctx context.Context, b *Booking) error
	BookingCancelled(ctx context.Context, b *Booking) error
}

// Service is the lifecycle controller: the single entry point for booking
// creation and status changes. It enforces the valid transitions and the
// actor guards, and drives the assignment engine on the edges that need it.
type Service struct {
	store    Store
	engine   *Engine
	notifier Notifier
	log      *zap.Logger
}

// NewService wires the controller. notifier may be nil (no notifications,
// used by the admin CLI and in tests).
func NewService(store Store, engine *Engine, notifier Notifier, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, engine: engine, notifier: notifier, log: log}
}

// CreateInput is the data needed to raise a booking.
type CreateInput struct {
	AccountID     string
	Category      string
	Description   string
	Address       string
	Phone         string
	PreferredTime *time.Time
}

// CreateResult reports the new booking and whether a provider could be
// assigned right away.
type CreateResult struct {
	Booking  *Booking           `json:"booking"`
	Assigned *provider.Provider `json:"assigned_provider,omitempty"`
	Message  string             `json:"message"`
}

// Create stores the booking and makes one assignment attempt. The booking
// record is created even when no provider is available; the caller is told
// which outcome happened.
func (s *Service) Create(ctx context.Context, in CreateInput) (*CreateResult, error) {
	now := time.Now().UTC()
	b := &Booking{
		ID:            uuid.New().String(),
		AccountID:     in.AccountID,
		Category:      in.Category,
		Description:   in.Description,
		Address:       in.Address,
		Phone:         in.Phone,
		PreferredTime: in.PreferredTime,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateBooking(ctx, b); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	picked, err := s.engine.Assign(ctx, b.ID, b.Category)
	if err != nil {
		return nil, err
	}
	if picked == nil {
		return &CreateResult{
			Booking: b,
			Message: "Booking created. No provider is available right now; it stays queued.",
		}, nil
	}

	updated, err := s.store.GetBooking(ctx, b.ID)
	if err != nil {
		return nil, fmt.Errorf("create booking: reload: %w", err)
	}
	s.notify(ctx, func(n Notifier) error { return n.BookingAssigned(ctx, updated, picked) })
	return &CreateResult{
		Booking:  updated,
		Assigned: picked,
		Message:  fmt.Sprintf("Booking created and assigned to %s.", picked.DisplayName),
	}, nil
}

// StatusResult reports the booking after a transition. Reassigned is set
// only for a provider decline, telling the caller whether a replacement
// was found.
type StatusResult struct {
	Booking    *Booking           `json:"booking"`
	Reassigned bool               `json:"reassigned,omitempty"`
	NewPick    *provider.Provider `json:"new_provider,omitempty"`
	Message    string             `json:"message,omitempty"`
}

// SetStatus applies one lifecycle transition requested by actor. Providers
// may only act on bookings currently assigned to them; customers only on
// their own bookings. Admins bypass ownership but still follow the edges.
func (s *Service) SetStatus(ctx context.Context, bookingID string, actor Actor, requested Status) (*StatusResult, error) {
	b, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status.Terminal() {
		return nil, fmt.Errorf("booking %s is %s: %w", b.ID, b.Status, ErrInvalidTransition)
	}

	switch requested {
	case StatusAccepted:
		return s.providerTransition(ctx, b, actor, StatusAssigned, StatusAccepted)
	case StatusInProgress:
		return s.providerTransition(ctx, b, actor, StatusAccepted, StatusInProgress)
	case StatusCompleted:
		return s.complete(ctx, b, actor)
	case StatusRejected:
		return s.decline(ctx, b, actor)
	case StatusCancelled:
		return s.cancel(ctx, b, actor)
	default:
		// pending and assigned are engine outcomes, never requestable.
		return nil, fmt.Errorf("cannot request status %q: %w", requested, ErrInvalidTransition)
	}
}

// providerTransition handles the simple provider-driven edges, guarded by
// a conditional update on the expected prior status.
func (s *Service) providerTransition(ctx context.Context, b *Booking, actor Actor, from, to Status) (*StatusResult, error) {
	if err := s.requireAssignedProvider(ctx, b, actor); err != nil {
		return nil, err
	}
	if b.Status != from {
		return nil, fmt.Errorf("%s -> %s: %w", b.Status, to, ErrInvalidTransition)
	}
	updated, err := s.store.UpdateBooking(ctx, b.ID, Patch{Status: &to, ExpectStatus: &from})
	if err != nil {
		return nil, err
	}
	return &StatusResult{Booking: updated}, nil
}

func (s *Service) complete(ctx context.Context, b *Booking, actor Actor) (*StatusResult, error) {
	res, err := s.providerTransition(ctx, b, actor, StatusInProgress, StatusCompleted)
	if err != nil {
		return nil, err
	}
	if res.Booking.AssignedProviderID != nil {
		if err := s.store.IncrementProviderJobs(ctx, *res.Booking.AssignedProviderID); err != nil {
			s.log.Warn("job counter update failed", zap.String("booking_id", b.ID), zap.Error(err))
		}
	}
	s.notify(ctx, func(n Notifier) error { return n.BookingCompleted(ctx, res.Booking) })
	return res, nil
}

// decline is the provider rejecting an assigned booking. "rejected" is not
// stored: reassignment runs immediately and the booking lands in either
// assigned (new provider) or pending (pool exhausted).
func (s *Service) decline(ctx context.Context, b *Booking, actor Actor) (*StatusResult, error) {
	if err := s.requireAssignedProvider(ctx, b, actor); err != nil {
		return nil, err
	}
	if b.Status != StatusAssigned {
		return nil, fmt.Errorf("%s -> rejected: %w", b.Status, ErrInvalidTransition)
	}

	excluded := *b.AssignedProviderID
	picked, err := s.engine.Reassign(ctx, b.ID, excluded)
	if err != nil {
		return nil, err
	}
	updated, err := s.store.GetBooking(ctx, b.ID)
	if err != nil {
		return nil, err
	}

	if picked == nil {
		s.notify(ctx, func(n Notifier) error { return n.BookingUnassigned(ctx, updated) })
		return &StatusResult{
			Booking: updated,
			Message: "Booking declined. No other provider is available; booking is back in the queue.",
		}, nil
	}
	s.notify(ctx, func(n Notifier) error { return n.BookingAssigned(ctx, updated, picked) })
	return &StatusResult{
		Booking:    updated,
		Reassigned: true,
		NewPick:    picked,
		Message:    fmt.Sprintf("Booking declined and reassigned to %s.", picked.DisplayName),
	}, nil
}

func (s *Service) cancel(ctx context.Context, b *Booking, actor Actor) (*StatusResult, error) {
	if actor.Role != RoleAdmin && b.AccountID != actor.AccountID {
		return nil, ErrUnauthorized
	}
	switch b.Status {
	case StatusPending, StatusAssigned, StatusAccepted:
	default:
		return nil, fmt.Errorf("%s -> cancelled: %w", b.Status, ErrInvalidTransition)
	}

	cancelled := StatusCancelled
	expect := b.Status
	// Cancelled bookings hold no provider; the history keeps the record.
	updated, err := s.store.UpdateBooking(ctx, b.ID, Patch{Status: &cancelled, ClearAssigned: true, ExpectStatus: &expect})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, func(n Notifier) error { return n.BookingCancelled(ctx, updated) })
	return &StatusResult{Booking: updated}, nil
}

// requireAssignedProvider refuses provider actors that are not the one
// currently named on the booking. Admin actors pass.
func (s *Service) requireAssignedProvider(ctx context.Context, b *Booking, actor Actor) error {
	if actor.Role == RoleAdmin {
		return nil
	}
	if actor.Role != RoleProvider || b.AssignedProviderID == nil {
		return ErrUnauthorized
	}
	p, err := s.store.ProviderByAccount(ctx, actor.AccountID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrUnauthorized
		}
		return err
	}
	if p.ID != *b.AssignedProviderID {
		return ErrUnauthorized
	}
	return nil
}

func (s *Service) notify(ctx context.Context, fn func(Notifier) error) {
	if s.notifier == nil {
		return
	}
	if err := fn(s.notifier); err != nil {
		s.log.Warn("notification failed", zap.Error(err))
	}
}
