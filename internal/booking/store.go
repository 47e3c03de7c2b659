package booking

import (
	"context"
	"errors"

	"github.com/sudo-init-do/fixmate/internal/provider"
)

// Store errors. Handlers translate these to HTTP outcomes; the engines
// treat anything else as a persistence failure and pass it up unchanged.
var (
	// ErrNotFound reports a missing booking or provider.
	ErrNotFound = errors.New("not found")
	// ErrConflict reports that an update's expected prior status no longer
	// matched the stored row. Callers may re-fetch and retry.
	ErrConflict = errors.New("status conflict")
)

// Patch is a partial booking update. Nil fields are left untouched.
// ExpectStatus, when set, makes the update conditional on the stored
// status still matching; a mismatch fails with ErrConflict and writes
// nothing. Append, when set, is written in the same transaction as the
// field updates so the history and the status never drift apart.
type Patch struct {
	Status           *Status
	AssignedProvider *string
	ClearAssigned    bool
	ExpectStatus     *Status
	Append           *Assignment
}

// Store is the persistence boundary the assignment core runs against.
// The production implementation lives in internal/store; tests inject
// an in-memory double.
type Store interface {
	CreateBooking(ctx context.Context, b *Booking) error
	GetBooking(ctx context.Context, id string) (*Booking, error)
	// UpdateBooking applies the patch and stamps updated_at. It returns
	// the booking as stored after the update.
	UpdateBooking(ctx context.Context, id string, p Patch) (*Booking, error)

	// EligibleProviders returns providers that are available, verified,
	// and carry the given specialization, ordered by rating descending
	// with ties broken by ascending provider id.
	EligibleProviders(ctx context.Context, specialization string) ([]provider.Provider, error)
	ProviderByID(ctx context.Context, id string) (*provider.Provider, error)
	ProviderByAccount(ctx context.Context, accountID string) (*provider.Provider, error)
	// IncrementProviderJobs bumps the provider's completed-jobs counter.
	IncrementProviderJobs(ctx context.Context, providerID string) error
}
