package store

import (
	"context"
	"fmt"

	"github.com/sudo-init-do/fixmate/internal/booking"
)

// List queries for the HTTP surface. History is not hydrated here; callers
// wanting the assignment log fetch the single booking.

func (s *Postgres) BookingsByAccount(ctx context.Context, accountID string) ([]booking.Booking, error) {
	return s.listBookings(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE account_id = $1 ORDER BY created_at DESC`, accountID)
}

func (s *Postgres) BookingsByProvider(ctx context.Context, providerID string) ([]booking.Booking, error) {
	return s.listBookings(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE assigned_provider_id = $1 ORDER BY created_at DESC`, providerID)
}

// AllBookings feeds the admin overview.
func (s *Postgres) AllBookings(ctx context.Context) ([]booking.Booking, error) {
	return s.listBookings(ctx,
		`SELECT `+bookingColumns+` FROM bookings ORDER BY created_at DESC`)
}

func (s *Postgres) listBookings(ctx context.Context, query string, args ...any) ([]booking.Booking, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select bookings: %w", err)
	}
	defer rows.Close()

	var out []booking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}
