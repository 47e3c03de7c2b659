package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sudo-init-do/fixmate/internal/booking"
	"github.com/sudo-init-do/fixmate/internal/provider"
)

// Postgres implements booking.Store over a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const bookingColumns = `id, account_id, category, description, address, phone,
	preferred_time, status, assigned_provider_id, created_at, updated_at`

func (s *Postgres) CreateBooking(ctx context.Context, b *booking.Booking) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO bookings (id, account_id, category, description, address, phone,
			preferred_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		b.ID, b.AccountID, b.Category, b.Description, b.Address, b.Phone,
		b.PreferredTime, b.Status, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (s *Postgres) GetBooking(ctx context.Context, id string) (*booking.Booking, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("booking %s: %w", id, booking.ErrNotFound)
		}
		return nil, fmt.Errorf("select booking: %w", err)
	}
	if err := s.loadHistory(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// UpdateBooking applies the patch and the optional history append in one
// transaction. With ExpectStatus set the update is conditional: when the
// stored status has moved on, nothing is written and ErrConflict comes
// back so the caller can re-fetch and retry.
func (s *Postgres) UpdateBooking(ctx context.Context, id string, p booking.Patch) (*booking.Booking, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `UPDATE bookings SET updated_at = NOW()`
	args := []any{id}
	if p.Status != nil {
		args = append(args, *p.Status)
		query += fmt.Sprintf(", status = $%d", len(args))
	}
	if p.AssignedProvider != nil {
		args = append(args, *p.AssignedProvider)
		query += fmt.Sprintf(", assigned_provider_id = $%d", len(args))
	} else if p.ClearAssigned {
		query += ", assigned_provider_id = NULL"
	}
	query += " WHERE id = $1"
	if p.ExpectStatus != nil {
		args = append(args, *p.ExpectStatus)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " RETURNING " + bookingColumns

	b, err := scanBooking(tx.QueryRow(ctx, query, args...))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("update booking: %w", err)
		}
		// Missing row or failed precondition; tell them apart.
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id = $1)`, id).Scan(&exists); err != nil {
			return nil, fmt.Errorf("update booking: %w", err)
		}
		if !exists || p.ExpectStatus == nil {
			return nil, fmt.Errorf("booking %s: %w", id, booking.ErrNotFound)
		}
		return nil, fmt.Errorf("booking %s no longer %s: %w", id, *p.ExpectStatus, booking.ErrConflict)
	}

	if p.Append != nil {
		_, err := tx.Exec(ctx, `
			INSERT INTO booking_assignments (booking_id, provider_id, assigned_at, status)
			VALUES ($1, $2, $3, $4)`,
			id, p.Append.ProviderID, p.Append.AssignedAt, p.Append.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("append assignment: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit update: %w", err)
	}

	if err := s.loadHistory(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// EligibleProviders returns assignment candidates for a category, best
// rating first, ties broken by ascending id so selection is reproducible.
func (s *Postgres) EligibleProviders(ctx context.Context, specialization string) ([]provider.Provider, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+providerColumns+`
		FROM providers
		WHERE available AND verified AND $1 = ANY(specializations)
		ORDER BY rating DESC, id ASC`, specialization)
	if err != nil {
		return nil, fmt.Errorf("select eligible providers: %w", err)
	}
	defer rows.Close()

	var out []provider.Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, fmt.Errorf("scan provider: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

const providerColumns = `id, account_id, display_name, specializations,
	available, verified, rating, jobs_done, created_at, updated_at`

func (s *Postgres) ProviderByID(ctx context.Context, id string) (*provider.Provider, error) {
	p, err := scanProvider(s.pool.QueryRow(ctx, `SELECT `+providerColumns+` FROM providers WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("provider %s: %w", id, booking.ErrNotFound)
		}
		return nil, fmt.Errorf("select provider: %w", err)
	}
	return p, nil
}

func (s *Postgres) ProviderByAccount(ctx context.Context, accountID string) (*provider.Provider, error) {
	p, err := scanProvider(s.pool.QueryRow(ctx, `SELECT `+providerColumns+` FROM providers WHERE account_id = $1`, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("provider for account %s: %w", accountID, booking.ErrNotFound)
		}
		return nil, fmt.Errorf("select provider: %w", err)
	}
	return p, nil
}

func (s *Postgres) IncrementProviderJobs(ctx context.Context, providerID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE providers SET jobs_done = jobs_done + 1, updated_at = NOW() WHERE id = $1`, providerID)
	if err != nil {
		return fmt.Errorf("increment jobs: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("provider %s: %w", providerID, booking.ErrNotFound)
	}
	return nil
}

func (s *Postgres) loadHistory(ctx context.Context, b *booking.Booking) error {
	rows, err := s.pool.Query(ctx, `
		SELECT provider_id, assigned_at, status
		FROM booking_assignments
		WHERE booking_id = $1
		ORDER BY id ASC`, b.ID)
	if err != nil {
		return fmt.Errorf("select assignment history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a booking.Assignment
		if err := rows.Scan(&a.ProviderID, &a.AssignedAt, &a.Status); err != nil {
			return fmt.Errorf("scan assignment: %w", err)
		}
		b.History = append(b.History, a)
	}
	return rows.Err()
}

func scanBooking(row pgx.Row) (*booking.Booking, error) {
	var b booking.Booking
	err := row.Scan(&b.ID, &b.AccountID, &b.Category, &b.Description, &b.Address,
		&b.Phone, &b.PreferredTime, &b.Status, &b.AssignedProviderID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func scanProvider(row pgx.Row) (*provider.Provider, error) {
	var p provider.Provider
	err := row.Scan(&p.ID, &p.AccountID, &p.DisplayName, &p.Specializations,
		&p.Available, &p.Verified, &p.Rating, &p.JobsDone, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
