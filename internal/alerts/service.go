package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/sudo-init-do/fixmate/internal/booking"
	"github.com/sudo-init-do/fixmate/internal/provider"
)

const emailQueue = "emails"

// Service enqueues booking lifecycle notifications. It implements
// booking.Notifier; delivery happens in the worker, the request path only
// pays for the enqueue.
type Service struct {
	client *asynq.Client
	pool   *pgxpool.Pool
	log    *zap.Logger
}

func NewService(redisAddr string, pool *pgxpool.Pool, log *zap.Logger) *Service {
	return &Service{
		client: asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr}),
		pool:   pool,
		log:    log,
	}
}

func (s *Service) Close() error {
	return s.client.Close()
}

func (s *Service) BookingAssigned(ctx context.Context, b *booking.Booking, p *provider.Provider) error {
	email, err := s.accountEmail(ctx, p.AccountID)
	if err != nil {
		return err
	}
	payload := BookingAssignedPayload{
		BookingID:  b.ID,
		ProviderID: p.ID,
		Category:   b.Category,
		Envelope: EmailEnvelope{
			To:      email,
			Subject: "New job assigned to you",
			Body: fmt.Sprintf("You have been assigned a %s job at %s. Accept or decline it in the app.",
				b.Category, b.Address),
		},
		SentAt: time.Now().UTC(),
	}
	return s.enqueue(TaskBookingAssigned, payload)
}

func (s *Service) BookingUnassigned(ctx context.Context, b *booking.Booking) error {
	email, err := s.accountEmail(ctx, b.AccountID)
	if err != nil {
		return err
	}
	payload := BookingUnassignedPayload{
		BookingID: b.ID,
		Category:  b.Category,
		Envelope: EmailEnvelope{
			To:      email,
			Subject: "We are still looking for a provider",
			Body:    fmt.Sprintf("No provider is available for your %s request right now. It stays queued and we keep trying.", b.Category),
		},
		SentAt: time.Now().UTC(),
	}
	return s.enqueue(TaskBookingUnassigned, payload)
}

func (s *Service) BookingCompleted(ctx context.Context, b *booking.Booking) error {
	email, err := s.accountEmail(ctx, b.AccountID)
	if err != nil {
		return err
	}
	payload := BookingCompletedPayload{
		BookingID: b.ID,
		Envelope: EmailEnvelope{
			To:      email,
			Subject: "Your booking is complete",
			Body:    "The provider has marked your booking as completed. Thanks for using FixMate.",
		},
		SentAt: time.Now().UTC(),
	}
	return s.enqueue(TaskBookingCompleted, payload)
}

func (s *Service) BookingCancelled(ctx context.Context, b *booking.Booking) error {
	// History holds the provider even after the cancel cleared the
	// assignment column.
	if len(b.History) == 0 {
		return nil
	}
	last := b.History[len(b.History)-1]
	var email string
	err := s.pool.QueryRow(ctx, `
		SELECT u.email FROM users u
		JOIN providers p ON p.account_id = u.id
		WHERE p.id = $1`, last.ProviderID).Scan(&email)
	if err != nil {
		return fmt.Errorf("lookup provider email: %w", err)
	}
	payload := BookingCancelledPayload{
		BookingID: b.ID,
		Envelope: EmailEnvelope{
			To:      email,
			Subject: "A booking was cancelled",
			Body:    "A booking assigned to you has been cancelled by the customer.",
		},
		SentAt: time.Now().UTC(),
	}
	return s.enqueue(TaskBookingCancelled, payload)
}

// PasswordReset mails a single-use reset link.
func (s *Service) PasswordReset(to, resetURL string) error {
	payload := PasswordResetPayload{
		Envelope: EmailEnvelope{
			To:      to,
			Subject: "Reset your FixMate password",
			Body:    fmt.Sprintf("Someone requested a password reset for this account. If that was you, open %s within 30 minutes. Otherwise ignore this email.", resetURL),
		},
		SentAt: time.Now().UTC(),
	}
	return s.enqueue(TaskPasswordReset, payload)
}

func (s *Service) enqueue(taskType string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := s.client.Enqueue(asynq.NewTask(taskType, b), asynq.Queue(emailQueue)); err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}

func (s *Service) accountEmail(ctx context.Context, accountID string) (string, error) {
	var email string
	if err := s.pool.QueryRow(ctx, `SELECT email FROM users WHERE id = $1`, accountID).Scan(&email); err != nil {
		return "", fmt.Errorf("lookup account email: %w", err)
	}
	return email, nil
}
