package alerts

import "time"

// Task type constants
const (
	TaskBookingAssigned   = "email:booking_assigned"
	TaskBookingUnassigned = "email:booking_unassigned"
	TaskBookingCompleted  = "email:booking_completed"
	TaskBookingCancelled  = "email:booking_cancelled"
	TaskPasswordReset     = "email:password_reset"
)

// EmailEnvelope is the common shape for email-like notifications.
type EmailEnvelope struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// BookingAssignedPayload goes to the provider who got the job and to the
// customer who raised it.
type BookingAssignedPayload struct {
	BookingID  string        `json:"booking_id"`
	ProviderID string        `json:"provider_id"`
	Category   string        `json:"category"`
	Envelope   EmailEnvelope `json:"envelope"`
	SentAt     time.Time     `json:"sent_at"`
}

// BookingUnassignedPayload tells the customer the pool is exhausted and
// the booking is queued again.
type BookingUnassignedPayload struct {
	BookingID string        `json:"booking_id"`
	Category  string        `json:"category"`
	Envelope  EmailEnvelope `json:"envelope"`
	SentAt    time.Time     `json:"sent_at"`
}

// BookingCompletedPayload goes to the customer when work is finished.
type BookingCompletedPayload struct {
	BookingID string        `json:"booking_id"`
	Envelope  EmailEnvelope `json:"envelope"`
	SentAt    time.Time     `json:"sent_at"`
}

// BookingCancelledPayload goes to the assigned provider, if any.
type BookingCancelledPayload struct {
	BookingID string        `json:"booking_id"`
	Envelope  EmailEnvelope `json:"envelope"`
	SentAt    time.Time     `json:"sent_at"`
}

// PasswordResetPayload carries the single-use reset link.
type PasswordResetPayload struct {
	Envelope EmailEnvelope `json:"envelope"`
	SentAt   time.Time     `json:"sent_at"`
}
