package booking

import (
	"fmt"
	"time"
)

// Status is the closed set of booking states. "rejected" is deliberately
// absent: a provider decline is an input signal that resolves to either
// StatusAssigned or StatusPending before anything is stored.
type Status string

const (
	StatusPending    Status = "pending"
	StatusAssigned   Status = "assigned"
	StatusAccepted   Status = "accepted"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// StatusRejected is accepted as a requested transition only. It never
// becomes the stored status of a booking.
const StatusRejected Status = "rejected"

// ParseStatus validates a requested status string from the API.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusAssigned, StatusAccepted, StatusInProgress,
		StatusCompleted, StatusCancelled, StatusRejected:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown booking status %q", s)
}

// Terminal reports whether no further transition is permitted.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Role is an actor's role tag.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleProvider Role = "provider"
	RoleAdmin    Role = "admin"
)

// Actor is the authenticated identity requesting a transition.
type Actor struct {
	AccountID string
	Role      Role
}

// Assignment is one entry in a booking's append-only assignment history.
// Entries are only ever appended; never edited, reordered, or removed.
type Assignment struct {
	ProviderID string    `json:"provider_id"`
	AssignedAt time.Time `json:"assigned_at"`
	Status     Status    `json:"status"`
}

// Booking is a single service request raised by a customer account.
type Booking struct {
	ID                 string       `json:"id"`
	AccountID          string       `json:"account_id"`
	Category           string       `json:"category"`
	Description        string       `json:"description"`
	Address            string       `json:"address"`
	Phone              string       `json:"phone"`
	PreferredTime      *time.Time   `json:"preferred_time,omitempty"`
	Status             Status       `json:"status"`
	AssignedProviderID *string      `json:"assigned_provider_id,omitempty"`
	History            []Assignment `json:"history"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}
