package provider

import (
	"fmt"
	"time"
)

// RatingScale is the fixed-point scale for provider ratings: stored values
// are tenths of a point, so a 4.7 average is held as 47. Integer storage
// keeps comparisons exact when picking the best-rated provider.
const RatingScale = 10

// Rating is a provider quality score in tenths of a point.
type Rating int32

// Float converts the fixed-point score for display.
func (r Rating) Float() float64 {
	return float64(r) / RatingScale
}

func (r Rating) String() string {
	return fmt.Sprintf("%.1f", r.Float())
}

// Provider is a person offering service. Each provider belongs to exactly
// one user account.
type Provider struct {
	ID              string    `json:"id"`
	AccountID       string    `json:"account_id"`
	DisplayName     string    `json:"display_name"`
	Specializations []string  `json:"specializations"`
	Available       bool      `json:"available"`
	Verified        bool      `json:"verified"`
	Rating          Rating    `json:"rating"`
	JobsDone        int       `json:"jobs_done"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Eligible reports whether the provider may receive assignments. Unverified
// or unavailable providers never do.
func (p *Provider) Eligible() bool {
	return p.Available && p.Verified
}

// HasSpecialization checks category membership.
func (p *Provider) HasSpecialization(category string) bool {
	for _, s := range p.Specializations {
		if s == category {
			return true
		}
	}
	return false
}
