// Package dashboard aggregates a user's booking history into summary
// metrics and frequency histograms.
package dashboard

import (
	"time"

	"github.com/atrium-app/atrium/internal/shared"
)

// Metrics summarises a user's booking history. An existing user with no
// bookings has all-zero metrics; that is a successful result.
type Metrics struct {
	TotalBookings     int     `json:"totalBookings"`
	ActiveBookings    int     `json:"activeBookings"`
	CompletedBookings int     `json:"completedBookings"`
	CancelledBookings int     `json:"cancelledBookings"`
	HoursBooked       float64 `json:"hoursBooked"`
}

// FrequencyBucket is one day of booking activity.
type FrequencyBucket struct {
	Day   time.Time `json:"day"`
	Count int       `json:"count"`
}

// FrequencyFilter narrows the histogram. Nil bounds leave the range open on
// that side; a zero Limit returns every bucket.
type FrequencyFilter struct {
	Start *time.Time
	End   *time.Time
	Limit int
}

var (
	ErrMissingUser = shared.Reject(shared.ReasonInvalidInput, "missing user id")
	ErrUnknownUser = shared.Reject(shared.ReasonUnknownUser, "user does not exist")
	ErrBadLimit    = shared.Reject(shared.ReasonInvalidInput, "limit must not be negative")
)
