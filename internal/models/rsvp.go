package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the stored payment flag of an RSVP.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFree    PaymentStatus = "free"
)

// PaymentStatusFor derives the initial payment status from an event price.
func PaymentStatusFor(price decimal.Decimal) PaymentStatus {
	if price.IsZero() {
		return PaymentFree
	}
	return PaymentPending
}

// RSVP states as reported by GET /api/rsvp/:event_id.
const (
	RSVPStateNone      = "not_rsvpd"
	RSVPStateAttending = "rsvpd"
)

// RSVP is a user's intent to attend an event.
type RSVP struct {
	ID            int64         `json:"id"`
	UserID        int64         `json:"user_id"`
	EventID       int64         `json:"event_id"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	CreatedAt     time.Time     `json:"created_at"`
}

// RSVPStatus is the caller's view of their RSVP for one event.
type RSVPStatus struct {
	RSVPStatus    string        `json:"rsvp_status"`
	PaymentStatus PaymentStatus `json:"payment_status,omitempty"`
}

// RosterEntry is one attendee row in an organizer's RSVP roster.
type RosterEntry struct {
	ID            int64         `json:"id"`
	UserName      string        `json:"user_name"`
	UserEmail     string        `json:"user_email"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	CreatedAt     time.Time     `json:"created_at"`
}
