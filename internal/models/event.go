package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices go over the wire as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// UnknownName is rendered when a joined user row no longer exists.
const UnknownName = "Unknown"

// Event is an organizer-owned event.
type Event struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	Location    string          `json:"location"`
	Price       decimal.Decimal `json:"price"`
	Banner      *string         `json:"banner"`
	OrganizerID int64           `json:"organizer_id"`
	CreatedAt   time.Time       `json:"created_at"`
}

// IsFree reports whether attending the event costs nothing.
func (e *Event) IsFree() bool {
	return e.Price.IsZero()
}

// EventSummary is an event with its derived listing fields.
type EventSummary struct {
	Event
	OrganizerName string `json:"organizer_name,omitempty"`
	RSVPCount     int    `json:"rsvp_count"`
}

// EventPatch holds the fields of a partial event update. Nil fields are left unchanged.
type EventPatch struct {
	Title       *string
	Description *string
	Date        *time.Time
	Location    *string
	Price       *decimal.Decimal
	Banner      *string
}

// Apply copies the set fields of p onto e.
func (p EventPatch) Apply(e *Event) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Location != nil {
		e.Location = *p.Location
	}
	if p.Price != nil {
		e.Price = *p.Price
	}
	if p.Banner != nil {
		b := *p.Banner
		e.Banner = &b
	}
}
