// Package memstore keeps users, events, RSVPs and comments in memory.
// It enforces the same uniqueness and cascade rules as the PostgreSQL schema.
package memstore

import (
	"sort"
	"sync"
	"time"

	"github.com/eventhub/backend/internal/models"
)

// DB is an in-memory database. The zero value is not usable; call New.
type DB struct {
	mu  sync.RWMutex
	now func() time.Time

	users    map[int64]models.User
	events   map[int64]models.Event
	rsvps    map[int64]models.RSVP
	comments map[int64]models.Comment

	nextUser, nextEvent, nextRSVP, nextComment int64
}

// New returns an empty database.
func New() *DB {
	return &DB{
		now:      time.Now,
		users:    make(map[int64]models.User),
		events:   make(map[int64]models.Event),
		rsvps:    make(map[int64]models.RSVP),
		comments: make(map[int64]models.Comment),
	}
}

// SetClock replaces the clock used for created_at and comment timestamps.
func (db *DB) SetClock(now func() time.Time) {
	db.mu.Lock()
	db.now = now
	db.mu.Unlock()
}

// Users returns the user store view.
func (db *DB) Users() *Users { return &Users{db: db} }

// Events returns the event store view.
func (db *DB) Events() *Events { return &Events{db: db} }

// RSVPs returns the RSVP store view.
func (db *DB) RSVPs() *RSVPs { return &RSVPs{db: db} }

// Comments returns the comment store view.
func (db *DB) Comments() *Comments { return &Comments{db: db} }

func (db *DB) userName(id int64) string {
	if u, ok := db.users[id]; ok {
		return u.Name
	}
	return models.UnknownName
}

func (db *DB) rsvpCount(eventID int64) int {
	n := 0
	for _, r := range db.rsvps {
		if r.EventID == eventID {
			n++
		}
	}
	return n
}

func sortEvents(list []models.EventSummary) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].Date.Equal(list[j].Date) {
			return list[i].Date.Before(list[j].Date)
		}
		return list[i].ID < list[j].ID
	})
}
