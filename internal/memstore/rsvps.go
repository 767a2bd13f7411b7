package memstore

import (
	"context"
	"sort"

	"github.com/eventhub/backend/internal/models"
)

// RSVPs stores at most one RSVP per user and event.
type RSVPs struct{ db *DB }

// Create inserts r. A second RSVP for the same user and event yields models.ErrDuplicate.
func (s *RSVPs) Create(_ context.Context, r *models.RSVP) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.events[r.EventID]; !ok {
		return models.ErrNotFound
	}
	for _, existing := range s.db.rsvps {
		if existing.UserID == r.UserID && existing.EventID == r.EventID {
			return models.ErrDuplicate
		}
	}
	s.db.nextRSVP++
	r.ID = s.db.nextRSVP
	r.CreatedAt = s.db.now()
	s.db.rsvps[r.ID] = *r
	return nil
}

// Get returns the RSVP of userID for eventID.
func (s *RSVPs) Get(_ context.Context, userID, eventID int64) (*models.RSVP, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	for _, r := range s.db.rsvps {
		if r.UserID == userID && r.EventID == eventID {
			r := r
			return &r, nil
		}
	}
	return nil, models.ErrNotFound
}

// Delete removes the RSVP of userID for eventID.
func (s *RSVPs) Delete(_ context.Context, userID, eventID int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for id, r := range s.db.rsvps {
		if r.UserID == userID && r.EventID == eventID {
			delete(s.db.rsvps, id)
			return nil
		}
	}
	return models.ErrNotFound
}

// Roster lists the attendees of an event, oldest RSVP first.
func (s *RSVPs) Roster(_ context.Context, eventID int64) ([]models.RosterEntry, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var matched []models.RSVP
	for _, r := range s.db.rsvps {
		if r.EventID == eventID {
			matched = append(matched, r)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	roster := make([]models.RosterEntry, 0, len(matched))
	for _, r := range matched {
		entry := models.RosterEntry{
			ID:            r.ID,
			UserName:      models.UnknownName,
			UserEmail:     models.UnknownName,
			PaymentStatus: r.PaymentStatus,
			CreatedAt:     r.CreatedAt,
		}
		if u, ok := s.db.users[r.UserID]; ok {
			entry.UserName = u.Name
			entry.UserEmail = u.Email
		}
		roster = append(roster, entry)
	}
	return roster, nil
}
