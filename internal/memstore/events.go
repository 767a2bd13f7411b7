package memstore

import (
	"context"

	"github.com/eventhub/backend/internal/models"
)

// Events stores events. Deleting one removes its RSVPs and comments.
type Events struct{ db *DB }

// Create inserts e, assigning ID and CreatedAt.
func (s *Events) Create(_ context.Context, e *models.Event) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.nextEvent++
	e.ID = s.db.nextEvent
	e.CreatedAt = s.db.now()
	s.db.events[e.ID] = *e
	return nil
}

// Get returns a bare event.
func (s *Events) Get(_ context.Context, id int64) (*models.Event, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	e, ok := s.db.events[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &e, nil
}

// GetSummary returns an event with organizer name and RSVP count.
func (s *Events) GetSummary(_ context.Context, id int64) (*models.EventSummary, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	e, ok := s.db.events[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	sum := s.summary(e, true)
	return &sum, nil
}

// List returns all events, soonest first.
func (s *Events) List(_ context.Context) ([]models.EventSummary, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	list := []models.EventSummary{}
	for _, e := range s.db.events {
		list = append(list, s.summary(e, true))
	}
	sortEvents(list)
	return list, nil
}

// ListByOrganizer returns one organizer's events, soonest first, without organizer names.
func (s *Events) ListByOrganizer(_ context.Context, organizerID int64) ([]models.EventSummary, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	list := []models.EventSummary{}
	for _, e := range s.db.events {
		if e.OrganizerID == organizerID {
			list = append(list, s.summary(e, false))
		}
	}
	sortEvents(list)
	return list, nil
}

// Update overwrites the stored event with e.
func (s *Events) Update(_ context.Context, e *models.Event) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.events[e.ID]; !ok {
		return models.ErrNotFound
	}
	s.db.events[e.ID] = *e
	return nil
}

// Delete removes an event and everything attached to it.
func (s *Events) Delete(_ context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.events[id]; !ok {
		return models.ErrNotFound
	}
	delete(s.db.events, id)
	for rid, r := range s.db.rsvps {
		if r.EventID == id {
			delete(s.db.rsvps, rid)
		}
	}
	for cid, c := range s.db.comments {
		if c.EventID == id {
			delete(s.db.comments, cid)
		}
	}
	return nil
}

func (s *Events) summary(e models.Event, withOrganizer bool) models.EventSummary {
	sum := models.EventSummary{Event: e, RSVPCount: s.db.rsvpCount(e.ID)}
	if withOrganizer {
		sum.OrganizerName = s.db.userName(e.OrganizerID)
	}
	return sum
}
