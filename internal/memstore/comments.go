package memstore

import (
	"context"
	"sort"

	"github.com/eventhub/backend/internal/models"
)

// Comments stores event comments.
type Comments struct{ db *DB }

// Create inserts c, assigning ID and Timestamp.
func (s *Comments) Create(_ context.Context, c *models.Comment) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.events[c.EventID]; !ok {
		return models.ErrNotFound
	}
	s.db.nextComment++
	c.ID = s.db.nextComment
	c.Timestamp = s.db.now()
	s.db.comments[c.ID] = *c
	return nil
}

// Get returns a comment by ID.
func (s *Comments) Get(_ context.Context, id int64) (*models.Comment, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	c, ok := s.db.comments[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &c, nil
}

// ListByEvent returns an event's comments, newest first.
func (s *Comments) ListByEvent(_ context.Context, eventID int64) ([]models.CommentView, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	list := []models.CommentView{}
	for _, c := range s.db.comments {
		if c.EventID == eventID {
			list = append(list, models.CommentView{
				ID:        c.ID,
				Content:   c.Content,
				Timestamp: c.Timestamp,
				UserName:  s.db.userName(c.UserID),
				UserID:    c.UserID,
			})
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if !list[i].Timestamp.Equal(list[j].Timestamp) {
			return list[i].Timestamp.After(list[j].Timestamp)
		}
		return list[i].ID > list[j].ID
	})
	return list, nil
}

// Delete removes a comment.
func (s *Comments) Delete(_ context.Context, id int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.comments[id]; !ok {
		return models.ErrNotFound
	}
	delete(s.db.comments, id)
	return nil
}
