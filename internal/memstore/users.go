package memstore

import (
	"context"

	"github.com/eventhub/backend/internal/models"
)

// Users stores accounts with a unique email.
type Users struct{ db *DB }

// Create inserts u, assigning ID and CreatedAt. A taken email yields models.ErrDuplicate.
func (s *Users) Create(_ context.Context, u *models.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.users {
		if existing.Email == u.Email {
			return models.ErrDuplicate
		}
	}
	s.db.nextUser++
	u.ID = s.db.nextUser
	u.CreatedAt = s.db.now()
	s.db.users[u.ID] = *u
	return nil
}

// GetByID returns a user by ID.
func (s *Users) GetByID(_ context.Context, id int64) (*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	u, ok := s.db.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &u, nil
}

// GetByEmail returns a user by email.
func (s *Users) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	for _, u := range s.db.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}
