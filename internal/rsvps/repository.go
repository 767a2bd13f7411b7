package rsvps

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventhub/backend/internal/models"
	"github.com/eventhub/backend/pkg/database"
)

// Repository handles RSVP persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an RSVP repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts r unless the user already RSVP'd to the event, in which case
// it returns models.ErrDuplicate. The UNIQUE (user_id, event_id) constraint decides.
func (r *Repository) Create(ctx context.Context, rsvp *models.RSVP) error {
	const q = `INSERT INTO rsvps (user_id, event_id, payment_status)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, event_id) DO NOTHING
		RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, q, rsvp.UserID, rsvp.EventID, string(rsvp.PaymentStatus)).
		Scan(&rsvp.ID, &rsvp.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrDuplicate
	}
	return database.TranslateError(err)
}

// Get returns the RSVP of userID for eventID.
func (r *Repository) Get(ctx context.Context, userID, eventID int64) (*models.RSVP, error) {
	const q = `SELECT id, user_id, event_id, payment_status, created_at
		FROM rsvps WHERE user_id = $1 AND event_id = $2`
	var rsvp models.RSVP
	var status string
	err := r.pool.QueryRow(ctx, q, userID, eventID).
		Scan(&rsvp.ID, &rsvp.UserID, &rsvp.EventID, &status, &rsvp.CreatedAt)
	if err != nil {
		return nil, database.TranslateError(err)
	}
	rsvp.PaymentStatus = models.PaymentStatus(status)
	return &rsvp, nil
}

// Delete removes the RSVP of userID for eventID.
func (r *Repository) Delete(ctx context.Context, userID, eventID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM rsvps WHERE user_id = $1 AND event_id = $2`, userID, eventID)
	if err != nil {
		return fmt.Errorf("delete rsvp: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Roster lists an event's attendees, oldest RSVP first.
func (r *Repository) Roster(ctx context.Context, eventID int64) ([]models.RosterEntry, error) {
	const q = `SELECT r.id, COALESCE(u.name, 'Unknown'), COALESCE(u.email, 'Unknown'), r.payment_status, r.created_at
		FROM rsvps r
		LEFT JOIN users u ON u.id = r.user_id
		WHERE r.event_id = $1
		ORDER BY r.created_at ASC, r.id ASC`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roster := []models.RosterEntry{}
	for rows.Next() {
		var e models.RosterEntry
		var status string
		if err := rows.Scan(&e.ID, &e.UserName, &e.UserEmail, &status, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.PaymentStatus = models.PaymentStatus(status)
		roster = append(roster, e)
	}
	return roster, rows.Err()
}
