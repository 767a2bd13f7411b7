package events

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventhub/backend/internal/models"
	"github.com/eventhub/backend/pkg/database"
)

const eventColumns = `e.id, e.title, e.description, e.date, e.location, e.price, e.banner, e.organizer_id, e.created_at`

const rsvpCountColumn = `(SELECT COUNT(*) FROM rsvps r WHERE r.event_id = e.id) AS rsvp_count`

const summarySelect = `SELECT ` + eventColumns + `,
		COALESCE(u.name, 'Unknown') AS organizer_name,
		` + rsvpCountColumn + `
	FROM events e
	LEFT JOIN users u ON u.id = e.organizer_id`

// organizerSelect omits the organizer name: the caller already is the organizer.
const organizerSelect = `SELECT ` + eventColumns + `, '' AS organizer_name, ` + rsvpCountColumn + `
	FROM events e`

// Repository handles event persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an event repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new event and fills in its ID and created_at.
func (r *Repository) Create(ctx context.Context, e *models.Event) error {
	const q = `INSERT INTO events (title, description, date, location, price, banner, organizer_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, q, e.Title, e.Description, e.Date, e.Location, e.Price, e.Banner, e.OrganizerID).
		Scan(&e.ID, &e.CreatedAt)
	return database.TranslateError(err)
}

// Get returns a bare event by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*models.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events e WHERE e.id = $1`
	var e models.Event
	if err := scanEvent(r.pool.QueryRow(ctx, q, id), &e); err != nil {
		return nil, database.TranslateError(err)
	}
	return &e, nil
}

// GetSummary returns an event with its organizer name and RSVP count.
func (r *Repository) GetSummary(ctx context.Context, id int64) (*models.EventSummary, error) {
	var s models.EventSummary
	row := r.pool.QueryRow(ctx, summarySelect+` WHERE e.id = $1`, id)
	if err := scanSummary(row, &s); err != nil {
		return nil, database.TranslateError(err)
	}
	return &s, nil
}

// List returns all events, soonest first.
func (r *Repository) List(ctx context.Context) ([]models.EventSummary, error) {
	return r.listSummaries(ctx, summarySelect+` ORDER BY e.date ASC, e.id ASC`)
}

// ListByOrganizer returns the events organized by organizerID, soonest first.
func (r *Repository) ListByOrganizer(ctx context.Context, organizerID int64) ([]models.EventSummary, error) {
	return r.listSummaries(ctx, organizerSelect+` WHERE e.organizer_id = $1 ORDER BY e.date ASC, e.id ASC`, organizerID)
}

// Update writes the mutable fields of e.
func (r *Repository) Update(ctx context.Context, e *models.Event) error {
	const q = `UPDATE events
		SET title = $2, description = $3, date = $4, location = $5, price = $6, banner = $7
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, e.ID, e.Title, e.Description, e.Date, e.Location, e.Price, e.Banner)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete removes an event. RSVPs and comments go with it via ON DELETE CASCADE.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *Repository) listSummaries(ctx context.Context, q string, args ...interface{}) ([]models.EventSummary, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.EventSummary{}
	for rows.Next() {
		var s models.EventSummary
		if err := scanSummary(rows, &s); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func scanEvent(row pgx.Row, e *models.Event) error {
	return row.Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.Location, &e.Price, &e.Banner, &e.OrganizerID, &e.CreatedAt)
}

func scanSummary(row pgx.Row, s *models.EventSummary) error {
	e := &s.Event
	return row.Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.Location, &e.Price, &e.Banner, &e.OrganizerID, &e.CreatedAt,
		&s.OrganizerName, &s.RSVPCount)
}
