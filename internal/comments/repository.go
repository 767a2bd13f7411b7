package comments

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventhub/backend/internal/models"
	"github.com/eventhub/backend/pkg/database"
)

// Repository handles comment persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a comment repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a comment and fills in its ID and timestamp.
func (r *Repository) Create(ctx context.Context, c *models.Comment) error {
	const q = `INSERT INTO comments (user_id, event_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, posted_at`
	err := r.pool.QueryRow(ctx, q, c.UserID, c.EventID, c.Content).Scan(&c.ID, &c.Timestamp)
	return database.TranslateError(err)
}

// Get returns a comment by ID.
func (r *Repository) Get(ctx context.Context, id int64) (*models.Comment, error) {
	const q = `SELECT id, user_id, event_id, content, posted_at FROM comments WHERE id = $1`
	var c models.Comment
	err := r.pool.QueryRow(ctx, q, id).Scan(&c.ID, &c.UserID, &c.EventID, &c.Content, &c.Timestamp)
	if err != nil {
		return nil, database.TranslateError(err)
	}
	return &c, nil
}

// ListByEvent returns an event's comments with author names, newest first.
func (r *Repository) ListByEvent(ctx context.Context, eventID int64) ([]models.CommentView, error) {
	const q = `SELECT c.id, c.content, c.posted_at, COALESCE(u.name, 'Unknown'), c.user_id
		FROM comments c
		LEFT JOIN users u ON u.id = c.user_id
		WHERE c.event_id = $1
		ORDER BY c.posted_at DESC, c.id DESC`
	rows, err := r.pool.Query(ctx, q, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []models.CommentView{}
	for rows.Next() {
		var v models.CommentView
		if err := rows.Scan(&v.ID, &v.Content, &v.Timestamp, &v.UserName, &v.UserID); err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, rows.Err()
}

// Delete removes a comment.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
