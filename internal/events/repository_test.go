package events

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventhub/backend/internal/models"
	"github.com/eventhub/backend/internal/testdb"
)

func TestRepository(t *testing.T) {
	pool := testdb.New(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	orgID := testdb.InsertUser(t, pool, "Olga", "olga@example.com", "organizer")
	studentID := testdb.InsertUser(t, pool, "Sam", "sam@example.com", "student")

	later := &models.Event{
		Title: "Later", Description: "d", Location: "l",
		Date:        time.Date(2025, 9, 1, 18, 0, 0, 0, time.UTC),
		Price:       decimal.RequireFromString("12.50"),
		OrganizerID: orgID,
	}
	sooner := &models.Event{
		Title: "Sooner", Description: "d", Location: "l",
		Date:        time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC),
		Price:       decimal.Zero,
		OrganizerID: orgID,
	}
	require.NoError(t, repo.Create(ctx, later))
	require.NoError(t, repo.Create(ctx, sooner))
	assert.NotZero(t, later.ID)
	assert.False(t, later.CreatedAt.IsZero())

	_, err := pool.Exec(ctx, `INSERT INTO rsvps (user_id, event_id, payment_status) VALUES ($1, $2, 'pending')`, studentID, later.ID)
	require.NoError(t, err)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Sooner", list[0].Title)
	assert.Equal(t, "Later", list[1].Title)
	assert.Equal(t, 1, list[1].RSVPCount)
	assert.Equal(t, "Olga", list[1].OrganizerName)
	assert.True(t, list[1].Price.Equal(decimal.RequireFromString("12.5")))

	mine, err := repo.ListByOrganizer(ctx, orgID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Empty(t, mine[0].OrganizerName)

	later.Title = "Much later"
	require.NoError(t, repo.Update(ctx, later))
	got, err := repo.GetSummary(ctx, later.ID)
	require.NoError(t, err)
	assert.Equal(t, "Much later", got.Title)

	require.NoError(t, repo.Delete(ctx, later.ID))
	_, err = repo.Get(ctx, later.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, later.ID), models.ErrNotFound)

	var rsvps int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM rsvps`).Scan(&rsvps))
	assert.Zero(t, rsvps, "rsvps cascade with their event")
}
