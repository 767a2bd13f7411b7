package comments

import (
	"context"
	"testing"
	"time"

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
	samID := testdb.InsertUser(t, pool, "Sam", "sam@example.com", "student")
	var eventID int64
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO events (title, description, date, location, organizer_id) VALUES ('t', 'd', $1, 'l', $2) RETURNING id`,
		time.Now(), orgID).Scan(&eventID))

	first := &models.Comment{UserID: samID, EventID: eventID, Content: "first"}
	second := &models.Comment{UserID: orgID, EventID: eventID, Content: "second"}
	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))
	assert.False(t, first.Timestamp.IsZero())

	orphan := &models.Comment{UserID: samID, EventID: eventID + 100, Content: "x"}
	assert.ErrorIs(t, repo.Create(ctx, orphan), models.ErrNotFound)

	list, err := repo.ListByEvent(ctx, eventID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Content)
	assert.Equal(t, "Olga", list[0].UserName)
	assert.Equal(t, "Sam", list[1].UserName)

	got, err := repo.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, samID, got.UserID)

	require.NoError(t, repo.Delete(ctx, first.ID))
	assert.ErrorIs(t, repo.Delete(ctx, first.ID), models.ErrNotFound)
}
