package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventhub/backend/internal/memstore"
	"github.com/eventhub/backend/internal/models"
	"github.com/eventhub/backend/pkg/queue"
)

type fakeQueue struct {
	jobs []queue.EmailPayload
	err  error
}

func (q *fakeQueue) EnqueueEmail(_ context.Context, p queue.EmailPayload) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, p)
	return nil
}

func TestRSVPCreatedQueuesConfirmation(t *testing.T) {
	ctx := context.Background()
	db := memstore.New()
	u := &models.User{Name: "Sam <3", Email: "sam@example.com", Role: models.RoleStudent}
	require.NoError(t, db.Users().Create(ctx, u))

	q := &fakeQueue{}
	n := NewRSVPNotifier(db.Users(), q, "https://events.example.com", nil)
	ev := &models.Event{ID: 12, Title: "Go Meetup", Location: "Hall A",
		Date: time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC), Price: decimal.RequireFromString("15")}
	rsvp := &models.RSVP{ID: 3, UserID: u.ID, EventID: ev.ID, PaymentStatus: models.PaymentPending}

	require.NoError(t, n.RSVPCreated(ctx, rsvp, ev))
	require.Len(t, q.jobs, 1)
	job := q.jobs[0]
	assert.Equal(t, queue.EmailRSVPConfirmation, job.EmailType)
	assert.Equal(t, "sam@example.com", job.RecipientEmail)
	assert.Equal(t, int64(3), job.RSVPID)
	assert.Contains(t, job.BodyHTML, "Sam &lt;3")
	assert.Contains(t, job.BodyHTML, "15.00 is still pending")
	assert.Contains(t, job.BodyHTML, "https://events.example.com/events/12")
}

func TestRSVPCreatedErrors(t *testing.T) {
	ctx := context.Background()
	db := memstore.New()
	ev := &models.Event{ID: 1, Title: "t"}

	n := NewRSVPNotifier(db.Users(), &fakeQueue{}, "", nil)
	assert.Error(t, n.RSVPCreated(ctx, &models.RSVP{UserID: 99}, ev), "unknown attendee")

	u := &models.User{Name: "Sam", Email: "sam@example.com"}
	require.NoError(t, db.Users().Create(ctx, u))
	n = NewRSVPNotifier(db.Users(), &fakeQueue{err: errors.New("redis down")}, "", nil)
	assert.Error(t, n.RSVPCreated(ctx, &models.RSVP{UserID: u.ID}, ev))
}
