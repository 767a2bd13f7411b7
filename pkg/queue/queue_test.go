package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T) (*Queue, redismock.ClientMock) {
	t.Helper()
	client, mock := redismock.NewClientMock()
	q := NewQueue(client, nil)
	q.newID = func() string { return "job-1" }
	q.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	return q, mock
}

func TestEnqueueEmail(t *testing.T) {
	q, mock := newTestQueue(t)
	payload := EmailPayload{EmailType: EmailRSVPConfirmation, EventID: 4, RSVPID: 9, RecipientEmail: "sam@example.com", Subject: "s", BodyHTML: "<p>b</p>"}

	body, err := json.Marshal(payload)
	require.NoError(t, err)
	raw, err := json.Marshal(Job{ID: "job-1", Type: JobTypeEmail, Payload: body, CreatedAt: q.now()})
	require.NoError(t, err)
	mock.ExpectRPush(QueueEmails, raw).SetVal(1)

	require.NoError(t, q.EnqueueEmail(context.Background(), payload))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDequeue(t *testing.T) {
	q, mock := newTestQueue(t)
	raw := `{"id":"job-1","type":"email","payload":{"rsvp_id":9},"attempt":1}`
	mock.ExpectBLPop(DequeueTimeout, QueueEmails).SetVal([]string{QueueEmails, raw})

	job, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "job-1", job.ID)
	assert.Equal(t, 1, job.Attempt)

	mock.ExpectBLPop(DequeueTimeout, QueueEmails).RedisNil()
	job, err = q.Dequeue(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, job, "timeout yields no job")

	mock.ExpectBLPop(DequeueTimeout, QueueEmails).SetVal([]string{QueueEmails, "not json"})
	job, err = q.Dequeue(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, job, "undecodable entries are dropped")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRetryMovesToDLQAfterMaxRetries(t *testing.T) {
	q, mock := newTestQueue(t)
	job := &Job{ID: "job-1", Type: JobTypeEmail, Payload: json.RawMessage(`{}`), Attempt: 0}

	cause := errors.New("resend: 503")
	expect := func(key string, attempt int) {
		j := *job
		j.Attempt = attempt
		j.LastError = cause.Error()
		raw, err := json.Marshal(j)
		require.NoError(t, err)
		mock.ExpectRPush(key, raw).SetVal(1)
	}

	expect(QueueEmails, 1)
	require.NoError(t, q.Retry(context.Background(), job, cause))
	expect(QueueEmails, 2)
	require.NoError(t, q.Retry(context.Background(), job, cause))
	expect(QueueDLQ, 3)
	require.NoError(t, q.Retry(context.Background(), job, cause))

	assert.NoError(t, mock.ExpectationsWereMet())
}
