package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventhub/backend/pkg/queue"
)

type sentMail struct{ to, subject string }

type fakeMailer struct {
	mu     sync.Mutex
	sent   []sentMail
	fails  int
	onSend func()
}

func (m *fakeMailer) Send(_ context.Context, to, subject, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.onSend != nil {
		m.onSend()
	}
	if m.fails > 0 {
		m.fails--
		return errors.New("smtp exploded")
	}
	m.sent = append(m.sent, sentMail{to, subject})
	return nil
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// memQueue mirrors queue.Queue retry semantics in memory.
type memQueue struct {
	mu       sync.Mutex
	jobs     []*queue.Job
	dlq      []*queue.Job
	retryErr error
}

func (q *memQueue) Dequeue(_ context.Context) (*queue.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) == 0 {
		time.Sleep(time.Millisecond)
		return nil, nil
	}
	job := q.jobs[0]
	q.jobs = q.jobs[1:]
	return job, nil
}

func (q *memQueue) Retry(ctx context.Context, job *queue.Job, cause error) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if err := ctx.Err(); err != nil {
		q.retryErr = err
		return err
	}
	job.Attempt++
	job.LastError = cause.Error()
	if job.Attempt >= queue.MaxRetries {
		q.dlq = append(q.dlq, job)
		return nil
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *memQueue) dlqLen() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.dlq)
}

func emailJob(t *testing.T, to string) *queue.Job {
	t.Helper()
	body, err := json.Marshal(queue.EmailPayload{EmailType: queue.EmailRSVPConfirmation, RecipientEmail: to, Subject: "hi", BodyHTML: "<p>x</p>"})
	require.NoError(t, err)
	return &queue.Job{ID: "j-" + to, Type: queue.JobTypeEmail, Payload: body}
}

func TestProcess(t *testing.T) {
	m := &fakeMailer{}
	p := NewEmailProcessor(&memQueue{}, m, nil)

	require.NoError(t, p.Process(context.Background(), emailJob(t, "sam@example.com")))
	assert.Equal(t, []sentMail{{"sam@example.com", "hi"}}, m.sent)

	assert.Error(t, p.Process(context.Background(), &queue.Job{Type: "recording_upload"}))
	assert.Error(t, p.Process(context.Background(), &queue.Job{Type: queue.JobTypeEmail, Payload: json.RawMessage(`{}`)}))
}

func TestRunRetriesThenSucceeds(t *testing.T) {
	q := &memQueue{jobs: []*queue.Job{emailJob(t, "sam@example.com")}}
	m := &fakeMailer{fails: 1}
	p := NewEmailProcessor(q, m, nil)
	p.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return m.count() == 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done
	assert.Zero(t, q.dlqLen())
}

func TestRunDeadLettersPersistentFailures(t *testing.T) {
	q := &memQueue{jobs: []*queue.Job{emailJob(t, "sam@example.com")}}
	m := &fakeMailer{fails: 100}
	p := NewEmailProcessor(q, m, nil)
	p.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)

	require.Eventually(t, func() bool { return q.dlqLen() == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Zero(t, m.count())

	q.mu.Lock()
	defer q.mu.Unlock()
	assert.Equal(t, queue.MaxRetries, q.dlq[0].Attempt)
	assert.NotEmpty(t, q.dlq[0].LastError)
}

func TestRunRequeuesJobFailedDuringShutdown(t *testing.T) {
	q := &memQueue{jobs: []*queue.Job{emailJob(t, "sam@example.com")}}
	ctx, cancel := context.WithCancel(context.Background())
	m := &fakeMailer{fails: 1, onSend: cancel}
	p := NewEmailProcessor(q, m, nil)
	p.backoff = time.Millisecond

	p.Run(ctx)

	q.mu.Lock()
	defer q.mu.Unlock()
	assert.NoError(t, q.retryErr)
	require.Len(t, q.jobs, 1, "the in-flight job is back on the queue")
	assert.Equal(t, 1, q.jobs[0].Attempt)
}
