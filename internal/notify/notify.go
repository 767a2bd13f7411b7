// Package notify turns new RSVPs into queued confirmation e-mails.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/eventhub/backend/internal/metrics"
	"github.com/eventhub/backend/internal/models"
	"github.com/eventhub/backend/pkg/queue"
)

var confirmationTemplate = template.Must(template.New("rsvp_confirmation").Parse(`<!DOCTYPE html>
<html>
<body>
<p>Hi {{.Name}},</p>
<p>You're on the list for <strong>{{.Title}}</strong>.</p>
<p>When: {{.When}}<br>Where: {{.Location}}</p>
{{if .Pending}}<p>Your spot is reserved. Payment of {{.Price}} is still pending.</p>{{end}}
<p><a href="{{.Link}}">View event</a></p>
</body>
</html>
`))

type confirmationData struct {
	Name     string
	Title    string
	When     string
	Location string
	Price    string
	Pending  bool
	Link     string
}

// UserLookup resolves the attendee to mail.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// Enqueuer accepts e-mail jobs.
type Enqueuer interface {
	EnqueueEmail(ctx context.Context, payload queue.EmailPayload) error
}

// RSVPNotifier queues a confirmation e-mail for every new RSVP.
type RSVPNotifier struct {
	users   UserLookup
	queue   Enqueuer
	baseURL string
	logger  *zap.Logger
}

// NewRSVPNotifier creates a notifier. baseURL is the front-end origin used for event links.
func NewRSVPNotifier(users UserLookup, q Enqueuer, baseURL string, logger *zap.Logger) *RSVPNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RSVPNotifier{users: users, queue: q, baseURL: baseURL, logger: logger}
}

// RSVPCreated renders the confirmation for rsvp and enqueues it.
func (n *RSVPNotifier) RSVPCreated(ctx context.Context, rsvp *models.RSVP, ev *models.Event) error {
	u, err := n.users.GetByID(ctx, rsvp.UserID)
	if err != nil {
		metrics.NotificationsEnqueued.WithLabelValues("failed").Inc()
		return fmt.Errorf("lookup attendee: %w", err)
	}

	body, err := n.render(u, rsvp, ev)
	if err != nil {
		metrics.NotificationsEnqueued.WithLabelValues("failed").Inc()
		return err
	}

	payload := queue.EmailPayload{
		EmailType:      queue.EmailRSVPConfirmation,
		EventID:        ev.ID,
		RSVPID:         rsvp.ID,
		RecipientEmail: u.Email,
		Subject:        "You're going to " + ev.Title,
		BodyHTML:       body,
	}
	if err := n.queue.EnqueueEmail(ctx, payload); err != nil {
		metrics.NotificationsEnqueued.WithLabelValues("failed").Inc()
		return fmt.Errorf("enqueue confirmation: %w", err)
	}
	metrics.NotificationsEnqueued.WithLabelValues("queued").Inc()
	n.logger.Debug("rsvp confirmation queued", zap.Int64("rsvp_id", rsvp.ID), zap.Int64("event_id", ev.ID))
	return nil
}

func (n *RSVPNotifier) render(u *models.User, rsvp *models.RSVP, ev *models.Event) (string, error) {
	data := confirmationData{
		Name:     u.Name,
		Title:    ev.Title,
		When:     ev.Date.UTC().Format(time.RFC1123),
		Location: ev.Location,
		Price:    ev.Price.StringFixed(2),
		Pending:  rsvp.PaymentStatus == models.PaymentPending,
		Link:     n.baseURL + "/events/" + strconv.FormatInt(ev.ID, 10),
	}
	var buf bytes.Buffer
	if err := confirmationTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render confirmation: %w", err)
	}
	return buf.String(), nil
}
