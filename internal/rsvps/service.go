package rsvps

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/eventhub/backend/internal/apperr"
	"github.com/eventhub/backend/internal/metrics"
	"github.com/eventhub/backend/internal/models"
)

var (
	ErrEventIDRequired = apperr.Validation("Event ID is required")
	ErrAlreadyRSVPd    = apperr.Conflict("Already RSVP'd to this event")
	ErrNotFound        = apperr.NotFound("RSVP not found")
	ErrEventNotFound   = apperr.NotFound("Event not found")
	ErrNotOrganizer    = apperr.Forbidden("Only the organizer can view RSVPs for this event")
)

// Store is the RSVP persistence the service needs.
type Store interface {
	Create(ctx context.Context, r *models.RSVP) error
	Get(ctx context.Context, userID, eventID int64) (*models.RSVP, error)
	Delete(ctx context.Context, userID, eventID int64) error
	Roster(ctx context.Context, eventID int64) ([]models.RosterEntry, error)
}

// EventLookup fetches the event an RSVP refers to.
type EventLookup interface {
	Get(ctx context.Context, id int64) (*models.Event, error)
}

// Notifier is told about new RSVPs. Errors are logged and otherwise ignored.
type Notifier interface {
	RSVPCreated(ctx context.Context, rsvp *models.RSVP, ev *models.Event) error
}

// Service runs the RSVP state machine: not_rsvpd -> rsvpd -> not_rsvpd.
type Service struct {
	store    Store
	events   EventLookup
	notifier Notifier
	logger   *zap.Logger
}

// NewService creates an RSVP service. notifier may be nil.
func NewService(store Store, events EventLookup, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, events: events, notifier: notifier, logger: logger}
}

// Create RSVPs the caller to eventID. The payment status is free for a zero-price event, pending otherwise.
func (s *Service) Create(ctx context.Context, caller models.Caller, eventID int64) (*models.RSVP, error) {
	if eventID <= 0 {
		return nil, ErrEventIDRequired
	}
	ev, err := s.event(ctx, eventID)
	if err != nil {
		return nil, err
	}

	rsvp := &models.RSVP{
		UserID:        caller.ID,
		EventID:       ev.ID,
		PaymentStatus: models.PaymentStatusFor(ev.Price),
	}
	if err := s.store.Create(ctx, rsvp); err != nil {
		switch {
		case errors.Is(err, models.ErrDuplicate):
			metrics.RSVPsRejected.Inc()
			return nil, ErrAlreadyRSVPd
		case errors.Is(err, models.ErrNotFound):
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("create rsvp: %w", err)
	}
	metrics.RSVPsCreated.WithLabelValues(string(rsvp.PaymentStatus)).Inc()
	s.logger.Info("rsvp created",
		zap.Int64("rsvp_id", rsvp.ID),
		zap.Int64("user_id", caller.ID),
		zap.Int64("event_id", ev.ID),
		zap.String("payment_status", string(rsvp.PaymentStatus)))

	if s.notifier != nil {
		if err := s.notifier.RSVPCreated(ctx, rsvp, ev); err != nil {
			s.logger.Warn("rsvp notification failed", zap.Int64("rsvp_id", rsvp.ID), zap.Error(err))
		}
	}
	return rsvp, nil
}

// Cancel removes the caller's RSVP for eventID.
func (s *Service) Cancel(ctx context.Context, caller models.Caller, eventID int64) error {
	if err := s.store.Delete(ctx, caller.ID, eventID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("cancel rsvp: %w", err)
	}
	s.logger.Info("rsvp cancelled", zap.Int64("user_id", caller.ID), zap.Int64("event_id", eventID))
	return nil
}

// Status reports whether the caller has RSVP'd to eventID.
func (s *Service) Status(ctx context.Context, caller models.Caller, eventID int64) (models.RSVPStatus, error) {
	rsvp, err := s.store.Get(ctx, caller.ID, eventID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.RSVPStatus{RSVPStatus: models.RSVPStateNone}, nil
		}
		return models.RSVPStatus{}, fmt.Errorf("get rsvp: %w", err)
	}
	return models.RSVPStatus{RSVPStatus: models.RSVPStateAttending, PaymentStatus: rsvp.PaymentStatus}, nil
}

// Roster lists the attendees of eventID. Only the event's organizer may see it.
func (s *Service) Roster(ctx context.Context, caller models.Caller, eventID int64) ([]models.RosterEntry, error) {
	ev, err := s.event(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if ev.OrganizerID != caller.ID {
		metrics.ForbiddenActions.WithLabelValues("view_roster").Inc()
		return nil, ErrNotOrganizer
	}
	roster, err := s.store.Roster(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list roster: %w", err)
	}
	return roster, nil
}

func (s *Service) event(ctx context.Context, id int64) (*models.Event, error) {
	ev, err := s.events.Get(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return ev, nil
}
