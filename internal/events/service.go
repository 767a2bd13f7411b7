package events

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/eventhub/backend/internal/apperr"
	"github.com/eventhub/backend/internal/metrics"
	"github.com/eventhub/backend/internal/models"
	"github.com/eventhub/backend/internal/sanitize"
)

// Column limits of the events table. Prices are NUMERIC(10,2).
const (
	maxTitleLen    = 200
	maxLocationLen = 200
	maxBannerLen   = 255
	pricePlaces    = 2
)

var maxPrice = decimal.RequireFromString("99999999.99")

var (
	ErrMissingFields    = apperr.Validation("Missing required fields")
	ErrInvalidDate      = apperr.Validation("Invalid date format")
	ErrNegativePrice    = apperr.Validation("Price must not be negative")
	ErrPriceTooHigh     = apperr.Validation("Price must be at most 99999999.99")
	ErrTitleTooLong     = apperr.Validation("Title must be at most 200 characters")
	ErrLocationTooLong  = apperr.Validation("Location must be at most 200 characters")
	ErrBannerTooLong    = apperr.Validation("Banner must be at most 255 characters")
	ErrInvalidValue     = apperr.Validation("Invalid field value")
	ErrNotFound         = apperr.NotFound("Event not found")
	ErrOrganizersOnly   = apperr.Forbidden("Only organizers can create events")
	ErrOrganizerArea    = apperr.Forbidden("Only organizers can access this endpoint")
	ErrNotOwnerToUpdate = apperr.Forbidden("Only the organizer can update this event")
	ErrNotOwnerToDelete = apperr.Forbidden("Only the organizer can delete this event")
)

// Store is the persistence the event service needs.
type Store interface {
	Create(ctx context.Context, e *models.Event) error
	Get(ctx context.Context, id int64) (*models.Event, error)
	GetSummary(ctx context.Context, id int64) (*models.EventSummary, error)
	List(ctx context.Context) ([]models.EventSummary, error)
	ListByOrganizer(ctx context.Context, organizerID int64) ([]models.EventSummary, error)
	Update(ctx context.Context, e *models.Event) error
	Delete(ctx context.Context, id int64) error
}

// CreateInput carries the fields of a new event. Date is an ISO-8601 string.
type CreateInput struct {
	Title       string
	Description string
	Date        string
	Location    string
	Price       *decimal.Decimal
	Banner      *string
}

// UpdateInput carries a partial update. Nil and empty-string fields are left unchanged;
// Price applies whenever it is set, including zero.
type UpdateInput struct {
	Title       *string
	Description *string
	Date        *string
	Location    *string
	Price       *decimal.Decimal
	Banner      *string
}

// Service enforces event ownership rules on top of a Store.
type Service struct {
	store  Store
	logger *zap.Logger
}

// NewService creates an event service.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// List returns every event, soonest first.
func (s *Service) List(ctx context.Context) ([]models.EventSummary, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return list, nil
}

// Get returns one event with its organizer name and RSVP count.
func (s *Service) Get(ctx context.Context, id int64) (*models.EventSummary, error) {
	ev, err := s.store.GetSummary(ctx, id)
	if err != nil {
		return nil, notFound(err, "get event")
	}
	return ev, nil
}

// Create stores a new event owned by the caller, who must be an organizer.
func (s *Service) Create(ctx context.Context, caller models.Caller, in CreateInput) (*models.Event, error) {
	if !caller.IsOrganizer() {
		metrics.ForbiddenActions.WithLabelValues("create_event").Inc()
		return nil, ErrOrganizersOnly
	}

	title := sanitize.Text(in.Title)
	description := sanitize.Text(in.Description)
	location := sanitize.Text(in.Location)
	if title == "" || description == "" || location == "" || in.Date == "" {
		return nil, ErrMissingFields
	}
	banner := nonEmpty(sanitize.OptionalText(in.Banner))
	if err := checkLengths(&title, &location, banner); err != nil {
		return nil, err
	}
	date, err := ParseDate(in.Date)
	if err != nil {
		return nil, ErrInvalidDate
	}
	price := decimal.Zero
	if in.Price != nil {
		if price, err = normalizePrice(*in.Price); err != nil {
			return nil, err
		}
	}

	ev := &models.Event{
		Title:       title,
		Description: description,
		Date:        date,
		Location:    location,
		Price:       price,
		Banner:      banner,
		OrganizerID: caller.ID,
	}
	if err := s.store.Create(ctx, ev); err != nil {
		return nil, storeError(err, "create event")
	}
	s.logger.Info("event created", zap.Int64("event_id", ev.ID), zap.Int64("organizer_id", caller.ID))
	return ev, nil
}

// CanUpdate reports ErrNotFound or ErrNotOwnerToUpdate before a request body is read.
func (s *Service) CanUpdate(ctx context.Context, caller models.Caller, id int64) error {
	_, err := s.ownedForUpdate(ctx, caller, id)
	return err
}

// Update applies a partial update. Only the event's organizer may update it.
func (s *Service) Update(ctx context.Context, caller models.Caller, id int64, in UpdateInput) (*models.Event, error) {
	ev, err := s.ownedForUpdate(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	patch, err := buildPatch(in)
	if err != nil {
		return nil, err
	}
	patch.Apply(ev)

	if err := s.store.Update(ctx, ev); err != nil {
		return nil, storeError(err, "update event")
	}
	return ev, nil
}

func (s *Service) ownedForUpdate(ctx context.Context, caller models.Caller, id int64) (*models.Event, error) {
	ev, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "get event")
	}
	if ev.OrganizerID != caller.ID {
		metrics.ForbiddenActions.WithLabelValues("update_event").Inc()
		return nil, ErrNotOwnerToUpdate
	}
	return ev, nil
}

// Delete removes an event with its RSVPs and comments. Only the event's organizer may delete it.
func (s *Service) Delete(ctx context.Context, caller models.Caller, id int64) error {
	ev, err := s.store.Get(ctx, id)
	if err != nil {
		return notFound(err, "get event")
	}
	if ev.OrganizerID != caller.ID {
		metrics.ForbiddenActions.WithLabelValues("delete_event").Inc()
		return ErrNotOwnerToDelete
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return notFound(err, "delete event")
	}
	s.logger.Info("event deleted", zap.Int64("event_id", id), zap.Int64("organizer_id", caller.ID))
	return nil
}

// ListMine returns the caller's own events, soonest first. The caller must be an organizer.
func (s *Service) ListMine(ctx context.Context, caller models.Caller) ([]models.EventSummary, error) {
	if !caller.IsOrganizer() {
		metrics.ForbiddenActions.WithLabelValues("list_organizer_events").Inc()
		return nil, ErrOrganizerArea
	}
	list, err := s.store.ListByOrganizer(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("list organizer events: %w", err)
	}
	return list, nil
}

func buildPatch(in UpdateInput) (models.EventPatch, error) {
	var p models.EventPatch
	p.Title = nonEmpty(sanitize.OptionalText(in.Title))
	p.Description = nonEmpty(sanitize.OptionalText(in.Description))
	p.Location = nonEmpty(sanitize.OptionalText(in.Location))
	p.Banner = nonEmpty(sanitize.OptionalText(in.Banner))
	if err := checkLengths(p.Title, p.Location, p.Banner); err != nil {
		return p, err
	}
	if in.Date != nil && *in.Date != "" {
		date, err := ParseDate(*in.Date)
		if err != nil {
			return p, ErrInvalidDate
		}
		p.Date = &date
	}
	if in.Price != nil {
		price, err := normalizePrice(*in.Price)
		if err != nil {
			return p, err
		}
		p.Price = &price
	}
	return p, nil
}

// normalizePrice rejects prices the column cannot hold and rounds to cents.
func normalizePrice(p decimal.Decimal) (decimal.Decimal, error) {
	if p.IsNegative() {
		return p, ErrNegativePrice
	}
	p = p.Round(pricePlaces)
	if p.GreaterThan(maxPrice) {
		return p, ErrPriceTooHigh
	}
	return p, nil
}

// checkLengths applies the column limits to the fields that are set.
func checkLengths(title, location, banner *string) error {
	switch {
	case title != nil && utf8.RuneCountInString(*title) > maxTitleLen:
		return ErrTitleTooLong
	case location != nil && utf8.RuneCountInString(*location) > maxLocationLen:
		return ErrLocationTooLong
	case banner != nil && utf8.RuneCountInString(*banner) > maxBannerLen:
		return ErrBannerTooLong
	}
	return nil
}

// nonEmpty treats an empty string like an absent one.
func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func storeError(err error, op string) error {
	if errors.Is(err, models.ErrInvalidValue) {
		return ErrInvalidValue
	}
	return notFound(err, op)
}

func notFound(err error, op string) error {
	if errors.Is(err, models.ErrNotFound) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
