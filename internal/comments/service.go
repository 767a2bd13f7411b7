package comments

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/eventhub/backend/internal/apperr"
	"github.com/eventhub/backend/internal/metrics"
	"github.com/eventhub/backend/internal/models"
	"github.com/eventhub/backend/internal/sanitize"
)

var (
	ErrContentRequired = apperr.Validation("Comment content is required")
	ErrNotFound        = apperr.NotFound("Comment not found")
	ErrEventNotFound   = apperr.NotFound("Event not found")
	ErrNotAuthor       = apperr.Forbidden("Only the comment author can delete this comment")
)

// Store is the comment persistence the service needs.
type Store interface {
	Create(ctx context.Context, c *models.Comment) error
	Get(ctx context.Context, id int64) (*models.Comment, error)
	ListByEvent(ctx context.Context, eventID int64) ([]models.CommentView, error)
	Delete(ctx context.Context, id int64) error
}

// EventLookup confirms a commented event exists.
type EventLookup interface {
	Get(ctx context.Context, id int64) (*models.Event, error)
}

// UserLookup resolves a comment author's display name.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

// Publisher pushes comment activity to live followers of an event.
type Publisher interface {
	CommentCreated(eventID int64, comment models.CommentView)
	CommentDeleted(eventID, commentID int64)
}

// Service enforces comment authorship rules.
type Service struct {
	store     Store
	events    EventLookup
	users     UserLookup
	publisher Publisher
	logger    *zap.Logger
}

// NewService creates a comment service. publisher may be nil.
func NewService(store Store, events EventLookup, users UserLookup, publisher Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, events: events, users: users, publisher: publisher, logger: logger}
}

// List returns an event's comments, newest first. An unknown event has no comments.
func (s *Service) List(ctx context.Context, eventID int64) ([]models.CommentView, error) {
	list, err := s.store.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return list, nil
}

// Create posts a comment by the caller on eventID. Content is stripped of HTML and must not be blank.
func (s *Service) Create(ctx context.Context, caller models.Caller, eventID int64, content string) (*models.CommentView, error) {
	content = sanitize.Text(content)
	if content == "" {
		return nil, ErrContentRequired
	}
	if _, err := s.events.Get(ctx, eventID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	c := &models.Comment{UserID: caller.ID, EventID: eventID, Content: content}
	if err := s.store.Create(ctx, c); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("create comment: %w", err)
	}
	metrics.CommentsCreated.Inc()

	view := &models.CommentView{
		ID:        c.ID,
		Content:   c.Content,
		Timestamp: c.Timestamp,
		UserName:  s.authorName(ctx, caller.ID),
		UserID:    c.UserID,
	}
	if s.publisher != nil {
		s.publisher.CommentCreated(eventID, *view)
	}
	return view, nil
}

// Delete removes a comment. Only its author may delete it.
func (s *Service) Delete(ctx context.Context, caller models.Caller, id int64) error {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("get comment: %w", err)
	}
	if c.UserID != caller.ID {
		metrics.ForbiddenActions.WithLabelValues("delete_comment").Inc()
		return ErrNotAuthor
	}
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete comment: %w", err)
	}
	if s.publisher != nil {
		s.publisher.CommentDeleted(c.EventID, c.ID)
	}
	return nil
}

func (s *Service) authorName(ctx context.Context, userID int64) string {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Warn("lookup comment author", zap.Int64("user_id", userID), zap.Error(err))
		}
		return models.UnknownName
	}
	return u.Name
}
