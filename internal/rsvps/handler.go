package rsvps

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventhub/backend/internal/events"
	"github.com/eventhub/backend/internal/middleware"
	"github.com/eventhub/backend/internal/models"
	"github.com/eventhub/backend/pkg/response"
)

// CreateRequest is the body for POST /api/rsvp.
type CreateRequest struct {
	EventID int64 `json:"event_id"`
}

// CreateResponse is returned by POST /api/rsvp.
type CreateResponse struct {
	Message string       `json:"message"`
	RSVP    *models.RSVP `json:"rsvp"`
}

// Handler handles RSVP HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an RSVP handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Create handles POST /api/rsvp.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, ErrEventIDRequired.Message)
		return
	}
	rsvp, err := h.svc.Create(c.Request.Context(), middleware.CallerFrom(c), req.EventID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, CreateResponse{Message: "RSVP created successfully", RSVP: rsvp})
}

// Cancel handles DELETE /api/rsvp/:event_id.
func (h *Handler) Cancel(c *gin.Context) {
	eventID, ok := events.ParseID(c, "event_id")
	if !ok {
		return
	}
	if err := h.svc.Cancel(c.Request.Context(), middleware.CallerFrom(c), eventID); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Message(c, "RSVP cancelled successfully")
}

// Status handles GET /api/rsvp/:event_id.
func (h *Handler) Status(c *gin.Context) {
	eventID, ok := events.ParseID(c, "event_id")
	if !ok {
		return
	}
	status, err := h.svc.Status(c.Request.Context(), middleware.CallerFrom(c), eventID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, status)
}

// Roster handles GET /api/organizer/events/:id/rsvps.
func (h *Handler) Roster(c *gin.Context) {
	eventID, ok := events.ParseID(c, "id")
	if !ok {
		return
	}
	roster, err := h.svc.Roster(c.Request.Context(), middleware.CallerFrom(c), eventID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, roster)
}
