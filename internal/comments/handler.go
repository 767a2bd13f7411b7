package comments

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventhub/backend/internal/events"
	"github.com/eventhub/backend/internal/middleware"
	"github.com/eventhub/backend/internal/models"
	"github.com/eventhub/backend/pkg/response"
)

// CreateRequest is the body for POST /api/events/:id/comments.
type CreateRequest struct {
	Content string `json:"content"`
}

// CreateResponse is returned by POST /api/events/:id/comments.
type CreateResponse struct {
	Message string              `json:"message"`
	Comment *models.CommentView `json:"comment"`
}

// Handler handles comment HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates a comment handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// List handles GET /api/events/:id/comments.
func (h *Handler) List(c *gin.Context) {
	eventID, ok := events.ParseID(c, "id")
	if !ok {
		return
	}
	list, err := h.svc.List(c.Request.Context(), eventID)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// Create handles POST /api/events/:id/comments.
func (h *Handler) Create(c *gin.Context) {
	eventID, ok := events.ParseID(c, "id")
	if !ok {
		return
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, ErrContentRequired.Message)
		return
	}
	view, err := h.svc.Create(c.Request.Context(), middleware.CallerFrom(c), eventID, req.Content)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, CreateResponse{Message: "Comment added successfully", Comment: view})
}

// Delete handles DELETE /api/comments/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := events.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.CallerFrom(c), id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Message(c, "Comment deleted successfully")
}
