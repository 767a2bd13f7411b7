package events

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/eventhub/backend/internal/middleware"
	"github.com/eventhub/backend/internal/models"
	"github.com/eventhub/backend/pkg/response"
)

// CreateRequest is the body for POST /api/events. Required fields are checked
// after HTML stripping in the service.
type CreateRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Date        string           `json:"date"`
	Location    string           `json:"location"`
	Price       *decimal.Decimal `json:"price" binding:"omitempty,gte=0"`
	Banner      *string          `json:"banner"`
}

// UpdateRequest is the body for PUT /api/events/:id.
type UpdateRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Date        *string          `json:"date"`
	Location    *string          `json:"location"`
	Price       *decimal.Decimal `json:"price" binding:"omitempty,gte=0"`
	Banner      *string          `json:"banner"`
}

// CreateResponse is returned by POST /api/events.
type CreateResponse struct {
	Message string        `json:"message"`
	Event   *models.Event `json:"event"`
}

// Handler handles event HTTP endpoints.
type Handler struct {
	svc    *Service
	logger *zap.Logger
}

// NewHandler creates an event handler.
func NewHandler(svc *Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	RegisterValidators()
	return &Handler{svc: svc, logger: logger}
}

// List handles GET /api/events.
func (h *Handler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// Get handles GET /api/events/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := ParseID(c, "id")
	if !ok {
		return
	}
	ev, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, ev)
}

// Create handles POST /api/events (organizers only).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, bindMessage(err))
		return
	}
	ev, err := h.svc.Create(c.Request.Context(), middleware.CallerFrom(c), CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Location:    req.Location,
		Price:       req.Price,
		Banner:      req.Banner,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Created(c, CreateResponse{Message: "Event created successfully", Event: ev})
}

// Update handles PUT /api/events/:id (event organizer only).
func (h *Handler) Update(c *gin.Context) {
	id, ok := ParseID(c, "id")
	if !ok {
		return
	}
	caller := middleware.CallerFrom(c)
	if err := h.svc.CanUpdate(c.Request.Context(), caller, id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, bindMessage(err))
		return
	}
	_, err := h.svc.Update(c.Request.Context(), caller, id, UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Location:    req.Location,
		Price:       req.Price,
		Banner:      req.Banner,
	})
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Message(c, "Event updated successfully")
}

// Delete handles DELETE /api/events/:id (event organizer only).
func (h *Handler) Delete(c *gin.Context) {
	id, ok := ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.CallerFrom(c), id); err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.Message(c, "Event deleted successfully")
}

// ListMine handles GET /api/organizer/events.
func (h *Handler) ListMine(c *gin.Context) {
	list, err := h.svc.ListMine(c.Request.Context(), middleware.CallerFrom(c))
	if err != nil {
		response.Error(c, h.logger, err)
		return
	}
	response.OK(c, list)
}

// ParseID reads a positive integer path parameter, answering 404 when it is not one.
func ParseID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		response.NotFound(c, "Not found")
		return 0, false
	}
	return id, true
}

func bindMessage(err error) string {
	if _, ok := err.(validator.ValidationErrors); ok {
		return ErrNegativePrice.Message
	}
	return "Invalid request body"
}
