package relay

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/simally/relay/internal/events"
	"github.com/simally/relay/internal/tavus"
)

// Handlers provides HTTP handlers for relay operations
type Handlers struct {
	service *Service
	logger  *zap.Logger
}

// NewHandlers creates new relay handlers
func NewHandlers(service *Service, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers all relay routes
func (h *Handlers) RegisterRoutes(router *gin.Engine) {
	router.GET("/", h.Root)

	api := router.Group("/api")
	{
		api.POST("/create-riddle-conversation", h.CreateConversation)
		api.POST("/end-conversation", h.EndConversation)
		api.GET("/health", h.HealthCheck)
		api.GET("/monitoring/conversations/:userId", h.ConversationEvents)
	}
}

// CreateConversation handles POST /api/create-riddle-conversation
func (h *Handlers) CreateConversation(c *gin.Context) {
	var req CreateConversationRequest
	// the body is optional; an empty one means "generate a user id"
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	result, err := h.service.CreateSession(c.Request.Context(), req.UserID)
	if err != nil {
		h.logger.Error("Failed to create conversation", zap.String("user_id", req.UserID), zap.Error(err))
		status, body := errorResponse(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, ConversationResponse{
		Success:         true,
		ConversationID:  result.ConversationID,
		ConversationURL: result.ConversationURL,
		UserID:          result.UserID,
	})
}

// EndConversation handles POST /api/end-conversation
func (h *Handlers) EndConversation(c *gin.Context) {
	var req EndConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Details: err.Error()})
		return
	}

	result, err := h.service.EndSession(c.Request.Context(), req.UserID)
	if err != nil {
		if !IsNotFound(err) {
			h.logger.Error("Failed to end conversation", zap.String("user_id", req.UserID), zap.Error(err))
		}
		status, body := errorResponse(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, EndConversationResponse{
		Success: true,
		Message: result.Message,
	})
}

// HealthCheck handles GET /api/health
func (h *Handlers) HealthCheck(c *gin.Context) {
	health, err := h.service.HealthCheck(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, health)
}

// Root handles GET /
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Root())
}

// ConversationEvents handles GET /api/monitoring/conversations/:userId
func (h *Handlers) ConversationEvents(c *gin.Context) {
	userID := c.Param("userId")
	limit, _ := strconv.Atoi(c.Query("limit"))

	list, err := h.service.ConversationEvents(c.Request.Context(), userID, limit)
	if err != nil {
		if errors.Is(err, events.ErrDisabled) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
			return
		}
		h.logger.Error("Failed to list conversation events", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	if list == nil {
		list = []*events.ConversationEvent{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"events":  list,
	})
}

// errorResponse maps a service error onto a status code and body
func errorResponse(err error) (int, ErrorResponse) {
	var serr *SessionError
	if errors.As(err, &serr) && serr.Type == SessionErrorTypeNotFound {
		return http.StatusNotFound, ErrorResponse{Error: serr.Message}
	}

	var perr *tavus.ProviderError
	if errors.As(err, &perr) {
		return http.StatusInternalServerError, ErrorResponse{
			Error:   "Failed to create conversation",
			Details: perr.Body,
		}
	}

	var terr *tavus.TransportError
	if errors.As(err, &terr) {
		return http.StatusInternalServerError, ErrorResponse{
			Error: "Request failed: " + terr.Err.Error(),
		}
	}

	if serr != nil {
		msg := serr.Message
		if serr.Cause != nil {
			msg += ": " + serr.Cause.Error()
		}
		return http.StatusInternalServerError, ErrorResponse{Error: msg}
	}

	return http.StatusInternalServerError, ErrorResponse{Error: err.Error()}
}
