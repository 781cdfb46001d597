package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/versemate/offlinestore/internal/catalog"
	"github.com/versemate/offlinestore/internal/database"
	"github.com/versemate/offlinestore/internal/entities"
	"github.com/versemate/offlinestore/internal/outbox"
	"github.com/versemate/offlinestore/internal/remote"
	"github.com/versemate/offlinestore/internal/syncer"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // additional context (sync report, validation errors, etc.)
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// respondFailure picks the status and user-visible message for err. Storage, session
// and upstream failures get their own codes so the UI can explain them.
func respondFailure(c *gin.Context, err error, context string) {
	var statusErr *remote.StatusError
	switch {
	case errors.Is(err, database.ErrPermanentlyFailed):
		log.Printf("Storage unavailable (%s): %v", context, err)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: MessageStorageUnavailable, Code: CodeStorageUnavailable})
	case errors.Is(err, remote.ErrSessionExpired):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: MessageSessionExpired, Code: CodeSessionExpired})
	case errors.Is(err, syncer.ErrNotOffered):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, outbox.ErrInvalidAction), errors.Is(err, outbox.ErrUnknownAction):
		respondBadRequest(c, err.Error())
	case errors.As(err, &statusErr):
		log.Printf("Upstream error (%s): %v", context, err)
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: MessageContentStale, Code: CodeSyncFailed})
	default:
		respondInternalError(c, err, context)
	}
}

// --- Success Response Helpers ---

// respondSuccess sends a 200 OK response with a message.
func respondSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message})
}

// respondCreated sends a 201 Created response with data.
func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// respondAccepted sends a 202 Accepted response (for async operations).
func respondAccepted(c *gin.Context, message string, data any) {
	c.JSON(http.StatusAccepted, SuccessResponse{Message: message, Data: data})
}

// --- Parameter Parsing ---

// parsePositiveParam extracts a positive integer from URL parameters.
// Returns the parsed value or responds with a 400 error and returns 0, false.
func parsePositiveParam(c *gin.Context, paramName string) (int, bool) {
	n, err := strconv.Atoi(c.Param(paramName))
	if err != nil || n < 1 {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return n, true
}

// parseBookParam accepts a canonical book id or any book name the catalog knows.
func parseBookParam(c *gin.Context, paramName string) (catalog.Book, bool) {
	raw := c.Param(paramName)
	if id, err := strconv.Atoi(raw); err == nil {
		if book, ok := catalog.BookByID(id); ok {
			return book, true
		}
	} else if book, ok := catalog.Lookup(raw); ok {
		return book, true
	}
	respondNotFound(c, "book "+raw)
	return catalog.Book{}, false
}

// parseResourceParams reads the :kind and :key of a downloadable resource.
func parseResourceParams(c *gin.Context) (entities.ResourceKind, string, bool) {
	kind := entities.ResourceKind(c.Param("kind"))
	key := c.Param("key")
	switch kind {
	case entities.ResourceBible, entities.ResourceCommentary, entities.ResourceTopics:
		if key == "" {
			respondBadRequest(c, "resource key is required")
			return "", "", false
		}
		return kind, key, true
	default:
		respondBadRequest(c, "invalid resource kind "+string(kind))
		return "", "", false
	}
}
