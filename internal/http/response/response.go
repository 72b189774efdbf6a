// Package response writes the JSON bodies shared by every handler.
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/learnsync/internal/domain/aggregates"
	"github.com/yungbote/learnsync/internal/platform/apierr"
	"github.com/yungbote/learnsync/internal/platform/ctxutil"
	"github.com/yungbote/learnsync/internal/reconcile"
)

type APIError struct {
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondError aborts the chain and writes an error envelope.
func RespondError(c *gin.Context, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	body := APIError{Message: msg, Code: code}
	if c.Request != nil {
		body.RequestID = ctxutil.RequestID(c.Request.Context())
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: body})
}

// StatusForCode maps aggregate error codes to HTTP statuses.
func StatusForCode(code domainagg.ErrorCode) int {
	switch code {
	case domainagg.CodeValidation:
		return http.StatusBadRequest
	case domainagg.CodeNotFound:
		return http.StatusNotFound
	case domainagg.CodeConflict:
		return http.StatusConflict
	case domainagg.CodeRetryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondServiceError writes err using the most specific mapping available.
// fallbackCode is used for errors that carry no code of their own.
func RespondServiceError(c *gin.Context, fallbackCode string, err error) {
	if ae, ok := apierr.As(err); ok {
		RespondError(c, ae.Status, ae.Code, ae.Err)
		return
	}
	var fe *reconcile.FieldError
	if errors.As(err, &fe) {
		RespondError(c, http.StatusBadRequest, string(domainagg.CodeValidation), fe)
		return
	}
	if code := domainagg.CodeOf(err); code != "" {
		RespondError(c, StatusForCode(code), string(code), err)
		return
	}
	RespondError(c, http.StatusInternalServerError, fallbackCode, err)
}
