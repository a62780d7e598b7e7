package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sorvetao/internal/core/apperror"
	appctx "sorvetao/internal/core/context"
	"sorvetao/internal/infrastructure/http/v1/dto"
	"sorvetao/pkg/logger"
)

// ErrorHandler middleware transforms errors into consistent JSON responses.
// Hides internal errors from clients while logging full details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		renderError(c)
	}
}

// renderError writes the last registered error unless a response was
// already written.
func renderError(c *gin.Context) {
	if len(c.Errors) == 0 || c.Writer.Written() {
		return
	}
	err := c.Errors.Last().Err
	status := apperror.GetHTTPStatus(err)

	if appErr, ok := apperror.AsAppError(err); ok {
		if appErr.Err != nil || status >= http.StatusInternalServerError {
			logger.Error(c.Request.Context(), "request error",
				"code", appErr.Code,
				"message", appErr.Message,
				"cause", appErr.Err,
			)
		}

		c.JSON(status, dto.ErrorResponse{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		})
		return
	}

	// Unknown error - log and return generic message
	logger.Error(c.Request.Context(), "unhandled error", "error", err)

	c.JSON(status, dto.ErrorResponse{
		Code:    apperror.CodeInternal,
		Message: "Internal server error",
		Details: map[string]any{
			"request_id": appctx.GetRequestID(c.Request.Context()),
		},
	})
}
