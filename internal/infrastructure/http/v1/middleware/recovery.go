// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"sorvetao/internal/core/apperror"
	appctx "sorvetao/internal/core/context"
	"sorvetao/pkg/logger"
)

// Recovery middleware recovers from panics and returns 500 error.
// Catalog integrity violations keep their code; anything else is reported
// as an internal error without details.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					"error", rec,
					"stack", string(debug.Stack()),
				)

				var appErr *apperror.AppError
				if err, ok := rec.(error); ok {
					if ae, ok := apperror.AsAppError(err); ok && ae.Code == apperror.CodeCatalogIntegrity {
						appErr = ae
					}
				}
				if appErr == nil {
					appErr = apperror.NewInternal(fmt.Errorf("panic: %v", rec))
				}

				_ = c.Error(appErr.WithDetail("request_id", appctx.GetRequestID(c.Request.Context())))
				c.Abort()
				renderError(c)
			}
		}()
		c.Next()
	}
}
