package middleware

import (
	"net/http"

	"livecast/pkg/errors"
	"livecast/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandlerMiddleware handles application errors and returns appropriate HTTP responses.
// Log lines carry the request id and identity when the request context has them.
func ErrorHandlerMiddleware(contextLogger *logger.ContextLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last().Err

			appErr := errors.GetAppError(err)
			if appErr == nil {
				// Domain sentinel errors map to stable codes too.
				appErr = errors.FromDomain(err)
			}

			log := contextLogger.WithContext(c.Request.Context()).Sugar()
			if appErr.HTTPStatus >= http.StatusInternalServerError {
				log.Errorw("application error",
					"code", appErr.Code,
					"message", appErr.Message,
					"status", appErr.HTTPStatus,
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				)
			} else {
				log.Infow("request rejected",
					"code", appErr.Code,
					"status", appErr.HTTPStatus,
					"path", c.Request.URL.Path,
				)
			}

			c.JSON(appErr.HTTPStatus, gin.H{
				"error":   string(appErr.Code),
				"message": appErr.Message,
			})
		}
	}
}

// RecoveryMiddleware recovers from panics and returns proper error responses
func RecoveryMiddleware(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Errorw("panic recovered",
					"error", err,
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				)

				c.JSON(http.StatusInternalServerError, gin.H{
					"error":   string(errors.ErrCodeInternal),
					"message": "Internal server error",
				})
				c.Abort()
			}
		}()

		c.Next()
	}
}
