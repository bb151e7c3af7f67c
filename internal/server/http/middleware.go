package http

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-Id"
	requestIDKey    = "request_id"
)

// RequestID reuses an incoming X-Request-Id or generates one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// RequestLogger logs method, path, status and latency once the request is done.
// Bodies and headers are never logged.
func RequestLogger(l logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start).String(),
			"request_id", c.GetString(requestIDKey),
		}

		ctx := c.Request.Context()
		switch {
		case status >= http.StatusInternalServerError:
			l.Error(ctx, "request completed", args...)
		case status >= http.StatusBadRequest:
			l.Warn(ctx, "request completed", args...)
		default:
			l.Debug(ctx, "request completed", args...)
		}
	}
}

// Recovery turns a handler panic into a 500.
func Recovery(l logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				l.Error(c.Request.Context(), "panic recovered",
					"error", fmt.Sprintf("%v", r),
					"stack", string(debug.Stack()),
					"path", c.Request.URL.Path,
					"request_id", c.GetString(requestIDKey),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, messageResponse{Message: "internal server error"})
			}
		}()
		c.Next()
	}
}

// RequireAuth admits the request only if the gate accepts its Authorization
// header. The caller's identity is then available through
// auth.IdentityFromContext. Expired tokens are reported as invalid.
func RequireAuth(g Authorizer, l logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := g.Authorize(c.GetHeader(common.AuthorizationHeaderName))

		if !res.Authorized {
			msg := common.ErrInvalidToken.Error()
			if res.Reason == auth.ReasonTokenMissing {
				msg = common.ErrTokenMissing.Error()
			}
			l.Debug(c.Request.Context(), "request rejected", "reason", string(res.Reason), "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusUnauthorized, messageResponse{Message: msg})
			return
		}

		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), res.Identity))
		c.Next()
	}
}
