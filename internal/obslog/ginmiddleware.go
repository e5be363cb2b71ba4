package obslog

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const skipRequestLogKey = "__hostharness_skip_request_logging__"

// GinLogger is a gin middleware that logs each request the way the
// teacher's GinLogrusLogger does — one structured line per request, with
// the perform ID attached whenever the handler correlated one into the
// request context — adapted here for the host harness's endpoints rather
// than an AI-API-specific path allowlist.
func GinLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		if shouldSkipRequestLog(c) {
			return
		}

		if raw := maskQuery(c.Request.URL.RawQuery); raw != "" {
			path = path + "?" + raw
		}

		latency := time.Since(start).Truncate(time.Millisecond)
		statusCode := c.Writer.Status()
		errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String()

		performID := GetPerformID(c.Request.Context())
		if performID == "" {
			performID = "--------"
		}

		logLine := fmt.Sprintf("%3d | %10v | %15s | %-4s \"%s\"", statusCode, latency, c.ClientIP(), c.Request.Method, path)
		if errorMessage != "" {
			logLine = logLine + " | " + errorMessage
		}

		entry := log.WithField("perform_id", performID)
		switch {
		case statusCode >= http.StatusInternalServerError:
			entry.Error(logLine)
		case statusCode >= http.StatusBadRequest:
			entry.Warn(logLine)
		default:
			entry.Info(logLine)
		}
	}
}

// GinRecovery recovers from panics in a handler, logging the stack trace
// and returning a 500 instead of crashing the harness process.
func GinRecovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		if err, ok := recovered.(error); ok && errors.Is(err, http.ErrAbortHandler) {
			panic(http.ErrAbortHandler)
		}
		log.WithFields(log.Fields{
			"panic": recovered,
			"stack": string(debug.Stack()),
			"path":  c.Request.URL.Path,
		}).Error("hostharness: recovered from panic")
		c.AbortWithStatus(http.StatusInternalServerError)
	})
}

// SkipRequestLog marks c so GinLogger emits no line for this request (used
// by high-frequency polling endpoints like /v1/metrics).
func SkipRequestLog(c *gin.Context) {
	if c != nil {
		c.Set(skipRequestLogKey, true)
	}
}

func shouldSkipRequestLog(c *gin.Context) bool {
	v, exists := c.Get(skipRequestLogKey)
	if !exists {
		return false
	}
	skip, ok := v.(bool)
	return ok && skip
}

func maskQuery(raw string) string {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return raw
	}
	for key := range values {
		values.Set(key, "***")
	}
	return values.Encode()
}
