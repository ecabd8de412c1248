package admin

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cryptoKingdom88/memeCoinBackend/tradingService/logging"
)

// AccessLogger logs one line per request. Paths in notLogged are skipped.
func AccessLogger(logger *logging.Logger, notLogged ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(notLogged))
	for _, p := range notLogged {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		start := time.Now()
		c.Next()

		if _, ok := skip[path]; ok {
			return
		}
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		statusCode := c.Writer.Status()
		dataLength := c.Writer.Size()
		if dataLength < 0 {
			dataLength = 0
		}
		fields := map[string]interface{}{
			"status_code": statusCode,
			"latency_us":  time.Since(start).Microseconds(),
			"client_ip":   c.ClientIP(),
			"method":      c.Request.Method,
			"path":        path,
			"data_length": dataLength,
			"user_agent":  c.Request.UserAgent(),
		}

		switch {
		case len(c.Errors) > 0:
			fields["errors"] = c.Errors.ByType(gin.ErrorTypePrivate).String()
			logger.Error("HTTP request failed", fields)
		case statusCode >= http.StatusInternalServerError:
			logger.Error("HTTP request", fields)
		case statusCode >= http.StatusBadRequest:
			logger.Warn("HTTP request", fields)
		default:
			logger.Debug("HTTP request", fields)
		}
	}
}

// Recovery turns a handler panic into a 500 and logs it
func Recovery(logger *logging.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error("Panic in HTTP handler", map[string]interface{}{
			"path":  c.Request.URL.Path,
			"panic": recovered,
		})
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	})
}
