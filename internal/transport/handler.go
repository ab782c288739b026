// Package transport exposes the analysis service over HTTP with gin.
package transport

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/anime-shed/ai-image-inspector-go/internal/auth"
	"github.com/anime-shed/ai-image-inspector-go/internal/config"
	apperrors "github.com/anime-shed/ai-image-inspector-go/internal/errors"
	"github.com/anime-shed/ai-image-inspector-go/internal/logger"
	"github.com/anime-shed/ai-image-inspector-go/internal/service"
	"github.com/anime-shed/ai-image-inspector-go/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Client-facing error messages.
const (
	msgMissingFile = "Missing 'file' in multipart form-data"
	msgEmptyFile   = "Empty file"
	msgMissingURL  = "Provide JSON with 'url'"
	msgTooLarge    = "Request body too large"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// StatsProvider reports service counters for GET /stats.
type StatsProvider interface {
	Stats() models.StatsResponse
}

func NewHandler(svc service.ImageAnalysisService, stats StatsProvider, cfg *config.Config) http.Handler {
	r := gin.New()

	// Add middleware
	r.Use(
		gin.Recovery(),
		requestID(),
		requestLogger(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
	)

	// Configure routes
	r.GET("/", healthCheck)
	r.GET("/health", healthCheck)
	r.GET("/stats", statsHandler(stats))

	analysis := r.Group("/")
	if cfg.AuthEnabled() {
		analysis.Use(auth.JWTMiddleware(cfg.AuthJWTSecret, cfg.AuthJWTAudience))
	}
	for _, prefix := range []string{"", "/api"} {
		analysis.POST(prefix+"/analyze", analyzeUpload(svc, cfg))
		analysis.POST(prefix+"/analyze-url", analyzeURL(svc, cfg))
	}

	return r
}

func analyzeUpload(svc service.ImageAnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		fileHeader, err := c.FormFile("file")
		if err != nil {
			if isTooLarge(err) {
				respondError(c, apperrors.NewTooLargeError(msgTooLarge, err))
				return
			}
			respondError(c, apperrors.NewValidationError(msgMissingFile, err))
			return
		}

		data, err := readFormFile(fileHeader)
		if err != nil {
			respondError(c, apperrors.NewValidationError(msgMissingFile, err))
			return
		}
		if len(data) == 0 {
			respondError(c, apperrors.NewValidationError(msgEmptyFile, nil))
			return
		}

		logger.WithFields(logrus.Fields{
			"filename":   fileHeader.Filename,
			"bytes":      len(data),
			"request_id": logger.RequestID(ctx),
		}).Debug("Analyzing uploaded image")

		result, err := svc.AnalyzeBytes(ctx, data)
		if err != nil {
			respondError(c, err)
			return
		}
		c.PureJSON(http.StatusOK, result)
	}
}

func analyzeURL(svc service.ImageAnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req models.AnalyzeURLRequest
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.URL) == "" {
			if isTooLarge(err) {
				respondError(c, apperrors.NewTooLargeError(msgTooLarge, err))
				return
			}
			respondError(c, apperrors.NewValidationError(msgMissingURL, err))
			return
		}

		result, err := svc.AnalyzeURL(ctx, req.URL)
		if err != nil {
			respondError(c, err)
			return
		}
		c.PureJSON(http.StatusOK, result)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{Status: "ok"})
}

func statsHandler(stats StatsProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, stats.Stats())
	}
}

func readFormFile(fileHeader *multipart.FileHeader) ([]byte, error) {
	f, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// Middleware and helper functions

// requestID reuses a sane incoming X-Request-ID or mints a UUID, echoes it,
// and stores it on the request context.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"ip":         c.ClientIP(),
			"request_id": c.GetString(requestIDKey),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.WithFields(fields).Warn("Request completed with server error")
			return
		}
		logger.WithFields(fields).Info("Request completed")
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			respondError(c, apperrors.NewTooLargeError(msgTooLarge, nil))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return err != nil && errors.As(err, &maxErr)
}

// respondError writes err as {"error": message}. AppErrors keep their status
// and client-facing message; anything else is a 500.
func respondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.NewInternalError(http.StatusText(http.StatusInternalServerError), err)
	}

	entry := logger.WithFields(logrus.Fields{
		"status_code": appErr.StatusCode,
		"error_type":  appErr.Type,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
		"request_id":  c.GetString(requestIDKey),
	})
	if appErr.Cause != nil {
		entry = entry.WithError(appErr.Cause)
	}
	entry.Info(appErr.Message)

	c.AbortWithStatusJSON(appErr.StatusCode, models.ErrorResponse{Error: appErr.Message})
}
