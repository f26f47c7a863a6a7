package transport

import (
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"leafscan/internal/config"
	apperrors "leafscan/internal/errors"
	"leafscan/internal/logger"
	"leafscan/internal/service"
)

// SessionHeader carries the session id for a newly created analysis; the
// response body stays a bare diagnosis record.
const SessionHeader = "X-Session-Id"

// AnalyzeURLRequest is the JSON form of POST /analyze
type AnalyzeURLRequest struct {
	URL      string `json:"url" binding:"required,url"`
	Language string `json:"language,omitempty"`
}

// ReanalyzeRequest switches the report language of an existing session
type ReanalyzeRequest struct {
	Language string `json:"language" binding:"required"`
}

// ErrorResponse is the uniform failure body
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewHandler builds the HTTP surface
func NewHandler(svc service.DiagnosisService, cfg *config.Config) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(
		corsMiddleware(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
	)

	r.GET("/health", healthCheck)
	r.GET("/languages", listLanguages(svc))
	r.POST("/analyze", analyze(svc, cfg))
	r.POST("/sessions/:id/reanalyze", reanalyze(svc, cfg))
	r.POST("/sessions/:id/export", exportReport(svc))

	return r
}

func analyze(svc service.DiagnosisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"ip":     c.ClientIP(),
		}).Info("Processing analysis request")

		var (
			sessionID string
			record    any
			err       error
		)

		if file, fileErr := c.FormFile("image"); fileErr == nil {
			lang := c.PostForm("language")
			image, readErr := readUpload(file)
			if readErr != nil {
				respondError(c, apperrors.NewValidationError("failed to read uploaded image", readErr))
				return
			}
			sessionID, record, err = svc.AnalyzeUpload(ctx, image, lang)
		} else {
			var req AnalyzeURLRequest
			if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
				respondError(c, apperrors.NewValidationError("request must carry an image upload or a url", bindErr))
				return
			}
			if urlErr := validateImageURL(req.URL); urlErr != nil {
				respondError(c, urlErr)
				return
			}
			sessionID, record, err = svc.AnalyzeURL(ctx, req.URL, req.Language)
		}

		if err != nil {
			respondError(c, err)
			return
		}

		logger.WithFields(logrus.Fields{
			"session_id":         sessionID,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Analysis completed")

		c.Header(SessionHeader, sessionID)
		c.JSON(http.StatusOK, record)
	}
}

func reanalyze(svc service.DiagnosisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req ReanalyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, apperrors.NewValidationError("language is required", err))
			return
		}

		record, err := svc.Reanalyze(ctx, c.Param("id"), req.Language)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, record)
	}
}

func exportReport(svc service.DiagnosisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := c.FormFile("snapshot")
		if err != nil {
			respondError(c, apperrors.NewValidationError("snapshot upload is required", err))
			return
		}
		snapshot, err := readUpload(file)
		if err != nil {
			respondError(c, apperrors.NewValidationError("failed to read snapshot", err))
			return
		}

		pdf, err := svc.Export(c.Request.Context(), c.Param("id"), snapshot)
		if err != nil {
			respondError(c, err)
			return
		}

		c.Header("Content-Disposition", `attachment; filename="plant-report.pdf"`)
		c.Data(http.StatusOK, "application/pdf", pdf)
	}
}

func listLanguages(svc service.DiagnosisService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, svc.Languages())
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func validateImageURL(imageURL string) error {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return apperrors.NewValidationError("invalid URL format", err)
	}
	if parsedURL.Host == "" {
		return apperrors.NewValidationError("URL must have a valid host", nil)
	}
	return nil
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// corsMiddleware permits all origins; the report UI is served from a
// different origin, so the browser preflights every analysis call. The
// preflight answer is an empty 200.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Header("Access-Control-Expose-Headers", SessionHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func respondError(c *gin.Context, err error) {
	code := apperrors.GetStatusCode(err)

	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, ErrorResponse{Error: err.Error()})
}
