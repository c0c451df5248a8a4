package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/taylorfit/backend/internal/domain"
)

// SizingUsecase is the part of usecase.SizingService the handlers call
type SizingUsecase interface {
	NormalizeChart(ctx context.Context, raw *domain.RawSizeChart) (*domain.NormalizedSizeChart, error)
	ImportChart(ctx context.Context, req *domain.ImportRequest) (*domain.NormalizedSizeChart, error)
	Recommend(ctx context.Context, req *domain.RecommendRequest) (*domain.RecommendResult, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	sizing SizingUsecase
	logger zerolog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(sizing SizingUsecase, logger zerolog.Logger) *Handler {
	return &Handler{
		sizing: sizing,
		logger: logger,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "taylor-backend",
		"version": "1.0.0",
	})
}

// NormalizeChart converts a scraped chart to centimeters and reports how its columns were classified
func (h *Handler) NormalizeChart(c *gin.Context) {
	var raw domain.RawSizeChart
	if err := c.ShouldBindJSON(&raw); err != nil {
		h.respondError(c, http.StatusBadRequest, "invalid chart body: "+err.Error())
		return
	}

	chart, err := h.sizing.NormalizeChart(c.Request.Context(), &raw)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, chart)
}

// ImportChart normalizes a chart uploaded as a multipart "file" (.xlsx, .xls or .csv)
func (h *Handler) ImportChart(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		h.respondError(c, http.StatusBadRequest, "missing file: "+err.Error())
		return
	}

	headerRow := 1
	if v := c.PostForm("header_row"); v != "" {
		headerRow, err = strconv.Atoi(v)
		if err != nil || headerRow < 1 {
			h.respondError(c, http.StatusBadRequest, "header_row must be a positive integer")
			return
		}
	}

	f, err := fh.Open()
	if err != nil {
		h.respondError(c, http.StatusBadRequest, "cannot open upload: "+err.Error())
		return
	}
	defer f.Close()

	chart, err := h.sizing.ImportChart(c.Request.Context(), &domain.ImportRequest{
		Filename:  fh.Filename,
		HeaderRow: headerRow,
		Title:     c.PostForm("title"),
		Body:      f,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, chart)
}

// Recommend picks a size for the shopper. Measurements come from the body or,
// when absent, from the measurements service using the caller's bearer token.
func (h *Handler) Recommend(c *gin.Context) {
	var req domain.RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.Token = bearerToken(c.GetHeader("Authorization"))

	result, err := h.sizing.Recommend(c.Request.Context(), &req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func bearerToken(header string) string {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

// statusClientClosedRequest is reported when the caller went away before the response
const statusClientClosedRequest = 499

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidChart),
		errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, domain.ErrUnsupportedFile),
		errors.Is(err, domain.ErrParse):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNoMeasurements):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrMeasurementsServiceFailure):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) handleError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == statusClientClosedRequest {
		h.logger.Debug().
			Err(err).
			Str("request_id", c.GetString(requestIDKey)).
			Str("path", c.Request.URL.Path).
			Msg("client closed request")
		h.respondError(c, status, err.Error())
		return
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error().
			Err(err).
			Str("request_id", c.GetString(requestIDKey)).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
		if status == http.StatusInternalServerError {
			h.respondError(c, status, "internal error")
			return
		}
	}
	h.respondError(c, status, err.Error())
}

func (h *Handler) respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"error":      message,
		"request_id": c.GetString(requestIDKey),
	})
}
