package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fuelcast/fuelcast-go/internal/models"
)

const defaultHistoryLimit = 20

// Forecaster serves forecasts and their audit trail.
type Forecaster interface {
	Forecast(ctx context.Context, req models.ForecastRequest) (*models.ForecastResult, error)
	History(ctx context.Context, limit int) ([]models.PredictionLogEntry, error)
}

// ForecastHandler exposes the forecast operations.
type ForecastHandler struct {
	forecaster Forecaster
	logger     *logrus.Logger
}

// NewForecastHandler creates a forecast handler.
func NewForecastHandler(forecaster Forecaster, logger *logrus.Logger) *ForecastHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &ForecastHandler{forecaster: forecaster, logger: logger}
}

type forecastRequest struct {
	HorizonDays int    `json:"horizon_days"`
	EndDate     string `json:"end_date"`
	Version     string `json:"model_version"`
}

// Forecast handles POST /api/v1/forecast.
func (h *ForecastHandler) Forecast(c *gin.Context) {
	var body forecastRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	req := models.ForecastRequest{
		HorizonDays: body.HorizonDays,
		Version:     body.Version,
	}
	if body.EndDate != "" {
		endDate, err := time.ParseInLocation(models.DateLayout, body.EndDate, time.UTC)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be formatted as " + models.DateLayout})
			return
		}
		req.EndDate = endDate
	}

	result, err := h.forecaster.Forecast(c.Request.Context(), req)
	if err != nil {
		h.logger.WithError(err).Warn("Forecast request failed")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// History handles GET /api/v1/forecast/history.
func (h *ForecastHandler) History(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	entries, err := h.forecaster.History(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries, "count": len(entries)})
}
