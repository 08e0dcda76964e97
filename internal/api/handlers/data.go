package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/fuelcast/fuelcast-go/internal/models"
	"github.com/fuelcast/fuelcast-go/internal/services"
)

// DataWriter upserts raw observations.
type DataWriter interface {
	UpsertPrices(ctx context.Context, points []models.RawPricePoint) (int, error)
	UpsertCovariates(ctx context.Context, points []models.RawCovariatePoint) (int, error)
}

// TrendSummarizer computes the observed-series summary.
type TrendSummarizer interface {
	Summary(ctx context.Context) (*services.TrendSummary, error)
}

// DataHandler exposes raw data upload and the trend summary.
type DataHandler struct {
	writer DataWriter
	trend  TrendSummarizer
	logger *logrus.Logger
}

// NewDataHandler creates a data handler.
func NewDataHandler(writer DataWriter, trend TrendSummarizer, logger *logrus.Logger) *DataHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &DataHandler{writer: writer, trend: trend, logger: logger}
}

type uploadPoint struct {
	Date          string   `json:"date"`
	PetrolPrice   *float64 `json:"petrol_price"`
	CrudeOilPrice *float64 `json:"crude_oil_price"`
	INRUSD        *float64 `json:"inr_usd"`
}

type uploadRequest struct {
	Source string        `json:"source"`
	Points []uploadPoint `json:"points"`
}

// Upload handles POST /api/v1/data/upload. Each point may carry a petrol
// price, covariate values, or both; writes are upserts keyed by date.
func (h *DataHandler) Upload(c *gin.Context) {
	var req uploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if len(req.Points) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "points must not be empty"})
		return
	}

	source := models.SourceUpload
	if req.Source != "" {
		parsed, err := models.ParseDataSource(req.Source)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		source = parsed
	}

	var prices []models.RawPricePoint
	var covariates []models.RawCovariatePoint
	for _, point := range req.Points {
		date, err := time.ParseInLocation(models.DateLayout, point.Date, time.UTC)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "dates must be formatted as " + models.DateLayout})
			return
		}
		if point.PetrolPrice == nil && point.CrudeOilPrice == nil && point.INRUSD == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "point " + point.Date + " carries no values"})
			return
		}

		if point.PetrolPrice != nil {
			prices = append(prices, models.RawPricePoint{
				Date:   date,
				Price:  decimal.NewFromFloat(*point.PetrolPrice),
				Source: source,
			})
		}
		if point.CrudeOilPrice != nil || point.INRUSD != nil {
			cov := models.RawCovariatePoint{Date: date, Source: source}
			if point.CrudeOilPrice != nil {
				v := decimal.NewFromFloat(*point.CrudeOilPrice)
				cov.CrudeOilPrice = &v
			}
			if point.INRUSD != nil {
				v := decimal.NewFromFloat(*point.INRUSD)
				cov.INRUSD = &v
			}
			covariates = append(covariates, cov)
		}
	}

	ctx := c.Request.Context()
	pricesWritten, err := h.writer.UpsertPrices(ctx, prices)
	if err != nil {
		h.logger.WithError(err).Error("Failed to upsert uploaded prices")
		respondError(c, err)
		return
	}
	covariatesWritten, err := h.writer.UpsertCovariates(ctx, covariates)
	if err != nil {
		h.logger.WithError(err).Error("Failed to upsert uploaded covariates")
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"prices_written":     pricesWritten,
		"covariates_written": covariatesWritten,
		"source":             source,
	})
}

// Summary handles GET /api/v1/data/summary.
func (h *DataHandler) Summary(c *gin.Context) {
	summary, err := h.trend.Summary(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
