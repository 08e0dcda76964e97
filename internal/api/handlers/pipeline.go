package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fuelcast/fuelcast-go/internal/models"
	"github.com/fuelcast/fuelcast-go/internal/training"
)

// Pipeline runs feature preparation and training jobs.
type Pipeline interface {
	Prepare(ctx context.Context, source models.DataSource) (*training.PrepareResult, error)
	Train(ctx context.Context, source models.DataSource) (*models.ModelVersion, error)
}

// PipelineHandler exposes the preparation and training operations.
type PipelineHandler struct {
	pipeline Pipeline
	logger   *logrus.Logger
}

// NewPipelineHandler creates a pipeline handler.
func NewPipelineHandler(pipeline Pipeline, logger *logrus.Logger) *PipelineHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &PipelineHandler{pipeline: pipeline, logger: logger}
}

type sourceRequest struct {
	Source string `json:"source"`
}

// Prepare handles POST /api/v1/features/prepare.
func (h *PipelineHandler) Prepare(c *gin.Context) {
	source, ok := h.bindSource(c)
	if !ok {
		return
	}

	result, err := h.pipeline.Prepare(c.Request.Context(), source)
	if err != nil {
		h.logger.WithError(err).Warn("Feature preparation failed")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Train handles POST /api/v1/models/train.
func (h *PipelineHandler) Train(c *gin.Context) {
	source, ok := h.bindSource(c)
	if !ok {
		return
	}

	version, err := h.pipeline.Train(c.Request.Context(), source)
	if err != nil {
		h.logger.WithError(err).Warn("Training run failed")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, version)
}

// bindSource parses the optional source selector from the request body. An
// empty body means the combined source.
func (h *PipelineHandler) bindSource(c *gin.Context) (models.DataSource, bool) {
	var req sourceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return "", false
		}
	}
	source, err := models.ParseDataSource(req.Source)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return source, true
}
