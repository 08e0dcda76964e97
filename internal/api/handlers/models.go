package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fuelcast/fuelcast-go/internal/models"
)

// Catalog reads the model registry.
type Catalog interface {
	Get(ctx context.Context, version string) (*models.ModelVersion, error)
	Best(ctx context.Context, metric string) (*models.ModelVersion, error)
	List(ctx context.Context) ([]models.ModelVersion, error)
}

// ModelsHandler serves registry lookups.
type ModelsHandler struct {
	catalog Catalog
}

// NewModelsHandler creates a models handler.
func NewModelsHandler(catalog Catalog) *ModelsHandler {
	return &ModelsHandler{catalog: catalog}
}

// List handles GET /api/v1/models.
func (h *ModelsHandler) List(c *gin.Context) {
	versions, err := h.catalog.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"models": versions, "count": len(versions)})
}

// Get handles GET /api/v1/models/:version. The selector "latest" resolves
// to the newest entry and "best" to the minimum of the metric named in the
// metric query parameter (default rmse).
func (h *ModelsHandler) Get(c *gin.Context) {
	selector := c.Param("version")

	var version *models.ModelVersion
	var err error
	if selector == "best" {
		version, err = h.catalog.Best(c.Request.Context(), c.DefaultQuery("metric", "rmse"))
	} else {
		version, err = h.catalog.Get(c.Request.Context(), selector)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, version)
}
