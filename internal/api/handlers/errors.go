package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fuelcast/fuelcast-go/internal/apperrors"
)

// respondError maps domain errors onto HTTP statuses. Anything unrecognized
// is a plain 500.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case apperrors.IsInvalidRange(err):
		status = http.StatusBadRequest
	case apperrors.IsNotFound(err):
		status = http.StatusNotFound
	case apperrors.IsDataInsufficient(err):
		status = http.StatusUnprocessableEntity
	case apperrors.IsUpstreamFit(err):
		status = http.StatusBadGateway
	case apperrors.IsModelLoad(err):
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
