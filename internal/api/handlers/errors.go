package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anishLS3/Placify-sub001/internal/api/middleware"
	"github.com/anishLS3/Placify-sub001/internal/services"
)

// respondError renders a service error. Store and internal failures are
// logged with their cause and answered with generic text.
func respondError(c *gin.Context, err error) {
	var (
		ve  *services.ValidationError
		ite *services.IllegalTransitionError
		ise *services.InvalidStateError
		gre *services.GateRejectedError
		se  *services.StoreError
	)
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message, "field": ve.Field})
	case errors.As(err, &ite):
		allowed := ite.Allowed
		if allowed == nil {
			allowed = []string{}
		}
		c.JSON(http.StatusConflict, gin.H{"error": ite.Error(), "from": ite.From, "allowed": allowed})
	case errors.As(err, &ise):
		c.JSON(http.StatusConflict, gin.H{"error": ise.Message, "status": ise.Status})
	case errors.Is(err, services.ErrConcurrentModification):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "retryable": true})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.As(err, &gre):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": gre.Reason})
	case errors.As(err, &se):
		middleware.GetRequestLogger(c).WithError(err).Warn("store unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service temporarily unavailable, please retry"})
	default:
		middleware.GetRequestLogger(c).WithError(err).Error("unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// bindError answers a malformed request body.
func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "detail": err.Error()})
}
