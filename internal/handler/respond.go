package handler

import (
	"log"
	"net/http"

	"athlos/internal/domain"

	"github.com/gin-gonic/gin"
)

// respondError maps ledger errors onto HTTP. Business rejections carry their
// reason code; infrastructure failures are logged and masked.
func respondError(c *gin.Context, err error) {
	code := domain.Reason(err)
	if code == "" {
		log.Printf("[handler] internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	status := http.StatusBadRequest
	switch code {
	case domain.ErrTokenNotFound.Code:
		status = http.StatusNotFound
	case domain.ErrCoachMismatch.Code:
		status = http.StatusForbidden
	case domain.ErrPayoutExists.Code:
		status = http.StatusConflict
	case domain.ErrLockTimeout.Code:
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error(), "reason": code})
}
