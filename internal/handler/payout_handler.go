package handler

import (
	"net/http"

	"athlos/internal/middleware"
	"athlos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PayoutHandler struct {
	payoutSvc *service.PayoutService
}

func NewPayoutHandler(payoutSvc *service.PayoutService) *PayoutHandler {
	return &PayoutHandler{payoutSvc: payoutSvc}
}

// Create runs the payout engine against a trust token. Coach only; the
// engine, not the handler, decides whether this coach may claim it.
func (h *PayoutHandler) Create(c *gin.Context) {
	var req struct {
		TokenID string `json:"token_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tokenID, err := uuid.Parse(req.TokenID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid token_id"})
		return
	}
	p, err := h.payoutSvc.CreatePayout(tokenID, middleware.GetUserID(c), c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// ListMine returns the authenticated coach's payouts, newest first.
func (h *PayoutHandler) ListMine(c *gin.Context) {
	list, err := h.payoutSvc.ListForCoach(middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payouts": list})
}

// GetByToken looks up the payout consuming a given token.
func (h *PayoutHandler) GetByToken(c *gin.Context) {
	tokenID, err := uuid.Parse(c.Param("token_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid token id"})
		return
	}
	p, err := h.payoutSvc.GetByToken(tokenID)
	if err != nil {
		respondError(c, err)
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no payout for this token"})
		return
	}
	c.JSON(http.StatusOK, p)
}
