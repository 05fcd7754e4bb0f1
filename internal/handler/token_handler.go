package handler

import (
	"net/http"
	"time"

	"athlos/internal/domain"
	"athlos/internal/middleware"
	"athlos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TokenHandler struct {
	tokenSvc *service.TokenService
}

func NewTokenHandler(tokenSvc *service.TokenService) *TokenHandler {
	return &TokenHandler{tokenSvc: tokenSvc}
}

// Create issues a trust token for a program purchase. Athlete only; the
// athlete identity comes from the JWT, never the request body.
func (h *TokenHandler) Create(c *gin.Context) {
	var req struct {
		CoachID        uint   `json:"coach_id" binding:"required"`
		ProgramID      uint   `json:"program_id" binding:"required"`
		GrossAmount    int64  `json:"gross_amount" binding:"required"`
		IdempotencyKey string `json:"idempotency_key" binding:"required"`
		TTLMinutes     int    `json:"ttl_minutes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := h.tokenSvc.Create(service.CreateTokenInput{
		CoachID:        req.CoachID,
		AthleteID:      middleware.GetUserID(c),
		ProgramID:      req.ProgramID,
		GrossAmount:    req.GrossAmount,
		IdempotencyKey: req.IdempotencyKey,
		CreatedByIP:    c.ClientIP(),
		TTL:            time.Duration(req.TTLMinutes) * time.Minute,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// Preview returns the token's frozen split without validating it.
func (h *TokenHandler) Preview(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid token id"})
		return
	}
	t, err := h.tokenSvc.Preview(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// Validate checks a token without consuming it. Coaches get the ownership
// check for free; other roles validate without it.
func (h *TokenHandler) Validate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid token id"})
		return
	}
	var expectedCoach *uint
	if middleware.GetRole(c) == domain.RoleCoach {
		uid := middleware.GetUserID(c)
		expectedCoach = &uid
	}
	res, err := h.tokenSvc.ValidateByID(id, expectedCoach)
	if err != nil {
		respondError(c, err)
		return
	}
	if !res.Valid {
		c.JSON(http.StatusOK, res)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":               true,
		"token_id":            res.Token.ID,
		"gross_amount":        res.Token.GrossAmount,
		"commission_amount":   res.Token.CommissionAmount,
		"net_amount":          res.Token.NetAmount,
		"commission_rate_bps": res.Token.CommissionRateBps,
		"status":              res.Token.Status,
		"expires_at":          res.Token.ExpiresAt,
	})
}

// Use consumes the token. Coach only.
func (h *TokenHandler) Use(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid token id"})
		return
	}
	coachID := middleware.GetUserID(c)
	res, err := h.tokenSvc.Use(id, &coachID, c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}
	if !res.Success {
		c.JSON(http.StatusConflict, res)
		return
	}
	c.JSON(http.StatusOK, res)
}
