package handler

import (
	"net/http"
	"strconv"

	"athlos/internal/middleware"
	"athlos/internal/models"
	"athlos/internal/repository"
	"athlos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AdminHandler exposes the operator/compliance surface: commission config
// management, administrative revocation, ledger inspection and
// disintermediation alerts.
type AdminHandler struct {
	configs  *repository.CommissionConfigRepository
	alerts   *repository.AlertRepository
	audit    *repository.AuditLogRepository
	auditSvc *service.AuditService
	tokenSvc *service.TokenService
}

func NewAdminHandler(
	configs *repository.CommissionConfigRepository,
	alerts *repository.AlertRepository,
	audit *repository.AuditLogRepository,
	auditSvc *service.AuditService,
	tokenSvc *service.TokenService,
) *AdminHandler {
	return &AdminHandler{
		configs:  configs,
		alerts:   alerts,
		audit:    audit,
		auditSvc: auditSvc,
		tokenSvc: tokenSvc,
	}
}

func (h *AdminHandler) CreateCommissionConfig(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		RateBps  int64  `json:"rate_bps" binding:"required,min=1,max=10000"`
		Activate bool   `json:"activate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cfg := &models.CommissionConfig{Name: req.Name, RateBps: req.RateBps}
	if err := h.configs.Create(cfg); err != nil {
		respondError(c, err)
		return
	}
	if req.Activate {
		if err := h.configs.Activate(cfg.ID); err != nil {
			respondError(c, err)
			return
		}
		cfg.IsActive = true
	}
	c.JSON(http.StatusCreated, cfg)
}

func (h *AdminHandler) ActivateCommissionConfig(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid config id"})
		return
	}
	if err := h.configs.Activate(uint(id)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activated": id})
}

func (h *AdminHandler) ListCommissionConfigs(c *gin.Context) {
	list, err := h.configs.List()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"configs": list})
}

// RevokeToken administratively retires an ACTIVE token.
func (h *AdminHandler) RevokeToken(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid token id"})
		return
	}
	res, err := h.tokenSvc.Revoke(id, middleware.GetUserID(c))
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

func (h *AdminHandler) ListAuditLog(c *gin.Context) {
	limit := 100
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			limit = n
		}
	}
	list, err := h.audit.ListRecent(limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": list})
}

// VerifyAuditChain walks the whole ledger and reports the first broken entry,
// if any. Compliance tooling calls this.
func (h *AdminHandler) VerifyAuditChain(c *gin.Context) {
	res, err := h.auditSvc.VerifyChainIntegrity()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AdminHandler) ListAlerts(c *gin.Context) {
	list, err := h.alerts.ListUnresolved(200)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": list})
}

func (h *AdminHandler) ResolveAlert(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert id"})
		return
	}
	if err := h.alerts.Resolve(uint(id)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"resolved": id})
}
