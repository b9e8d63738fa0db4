package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anishLS3/Placify-sub001/internal/api/middleware"
	"github.com/anishLS3/Placify-sub001/internal/models"
	"github.com/anishLS3/Placify-sub001/internal/repository"
	"github.com/anishLS3/Placify-sub001/internal/services"
	"github.com/anishLS3/Placify-sub001/internal/workflow"
)

// ModerationHandler exposes the experience review queue to administrators.
type ModerationHandler struct {
	service *services.ModerationService
}

func NewModerationHandler(service *services.ModerationService) *ModerationHandler {
	return &ModerationHandler{service: service}
}

func (h *ModerationHandler) RegisterRoutes(admin *gin.RouterGroup) {
	admin.GET("/experiences", h.List)
	admin.GET("/experiences/stats", h.Stats)
	admin.POST("/experiences/batch", h.Batch)
	admin.GET("/experiences/:id", h.Get)
	admin.POST("/experiences/:id/moderate", h.Moderate)
	admin.POST("/experiences/:id/verification-badge", h.ToggleBadge)
}

type ModerateRequest struct {
	Status               string `json:"status" binding:"required"`
	Notes                string `json:"notes"`
	AddVerificationBadge bool   `json:"add_verification_badge"`
}

type BatchModerateRequest struct {
	IDs    []string `json:"ids" binding:"required"`
	Status string   `json:"status" binding:"required"`
	Notes  string   `json:"notes"`
}

func (h *ModerationHandler) List(c *gin.Context) {
	page, size, err := pageParams(c)
	if err != nil {
		respondError(c, err)
		return
	}
	filter := repository.ExperienceFilter{
		Status:  models.ExperienceStatus(c.Query("status")),
		Company: c.Query("company"),
		Search:  c.Query("search"),
	}
	items, total, err := h.service.ListQueue(c.Request.Context(), filter, page, size, middleware.Actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pageResponse(items, total, page, size))
}

func (h *ModerationHandler) Stats(c *gin.Context) {
	counts, err := h.service.Stats(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (h *ModerationHandler) Get(c *gin.Context) {
	e, err := h.service.Get(c.Request.Context(), c.Param("id"), middleware.Actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *ModerationHandler) Moderate(c *gin.Context) {
	var req ModerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	e, err := h.service.Moderate(c.Request.Context(), c.Param("id"), models.ExperienceStatus(req.Status), middleware.Actor(c), workflow.ExperienceOptions{
		Notes:                req.Notes,
		AddVerificationBadge: req.AddVerificationBadge,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *ModerationHandler) Batch(c *gin.Context) {
	var req BatchModerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.service.ModerateBatch(c.Request.Context(), req.IDs, models.ExperienceStatus(req.Status), middleware.Actor(c), workflow.ExperienceOptions{Notes: req.Notes})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ModerationHandler) ToggleBadge(c *gin.Context) {
	e, err := h.service.ToggleVerificationBadge(c.Request.Context(), c.Param("id"), middleware.Actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}
