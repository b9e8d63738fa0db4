package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anishLS3/Placify-sub001/internal/contentgate"
	"github.com/anishLS3/Placify-sub001/internal/services"
)

// ExperienceHandler serves the public submission form and the published list.
type ExperienceHandler struct {
	submissions *services.SubmissionService
}

func NewExperienceHandler(submissions *services.SubmissionService) *ExperienceHandler {
	return &ExperienceHandler{submissions: submissions}
}

func (h *ExperienceHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/experiences", h.Submit)
	router.GET("/experiences", h.List)
}

func (h *ExperienceHandler) Submit(c *gin.Context) {
	var req contentgate.ExperienceSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	e, err := h.submissions.SubmitExperience(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":      e.ID,
		"status":  e.Status,
		"message": "Thanks! Your experience will be published after review.",
	})
}

func (h *ExperienceHandler) List(c *gin.Context) {
	page, size, err := pageParams(c)
	if err != nil {
		respondError(c, err)
		return
	}
	items, total, err := h.submissions.ListPublished(c.Request.Context(), c.Query("company"), c.Query("search"), page, size)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pageResponse(items, total, page, size))
}
