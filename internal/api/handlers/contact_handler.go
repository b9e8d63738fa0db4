package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/anishLS3/Placify-sub001/internal/api/middleware"
	"github.com/anishLS3/Placify-sub001/internal/contentgate"
	"github.com/anishLS3/Placify-sub001/internal/models"
	"github.com/anishLS3/Placify-sub001/internal/repository"
	"github.com/anishLS3/Placify-sub001/internal/services"
	"github.com/anishLS3/Placify-sub001/internal/workflow"
)

// ContactHandler accepts public contact messages and lets administrators
// triage them.
type ContactHandler struct {
	submissions *services.SubmissionService
	contacts    *services.ContactService
}

func NewContactHandler(submissions *services.SubmissionService, contacts *services.ContactService) *ContactHandler {
	return &ContactHandler{submissions: submissions, contacts: contacts}
}

func (h *ContactHandler) RegisterRoutes(public, admin *gin.RouterGroup) {
	public.POST("/contacts", h.Submit)

	admin.GET("/contacts", h.List)
	admin.GET("/contacts/stats", h.Stats)
	admin.POST("/contacts/batch", h.Batch)
	admin.GET("/contacts/:id", h.Get)
	admin.PATCH("/contacts/:id/status", h.UpdateStatus)
}

type ContactStatusRequest struct {
	Status   string  `json:"status" binding:"required"`
	Notes    string  `json:"notes"`
	Priority *string `json:"priority"`
}

type ContactBatchRequest struct {
	IDs      []string `json:"ids" binding:"required"`
	Status   string   `json:"status" binding:"required"`
	Notes    string   `json:"notes"`
	Priority *string  `json:"priority"`
}

func contactOptions(notes string, priority *string) workflow.ContactOptions {
	opts := workflow.ContactOptions{Notes: notes}
	if priority != nil {
		p := models.ContactPriority(*priority)
		opts.Priority = &p
	}
	return opts
}

func (h *ContactHandler) Submit(c *gin.Context) {
	var req contentgate.ContactSubmission
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	contact, err := h.submissions.SubmitContact(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": contact.ID, "message": "Thanks for reaching out. We will get back to you soon."})
}

func (h *ContactHandler) List(c *gin.Context) {
	page, size, err := pageParams(c)
	if err != nil {
		respondError(c, err)
		return
	}
	filter := repository.ContactFilter{
		Status:   models.ContactStatus(c.Query("status")),
		Category: models.ContactCategory(c.Query("category")),
		Priority: models.ContactPriority(c.Query("priority")),
	}
	items, total, err := h.contacts.List(c.Request.Context(), filter, page, size, middleware.Actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pageResponse(items, total, page, size))
}

func (h *ContactHandler) Stats(c *gin.Context) {
	counts, err := h.contacts.Stats(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (h *ContactHandler) Get(c *gin.Context) {
	contact, err := h.contacts.Get(c.Request.Context(), c.Param("id"), middleware.Actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

func (h *ContactHandler) UpdateStatus(c *gin.Context) {
	var req ContactStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	contact, err := h.contacts.UpdateStatus(c.Request.Context(), c.Param("id"), models.ContactStatus(req.Status), middleware.Actor(c), contactOptions(req.Notes, req.Priority))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}

func (h *ContactHandler) Batch(c *gin.Context) {
	var req ContactBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.contacts.UpdateStatusBatch(c.Request.Context(), req.IDs, models.ContactStatus(req.Status), middleware.Actor(c), contactOptions(req.Notes, req.Priority))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
