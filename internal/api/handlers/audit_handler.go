package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/anishLS3/Placify-sub001/internal/api/middleware"
	"github.com/anishLS3/Placify-sub001/internal/models"
	"github.com/anishLS3/Placify-sub001/internal/repository"
	"github.com/anishLS3/Placify-sub001/internal/services"
)

// AuditHandler lets administrators read and prune the audit trail. Reads
// are themselves recorded as VIEW_AUDIT_LOGS.
type AuditHandler struct {
	audit            *services.AuditService
	defaultRetention time.Duration
}

func NewAuditHandler(audit *services.AuditService, defaultRetention time.Duration) *AuditHandler {
	return &AuditHandler{audit: audit, defaultRetention: defaultRetention}
}

func (h *AuditHandler) RegisterRoutes(admin *gin.RouterGroup) {
	admin.GET("/audit-logs", h.List)
	admin.GET("/audit-logs/stats", h.Stats)
	admin.GET("/audit-logs/timeline", h.Timeline)
	admin.DELETE("/audit-logs", h.Purge)
}

func (h *AuditHandler) filter(c *gin.Context) (repository.AuditFilter, error) {
	from, err := timeQuery(c, "from")
	if err != nil {
		return repository.AuditFilter{}, err
	}
	to, err := timeQuery(c, "to")
	if err != nil {
		return repository.AuditFilter{}, err
	}
	return repository.AuditFilter{
		ActorID:      c.Query("actor_id"),
		Action:       c.Query("action"),
		ResourceType: c.Query("resource_type"),
		ResourceID:   c.Query("resource_id"),
		From:         from,
		To:           to,
		FailuresOnly: c.Query("failures_only") == "true",
	}, nil
}

// viewed records the read and renders its outcome.
func (h *AuditHandler) viewed(c *gin.Context, view string, err error) {
	action := models.ActionViewAuditLogs
	details := map[string]interface{}{"view": view}
	if err != nil {
		action = action.Failed()
		details["error"] = services.ErrorClass(err)
	}
	h.audit.Record(c.Request.Context(), middleware.Actor(c), action, models.ResourceAuditLog, "", details)
	if err != nil {
		respondError(c, err)
	}
}

func (h *AuditHandler) List(c *gin.Context) {
	filter, err := h.filter(c)
	if err != nil {
		h.viewed(c, "list", err)
		return
	}
	page, size, err := pageParams(c)
	if err != nil {
		h.viewed(c, "list", err)
		return
	}
	items, total, err := h.audit.Query(c.Request.Context(), filter, page, size, c.Query("sort_by"), c.Query("sort_order"))
	h.viewed(c, "list", err)
	if err != nil {
		return
	}
	c.JSON(http.StatusOK, pageResponse(items, total, page, size))
}

func (h *AuditHandler) Stats(c *gin.Context) {
	filter, err := h.filter(c)
	if err != nil {
		h.viewed(c, "stats", err)
		return
	}
	counts, err := h.audit.CountByAction(c.Request.Context(), filter)
	h.viewed(c, "stats", err)
	if err != nil {
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (h *AuditHandler) Timeline(c *gin.Context) {
	start, err := timeQuery(c, "start")
	if err == nil && start == nil {
		err = &services.ValidationError{Field: "start", Message: "is required"}
	}
	if err != nil {
		h.viewed(c, "timeline", err)
		return
	}
	end, err := timeQuery(c, "end")
	if err != nil {
		h.viewed(c, "timeline", err)
		return
	}
	if end == nil {
		now := time.Now().UTC()
		end = &now
	}
	granularity := services.Granularity(c.DefaultQuery("granularity", string(services.GranularityDay)))

	buckets, err := h.audit.CountInTimeBuckets(c.Request.Context(), *start, *end, granularity)
	h.viewed(c, "timeline", err)
	if err != nil {
		return
	}
	c.JSON(http.StatusOK, gin.H{"granularity": granularity, "buckets": buckets})
}

// Purge deletes entries older than older_than (a Go duration or a number of
// days suffixed with d), defaulting to the configured retention.
func (h *AuditHandler) Purge(c *gin.Context) {
	age := h.defaultRetention
	if raw := c.Query("older_than"); raw != "" {
		parsed, err := parseRetention(raw)
		if err != nil {
			respondError(c, err)
			return
		}
		age = parsed
	}
	n, err := h.audit.PurgeOlderThan(c.Request.Context(), age, middleware.Actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}

func parseRetention(raw string) (time.Duration, error) {
	if n := len(raw); n > 1 && raw[n-1] == 'd' {
		days, err := time.ParseDuration(raw[:n-1] + "h")
		if err == nil {
			return days * 24, nil
		}
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, &services.ValidationError{Field: "older_than", Message: "must be a duration such as 720h or 30d"}
	}
	return d, nil
}
