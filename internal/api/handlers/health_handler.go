package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/anishLS3/Placify-sub001/internal/cache"
	"github.com/anishLS3/Placify-sub001/internal/version"
)

// HealthHandler reports service metadata and dependency status for uptime checks.
type HealthHandler struct {
	db    *gorm.DB
	stats cache.StatsCache
}

func NewHealthHandler(db *gorm.DB, stats cache.StatsCache) *HealthHandler {
	if stats == nil {
		stats = cache.Noop{}
	}
	return &HealthHandler{db: db, stats: stats}
}

func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	database := "ok"
	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		database = "unavailable"
		status, code = "degraded", http.StatusServiceUnavailable
	}
	// The cache is optional; failures degrade dashboards only.
	cacheStatus := "ok"
	if err := h.stats.Health(ctx); err != nil {
		cacheStatus = "unavailable"
	}

	c.JSON(code, gin.H{
		"status":     status,
		"service":    version.Name,
		"version":    version.Version,
		"git_commit": version.GitCommit,
		"build_time": version.BuildTime,
		"database":   database,
		"cache":      cacheStatus,
	})
}
