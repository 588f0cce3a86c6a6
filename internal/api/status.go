package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetStatus 系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"analysisCount": h.store.AnalysisCount(),
		"devMode":       h.cfg.Server.DevMode,
	})
}
