package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Download 按令牌下载工作流产物（令牌一次性，取走即失效）
// GET /api/downloads/:token
func (h *Handler) Download(c *gin.Context) {
	name, data, err := h.store.GetDownload(c.Param("token"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "下载不存在或已过期"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, xlsxContentType, data)
}
