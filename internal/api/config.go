package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"waterline/internal/config"
)

// updateConfigRequest 可在线调整的配置项（指针字段区分"未提供"）
type updateConfigRequest struct {
	AmountThreshold  *float64 `json:"amountThreshold"`
	PercentThreshold *float64 `json:"percentThreshold"`
	BlockSummary     *bool    `json:"blockSummary"`
}

// GetConfig 获取业务配置
// GET /api/config
func (h *Handler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"amountThreshold":  h.cfg.Business.AmountThreshold,
		"percentThreshold": h.cfg.Business.PercentThreshold,
		"blockSummary":     h.cfg.Business.BlockSummary,
	})
}

// UpdateConfig 更新业务配置（阈值等），写回 config.toml
// PATCH /api/config
func (h *Handler) UpdateConfig(c *gin.Context) {
	var req updateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误"})
		return
	}

	if req.AmountThreshold != nil {
		if *req.AmountThreshold < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "金额阈值不能为负"})
			return
		}
		h.cfg.Business.AmountThreshold = *req.AmountThreshold
	}
	if req.PercentThreshold != nil {
		if *req.PercentThreshold < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "百分比阈值不能为负"})
			return
		}
		h.cfg.Business.PercentThreshold = *req.PercentThreshold
	}
	if req.BlockSummary != nil {
		h.cfg.Business.BlockSummary = *req.BlockSummary
	}

	// 持久化失败只记日志，内存配置已生效
	if err := config.SaveConfig(h.cfg); err != nil {
		log.Printf("保存配置失败: %v", err)
	}

	h.GetConfig(c)
}
