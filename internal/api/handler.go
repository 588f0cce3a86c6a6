package api

import (
	"github.com/gin-gonic/gin"

	"waterline/internal/config"
	"waterline/internal/parser"
	"waterline/internal/patcher"
	"waterline/internal/store"
)

// Handler API 处理器
type Handler struct {
	cfg         *config.AppConfig
	store       *store.Store
	builder     *parser.SnapshotBuilder
	coordinator *patcher.Coordinator
}

// NewHandler 创建 API 处理器
func NewHandler(cfg *config.AppConfig, st *store.Store) *Handler {
	return &Handler{
		cfg:         cfg,
		store:       st,
		builder:     parser.NewSnapshotBuilder(),
		coordinator: patcher.NewCoordinator(),
	}
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 配置管理
	router.GET("/config", h.GetConfig)
	router.PATCH("/config", h.UpdateConfig)

	// 两期对比分析
	router.POST("/analysis", h.Analyze)
	router.GET("/analysis/:id", h.GetAnalysis)
	router.GET("/analysis/:id/report", h.DownloadReport)

	// 账单工作流 (SSE 流式响应)
	router.POST("/billing", h.RunBilling)

	// 产物下载
	router.GET("/downloads/:token", h.Download)
}
