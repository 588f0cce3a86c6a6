package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"waterline/internal/analyzer"
	"waterline/internal/exporter"
	"waterline/internal/model"
	"waterline/internal/parser"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AnalyzeResponse 分析响应（摘要；完整记录走 GET /analysis/:id）
type AnalyzeResponse struct {
	ID             string         `json:"id"`
	PriorSheet     string         `json:"priorSheet"`
	CurrentSheet   string         `json:"currentSheet"`
	Metrics        model.Metrics  `json:"metrics"`
	CategoryCounts map[string]int `json:"categoryCounts"`
}

// Analyze 上传两期工作簿并执行对比分析
// POST /api/analysis (multipart: lastMonth, thisMonth)
func (h *Handler) Analyze(c *gin.Context) {
	prior, err := h.snapshotFromForm(c, "lastMonth")
	if err != nil {
		respondExtractError(c, "lastMonth", err)
		return
	}
	current, err := h.snapshotFromForm(c, "thisMonth")
	if err != nil {
		respondExtractError(c, "thisMonth", err)
		return
	}

	records := analyzer.Diff(prior, current)
	categories := analyzer.Categorize(records, analyzer.Thresholds{
		AmountDelta:  h.cfg.Business.AmountThreshold,
		PercentDelta: h.cfg.Business.PercentThreshold,
	})

	res := &model.AnalysisResult{
		PriorSheet:   prior.Sheet,
		CurrentSheet: current.Sheet,
		Records:      records,
		Categories:   categories,
		Metrics:      analyzer.ComputeMetrics(records),
		Blocks:       analyzer.BlockSummaries(records),
	}
	id := h.store.SaveAnalysis(res)

	counts := make(map[string]int, len(categories))
	for name, recs := range categories {
		counts[name] = len(recs)
	}

	c.JSON(http.StatusOK, AnalyzeResponse{
		ID:             id,
		PriorSheet:     res.PriorSheet,
		CurrentSheet:   res.CurrentSheet,
		Metrics:        res.Metrics,
		CategoryCounts: counts,
	})
}

// GetAnalysis 获取完整分析结果
// GET /api/analysis/:id
func (h *Handler) GetAnalysis(c *gin.Context) {
	res, err := h.store.GetAnalysis(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "分析不存在"})
		return
	}
	c.JSON(http.StatusOK, res)
}

// DownloadReport 下载分析报告工作簿
// GET /api/analysis/:id/report
func (h *Handler) DownloadReport(c *gin.Context) {
	res, err := h.store.GetAnalysis(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "分析不存在"})
		return
	}

	f, err := exporter.BuildReport(res, h.cfg.Business.BlockSummary)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("生成报告失败: %v", err)})
		return
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("序列化报告失败: %v", err)})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="flat_analysis_report.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// snapshotFromForm 从上传文件构建快照表
func (h *Handler) snapshotFromForm(c *gin.Context, field string) (*model.Snapshot, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("缺少上传文件 %s", field)
	}

	data, err := readUpload(fileHeader)
	if err != nil {
		return nil, err
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("不是合法的工作簿: %w", err)
	}
	defer f.Close()

	return h.builder.Build(f)
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("打开上传文件失败: %w", err)
	}
	defer src.Close()
	return io.ReadAll(src)
}

func respondExtractError(c *gin.Context, field string, err error) {
	if errors.Is(err, parser.ErrNoTable) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": fmt.Sprintf("%s 中未找到户级数据表", field)})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
