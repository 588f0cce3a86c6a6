package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"waterline/internal/patcher"
)

// 下载令牌有效期
const downloadTTL = 30 * time.Minute

// RunBilling 执行月度账单工作流，SSE 流式返回进度
// POST /api/billing (multipart: wegot, billing, [adda], month, bwssbReading, tankerReading)
func (h *Handler) RunBilling(c *gin.Context) {
	month := c.PostForm("month")
	if !patcher.ValidMonth(month) {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("非法月份标记: %q", month)})
		return
	}

	bwssb, err := strconv.ParseFloat(c.PostForm("bwssbReading"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bwssbReading 必须是数字"})
		return
	}
	tanker, err := strconv.ParseFloat(c.PostForm("tankerReading"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tankerReading 必须是数字"})
		return
	}

	wegotBytes, err := formFileBytes(c, "wegot")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	billingBytes, err := formFileBytes(c, "billing")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Adda 模板可以随请求上传，也可以走配置里的本地默认模板
	addaBytes, err := formFileBytes(c, "adda")
	if err != nil {
		if h.cfg.Excel.AddaTemplatePath == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 Adda 模板：请上传或在配置中指定路径"})
			return
		}
		addaBytes, err = os.ReadFile(h.cfg.Excel.AddaTemplatePath)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("读取默认 Adda 模板失败: %v", err)})
			return
		}
	}

	// 设置 SSE 响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "不支持流式响应"})
		return
	}

	send := func(event patcher.ProgressEvent) {
		eventData, err := json.Marshal(event)
		if err != nil {
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", eventData)
		flusher.Flush()
	}

	progressChan := h.coordinator.Run(patcher.WorkflowOptions{
		WegotBytes:    wegotBytes,
		BillingBytes:  billingBytes,
		AddaBytes:     addaBytes,
		Month:         month,
		BwssbReading:  bwssb,
		TankerReading: tanker,
	})

	for event := range progressChan {
		if event.Type == "done" {
			// 最终事件：登记产物下载令牌后再推给前端
			if res, ok := event.Data.(*patcher.WorkflowResult); ok {
				billingToken := h.store.PutDownload(
					fmt.Sprintf("billing_%s.xlsx", month), res.PatchedBilling, downloadTTL)
				addaToken := h.store.PutDownload(
					fmt.Sprintf("adda_upload_%s.xlsx", month), res.FilledAdda, downloadTTL)
				event.Data = gin.H{
					"report":       res.Report,
					"billingToken": billingToken,
					"addaToken":    addaToken,
				}
			}
		}
		send(event)
	}
}

func formFileBytes(c *gin.Context, field string) ([]byte, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("缺少上传文件 %s", field)
	}
	return readUpload(fh)
}
