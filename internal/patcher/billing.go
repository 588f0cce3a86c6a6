package patcher

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"waterline/internal/exporter"
	"waterline/internal/model"
	"waterline/internal/parser"
)

// 账单模板中的固定 Sheet 名
const (
	RawDataSheet    = "WeGot report" // 原始抄表数据表（整表替换）
	InputSheet      = "Input"        // 参数输入表（标签定位写入）
	AllocationSheet = "Allocation"   // 月度读数表（按月份标签定位）
)

// Input/Allocation 表的标签列与写入偏移
const (
	labelLookupCol   = 1 // B 列放标签
	inputValueOffset = 1 // 值在标签右侧一列
	bwssbColOffset   = 1 // Allocation 表 Cauvery 读数列偏移
	tankerColOffset  = 2 // Allocation 表 Tanker 读数列偏移
)

// Months 接受的 12 个月份标记
var Months = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// ValidMonth 月份标记是否合法
func ValidMonth(month string) bool {
	for _, m := range Months {
		if m == month {
			return true
		}
	}
	return false
}

// WorkflowOptions 账单工作流输入
type WorkflowOptions struct {
	WegotBytes    []byte  // 抄表导出
	BillingBytes  []byte  // 账单模板
	AddaBytes     []byte  // Adda 上传模板
	Month         string  // 12 个固定月份标记之一
	BwssbReading  float64 // 市政供水读数
	TankerReading float64 // 水车读数
}

// WorkflowResult 账单工作流产物
type WorkflowResult struct {
	Report         model.WorkflowReport `json:"report"`
	PatchedBilling []byte               `json:"-"` // 打补丁后的账单模板
	FilledAdda     []byte               `json:"-"` // 填好的 Adda 模板
}

// ProgressEvent 进度事件（SSE 推送用）
type ProgressEvent struct {
	Type      string    `json:"type"` // start/step/warning/error/done
	Message   string    `json:"message"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Coordinator 账单工作流协调器
type Coordinator struct{}

// NewCoordinator 创建协调器
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// Run 执行工作流，返回进度通道；最后一个事件为 done（Data 为 *WorkflowResult）或 error
func (c *Coordinator) Run(opts WorkflowOptions) <-chan ProgressEvent {
	ch := make(chan ProgressEvent, 16)
	go func() {
		defer close(ch)
		c.run(opts, ch)
	}()
	return ch
}

func (c *Coordinator) run(opts WorkflowOptions, ch chan<- ProgressEvent) {
	start := time.Now()
	send := func(typ, msg string, data any) {
		ch <- ProgressEvent{Type: typ, Message: msg, Data: data, Timestamp: time.Now()}
	}
	fail := func(msg string, err error) {
		send("error", fmt.Sprintf("%s: %v", msg, err), nil)
	}

	if !ValidMonth(opts.Month) {
		send("error", fmt.Sprintf("非法月份标记: %q", opts.Month), nil)
		return
	}

	send("start", "开始账单工作流", map[string]any{"month": opts.Month})
	report := model.WorkflowReport{
		Month:         opts.Month,
		BwssbReading:  opts.BwssbReading,
		TankerReading: opts.TankerReading,
	}
	step := func(name string, fn func() error) bool {
		t := time.Now()
		err := fn()
		sr := model.StepResult{Name: name, Status: "ok", Duration: time.Since(t)}
		if err != nil {
			sr.Status = "error"
			sr.Message = err.Error()
		}
		report.Steps = append(report.Steps, sr)
		if err != nil {
			fail(name, err)
			return false
		}
		send("step", name, sr)
		return true
	}

	// 1. 抄表导出
	var wegotRows [][]string
	if !step("加载抄表数据", func() error {
		wf, err := excelize.OpenReader(bytes.NewReader(opts.WegotBytes))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
		defer wf.Close()
		wegotRows, err = parser.LoadWegotTable(wf)
		if err != nil {
			return err
		}
		report.WegotRows = len(wegotRows)
		return nil
	}) {
		return
	}

	// 2. 给账单模板打补丁
	var patched *Result
	if !step("更新账单模板", func() error {
		var err error
		patched, err = Patch(opts.BillingBytes,
			[]SheetReplacement{{Sheet: RawDataSheet, Rows: wegotRows}},
			BillingCellUpdates(opts.Month, opts.BwssbReading, opts.TankerReading))
		return err
	}) {
		return
	}
	report.LossyPatch = patched.Lossy
	report.Warnings = append(report.Warnings, patched.Warnings...)
	for _, w := range patched.Warnings {
		send("warning", w, nil)
	}

	// 3. 从补丁后的工作簿提取最终分摊
	var allocation []model.AllocationRow
	if !step("提取最终分摊", func() error {
		bf, err := excelize.OpenReader(bytes.NewReader(patched.Bytes))
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
		defer bf.Close()
		allocation, err = ExtractFinalAllocation(bf)
		if err != nil {
			return err
		}
		report.AllocationRows = len(allocation)
		return nil
	}) {
		return
	}

	// 4. 填充 Adda 模板
	var filledAdda []byte
	if !step("填充 Adda 模板", func() error {
		var err error
		var matched int
		filledAdda, matched, err = exporter.FillAddaTemplate(opts.AddaBytes, AmountsByApartment(allocation), time.Now())
		if err != nil {
			return err
		}
		report.MatchedRows = matched
		return nil
	}) {
		return
	}

	for _, r := range allocation {
		report.TotalBilled += r.ToBeBilled
	}
	if len(allocation) > 0 {
		report.AveragePerFlat = report.TotalBilled / float64(len(allocation))
	}
	report.Duration = time.Since(start)

	send("done", "账单工作流完成", &WorkflowResult{
		Report:         report,
		PatchedBilling: patched.Bytes,
		FilledAdda:     filledAdda,
	})
}

// BillingCellUpdates 参数写入指令：Input 表按标签定位月份与两项读数，
// Allocation 表按月份标签定位当月行（不再写死行号）
func BillingCellUpdates(month string, bwssb, tanker float64) []CellUpdate {
	return []CellUpdate{
		{Sheet: InputSheet, LookupCol: labelLookupCol, Labels: []string{"month"}, ColOffset: inputValueOffset, Value: month},
		{Sheet: InputSheet, LookupCol: labelLookupCol, Labels: []string{"cauvery", "bwssb", "bescom"}, Contains: true, ColOffset: inputValueOffset, Value: bwssb},
		{Sheet: InputSheet, LookupCol: labelLookupCol, Labels: []string{"tanker"}, Contains: true, ColOffset: inputValueOffset, Value: tanker},
		{Sheet: AllocationSheet, LookupCol: labelLookupCol, Labels: []string{month}, ColOffset: bwssbColOffset, Value: bwssb},
		{Sheet: AllocationSheet, LookupCol: labelLookupCol, Labels: []string{month}, ColOffset: tankerColOffset, Value: tanker},
	}
}
