package model

import "time"

// AllocationRow 账单模板 "Final allocation monthly" 中的一行分摊数据
// 列位置固定（序号列为锚点），见 patcher.ExtractFinalAllocation
type AllocationRow struct {
	Serial       int     `json:"serial"`
	Block        string  `json:"block"`
	Apartment    string  `json:"apartment"` // 已是 A101 形式的完整户标识
	OwnerName    string  `json:"ownerName"`
	MeterReading float64 `json:"meterReading"`
	RentalGST    float64 `json:"rentalGst"`
	Fixed        float64 `json:"fixed"`
	Variable     float64 `json:"variable"`
	Other        float64 `json:"other"`
	Total        float64 `json:"total"`
	ToBeBilled   float64 `json:"toBeBilled"` // 写入 Adda 模板的应收金额
}

// StepResult 工作流单步结果
type StepResult struct {
	Name     string        `json:"name"`
	Status   string        `json:"status"` // ok/skipped/error
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration"`
}

// WorkflowReport 账单工作流报告（不含产物字节流）
type WorkflowReport struct {
	Month          string        `json:"month"`
	BwssbReading   float64       `json:"bwssbReading"`
	TankerReading  float64       `json:"tankerReading"`
	WegotRows      int           `json:"wegotRows"`      // 抄表数据行数
	AllocationRows int           `json:"allocationRows"` // 分摊表户数
	MatchedRows    int           `json:"matchedRows"`    // Adda 模板中匹配上的行数
	TotalBilled    float64       `json:"totalBilled"`
	AveragePerFlat float64       `json:"averagePerFlat"`
	LossyPatch     bool          `json:"lossyPatch"` // 是否走了丢失公式的降级重建路径
	Warnings       []string      `json:"warnings,omitempty"`
	Steps          []StepResult  `json:"steps"`
	Duration       time.Duration `json:"duration"`
}
