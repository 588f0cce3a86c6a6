package model

import "time"

// ComparisonRecord 单户两期对比记录
type ComparisonRecord struct {
	Flat          string  `json:"flat"`          // 户标识 (如 A101)
	PriorAmount   float64 `json:"priorAmount"`   // 上期金额（缺席按 0）
	CurrentAmount float64 `json:"currentAmount"` // 本期金额（缺席按 0）
	ChangeAmount  float64 `json:"changeAmount"`  // 本期 - 上期
	ChangePercent float64 `json:"changePercent"` // 变化百分比（上期为 0 时的约定见 analyzer）
}

// 分类名称（派生视图，允许重叠，每次分析重新计算）
const (
	CategoryMajorIncrease   = "major_increase"
	CategoryMajorDecrease   = "major_decrease"
	CategoryZeroConsumption = "zero_consumption"
	CategoryNewConsumer     = "new_consumer"
	CategoryHighConsumer    = "high_consumer"
	CategoryLowConsumer     = "low_consumer"
)

// CategoryOrder 分类的固定展示顺序
var CategoryOrder = []string{
	CategoryMajorIncrease,
	CategoryMajorDecrease,
	CategoryZeroConsumption,
	CategoryNewConsumer,
	CategoryHighConsumer,
	CategoryLowConsumer,
}

// Metrics 汇总指标
type Metrics struct {
	TotalFlats     int     `json:"totalFlats"`     // 总户数
	ActiveFlats    int     `json:"activeFlats"`    // 本期有用水的户数
	ZeroUsageFlats int     `json:"zeroUsageFlats"` // 本期零用水户数
	NewConsumers   int     `json:"newConsumers"`   // 新增用水户数
	TotalChange    float64 `json:"totalChange"`    // 金额变化合计
	AvgChange      float64 `json:"avgChange"`      // 户均金额变化
	ActivePercent  float64 `json:"activePercent"`  // 有用水户占比 (%)
	ZeroPercent    float64 `json:"zeroPercent"`    // 零用水户占比 (%)
}

// BlockSummary 楼栋级汇总（按户标识首字母归组）
type BlockSummary struct {
	Block       string  `json:"block"`
	FlatCount   int     `json:"flatCount"`
	TotalAmount float64 `json:"totalAmount"` // 本期金额合计
	AvgPerFlat  float64 `json:"avgPerFlat"`  // 本期户均金额
	TotalChange float64 `json:"totalChange"` // 金额变化合计
}

// AnalysisResult 一次两期对比分析的完整结果
type AnalysisResult struct {
	ID           string                        `json:"id"`
	CreatedAt    time.Time                     `json:"createdAt"`
	PriorSheet   string                        `json:"priorSheet"`
	CurrentSheet string                        `json:"currentSheet"`
	Records      []ComparisonRecord            `json:"records"`
	Categories   map[string][]ComparisonRecord `json:"categories"`
	Metrics      Metrics                       `json:"metrics"`
	Blocks       []BlockSummary                `json:"blocks"`
}
