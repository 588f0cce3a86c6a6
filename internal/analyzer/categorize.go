package analyzer

import (
	"math"
	"sort"

	"waterline/internal/model"
)

// Thresholds 分类阈值
type Thresholds struct {
	AmountDelta  float64 // 金额变化阈值
	PercentDelta float64 // 百分比变化阈值
}

// DefaultThresholds 固定默认阈值：金额 200，百分比 25
func DefaultThresholds() Thresholds {
	return Thresholds{AmountDelta: 200, PercentDelta: 25}
}

// Categorize 把对比记录划入各命名分类
// 分类彼此独立求值（一户可同时落入多个分类），每次对同一记录集重算结果一致
func Categorize(records []model.ComparisonRecord, th Thresholds) map[string][]model.ComparisonRecord {
	categories := make(map[string][]model.ComparisonRecord)

	for _, r := range records {
		if (r.ChangeAmount > th.AmountDelta || r.ChangePercent > th.PercentDelta) && r.ChangeAmount > 0 {
			categories[model.CategoryMajorIncrease] = append(categories[model.CategoryMajorIncrease], r)
		}
		if (r.ChangeAmount < -th.AmountDelta || r.ChangePercent < -th.PercentDelta) && r.ChangeAmount < 0 {
			categories[model.CategoryMajorDecrease] = append(categories[model.CategoryMajorDecrease], r)
		}
		if r.CurrentAmount == 0 && r.PriorAmount > 0 {
			categories[model.CategoryZeroConsumption] = append(categories[model.CategoryZeroConsumption], r)
		}
		if r.PriorAmount == 0 && r.CurrentAmount > 0 {
			categories[model.CategoryNewConsumer] = append(categories[model.CategoryNewConsumer], r)
		}
	}

	// 高耗户：本期金额 >= 全体 90 分位（含）
	currents := make([]float64, 0, len(records))
	for _, r := range records {
		currents = append(currents, r.CurrentAmount)
	}
	if high, ok := Quantile(currents, 0.9); ok {
		for _, r := range records {
			if r.CurrentAmount >= high {
				categories[model.CategoryHighConsumer] = append(categories[model.CategoryHighConsumer], r)
			}
		}
	}

	// 低耗户：仅在本期有用水的户中取 <= 10 分位
	var actives []float64
	for _, r := range records {
		if r.CurrentAmount > 0 {
			actives = append(actives, r.CurrentAmount)
		}
	}
	if low, ok := Quantile(actives, 0.1); ok {
		for _, r := range records {
			if r.CurrentAmount > 0 && r.CurrentAmount <= low {
				categories[model.CategoryLowConsumer] = append(categories[model.CategoryLowConsumer], r)
			}
		}
	}

	sortCategories(categories)
	return categories
}

// sortCategories 各分类内部按定义性量级排序：
// 涨幅/高耗/停用/新增降序，跌幅/低耗升序
func sortCategories(categories map[string][]model.ComparisonRecord) {
	for name, recs := range categories {
		switch name {
		case model.CategoryMajorIncrease:
			sort.SliceStable(recs, func(i, j int) bool { return recs[i].ChangeAmount > recs[j].ChangeAmount })
		case model.CategoryMajorDecrease:
			sort.SliceStable(recs, func(i, j int) bool { return recs[i].ChangeAmount < recs[j].ChangeAmount })
		case model.CategoryZeroConsumption:
			sort.SliceStable(recs, func(i, j int) bool { return recs[i].PriorAmount > recs[j].PriorAmount })
		case model.CategoryNewConsumer, model.CategoryHighConsumer:
			sort.SliceStable(recs, func(i, j int) bool { return recs[i].CurrentAmount > recs[j].CurrentAmount })
		case model.CategoryLowConsumer:
			sort.SliceStable(recs, func(i, j int) bool { return recs[i].CurrentAmount < recs[j].CurrentAmount })
		}
	}
}

// Quantile 线性插值分位数；空集返回 ok=false
func Quantile(values []float64, q float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0], true
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo], true
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac, true
}
