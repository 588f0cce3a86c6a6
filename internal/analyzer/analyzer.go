package analyzer

import (
	"sort"

	"waterline/internal/model"
)

// Diff 两期快照全外连接：任一期出现过的户都恰好产出一条对比记录，
// 缺席一侧按金额 0 处理（无上期记录视为“上期为 0”，不是“未知”）
// 输出按户标识升序，保证重复分析结果逐字节一致
func Diff(prior, current *model.Snapshot) []model.ComparisonRecord {
	ids := make(map[string]bool)
	if prior != nil {
		for id := range prior.Amounts {
			ids[id] = true
		}
	}
	if current != nil {
		for id := range current.Amounts {
			ids[id] = true
		}
	}

	sorted := make([]string, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	records := make([]model.ComparisonRecord, 0, len(sorted))
	for _, id := range sorted {
		var priorAmt, currentAmt float64
		if prior != nil {
			priorAmt = prior.Amounts[id]
		}
		if current != nil {
			currentAmt = current.Amounts[id]
		}
		change := currentAmt - priorAmt
		records = append(records, model.ComparisonRecord{
			Flat:          id,
			PriorAmount:   priorAmt,
			CurrentAmount: currentAmt,
			ChangeAmount:  change,
			ChangePercent: changePercent(priorAmt, currentAmt),
		})
	}
	return records
}

// changePercent 变化百分比
// 上期为 0 时的约定：本期有用水记 100（新增用水的强正信号），否则记 0，避免除零
func changePercent(prior, current float64) float64 {
	if prior > 0 {
		return (current - prior) / prior * 100
	}
	if current > 0 {
		return 100
	}
	return 0
}

// ComputeMetrics 汇总指标
func ComputeMetrics(records []model.ComparisonRecord) model.Metrics {
	m := model.Metrics{TotalFlats: len(records)}
	for _, r := range records {
		if r.CurrentAmount > 0 {
			m.ActiveFlats++
		} else {
			m.ZeroUsageFlats++
		}
		if r.PriorAmount == 0 && r.CurrentAmount > 0 {
			m.NewConsumers++
		}
		m.TotalChange += r.ChangeAmount
	}
	if len(records) > 0 {
		m.AvgChange = m.TotalChange / float64(len(records))
		m.ActivePercent = float64(m.ActiveFlats) / float64(len(records)) * 100
		m.ZeroPercent = float64(m.ZeroUsageFlats) / float64(len(records)) * 100
	}
	return m
}

// BlockSummaries 楼栋级汇总：户标识首字母 (A-Z) 为楼栋，其余归入 Unknown
func BlockSummaries(records []model.ComparisonRecord) []model.BlockSummary {
	byBlock := make(map[string]*model.BlockSummary)
	for _, r := range records {
		block := blockOf(r.Flat)
		s, ok := byBlock[block]
		if !ok {
			s = &model.BlockSummary{Block: block}
			byBlock[block] = s
		}
		s.FlatCount++
		s.TotalAmount += r.CurrentAmount
		s.TotalChange += r.ChangeAmount
	}

	blocks := make([]string, 0, len(byBlock))
	for b := range byBlock {
		blocks = append(blocks, b)
	}
	sort.Strings(blocks)

	result := make([]model.BlockSummary, 0, len(blocks))
	for _, b := range blocks {
		s := byBlock[b]
		if s.FlatCount > 0 {
			s.AvgPerFlat = s.TotalAmount / float64(s.FlatCount)
		}
		result = append(result, *s)
	}
	return result
}

func blockOf(flat string) string {
	if flat == "" {
		return "Unknown"
	}
	c := flat[0]
	if c >= 'A' && c <= 'Z' {
		return string(c)
	}
	return "Unknown"
}
