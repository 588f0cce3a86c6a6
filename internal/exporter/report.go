package exporter

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"waterline/internal/model"
)

// 各分类在报告中的 Sheet 名
var categorySheetNames = map[string]string{
	model.CategoryMajorIncrease:   "Flats - Major Increases",
	model.CategoryMajorDecrease:   "Flats - Major Decreases",
	model.CategoryZeroConsumption: "Flats - Zero Usage",
	model.CategoryNewConsumer:     "Flats - New Consumers",
	model.CategoryHighConsumer:    "Flats - High Consumers",
	model.CategoryLowConsumer:     "Flats - Low Consumers",
}

var comparisonHeader = []any{"Flat", "Block", "Last Month Amount", "This Month Amount", "Change (₹)", "Change (%)"}

// BuildReport 生成分析报告工作簿：
// 全量对比表 + 每个非空分类一个 Sheet + 指标汇总表 + 可选楼栋汇总表
func BuildReport(res *model.AnalysisResult, includeBlocks bool) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), "Flat Analysis"); err != nil {
		return nil, err
	}
	if err := writeComparisonSheet(f, "Flat Analysis", res.Records); err != nil {
		return nil, err
	}

	for _, name := range model.CategoryOrder {
		recs := res.Categories[name]
		if len(recs) == 0 {
			continue
		}
		sheet := categorySheetNames[name]
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
		if err := writeComparisonSheet(f, sheet, recs); err != nil {
			return nil, err
		}
	}

	if err := writeSummarySheet(f, res); err != nil {
		return nil, err
	}

	if includeBlocks && len(res.Records) > 0 {
		if err := writeBlockSheet(f, res.Blocks); err != nil {
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

func writeComparisonSheet(f *excelize.File, sheet string, records []model.ComparisonRecord) error {
	if err := f.SetSheetRow(sheet, "A1", &comparisonHeader); err != nil {
		return err
	}
	for i, r := range records {
		row := []any{
			r.Flat,
			blockOf(r.Flat),
			round2(r.PriorAmount),
			round2(r.CurrentAmount),
			round2(r.ChangeAmount),
			round2(r.ChangePercent),
		}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, res *model.AnalysisResult) error {
	if _, err := f.NewSheet("Flat Summary"); err != nil {
		return err
	}

	m := res.Metrics
	lines := [][]any{
		{"Metric", "Value"},
		{"Total Flats", m.TotalFlats},
		{"Active Flats", m.ActiveFlats},
		{"Zero Usage Flats", m.ZeroUsageFlats},
		{"New Consumer Flats", len(res.Categories[model.CategoryNewConsumer])},
		{"Major Increase Flats", len(res.Categories[model.CategoryMajorIncrease])},
		{"Major Decrease Flats", len(res.Categories[model.CategoryMajorDecrease])},
		{"Total Revenue Change", fmt.Sprintf("₹%.0f", m.TotalChange)},
		{"Average Change per Flat", fmt.Sprintf("₹%.0f", m.AvgChange)},
	}
	for i, line := range lines {
		l := line
		if err := f.SetSheetRow("Flat Summary", fmt.Sprintf("A%d", i+1), &l); err != nil {
			return err
		}
	}
	return nil
}

func writeBlockSheet(f *excelize.File, blocks []model.BlockSummary) error {
	if _, err := f.NewSheet("Block Summary"); err != nil {
		return err
	}

	header := []any{"Block", "Number of Flats", "Total Amount (₹)", "Average per Flat (₹)", "Total Change (₹)"}
	if err := f.SetSheetRow("Block Summary", "A1", &header); err != nil {
		return err
	}
	for i, b := range blocks {
		row := []any{b.Block, b.FlatCount, round2(b.TotalAmount), round2(b.AvgPerFlat), round2(b.TotalChange)}
		if err := f.SetSheetRow("Block Summary", fmt.Sprintf("A%d", i+2), &row); err != nil {
			return err
		}
	}
	return nil
}

func blockOf(flat string) string {
	if flat != "" && flat[0] >= 'A' && flat[0] <= 'Z' {
		return string(flat[0])
	}
	return "Unknown"
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
