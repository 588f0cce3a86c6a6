package parser

import (
	"errors"
	"strings"

	"github.com/xuri/excelize/v2"

	"waterline/internal/model"
)

// ErrNoTable 工作簿/Sheet 中没有可用的户级数据表（预期内的启发式失败，调用方顺延下一候选）
var ErrNoTable = errors.New("no flat table found")

// Sheet 选取顺序：优先名单按列出顺序先试，其余 Sheet 按工作簿顺序，
// 命中排除名单的一律不试（原始抄表导出、历史流水、图表、参数输入页）
var (
	prioritySheets = []string{"final allocation monthly", "final allocation", "dues_tmpt", "allocation"}
	denySheets     = []string{"wegot", "charges", "chart", "input"}
)

// 表头/列角色关键词
var (
	blockKeywords     = []string{"block"}
	flatKeywords      = []string{"flat"}
	apartmentKeywords = []string{"apartment", "apartm", "flat", "unit", "serial"}
	ownerKeywords     = []string{"owner"}
	totalKeywords     = []string{"total"}
	dueKeywords       = []string{"amount", "due", "bill"}
	billingKeywords   = []string{"billed", "total", "consumption", "amount", "bill", "to be", "dues"}
	amountColKeywords = []string{"amount", "currentdue", "due"}

	// 面积列（平方英尺）不得被误判为金额列
	areaReject = []string{"square"}
)

// sheetStrategy 单种版式的提取策略，按序评估、首个成功者胜出
type sheetStrategy struct {
	name    string
	applies func(sheetName string) bool
	extract func(g *Grid) (*model.Snapshot, error)
}

// SnapshotBuilder 快照表构建器
// 遍历工作簿所有候选 Sheet，对每个 Sheet 依次尝试版式策略，
// 第一个产出非空表的 Sheet 即为最终结果（确定性优先，不做“行数最多者胜”比较）
type SnapshotBuilder struct {
	strategies []sheetStrategy
}

// NewSnapshotBuilder 创建构建器
func NewSnapshotBuilder() *SnapshotBuilder {
	b := &SnapshotBuilder{}
	b.strategies = []sheetStrategy{
		{
			name:    "billing",
			applies: func(name string) bool { return strings.Contains(strings.ToLower(name), "dues_tmpt") },
			extract: extractBillingTable,
		},
		{
			name:    "allocation",
			applies: func(name string) bool { return strings.Contains(strings.ToLower(name), "allocation") },
			extract: extractAllocationTable,
		},
		{
			name:    "generic",
			applies: func(string) bool { return true },
			extract: extractGenericTable,
		},
	}
	return b
}

// Build 从工作簿提取快照表
func (b *SnapshotBuilder) Build(f *excelize.File) (*model.Snapshot, error) {
	for _, sheet := range ProcessingOrder(f.GetSheetList()) {
		g, err := LoadGrid(f, sheet)
		if err != nil || g.RowCount() == 0 {
			continue
		}
		for _, st := range b.strategies {
			if !st.applies(sheet) {
				continue
			}
			snap, err := st.extract(g)
			if err != nil || snap.Len() == 0 {
				continue
			}
			return snap, nil
		}
	}
	return nil, ErrNoTable
}

// ProcessingOrder 确定 Sheet 处理顺序：优先名单在前，排除名单剔除
func ProcessingOrder(sheetNames []string) []string {
	var order []string
	seen := make(map[string]bool)

	for _, marker := range prioritySheets {
		for _, name := range sheetNames {
			if seen[name] {
				continue
			}
			if strings.Contains(strings.ToLower(name), marker) {
				order = append(order, name)
				seen[name] = true
				break
			}
		}
	}

	for _, name := range sheetNames {
		if seen[name] {
			continue
		}
		if ContainsAny(strings.ToLower(name), denySheets) {
			continue
		}
		order = append(order, name)
	}
	return order
}

// extractBillingTable 提取 Block+Flat 结构的收费表（dues_tmpt 版式）
func extractBillingTable(g *Grid) (*model.Snapshot, error) {
	headerRow, ok := LocateHeader(g, 10, blockKeywords, flatKeywords, dueKeywords)
	if !ok {
		return nil, ErrNoTable
	}

	labels := HeaderLabels(g, headerRow)
	blockCol := FindColumn(labels, blockKeywords, nil)
	flatCol := FindColumn(labels, flatKeywords, areaReject)
	amountCol := FindColumn(labels, amountColKeywords, areaReject)
	if blockCol < 0 || flatCol < 0 || amountCol < 0 {
		return nil, ErrNoTable
	}

	snap := model.NewSnapshot(g.Sheet)
	for row := headerRow + 1; row < g.RowCount(); row++ {
		id := NormalizeFlatID(g.Cell(row, blockCol).Text(), g.Cell(row, flatCol).Text())
		if !IsEntityID(id) {
			continue
		}
		// 同一户多行时后写覆盖先写（last write wins）
		snap.Amounts[id] = g.Cell(row, amountCol).Float()
	}
	return snap, nil
}

// extractAllocationTable 提取分摊表（Apartment + Total 版式）
func extractAllocationTable(g *Grid) (*model.Snapshot, error) {
	headerRow, ok := LocateHeader(g, 15, apartmentKeywords, totalKeywords, ownerKeywords)
	if !ok {
		return nil, ErrNoTable
	}

	labels := HeaderLabels(g, headerRow)
	flatCol := FindColumn(labels, []string{"apartment", "apartm", "flat"}, areaReject)
	amountCol := FindColumn(labels, totalKeywords, areaReject)
	if flatCol < 0 || amountCol < 0 {
		return nil, ErrNoTable
	}

	return collectRows(g, headerRow, flatCol, amountCol), nil
}

// extractGenericTable 通用版式：任意含户标识列 + 金额列的 Sheet
func extractGenericTable(g *Grid) (*model.Snapshot, error) {
	headerRow, ok := LocateHeader(g, 20, apartmentKeywords, billingKeywords)
	if !ok {
		return nil, ErrNoTable
	}

	labels := HeaderLabels(g, headerRow)
	flatCol := FindColumn(labels, apartmentKeywords, areaReject)
	if flatCol < 0 {
		return nil, ErrNoTable
	}

	amountCol := FindColumn(labels, billingKeywords, areaReject)
	if amountCol < 0 {
		amountCol = FindNumericFallback(g, headerRow, labels)
	}
	if amountCol < 0 || amountCol == flatCol {
		return nil, ErrNoTable
	}

	return collectRows(g, headerRow, flatCol, amountCol), nil
}

func collectRows(g *Grid, headerRow, flatCol, amountCol int) *model.Snapshot {
	snap := model.NewSnapshot(g.Sheet)
	for row := headerRow + 1; row < g.RowCount(); row++ {
		id := NormalizeID(g.Cell(row, flatCol).Text())
		if !IsEntityID(id) {
			continue
		}
		snap.Amounts[id] = g.Cell(row, amountCol).Float()
	}
	return snap
}
