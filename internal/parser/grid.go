package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// CellKind 单元格值类型
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
)

// Cell 无类型网格中的单元格（带标签变体）
// 原始表格在识别表头之前不假设任何列有稳定类型，所有取值都走显式访问器
type Cell struct {
	Kind   CellKind
	Raw    string  // 原始文本（已去首尾空格）
	Number float64 // Kind == CellNumber 时有效
}

// MakeCell 从原始文本构造单元格
func MakeCell(raw string) Cell {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Cell{Kind: CellEmpty}
	}
	if n, ok := parseNumber(raw); ok {
		return Cell{Kind: CellNumber, Raw: raw, Number: n}
	}
	return Cell{Kind: CellText, Raw: raw}
}

// IsEmpty 是否为空单元格
func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty
}

// Text 文本值（数字单元格返回其原始文本）
func (c Cell) Text() string {
	return c.Raw
}

// Float 数值（文本/空单元格按约定兜底为 0，不报错）
func (c Cell) Float() float64 {
	if c.Kind == CellNumber {
		return c.Number
	}
	return 0
}

// Grid 一个 Sheet 的二维原始网格，行列坐标与原表一致（0 基）
type Grid struct {
	Sheet string
	Rows  [][]Cell
}

// LoadGrid 读取 Sheet 为无类型网格
func LoadGrid(f *excelize.File, sheet string) (*Grid, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("读取 Sheet %s 失败: %w", sheet, err)
	}

	g := &Grid{Sheet: sheet, Rows: make([][]Cell, len(rows))}
	for i, row := range rows {
		cells := make([]Cell, len(row))
		for j, raw := range row {
			cells[j] = MakeCell(raw)
		}
		g.Rows[i] = cells
	}
	return g, nil
}

// RowCount 行数
func (g *Grid) RowCount() int {
	return len(g.Rows)
}

// Cell 取单元格，越界返回空单元格
func (g *Grid) Cell(row, col int) Cell {
	if row < 0 || row >= len(g.Rows) {
		return Cell{Kind: CellEmpty}
	}
	r := g.Rows[row]
	if col < 0 || col >= len(r) {
		return Cell{Kind: CellEmpty}
	}
	return r[col]
}

// RowText 整行文本小写拼接（表头扫描用）
func (g *Grid) RowText(row int) string {
	if row < 0 || row >= len(g.Rows) {
		return ""
	}
	var sb strings.Builder
	for _, c := range g.Rows[row] {
		if c.IsEmpty() {
			continue
		}
		sb.WriteString(strings.ToLower(c.Text()))
		sb.WriteByte(' ')
	}
	return sb.String()
}

// parseNumber 尝试把文本解析为数值（容忍千分位逗号与百分号）
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSuffix(s, "%")
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
