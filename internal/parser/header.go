package parser

import "strings"

// LocateHeader 在前 maxScanRows 行内定位表头行
// 一行的全部文本小写拼接后，每组关键词都至少命中一个（子串匹配）才算表头；
// 首个命中的行即为表头（真实表头总在次级表头之上，按行序决胜）
func LocateHeader(g *Grid, maxScanRows int, keywordSets ...[]string) (int, bool) {
	limit := maxScanRows
	if limit > g.RowCount() {
		limit = g.RowCount()
	}

	for i := 0; i < limit; i++ {
		text := g.RowText(i)
		if text == "" {
			continue
		}
		matched := true
		for _, set := range keywordSets {
			if !ContainsAny(text, set) {
				matched = false
				break
			}
		}
		if matched {
			return i, true
		}
	}
	return 0, false
}

// HeaderLabels 把表头行物化为列标签（小写，已规范化）
func HeaderLabels(g *Grid, headerRow int) []string {
	if headerRow < 0 || headerRow >= g.RowCount() {
		return nil
	}
	row := g.Rows[headerRow]
	labels := make([]string, len(row))
	for i, c := range row {
		labels[i] = strings.ToLower(CleanLabel(c.Text()))
	}
	return labels
}

// FindColumn 按列序找首个包含任一关键词的标签列
// reject 中任一词出现则跳过该列（如面积列不得被当作金额列）
func FindColumn(labels []string, keywords, reject []string) int {
	for idx, label := range labels {
		if label == "" {
			continue
		}
		if !ContainsAny(label, keywords) {
			continue
		}
		if len(reject) > 0 && ContainsAny(label, reject) {
			continue
		}
		return idx
	}
	return -1
}

// FindNumericFallback 金额列兜底：表头不含金额字样时，
// 取非空行中数值占比超过 30% 的最右一列
func FindNumericFallback(g *Grid, headerRow int, labels []string) int {
	best := -1
	for col := range labels {
		nonEmpty := 0
		numeric := 0
		for row := headerRow + 1; row < g.RowCount(); row++ {
			c := g.Cell(row, col)
			if c.IsEmpty() {
				continue
			}
			nonEmpty++
			if c.Kind == CellNumber {
				numeric++
			}
		}
		if nonEmpty > 0 && float64(numeric) > float64(nonEmpty)*0.3 {
			best = col
		}
	}
	return best
}
