package parser

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

// 抄表导出首个数据行的标记（表头行含任一标记即认为数据从此开始）
var wegotHeaderMarkers = []string{"s.no", "serial", "block", "apartment"}

// LoadWegotTable 读取 WeGot 抄表导出（首个 Sheet）
// 导出文件头部带有若干说明行，向下扫描到真实表头后，返回表头起的全部行，
// 供补丁引擎整表替换账单模板的原始数据 Sheet；找不到表头时返回全部行
func LoadWegotTable(f *excelize.File) ([][]string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoTable
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}

	start := 0
	for i, row := range rows {
		if rowHasWegotMarker(row) {
			start = i
			break
		}
	}

	var table [][]string
	for _, row := range rows[start:] {
		if rowIsEmpty(row) {
			continue
		}
		table = append(table, row)
	}
	if len(table) == 0 {
		return nil, ErrNoTable
	}
	return table, nil
}

func rowHasWegotMarker(row []string) bool {
	for _, cell := range row {
		lower := strings.ToLower(strings.TrimSpace(cell))
		for _, marker := range wegotHeaderMarkers {
			if lower == marker {
				return true
			}
		}
	}
	return false
}

func rowIsEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
