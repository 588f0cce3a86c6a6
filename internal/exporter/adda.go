package exporter

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/xuri/excelize/v2"

	"waterline/internal/parser"
)

// Adda 模板固定列布局（1 基列号）
// KeyField / Block / Flat / SquareFeet / Category / Name / CurrentDue /
// AccountNo* / Amount* / InvoiceDate(YYYY-MM-DD)* / Comment*
const (
	addaColBlock     = 2
	addaColFlat      = 3
	addaColAccountNo = 8
	addaColAmount    = 9
	addaColDate      = 10
	addaColComment   = 11
)

// 匹配行写入的固定业务常量
const (
	addaAccountNo = 301004
	addaComment   = "Water cost at actuals"
)

// FillAddaTemplate 按户标识匹配填充 Adda 模板
// 模板每个数据行自带 Block+Flat，规范化后在 amounts 中查金额；
// 命中的行只覆盖金额与元数据列，未命中的行保持模板默认值
// （模板与本期数据之间的新增/消失住户就此被静默容忍）
// 返回填好的字节流与匹配行数
func FillAddaTemplate(templateBytes []byte, amounts map[string]float64, invoiceDate time.Time) ([]byte, int, error) {
	f, err := excelize.OpenReader(bytes.NewReader(templateBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("打开 Adda 模板失败: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, 0, fmt.Errorf("Adda 模板没有任何 Sheet")
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, 0, fmt.Errorf("读取 Adda 模板失败: %w", err)
	}

	matched := 0
	dateText := invoiceDate.Format("2006-01-02")
	for i := 1; i < len(rows); i++ { // 首行为表头
		row := rows[i]
		id := parser.NormalizeFlatID(cellAt(row, addaColBlock-1), cellAt(row, addaColFlat-1))
		if !parser.IsEntityID(id) {
			continue
		}
		amount, ok := amounts[id]
		if !ok {
			continue
		}

		rowNo := i + 1
		if err := setCell(f, sheet, addaColAmount, rowNo, int(math.Round(amount))); err != nil {
			return nil, 0, err
		}
		if err := setCell(f, sheet, addaColAccountNo, rowNo, addaAccountNo); err != nil {
			return nil, 0, err
		}
		if err := setCell(f, sheet, addaColDate, rowNo, dateText); err != nil {
			return nil, 0, err
		}
		if err := setCell(f, sheet, addaColComment, rowNo, addaComment); err != nil {
			return nil, 0, err
		}
		matched++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("序列化 Adda 模板失败: %w", err)
	}
	return buf.Bytes(), matched, nil
}

func setCell(f *excelize.File, sheet string, col, row int, value any) error {
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, axis, value)
}

func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}
