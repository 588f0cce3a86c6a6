package patcher

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"waterline/internal/model"
	"waterline/internal/parser"
)

// 分摊表固定列位（0 基）：以序号列为锚点，布局由账单模板固定
const (
	allocColSerial    = 1
	allocColBlock     = 2
	allocColApartment = 3
	allocColOwner     = 4
	allocColMeter     = 5
	allocColRental    = 6
	allocColFixed     = 7
	allocColVariable  = 8
	allocColOther     = 9
	allocColTotal     = 10
	allocColBilled    = 13
)

// ExtractFinalAllocation 从账单模板工作簿提取每户最终分摊数据
// 数据区从序号列首个纯数字行开始，到首个非数字行结束（其后是合计区）
func ExtractFinalAllocation(f *excelize.File) ([]model.AllocationRow, error) {
	sheet := findAllocationSheet(f)
	if sheet == "" {
		return nil, fmt.Errorf("账单模板缺少 Final allocation 表: %w", parser.ErrNoTable)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("读取 %s 失败: %w", sheet, err)
	}

	start := -1
	for i, row := range rows {
		if isSerial(cellAt(row, allocColSerial)) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, fmt.Errorf("%s 中未找到数据起始行: %w", sheet, parser.ErrNoTable)
	}

	var result []model.AllocationRow
	for i := start; i < len(rows); i++ {
		row := rows[i]
		serialRaw := cellAt(row, allocColSerial)
		if !isSerial(serialRaw) {
			break
		}
		serial, _ := strconv.Atoi(strings.TrimSpace(serialRaw))
		result = append(result, model.AllocationRow{
			Serial:       serial,
			Block:        strings.TrimSpace(cellAt(row, allocColBlock)),
			Apartment:    strings.TrimSpace(cellAt(row, allocColApartment)),
			OwnerName:    strings.TrimSpace(cellAt(row, allocColOwner)),
			MeterReading: floatAt(row, allocColMeter),
			RentalGST:    floatAt(row, allocColRental),
			Fixed:        floatAt(row, allocColFixed),
			Variable:     floatAt(row, allocColVariable),
			Other:        floatAt(row, allocColOther),
			Total:        floatAt(row, allocColTotal),
			ToBeBilled:   floatAt(row, allocColBilled),
		})
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("%s 中没有有效数据行: %w", sheet, parser.ErrNoTable)
	}
	return result, nil
}

// AmountsByApartment 分摊数据转快照口径：户标识 -> 应收金额
func AmountsByApartment(rows []model.AllocationRow) map[string]float64 {
	amounts := make(map[string]float64, len(rows))
	for _, r := range rows {
		id := parser.NormalizeID(r.Apartment)
		if !parser.IsEntityID(id) {
			continue
		}
		amounts[id] = r.ToBeBilled
	}
	return amounts
}

func findAllocationSheet(f *excelize.File) string {
	for _, sheet := range f.GetSheetList() {
		if strings.Contains(strings.ToLower(sheet), "final allocation") {
			return sheet
		}
	}
	return ""
}

func cellAt(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

func floatAt(row []string, col int) float64 {
	return parser.MakeCell(cellAt(row, col)).Float()
}

func isSerial(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	_, err := strconv.Atoi(s)
	return err == nil
}
