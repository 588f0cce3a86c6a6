package patcher

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"waterline/internal/parser"
)

// ErrUnreadable 字节流不是合法工作簿（致命，不降级）
var ErrUnreadable = errors.New("workbook unreadable")

// 整表替换时的清理边界：只清这块矩形内的旧数据，
// 避免越过任何现实数据范围去动模板其余区域
const (
	clearMaxRows = 1000
	clearMaxCols = 50
	clearRowPad  = 100
	clearColPad  = 10
)

// SheetReplacement 整表替换指令：丢弃目标 Sheet 数据区的旧内容，
// 从 A1 锚点写入替换表（含表头），公式单元格一律跳过
type SheetReplacement struct {
	Sheet string
	Rows  [][]string
}

// CellUpdate 标量单元格更新指令
// 在 LookupCol 列中自上而下找首个命中标签的行，把 Value 写入该行 ColOffset 偏移处；
// 找不到标签时记入警告但不中断（no-op）
type CellUpdate struct {
	Sheet     string
	LookupCol int      // 标签查找列（0 基）
	Labels    []string // 任一命中即匹配（不区分大小写）
	Contains  bool     // true 为子串匹配，false 为全等匹配
	ColOffset int      // 写入列相对查找列的偏移
	Value     any
}

// Result 补丁结果
type Result struct {
	Bytes    []byte
	Lossy    bool     // 走了重建降级路径：公式与合并单元格已丢失
	Warnings []string // 标签未命中等非致命问题
}

// Patch 对原工作簿字节流打补丁，产出新的字节流
// 原字节流只读不改（copy-on-write）；指令未提及的 Sheet 原样保留，
// 包括其公式与合并单元格。保公式路径失败时降级为无公式重建并在结果中标记
func Patch(original []byte, replacements []SheetReplacement, updates []CellUpdate) (*Result, error) {
	f, err := excelize.OpenReader(bytes.NewReader(original))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()

	res := &Result{}
	if err := applyPreserving(f, replacements, updates, res); err != nil {
		// 降级：逐表值重建。产物没有公式与合并单元格，属于有损的最后手段，
		// 必须通过 Lossy 标记让调用方知情
		res.Warnings = append(res.Warnings, fmt.Sprintf("保公式补丁路径失败，已降级为无公式重建: %v", err))
		return rebuildLossy(original, replacements, updates, res)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("保公式序列化失败，已降级为无公式重建: %v", err))
		return rebuildLossy(original, replacements, updates, res)
	}
	res.Bytes = buf.Bytes()
	return res, nil
}

func applyPreserving(f *excelize.File, replacements []SheetReplacement, updates []CellUpdate, res *Result) error {
	for _, rep := range replacements {
		if idx, _ := f.GetSheetIndex(rep.Sheet); idx < 0 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("Sheet %s 不存在，整表替换跳过", rep.Sheet))
			continue
		}
		if err := replaceSheetData(f, rep); err != nil {
			return fmt.Errorf("替换 Sheet %s 失败: %w", rep.Sheet, err)
		}
	}

	for _, up := range updates {
		if idx, _ := f.GetSheetIndex(up.Sheet); idx < 0 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("Sheet %s 不存在，单元格更新跳过", up.Sheet))
			continue
		}
		if err := applyCellUpdate(f, up, res); err != nil {
			return fmt.Errorf("更新 Sheet %s 失败: %w", up.Sheet, err)
		}
	}
	return nil
}

// replaceSheetData 清空受限数据区后写入替换表
func replaceSheetData(f *excelize.File, rep SheetReplacement) error {
	rows, err := f.GetRows(rep.Sheet)
	if err != nil {
		return err
	}

	maxRow := len(rows)
	maxCol := 0
	for _, row := range rows {
		if len(row) > maxCol {
			maxCol = len(row)
		}
	}

	clearRows := min(clearMaxRows, maxRow+clearRowPad)
	clearCols := min(clearMaxCols, maxCol+clearColPad)

	for row := 1; row <= clearRows; row++ {
		for col := 1; col <= clearCols; col++ {
			axis, err := excelize.CoordinatesToCellName(col, row)
			if err != nil {
				continue
			}
			// 公式单元格是模板的计算逻辑，绝不覆盖
			if formula, _ := f.GetCellFormula(rep.Sheet, axis); formula != "" {
				continue
			}
			if err := f.SetCellValue(rep.Sheet, axis, nil); err != nil {
				return err
			}
		}
	}

	for r, row := range rep.Rows {
		for c, raw := range row {
			axis, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				continue
			}
			if formula, _ := f.GetCellFormula(rep.Sheet, axis); formula != "" {
				continue
			}
			if err := f.SetCellValue(rep.Sheet, axis, cellValue(raw)); err != nil {
				return err
			}
		}
	}
	return nil
}

// applyCellUpdate 标签查找 + 偏移写入
func applyCellUpdate(f *excelize.File, up CellUpdate, res *Result) error {
	rows, err := f.GetRows(up.Sheet)
	if err != nil {
		return err
	}

	for rowIdx, row := range rows {
		if up.LookupCol >= len(row) {
			continue
		}
		if !labelMatches(row[up.LookupCol], up.Labels, up.Contains) {
			continue
		}
		axis, err := excelize.CoordinatesToCellName(up.LookupCol+up.ColOffset+1, rowIdx+1)
		if err != nil {
			return err
		}
		if formula, _ := f.GetCellFormula(up.Sheet, axis); formula != "" {
			res.Warnings = append(res.Warnings, fmt.Sprintf("Sheet %s %s 为公式单元格，更新跳过", up.Sheet, axis))
			return nil
		}
		return f.SetCellValue(up.Sheet, axis, up.Value)
	}

	res.Warnings = append(res.Warnings, fmt.Sprintf("Sheet %s 未找到标签 %v，更新跳过", up.Sheet, up.Labels))
	return nil
}

func labelMatches(cell string, labels []string, contains bool) bool {
	lower := strings.ToLower(strings.TrimSpace(cell))
	if lower == "" {
		return false
	}
	for _, label := range labels {
		want := strings.ToLower(strings.TrimSpace(label))
		if contains {
			if strings.Contains(lower, want) {
				return true
			}
		} else if lower == want {
			return true
		}
	}
	return false
}

// rebuildLossy 降级路径：丢弃公式与合并单元格，逐表按值重建
func rebuildLossy(original []byte, replacements []SheetReplacement, updates []CellUpdate, res *Result) (*Result, error) {
	src, err := excelize.OpenReader(bytes.NewReader(original))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer src.Close()

	replaced := make(map[string][][]string)
	for _, rep := range replacements {
		replaced[rep.Sheet] = rep.Rows
	}

	out := excelize.NewFile()
	defer out.Close()

	for i, sheet := range src.GetSheetList() {
		if i == 0 {
			if err := out.SetSheetName(out.GetSheetName(0), sheet); err != nil {
				return nil, err
			}
		} else {
			if _, err := out.NewSheet(sheet); err != nil {
				return nil, err
			}
		}

		rows := replaced[sheet]
		if rows == nil {
			rows, err = src.GetRows(sheet)
			if err != nil {
				return nil, fmt.Errorf("重建读取 Sheet %s 失败: %w", sheet, err)
			}
		}
		for r, row := range rows {
			for c, raw := range row {
				if strings.TrimSpace(raw) == "" {
					continue
				}
				axis, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					continue
				}
				if err := out.SetCellValue(sheet, axis, cellValue(raw)); err != nil {
					return nil, err
				}
			}
		}
	}

	lossyRes := &Result{Lossy: true, Warnings: res.Warnings}
	for _, up := range updates {
		if idx, _ := out.GetSheetIndex(up.Sheet); idx < 0 {
			lossyRes.Warnings = append(lossyRes.Warnings, fmt.Sprintf("Sheet %s 不存在，单元格更新跳过", up.Sheet))
			continue
		}
		if err := applyCellUpdate(out, up, lossyRes); err != nil {
			return nil, err
		}
	}

	buf, err := out.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("重建序列化失败: %w", err)
	}
	lossyRes.Bytes = buf.Bytes()
	return lossyRes, nil
}

// cellValue 写入前的类型还原：看得出是数字的按数值写，其余按文本写
func cellValue(raw string) any {
	if c := parser.MakeCell(raw); c.Kind == parser.CellNumber {
		return c.Number
	}
	return raw
}
