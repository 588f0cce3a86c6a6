package patcher

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/xuri/excelize/v2"
)

// workbookBytes 构造一个内存工作簿并序列化为字节流
func workbookBytes(t *testing.T, build func(f *excelize.File)) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	build(f)

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("serialize workbook: %v", err)
	}
	return buf.Bytes()
}

func addSheet(t *testing.T, f *excelize.File, name string, rows [][]any) {
	t.Helper()

	// 首个 Sheet 复用默认页并改名，避免产物里残留空的 Sheet1
	if len(f.GetSheetList()) == 1 && f.GetSheetName(0) == "Sheet1" {
		if err := f.SetSheetName("Sheet1", name); err != nil {
			t.Fatalf("rename sheet: %v", err)
		}
	} else if idx, _ := f.GetSheetIndex(name); idx < 0 {
		if _, err := f.NewSheet(name); err != nil {
			t.Fatalf("new sheet %s: %v", name, err)
		}
	}
	for r, row := range rows {
		rowCopy := row
		if err := f.SetSheetRow(name, fmt.Sprintf("A%d", r+1), &rowCopy); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
}

func openResult(t *testing.T, data []byte) *excelize.File {
	t.Helper()

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open patched workbook: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestPatch_ReplaceSheetPreservesFormulas(t *testing.T) {
	t.Parallel()

	original := workbookBytes(t, func(f *excelize.File) {
		addSheet(t, f, "WeGot report", [][]any{
			{"old", "stale", "data"},
			{"x", "y", "z"},
		})
		// 同一 Sheet 里的公式单元格必须在整表替换后原样存活
		if err := f.SetCellFormula("WeGot report", "E1", "SUM(D1:D10)"); err != nil {
			t.Fatalf("set formula: %v", err)
		}
		addSheet(t, f, "Summary", [][]any{{"Total"}})
		if err := f.SetCellFormula("Summary", "B1", "SUM('WeGot report'!D:D)"); err != nil {
			t.Fatalf("set formula: %v", err)
		}
	})

	res, err := Patch(original, []SheetReplacement{
		{Sheet: "WeGot report", Rows: [][]string{
			{"S.No", "Block", "Apartment", "Consumption"},
			{"1", "A", "101", "300"},
		}},
	}, nil)
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if res.Lossy {
		t.Fatalf("preserving path must not be lossy: %v", res.Warnings)
	}

	f := openResult(t, res.Bytes)

	for _, tc := range []struct {
		sheet string
		cell  string
	}{
		{sheet: "WeGot report", cell: "E1"},
		{sheet: "Summary", cell: "B1"},
	} {
		formula, err := f.GetCellFormula(tc.sheet, tc.cell)
		if err != nil {
			t.Fatalf("get formula %s!%s: %v", tc.sheet, tc.cell, err)
		}
		if formula == "" {
			t.Fatalf("formula %s!%s was materialized away", tc.sheet, tc.cell)
		}
	}

	// 旧数据被清空，新表从 A1 写入，数字按数值还原
	if got, _ := f.GetCellValue("WeGot report", "A1"); got != "S.No" {
		t.Fatalf("A1: %q", got)
	}
	if got, _ := f.GetCellValue("WeGot report", "D2"); got != "300" {
		t.Fatalf("D2: %q", got)
	}
	if got, _ := f.GetCellValue("WeGot report", "A3"); got != "" {
		t.Fatalf("stale row must be cleared, got %q", got)
	}
}

func TestPatch_UntouchedSheetsIntact(t *testing.T) {
	t.Parallel()

	original := workbookBytes(t, func(f *excelize.File) {
		addSheet(t, f, "WeGot report", [][]any{{"old"}})
		addSheet(t, f, "Charges", [][]any{
			{"Month", "Amount"},
			{"Feb", 4200},
		})
	})

	res, err := Patch(original, []SheetReplacement{
		{Sheet: "WeGot report", Rows: [][]string{{"new"}}},
	}, nil)
	if err != nil {
		t.Fatalf("patch: %v", err)
	}

	f := openResult(t, res.Bytes)
	if got, _ := f.GetCellValue("Charges", "B2"); got != "4200" {
		t.Fatalf("untouched sheet changed: %q", got)
	}
}

func TestPatch_LabelLookupUpdates(t *testing.T) {
	t.Parallel()

	original := workbookBytes(t, func(f *excelize.File) {
		addSheet(t, f, InputSheet, [][]any{
			{"Billing parameters"},
			{"", "Month", "Feb"},
			{"", "Cauvery water reading", 0},
			{"", "Tanker water", 0},
		})
		addSheet(t, f, AllocationSheet, [][]any{
			{"", "Month", "Cauvery", "Tanker"},
			{"", "Jan", 0, 0},
			{"", "Feb", 0, 0},
			{"", "Mar", 0, 0},
		})
	})

	res, err := Patch(original, nil, BillingCellUpdates("Mar", 1234.5, 80))
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", res.Warnings)
	}

	f := openResult(t, res.Bytes)
	if got, _ := f.GetCellValue(InputSheet, "C2"); got != "Mar" {
		t.Fatalf("month cell: %q", got)
	}
	if got, _ := f.GetCellValue(InputSheet, "C3"); got != "1234.5" {
		t.Fatalf("cauvery cell: %q", got)
	}
	if got, _ := f.GetCellValue(InputSheet, "C4"); got != "80" {
		t.Fatalf("tanker cell: %q", got)
	}
	// Allocation 表按月份标签定位当月行
	if got, _ := f.GetCellValue(AllocationSheet, "C4"); got != "1234.5" {
		t.Fatalf("allocation cauvery: %q", got)
	}
	if got, _ := f.GetCellValue(AllocationSheet, "D4"); got != "80" {
		t.Fatalf("allocation tanker: %q", got)
	}
	// 其他月份的行不许被碰
	if got, _ := f.GetCellValue(AllocationSheet, "C3"); got != "0" {
		t.Fatalf("other month row touched: %q", got)
	}
}

func TestPatch_MissingLabelWarnsAndContinues(t *testing.T) {
	t.Parallel()

	original := workbookBytes(t, func(f *excelize.File) {
		addSheet(t, f, InputSheet, [][]any{{"", "Month", "Feb"}})
	})

	res, err := Patch(original, nil, []CellUpdate{
		{Sheet: InputSheet, LookupCol: 1, Labels: []string{"no such label"}, ColOffset: 1, Value: 1},
	})
	if err != nil {
		t.Fatalf("missing label must not fail: %v", err)
	}
	if res.Lossy {
		t.Fatalf("missing label must not force lossy rebuild")
	}
	if len(res.Warnings) == 0 {
		t.Fatalf("missing label must be reported as warning")
	}

	f := openResult(t, res.Bytes)
	if got, _ := f.GetCellValue(InputSheet, "C1"); got != "Feb" {
		t.Fatalf("no-op update must leave cell alone: %q", got)
	}
}

func TestPatch_FormulaTargetSkipped(t *testing.T) {
	t.Parallel()

	original := workbookBytes(t, func(f *excelize.File) {
		addSheet(t, f, InputSheet, [][]any{{"", "Month"}})
		if err := f.SetCellFormula(InputSheet, "C1", "TODAY()"); err != nil {
			t.Fatalf("set formula: %v", err)
		}
	})

	res, err := Patch(original, nil, []CellUpdate{
		{Sheet: InputSheet, LookupCol: 1, Labels: []string{"month"}, ColOffset: 1, Value: "Mar"},
	})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if len(res.Warnings) == 0 {
		t.Fatalf("formula target must be reported as warning")
	}

	f := openResult(t, res.Bytes)
	if formula, _ := f.GetCellFormula(InputSheet, "C1"); formula == "" {
		t.Fatalf("formula target must not be overwritten")
	}
}

func TestPatch_MissingSheetWarns(t *testing.T) {
	t.Parallel()

	original := workbookBytes(t, func(f *excelize.File) {
		addSheet(t, f, "Only sheet", [][]any{{"x"}})
	})

	res, err := Patch(original,
		[]SheetReplacement{{Sheet: "Nope", Rows: [][]string{{"a"}}}},
		[]CellUpdate{{Sheet: "Also nope", LookupCol: 0, Labels: []string{"x"}, Value: 1}},
	)
	if err != nil {
		t.Fatalf("missing sheets must degrade to warnings: %v", err)
	}
	if len(res.Warnings) != 2 {
		t.Fatalf("want 2 warnings, got %v", res.Warnings)
	}
}

func TestRebuildLossy_ValuesOnlyFallback(t *testing.T) {
	t.Parallel()

	original := workbookBytes(t, func(f *excelize.File) {
		addSheet(t, f, "WeGot report", [][]any{
			{"old", "stale"},
		})
		addSheet(t, f, InputSheet, [][]any{
			{"", "Month", "Feb"},
		})
		addSheet(t, f, "Charges", [][]any{
			{"Month", "Amount"},
			{"Feb", 4200},
		})
		if err := f.SetCellFormula("Charges", "C2", "B2*2"); err != nil {
			t.Fatalf("set formula: %v", err)
		}
	})

	seed := &Result{Warnings: []string{"保公式补丁路径失败，已降级为无公式重建: 模拟故障"}}
	res, err := rebuildLossy(original,
		[]SheetReplacement{{Sheet: "WeGot report", Rows: [][]string{
			{"S.No", "Block"},
			{"1", "A"},
		}}},
		[]CellUpdate{{Sheet: InputSheet, LookupCol: 1, Labels: []string{"month"}, ColOffset: 1, Value: "Mar"}},
		seed)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	// 降级路径必须亮旗并把警告带给调用方
	if !res.Lossy {
		t.Fatalf("rebuild result must be flagged lossy")
	}
	if len(res.Warnings) == 0 || res.Warnings[0] != seed.Warnings[0] {
		t.Fatalf("degradation warning must survive: %v", res.Warnings)
	}

	f := openResult(t, res.Bytes)

	// 替换表生效
	if got, _ := f.GetCellValue("WeGot report", "A1"); got != "S.No" {
		t.Fatalf("replaced sheet A1: %q", got)
	}
	if got, _ := f.GetCellValue("WeGot report", "B2"); got != "A" {
		t.Fatalf("replaced sheet B2: %q", got)
	}

	// 单元格更新在重建产物上照常应用
	if got, _ := f.GetCellValue(InputSheet, "C1"); got != "Mar" {
		t.Fatalf("month cell: %q", got)
	}

	// 未替换的 Sheet 按值存活，但公式已丢失（有损的定义）
	if got, _ := f.GetCellValue("Charges", "B2"); got != "4200" {
		t.Fatalf("untouched sheet value: %q", got)
	}
	if formula, _ := f.GetCellFormula("Charges", "C2"); formula != "" {
		t.Fatalf("rebuild must be values-only, formula survived: %q", formula)
	}
}

func TestPatch_UnreadableInputIsFatal(t *testing.T) {
	t.Parallel()

	_, err := Patch([]byte("definitely not a workbook"), nil, nil)
	if !errors.Is(err, ErrUnreadable) {
		t.Fatalf("want ErrUnreadable, got %v", err)
	}
}

func TestValidMonth(t *testing.T) {
	t.Parallel()

	for _, m := range Months {
		if !ValidMonth(m) {
			t.Fatalf("%s must be valid", m)
		}
	}
	for _, m := range []string{"", "March", "mar", "13"} {
		if ValidMonth(m) {
			t.Fatalf("%q must be invalid", m)
		}
	}
}
