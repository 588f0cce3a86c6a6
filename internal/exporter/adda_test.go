package exporter

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func addaTemplate(t *testing.T) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), "Upload"); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	rows := [][]any{
		{"Key", "Block", "Flat", "SqFt", "Category", "Name", "Current Due"},
		{"1", "A", "101", 1200, "3BHK", "Asha", 0},
		{"2", "<B>", "<204>", 900, "2BHK", "Ravi", 0},
		{"3", "C", "305", 900, "2BHK", "Maya", 0},
		{"", "Total", "", "", "", "", 0},
	}
	for i, row := range rows {
		r := row
		if err := f.SetSheetRow("Upload", fmt.Sprintf("A%d", i+1), &r); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("serialize template: %v", err)
	}
	return buf.Bytes()
}

func TestFillAddaTemplate(t *testing.T) {
	t.Parallel()

	amounts := map[string]float64{
		"A101": 350.4,
		"B204": 160,
		"Z999": 42, // 模板里没有的户，静默忽略
	}
	invoiceDate := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	out, matched, err := FillAddaTemplate(addaTemplate(t), amounts, invoiceDate)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if matched != 2 {
		t.Fatalf("want 2 matched rows, got %d", matched)
	}

	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("open filled template: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })

	// 金额取整写入，元数据列为固定业务常量
	if got, _ := f.GetCellValue("Upload", "I2"); got != "350" {
		t.Fatalf("amount I2: %q", got)
	}
	if got, _ := f.GetCellValue("Upload", "H2"); got != "301004" {
		t.Fatalf("account H2: %q", got)
	}
	if got, _ := f.GetCellValue("Upload", "J2"); got != "2026-03-31" {
		t.Fatalf("date J2: %q", got)
	}
	if got, _ := f.GetCellValue("Upload", "K2"); got != "Water cost at actuals" {
		t.Fatalf("comment K2: %q", got)
	}

	// 装饰括号剥掉后照常匹配
	if got, _ := f.GetCellValue("Upload", "I3"); got != "160" {
		t.Fatalf("amount I3: %q", got)
	}

	// 未命中的行与汇总行保持模板默认
	if got, _ := f.GetCellValue("Upload", "I4"); got != "" {
		t.Fatalf("unmatched row touched: %q", got)
	}
	if got, _ := f.GetCellValue("Upload", "I5"); got != "" {
		t.Fatalf("aggregate row touched: %q", got)
	}
}

func TestFillAddaTemplate_BadBytes(t *testing.T) {
	t.Parallel()

	if _, _, err := FillAddaTemplate([]byte("junk"), nil, time.Now()); err == nil {
		t.Fatalf("junk bytes must fail")
	}
}
