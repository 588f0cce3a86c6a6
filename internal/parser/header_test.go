package parser

import "testing"

func gridOf(sheet string, rows [][]string) *Grid {
	g := &Grid{Sheet: sheet, Rows: make([][]Cell, len(rows))}
	for i, row := range rows {
		cells := make([]Cell, len(row))
		for j, raw := range row {
			cells[j] = MakeCell(raw)
		}
		g.Rows[i] = cells
	}
	return g
}

func TestLocateHeader_SkipsPreambleRows(t *testing.T) {
	t.Parallel()

	g := gridOf("dues_tmpt", [][]string{
		{"Sunrise Apartments"},
		{"Water dues - March"},
		{},
		{"Block", "Flat", "Amount Due"},
		{"A", "101", "300"},
	})

	row, ok := LocateHeader(g, 10, []string{"block"}, []string{"flat"}, []string{"amount", "due", "bill"})
	if !ok || row != 3 {
		t.Fatalf("want header row 3, got %d ok=%v", row, ok)
	}
}

func TestLocateHeader_AllSetsMustMatch(t *testing.T) {
	t.Parallel()

	g := gridOf("x", [][]string{
		{"Block", "Something"},
		{"Block", "Flat", "Amount"},
	})

	row, ok := LocateHeader(g, 10, []string{"block"}, []string{"flat"}, []string{"amount"})
	if !ok || row != 1 {
		t.Fatalf("partial match row must not win: got %d ok=%v", row, ok)
	}
}

func TestLocateHeader_IndependentOfDataRowOrder(t *testing.T) {
	t.Parallel()

	header := []string{"Block", "Flat", "Amount Due"}
	a := gridOf("x", [][]string{header, {"A", "101", "300"}, {"B", "204", "120"}})
	b := gridOf("x", [][]string{header, {"B", "204", "120"}, {"A", "101", "300"}})

	rowA, okA := LocateHeader(a, 10, []string{"block"}, []string{"flat"}, []string{"amount"})
	rowB, okB := LocateHeader(b, 10, []string{"block"}, []string{"flat"}, []string{"amount"})
	if !okA || !okB || rowA != rowB {
		t.Fatalf("header row must be stable under data reorder: %d/%v vs %d/%v", rowA, okA, rowB, okB)
	}
}

func TestFindColumn_RejectsAreaColumn(t *testing.T) {
	t.Parallel()

	labels := []string{"s.no", "flat", "total square feet", "amount due"}
	if got := FindColumn(labels, []string{"amount", "total"}, []string{"square"}); got != 3 {
		t.Fatalf("area column must be skipped, got %d", got)
	}
	if got := FindColumn(labels, []string{"owner"}, nil); got != -1 {
		t.Fatalf("missing keyword should return -1, got %d", got)
	}
}

func TestFindNumericFallback_PicksRightmostNumericColumn(t *testing.T) {
	t.Parallel()

	g := gridOf("x", [][]string{
		{"Unit", "Total Square Feet", "Reading"},
		{"A101", "1200", "300"},
		{"A102", "1200", "0"},
		{"B204", "900", "150.5"},
	})
	labels := HeaderLabels(g, 0)

	if got := FindNumericFallback(g, 0, labels); got != 2 {
		t.Fatalf("want rightmost numeric col 2, got %d", got)
	}
}
