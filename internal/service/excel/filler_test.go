package excel_test

import (
	"sort"
	"testing"

	"github.com/xuri/excelize/v2"

	"docforge/internal/model"
	"docforge/internal/service/catalog"
	"docforge/internal/service/excel"
)

func mustKind(t *testing.T, kind model.DocumentKind) *catalog.Kind {
	t.Helper()
	k, ok := catalog.For(kind)
	if !ok {
		t.Fatalf("catalog has no %s", kind)
	}
	return k
}

func newSheetWorkbook(t *testing.T, sheet string) *excelize.File {
	t.Helper()
	wb := excelize.NewFile()
	if err := wb.SetSheetName("Sheet1", sheet); err != nil {
		t.Fatalf("SetSheetName: %v", err)
	}
	t.Cleanup(func() { _ = wb.Close() })
	return wb
}

func TestFillWritesResolvedStrings(t *testing.T) {
	wb := newSheetWorkbook(t, "注文書")
	boldID, err := wb.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		t.Fatalf("NewStyle: %v", err)
	}
	if err := wb.SetCellStyle("注文書", "C15", "C15", boldID); err != nil {
		t.Fatalf("SetCellStyle: %v", err)
	}

	f, err := excel.NewFiller(wb, mustKind(t, model.KindOrder))
	if err != nil {
		t.Fatalf("NewFiller: %v", err)
	}
	bag := model.Fields{
		"contractor": map[string]any{"name": "山田工務店"},
		"contract":   map[string]any{"amount": 1234567, "orderNumber": "PO-001"},
	}
	if err := f.Fill(bag); err != nil {
		t.Fatalf("Fill: %v", err)
	}

	cases := map[string]string{
		"A5":  "山田工務店",
		"C15": "1,234,567",
		"G2":  "PO-001",
		"C17": "",
	}
	for axis, want := range cases {
		got, _ := wb.GetCellValue("注文書", axis)
		if got != want {
			t.Fatalf("%s=%q, want %q", axis, got, want)
		}
	}
	if id, _ := wb.GetCellStyle("注文書", "C15"); id != boldID {
		t.Fatalf("C15 style=%d, want %d", id, boldID)
	}
}

func TestFillKeepsNumberFormatCellsNumeric(t *testing.T) {
	wb := newSheetWorkbook(t, "注文書")
	thousandsID, err := wb.NewStyle(&excelize.Style{NumFmt: 3}) // #,##0
	if err != nil {
		t.Fatalf("NewStyle: %v", err)
	}
	if err := wb.SetCellStyle("注文書", "C15", "C15", thousandsID); err != nil {
		t.Fatalf("SetCellStyle: %v", err)
	}

	f, err := excel.NewFiller(wb, mustKind(t, model.KindOrder))
	if err != nil {
		t.Fatalf("NewFiller: %v", err)
	}
	bag := model.Fields{
		"contract":   map[string]any{"amount": 1234567},
		"contractor": map[string]any{"name": "1234"},
	}
	if err := f.Fill(bag); err != nil {
		t.Fatalf("Fill: %v", err)
	}

	raw, _ := wb.GetCellValue("注文書", "C15", excelize.Options{RawCellValue: true})
	if raw != "1234567" {
		t.Fatalf("C15 raw=%q, want numeric 1234567", raw)
	}
	if shown, _ := wb.GetCellValue("注文書", "C15"); shown != "1,234,567" {
		t.Fatalf("C15 shown=%q, want 1,234,567", shown)
	}
	if id, _ := wb.GetCellStyle("注文書", "C15"); id != thousandsID {
		t.Fatalf("C15 style=%d, want %d", id, thousandsID)
	}
	// 字符串值即使看起来像数字也按文本写入
	if typ, _ := wb.GetCellType("注文書", "A5"); typ != excelize.CellTypeSharedString && typ != excelize.CellTypeInlineString {
		t.Fatalf("A5 type=%v, want string", typ)
	}
}

func TestFillItemsInheritsRowStyle(t *testing.T) {
	wb := newSheetWorkbook(t, "請求書")
	numID, err := wb.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{Horizontal: "right"}})
	if err != nil {
		t.Fatalf("NewStyle: %v", err)
	}
	if err := wb.SetCellStyle("請求書", "F12", "F12", numID); err != nil {
		t.Fatalf("SetCellStyle: %v", err)
	}

	f, err := excel.NewFiller(wb, mustKind(t, model.KindMonthlyInvoice))
	if err != nil {
		t.Fatalf("NewFiller: %v", err)
	}
	bag := model.Fields{
		"items": []any{
			map[string]any{"label": "現場管理", "date": "2024-04-01", "amount": 100000, "fee": 550},
			map[string]any{"label": "資材搬入", "date": "2024-04-08", "amount": 20000.5, "fee": 0},
			map[string]any{"name": "交通費", "amount": 3000},
		},
	}
	if err := f.Fill(bag); err != nil {
		t.Fatalf("Fill: %v", err)
	}

	cases := map[string]string{
		"A12": "1",
		"B12": "現場管理",
		"E12": "2024/4/1",
		"F12": "100,000",
		"H12": "550",
		"F13": "20,000.50",
		"A14": "3",
		"B14": "交通費",
		"A15": "",
	}
	for axis, want := range cases {
		if got, _ := wb.GetCellValue("請求書", axis); got != want {
			t.Fatalf("%s=%q, want %q", axis, got, want)
		}
	}
	for _, axis := range []string{"F13", "F14"} {
		if id, _ := wb.GetCellStyle("請求書", axis); id != numID {
			t.Fatalf("%s style=%d, want %d", axis, id, numID)
		}
	}
}

func TestNormalizeMergesIdempotent(t *testing.T) {
	wb := newSheetWorkbook(t, "業務完了報告書")
	// 模板上残留的错误合并：跨到 C 列
	if err := wb.MergeCell("業務完了報告書", "A5", "C6"); err != nil {
		t.Fatalf("MergeCell: %v", err)
	}
	if err := wb.MergeCell("業務完了報告書", "D20", "E20"); err != nil {
		t.Fatalf("MergeCell: %v", err)
	}

	f, err := excel.NewFiller(wb, mustKind(t, model.KindCompletion))
	if err != nil {
		t.Fatalf("NewFiller: %v", err)
	}
	if err := f.NormalizeMerges(); err != nil {
		t.Fatalf("NormalizeMerges: %v", err)
	}
	once := mergeSet(t, wb, "業務完了報告書")
	if err := f.NormalizeMerges(); err != nil {
		t.Fatalf("NormalizeMerges again: %v", err)
	}
	twice := mergeSet(t, wb, "業務完了報告書")

	if len(once) != len(twice) {
		t.Fatalf("merges once=%v twice=%v", once, twice)
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Fatalf("merges once=%v twice=%v", once, twice)
		}
	}
	want := map[string]bool{"A5:B5": true, "A6:B6": true, "A1:H1": true, "D20:E20": true}
	for _, m := range once {
		delete(want, m)
		if m == "A5:C6" {
			t.Fatalf("stale merge survived: %v", once)
		}
	}
	if len(want) != 0 {
		t.Fatalf("missing merges %v in %v", want, once)
	}
	if got, _ := wb.GetCellValue("業務完了報告書", "A5"); got != "業務名" {
		t.Fatalf("A5=%q, want 業務名", got)
	}
}

func mergeSet(t *testing.T, wb *excelize.File, sheet string) []string {
	t.Helper()
	merges, err := wb.GetMergeCells(sheet)
	if err != nil {
		t.Fatalf("GetMergeCells: %v", err)
	}
	out := make([]string, 0, len(merges))
	for _, m := range merges {
		out = append(out, m.GetStartAxis()+":"+m.GetEndAxis())
	}
	sort.Strings(out)
	return out
}
