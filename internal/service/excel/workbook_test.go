package excel_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"docforge/internal/service/excel"
)

func TestOpenTemplateCorruptIsTemplateRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "order.xlsx")
	if err := os.WriteFile(path, []byte("not a zip"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := excel.OpenTemplate(path)
	if !errors.Is(err, excel.ErrTemplateRead) {
		t.Fatalf("err=%v, want ErrTemplateRead", err)
	}
}

func TestOpenTemplateMissing(t *testing.T) {
	_, err := excel.OpenTemplate(filepath.Join(t.TempDir(), "none.xlsx"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if errors.Is(err, excel.ErrTemplateRead) {
		t.Fatalf("missing file must not be reported as unreadable template")
	}
}

func TestCopyToTempLeavesTemplateUntouched(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "completion.xlsx")
	wb := excelize.NewFile()
	wb.SetSheetName("Sheet1", "業務完了報告書")
	if err := wb.SetCellValue("業務完了報告書", "A1", "原本"); err != nil {
		t.Fatalf("SetCellValue: %v", err)
	}
	if err := wb.SaveAs(src); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	_ = wb.Close()

	tmp, err := excel.CopyToTemp(src, dir)
	if err != nil {
		t.Fatalf("CopyToTemp: %v", err)
	}
	defer os.Remove(tmp)
	if tmp == src {
		t.Fatalf("copy must be a different file")
	}

	cp, err := excel.OpenTemplate(tmp)
	if err != nil {
		t.Fatalf("OpenTemplate copy: %v", err)
	}
	if err := cp.SetCellValue("業務完了報告書", "A1", "変更"); err != nil {
		t.Fatalf("SetCellValue: %v", err)
	}
	if err := cp.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	_ = cp.Close()

	orig, err := excel.OpenTemplate(src)
	if err != nil {
		t.Fatalf("OpenTemplate: %v", err)
	}
	defer orig.Close()
	if got, _ := orig.GetCellValue("業務完了報告書", "A1"); got != "原本" {
		t.Fatalf("template A1=%q, want %q", got, "原本")
	}
}

func TestResolveSheet(t *testing.T) {
	wb := excelize.NewFile()
	defer wb.Close()
	if _, err := wb.NewSheet("請求書"); err != nil {
		t.Fatalf("NewSheet: %v", err)
	}

	got, err := excel.ResolveSheet(wb, "請求書")
	if err != nil || got != "請求書" {
		t.Fatalf("ResolveSheet=%q,%v, want 請求書", got, err)
	}
	got, err = excel.ResolveSheet(wb, "注文書")
	if err != nil || got != "Sheet1" {
		t.Fatalf("ResolveSheet fallback=%q,%v, want Sheet1", got, err)
	}
}
