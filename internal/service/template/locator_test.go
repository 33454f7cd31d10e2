package template_test

import (
	"os"
	"path/filepath"
	"testing"

	"docforge/internal/model"
	"docforge/internal/service/template"
)

func TestLocatePrefersPageImage(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "order.xlsx"))
	touch(t, filepath.Join(dir, "注文書.pdf"))

	loc, ok := template.NewLocator(dir).Locate(model.KindOrder)
	if !ok {
		t.Fatalf("expected a template")
	}
	if loc.Format != model.FormatPageImage {
		t.Fatalf("format=%s, want page_image", loc.Format)
	}
	if got, want := filepath.Base(loc.Path), "注文書.pdf"; got != want {
		t.Fatalf("path=%s, want %s", got, want)
	}
}

func TestLocateFallsBackToSpreadsheet(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "completion.xlsx"))

	loc, ok := template.NewLocator(dir).Locate(model.KindCompletion)
	if !ok || loc.Format != model.FormatSpreadsheet {
		t.Fatalf("loc=%+v ok=%v", loc, ok)
	}
}

func TestLocateMissing(t *testing.T) {
	dir := t.TempDir()
	// 目录同名不算模板
	if err := os.Mkdir(filepath.Join(dir, "invoice.pdf"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, ok := template.NewLocator(dir).Locate(model.KindMonthlyInvoice); ok {
		t.Fatalf("directory must not count as template")
	}
	if _, ok := template.NewLocator("").Locate(model.KindOrder); ok {
		t.Fatalf("empty dir must never locate")
	}
}

func TestCandidatesOrder(t *testing.T) {
	cands := template.NewLocator("/tpl").Candidates(model.KindOrderAcceptance)
	if len(cands) == 0 {
		t.Fatalf("no candidates")
	}
	seenSpreadsheet := false
	for _, c := range cands {
		if c.Format == model.FormatSpreadsheet {
			seenSpreadsheet = true
			continue
		}
		if seenSpreadsheet {
			t.Fatalf("page image candidate %s after spreadsheet candidates", c.Path)
		}
	}
}

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
