package document_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"docforge/internal/model"
	"docforge/internal/service/document"
	"docforge/internal/service/render"
	"docforge/internal/service/template"
)

type fakeRasterizer struct {
	mu     sync.Mutex
	calls  int
	markup model.Markup
	out    []byte
	err    error
	panic  bool
}

func (f *fakeRasterizer) Rasterize(_ context.Context, m model.Markup) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.markup = m
	if f.panic {
		panic("renderer crashed")
	}
	return f.out, f.err
}

var fixedNow = time.Date(2024, 5, 7, 9, 0, 0, 0, time.UTC)

func newGenerator(t *testing.T, templateDir string, r render.Rasterizer) (*document.Generator, string) {
	t.Helper()
	tmp := t.TempDir()
	g := document.NewGenerator(document.Options{
		Locator:    template.NewLocator(templateDir),
		Rasterizer: r,
		TempDir:    tmp,
		Now:        func() time.Time { return fixedNow },
	})
	return g, tmp
}

func sampleBag() model.Fields {
	return model.Fields{
		"organization": map[string]any{"name": "Kanto Build"},
		"contractor":   map[string]any{"name": "Yamada Works"},
		"project":      map[string]any{"name": "Facade Repair", "code": "P-01"},
		"contract":     map[string]any{"orderNumber": "PO-7", "amount": 500000, "endDate": "2024-04-20"},
	}
}

func writeCompletionTemplate(t *testing.T, dir string) {
	t.Helper()
	wb := excelize.NewFile()
	defer wb.Close()
	if err := wb.SetSheetName("Sheet1", "業務完了報告書"); err != nil {
		t.Fatalf("SetSheetName: %v", err)
	}
	if err := wb.SaveAs(filepath.Join(dir, "completion.xlsx")); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("temp dir not cleaned: %d entries", len(entries))
	}
}

func TestGenerateWithoutTemplates(t *testing.T) {
	g, _ := newGenerator(t, t.TempDir(), nil)
	for _, kind := range model.AllKinds {
		out, err := g.Generate(context.Background(), kind, sampleBag())
		if err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
		if !bytes.HasPrefix(out, []byte("%PDF")) {
			t.Fatalf("%s: not a pdf", kind)
		}
		if got := g.Path(kind); got != "freehand" {
			t.Fatalf("%s path=%s, want freehand", kind, got)
		}
	}
}

func TestGenerateUnknownKind(t *testing.T) {
	g, _ := newGenerator(t, "", nil)
	_, err := g.Generate(context.Background(), "receipt", nil)
	if !errors.Is(err, document.ErrUnknownKind) {
		t.Fatalf("err=%v, want ErrUnknownKind", err)
	}
}

func TestGenerateSpreadsheetPath(t *testing.T) {
	dir := t.TempDir()
	writeCompletionTemplate(t, dir)
	r := &fakeRasterizer{out: []byte("%PDF-1.4 rendered")}
	g, tmp := newGenerator(t, dir, r)

	out, err := g.Generate(context.Background(), model.KindCompletion, sampleBag())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if string(out) != "%PDF-1.4 rendered" {
		t.Fatalf("output not from rasterizer: %q", out)
	}
	if r.calls != 1 {
		t.Fatalf("rasterizer calls=%d, want 1", r.calls)
	}
	for _, want := range []string{"Facade Repair", "業務完了報告書", "2024/5/7", "報告先"} {
		if !strings.Contains(string(r.markup), want) {
			t.Fatalf("markup missing %q", want)
		}
	}
	assertEmptyDir(t, tmp)
}

func TestGenerateFallsBackWhenRasterizerFails(t *testing.T) {
	dir := t.TempDir()
	writeCompletionTemplate(t, dir)

	for name, r := range map[string]*fakeRasterizer{
		"error": {err: render.ErrRasterize},
		"panic": {panic: true},
		"empty": {},
	} {
		g, tmp := newGenerator(t, dir, r)
		out, err := g.Generate(context.Background(), model.KindCompletion, sampleBag())
		if err != nil {
			t.Fatalf("%s: fallback must succeed: %v", name, err)
		}
		if !bytes.HasPrefix(out, []byte("%PDF")) {
			t.Fatalf("%s: not a pdf", name)
		}
		if r.calls != 1 {
			t.Fatalf("%s: rasterizer calls=%d, want exactly 1", name, r.calls)
		}
		assertEmptyDir(t, tmp)
	}
}

func TestGenerateResultReportsProducingPath(t *testing.T) {
	dir := t.TempDir()
	writeCompletionTemplate(t, dir)

	ok := &fakeRasterizer{out: []byte("%PDF-1.4 rendered")}
	g, _ := newGenerator(t, dir, ok)
	res, err := g.GenerateResult(context.Background(), model.KindCompletion, sampleBag())
	if err != nil {
		t.Fatalf("GenerateResult: %v", err)
	}
	if res.Path != "spreadsheet" || string(res.PDF) != "%PDF-1.4 rendered" {
		t.Fatalf("path=%q pdf=%q", res.Path, res.PDF)
	}

	failing := &fakeRasterizer{err: render.ErrRasterize}
	g, _ = newGenerator(t, dir, failing)
	if planned := g.Path(model.KindCompletion); planned != "spreadsheet" {
		t.Fatalf("planned path=%q", planned)
	}
	res, err = g.GenerateResult(context.Background(), model.KindCompletion, sampleBag())
	if err != nil {
		t.Fatalf("GenerateResult: %v", err)
	}
	if res.Path != "freehand" || !bytes.HasPrefix(res.PDF, []byte("%PDF")) {
		t.Fatalf("fallback path=%q", res.Path)
	}
}

func TestGenerateFallsBackOnCorruptTemplates(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "注文書.pdf"), []byte("not a pdf"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "invoice.xlsx"), []byte("not a zip"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	r := &fakeRasterizer{out: []byte("%PDF-never")}
	g, tmp := newGenerator(t, dir, r)

	for _, kind := range []model.DocumentKind{model.KindOrder, model.KindMonthlyInvoice} {
		out, err := g.Generate(context.Background(), kind, sampleBag())
		if err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
		if !bytes.HasPrefix(out, []byte("%PDF")) || string(out) == "%PDF-never" {
			t.Fatalf("%s: expected freehand output", kind)
		}
	}
	if r.calls != 0 {
		t.Fatalf("rasterizer must not run for unreadable workbook")
	}
	assertEmptyDir(t, tmp)
}

func TestGenerateOverlayPath(t *testing.T) {
	dir := t.TempDir()
	doc := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "pt", Size: gofpdf.SizeType{Wd: 520, Ht: 760}})
	doc.AddPage()
	doc.SetFont("Helvetica", "", 10)
	doc.Text(30, 30, "ORDER TEMPLATE")
	if err := doc.OutputFileAndClose(filepath.Join(dir, "order.pdf")); err != nil {
		t.Fatalf("template: %v", err)
	}

	g, _ := newGenerator(t, dir, nil)
	if got := g.Path(model.KindOrder); got != "overlay" {
		t.Fatalf("path=%s, want overlay", got)
	}
	out, err := g.Generate(context.Background(), model.KindOrder, sampleBag())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(string(out), "520.00 760.00") {
		t.Fatalf("output does not use template page size")
	}
}

func TestGenerateConcurrent(t *testing.T) {
	g, _ := newGenerator(t, "", nil)
	var wg sync.WaitGroup
	errs := make(chan error, len(model.AllKinds)*4)
	for i := 0; i < 4; i++ {
		for _, kind := range model.AllKinds {
			wg.Add(1)
			go func(kind model.DocumentKind) {
				defer wg.Done()
				if _, err := g.Generate(context.Background(), kind, sampleBag()); err != nil {
					errs <- err
				}
			}(kind)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent generate: %v", err)
	}
}
