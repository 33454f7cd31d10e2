package pdf

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/jung-kurt/gofpdf"

	"docforge/internal/model"
)

func templatePDF(t *testing.T, w, h float64) []byte {
	t.Helper()
	doc := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "pt", Size: gofpdf.SizeType{Wd: w, Ht: h}})
	doc.AddPage()
	doc.SetFont("Helvetica", "", 8)
	doc.Text(20, 20, "TEMPLATE")
	doc.Rect(10, 10, w-20, h-20, "D")
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		t.Fatalf("template: %v", err)
	}
	return buf.Bytes()
}

func TestOverlayKeepsTemplatePageSize(t *testing.T) {
	tpl := templatePDF(t, 500, 700)
	req := model.DocumentRequest{Kind: model.KindOrder, Fields: sampleBag()}
	out, err := Overlay(tpl, req, Fonts{})
	if err != nil {
		t.Fatalf("Overlay: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("not a pdf")
	}
	if !strings.Contains(string(out), "500.00 700.00") {
		t.Fatalf("page size not taken from template")
	}
}

func TestOverlayCorruptTemplate(t *testing.T) {
	req := model.DocumentRequest{Kind: model.KindCompletion, Fields: sampleBag()}
	for name, tpl := range map[string][]byte{"empty": nil, "garbage": []byte("%PDF-1.4 garbage")} {
		if _, err := Overlay(tpl, req, Fonts{}); !errors.Is(err, ErrTemplateRead) {
			t.Fatalf("%s: err=%v, want ErrTemplateRead", name, err)
		}
	}
}
