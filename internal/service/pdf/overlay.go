package pdf

import (
	"bytes"
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
	"github.com/jung-kurt/gofpdf/contrib/gofpdi"

	"docforge/internal/model"
	"docforge/internal/service/catalog"
	"docforge/internal/service/fields"
)

// Overlay 在底图第一页上按目录坐标叠加字段文本
//
// 坐标单位为 pt，原点左上，y 为文字基线；解析为空的字段不绘制。
func Overlay(templateBytes []byte, req model.DocumentRequest, fonts Fonts) (out []byte, err error) {
	kind, ok := catalog.For(req.Kind)
	if !ok {
		return nil, fmt.Errorf("overlay: no catalog for %s", req.Kind)
	}
	if len(templateBytes) == 0 {
		return nil, fmt.Errorf("%w: empty template", ErrTemplateRead)
	}

	// gofpdi 解析失败时直接 panic
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%w: %v", ErrTemplateRead, r)
		}
	}()

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	imp := gofpdi.NewImporter()

	var rs io.ReadSeeker = bytes.NewReader(templateBytes)
	tplID := imp.ImportPageFromStream(pdf, &rs, 1, "/MediaBox")
	w, h := pageWidth, pageHeight
	if dims, ok := imp.GetPageSizes()[1]; ok {
		if mb, ok := dims["/MediaBox"]; ok && mb["w"] > 0 && mb["h"] > 0 {
			w, h = mb["w"], mb["h"]
		}
	}

	pdf.AddPageFormat("P", gofpdf.SizeType{Wd: w, Ht: h})
	imp.UseImportedTemplate(pdf, tplID, 0, 0, w, h)

	p := fonts.newPen(pdf)
	pdf.SetTextColor(0, 0, 0)
	for _, e := range kind.PointEntries() {
		v := fields.Resolve(req.Fields, e.Path)
		if v == "" {
			continue
		}
		p.font("", e.Point.Size)
		p.text(e.Point.X, e.Point.Y, v)
	}

	if pdf.Err() {
		return nil, fmt.Errorf("%w: %v", ErrTemplateRead, pdf.Error())
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("overlay: write: %w", err)
	}
	return buf.Bytes(), nil
}
