package document

import (
	"context"
	"fmt"
	"os"

	"docforge/internal/model"
	"docforge/internal/service/catalog"
	"docforge/internal/service/excel"
	"docforge/internal/service/pdf"
)

// path 三种生成路径的封闭集合，只能由 choosePath 产生
type path interface {
	name() string
	run(ctx context.Context, g *Generator, req model.DocumentRequest, kind *catalog.Kind) ([]byte, error)
}

// overlayPath PDF 底图叠字
type overlayPath struct{ file string }

// spreadsheetPath xlsx 填充 → 转译 → 栅格化
type spreadsheetPath struct{ file string }

// freehandPath 无模板自由绘制
type freehandPath struct{}

func (overlayPath) name() string     { return "overlay" }
func (spreadsheetPath) name() string { return "spreadsheet" }
func (freehandPath) name() string    { return "freehand" }

func (p overlayPath) run(_ context.Context, g *Generator, req model.DocumentRequest, _ *catalog.Kind) ([]byte, error) {
	data, err := os.ReadFile(p.file)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageTemplate, err)
	}
	return pdf.Overlay(data, req, g.fonts)
}

func (p spreadsheetPath) run(ctx context.Context, g *Generator, req model.DocumentRequest, kind *catalog.Kind) ([]byte, error) {
	if g.rasterizer == nil {
		return nil, fmt.Errorf("%w: no rasterizer configured", ErrRasterize)
	}

	tmp, err := excel.CopyToTemp(p.file, g.tempDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateRead, err)
	}
	defer func() {
		if err := os.Remove(tmp); err != nil && !os.IsNotExist(err) {
			logf("[WARN] 删除临时工作簿 %s 失败: %v", tmp, err)
		}
	}()

	wb, err := excel.OpenTemplate(tmp)
	if err != nil {
		return nil, err
	}
	defer wb.Close()

	filler, err := excel.NewFiller(wb, kind)
	if err != nil {
		return nil, err
	}
	if err := filler.Fill(req.Fields); err != nil {
		return nil, err
	}
	markup, err := excel.Transpile(wb, filler.Sheet(), kind.Profile)
	if err != nil {
		return nil, err
	}
	return g.rasterizer.Rasterize(ctx, markup)
}

func (freehandPath) run(_ context.Context, g *Generator, req model.DocumentRequest, _ *catalog.Kind) ([]byte, error) {
	return pdf.Compose(req, g.fonts)
}
