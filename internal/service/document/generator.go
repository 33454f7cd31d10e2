// Package document 文书生成入口：定位模板、选择路径、失败时回退到自由绘制
package document

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"docforge/internal/model"
	"docforge/internal/service/catalog"
	"docforge/internal/service/pdf"
	"docforge/internal/service/render"
	"docforge/internal/service/template"
)

var logf = log.Printf

// Options 生成器依赖
type Options struct {
	Locator    *template.Locator
	Catalog    *catalog.Catalog
	Rasterizer render.Rasterizer
	Fonts      pdf.Fonts
	TempDir    string
	Now        func() time.Time
}

// Generator 文书生成器；无共享可变状态，可并发调用
type Generator struct {
	locator    *template.Locator
	catalog    *catalog.Catalog
	rasterizer render.Rasterizer
	fonts      pdf.Fonts
	tempDir    string
	now        func() time.Time
}

// NewGenerator 创建生成器；未指定的依赖取默认值
func NewGenerator(opts Options) *Generator {
	g := &Generator{
		locator:    opts.Locator,
		catalog:    opts.Catalog,
		rasterizer: opts.Rasterizer,
		fonts:      opts.Fonts,
		tempDir:    opts.TempDir,
		now:        opts.Now,
	}
	if g.locator == nil {
		g.locator = template.NewLocator("")
	}
	if g.catalog == nil {
		g.catalog = catalog.Default()
	}
	if g.tempDir == "" {
		g.tempDir = os.TempDir()
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g
}

// Result 一次生成的结果
type Result struct {
	PDF  []byte
	Path string // 实际产出文书的路径（overlay / spreadsheet / freehand）
}

// Generate 生成一份 PDF 文书
func (g *Generator) Generate(ctx context.Context, kind model.DocumentKind, bag model.Fields) ([]byte, error) {
	res, err := g.GenerateResult(ctx, kind, bag)
	if err != nil {
		return nil, err
	}
	return res.PDF, nil
}

// GenerateResult 生成文书并返回实际使用的路径
//
// 模板路径的任何失败（含 panic）都只记录日志，并且只回退一次到自由绘制；
// 自由绘制的错误原样返回。
func (g *Generator) GenerateResult(ctx context.Context, kind model.DocumentKind, bag model.Fields) (Result, error) {
	def, ok := g.catalog.Kind(kind)
	if !kind.Valid() || !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	req := model.DocumentRequest{Kind: kind, Fields: Enrich(kind, bag, g.now())}

	p := g.choosePath(def)
	if _, free := p.(freehandPath); !free {
		out, err := g.runGuarded(ctx, p, req, def)
		if err == nil {
			return Result{PDF: out, Path: p.name()}, nil
		}
		logf("[WARN] %s 走 %s 路径失败，改为自由绘制: %v", kind, p.name(), err)
	}
	fallback := freehandPath{}
	out, err := fallback.run(ctx, g, req, def)
	if err != nil {
		return Result{}, err
	}
	return Result{PDF: out, Path: fallback.name()}, nil
}

// Path 返回某类型按当前模板目录计划使用的路径名；实际结果以 GenerateResult 为准
func (g *Generator) Path(kind model.DocumentKind) string {
	def, ok := g.catalog.Kind(kind)
	if !ok {
		return ""
	}
	return g.choosePath(def).name()
}

func (g *Generator) choosePath(def *catalog.Kind) path {
	loc, ok := g.locator.Locate(def.Kind)
	if !ok || !def.Supports(loc.Format) {
		return freehandPath{}
	}
	switch loc.Format {
	case model.FormatPageImage:
		return overlayPath{file: loc.Path}
	case model.FormatSpreadsheet:
		return spreadsheetPath{file: loc.Path}
	}
	return freehandPath{}
}

func (g *Generator) runGuarded(ctx context.Context, p path, req model.DocumentRequest, def *catalog.Kind) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("%s path panic: %v", p.name(), r)
		}
	}()
	out, err = p.run(ctx, g, req, def)
	if err == nil && len(out) == 0 {
		err = fmt.Errorf("%s path produced no output", p.name())
	}
	return out, err
}
