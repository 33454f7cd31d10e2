// Package template 模板定位：按类型在固定目录中查找 PDF 底图或 xlsx 模板
package template

import (
	"os"
	"path/filepath"
	"strings"

	"docforge/internal/model"
)

// Location 定位结果
type Location struct {
	Path   string               `json:"path"`
	Format model.TemplateFormat `json:"format"`
}

// 候选文件名（不含扩展名），按优先级排列
var candidateNames = map[model.DocumentKind][]string{
	model.KindOrder:           {"order", "注文書", "purchase_order"},
	model.KindOrderAcceptance: {"order_acceptance", "注文請書", "order-acceptance"},
	model.KindCompletion:      {"completion", "業務完了報告書", "completion_report"},
	model.KindMonthlyInvoice:  {"monthly_invoice", "請求書", "invoice"},
}

var formatExtensions = []struct {
	format model.TemplateFormat
	exts   []string
}{
	{model.FormatPageImage, []string{".pdf", ".PDF"}},
	{model.FormatSpreadsheet, []string{".xlsx", ".XLSX"}},
}

// Locator 模板定位器
type Locator struct {
	Dir string
}

// NewLocator 创建定位器；dir 为空时永远找不到模板（走自由绘制）
func NewLocator(dir string) *Locator {
	return &Locator{Dir: strings.TrimSpace(dir)}
}

// Candidates 某类型的全部候选路径（底图全部排在表格之前）
func (l *Locator) Candidates(kind model.DocumentKind) []Location {
	if l == nil || l.Dir == "" {
		return nil
	}
	names := candidateNames[kind]
	out := make([]Location, 0, len(names)*4)
	for _, fe := range formatExtensions {
		for _, name := range names {
			for _, ext := range fe.exts {
				out = append(out, Location{
					Path:   filepath.Join(l.Dir, name+ext),
					Format: fe.format,
				})
			}
		}
	}
	return out
}

// Locate 返回第一个存在的候选；没有则 ok=false
//
// 只检查文件是否存在，内容形态由字段目录约定。
func (l *Locator) Locate(kind model.DocumentKind) (Location, bool) {
	for _, c := range l.Candidates(kind) {
		info, err := os.Stat(c.Path)
		if err != nil || info.IsDir() {
			continue
		}
		return c, true
	}
	return Location{}, false
}
