package model

import (
	"fmt"
	"strings"
)

// DocumentKind 文书类型
type DocumentKind string

const (
	KindOrder           DocumentKind = "order"            // 注文書
	KindOrderAcceptance DocumentKind = "order_acceptance" // 注文請書
	KindCompletion      DocumentKind = "completion"       // 業務完了報告書
	KindMonthlyInvoice  DocumentKind = "monthly_invoice"  // 月次請求書
)

// AllKinds 全部文书类型（固定顺序）
var AllKinds = []DocumentKind{
	KindOrder,
	KindOrderAcceptance,
	KindCompletion,
	KindMonthlyInvoice,
}

// ParseDocumentKind 解析文书类型，兼容连字符写法（order-acceptance）
func ParseDocumentKind(s string) (DocumentKind, error) {
	k := DocumentKind(strings.ReplaceAll(strings.TrimSpace(strings.ToLower(s)), "-", "_"))
	if k.Valid() {
		return k, nil
	}
	return "", fmt.Errorf("unknown document kind: %q", s)
}

// Valid 是否为已知类型
func (k DocumentKind) Valid() bool {
	for _, v := range AllKinds {
		if v == k {
			return true
		}
	}
	return false
}

// Fields 字段包：由调用方从数据库记录组装的松散嵌套结构
type Fields map[string]any

// Clone 浅层递归复制 map 部分，切片元素共享
func (f Fields) Clone() Fields {
	return Fields(cloneMap(f))
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch t := v.(type) {
		case map[string]any:
			out[k] = cloneMap(t)
		case Fields:
			out[k] = cloneMap(t)
		default:
			out[k] = v
		}
	}
	return out
}

// Set 按点分路径写入（中间层不存在时创建）
func (f Fields) Set(path string, value any) {
	parts := strings.Split(path, ".")
	cur := map[string]any(f)
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p].(map[string]any)
		if !ok {
			if fv, isFields := cur[p].(Fields); isFields {
				next = fv
			} else {
				next = map[string]any{}
				cur[p] = next
			}
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
}

// DocumentRequest 单次生成请求
type DocumentRequest struct {
	Kind   DocumentKind
	Fields Fields
}

// LineItem 月次請求書明细行
type LineItem struct {
	Label  string  `json:"label"`
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
	Fee    float64 `json:"fee"`
}

// Markup 由工作表转译得到的单页 HTML 文档，仅被栅格化消费一次
type Markup string

// TemplateFormat 模板文件形态
type TemplateFormat string

const (
	FormatPageImage   TemplateFormat = "page_image"  // PDF 单页底图
	FormatSpreadsheet TemplateFormat = "spreadsheet" // xlsx 网格模板
)
