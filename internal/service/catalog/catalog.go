// Package catalog 文书字段位置目录：(类型, 语义字段名) → 单元格地址 | 页面坐标
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"docforge/internal/model"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

// Point PDF 底图坐标（pt，左上原点，Y 为文字基线）
type Point struct {
	X    float64 `yaml:"x"`
	Y    float64 `yaml:"y"`
	Size float64 `yaml:"size"`
}

// Entry 单个语义字段的定位
type Entry struct {
	Name  string `yaml:"name"`
	Path  string `yaml:"path"`  // 字段包中的点分路径
	Cell  string `yaml:"cell"`  // 空表示无单元格目标
	Point *Point `yaml:"point"` // nil 表示无页面坐标目标
}

// HasCell 是否有单元格目标
func (e Entry) HasCell() bool { return e.Cell != "" }

// HasPoint 是否有页面坐标目标
func (e Entry) HasPoint() bool { return e.Point != nil }

// ItemColumns 明细行各列
type ItemColumns struct {
	Index  string `yaml:"index"`
	Label  string `yaml:"label"`
	Date   string `yaml:"date"`
	Amount string `yaml:"amount"`
	Fee    string `yaml:"fee"`
}

// Items 重复明细行定义
type Items struct {
	Path     string      `yaml:"path"`
	StartRow int         `yaml:"start_row"`
	Columns  ItemColumns `yaml:"columns"`
}

// MergeRange 合并规整区域及其标签文本
type MergeRange struct {
	Range string `yaml:"range"`
	Label string `yaml:"label"`
}

// RowBand 行区间（含两端）
type RowBand struct {
	From int `yaml:"from"`
	To   int `yaml:"to"`
}

// Contains 行号是否落在区间内
func (b RowBand) Contains(row int) bool {
	return b.From > 0 && row >= b.From && row <= b.To
}

// Profile 转译时的行过滤与样式覆盖（按类型显式配置，不靠内容嗅探）
type Profile struct {
	SkipRows          []int   `yaml:"skip_rows"`
	TruncateFrom      int     `yaml:"truncate_from"` // 0 表示不截断
	LabelColumn       string  `yaml:"label_column"`
	LabelRows         RowBand `yaml:"label_rows"`
	ForceBorderRow    int     `yaml:"force_border_row"`
	SuppressBorderRow int     `yaml:"suppress_border_row"`
	LabelTint         string  `yaml:"label_tint"`

	labelCol int
}

// SkipsRow 该行（1 起）是否整行不输出
func (p *Profile) SkipsRow(row int) bool {
	if p == nil {
		return false
	}
	if p.TruncateFrom > 0 && row >= p.TruncateFrom {
		return true
	}
	for _, r := range p.SkipRows {
		if r == row {
			return true
		}
	}
	return false
}

// LabelCol 标签列序号（1 起），未配置为 0
func (p *Profile) LabelCol() int {
	if p == nil {
		return 0
	}
	return p.labelCol
}

// Kind 单一文书类型的目录行集合
type Kind struct {
	Kind    model.DocumentKind     `yaml:"-"`
	Sheet   string                 `yaml:"sheet"`
	Paths   []model.TemplateFormat `yaml:"paths"`
	Fields  []Entry                `yaml:"fields"`
	Items   *Items                 `yaml:"items"`
	Merges  []MergeRange           `yaml:"merges"`
	Profile *Profile               `yaml:"profile"`
}

// Supports 是否支持某种模板形态
func (k *Kind) Supports(f model.TemplateFormat) bool {
	for _, p := range k.Paths {
		if p == f {
			return true
		}
	}
	return false
}

// CellEntries 带单元格目标的字段
func (k *Kind) CellEntries() []Entry {
	out := make([]Entry, 0, len(k.Fields))
	for _, e := range k.Fields {
		if e.HasCell() {
			out = append(out, e)
		}
	}
	return out
}

// PointEntries 带页面坐标目标的字段
func (k *Kind) PointEntries() []Entry {
	out := make([]Entry, 0, len(k.Fields))
	for _, e := range k.Fields {
		if e.HasPoint() {
			out = append(out, e)
		}
	}
	return out
}

// Entry 按语义名查找
func (k *Kind) Entry(name string) (Entry, bool) {
	for _, e := range k.Fields {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// ItemsStartRow 明细起始行，无明细为 0
func (k *Kind) ItemsStartRow() int {
	if k.Items == nil {
		return 0
	}
	return k.Items.StartRow
}

// Catalog 全部类型的目录（加载后只读）
type Catalog struct {
	kinds map[model.DocumentKind]*Kind
}

type catalogFile struct {
	Kinds map[string]*Kind `yaml:"kinds"`
}

var defaultCatalog = mustLoad(defaultCatalogYAML)

// Default 内置目录
func Default() *Catalog {
	return defaultCatalog
}

// For 内置目录中的某类型
func For(kind model.DocumentKind) (*Kind, bool) {
	return defaultCatalog.Kind(kind)
}

func mustLoad(data []byte) *Catalog {
	c, err := Load(data)
	if err != nil {
		panic(fmt.Sprintf("catalog: invalid embedded catalog: %v", err))
	}
	return c
}

// Load 解析并校验目录
func Load(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("catalog: parse: %w", err)
	}
	c := &Catalog{kinds: make(map[model.DocumentKind]*Kind, len(file.Kinds))}
	for name, k := range file.Kinds {
		kind, err := model.ParseDocumentKind(name)
		if err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		if k == nil {
			return nil, fmt.Errorf("catalog: %s: empty definition", name)
		}
		k.Kind = kind
		if err := k.validate(); err != nil {
			return nil, fmt.Errorf("catalog: %s: %w", name, err)
		}
		c.kinds[kind] = k
	}
	return c, nil
}

// Kind 查找类型定义
func (c *Catalog) Kind(kind model.DocumentKind) (*Kind, bool) {
	if c == nil {
		return nil, false
	}
	k, ok := c.kinds[kind]
	return k, ok
}

// Kinds 已定义的全部类型（按名称排序）
func (c *Catalog) Kinds() []model.DocumentKind {
	out := make([]model.DocumentKind, 0, len(c.kinds))
	for k := range c.kinds {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (k *Kind) validate() error {
	if strings.TrimSpace(k.Sheet) == "" && k.Supports(model.FormatSpreadsheet) {
		return errors.New("spreadsheet path requires a sheet name")
	}
	for _, p := range k.Paths {
		if p != model.FormatPageImage && p != model.FormatSpreadsheet {
			return fmt.Errorf("unknown path %q", p)
		}
	}

	seen := make(map[string]struct{}, len(k.Fields))
	for _, e := range k.Fields {
		if e.Name == "" || e.Path == "" {
			return fmt.Errorf("field without name/path: %+v", e)
		}
		if _, dup := seen[e.Name]; dup {
			return fmt.Errorf("duplicate field %q", e.Name)
		}
		seen[e.Name] = struct{}{}

		if k.Supports(model.FormatSpreadsheet) && !e.HasCell() {
			return fmt.Errorf("field %q has no cell address", e.Name)
		}
		if k.Supports(model.FormatPageImage) && !e.HasPoint() {
			return fmt.Errorf("field %q has no page point", e.Name)
		}
		if e.HasCell() {
			if _, _, err := excelize.CellNameToCoordinates(e.Cell); err != nil {
				return fmt.Errorf("field %q: %w", e.Name, err)
			}
		}
		if e.HasPoint() && e.Point.Size <= 0 {
			return fmt.Errorf("field %q: point size must be positive", e.Name)
		}
	}

	if k.Items != nil {
		if k.Items.StartRow <= 0 {
			return errors.New("items.start_row must be positive")
		}
		if k.Items.Path == "" {
			k.Items.Path = "items"
		}
		cols := k.Items.Columns
		for _, col := range []string{cols.Index, cols.Label, cols.Date, cols.Amount, cols.Fee} {
			if col == "" {
				continue
			}
			if _, err := excelize.ColumnNameToNumber(col); err != nil {
				return fmt.Errorf("items column: %w", err)
			}
		}
	}

	for _, m := range k.Merges {
		if _, _, _, _, err := ParseRange(m.Range); err != nil {
			return err
		}
	}

	if k.Profile != nil && k.Profile.LabelColumn != "" {
		n, err := excelize.ColumnNameToNumber(k.Profile.LabelColumn)
		if err != nil {
			return fmt.Errorf("profile.label_column: %w", err)
		}
		k.Profile.labelCol = n
	}

	return nil
}

// ParseRange 解析 "A1:H1" 形式的区域，返回左上与右下坐标（1 起）
func ParseRange(ref string) (col1, row1, col2, row2 int, err error) {
	parts := strings.Split(strings.TrimSpace(ref), ":")
	if len(parts) != 2 {
		return 0, 0, 0, 0, fmt.Errorf("invalid range %q", ref)
	}
	col1, row1, err = excelize.CellNameToCoordinates(parts[0])
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("invalid range %q: %w", ref, err)
	}
	col2, row2, err = excelize.CellNameToCoordinates(parts[1])
	if err != nil {
		return 0, 0, 0, 0, fmt.Errorf("invalid range %q: %w", ref, err)
	}
	if col2 < col1 {
		col1, col2 = col2, col1
	}
	if row2 < row1 {
		row1, row2 = row2, row1
	}
	return col1, row1, col2, row2, nil
}
