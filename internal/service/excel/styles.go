package excel

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"docforge/internal/service/catalog"
)

// cellLook 单元格的可视化属性（转译用）
type cellLook struct {
	hAlign   string
	vAlign   string
	bold     bool
	size     float64
	color    string
	fill     string
	borders  [4]string // top right bottom left
	noBorder bool
}

var sideNames = [4]string{"top", "right", "bottom", "left"}

func (l cellLook) classes() string {
	parts := []string{"al-" + l.hAlign, "va-" + l.vAlign}
	if l.bold {
		parts = append(parts, "b")
	}
	switch {
	case l.size >= fontSizeXLarge:
		parts = append(parts, "xl")
	case l.size >= fontSizeLarge:
		parts = append(parts, "lg")
	}
	return strings.Join(parts, " ")
}

func (l cellLook) inline() string {
	var parts []string
	if l.fill != "" {
		parts = append(parts, "background-color: "+l.fill)
	}
	if l.color != "" && l.color != "#000000" {
		parts = append(parts, "color: "+l.color)
	}
	for i, b := range l.borders {
		if l.noBorder {
			break
		}
		if b != "" {
			parts = append(parts, fmt.Sprintf("border-%s: %s", sideNames[i], b))
		}
	}
	if l.noBorder {
		parts = append(parts, "border: none")
	}
	return strings.Join(parts, "; ")
}

// styleCache 按样式 ID 缓存解析结果
type styleCache struct {
	wb   *excelize.File
	seen map[int]cellLook
}

func newStyleCache(wb *excelize.File) *styleCache {
	return &styleCache{wb: wb, seen: make(map[int]cellLook)}
}

func (s *styleCache) cellStyle(sheet string, row, col int) (cellLook, error) {
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return cellLook{}, err
	}
	id, err := s.wb.GetCellStyle(sheet, axis)
	if err != nil {
		return cellLook{}, fmt.Errorf("读取 %s 样式失败: %w", axis, err)
	}
	if look, ok := s.seen[id]; ok {
		return look, nil
	}
	look := cellLook{hAlign: "left", vAlign: "middle"}
	if id != 0 {
		st, err := s.wb.GetStyle(id)
		if err != nil {
			return cellLook{}, fmt.Errorf("读取样式 %d 失败: %w", id, err)
		}
		look = lookFromStyle(st)
	}
	s.seen[id] = look
	return look, nil
}

func lookFromStyle(st *excelize.Style) cellLook {
	look := cellLook{hAlign: "left", vAlign: "middle"}
	if st == nil {
		return look
	}
	if a := st.Alignment; a != nil {
		switch a.Horizontal {
		case "center", "centerContinuous":
			look.hAlign = "center"
		case "right":
			look.hAlign = "right"
		}
		switch a.Vertical {
		case "top":
			look.vAlign = "top"
		case "bottom":
			look.vAlign = "bottom"
		}
	}
	if f := st.Font; f != nil {
		look.bold = f.Bold
		look.size = f.Size
		look.color = NormalizeColor(f.Color)
	}
	if st.Fill.Type == "pattern" && st.Fill.Pattern == 1 && len(st.Fill.Color) > 0 {
		look.fill = NormalizeColor(st.Fill.Color[0])
	}
	for _, b := range st.Border {
		idx := borderSide(b.Type)
		if idx < 0 || b.Style == 0 {
			continue
		}
		color := NormalizeColor(b.Color)
		if color == "" {
			color = "#000000"
		}
		look.borders[idx] = fmt.Sprintf("%dpx %s %s", BorderWidth(b.Style), BorderLine(b.Style), color)
	}
	return look
}

func borderSide(t string) int {
	switch t {
	case "top":
		return 0
	case "right":
		return 1
	case "bottom":
		return 2
	case "left":
		return 3
	}
	return -1
}

// BorderWidth excelize 边框样式号对应的像素宽度（细 1 / 中 2 / 粗 3）
func BorderWidth(style int) int {
	switch style {
	case 2, 8, 10, 12, 13:
		return 2
	case 5, 6:
		return 3
	default:
		return 1
	}
}

// BorderLine 边框样式号对应的 CSS 线型
func BorderLine(style int) string {
	switch style {
	case 3, 8:
		return "dashed"
	case 4, 7:
		return "dotted"
	case 6:
		return "double"
	default:
		return "solid"
	}
}

// NormalizeColor "FFRRGGBB" / "RRGGBB" / "#RRGGBB" → "#RRGGBB"；无法识别返回空
func NormalizeColor(c string) string {
	c = strings.TrimPrefix(strings.TrimSpace(c), "#")
	if len(c) == 8 {
		c = c[2:]
	}
	if len(c) != 6 {
		return ""
	}
	for _, r := range c {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return ""
		}
	}
	return "#" + strings.ToUpper(c)
}

// applyProfile 按类型配置覆盖样式
func applyProfile(look *cellLook, p *catalog.Profile, row, col int) {
	if p == nil {
		return
	}
	if lc := p.LabelCol(); lc > 0 && col == lc && p.LabelRows.Contains(row) {
		look.hAlign = "center"
		if p.LabelTint != "" {
			look.fill = p.LabelTint
		}
	}
	if p.ForceBorderRow > 0 && row == p.ForceBorderRow {
		for i := range look.borders {
			look.borders[i] = "1px solid #000"
		}
	}
	if p.SuppressBorderRow > 0 && row == p.SuppressBorderRow {
		look.borders = [4]string{}
		look.noBorder = true
	}
}
