package excel

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"html/template"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"docforge/internal/model"
	"docforge/internal/service/catalog"
)

// 字号阈值：≥14 为 lg，≥18 为 xl
const (
	fontSizeLarge  = 14
	fontSizeXLarge = 18
)

// PageFontFamily 转译页面的基础字体
const PageFontFamily = `"Noto Sans JP", "IPAexGothic", "Hiragino Kaku Gothic ProN", "Yu Gothic", sans-serif`

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="ja">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
@page { size: A4 portrait; margin: 10mm; }
html, body { margin: 0; padding: 0; }
body { font-family: {{.FontFamily}}; font-size: 10.5pt; color: #000; -webkit-print-color-adjust: exact; print-color-adjust: exact; }
table.sheet { width: 100%; border-collapse: collapse; table-layout: fixed; }
table.sheet td { padding: 1px 3px; overflow: hidden; white-space: pre-wrap; word-break: break-all; }
.al-left { text-align: left; } .al-center { text-align: center; } .al-right { text-align: right; }
.va-top { vertical-align: top; } .va-middle { vertical-align: middle; } .va-bottom { vertical-align: bottom; }
.b { font-weight: bold; } .lg { font-size: 14pt; } .xl { font-size: 18pt; }
{{.ColumnRules}}
</style>
</head>
<body>
<table class="sheet">
<colgroup>{{range .ColumnClasses}}<col class="{{.}}">{{end}}</colgroup>
<tbody>
{{.Rows}}</tbody>
</table>
</body>
</html>
`))

type pageData struct {
	Title         string
	FontFamily    template.CSS
	ColumnRules   template.CSS
	ColumnClasses []string
	Rows          template.HTML
}

type span struct {
	row, col   int // 输出位置（第一个未被过滤的行）
	anchorRow  int // 取值/取样式的真实锚点
	rows, cols int
}

type cellKey struct{ row, col int }

// Transpile 把填充后的工作表转译为单页 HTML 表格
//
// 合并区域只输出锚点一格（带 rowspan/colspan），其余被覆盖的格子不输出；
// 列宽按声明宽度归一化为页面宽度百分比；profile 控制整行过滤与样式覆盖。
func Transpile(wb *excelize.File, sheet string, profile *catalog.Profile) (model.Markup, error) {
	if wb == nil {
		return "", errors.New("workbook is nil")
	}

	rows, err := wb.GetRows(sheet)
	if err != nil {
		return "", fmt.Errorf("读取 %s 行失败: %w", sheet, err)
	}
	merges, err := wb.GetMergeCells(sheet)
	if err != nil {
		return "", fmt.Errorf("读取 %s 合并单元格失败: %w", sheet, err)
	}

	maxRow, maxCol := gridExtent(wb, sheet, rows, merges)
	if maxRow == 0 || maxCol == 0 {
		maxRow, maxCol = 1, 1
	}

	anchors, skip := mergeLayout(merges, profile)

	widths := make([]float64, maxCol)
	for c := 1; c <= maxCol; c++ {
		name, _ := excelize.ColumnNumberToName(c)
		w, err := wb.GetColWidth(sheet, name)
		if err != nil {
			return "", fmt.Errorf("读取 %s 列宽失败: %w", name, err)
		}
		widths[c-1] = w
	}
	ratios := ColumnRatios(widths)

	var colRules strings.Builder
	classes := make([]string, maxCol)
	for i, r := range ratios {
		classes[i] = "c" + strconv.Itoa(i)
		fmt.Fprintf(&colRules, "col.c%d { width: %s%%; }\n", i, formatPercent(r))
	}

	styles := newStyleCache(wb)
	var body strings.Builder
	for r := 1; r <= maxRow; r++ {
		if profile.SkipsRow(r) {
			continue
		}
		height, _ := wb.GetRowHeight(sheet, r)
		fmt.Fprintf(&body, `<tr data-row="%d" style="height: %spt">`, r, trimFloat(height))
		for c := 1; c <= maxCol; c++ {
			key := cellKey{r, c}
			if skip[key] {
				continue
			}
			src := key
			sp, merged := anchors[key]
			if merged {
				src = cellKey{sp.anchorRow, c}
			}
			style, err := styles.cellStyle(sheet, src.row, src.col)
			if err != nil {
				return "", err
			}
			applyProfile(&style, profile, r, c)

			axis, _ := excelize.CoordinatesToCellName(src.col, src.row)
			body.WriteString(`<td data-ref="`)
			body.WriteString(axis)
			body.WriteString(`"`)
			if merged && sp.rows > 1 {
				fmt.Fprintf(&body, ` rowspan="%d"`, sp.rows)
			}
			if merged && sp.cols > 1 {
				fmt.Fprintf(&body, ` colspan="%d"`, sp.cols)
			}
			body.WriteString(` class="`)
			body.WriteString(style.classes())
			body.WriteString(`"`)
			if css := style.inline(); css != "" {
				body.WriteString(` style="`)
				body.WriteString(html.EscapeString(css))
				body.WriteString(`"`)
			}
			body.WriteString(`>`)
			body.WriteString(cellText(rows, src.row, src.col))
			body.WriteString("</td>")
		}
		body.WriteString("</tr>\n")
	}

	var out bytes.Buffer
	err = pageTemplate.Execute(&out, pageData{
		Title:         sheet,
		FontFamily:    template.CSS(PageFontFamily),
		ColumnRules:   template.CSS(colRules.String()),
		ColumnClasses: classes,
		Rows:          template.HTML(body.String()),
	})
	if err != nil {
		return "", fmt.Errorf("render markup: %w", err)
	}
	return model.Markup(out.String()), nil
}

// ColumnRatios 各列宽度占比（百分比，总和为 100）；总宽为 0 时均分
func ColumnRatios(widths []float64) []float64 {
	out := make([]float64, len(widths))
	if len(widths) == 0 {
		return out
	}
	total := 0.0
	for _, w := range widths {
		if w > 0 {
			total += w
		}
	}
	for i, w := range widths {
		if total <= 0 {
			out[i] = 100.0 / float64(len(widths))
			continue
		}
		if w < 0 {
			w = 0
		}
		out[i] = w / total * 100.0
	}
	return out
}

func gridExtent(wb *excelize.File, sheet string, rows [][]string, merges []excelize.MergeCell) (maxRow, maxCol int) {
	maxRow = len(rows)
	for _, r := range rows {
		if len(r) > maxCol {
			maxCol = len(r)
		}
	}
	for _, mc := range merges {
		_, _, c2, r2, err := catalog.ParseRange(mc.GetStartAxis() + ":" + mc.GetEndAxis())
		if err != nil {
			continue
		}
		maxRow = max(maxRow, r2)
		maxCol = max(maxCol, c2)
	}
	if dim, err := wb.GetSheetDimension(sheet); err == nil && dim != "" {
		if _, _, c2, r2, err := catalog.ParseRange(dim); err == nil {
			maxRow = max(maxRow, r2)
			maxCol = max(maxCol, c2)
		}
	}
	return maxRow, maxCol
}

// mergeLayout 计算锚点跨度与跳过集合
//
// 锚点行被 profile 过滤时，输出位置顺延到区域内第一个保留行，rowspan 只计保留行。
func mergeLayout(merges []excelize.MergeCell, profile *catalog.Profile) (map[cellKey]span, map[cellKey]bool) {
	anchors := make(map[cellKey]span, len(merges))
	skip := make(map[cellKey]bool)
	for _, mc := range merges {
		c1, r1, c2, r2, err := catalog.ParseRange(mc.GetStartAxis() + ":" + mc.GetEndAxis())
		if err != nil {
			continue
		}
		emitRow, kept := 0, 0
		for r := r1; r <= r2; r++ {
			if profile.SkipsRow(r) {
				continue
			}
			if emitRow == 0 {
				emitRow = r
			}
			kept++
		}
		for r := r1; r <= r2; r++ {
			for c := c1; c <= c2; c++ {
				if r == emitRow && c == c1 {
					continue
				}
				skip[cellKey{r, c}] = true
			}
		}
		if emitRow == 0 {
			continue
		}
		anchors[cellKey{emitRow, c1}] = span{
			row:       emitRow,
			col:       c1,
			anchorRow: r1,
			rows:      kept,
			cols:      c2 - c1 + 1,
		}
	}
	return anchors, skip
}

func cellText(rows [][]string, row, col int) string {
	if row-1 >= len(rows) || col-1 >= len(rows[row-1]) {
		return ""
	}
	v := html.EscapeString(rows[row-1][col-1])
	return strings.ReplaceAll(v, "\n", "<br>")
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(math.Round(v*10000)/10000, 'f', -1, 64)
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
