package excel

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"docforge/internal/model"
	"docforge/internal/service/catalog"
	"docforge/internal/service/fields"
)

// Filler 表格模板填充器：按目录坐标写值，保留模板样式/合并/列宽
type Filler struct {
	wb    *excelize.File
	sheet string
	kind  *catalog.Kind
}

// NewFiller 创建填充器
func NewFiller(wb *excelize.File, kind *catalog.Kind) (*Filler, error) {
	if wb == nil {
		return nil, errors.New("workbook is nil")
	}
	if kind == nil {
		return nil, errors.New("catalog kind is nil")
	}
	sheet, err := ResolveSheet(wb, kind.Sheet)
	if err != nil {
		return nil, err
	}
	return &Filler{wb: wb, sheet: sheet, kind: kind}, nil
}

// Sheet 实际填充的工作表
func (f *Filler) Sheet() string {
	return f.sheet
}

// Fill 写入全部字段与明细行；completion 额外执行合并规整
func (f *Filler) Fill(bag model.Fields) error {
	for _, e := range f.kind.CellEntries() {
		raw, _ := fields.Lookup(bag, e.Path)
		if err := f.put(e.Cell, raw); err != nil {
			return fmt.Errorf("写入 %s!%s (%s) 失败: %w", f.sheet, e.Cell, e.Name, err)
		}
	}

	if f.kind.ItemsStartRow() > 0 {
		if err := f.fillItems(fields.Items(bag, f.kind.Items.Path)); err != nil {
			return err
		}
	}

	if f.kind.Kind == model.KindCompletion {
		if err := f.NormalizeMerges(); err != nil {
			return err
		}
	}
	return nil
}

// fillItems 从起始行开始逐行写入明细（序号/摘要/日期/金额/手数料）
//
// 超出模板预置行时，沿用上一行同列的样式；上一行也无样式则为默认样式。
func (f *Filler) fillItems(items []model.LineItem) error {
	start := f.kind.Items.StartRow
	cols := f.kind.Items.Columns
	for i, it := range items {
		row := start + i
		values := []struct {
			col string
			v   any
		}{
			{cols.Index, i + 1},
			{cols.Label, it.Label},
			{cols.Date, it.Date},
			{cols.Amount, it.Amount},
			{cols.Fee, it.Fee},
		}
		for _, cv := range values {
			if cv.col == "" {
				continue
			}
			axis := cv.col + strconv.Itoa(row)
			if i > 0 {
				if err := f.inheritStyle(cv.col, row); err != nil {
					return err
				}
			}
			if err := f.put(axis, cv.v); err != nil {
				return fmt.Errorf("写入明细 %s!%s 失败: %w", f.sheet, axis, err)
			}
		}
	}
	return nil
}

// put 数值写入带数字格式的单元格时保持数值，由单元格格式负责显示；
// 其余情况写入已格式化的文本（千分位、日历日期），单元格样式不变。
func (f *Filler) put(axis string, raw any) error {
	if n, ok := fields.Numeric(raw); ok {
		formatted, err := f.hasNumberFormat(axis)
		if err != nil {
			return err
		}
		if formatted {
			return f.wb.SetCellValue(f.sheet, axis, n)
		}
	}
	return f.wb.SetCellValue(f.sheet, axis, fields.Format(raw))
}

func (f *Filler) hasNumberFormat(axis string) (bool, error) {
	styleID, err := f.wb.GetCellStyle(f.sheet, axis)
	if err != nil || styleID == 0 {
		return false, err
	}
	st, err := f.wb.GetStyle(styleID)
	if err != nil {
		return false, err
	}
	return st.NumFmt != 0 || (st.CustomNumFmt != nil && *st.CustomNumFmt != ""), nil
}

func (f *Filler) inheritStyle(col string, row int) error {
	axis := col + strconv.Itoa(row)
	styleID, err := f.wb.GetCellStyle(f.sheet, axis)
	if err != nil {
		return err
	}
	if styleID != 0 {
		return nil
	}
	prevID, err := f.wb.GetCellStyle(f.sheet, col+strconv.Itoa(row-1))
	if err != nil || prevID == 0 {
		return err
	}
	return f.wb.SetCellStyle(f.sheet, axis, axis, prevID)
}

// NormalizeMerges 强制重建固定标签区域的合并并覆写标签
//
// 已有合并只要与目标区域相交就先解除，因此同一工作簿上重复执行结果不变。
func (f *Filler) NormalizeMerges() error {
	for _, m := range f.kind.Merges {
		c1, r1, c2, r2, err := catalog.ParseRange(m.Range)
		if err != nil {
			return err
		}
		topLeft, _ := excelize.CoordinatesToCellName(c1, r1)
		bottomRight, _ := excelize.CoordinatesToCellName(c2, r2)

		existing, err := f.wb.GetMergeCells(f.sheet)
		if err != nil {
			return fmt.Errorf("读取 %s 合并单元格失败: %w", f.sheet, err)
		}
		for _, mc := range existing {
			ec1, er1, ec2, er2, err := catalog.ParseRange(mc.GetStartAxis() + ":" + mc.GetEndAxis())
			if err != nil {
				continue
			}
			if !rectsOverlap(c1, r1, c2, r2, ec1, er1, ec2, er2) {
				continue
			}
			if err := f.wb.UnmergeCell(f.sheet, mc.GetStartAxis(), mc.GetEndAxis()); err != nil {
				return fmt.Errorf("解除合并 %s:%s 失败: %w", mc.GetStartAxis(), mc.GetEndAxis(), err)
			}
		}

		if c1 != c2 || r1 != r2 {
			if err := f.wb.MergeCell(f.sheet, topLeft, bottomRight); err != nil {
				return fmt.Errorf("合并 %s 失败: %w", m.Range, err)
			}
		}
		if err := f.wb.SetCellValue(f.sheet, topLeft, m.Label); err != nil {
			return err
		}
	}
	return nil
}

func rectsOverlap(ac1, ar1, ac2, ar2, bc1, br1, bc2, br2 int) bool {
	return ac1 <= bc2 && bc1 <= ac2 && ar1 <= br2 && br1 <= ar2
}
