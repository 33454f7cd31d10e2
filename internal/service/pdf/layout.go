package pdf

import (
	"unicode/utf8"

	"github.com/jung-kurt/gofpdf"
)

const (
	margin       = 48.0
	contentWidth = pageWidth - 2*margin
	rowHeight    = 22.0
	labelWidth   = 120.0
	bottomLimit  = pageHeight - margin
)

// layout 自上而下的排版游标（y 为当前行顶部）
type layout struct {
	*pen
	y    float64
	rows int // 已绘制的明细行数
}

func newLayout(p *pen) *layout {
	return &layout{pen: p, y: margin}
}

func (l *layout) newPage() {
	l.pdf.AddPage()
	l.y = margin
}

func (l *layout) gap(h float64) {
	l.y += h
}

func (l *layout) title(s string) {
	l.font("B", 18)
	w := l.width(s)
	x := (pageWidth - w) / 2
	l.text(x, l.y+18, s)
	l.pdf.SetLineWidth(1)
	l.pdf.Line(x-8, l.y+25, x+w+8, l.y+25)
	l.y += 44
}

// rightLines 右对齐的小号文本（文书编号、日期）
func (l *layout) rightLines(lines ...string) {
	l.font("", 9)
	for _, s := range lines {
		if s != "" {
			l.text(pageWidth-margin-l.width(s), l.y+10, s)
		}
		l.y += 13
	}
}

// party 左右并排的当事人区块；左侧为收件方
func (l *layout) party(left []string, right []string) {
	top := l.y
	for i, s := range left {
		size := 9.0
		if i == 0 {
			size = 12
		}
		l.font("", size)
		l.text(margin, l.y+size, l.fit(s, contentWidth/2-12))
		l.y += size + 6
	}
	leftBottom := l.y
	l.y = top
	x := margin + contentWidth/2 + 12
	for i, s := range right {
		size := 9.0
		if i == 0 {
			size = 11
		}
		l.font("", size)
		l.text(x, l.y+size, l.fit(s, contentWidth/2-12))
		l.y += size + 6
	}
	if leftBottom > l.y {
		l.y = leftBottom
	}
	l.y += 8
}

func (l *layout) paragraph(s string) {
	l.font("", 10)
	l.text(margin, l.y+12, l.fit(s, contentWidth))
	l.y += 22
}

// field 标签 + 值的表格行
func (l *layout) field(label, value string) {
	pdf := l.pdf
	pdf.SetLineWidth(0.5)
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetFillColor(242, 242, 242)
	pdf.Rect(margin, l.y, labelWidth, rowHeight, "FD")
	pdf.Rect(margin+labelWidth, l.y, contentWidth-labelWidth, rowHeight, "D")
	l.font("", 10)
	l.text(margin+6, l.y+rowHeight-7, l.fit(label, labelWidth-12))
	l.text(margin+labelWidth+6, l.y+rowHeight-7, l.fit(value, contentWidth-labelWidth-12))
	l.y += rowHeight
}

// emphasis 大号金额行
func (l *layout) emphasis(label, value string) {
	l.font("B", 14)
	l.text(margin, l.y+16, label)
	l.text(margin+labelWidth+6, l.y+16, value)
	l.pdf.SetLineWidth(0.8)
	l.pdf.Line(margin, l.y+21, margin+contentWidth*0.6, l.y+21)
	l.y += 32
}

// seals 右下角的押印框
func (l *layout) seals(captions ...string) {
	const size = 62.0
	x := pageWidth - margin - size*float64(len(captions))
	y := l.y + 14
	if y+size+14 > bottomLimit {
		l.newPage()
		y = l.y + 14
	}
	l.pdf.SetLineWidth(0.5)
	for _, c := range captions {
		l.font("", 8)
		l.text(x+(size-l.width(c))/2, y-3, c)
		l.pdf.Rect(x, y, size, size, "D")
		l.pdf.SetTextColor(190, 190, 190)
		mark := l.label("seal")
		l.text(x+(size-l.width(mark))/2, y+size/2+3, mark)
		l.pdf.SetTextColor(0, 0, 0)
		x += size
	}
	l.y = y + size + 8
}

// fit 超宽时按字符截断并追加省略号
func (l *layout) fit(s string, maxW float64) string {
	if s == "" || l.width(s) <= maxW {
		return s
	}
	ell := "..."
	for utf8.RuneCountInString(s) > 0 {
		_, size := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-size]
		if l.width(s+ell) <= maxW {
			return s + ell
		}
	}
	return ""
}

func newDocument() *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("docforge", true)
	return pdf
}
