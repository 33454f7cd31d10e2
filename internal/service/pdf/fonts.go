// Package pdf 用 gofpdf 生成 PDF：底图叠字与无模板自由绘制
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// ErrCompose 自由绘制失败
var ErrCompose = errors.New("pdf: compose failed")

// ErrTemplateRead 底图存在但无法导入
var ErrTemplateRead = errors.New("pdf: template unreadable")

// A4 纵向尺寸（pt）
const (
	pageWidth  = 595.28
	pageHeight = 841.89
)

const unicodeFamily = "docforge-ja"

// Fonts 字体配置：Path 指向 TTF（需含日文字形）；为空或不存在时退回 Helvetica
type Fonts struct {
	Path string
}

// Unicode 是否可用 UTF-8 字体
func (f Fonts) Unicode() bool {
	p := strings.TrimSpace(f.Path)
	if p == "" {
		return false
	}
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

// SystemFontCandidates 常见的日文 TTF 安装位置（gofpdf 只能加载 TTF，不能用 TTC）
var SystemFontCandidates = []string{
	"/usr/share/fonts/opentype/ipaexfont-gothic/ipaexg.ttf",
	"/usr/share/fonts/truetype/ipaexfont-gothic/ipaexg.ttf",
	"/usr/share/fonts/ipa-gothic/ipag.ttf",
	"/usr/share/fonts/truetype/fonts-japanese-gothic.ttf",
	"/usr/share/fonts/OTF/ipaexg.ttf",
	"/Library/Fonts/ipaexg.ttf",
	`C:\Windows\Fonts\ipaexg.ttf`,
}

// FindFont 返回第一个存在的字体文件；都不存在时返回空
func FindFont(candidates ...string) string {
	for _, c := range candidates {
		if (Fonts{Path: c}).Unicode() {
			return c
		}
	}
	return ""
}

// pen 绑定到单个文档的字体/文本转换
type pen struct {
	pdf      *gofpdf.Fpdf
	family   string
	tr       func(string) string
	japanese bool
}

func (f Fonts) newPen(pdf *gofpdf.Fpdf) *pen {
	if f.Unicode() {
		pdf.AddUTF8Font(unicodeFamily, "", f.Path)
		pdf.AddUTF8Font(unicodeFamily, "B", f.Path)
		return &pen{pdf: pdf, family: unicodeFamily, tr: func(s string) string { return s }, japanese: true}
	}
	return &pen{pdf: pdf, family: "Helvetica", tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (p *pen) font(style string, size float64) {
	p.pdf.SetFont(p.family, style, size)
}

// text 以基线坐标绘制
func (p *pen) text(x, y float64, s string) {
	if s == "" {
		return
	}
	p.pdf.Text(x, y, p.tr(s))
}

func (p *pen) width(s string) float64 {
	return p.pdf.GetStringWidth(p.tr(s))
}

// label 按字体选择日文或英文标签
func (p *pen) label(key string) string {
	l, ok := labels[key]
	if !ok {
		return key
	}
	if p.japanese {
		return l.ja
	}
	return l.en
}

func output(pdf *gofpdf.Fpdf, wrap error) ([]byte, error) {
	if pdf.Err() {
		return nil, fmt.Errorf("%w: %v", wrap, pdf.Error())
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", wrap, err)
	}
	return buf.Bytes(), nil
}

type labelText struct{ ja, en string }

var labels = map[string]labelText{
	"title.order":            {"注文書", "PURCHASE ORDER"},
	"title.order_acceptance": {"注文請書", "ORDER ACCEPTANCE"},
	"title.completion":       {"業務完了報告書", "COMPLETION REPORT"},
	"title.monthly_invoice":  {"請求書", "INVOICE"},

	"no":             {"No.", "No."},
	"date":           {"発行日", "Date"},
	"honorific":      {"御中", "Messrs."},
	"registration":   {"登録番号", "Registration No."},
	"representative": {"代表者", "Representative"},
	"project":        {"業務名", "Project"},
	"projectCode":    {"案件番号", "Project Code"},
	"location":       {"場所", "Location"},
	"scope":          {"業務内容", "Scope"},
	"period":         {"工期", "Period"},
	"amount":         {"契約金額", "Contract Amount"},
	"remarks":        {"備考", "Remarks"},
	"orderNumber":    {"注文番号", "Order No."},
	"contractor":     {"受注者", "Contractor"},
	"reportTo":       {"報告先", "Report To"},
	"seal":           {"印", "Seal"},
	"issuer":         {"発注者", "Issuer"},
	"confirmer":      {"確認者", "Confirmed by"},

	"orderLead":      {"下記のとおり注文いたします。", "We hereby place the following order."},
	"acceptanceLead": {"下記のとおり注文をお請けいたします。", "We hereby accept the following order."},
	"completionLead": {"上記のとおり業務が完了したことを報告します。", "We report that the above work has been completed."},
	"invoiceLead":    {"下記のとおりご請求申し上げます。", "Please remit the following amount."},

	"finance":        {"支払条件", "Payment Terms"},
	"withholdingTax": {"源泉徴収税額", "Withholding Tax"},
	"transferAmount": {"振込金額", "Transfer Amount"},
	"paymentDate":    {"支払日", "Payment Date"},
	"bank":           {"振込先", "Bank Account"},

	"billingPeriod": {"対象期間", "Billing Period"},
	"col.index":     {"No.", "No."},
	"col.label":     {"摘要", "Description"},
	"col.date":      {"日付", "Date"},
	"col.amount":    {"金額", "Amount"},
	"col.fee":       {"手数料", "Fee"},
	"subtotal":      {"小計", "Subtotal"},
	"feeTotal":      {"手数料計", "Fees"},
	"grandTotal":    {"合計", "Total"},
	"yen":           {"円", "JPY"},
	"continued":     {"（続き）", "(continued)"},
	"rangeSep":      {" 〜 ", " - "},
}
