package pdf

import (
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"docforge/internal/calculator"
	"docforge/internal/model"
	"docforge/internal/service/fields"
)

// composition 单次自由绘制的结果
type composition struct {
	pdf    *gofpdf.Fpdf
	rows   int
	totals calculator.InvoiceTotals
}

type composer func(l *layout, bag model.Fields) calculator.InvoiceTotals

var composers = map[model.DocumentKind]composer{
	model.KindOrder:           composeOrder,
	model.KindOrderAcceptance: composeAcceptance,
	model.KindCompletion:      composeCompletion,
	model.KindMonthlyInvoice:  composeInvoice,
}

// Compose 无模板时按类型自由绘制整份文书
func Compose(req model.DocumentRequest, fonts Fonts) ([]byte, error) {
	c, err := compose(req, fonts)
	if err != nil {
		return nil, err
	}
	return output(c.pdf, ErrCompose)
}

func compose(req model.DocumentRequest, fonts Fonts) (c *composition, err error) {
	fn, ok := composers[req.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported kind %q", ErrCompose, req.Kind)
	}
	defer func() {
		if r := recover(); r != nil {
			c, err = nil, fmt.Errorf("%w: %v", ErrCompose, r)
		}
	}()

	pdf := newDocument()
	l := newLayout(fonts.newPen(pdf))
	l.newPage()
	totals := fn(l, req.Fields)
	if pdf.Err() {
		return nil, fmt.Errorf("%w: %v", ErrCompose, pdf.Error())
	}
	return &composition{pdf: pdf, rows: l.rows, totals: totals}, nil
}

func yen(v float64) string {
	return "¥" + fields.FormatNumber(v)
}

func between(l *layout, from, to string) string {
	if from == "" && to == "" {
		return ""
	}
	return from + l.label("rangeSep") + to
}

func composeOrder(l *layout, bag model.Fields) calculator.InvoiceTotals {
	r := func(path string) string { return fields.Resolve(bag, path) }

	l.title(l.label("title.order"))
	l.rightLines(
		l.label("no")+" "+r("contract.orderNumber"),
		l.label("date")+" "+r("contract.issuedAt"),
	)
	l.party(
		[]string{r("contractor.name") + " " + l.label("honorific"), r("contractor.address")},
		[]string{
			r("organization.name"),
			r("organization.address"),
			l.label("representative") + " " + r("organization.representative"),
			l.label("registration") + " " + r("organization.registrationNumber"),
		},
	)
	l.paragraph(l.label("orderLead"))
	l.field(l.label("project"), r("project.name"))
	l.field(l.label("location"), r("project.location"))
	l.field(l.label("scope"), r("contract.scope"))
	l.field(l.label("period"), between(l, r("contract.startDate"), r("contract.endDate")))
	l.field(l.label("amount"), yen(fields.Number(bag, "contract.amount")))
	l.field(l.label("remarks"), r("contract.remarks"))
	l.seals(l.label("issuer"))
	return calculator.InvoiceTotals{}
}

func composeAcceptance(l *layout, bag model.Fields) calculator.InvoiceTotals {
	r := func(path string) string { return fields.Resolve(bag, path) }

	l.title(l.label("title.order_acceptance"))
	l.rightLines(
		l.label("no")+" "+r("contract.orderNumber"),
		l.label("date")+" "+r("derived.today"),
	)
	l.party(
		[]string{r("organization.name") + " " + l.label("honorific"), r("organization.address")},
		[]string{r("contractor.name"), r("contractor.address"), r("contractor.phone")},
	)
	l.paragraph(l.label("acceptanceLead"))
	l.field(l.label("project"), r("project.name"))
	l.field(l.label("location"), r("project.location"))
	l.field(l.label("period"), between(l, r("contract.startDate"), r("contract.endDate")))
	l.field(l.label("amount"), yen(fields.Number(bag, "contract.amount")))

	end, hasEnd := fields.Date(bag, "contract.endDate")
	fig := calculator.ComputeAcceptance(fields.Number(bag, "contract.amount"), end, hasEnd)
	payDate := ""
	if fig.HasPaymentDate {
		payDate = fig.PaymentDate.Format(fields.DateLayout)
	}

	l.gap(14)
	l.font("B", 11)
	l.text(margin, l.y+11, l.label("finance"))
	l.gap(18)
	l.field(l.label("withholdingTax"), yen(float64(fig.WithholdingTax)))
	l.field(l.label("transferAmount"), yen(float64(fig.TransferAmount)))
	l.field(l.label("paymentDate"), payDate)
	l.field(l.label("bank"), joinNonEmpty(" ", r("contractor.bankName"), r("contractor.bankBranch"), r("contractor.bankAccount")))
	l.seals(l.label("contractor"))
	return calculator.InvoiceTotals{}
}

func composeCompletion(l *layout, bag model.Fields) calculator.InvoiceTotals {
	r := func(path string) string { return fields.Resolve(bag, path) }

	l.title(l.label("title.completion"))
	l.rightLines(l.label("date") + " " + r("derived.today"))
	l.field(l.label("reportTo"), r("organization.name")+" "+l.label("honorific"))
	l.gap(10)
	l.field(l.label("project"), r("project.name"))
	l.field(l.label("projectCode"), r("project.code"))
	l.field(l.label("location"), r("project.location"))
	l.field(l.label("orderNumber"), r("contract.orderNumber"))
	l.field(l.label("period"), between(l, r("contract.startDate"), r("contract.endDate")))
	l.field(l.label("amount"), yen(fields.Number(bag, "contract.amount")))
	l.field(l.label("contractor"), r("contractor.name"))
	l.field(l.label("remarks"), r("contract.remarks"))
	l.gap(10)
	l.paragraph(l.label("completionLead"))
	l.seals(l.label("contractor"), l.label("confirmer"))
	return calculator.InvoiceTotals{}
}

type invoiceColumn struct {
	key   string
	width float64
	right bool
}

var invoiceColumns = []invoiceColumn{
	{"col.index", 30, false},
	{"col.label", 200, false},
	{"col.date", 80, false},
	{"col.amount", 95, true},
	{"col.fee", contentWidth - 405, true},
}

const invoiceRowHeight = 18.0

// composeInvoice 明细逐行绘制，放不下时换页并重绘表头，末尾打印合计
func composeInvoice(l *layout, bag model.Fields) calculator.InvoiceTotals {
	r := func(path string) string { return fields.Resolve(bag, path) }
	items := fields.Items(bag, "items")
	totals := calculator.SumItems(items)

	l.title(l.label("title.monthly_invoice"))
	l.rightLines(
		l.label("no")+" "+r("contract.orderNumber"),
		l.label("billingPeriod")+" "+r("period.label"),
		l.label("date")+" "+r("derived.today"),
	)
	l.party(
		[]string{r("organization.name") + " " + l.label("honorific"), r("organization.address")},
		[]string{
			r("contractor.name"),
			r("contractor.address"),
			l.label("registration") + " " + r("organization.registrationNumber"),
		},
	)
	l.paragraph(l.label("invoiceLead"))
	l.field(l.label("project"), r("project.name"))
	l.gap(6)
	l.emphasis(l.label("grandTotal"), yen(totals.Total))

	invoiceHeader(l)
	for i, it := range items {
		if l.y+invoiceRowHeight > bottomLimit {
			l.newPage()
			l.font("", 9)
			l.text(margin, l.y+9, l.label("title.monthly_invoice")+" "+l.label("continued"))
			l.gap(16)
			invoiceHeader(l)
		}
		invoiceRow(l, []string{
			fmt.Sprintf("%d", i+1),
			it.Label,
			it.Date,
			fields.FormatNumber(it.Amount),
			fields.FormatNumber(it.Fee),
		}, false)
		l.rows++
	}

	if l.y+invoiceRowHeight*3+8 > bottomLimit {
		l.newPage()
	}
	l.gap(8)
	for _, t := range []struct {
		key string
		v   float64
	}{
		{"subtotal", totals.Amount},
		{"feeTotal", totals.Fee},
		{"grandTotal", totals.Total},
	} {
		x := margin + contentWidth - 200
		l.pdf.SetLineWidth(0.5)
		l.pdf.Rect(x, l.y, 100, invoiceRowHeight, "D")
		l.pdf.Rect(x+100, l.y, 100, invoiceRowHeight, "D")
		l.font("", 9)
		l.text(x+6, l.y+invoiceRowHeight-5, l.label(t.key))
		v := yen(t.v)
		l.text(x+200-6-l.width(v), l.y+invoiceRowHeight-5, v)
		l.y += invoiceRowHeight
	}
	return totals
}

func invoiceHeader(l *layout) {
	cells := make([]string, len(invoiceColumns))
	for i, c := range invoiceColumns {
		cells[i] = l.label(c.key)
	}
	invoiceRow(l, cells, true)
}

func invoiceRow(l *layout, cells []string, header bool) {
	x := margin
	l.pdf.SetLineWidth(0.5)
	l.pdf.SetFillColor(242, 242, 242)
	l.font("", 9)
	for i, c := range invoiceColumns {
		style := "D"
		if header {
			style = "FD"
		}
		l.pdf.Rect(x, l.y, c.width, invoiceRowHeight, style)
		s := l.fit(cells[i], c.width-8)
		tx := x + 4
		if c.right && !header {
			tx = x + c.width - 4 - l.width(s)
		}
		l.text(tx, l.y+invoiceRowHeight-5, s)
		x += c.width
	}
	l.y += invoiceRowHeight
}

func joinNonEmpty(sep string, parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += sep
		}
		out += p
	}
	return out
}
