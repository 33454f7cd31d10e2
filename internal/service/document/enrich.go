package document

import (
	"time"

	"docforge/internal/calculator"
	"docforge/internal/model"
	"docforge/internal/service/fields"
)

// Enrich 复制字段包并补充派生值（derived.*）
//
// 模板路径与自由绘制读取同一组派生值，保证两条路径打印的金额一致。
func Enrich(kind model.DocumentKind, bag model.Fields, now time.Time) model.Fields {
	out := bag.Clone()
	out.Set("derived.today", now)

	switch kind {
	case model.KindOrderAcceptance:
		end, hasEnd := fields.Date(out, "contract.endDate")
		fig := calculator.ComputeAcceptance(fields.Number(out, "contract.amount"), end, hasEnd)
		out.Set("derived.withholdingTax", fig.WithholdingTax)
		out.Set("derived.transferAmount", fig.TransferAmount)
		if fig.HasPaymentDate {
			out.Set("derived.paymentDate", fig.PaymentDate)
		}
	case model.KindMonthlyInvoice:
		totals := calculator.SumItems(fields.Items(out, "items"))
		out.Set("derived.itemCount", totals.Count)
		out.Set("derived.amountTotal", totals.Amount)
		out.Set("derived.feeTotal", totals.Fee)
		out.Set("derived.grandTotal", totals.Total)
	}
	return out
}
