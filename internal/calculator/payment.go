package calculator

import (
	"time"

	"docforge/internal/model"
)

// 源泉徴収税率 10.21%（所得税 10% + 復興特別所得税），以万分比整数运算避免浮点误差
const (
	withholdingRateNumerator   = 1021
	withholdingRateDenominator = 10000
)

// PaymentCutoffDay 付款截止日：完工日 ≤ 20 日当月末支付，否则次月末
const PaymentCutoffDay = 20

// WithholdingTax 源泉徴収税额 = floor(base × 0.1021)，base ≤ 0 时为 0
func WithholdingTax(base int64) int64 {
	if base <= 0 {
		return 0
	}
	return base * withholdingRateNumerator / withholdingRateDenominator
}

// TransferAmount 振込金额 = base − 源泉徴収税额
func TransferAmount(base int64) int64 {
	return base - WithholdingTax(base)
}

// PaymentDate 支付日：完工日所在月的月末（日 ≤ 20），否则次月月末
func PaymentDate(end time.Time) time.Time {
	y, m, d := end.Date()
	if d <= PaymentCutoffDay {
		return lastDayOfMonth(y, m, end.Location())
	}
	return lastDayOfMonth(y, m+1, end.Location())
}

func lastDayOfMonth(y int, m time.Month, loc *time.Location) time.Time {
	// time.Date 会把 day=0 归一化到上月最后一天
	return time.Date(y, m+1, 0, 0, 0, 0, 0, loc)
}

// AcceptanceFigures 注文請書的派生金额
type AcceptanceFigures struct {
	Base           int64
	WithholdingTax int64
	TransferAmount int64
	PaymentDate    time.Time
	HasPaymentDate bool
}

// ComputeAcceptance 由契约金额与完工日计算派生金额；完工日缺失时不给出支付日
func ComputeAcceptance(base float64, end time.Time, hasEnd bool) AcceptanceFigures {
	b := int64(base)
	fig := AcceptanceFigures{
		Base:           b,
		WithholdingTax: WithholdingTax(b),
		TransferAmount: TransferAmount(b),
	}
	if hasEnd {
		fig.PaymentDate = PaymentDate(end)
		fig.HasPaymentDate = true
	}
	return fig
}

// InvoiceTotals 月次請求書合计
type InvoiceTotals struct {
	Count  int
	Amount float64
	Fee    float64
	Total  float64
}

// SumItems 明细合计；空明细得到全零合计
func SumItems(items []model.LineItem) InvoiceTotals {
	t := InvoiceTotals{Count: len(items)}
	for _, it := range items {
		t.Amount += it.Amount
		t.Fee += it.Fee
	}
	t.Total = t.Amount + t.Fee
	return t
}
