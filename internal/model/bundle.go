package model

import (
	"fmt"
	"time"
)

// BillingPeriod 计费期间（年月）
type BillingPeriod struct {
	Year  int
	Month int
}

// ParseBillingPeriod 解析 "2006-01" 形式的期间
func ParseBillingPeriod(s string) (BillingPeriod, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return BillingPeriod{}, fmt.Errorf("invalid billing period %q: %w", s, err)
	}
	return BillingPeriod{Year: t.Year(), Month: int(t.Month())}, nil
}

// Label 期间显示文本
func (p BillingPeriod) Label() string {
	return fmt.Sprintf("%d年%d月", p.Year, p.Month)
}

// Fields 组装字段包
//
// 结构与目录（catalog.yaml）中的点分路径一一对应：
// organization.* / contractor.* / project.* / contract.* / period.* / items
func (b ContractBundle) Fields(period *BillingPeriod, items []BillingItem) Fields {
	f := Fields{
		"organization": map[string]any{
			"name":               b.Organization.Name,
			"address":            b.Organization.Address,
			"representative":     b.Organization.Representative,
			"phone":              b.Organization.Phone,
			"registrationNumber": b.Organization.RegistrationNumber,
		},
		"contractor": map[string]any{
			"name":        b.Contractor.Name,
			"address":     b.Contractor.Address,
			"email":       b.Contractor.Email,
			"phone":       b.Contractor.Phone,
			"bankName":    b.Contractor.BankName,
			"bankBranch":  b.Contractor.BankBranch,
			"bankAccount": b.Contractor.BankAccount,
		},
		"project": map[string]any{
			"code":     b.Project.Code,
			"name":     b.Project.Name,
			"location": b.Project.Location,
			"client":   b.Project.Client,
		},
		"contract": map[string]any{
			"orderNumber": b.Contract.OrderNumber,
			"amount":      b.Contract.Amount,
			"startDate":   nonZeroTime(b.Contract.StartDate),
			"endDate":     nonZeroTime(b.Contract.EndDate),
			"issuedAt":    nonZeroTime(b.Contract.IssuedAt),
			"scope":       b.Contract.Scope,
			"remarks":     b.Contract.Remarks,
		},
	}

	if period != nil {
		f["period"] = map[string]any{
			"year":  period.Year,
			"month": period.Month,
			"label": period.Label(),
		}
	}

	if items != nil {
		list := make([]any, 0, len(items))
		for _, it := range items {
			list = append(list, map[string]any{
				"label":  it.Label,
				"date":   nonZeroTime(it.WorkDate),
				"amount": it.Amount,
				"fee":    it.Fee,
			})
		}
		f["items"] = list
	}

	return f
}

// nonZeroTime 零值时间返回 nil，解析端会渲染为空白
func nonZeroTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
