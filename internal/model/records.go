package model

import "time"

// Organization 发注方（本公司）
type Organization struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	Address            string `json:"address"`
	Representative     string `json:"representative"`
	Phone              string `json:"phone"`
	RegistrationNumber string `json:"registrationNumber"` // 適格請求書発行事業者登録番号
}

// Contractor 受注方（协力业者）
type Contractor struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	BankName    string `json:"bankName"`
	BankBranch  string `json:"bankBranch"`
	BankAccount string `json:"bankAccount"`
}

// Project 案件
type Project struct {
	ID       int64  `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Client   string `json:"client"`
}

// Contract 契约（案件 × 受注方）
type Contract struct {
	ID             int64     `json:"id"`
	ProjectID      int64     `json:"projectId"`
	ContractorID   int64     `json:"contractorId"`
	OrganizationID int64     `json:"organizationId"`
	OrderNumber    string    `json:"orderNumber"`
	Amount         float64   `json:"amount"`
	StartDate      time.Time `json:"startDate"`
	EndDate        time.Time `json:"endDate"`
	IssuedAt       time.Time `json:"issuedAt"`
	Scope          string    `json:"scope"`
	Remarks        string    `json:"remarks"`
}

// BillingItem 计费期间内的明细
type BillingItem struct {
	ID         int64     `json:"id"`
	ContractID int64     `json:"contractId"`
	Year       int       `json:"year"`
	Month      int       `json:"month"`
	Label      string    `json:"label"`
	WorkDate   time.Time `json:"workDate"`
	Amount     float64   `json:"amount"`
	Fee        float64   `json:"fee"`
}

// IssuedDocument 文书发行记录（仅记录元信息，不保存 PDF 本体）
type IssuedDocument struct {
	ID         string       `json:"id"`
	ContractID int64        `json:"contractId"`
	Kind       DocumentKind `json:"kind"`
	Path       string       `json:"path"` // 实际使用的生成路径
	Size       int          `json:"size"`
	IssuedAt   time.Time    `json:"issuedAt"`
}

// ContractBundle 生成一份文书所需的全部记录
type ContractBundle struct {
	Organization Organization
	Contractor   Contractor
	Project      Project
	Contract     Contract
}
