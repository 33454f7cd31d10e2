package store

import (
	"database/sql"
	"errors"
	"fmt"

	"docforge/internal/model"
)

// upsertID ID 为 0 时插入并回填自增 ID
func upsertID(res sql.Result, id *int64) error {
	if *id != 0 {
		return nil
	}
	newID, err := res.LastInsertId()
	if err != nil {
		return err
	}
	*id = newID
	return nil
}

// UpsertOrganization 新增或更新发注方
func (s *Store) UpsertOrganization(o *model.Organization) error {
	res, err := s.db.Exec(`
		INSERT INTO organizations (id, name, address, representative, phone, registration_number)
		VALUES (NULLIF(?, 0), ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			address = excluded.address,
			representative = excluded.representative,
			phone = excluded.phone,
			registration_number = excluded.registration_number,
			updated_at = CURRENT_TIMESTAMP
	`, o.ID, o.Name, o.Address, o.Representative, o.Phone, o.RegistrationNumber)
	if err != nil {
		return fmt.Errorf("upsert organization failed: %w", err)
	}
	return upsertID(res, &o.ID)
}

// UpsertContractor 新增或更新受注方
func (s *Store) UpsertContractor(c *model.Contractor) error {
	res, err := s.db.Exec(`
		INSERT INTO contractors (id, name, address, email, phone, bank_name, bank_branch, bank_account)
		VALUES (NULLIF(?, 0), ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			address = excluded.address,
			email = excluded.email,
			phone = excluded.phone,
			bank_name = excluded.bank_name,
			bank_branch = excluded.bank_branch,
			bank_account = excluded.bank_account,
			updated_at = CURRENT_TIMESTAMP
	`, c.ID, c.Name, c.Address, c.Email, c.Phone, c.BankName, c.BankBranch, c.BankAccount)
	if err != nil {
		return fmt.Errorf("upsert contractor failed: %w", err)
	}
	return upsertID(res, &c.ID)
}

// UpsertProject 新增或更新案件
func (s *Store) UpsertProject(p *model.Project) error {
	res, err := s.db.Exec(`
		INSERT INTO projects (id, code, name, location, client)
		VALUES (NULLIF(?, 0), ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			code = excluded.code,
			name = excluded.name,
			location = excluded.location,
			client = excluded.client,
			updated_at = CURRENT_TIMESTAMP
	`, p.ID, p.Code, p.Name, p.Location, p.Client)
	if err != nil {
		return fmt.Errorf("upsert project failed: %w", err)
	}
	return upsertID(res, &p.ID)
}

// UpsertContract 新增或更新契约
func (s *Store) UpsertContract(c *model.Contract) error {
	res, err := s.db.Exec(`
		INSERT INTO contracts (
			id, project_id, contractor_id, organization_id, order_number, amount,
			start_date, end_date, issued_at, scope, remarks
		) VALUES (NULLIF(?, 0), ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			project_id = excluded.project_id,
			contractor_id = excluded.contractor_id,
			organization_id = excluded.organization_id,
			order_number = excluded.order_number,
			amount = excluded.amount,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			issued_at = excluded.issued_at,
			scope = excluded.scope,
			remarks = excluded.remarks,
			updated_at = CURRENT_TIMESTAMP
	`, c.ID, c.ProjectID, c.ContractorID, c.OrganizationID, c.OrderNumber, c.Amount,
		formatDate(c.StartDate), formatDate(c.EndDate), formatDate(c.IssuedAt), c.Scope, c.Remarks)
	if err != nil {
		return fmt.Errorf("upsert contract failed: %w", err)
	}
	return upsertID(res, &c.ID)
}

// AddBillingItem 追加计费明细
func (s *Store) AddBillingItem(it *model.BillingItem) error {
	res, err := s.db.Exec(`
		INSERT INTO billing_items (contract_id, year, month, label, work_date, amount, fee)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, it.ContractID, it.Year, it.Month, it.Label, formatDate(it.WorkDate), it.Amount, it.Fee)
	if err != nil {
		return fmt.Errorf("add billing item failed: %w", err)
	}
	it.ID = 0
	return upsertID(res, &it.ID)
}

// GetOrganization 按 ID 读取发注方
func (s *Store) GetOrganization(id int64) (*model.Organization, error) {
	var o model.Organization
	err := s.db.QueryRow(`
		SELECT id, name, address, representative, phone, registration_number
		FROM organizations WHERE id = ?
	`, id).Scan(&o.ID, &o.Name, &o.Address, &o.Representative, &o.Phone, &o.RegistrationNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("organization %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query organization failed: %w", err)
	}
	return &o, nil
}

// LoadContractBundle 读取契约及其关联的案件、受注方、发注方
func (s *Store) LoadContractBundle(contractID int64) (*model.ContractBundle, error) {
	var (
		b                         model.ContractBundle
		startDate, endDate, issue string
	)
	err := s.db.QueryRow(`
		SELECT
			c.id, c.project_id, c.contractor_id, c.organization_id, c.order_number, c.amount,
			c.start_date, c.end_date, c.issued_at, c.scope, c.remarks,
			p.id, p.code, p.name, p.location, p.client,
			k.id, k.name, k.address, k.email, k.phone, k.bank_name, k.bank_branch, k.bank_account,
			o.id, o.name, o.address, o.representative, o.phone, o.registration_number
		FROM contracts c
		JOIN projects p ON p.id = c.project_id
		JOIN contractors k ON k.id = c.contractor_id
		JOIN organizations o ON o.id = c.organization_id
		WHERE c.id = ?
	`, contractID).Scan(
		&b.Contract.ID, &b.Contract.ProjectID, &b.Contract.ContractorID, &b.Contract.OrganizationID,
		&b.Contract.OrderNumber, &b.Contract.Amount,
		&startDate, &endDate, &issue, &b.Contract.Scope, &b.Contract.Remarks,
		&b.Project.ID, &b.Project.Code, &b.Project.Name, &b.Project.Location, &b.Project.Client,
		&b.Contractor.ID, &b.Contractor.Name, &b.Contractor.Address, &b.Contractor.Email, &b.Contractor.Phone,
		&b.Contractor.BankName, &b.Contractor.BankBranch, &b.Contractor.BankAccount,
		&b.Organization.ID, &b.Organization.Name, &b.Organization.Address, &b.Organization.Representative,
		&b.Organization.Phone, &b.Organization.RegistrationNumber,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("contract %d: %w", contractID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load contract bundle failed: %w", err)
	}
	b.Contract.StartDate = parseDate(startDate)
	b.Contract.EndDate = parseDate(endDate)
	b.Contract.IssuedAt = parseDate(issue)
	return &b, nil
}

// ListBillingItems 某契约某月的明细（按作业日、ID 排序）
func (s *Store) ListBillingItems(contractID int64, year, month int) ([]model.BillingItem, error) {
	rows, err := s.db.Query(`
		SELECT id, contract_id, year, month, label, work_date, amount, fee
		FROM billing_items
		WHERE contract_id = ? AND year = ? AND month = ?
		ORDER BY work_date, id
	`, contractID, year, month)
	if err != nil {
		return nil, fmt.Errorf("query billing items failed: %w", err)
	}
	defer rows.Close()

	out := []model.BillingItem{}
	for rows.Next() {
		var (
			it       model.BillingItem
			workDate string
		)
		if err := rows.Scan(&it.ID, &it.ContractID, &it.Year, &it.Month, &it.Label, &workDate, &it.Amount, &it.Fee); err != nil {
			return nil, fmt.Errorf("scan billing item failed: %w", err)
		}
		it.WorkDate = parseDate(workDate)
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate billing items failed: %w", err)
	}
	return out, nil
}
