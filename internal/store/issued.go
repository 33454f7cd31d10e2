package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"docforge/internal/model"
)

// 定宽时间格式，保证按字符串排序即按时间排序
const issuedLayout = "2006-01-02T15:04:05.000000Z07:00"

// RecordIssuedDocument 记录一次文书发行，返回发行 ID
func (s *Store) RecordIssuedDocument(doc *model.IssuedDocument) (string, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.IssuedAt.IsZero() {
		doc.IssuedAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO issued_documents (id, contract_id, kind, path, size, issued_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.ContractID, string(doc.Kind), doc.Path, doc.Size, doc.IssuedAt.UTC().Format(issuedLayout))
	if err != nil {
		return "", fmt.Errorf("failed to record issued document: %w", err)
	}
	return doc.ID, nil
}

// ListIssuedDocuments 某契约的发行历史（新的在前）
func (s *Store) ListIssuedDocuments(contractID int64) ([]model.IssuedDocument, error) {
	rows, err := s.db.Query(`
		SELECT id, contract_id, kind, path, size, issued_at
		FROM issued_documents
		WHERE contract_id = ?
		ORDER BY issued_at DESC, id
	`, contractID)
	if err != nil {
		return nil, fmt.Errorf("query issued documents failed: %w", err)
	}
	defer rows.Close()

	out := []model.IssuedDocument{}
	for rows.Next() {
		var (
			d        model.IssuedDocument
			kind     string
			issuedAt string
		)
		if err := rows.Scan(&d.ID, &d.ContractID, &kind, &d.Path, &d.Size, &issuedAt); err != nil {
			return nil, fmt.Errorf("scan issued document failed: %w", err)
		}
		d.Kind = model.DocumentKind(kind)
		d.IssuedAt, _ = time.Parse(issuedLayout, issuedAt)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate issued documents failed: %w", err)
	}
	return out, nil
}
