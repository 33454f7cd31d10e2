package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"docforge/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "data", "docforge.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedContract(t *testing.T, s *Store) *model.Contract {
	t.Helper()
	org := &model.Organization{Name: "関東建設", RegistrationNumber: "T1234567890123"}
	if err := s.UpsertOrganization(org); err != nil {
		t.Fatalf("UpsertOrganization: %v", err)
	}
	ctr := &model.Contractor{Name: "山田工務店", BankName: "みずほ銀行"}
	if err := s.UpsertContractor(ctr); err != nil {
		t.Fatalf("UpsertContractor: %v", err)
	}
	prj := &model.Project{Code: "P-01", Name: "外壁補修"}
	if err := s.UpsertProject(prj); err != nil {
		t.Fatalf("UpsertProject: %v", err)
	}
	c := &model.Contract{
		ProjectID:      prj.ID,
		ContractorID:   ctr.ID,
		OrganizationID: org.ID,
		OrderNumber:    "PO-7",
		Amount:         500000,
		StartDate:      time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2024, 4, 20, 0, 0, 0, 0, time.UTC),
	}
	if err := s.UpsertContract(c); err != nil {
		t.Fatalf("UpsertContract: %v", err)
	}
	return c
}

func TestLoadContractBundle(t *testing.T) {
	s := newTestStore(t)
	c := seedContract(t, s)
	if c.ID == 0 {
		t.Fatalf("contract id not assigned")
	}

	b, err := s.LoadContractBundle(c.ID)
	if err != nil {
		t.Fatalf("LoadContractBundle: %v", err)
	}
	if b.Organization.RegistrationNumber != "T1234567890123" || b.Contractor.BankName != "みずほ銀行" {
		t.Fatalf("bundle=%+v", b)
	}
	if got := b.Contract.EndDate.Format("2006-01-02"); got != "2024-04-20" {
		t.Fatalf("endDate=%s", got)
	}
	if !b.Contract.IssuedAt.IsZero() {
		t.Fatalf("issuedAt must stay zero when unset")
	}

	if _, err := s.LoadContractBundle(999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v, want ErrNotFound", err)
	}
}

func TestUpsertUpdatesInPlace(t *testing.T) {
	s := newTestStore(t)
	org := &model.Organization{Name: "旧社名"}
	if err := s.UpsertOrganization(org); err != nil {
		t.Fatalf("insert: %v", err)
	}
	id := org.ID
	org.Name = "新社名"
	if err := s.UpsertOrganization(org); err != nil {
		t.Fatalf("update: %v", err)
	}
	if org.ID != id {
		t.Fatalf("id changed %d -> %d", id, org.ID)
	}
	got, err := s.GetOrganization(id)
	if err != nil || got.Name != "新社名" {
		t.Fatalf("GetOrganization=%+v,%v", got, err)
	}
}

func TestListBillingItemsByPeriod(t *testing.T) {
	s := newTestStore(t)
	c := seedContract(t, s)
	items := []model.BillingItem{
		{ContractID: c.ID, Year: 2024, Month: 4, Label: "後", WorkDate: time.Date(2024, 4, 9, 0, 0, 0, 0, time.UTC), Amount: 2000},
		{ContractID: c.ID, Year: 2024, Month: 4, Label: "先", WorkDate: time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC), Amount: 1000, Fee: 110},
		{ContractID: c.ID, Year: 2024, Month: 5, Label: "翌月", Amount: 5},
	}
	for i := range items {
		if err := s.AddBillingItem(&items[i]); err != nil {
			t.Fatalf("AddBillingItem: %v", err)
		}
	}

	got, err := s.ListBillingItems(c.ID, 2024, 4)
	if err != nil {
		t.Fatalf("ListBillingItems: %v", err)
	}
	if len(got) != 2 || got[0].Label != "先" || got[1].Label != "後" {
		t.Fatalf("items=%+v", got)
	}
	empty, err := s.ListBillingItems(c.ID, 2023, 1)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("empty=%v err=%v, want empty non-nil slice", empty, err)
	}
}

func TestIssuedDocumentsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	for i, kind := range []model.DocumentKind{model.KindOrder, model.KindOrderAcceptance} {
		doc := &model.IssuedDocument{ContractID: 1, Kind: kind, Path: "freehand", Size: 100 + i, IssuedAt: base.Add(time.Duration(i) * time.Hour)}
		id, err := s.RecordIssuedDocument(doc)
		if err != nil || id == "" {
			t.Fatalf("RecordIssuedDocument=%q,%v", id, err)
		}
	}
	docs, err := s.ListIssuedDocuments(1)
	if err != nil {
		t.Fatalf("ListIssuedDocuments: %v", err)
	}
	if len(docs) != 2 || docs[0].Kind != model.KindOrderAcceptance {
		t.Fatalf("docs=%+v", docs)
	}
	if !docs[1].IssuedAt.Equal(base) {
		t.Fatalf("issuedAt=%v, want %v", docs[1].IssuedAt, base)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetConfig(ConfigTemplateDir); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err=%v, want ErrNotFound", err)
	}
	if err := s.SetConfig(ConfigTemplateDir, "/a"); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}
	if err := s.SetConfig(ConfigTemplateDir, "/b"); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}
	v, err := s.GetConfig(ConfigTemplateDir)
	if err != nil || v != "/b" {
		t.Fatalf("GetConfig=%q,%v", v, err)
	}
	all, err := s.GetAllConfig()
	if err != nil || len(all) != 1 {
		t.Fatalf("GetAllConfig=%v,%v", all, err)
	}
}
