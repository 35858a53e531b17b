package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/username/gescom/backend/src/logger"
	"github.com/username/gescom/backend/src/models"
	"github.com/username/gescom/backend/src/security/validation"
)

// ErrReferenced is returned when reference data still has transactions
// pointing at it. Handlers map it to 409 Conflict.
var ErrReferenced = errors.New("record is referenced by existing transactions")

// defaultDocumentNumber fills the reference field for methods that carry no
// paper instrument.
const defaultDocumentNumber = "nop"

// EntryInput is the raw payload for any dated amount: sales, purchases,
// recoveries, cost entries, payments and reconciliations all start here.
// Amounts and dates arrive as strings and are validated before persisting.
type EntryInput struct {
	CompanyID       int64  `json:"company_id,omitempty"`
	CostID          int64  `json:"cost_id,omitempty"`
	PaymentMethodID int64  `json:"paymentmethod_id"`
	Date            string `json:"date"`
	Amount          string `json:"amount"`
	Comment         string `json:"comment"`
	DocumentNumber  string `json:"document_number,omitempty"`
	DueDate         string `json:"due_date,omitempty"`
	Cashing         *bool  `json:"cashing,omitempty"`
}

// IntakeService validates and persists every mutation, then invalidates the
// tenant's cached views so the next read recomputes.
type IntakeService struct {
	db      *sql.DB
	reports *ReportService
}

func NewIntakeService(db *sql.DB, reports *ReportService) *IntakeService {
	return &IntakeService{db: db, reports: reports}
}

func (s *IntakeService) invalidate(tenantID int64) {
	if s.reports != nil {
		s.reports.InvalidateTenantCache(tenantID)
	}
}

// validateCommon checks the fields shared by all transaction kinds and
// returns the cleaned comment, normalized date and parsed amount.
func validateCommon(in *EntryInput) (comment, date string, amount decimal.Decimal, err error) {
	date, err = validation.ValidateDateString(in.Date, "date")
	if err != nil {
		return "", "", decimal.Zero, err
	}
	amount, err = validation.ValidateAmount(in.Amount, "amount")
	if err != nil {
		return "", "", decimal.Zero, err
	}
	comment = validation.CleanComment(in.Comment)
	if err := validation.ValidateStringMaxLength(comment, validation.MaxCommentLength, "comment"); err != nil {
		return "", "", decimal.Zero, err
	}
	return comment, date, amount, nil
}

// normalizeDocumentFields enforces the paper-instrument rule: cheques and
// drafts must carry a document number and a due date; other methods default
// the number and drop the due date.
func normalizeDocumentFields(method models.PaymentMethodID, in *EntryInput) (docNumber, dueDate string, err error) {
	if err := validation.ValidateDocumentNumber(in.DocumentNumber); err != nil {
		return "", "", err
	}
	if method.RequiresDocument() {
		if err := validation.ValidateStringNotEmpty(in.DocumentNumber, "document_number"); err != nil {
			return "", "", err
		}
		dueDate, err = validation.ValidateDateString(in.DueDate, "due_date")
		if err != nil {
			return "", "", err
		}
		return in.DocumentNumber, dueDate, nil
	}
	return defaultDocumentNumber, "", nil
}

func validateMethod(id int64) (models.PaymentMethodID, error) {
	method := models.PaymentMethodID(id)
	if !method.Valid() {
		return 0, fmt.Errorf("%w: unknown payment method %d", validation.ErrValidationFailed, id)
	}
	return method, nil
}

// ----------------------------------------------------------------------------
// Trade entries (sales, purchases, recoveries)
// ----------------------------------------------------------------------------

func (s *IntakeService) buildTradeEntry(tenantID int64, in *EntryInput) (*models.TradeEntry, error) {
	method, err := validateMethod(in.PaymentMethodID)
	if err != nil {
		return nil, err
	}
	if in.CompanyID == 0 {
		return nil, fmt.Errorf("%w: company_id is required", validation.ErrValidationFailed)
	}
	comment, date, amount, err := validateCommon(in)
	if err != nil {
		return nil, err
	}
	docNumber, dueDate, err := normalizeDocumentFields(method, in)
	if err != nil {
		return nil, err
	}
	return &models.TradeEntry{
		TenantID:        tenantID,
		CompanyID:       in.CompanyID,
		PaymentMethodID: method,
		Date:            date,
		Amount:          amount,
		Comment:         comment,
		DocumentNumber:  docNumber,
		DueDate:         dueDate,
	}, nil
}

func (s *IntakeService) CreateTradeEntry(ctx context.Context, tenantID int64, table string, in *EntryInput) (*models.TradeEntry, error) {
	entry, err := s.buildTradeEntry(tenantID, in)
	if err != nil {
		return nil, err
	}
	if err := models.InsertTradeEntry(s.db, table, entry); err != nil {
		return nil, fmt.Errorf("inserting %s entry: %w", table, err)
	}
	s.invalidate(tenantID)
	logger.L.Info("entry created", "table", table, "tenant_id", tenantID, "id", entry.ID)
	return entry, nil
}

func (s *IntakeService) UpdateTradeEntry(ctx context.Context, tenantID int64, table string, id int64, in *EntryInput) (*models.TradeEntry, error) {
	entry, err := s.buildTradeEntry(tenantID, in)
	if err != nil {
		return nil, err
	}
	entry.ID = id
	if err := models.UpdateTradeEntry(s.db, table, entry); err != nil {
		return nil, err
	}
	s.invalidate(tenantID)
	return entry, nil
}

// DeleteEntry removes a row from any transaction table. Aggregates simply
// stop counting it on the next read.
func (s *IntakeService) DeleteEntry(ctx context.Context, tenantID int64, table string, id int64) error {
	if err := models.DeleteEntry(s.db, table, tenantID, id); err != nil {
		return err
	}
	s.invalidate(tenantID)
	logger.L.Info("entry deleted", "table", table, "tenant_id", tenantID, "id", id)
	return nil
}

// ----------------------------------------------------------------------------
// Cost entries
// ----------------------------------------------------------------------------

func (s *IntakeService) buildCostEntry(tenantID int64, in *EntryInput) (*models.CostEntry, error) {
	method, err := validateMethod(in.PaymentMethodID)
	if err != nil {
		return nil, err
	}
	if in.CostID == 0 {
		return nil, fmt.Errorf("%w: cost_id is required", validation.ErrValidationFailed)
	}
	comment, date, amount, err := validateCommon(in)
	if err != nil {
		return nil, err
	}
	docNumber, dueDate, err := normalizeDocumentFields(method, in)
	if err != nil {
		return nil, err
	}
	return &models.CostEntry{
		TenantID:        tenantID,
		CostID:          in.CostID,
		PaymentMethodID: method,
		Date:            date,
		Amount:          amount,
		Comment:         comment,
		DocumentNumber:  docNumber,
		DueDate:         dueDate,
	}, nil
}

func (s *IntakeService) CreateCostEntry(ctx context.Context, tenantID int64, in *EntryInput) (*models.CostEntry, error) {
	entry, err := s.buildCostEntry(tenantID, in)
	if err != nil {
		return nil, err
	}
	if err := entry.Create(s.db); err != nil {
		return nil, fmt.Errorf("inserting cost entry: %w", err)
	}
	s.invalidate(tenantID)
	return entry, nil
}

func (s *IntakeService) UpdateCostEntry(ctx context.Context, tenantID, id int64, in *EntryInput) (*models.CostEntry, error) {
	entry, err := s.buildCostEntry(tenantID, in)
	if err != nil {
		return nil, err
	}
	entry.ID = id
	if err := entry.Update(s.db); err != nil {
		return nil, err
	}
	s.invalidate(tenantID)
	return entry, nil
}

// ----------------------------------------------------------------------------
// Payments
// ----------------------------------------------------------------------------

func (s *IntakeService) buildPayment(tenantID int64, in *EntryInput) (*models.Payment, error) {
	method, err := validateMethod(in.PaymentMethodID)
	if err != nil {
		return nil, err
	}
	// Exactly one of company/cost; the table CHECK mirrors this but the
	// caller deserves a clear message before hitting the constraint.
	if (in.CompanyID == 0) == (in.CostID == 0) {
		return nil, fmt.Errorf("%w: exactly one of company_id or cost_id must be set", validation.ErrValidationFailed)
	}
	comment, date, amount, err := validateCommon(in)
	if err != nil {
		return nil, err
	}
	docNumber, dueDate, err := normalizeDocumentFields(method, in)
	if err != nil {
		return nil, err
	}
	p := &models.Payment{
		TenantID:        tenantID,
		PaymentMethodID: method,
		Date:            date,
		Amount:          amount,
		Comment:         comment,
		DocumentNumber:  docNumber,
		DueDate:         dueDate,
	}
	if in.CompanyID != 0 {
		p.CompanyID = &in.CompanyID
	} else {
		p.CostID = &in.CostID
	}
	return p, nil
}

func (s *IntakeService) CreatePayment(ctx context.Context, tenantID int64, in *EntryInput) (*models.Payment, error) {
	p, err := s.buildPayment(tenantID, in)
	if err != nil {
		return nil, err
	}
	if err := p.Create(s.db); err != nil {
		return nil, fmt.Errorf("inserting payment: %w", err)
	}
	s.invalidate(tenantID)
	return p, nil
}

func (s *IntakeService) UpdatePayment(ctx context.Context, tenantID, id int64, in *EntryInput) (*models.Payment, error) {
	p, err := s.buildPayment(tenantID, in)
	if err != nil {
		return nil, err
	}
	p.ID = id
	if err := p.Update(s.db); err != nil {
		return nil, err
	}
	s.invalidate(tenantID)
	return p, nil
}

// ----------------------------------------------------------------------------
// Reconciliations
// ----------------------------------------------------------------------------

func (s *IntakeService) buildReconciliation(tenantID int64, in *EntryInput) (*models.Reconciliation, error) {
	method, err := validateMethod(in.PaymentMethodID)
	if err != nil {
		return nil, err
	}
	if in.Cashing == nil {
		return nil, fmt.Errorf("%w: cashing is required", validation.ErrValidationFailed)
	}
	if in.CompanyID != 0 && in.CostID != 0 {
		return nil, fmt.Errorf("%w: at most one of company_id or cost_id may be set", validation.ErrValidationFailed)
	}
	comment, date, amount, err := validateCommon(in)
	if err != nil {
		return nil, err
	}
	r := &models.Reconciliation{
		TenantID:        tenantID,
		PaymentMethodID: method,
		Cashing:         *in.Cashing,
		Date:            date,
		Amount:          amount,
		Comment:         comment,
	}
	if in.CompanyID != 0 {
		r.CompanyID = &in.CompanyID
	}
	if in.CostID != 0 {
		r.CostID = &in.CostID
	}
	return r, nil
}

func (s *IntakeService) CreateReconciliation(ctx context.Context, tenantID int64, in *EntryInput) (*models.Reconciliation, error) {
	r, err := s.buildReconciliation(tenantID, in)
	if err != nil {
		return nil, err
	}
	if err := r.Create(s.db); err != nil {
		return nil, fmt.Errorf("inserting reconciliation: %w", err)
	}
	s.invalidate(tenantID)
	return r, nil
}

func (s *IntakeService) UpdateReconciliation(ctx context.Context, tenantID, id int64, in *EntryInput) (*models.Reconciliation, error) {
	r, err := s.buildReconciliation(tenantID, in)
	if err != nil {
		return nil, err
	}
	r.ID = id
	if err := r.Update(s.db); err != nil {
		return nil, err
	}
	s.invalidate(tenantID)
	return r, nil
}

// ----------------------------------------------------------------------------
// Stock snapshots
// ----------------------------------------------------------------------------

func (s *IntakeService) CreateStockSnapshot(ctx context.Context, tenantID int64, in *EntryInput) (*models.StockSnapshot, error) {
	date, err := validation.ValidateDateString(in.Date, "date")
	if err != nil {
		return nil, err
	}
	amt, err := validation.ValidateAmount(in.Amount, "amount")
	if err != nil {
		return nil, err
	}
	snap := &models.StockSnapshot{
		TenantID: tenantID,
		Date:     date,
		Amount:   amt,
		Comment:  validation.CleanComment(in.Comment),
	}
	if err := snap.Create(s.db); err != nil {
		return nil, fmt.Errorf("inserting stock snapshot: %w", err)
	}
	s.invalidate(tenantID)
	return snap, nil
}

// ----------------------------------------------------------------------------
// Reference data
// ----------------------------------------------------------------------------

// CompanyInput is the payload for creating or replacing a counterparty.
// Email and phone are optional contact details; an update replaces every
// field, so callers must send the full record.
type CompanyInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Customer bool   `json:"customer"`
	Supplier bool   `json:"supplier"`
}

func validateCompanyInput(in *CompanyInput) (*models.Company, error) {
	name := validation.CleanComment(in.Name)
	if err := validation.ValidateStringNotEmpty(name, "name"); err != nil {
		return nil, err
	}
	if err := validation.ValidateStringMaxLength(name, validation.MaxCompanyNameLength, "name"); err != nil {
		return nil, err
	}
	email := validation.CleanComment(in.Email)
	if err := validation.ValidateEmailAddress(email, "email"); err != nil {
		return nil, err
	}
	phone := validation.CleanComment(in.Phone)
	if err := validation.ValidatePhoneNumber(phone, "phone"); err != nil {
		return nil, err
	}
	return &models.Company{
		Name:     name,
		Email:    email,
		Phone:    phone,
		Customer: in.Customer,
		Supplier: in.Supplier,
	}, nil
}

func (s *IntakeService) CreateCompany(ctx context.Context, tenantID int64, in *CompanyInput) (*models.Company, error) {
	c, err := validateCompanyInput(in)
	if err != nil {
		return nil, err
	}
	c.TenantID = tenantID
	if err := c.Create(s.db); err != nil {
		return nil, fmt.Errorf("inserting company: %w", err)
	}
	s.invalidate(tenantID)
	return c, nil
}

func (s *IntakeService) UpdateCompany(ctx context.Context, tenantID, id int64, in *CompanyInput) (*models.Company, error) {
	c, err := validateCompanyInput(in)
	if err != nil {
		return nil, err
	}
	c.ID = id
	c.TenantID = tenantID
	if err := c.Update(s.db); err != nil {
		return nil, err
	}
	s.invalidate(tenantID)
	return c, nil
}

// DeleteCompany refuses to orphan transactions: a referenced company stays.
func (s *IntakeService) DeleteCompany(ctx context.Context, tenantID, id int64) error {
	referenced, err := models.CompanyReferenced(s.db, tenantID, id)
	if err != nil {
		return err
	}
	if referenced {
		return ErrReferenced
	}
	if err := models.DeleteCompany(s.db, tenantID, id); err != nil {
		return err
	}
	s.invalidate(tenantID)
	return nil
}

func (s *IntakeService) CreateCostDef(ctx context.Context, tenantID int64, name string, fixed bool) (*models.CostDef, error) {
	name = validation.CleanComment(name)
	if err := validation.ValidateStringNotEmpty(name, "name"); err != nil {
		return nil, err
	}
	if err := validation.ValidateStringMaxLength(name, validation.DefaultMaxStringLength, "name"); err != nil {
		return nil, err
	}
	c := &models.CostDef{TenantID: tenantID, Name: name, Fixed: fixed}
	if err := c.Create(s.db); err != nil {
		return nil, fmt.Errorf("inserting cost definition: %w", err)
	}
	s.invalidate(tenantID)
	return c, nil
}

func (s *IntakeService) UpdateCostDef(ctx context.Context, tenantID, id int64, name string, fixed bool) (*models.CostDef, error) {
	name = validation.CleanComment(name)
	if err := validation.ValidateStringNotEmpty(name, "name"); err != nil {
		return nil, err
	}
	c := &models.CostDef{ID: id, TenantID: tenantID, Name: name, Fixed: fixed}
	if err := c.Update(s.db); err != nil {
		return nil, err
	}
	s.invalidate(tenantID)
	return c, nil
}

func (s *IntakeService) DeleteCostDef(ctx context.Context, tenantID, id int64) error {
	referenced, err := models.CostDefReferenced(s.db, tenantID, id)
	if err != nil {
		return err
	}
	if referenced {
		return ErrReferenced
	}
	if err := models.DeleteCostDef(s.db, tenantID, id); err != nil {
		return err
	}
	s.invalidate(tenantID)
	return nil
}

func (s *IntakeService) CreateSalesCategory(ctx context.Context, tenantID int64, name string) (*models.SalesCategory, error) {
	name = validation.CleanComment(name)
	if err := validation.ValidateStringNotEmpty(name, "name"); err != nil {
		return nil, err
	}
	c := &models.SalesCategory{TenantID: tenantID, Name: name}
	if err := c.Create(s.db); err != nil {
		return nil, fmt.Errorf("inserting sales category: %w", err)
	}
	return c, nil
}

func (s *IntakeService) DeleteSalesCategory(ctx context.Context, tenantID, id int64) error {
	return models.DeleteSalesCategory(s.db, tenantID, id)
}

// AttachDocument records an uploaded file against an existing entry.
func (s *IntakeService) AttachDocument(ctx context.Context, tenantID int64, table string, id int64, filename string) error {
	switch table {
	case models.TableSales, models.TablePurchases, models.TableRecoveries,
		models.TableCostEntries, models.TablePayments:
	default:
		return fmt.Errorf("%w: documents cannot be attached to %s", validation.ErrValidationFailed, table)
	}
	return models.SetDocumentFilename(s.db, table, tenantID, id, filename)
}

// DocumentFilename looks up the stored document name for an entry.
func (s *IntakeService) DocumentFilename(ctx context.Context, tenantID int64, table string, id int64) (string, error) {
	switch table {
	case models.TableSales, models.TablePurchases, models.TableRecoveries,
		models.TableCostEntries, models.TablePayments:
	default:
		return "", fmt.Errorf("%w: documents cannot be attached to %s", validation.ErrValidationFailed, table)
	}
	return models.GetDocumentFilename(s.db, table, tenantID, id)
}
