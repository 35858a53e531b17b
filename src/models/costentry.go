package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// CostEntry is an operating expense mapped to a cost definition.
type CostEntry struct {
	ID               int64           `json:"id"`
	TenantID         int64           `json:"tenant_id"`
	CostID           int64           `json:"cost_id"`
	PaymentMethodID  PaymentMethodID `json:"paymentmethod_id"`
	Date             string          `json:"date"`
	Amount           decimal.Decimal `json:"amount"`
	Comment          string          `json:"comment"`
	DocumentNumber   string          `json:"document_number,omitempty"`
	DueDate          string          `json:"due_date,omitempty"`
	DocumentFilename string          `json:"document_filename,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (e *CostEntry) Create(db *sql.DB) error {
	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now
	res, err := db.Exec(`
		INSERT INTO cost_entries (tenant_id, cost_id, paymentmethod_id, date, amount_milli, comment,
		                          document_number, due_date, document_filename, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.TenantID, e.CostID, e.PaymentMethodID, e.Date, MilliFromDecimal(e.Amount), e.Comment,
		e.DocumentNumber, nullIfEmpty(e.DueDate), nullIfEmpty(e.DocumentFilename), e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return err
	}
	e.ID, err = res.LastInsertId()
	return err
}

func (e *CostEntry) Update(db *sql.DB) error {
	e.UpdatedAt = time.Now()
	res, err := db.Exec(`
		UPDATE cost_entries SET cost_id = ?, paymentmethod_id = ?, date = ?, amount_milli = ?, comment = ?,
		                        document_number = ?, due_date = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ?`,
		e.CostID, e.PaymentMethodID, e.Date, MilliFromDecimal(e.Amount), e.Comment,
		e.DocumentNumber, nullIfEmpty(e.DueDate), e.UpdatedAt, e.ID, e.TenantID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const costEntryColumns = `id, tenant_id, cost_id, paymentmethod_id, date, amount_milli, comment,
	document_number, due_date, document_filename, created_at, updated_at`

func scanCostEntry(row interface {
	Scan(dest ...interface{}) error
}) (*CostEntry, error) {
	var e CostEntry
	var milli int64
	var dueDate, docFile sql.NullString
	if err := row.Scan(&e.ID, &e.TenantID, &e.CostID, &e.PaymentMethodID, &e.Date, &milli,
		&e.Comment, &e.DocumentNumber, &dueDate, &docFile, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.Amount = DecimalFromMilli(milli)
	e.DueDate = dueDate.String
	e.DocumentFilename = docFile.String
	return &e, nil
}

func GetCostEntryByID(db *sql.DB, tenantID, id int64) (*CostEntry, error) {
	row := db.QueryRow(`SELECT `+costEntryColumns+` FROM cost_entries WHERE id = ? AND tenant_id = ?`, id, tenantID)
	return scanCostEntry(row)
}

func ListCostEntries(db *sql.DB, tenantID int64) ([]CostEntry, error) {
	rows, err := db.Query(`SELECT `+costEntryColumns+` FROM cost_entries WHERE tenant_id = ? ORDER BY date DESC, id DESC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []CostEntry
	for rows.Next() {
		e, err := scanCostEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}
