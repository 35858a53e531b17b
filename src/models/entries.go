package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction table names, shared with the ledger store.
const (
	TableSales           = "sales"
	TablePurchases       = "purchases"
	TableCostEntries     = "cost_entries"
	TableRecoveries      = "recoveries"
	TablePayments        = "payments"
	TableReconciliations = "reconciliations"
	TableStockSnapshots  = "stock_snapshots"
)

// TradeEntry is the common shape of sales, purchases and recoveries: a dated,
// typed amount against a company. The table argument on the CRUD functions
// selects which ledger it lands in.
type TradeEntry struct {
	ID               int64           `json:"id"`
	TenantID         int64           `json:"tenant_id"`
	CompanyID        int64           `json:"company_id"`
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

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func InsertTradeEntry(db *sql.DB, table string, e *TradeEntry) error {
	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now
	res, err := db.Exec(`
		INSERT INTO `+table+` (tenant_id, company_id, paymentmethod_id, date, amount_milli, comment,
		                       document_number, due_date, document_filename, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.TenantID, e.CompanyID, e.PaymentMethodID, e.Date, MilliFromDecimal(e.Amount), e.Comment,
		e.DocumentNumber, nullIfEmpty(e.DueDate), nullIfEmpty(e.DocumentFilename), e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return err
	}
	e.ID, err = res.LastInsertId()
	return err
}

func UpdateTradeEntry(db *sql.DB, table string, e *TradeEntry) error {
	e.UpdatedAt = time.Now()
	res, err := db.Exec(`
		UPDATE `+table+` SET company_id = ?, paymentmethod_id = ?, date = ?, amount_milli = ?, comment = ?,
		                     document_number = ?, due_date = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ?`,
		e.CompanyID, e.PaymentMethodID, e.Date, MilliFromDecimal(e.Amount), e.Comment,
		e.DocumentNumber, nullIfEmpty(e.DueDate), e.UpdatedAt, e.ID, e.TenantID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanTradeEntry(rows interface {
	Scan(dest ...interface{}) error
}) (*TradeEntry, error) {
	var e TradeEntry
	var milli int64
	var dueDate, docFile sql.NullString
	if err := rows.Scan(&e.ID, &e.TenantID, &e.CompanyID, &e.PaymentMethodID, &e.Date, &milli,
		&e.Comment, &e.DocumentNumber, &dueDate, &docFile, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.Amount = DecimalFromMilli(milli)
	e.DueDate = dueDate.String
	e.DocumentFilename = docFile.String
	return &e, nil
}

const tradeEntryColumns = `id, tenant_id, company_id, paymentmethod_id, date, amount_milli, comment,
	document_number, due_date, document_filename, created_at, updated_at`

func GetTradeEntryByID(db *sql.DB, table string, tenantID, id int64) (*TradeEntry, error) {
	row := db.QueryRow(`SELECT `+tradeEntryColumns+` FROM `+table+` WHERE id = ? AND tenant_id = ?`, id, tenantID)
	return scanTradeEntry(row)
}

func ListTradeEntries(db *sql.DB, table string, tenantID int64) ([]TradeEntry, error) {
	rows, err := db.Query(`SELECT `+tradeEntryColumns+` FROM `+table+` WHERE tenant_id = ? ORDER BY date DESC, id DESC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []TradeEntry
	for rows.Next() {
		e, err := scanTradeEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// DeleteEntry removes one row from any transaction table. Hard delete; the
// engine recomputes aggregates from whatever remains.
func DeleteEntry(db *sql.DB, table string, tenantID, id int64) error {
	res, err := db.Exec(`DELETE FROM `+table+` WHERE id = ? AND tenant_id = ?`, id, tenantID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetDocumentFilename returns the stored document name for an entry, or
// sql.ErrNoRows when the row does not exist. An empty string means the row
// exists but has no document attached.
func GetDocumentFilename(db *sql.DB, table string, tenantID, id int64) (string, error) {
	var filename sql.NullString
	err := db.QueryRow(`SELECT document_filename FROM `+table+` WHERE id = ? AND tenant_id = ?`,
		id, tenantID).Scan(&filename)
	if err != nil {
		return "", err
	}
	return filename.String, nil
}

// SetDocumentFilename attaches an uploaded document to an existing entry.
func SetDocumentFilename(db *sql.DB, table string, tenantID, id int64, filename string) error {
	res, err := db.Exec(`UPDATE `+table+` SET document_filename = ?, updated_at = ? WHERE id = ? AND tenant_id = ?`,
		filename, time.Now(), id, tenantID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
