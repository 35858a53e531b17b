package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Payment is money paid out against a credit purchase (company) or a cost.
// Exactly one of CompanyID/CostID is set; the table carries a CHECK
// constraint mirroring the rule.
type Payment struct {
	ID               int64           `json:"id"`
	TenantID         int64           `json:"tenant_id"`
	CompanyID        *int64          `json:"company_id,omitempty"`
	CostID           *int64          `json:"cost_id,omitempty"`
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

func (p *Payment) Create(db *sql.DB) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	res, err := db.Exec(`
		INSERT INTO payments (tenant_id, company_id, cost_id, paymentmethod_id, date, amount_milli, comment,
		                      document_number, due_date, document_filename, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.TenantID, p.CompanyID, p.CostID, p.PaymentMethodID, p.Date, MilliFromDecimal(p.Amount), p.Comment,
		p.DocumentNumber, nullIfEmpty(p.DueDate), nullIfEmpty(p.DocumentFilename), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return err
	}
	p.ID, err = res.LastInsertId()
	return err
}

func (p *Payment) Update(db *sql.DB) error {
	p.UpdatedAt = time.Now()
	res, err := db.Exec(`
		UPDATE payments SET company_id = ?, cost_id = ?, paymentmethod_id = ?, date = ?, amount_milli = ?,
		                    comment = ?, document_number = ?, due_date = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ?`,
		p.CompanyID, p.CostID, p.PaymentMethodID, p.Date, MilliFromDecimal(p.Amount),
		p.Comment, p.DocumentNumber, nullIfEmpty(p.DueDate), p.UpdatedAt, p.ID, p.TenantID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const paymentColumns = `id, tenant_id, company_id, cost_id, paymentmethod_id, date, amount_milli, comment,
	document_number, due_date, document_filename, created_at, updated_at`

func scanPayment(row interface {
	Scan(dest ...interface{}) error
}) (*Payment, error) {
	var p Payment
	var milli int64
	var companyID, costID sql.NullInt64
	var dueDate, docFile sql.NullString
	if err := row.Scan(&p.ID, &p.TenantID, &companyID, &costID, &p.PaymentMethodID, &p.Date, &milli,
		&p.Comment, &p.DocumentNumber, &dueDate, &docFile, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if companyID.Valid {
		p.CompanyID = &companyID.Int64
	}
	if costID.Valid {
		p.CostID = &costID.Int64
	}
	p.Amount = DecimalFromMilli(milli)
	p.DueDate = dueDate.String
	p.DocumentFilename = docFile.String
	return &p, nil
}

func GetPaymentByID(db *sql.DB, tenantID, id int64) (*Payment, error) {
	row := db.QueryRow(`SELECT `+paymentColumns+` FROM payments WHERE id = ? AND tenant_id = ?`, id, tenantID)
	return scanPayment(row)
}

func ListPayments(db *sql.DB, tenantID int64) ([]Payment, error) {
	rows, err := db.Query(`SELECT `+paymentColumns+` FROM payments WHERE tenant_id = ? ORDER BY date DESC, id DESC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}
