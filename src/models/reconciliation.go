package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Reconciliation is a manually recorded actual bank/cash movement. Cashing
// true means money received, false money paid out. It may be tagged with a
// company or a cost; treasury figures fold over these rows alone.
type Reconciliation struct {
	ID              int64           `json:"id"`
	TenantID        int64           `json:"tenant_id"`
	CompanyID       *int64          `json:"company_id,omitempty"`
	CostID          *int64          `json:"cost_id,omitempty"`
	PaymentMethodID PaymentMethodID `json:"paymentmethod_id"`
	Cashing         bool            `json:"cashing"`
	Date            string          `json:"date"`
	Amount          decimal.Decimal `json:"amount"`
	Comment         string          `json:"comment"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (r *Reconciliation) Create(db *sql.DB) error {
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
	res, err := db.Exec(`
		INSERT INTO reconciliations (tenant_id, company_id, cost_id, paymentmethod_id, cashing, date,
		                             amount_milli, comment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.TenantID, r.CompanyID, r.CostID, r.PaymentMethodID, r.Cashing, r.Date,
		MilliFromDecimal(r.Amount), r.Comment, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return err
	}
	r.ID, err = res.LastInsertId()
	return err
}

func (r *Reconciliation) Update(db *sql.DB) error {
	r.UpdatedAt = time.Now()
	res, err := db.Exec(`
		UPDATE reconciliations SET company_id = ?, cost_id = ?, paymentmethod_id = ?, cashing = ?, date = ?,
		                           amount_milli = ?, comment = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ?`,
		r.CompanyID, r.CostID, r.PaymentMethodID, r.Cashing, r.Date,
		MilliFromDecimal(r.Amount), r.Comment, r.UpdatedAt, r.ID, r.TenantID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const reconciliationColumns = `id, tenant_id, company_id, cost_id, paymentmethod_id, cashing, date,
	amount_milli, comment, created_at, updated_at`

func scanReconciliation(row interface {
	Scan(dest ...interface{}) error
}) (*Reconciliation, error) {
	var r Reconciliation
	var milli int64
	var companyID, costID sql.NullInt64
	if err := row.Scan(&r.ID, &r.TenantID, &companyID, &costID, &r.PaymentMethodID, &r.Cashing, &r.Date,
		&milli, &r.Comment, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	if companyID.Valid {
		r.CompanyID = &companyID.Int64
	}
	if costID.Valid {
		r.CostID = &costID.Int64
	}
	r.Amount = DecimalFromMilli(milli)
	return &r, nil
}

func GetReconciliationByID(db *sql.DB, tenantID, id int64) (*Reconciliation, error) {
	row := db.QueryRow(`SELECT `+reconciliationColumns+` FROM reconciliations WHERE id = ? AND tenant_id = ?`, id, tenantID)
	return scanReconciliation(row)
}

// ListReconciliations returns the tenant's movements, optionally only one
// direction, newest first.
func ListReconciliations(db *sql.DB, tenantID int64, cashing *bool) ([]Reconciliation, error) {
	query := `SELECT ` + reconciliationColumns + ` FROM reconciliations WHERE tenant_id = ?`
	args := []interface{}{tenantID}
	if cashing != nil {
		query += " AND cashing = ?"
		args = append(args, *cashing)
	}
	query += " ORDER BY date DESC, id DESC"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []Reconciliation
	for rows.Next() {
		r, err := scanReconciliation(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *r)
	}
	return recs, rows.Err()
}
