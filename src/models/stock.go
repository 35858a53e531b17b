package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// StockSnapshot is a point-in-time inventory valuation. The current stock
// value is the most recent snapshot on or before a reference date, not a sum.
type StockSnapshot struct {
	ID        int64           `json:"id"`
	TenantID  int64           `json:"tenant_id"`
	Date      string          `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	Comment   string          `json:"comment"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (s *StockSnapshot) Create(db *sql.DB) error {
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now
	res, err := db.Exec(`
		INSERT INTO stock_snapshots (tenant_id, date, amount_milli, comment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.TenantID, s.Date, MilliFromDecimal(s.Amount), s.Comment, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return err
	}
	s.ID, err = res.LastInsertId()
	return err
}

func (s *StockSnapshot) Update(db *sql.DB) error {
	s.UpdatedAt = time.Now()
	res, err := db.Exec(`
		UPDATE stock_snapshots SET date = ?, amount_milli = ?, comment = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ?`,
		s.Date, MilliFromDecimal(s.Amount), s.Comment, s.UpdatedAt, s.ID, s.TenantID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func ListStockSnapshots(db *sql.DB, tenantID int64) ([]StockSnapshot, error) {
	rows, err := db.Query(`
		SELECT id, tenant_id, date, amount_milli, comment, created_at, updated_at
		FROM stock_snapshots WHERE tenant_id = ? ORDER BY date DESC, id DESC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []StockSnapshot
	for rows.Next() {
		var s StockSnapshot
		var milli int64
		if err := rows.Scan(&s.ID, &s.TenantID, &s.Date, &milli, &s.Comment, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.Amount = DecimalFromMilli(milli)
		snaps = append(snaps, s)
	}
	return snaps, rows.Err()
}
