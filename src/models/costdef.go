package models

import (
	"database/sql"
	"time"
)

// CostDef classifies cost entries; the fixed flag separates fixed from
// variable operating expenses in the income chain.
type CostDef struct {
	ID        int64     `json:"id"`
	TenantID  int64     `json:"tenant_id"`
	Name      string    `json:"name"`
	Fixed     bool      `json:"fixed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *CostDef) Create(db *sql.DB) error {
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	res, err := db.Exec(`
		INSERT INTO cost_defs (tenant_id, name, fixed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.TenantID, c.Name, c.Fixed, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return err
	}
	c.ID, err = res.LastInsertId()
	return err
}

func (c *CostDef) Update(db *sql.DB) error {
	c.UpdatedAt = time.Now()
	_, err := db.Exec(`
		UPDATE cost_defs SET name = ?, fixed = ?, updated_at = ? WHERE id = ? AND tenant_id = ?`,
		c.Name, c.Fixed, c.UpdatedAt, c.ID, c.TenantID)
	return err
}

func GetCostDefByID(db *sql.DB, tenantID, id int64) (*CostDef, error) {
	row := db.QueryRow(`
		SELECT id, tenant_id, name, fixed, created_at, updated_at
		FROM cost_defs WHERE id = ? AND tenant_id = ?`, id, tenantID)
	var c CostDef
	if err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.Fixed, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func ListCostDefs(db *sql.DB, tenantID int64) ([]CostDef, error) {
	rows, err := db.Query(`
		SELECT id, tenant_id, name, fixed, created_at, updated_at
		FROM cost_defs WHERE tenant_id = ? ORDER BY name ASC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []CostDef
	for rows.Next() {
		var c CostDef
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.Fixed, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		defs = append(defs, c)
	}
	return defs, rows.Err()
}

func CostDefReferenced(db *sql.DB, tenantID, id int64) (bool, error) {
	var n int
	err := db.QueryRow(`
		SELECT (SELECT COUNT(*) FROM cost_entries WHERE tenant_id = ?1 AND cost_id = ?2)
		     + (SELECT COUNT(*) FROM payments WHERE tenant_id = ?1 AND cost_id = ?2)
		     + (SELECT COUNT(*) FROM reconciliations WHERE tenant_id = ?1 AND cost_id = ?2)`,
		tenantID, id).Scan(&n)
	return n > 0, err
}

func DeleteCostDef(db *sql.DB, tenantID, id int64) error {
	res, err := db.Exec("DELETE FROM cost_defs WHERE id = ? AND tenant_id = ?", id, tenantID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SalesCategory is a legacy classification tag kept for compatibility with
// historical books.
type SalesCategory struct {
	ID        int64     `json:"id"`
	TenantID  int64     `json:"tenant_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *SalesCategory) Create(db *sql.DB) error {
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now
	res, err := db.Exec(`
		INSERT INTO sales_categories (tenant_id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		s.TenantID, s.Name, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return err
	}
	s.ID, err = res.LastInsertId()
	return err
}

func ListSalesCategories(db *sql.DB, tenantID int64) ([]SalesCategory, error) {
	rows, err := db.Query(`
		SELECT id, tenant_id, name, created_at, updated_at
		FROM sales_categories WHERE tenant_id = ? ORDER BY name ASC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []SalesCategory
	for rows.Next() {
		var s SalesCategory
		if err := rows.Scan(&s.ID, &s.TenantID, &s.Name, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		cats = append(cats, s)
	}
	return cats, rows.Err()
}

func DeleteSalesCategory(db *sql.DB, tenantID, id int64) error {
	res, err := db.Exec("DELETE FROM sales_categories WHERE id = ? AND tenant_id = ?", id, tenantID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
