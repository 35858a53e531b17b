package models

import (
	"database/sql"
	"time"
)

// Company is a counterparty. A company may be both customer and supplier;
// the two roles are independent flags.
type Company struct {
	ID        int64     `json:"id"`
	TenantID  int64     `json:"tenant_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Customer  bool      `json:"customer"`
	Supplier  bool      `json:"supplier"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Company) Create(db *sql.DB) error {
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	res, err := db.Exec(`
		INSERT INTO companies (tenant_id, name, email, phone, customer, supplier, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.TenantID, c.Name, c.Email, c.Phone, c.Customer, c.Supplier, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return err
	}
	c.ID, err = res.LastInsertId()
	return err
}

func (c *Company) Update(db *sql.DB) error {
	c.UpdatedAt = time.Now()
	res, err := db.Exec(`
		UPDATE companies SET name = ?, email = ?, phone = ?, customer = ?, supplier = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ?`,
		c.Name, c.Email, c.Phone, c.Customer, c.Supplier, c.UpdatedAt, c.ID, c.TenantID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func GetCompanyByID(db *sql.DB, tenantID, id int64) (*Company, error) {
	row := db.QueryRow(`
		SELECT id, tenant_id, name, COALESCE(email, ''), COALESCE(phone, ''), customer, supplier, created_at, updated_at
		FROM companies WHERE id = ? AND tenant_id = ?`, id, tenantID)
	var c Company
	if err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.Email, &c.Phone, &c.Customer, &c.Supplier, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func ListCompanies(db *sql.DB, tenantID int64) ([]Company, error) {
	rows, err := db.Query(`
		SELECT id, tenant_id, name, COALESCE(email, ''), COALESCE(phone, ''), customer, supplier, created_at, updated_at
		FROM companies WHERE tenant_id = ? ORDER BY name ASC`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []Company
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.Email, &c.Phone, &c.Customer, &c.Supplier, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

// CompanyReferenced reports whether any transaction row still points at the
// company. Deletion is refused while this holds.
func CompanyReferenced(db *sql.DB, tenantID, id int64) (bool, error) {
	var n int
	err := db.QueryRow(`
		SELECT (SELECT COUNT(*) FROM sales WHERE tenant_id = ?1 AND company_id = ?2)
		     + (SELECT COUNT(*) FROM purchases WHERE tenant_id = ?1 AND company_id = ?2)
		     + (SELECT COUNT(*) FROM recoveries WHERE tenant_id = ?1 AND company_id = ?2)
		     + (SELECT COUNT(*) FROM payments WHERE tenant_id = ?1 AND company_id = ?2)
		     + (SELECT COUNT(*) FROM reconciliations WHERE tenant_id = ?1 AND company_id = ?2)`,
		tenantID, id).Scan(&n)
	return n > 0, err
}

func DeleteCompany(db *sql.DB, tenantID, id int64) error {
	res, err := db.Exec("DELETE FROM companies WHERE id = ? AND tenant_id = ?", id, tenantID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
