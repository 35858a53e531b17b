package model

import (
	"database/sql"
	"time"
)

// Tenant is one set of books. Users access only the tenants they are members
// of; every ledger read and write is scoped by an explicit tenant id.
type Tenant struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func CreateTenant(db *sql.DB, name string, ownerUserID int64) (*Tenant, error) {
	now := time.Now()
	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO tenants (name, created_at, updated_at) VALUES (?, ?, ?)`, name, now, now)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(`INSERT INTO user_tenants (user_id, tenant_id) VALUES (?, ?)`, ownerUserID, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &Tenant{ID: id, Name: name, CreatedAt: now, UpdatedAt: now}, nil
}

func ListTenantsForUser(db *sql.DB, userID int64) ([]Tenant, error) {
	rows, err := db.Query(`
		SELECT t.id, t.name, t.created_at, t.updated_at
		FROM tenants t
		JOIN user_tenants ut ON ut.tenant_id = t.id
		WHERE ut.user_id = ?
		ORDER BY t.name ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []Tenant
	for rows.Next() {
		var t Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

// UserBelongsToTenant is the membership check behind every tenant-scoped
// request. It must run before any aggregation does.
func UserBelongsToTenant(db *sql.DB, userID, tenantID int64) (bool, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM user_tenants WHERE user_id = ? AND tenant_id = ?`,
		userID, tenantID).Scan(&n)
	return n > 0, err
}

func AddUserToTenant(db *sql.DB, userID, tenantID int64) error {
	_, err := db.Exec(`INSERT OR IGNORE INTO user_tenants (user_id, tenant_id) VALUES (?, ?)`, userID, tenantID)
	return err
}
