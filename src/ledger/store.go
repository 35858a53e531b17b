// Package ledger is the persistence collaborator of the aggregation engine:
// tenant-scoped filtered sums over the transaction tables, plus the
// latest-snapshot lookup for stock. A sum over an empty set is zero, never
// an error; a query without a tenant scope is a programming error and fails.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/username/gescom/backend/src/models"
)

// ErrNoTenant is returned when a query is issued without an authorized
// tenant scope. Tenant ids are resolved per request and passed explicitly;
// there is no ambient current tenant.
var ErrNoTenant = errors.New("ledger: query issued without tenant scope")

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for row-level CRUD in the models package.
func (s *Store) DB() *sql.DB {
	return s.db
}

type sumQuery struct {
	conds []string
	args  []interface{}
	joins []string
}

// SumOption narrows a Sum query. Options are conjunctive.
type SumOption func(*sumQuery)

// ForCompany restricts to rows whose company_id equals id.
func ForCompany(id int64) SumOption {
	return func(q *sumQuery) {
		q.conds = append(q.conds, "t.company_id = ?")
		q.args = append(q.args, id)
	}
}

// CompanyTagged restricts to rows carrying any company tag. The historical
// books use this when summing "per company" figures without a specific
// company: untagged rows are excluded.
func CompanyTagged() SumOption {
	return func(q *sumQuery) {
		q.conds = append(q.conds, "t.company_id IS NOT NULL")
	}
}

// ForCost restricts to rows whose cost_id equals id.
func ForCost(id int64) SumOption {
	return func(q *sumQuery) {
		q.conds = append(q.conds, "t.cost_id = ?")
		q.args = append(q.args, id)
	}
}

// CostTagged restricts to rows carrying any cost tag.
func CostTagged() SumOption {
	return func(q *sumQuery) {
		q.conds = append(q.conds, "t.cost_id IS NOT NULL")
	}
}

// ForMethod restricts to one payment method.
func ForMethod(m models.PaymentMethodID) SumOption {
	return func(q *sumQuery) {
		q.conds = append(q.conds, "t.paymentmethod_id = ?")
		q.args = append(q.args, int64(m))
	}
}

// ExcludingMethods drops rows paid by any of the given methods.
func ExcludingMethods(methods ...models.PaymentMethodID) SumOption {
	return func(q *sumQuery) {
		if len(methods) == 0 {
			return
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(methods)), ",")
		q.conds = append(q.conds, "t.paymentmethod_id NOT IN ("+placeholders+")")
		for _, m := range methods {
			q.args = append(q.args, int64(m))
		}
	}
}

// Cashing restricts reconciliations to one direction: true inflow, false outflow.
func Cashing(in bool) SumOption {
	return func(q *sumQuery) {
		q.conds = append(q.conds, "t.cashing = ?")
		q.args = append(q.args, in)
	}
}

// From restricts to rows dated on or after date (YYYY-MM-DD).
func From(date string) SumOption {
	return func(q *sumQuery) {
		q.conds = append(q.conds, "t.date >= ?")
		q.args = append(q.args, date)
	}
}

// Until restricts to rows dated on or before date.
func Until(date string) SumOption {
	return func(q *sumQuery) {
		q.conds = append(q.conds, "t.date <= ?")
		q.args = append(q.args, date)
	}
}

// On restricts to rows dated exactly date.
func On(date string) SumOption {
	return func(q *sumQuery) {
		q.conds = append(q.conds, "t.date = ?")
		q.args = append(q.args, date)
	}
}

// FixedCosts joins cost entries to their definition and keeps only those
// with the given fixed classification.
func FixedCosts(fixed bool) SumOption {
	return func(q *sumQuery) {
		q.joins = append(q.joins, "JOIN cost_defs cd ON cd.id = t.cost_id AND cd.tenant_id = t.tenant_id")
		q.conds = append(q.conds, "cd.fixed = ?")
		q.args = append(q.args, fixed)
	}
}

// Sum returns the total amount over table rows matching every option,
// COALESCEd to zero. Amounts are summed as integer millis, so the result is
// exact at 3 decimal places.
func (s *Store) Sum(ctx context.Context, tenantID int64, table string, opts ...SumOption) (decimal.Decimal, error) {
	if tenantID <= 0 {
		return decimal.Zero, ErrNoTenant
	}

	q := &sumQuery{
		conds: []string{"t.tenant_id = ?"},
		args:  []interface{}{tenantID},
	}
	for _, opt := range opts {
		opt(q)
	}

	query := "SELECT COALESCE(SUM(t.amount_milli), 0) FROM " + table + " t"
	if len(q.joins) > 0 {
		query += " " + strings.Join(q.joins, " ")
	}
	query += " WHERE " + strings.Join(q.conds, " AND ")

	var milli int64
	if err := s.db.QueryRowContext(ctx, query, q.args...).Scan(&milli); err != nil {
		return decimal.Zero, err
	}
	return models.DecimalFromMilli(milli), nil
}

// LatestStockValue returns the amount of the most recent stock snapshot
// dated on or before the reference date, or zero when none exists.
func (s *Store) LatestStockValue(ctx context.Context, tenantID int64, onOrBefore string) (decimal.Decimal, error) {
	if tenantID <= 0 {
		return decimal.Zero, ErrNoTenant
	}

	var milli int64
	err := s.db.QueryRowContext(ctx, `
		SELECT amount_milli FROM stock_snapshots
		WHERE tenant_id = ? AND date <= ?
		ORDER BY date DESC, id DESC
		LIMIT 1`, tenantID, onOrBefore).Scan(&milli)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return models.DecimalFromMilli(milli), nil
}
