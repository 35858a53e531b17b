package ledger

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/username/gescom/backend/src/database"
	"github.com/username/gescom/backend/src/models"
)

const testMigrationsURL = "file://../../db/migrations"

type fixture struct {
	db        *sql.DB
	store     *Store
	tenantID  int64
	companyID int64
	costID    int64
	fixedID   int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := database.NewTestDB(t, testMigrationsURL)

	res, err := db.Exec(`INSERT INTO tenants (name) VALUES (?)`, "acme")
	require.NoError(t, err)
	tenantID, err := res.LastInsertId()
	require.NoError(t, err)

	company := &models.Company{TenantID: tenantID, Name: "Client A", Customer: true}
	require.NoError(t, company.Create(db))

	variable := &models.CostDef{TenantID: tenantID, Name: "Electricity", Fixed: false}
	require.NoError(t, variable.Create(db))
	fixed := &models.CostDef{TenantID: tenantID, Name: "Rent", Fixed: true}
	require.NoError(t, fixed.Create(db))

	return &fixture{
		db:        db,
		store:     NewStore(db),
		tenantID:  tenantID,
		companyID: company.ID,
		costID:    variable.ID,
		fixedID:   fixed.ID,
	}
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func (f *fixture) addSale(t *testing.T, method models.PaymentMethodID, date, amount string) {
	t.Helper()
	entry := &models.TradeEntry{
		TenantID:        f.tenantID,
		CompanyID:       f.companyID,
		PaymentMethodID: method,
		Date:            date,
		Amount:          dec(t, amount),
		DocumentNumber:  "nop",
	}
	require.NoError(t, models.InsertTradeEntry(f.db, models.TableSales, entry))
}

func (f *fixture) addCostEntry(t *testing.T, costID int64, method models.PaymentMethodID, date, amount string) {
	t.Helper()
	entry := &models.CostEntry{
		TenantID:        f.tenantID,
		CostID:          costID,
		PaymentMethodID: method,
		Date:            date,
		Amount:          dec(t, amount),
		DocumentNumber:  "nop",
	}
	require.NoError(t, entry.Create(f.db))
}

func (f *fixture) addReconciliation(t *testing.T, cashing bool, method models.PaymentMethodID, date, amount string, companyID, costID *int64) {
	t.Helper()
	rec := &models.Reconciliation{
		TenantID:        f.tenantID,
		CompanyID:       companyID,
		CostID:          costID,
		PaymentMethodID: method,
		Cashing:         cashing,
		Date:            date,
		Amount:          dec(t, amount),
	}
	require.NoError(t, rec.Create(f.db))
}

func TestSumEmptyTableIsZero(t *testing.T) {
	f := newFixture(t)
	got, err := f.store.Sum(context.Background(), f.tenantID, models.TableSales)
	require.NoError(t, err)
	require.True(t, got.IsZero(), "sum over empty table should be zero, got %s", got)
}

func TestSumRequiresTenantScope(t *testing.T) {
	f := newFixture(t)
	_, err := f.store.Sum(context.Background(), 0, models.TableSales)
	require.ErrorIs(t, err, ErrNoTenant)

	_, err = f.store.LatestStockValue(context.Background(), -1, "2025-01-01")
	require.ErrorIs(t, err, ErrNoTenant)
}

func TestSumFiltersByMethodAndCompany(t *testing.T) {
	f := newFixture(t)
	f.addSale(t, models.MethodCash, "2025-03-01", "100.250")
	f.addSale(t, models.MethodCredit, "2025-03-02", "50")
	f.addSale(t, models.MethodCash, "2025-03-03", "10.125")

	other := &models.Company{TenantID: f.tenantID, Name: "Client B", Customer: true}
	require.NoError(t, other.Create(f.db))
	entry := &models.TradeEntry{
		TenantID:        f.tenantID,
		CompanyID:       other.ID,
		PaymentMethodID: models.MethodCash,
		Date:            "2025-03-04",
		Amount:          dec(t, "7"),
		DocumentNumber:  "nop",
	}
	require.NoError(t, models.InsertTradeEntry(f.db, models.TableSales, entry))

	ctx := context.Background()

	cash, err := f.store.Sum(ctx, f.tenantID, models.TableSales, ForMethod(models.MethodCash))
	require.NoError(t, err)
	require.True(t, cash.Equal(dec(t, "117.375")), "got %s", cash)

	companyCash, err := f.store.Sum(ctx, f.tenantID, models.TableSales,
		ForCompany(f.companyID), ForMethod(models.MethodCash))
	require.NoError(t, err)
	require.True(t, companyCash.Equal(dec(t, "110.375")), "got %s", companyCash)

	excluded, err := f.store.Sum(ctx, f.tenantID, models.TableSales,
		ExcludingMethods(models.MethodCash, models.MethodCredit))
	require.NoError(t, err)
	require.True(t, excluded.IsZero(), "got %s", excluded)
}

func TestSumDateBounds(t *testing.T) {
	f := newFixture(t)
	f.addSale(t, models.MethodCash, "2025-03-01", "1")
	f.addSale(t, models.MethodCash, "2025-03-15", "2")
	f.addSale(t, models.MethodCash, "2025-04-01", "4")

	ctx := context.Background()

	from, err := f.store.Sum(ctx, f.tenantID, models.TableSales, From("2025-03-15"))
	require.NoError(t, err)
	require.True(t, from.Equal(dec(t, "6")), "got %s", from)

	until, err := f.store.Sum(ctx, f.tenantID, models.TableSales, Until("2025-03-15"))
	require.NoError(t, err)
	require.True(t, until.Equal(dec(t, "3")), "got %s", until)

	on, err := f.store.Sum(ctx, f.tenantID, models.TableSales, On("2025-03-15"))
	require.NoError(t, err)
	require.True(t, on.Equal(dec(t, "2")), "got %s", on)

	window, err := f.store.Sum(ctx, f.tenantID, models.TableSales, From("2025-03-02"), Until("2025-03-31"))
	require.NoError(t, err)
	require.True(t, window.Equal(dec(t, "2")), "got %s", window)
}

func TestSumTenantIsolation(t *testing.T) {
	f := newFixture(t)
	f.addSale(t, models.MethodCash, "2025-03-01", "100")

	res, err := f.db.Exec(`INSERT INTO tenants (name) VALUES (?)`, "globex")
	require.NoError(t, err)
	otherTenant, err := res.LastInsertId()
	require.NoError(t, err)

	got, err := f.store.Sum(context.Background(), otherTenant, models.TableSales)
	require.NoError(t, err)
	require.True(t, got.IsZero(), "tenant must not see another tenant's rows, got %s", got)
}

func TestReconciliationTagAndDirectionFilters(t *testing.T) {
	f := newFixture(t)
	f.addReconciliation(t, true, models.MethodBankTransfer, "2025-03-01", "100", &f.companyID, nil)
	f.addReconciliation(t, true, models.MethodBankTransfer, "2025-03-02", "40", nil, &f.costID)
	f.addReconciliation(t, true, models.MethodBankTransfer, "2025-03-03", "7", nil, nil)
	f.addReconciliation(t, false, models.MethodBankTransfer, "2025-03-04", "25", &f.companyID, nil)

	ctx := context.Background()

	companyIn, err := f.store.Sum(ctx, f.tenantID, models.TableReconciliations,
		CompanyTagged(), Cashing(true))
	require.NoError(t, err)
	require.True(t, companyIn.Equal(dec(t, "100")), "got %s", companyIn)

	costIn, err := f.store.Sum(ctx, f.tenantID, models.TableReconciliations,
		CostTagged(), Cashing(true))
	require.NoError(t, err)
	require.True(t, costIn.Equal(dec(t, "40")), "got %s", costIn)

	allIn, err := f.store.Sum(ctx, f.tenantID, models.TableReconciliations, Cashing(true))
	require.NoError(t, err)
	require.True(t, allIn.Equal(dec(t, "147")), "got %s", allIn)

	out, err := f.store.Sum(ctx, f.tenantID, models.TableReconciliations, Cashing(false))
	require.NoError(t, err)
	require.True(t, out.Equal(dec(t, "25")), "got %s", out)
}

func TestFixedCostsJoin(t *testing.T) {
	f := newFixture(t)
	f.addCostEntry(t, f.costID, models.MethodCash, "2025-03-01", "30")
	f.addCostEntry(t, f.fixedID, models.MethodCash, "2025-03-01", "70")

	ctx := context.Background()

	variable, err := f.store.Sum(ctx, f.tenantID, models.TableCostEntries, FixedCosts(false))
	require.NoError(t, err)
	require.True(t, variable.Equal(dec(t, "30")), "got %s", variable)

	fixed, err := f.store.Sum(ctx, f.tenantID, models.TableCostEntries, FixedCosts(true))
	require.NoError(t, err)
	require.True(t, fixed.Equal(dec(t, "70")), "got %s", fixed)
}

func TestLatestStockValue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// No snapshot yet: zero, not an error.
	none, err := f.store.LatestStockValue(ctx, f.tenantID, "2025-03-01")
	require.NoError(t, err)
	require.True(t, none.IsZero())

	for _, snap := range []struct{ date, amount string }{
		{"2025-02-01", "1000"},
		{"2025-03-01", "1200.500"},
		{"2025-04-01", "900"},
	} {
		s := &models.StockSnapshot{TenantID: f.tenantID, Date: snap.date, Amount: dec(t, snap.amount)}
		require.NoError(t, s.Create(f.db))
	}

	got, err := f.store.LatestStockValue(ctx, f.tenantID, "2025-03-15")
	require.NoError(t, err)
	require.True(t, got.Equal(dec(t, "1200.500")), "got %s", got)

	latest, err := f.store.LatestStockValue(ctx, f.tenantID, "2025-12-31")
	require.NoError(t, err)
	require.True(t, latest.Equal(dec(t, "900")), "got %s", latest)

	// Same date twice: the newer row wins.
	s := &models.StockSnapshot{TenantID: f.tenantID, Date: "2025-04-01", Amount: dec(t, "950")}
	require.NoError(t, s.Create(f.db))
	rev, err := f.store.LatestStockValue(ctx, f.tenantID, "2025-04-01")
	require.NoError(t, err)
	require.True(t, rev.Equal(dec(t, "950")), "got %s", rev)
}
