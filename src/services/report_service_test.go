package services

import (
	"context"
	"testing"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/require"

	"github.com/username/gescom/backend/src/models"
)

func newReports(t *testing.T) (*booksFixture, *ReportService) {
	t.Helper()
	f := newBooks(t)
	return f, NewReportService(f.svc, cache.New(DefaultCacheExpiration, CacheCleanupInterval))
}

func TestDashboardAggregates(t *testing.T) {
	f, reports := newReports(t)
	ctx := context.Background()

	f.addSale(t, models.MethodCredit, "2025-08-01", "1000")
	f.addSale(t, models.MethodCheque, "2025-08-02", "200")
	f.addRecovery(t, models.MethodCash, "2025-08-03", "250")
	f.addRecon(t, true, models.MethodBankTransfer, "2025-08-04", "150", &f.companyID, nil)
	f.addStock(t, "2025-08-10", "500")

	view, err := reports.Dashboard(ctx, f.tenantID)
	require.NoError(t, err)

	requireEqualDec(t, "600", view.SoldClients)
	requireEqualDec(t, "200", view.SoldCheques)
	requireEqualDec(t, "0", view.SoldDrafts)
	requireEqualDec(t, "150", view.Banque)
	requireEqualDec(t, "250", view.Caisse)
	requireEqualDec(t, "500", view.Stock)

	economic, err := f.svc.EconomicSituation(ctx, f.tenantID)
	require.NoError(t, err)
	require.True(t, view.EconomicSituation.Equal(economic))
	capacity, err := f.svc.FinancialCapacity(ctx, f.tenantID)
	require.NoError(t, err)
	require.True(t, view.FinancialCapacity.Equal(capacity))
}

func TestDashboardCacheServesUntilInvalidated(t *testing.T) {
	f, reports := newReports(t)
	ctx := context.Background()

	f.addSale(t, models.MethodCredit, "2025-08-01", "1000")

	first, err := reports.Dashboard(ctx, f.tenantID)
	require.NoError(t, err)
	requireEqualDec(t, "1000", first.SoldClients)

	// A write that bypasses the intake layer is not visible until the TTL
	// lapses or the cache is invalidated.
	f.addSale(t, models.MethodCredit, "2025-08-02", "500")

	stale, err := reports.Dashboard(ctx, f.tenantID)
	require.NoError(t, err)
	requireEqualDec(t, "1000", stale.SoldClients)

	reports.InvalidateTenantCache(f.tenantID)

	fresh, err := reports.Dashboard(ctx, f.tenantID)
	require.NoError(t, err)
	requireEqualDec(t, "1500", fresh.SoldClients)
}

func TestDashboardCacheIsPerTenant(t *testing.T) {
	f, reports := newReports(t)
	ctx := context.Background()

	res, err := f.db.Exec(`INSERT INTO tenants (name) VALUES (?)`, "other")
	require.NoError(t, err)
	otherID, err := res.LastInsertId()
	require.NoError(t, err)

	f.addSale(t, models.MethodCredit, "2025-08-01", "1000")

	mine, err := reports.Dashboard(ctx, f.tenantID)
	require.NoError(t, err)
	requireEqualDec(t, "1000", mine.SoldClients)

	theirs, err := reports.Dashboard(ctx, otherID)
	require.NoError(t, err)
	requireEqualDec(t, "0", theirs.SoldClients)
}

func TestIntakeWriteInvalidatesDashboard(t *testing.T) {
	f, reports := newReports(t)
	intake := NewIntakeService(f.db, reports)
	ctx := context.Background()

	first, err := reports.Dashboard(ctx, f.tenantID)
	require.NoError(t, err)
	requireEqualDec(t, "0", first.SoldClients)

	_, err = intake.CreateTradeEntry(ctx, f.tenantID, models.TableSales, &EntryInput{
		CompanyID:       f.companyID,
		PaymentMethodID: int64(models.MethodCredit),
		Date:            "2025-08-01",
		Amount:          "750",
	})
	require.NoError(t, err)

	fresh, err := reports.Dashboard(ctx, f.tenantID)
	require.NoError(t, err)
	requireEqualDec(t, "750", fresh.SoldClients)
}

func TestExploitationView(t *testing.T) {
	f, reports := newReports(t)
	ctx := context.Background()
	period := Period{Start: "2025-08-01", End: "2025-08-31"}

	f.addStock(t, "2025-08-19", "1500")
	f.addStock(t, "2025-08-20", "1000")
	f.addPurchase(t, models.MethodCredit, "2025-08-10", "500")
	f.addSale(t, models.MethodCash, "2025-08-12", "2000")
	f.addCostEntry(t, f.costID, models.MethodCash, "2025-08-12", "100")
	f.addCostEntry(t, f.fixedID, models.MethodBankTransfer, "2025-08-12", "50")

	view, err := reports.Exploitation(ctx, f.tenantID, period)
	require.NoError(t, err)

	require.Equal(t, period, view.Period)
	requireEqualDec(t, "2000", view.Sales)
	requireEqualDec(t, "500", view.Purchases)
	requireEqualDec(t, "100", view.VariableCosts)
	requireEqualDec(t, "50", view.FixedCosts)
	requireEqualDec(t, "1000", view.CostOfGoodsSold)
	requireEqualDec(t, "1000", view.GrossMargin)
	requireEqualDec(t, "850", view.GrossOperating)
	requireEqualDec(t, "212.5", view.Tax)
	requireEqualDec(t, "637.5", view.NetOperatingIncome)
}

func TestTreasuryView(t *testing.T) {
	f, reports := newReports(t)
	ctx := context.Background()

	f.addRecon(t, true, models.MethodCash, "2025-08-18", "150", nil, nil)

	view, err := reports.Treasury(ctx, f.tenantID, "")
	require.NoError(t, err)
	require.Equal(t, "2025-W34", view.Ladder.Week)
	requireEqualDec(t, "150", view.Ladder.Closings[0])
}

func TestTreasuryViewMovementLists(t *testing.T) {
	f, reports := newReports(t)
	ctx := context.Background()

	f.addRecon(t, true, models.MethodBankTransfer, "2025-08-10", "1000", nil, nil)
	f.addRecon(t, true, models.MethodCash, "2025-08-18", "150", nil, nil)
	f.addRecon(t, false, models.MethodCheque, "2025-08-20", "50", nil, nil)

	view, err := reports.Treasury(ctx, f.tenantID, "2025-W34")
	require.NoError(t, err)

	// Money in and money out are listed separately, newest first.
	require.Len(t, view.Encaissements, 2)
	require.Equal(t, "2025-08-18", view.Encaissements[0].Date)
	requireEqualDec(t, "150", view.Encaissements[0].Amount)
	require.Equal(t, "2025-08-10", view.Encaissements[1].Date)
	requireEqualDec(t, "1000", view.Encaissements[1].Amount)

	require.Len(t, view.Decaissements, 1)
	require.Equal(t, "2025-08-20", view.Decaissements[0].Date)
	requireEqualDec(t, "50", view.Decaissements[0].Amount)

	// The ladder itself is unchanged by the lists.
	requireEqualDec(t, "1000", view.Ladder.Openings[0])
	requireEqualDec(t, "1100", view.Ladder.Closings[6])
}

func TestTreasuryViewEmptyLists(t *testing.T) {
	f, reports := newReports(t)

	view, err := reports.Treasury(context.Background(), f.tenantID, "2025-W34")
	require.NoError(t, err)
	require.NotNil(t, view.Encaissements)
	require.NotNil(t, view.Decaissements)
	require.Empty(t, view.Encaissements)
	require.Empty(t, view.Decaissements)
}
