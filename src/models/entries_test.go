package models

import (
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/username/gescom/backend/src/database"
)

const testMigrationsURL = "file://../../db/migrations"

func newTenant(t *testing.T, db *sql.DB, name string) int64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO tenants (name) VALUES (?)`, name)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func newCompany(t *testing.T, db *sql.DB, tenantID int64, name string) *Company {
	t.Helper()
	c := &Company{TenantID: tenantID, Name: name, Customer: true, Supplier: true}
	require.NoError(t, c.Create(db))
	return c
}

func mustDec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func TestTradeEntryRoundTrip(t *testing.T) {
	db := database.NewTestDB(t, testMigrationsURL)
	tenantID := newTenant(t, db, "acme")
	company := newCompany(t, db, tenantID, "Client A")

	entry := &TradeEntry{
		TenantID:        tenantID,
		CompanyID:       company.ID,
		PaymentMethodID: MethodCheque,
		Date:            "2025-08-01",
		Amount:          mustDec(t, "150.125"),
		Comment:         "august delivery",
		DocumentNumber:  "CHQ-001",
		DueDate:         "2025-09-15",
	}
	require.NoError(t, InsertTradeEntry(db, TableSales, entry))
	require.NotZero(t, entry.ID)

	loaded, err := GetTradeEntryByID(db, TableSales, tenantID, entry.ID)
	require.NoError(t, err)
	require.Equal(t, MethodCheque, loaded.PaymentMethodID)
	require.True(t, loaded.Amount.Equal(mustDec(t, "150.125")))
	require.Equal(t, "CHQ-001", loaded.DocumentNumber)
	require.Equal(t, "2025-09-15", loaded.DueDate)

	loaded.Amount = mustDec(t, "200")
	loaded.Comment = "corrected"
	require.NoError(t, UpdateTradeEntry(db, TableSales, loaded))

	reloaded, err := GetTradeEntryByID(db, TableSales, tenantID, entry.ID)
	require.NoError(t, err)
	require.True(t, reloaded.Amount.Equal(mustDec(t, "200")))
	require.Equal(t, "corrected", reloaded.Comment)

	require.NoError(t, DeleteEntry(db, TableSales, tenantID, entry.ID))
	_, err = GetTradeEntryByID(db, TableSales, tenantID, entry.ID)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestTradeEntryTenantScoping(t *testing.T) {
	db := database.NewTestDB(t, testMigrationsURL)
	tenantA := newTenant(t, db, "acme")
	tenantB := newTenant(t, db, "globex")
	company := newCompany(t, db, tenantA, "Client A")

	entry := &TradeEntry{
		TenantID:        tenantA,
		CompanyID:       company.ID,
		PaymentMethodID: MethodCash,
		Date:            "2025-08-01",
		Amount:          mustDec(t, "10"),
		DocumentNumber:  "nop",
	}
	require.NoError(t, InsertTradeEntry(db, TablePurchases, entry))

	_, err := GetTradeEntryByID(db, TablePurchases, tenantB, entry.ID)
	require.ErrorIs(t, err, sql.ErrNoRows)

	require.ErrorIs(t, DeleteEntry(db, TablePurchases, tenantB, entry.ID), sql.ErrNoRows)

	listA, err := ListTradeEntries(db, TablePurchases, tenantA)
	require.NoError(t, err)
	require.Len(t, listA, 1)
	listB, err := ListTradeEntries(db, TablePurchases, tenantB)
	require.NoError(t, err)
	require.Empty(t, listB)
}

func TestCompanyReferenced(t *testing.T) {
	db := database.NewTestDB(t, testMigrationsURL)
	tenantID := newTenant(t, db, "acme")
	company := newCompany(t, db, tenantID, "Client A")

	referenced, err := CompanyReferenced(db, tenantID, company.ID)
	require.NoError(t, err)
	require.False(t, referenced)

	entry := &TradeEntry{
		TenantID:        tenantID,
		CompanyID:       company.ID,
		PaymentMethodID: MethodCash,
		Date:            "2025-08-01",
		Amount:          mustDec(t, "10"),
		DocumentNumber:  "nop",
	}
	require.NoError(t, InsertTradeEntry(db, TableSales, entry))

	referenced, err = CompanyReferenced(db, tenantID, company.ID)
	require.NoError(t, err)
	require.True(t, referenced)
}

func TestCostDefReferencedByPayments(t *testing.T) {
	db := database.NewTestDB(t, testMigrationsURL)
	tenantID := newTenant(t, db, "acme")
	def := &CostDef{TenantID: tenantID, Name: "Rent", Fixed: true}
	require.NoError(t, def.Create(db))

	referenced, err := CostDefReferenced(db, tenantID, def.ID)
	require.NoError(t, err)
	require.False(t, referenced)

	p := &Payment{
		TenantID:        tenantID,
		CostID:          &def.ID,
		PaymentMethodID: MethodBankTransfer,
		Date:            "2025-08-01",
		Amount:          mustDec(t, "10"),
		DocumentNumber:  "nop",
	}
	require.NoError(t, p.Create(db))

	referenced, err = CostDefReferenced(db, tenantID, def.ID)
	require.NoError(t, err)
	require.True(t, referenced)
}

func TestPaymentMethodEnum(t *testing.T) {
	for _, m := range []PaymentMethodID{MethodCash, MethodCheque, MethodDraft, MethodCredit, MethodCard, MethodMealVoucher, MethodBankTransfer} {
		require.True(t, m.Valid(), "method %d", m)
	}
	require.False(t, PaymentMethodID(0).Valid())
	require.False(t, PaymentMethodID(8).Valid())

	require.True(t, MethodCheque.RequiresDocument())
	require.True(t, MethodDraft.RequiresDocument())
	require.False(t, MethodCash.RequiresDocument())
	require.False(t, MethodCredit.RequiresDocument())

	require.Equal(t, "cheque", MethodCheque.String())
	require.Equal(t, "bank_transfer", MethodBankTransfer.String())
}

func TestListPaymentMethodsSeeded(t *testing.T) {
	db := database.NewTestDB(t, testMigrationsURL)

	methods, err := ListPaymentMethods(db)
	require.NoError(t, err)
	require.Len(t, methods, 7)
	require.Equal(t, MethodCash, methods[0].ID)
	require.Equal(t, "Espèces", methods[0].Name)
}
