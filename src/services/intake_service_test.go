package services

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/username/gescom/backend/src/models"
	"github.com/username/gescom/backend/src/security/validation"
)

func newIntake(t *testing.T) (*booksFixture, *IntakeService) {
	t.Helper()
	f := newBooks(t)
	return f, NewIntakeService(f.db, nil)
}

func boolPtr(b bool) *bool { return &b }

func TestCreateTradeEntryDefaultsDocumentFields(t *testing.T) {
	f, svc := newIntake(t)
	ctx := context.Background()

	entry, err := svc.CreateTradeEntry(ctx, f.tenantID, models.TableSales, &EntryInput{
		CompanyID:       f.companyID,
		PaymentMethodID: int64(models.MethodCash),
		Date:            "2025-08-01",
		Amount:          "150.500",
		DocumentNumber:  "SHOULD-BE-IGNORED",
		DueDate:         "2025-09-01",
	})
	require.NoError(t, err)
	require.NotZero(t, entry.ID)
	require.Equal(t, "nop", entry.DocumentNumber)
	require.Empty(t, entry.DueDate)
	requireEqualDec(t, "150.500", entry.Amount)

	stored, err := models.GetTradeEntryByID(f.db, models.TableSales, f.tenantID, entry.ID)
	require.NoError(t, err)
	require.Equal(t, "nop", stored.DocumentNumber)
}

func TestCreateTradeEntryChequeRequiresDocument(t *testing.T) {
	f, svc := newIntake(t)
	ctx := context.Background()

	base := EntryInput{
		CompanyID:       f.companyID,
		PaymentMethodID: int64(models.MethodCheque),
		Date:            "2025-08-01",
		Amount:          "100",
	}

	in := base
	_, err := svc.CreateTradeEntry(ctx, f.tenantID, models.TableSales, &in)
	require.ErrorIs(t, err, validation.ErrValidationFailed)

	in = base
	in.DocumentNumber = "CHQ-001"
	_, err = svc.CreateTradeEntry(ctx, f.tenantID, models.TableSales, &in)
	require.ErrorIs(t, err, validation.ErrValidationFailed, "due date still missing")

	in = base
	in.DocumentNumber = "CHQ-001"
	in.DueDate = "2025-09-15"
	entry, err := svc.CreateTradeEntry(ctx, f.tenantID, models.TableSales, &in)
	require.NoError(t, err)
	require.Equal(t, "CHQ-001", entry.DocumentNumber)
	require.Equal(t, "2025-09-15", entry.DueDate)
}

func TestCreateTradeEntryRejectsBadInput(t *testing.T) {
	f, svc := newIntake(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   EntryInput
	}{
		{"missing company", EntryInput{PaymentMethodID: 1, Date: "2025-08-01", Amount: "10"}},
		{"unknown method", EntryInput{CompanyID: f.companyID, PaymentMethodID: 42, Date: "2025-08-01", Amount: "10"}},
		{"bad date", EntryInput{CompanyID: f.companyID, PaymentMethodID: 1, Date: "01/08/2025", Amount: "10"}},
		{"impossible date", EntryInput{CompanyID: f.companyID, PaymentMethodID: 1, Date: "2025-02-30", Amount: "10"}},
		{"negative amount", EntryInput{CompanyID: f.companyID, PaymentMethodID: 1, Date: "2025-08-01", Amount: "-5"}},
		{"too many decimals", EntryInput{CompanyID: f.companyID, PaymentMethodID: 1, Date: "2025-08-01", Amount: "1.0001"}},
		{"non-numeric amount", EntryInput{CompanyID: f.companyID, PaymentMethodID: 1, Date: "2025-08-01", Amount: "abc"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := tc.in
			_, err := svc.CreateTradeEntry(ctx, f.tenantID, models.TableSales, &in)
			require.ErrorIs(t, err, validation.ErrValidationFailed)
		})
	}
}

func TestCreateTradeEntrySanitizesComment(t *testing.T) {
	f, svc := newIntake(t)

	entry, err := svc.CreateTradeEntry(context.Background(), f.tenantID, models.TablePurchases, &EntryInput{
		CompanyID:       f.companyID,
		PaymentMethodID: int64(models.MethodCash),
		Date:            "2025-08-01",
		Amount:          "10",
		Comment:         "<script>alert(1)</script>stock refill",
	})
	require.NoError(t, err)
	require.Equal(t, "stock refill", entry.Comment)
}

func TestCreatePaymentExactlyOneCounterparty(t *testing.T) {
	f, svc := newIntake(t)
	ctx := context.Background()

	_, err := svc.CreatePayment(ctx, f.tenantID, &EntryInput{
		PaymentMethodID: 1, Date: "2025-08-01", Amount: "10",
	})
	require.ErrorIs(t, err, validation.ErrValidationFailed, "no counterparty")

	_, err = svc.CreatePayment(ctx, f.tenantID, &EntryInput{
		CompanyID: f.companyID, CostID: f.costID,
		PaymentMethodID: 1, Date: "2025-08-01", Amount: "10",
	})
	require.ErrorIs(t, err, validation.ErrValidationFailed, "both counterparties")

	p, err := svc.CreatePayment(ctx, f.tenantID, &EntryInput{
		CompanyID:       f.companyID,
		PaymentMethodID: 1, Date: "2025-08-01", Amount: "10",
	})
	require.NoError(t, err)
	require.NotNil(t, p.CompanyID)
	require.Nil(t, p.CostID)
}

func TestCreateReconciliationRules(t *testing.T) {
	f, svc := newIntake(t)
	ctx := context.Background()

	_, err := svc.CreateReconciliation(ctx, f.tenantID, &EntryInput{
		PaymentMethodID: int64(models.MethodBankTransfer),
		Date:            "2025-08-01", Amount: "10",
	})
	require.ErrorIs(t, err, validation.ErrValidationFailed, "cashing direction is mandatory")

	_, err = svc.CreateReconciliation(ctx, f.tenantID, &EntryInput{
		CompanyID: f.companyID, CostID: f.costID,
		PaymentMethodID: int64(models.MethodBankTransfer),
		Date:            "2025-08-01", Amount: "10",
		Cashing:         boolPtr(true),
	})
	require.ErrorIs(t, err, validation.ErrValidationFailed, "tags are mutually exclusive")

	r, err := svc.CreateReconciliation(ctx, f.tenantID, &EntryInput{
		CompanyID:       f.companyID,
		PaymentMethodID: int64(models.MethodBankTransfer),
		Date:            "2025-08-01", Amount: "10",
		Cashing:         boolPtr(false),
	})
	require.NoError(t, err)
	require.False(t, r.Cashing)
	require.NotNil(t, r.CompanyID)

	untagged, err := svc.CreateReconciliation(ctx, f.tenantID, &EntryInput{
		PaymentMethodID: int64(models.MethodCash),
		Date:            "2025-08-02", Amount: "25",
		Cashing:         boolPtr(true),
	})
	require.NoError(t, err)
	require.Nil(t, untagged.CompanyID)
	require.Nil(t, untagged.CostID)
}

func TestCreateStockSnapshot(t *testing.T) {
	f, svc := newIntake(t)

	snap, err := svc.CreateStockSnapshot(context.Background(), f.tenantID, &EntryInput{
		Date:   "2025-08-19",
		Amount: "1200.500",
	})
	require.NoError(t, err)
	require.NotZero(t, snap.ID)

	v, err := f.svc.StockValue(context.Background(), f.tenantID)
	require.NoError(t, err)
	requireEqualDec(t, "1200.500", v)
}

func TestDeleteCompanyReferenced(t *testing.T) {
	f, svc := newIntake(t)
	ctx := context.Background()

	f.addSale(t, models.MethodCash, "2025-08-01", "10")

	err := svc.DeleteCompany(ctx, f.tenantID, f.companyID)
	require.ErrorIs(t, err, ErrReferenced)

	spare, err := svc.CreateCompany(ctx, f.tenantID, &CompanyInput{Name: "Unused Co", Customer: true})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteCompany(ctx, f.tenantID, spare.ID))
}

func TestCompanyContactFields(t *testing.T) {
	f, svc := newIntake(t)
	ctx := context.Background()

	created, err := svc.CreateCompany(ctx, f.tenantID, &CompanyInput{
		Name:     "Fournisseur Nord",
		Email:    "compta@nord.example.com",
		Phone:    "+33 1 23 45 67 89",
		Supplier: true,
	})
	require.NoError(t, err)

	stored, err := models.GetCompanyByID(f.db, f.tenantID, created.ID)
	require.NoError(t, err)
	require.Equal(t, "compta@nord.example.com", stored.Email)
	require.Equal(t, "+33 1 23 45 67 89", stored.Phone)

	// A full-record update carries the contact details through.
	_, err = svc.UpdateCompany(ctx, f.tenantID, created.ID, &CompanyInput{
		Name:     "Fournisseur Nord-Est",
		Email:    stored.Email,
		Phone:    stored.Phone,
		Supplier: true,
	})
	require.NoError(t, err)

	updated, err := models.GetCompanyByID(f.db, f.tenantID, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Fournisseur Nord-Est", updated.Name)
	require.Equal(t, "compta@nord.example.com", updated.Email)
	require.Equal(t, "+33 1 23 45 67 89", updated.Phone)

	_, err = svc.CreateCompany(ctx, f.tenantID, &CompanyInput{Name: "Bad Mail", Email: "not-an-address"})
	require.ErrorIs(t, err, validation.ErrValidationFailed)
	_, err = svc.CreateCompany(ctx, f.tenantID, &CompanyInput{Name: "Bad Phone", Phone: "call me"})
	require.ErrorIs(t, err, validation.ErrValidationFailed)

	_, err = svc.UpdateCompany(ctx, f.tenantID, 99999, &CompanyInput{Name: "Ghost"})
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestDeleteCostDefReferenced(t *testing.T) {
	f, svc := newIntake(t)
	ctx := context.Background()

	f.addCostEntry(t, f.costID, models.MethodCash, "2025-08-01", "10")

	err := svc.DeleteCostDef(ctx, f.tenantID, f.costID)
	require.ErrorIs(t, err, ErrReferenced)

	require.NoError(t, svc.DeleteCostDef(ctx, f.tenantID, f.fixedID))
}
