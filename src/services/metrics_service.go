package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/gescom/backend/src/ledger"
	"github.com/username/gescom/backend/src/models"
)

// taxRate is the flat rate applied to gross operating income. A policy
// constant, not a tax-table lookup.
var taxRate = decimal.NewFromFloat(0.25)

const dateLayout = "2006-01-02"

// MetricsService derives every financial indicator from the ledger store.
// All methods are pure reads: they recompute from current stored state on
// every call and round results to 3 decimal places. A filter referencing an
// unknown id narrows the aggregate to zero; it is never an error.
type MetricsService struct {
	store *ledger.Store

	// Now is the clock used for "today"/month-to-date cut-offs. Injectable
	// for tests; defaults to time.Now.
	Now func() time.Time

	// subtractPayments flips the sign applied to payments in the
	// per-company/per-cost liability figures. The historical books add them;
	// see config.LiabilitiesSubtractPayments.
	subtractPayments bool
}

func NewMetricsService(store *ledger.Store, subtractPayments bool) *MetricsService {
	return &MetricsService{store: store, Now: time.Now, subtractPayments: subtractPayments}
}

func (s *MetricsService) today() string {
	return s.Now().Format(dateLayout)
}

func round3(d decimal.Decimal) decimal.Decimal {
	return d.Round(3)
}

// Period selects the aggregation window for the exploitation figures.
// Cum means month-to-date (first calendar day of the current month through
// now); Today matches one exact date; otherwise the optional Start/End
// bounds apply, either side open when empty.
type Period struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
	Cum   bool   `json:"cum,omitempty"`
	Today bool   `json:"today,omitempty"`
}

func (s *MetricsService) periodOptions(p Period) []ledger.SumOption {
	now := s.Now()
	switch {
	case p.Cum:
		firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		return []ledger.SumOption{ledger.From(firstOfMonth.Format(dateLayout))}
	case p.Today:
		return []ledger.SumOption{ledger.On(s.today())}
	default:
		var opts []ledger.SumOption
		if p.Start != "" {
			opts = append(opts, ledger.From(p.Start))
		}
		if p.End != "" {
			opts = append(opts, ledger.Until(p.End))
		}
		return opts
	}
}

// ----------------------------------------------------------------------------
// Foundation sums. A zero companyID/costID/method means "unfiltered".
// ----------------------------------------------------------------------------

func (s *MetricsService) SumSales(ctx context.Context, tenantID, companyID int64, method models.PaymentMethodID) (decimal.Decimal, error) {
	var opts []ledger.SumOption
	if companyID != 0 {
		opts = append(opts, ledger.ForCompany(companyID))
	}
	if method != 0 {
		opts = append(opts, ledger.ForMethod(method))
	}
	sum, err := s.store.Sum(ctx, tenantID, models.TableSales, opts...)
	return round3(sum), err
}

func (s *MetricsService) SumRecoveries(ctx context.Context, tenantID, companyID int64, method models.PaymentMethodID) (decimal.Decimal, error) {
	var opts []ledger.SumOption
	if companyID != 0 {
		opts = append(opts, ledger.ForCompany(companyID))
	}
	if method != 0 {
		opts = append(opts, ledger.ForMethod(method))
	}
	sum, err := s.store.Sum(ctx, tenantID, models.TableRecoveries, opts...)
	return round3(sum), err
}

// SumReconciliations totals one direction of bank/cash movements tagged with
// a company. Without a specific company it still keeps only company-tagged
// rows, the convention the books have always used for "per company" sums.
func (s *MetricsService) SumReconciliations(ctx context.Context, tenantID, companyID int64, method models.PaymentMethodID, cashing bool) (decimal.Decimal, error) {
	opts := []ledger.SumOption{ledger.Cashing(cashing)}
	if companyID != 0 {
		opts = append(opts, ledger.ForCompany(companyID))
	} else {
		opts = append(opts, ledger.CompanyTagged())
	}
	if method != 0 {
		opts = append(opts, ledger.ForMethod(method))
	}
	sum, err := s.store.Sum(ctx, tenantID, models.TableReconciliations, opts...)
	return round3(sum), err
}

// SumReconciliationsCosts is the cost-tagged counterpart of SumReconciliations.
func (s *MetricsService) SumReconciliationsCosts(ctx context.Context, tenantID, costID int64, method models.PaymentMethodID, cashing bool) (decimal.Decimal, error) {
	opts := []ledger.SumOption{ledger.Cashing(cashing)}
	if costID != 0 {
		opts = append(opts, ledger.ForCost(costID))
	} else {
		opts = append(opts, ledger.CostTagged())
	}
	if method != 0 {
		opts = append(opts, ledger.ForMethod(method))
	}
	sum, err := s.store.Sum(ctx, tenantID, models.TableReconciliations, opts...)
	return round3(sum), err
}

func (s *MetricsService) SumPurchases(ctx context.Context, tenantID, companyID int64, method models.PaymentMethodID) (decimal.Decimal, error) {
	var opts []ledger.SumOption
	if companyID != 0 {
		opts = append(opts, ledger.ForCompany(companyID))
	}
	if method != 0 {
		opts = append(opts, ledger.ForMethod(method))
	}
	sum, err := s.store.Sum(ctx, tenantID, models.TablePurchases, opts...)
	return round3(sum), err
}

func (s *MetricsService) SumCosts(ctx context.Context, tenantID, costID int64, method models.PaymentMethodID) (decimal.Decimal, error) {
	var opts []ledger.SumOption
	if costID != 0 {
		opts = append(opts, ledger.ForCost(costID))
	}
	if method != 0 {
		opts = append(opts, ledger.ForMethod(method))
	}
	sum, err := s.store.Sum(ctx, tenantID, models.TableCostEntries, opts...)
	return round3(sum), err
}

func (s *MetricsService) PaymentsPerCompany(ctx context.Context, tenantID, companyID int64, method models.PaymentMethodID) (decimal.Decimal, error) {
	opts := []ledger.SumOption{ledger.CompanyTagged()}
	if companyID != 0 {
		opts = append(opts, ledger.ForCompany(companyID))
	}
	if method != 0 {
		opts = append(opts, ledger.ForMethod(method))
	}
	sum, err := s.store.Sum(ctx, tenantID, models.TablePayments, opts...)
	return round3(sum), err
}

func (s *MetricsService) PaymentsPerCost(ctx context.Context, tenantID, costID int64, method models.PaymentMethodID) (decimal.Decimal, error) {
	opts := []ledger.SumOption{ledger.CostTagged()}
	if costID != 0 {
		opts = append(opts, ledger.ForCost(costID))
	}
	if method != 0 {
		opts = append(opts, ledger.ForMethod(method))
	}
	sum, err := s.store.Sum(ctx, tenantID, models.TablePayments, opts...)
	return round3(sum), err
}

// ----------------------------------------------------------------------------
// Balances
// ----------------------------------------------------------------------------

// SoldClients is the outstanding client balance: credit sales minus every
// recovery minus bank-transfer inflows reconciled for the company.
func (s *MetricsService) SoldClients(ctx context.Context, tenantID, companyID int64) (decimal.Decimal, error) {
	credits, err := s.SumSales(ctx, tenantID, companyID, models.MethodCredit)
	if err != nil {
		return decimal.Zero, err
	}
	recovers, err := s.SumRecoveries(ctx, tenantID, companyID, 0)
	if err != nil {
		return decimal.Zero, err
	}
	reconciled, err := s.SumReconciliations(ctx, tenantID, companyID, models.MethodBankTransfer, true)
	if err != nil {
		return decimal.Zero, err
	}
	return round3(credits.Sub(recovers).Sub(reconciled)), nil
}

// SoldPortefeuille is the outstanding balance held in one payment
// instrument (cheques in hand, drafts, card receipts...). Meal vouchers are
// the one asymmetry: they are consumed against costs and purchases instead
// of being cashed at face value, so those totals come off the balance.
func (s *MetricsService) SoldPortefeuille(ctx context.Context, tenantID, companyID int64, method models.PaymentMethodID) (decimal.Decimal, error) {
	sales, err := s.SumSales(ctx, tenantID, companyID, method)
	if err != nil {
		return decimal.Zero, err
	}
	recovers, err := s.SumRecoveries(ctx, tenantID, companyID, method)
	if err != nil {
		return decimal.Zero, err
	}
	cashed, err := s.SumReconciliations(ctx, tenantID, companyID, method, true)
	if err != nil {
		return decimal.Zero, err
	}

	consumed := decimal.Zero
	if method == models.MethodMealVoucher {
		costs, err := s.SumCosts(ctx, tenantID, 0, models.MethodMealVoucher)
		if err != nil {
			return decimal.Zero, err
		}
		purchases, err := s.SumPurchases(ctx, tenantID, 0, models.MethodMealVoucher)
		if err != nil {
			return decimal.Zero, err
		}
		consumed = costs.Add(purchases)
	}

	return round3(sales.Add(recovers).Sub(cashed).Sub(consumed)), nil
}

// Banque is the all-time bank position: every reconciliation inflow minus
// every outflow, tagged or not.
func (s *MetricsService) Banque(ctx context.Context, tenantID int64) (decimal.Decimal, error) {
	return s.BanqueOnDate(ctx, tenantID, "", "", false)
}

// BanqueOnDate bounds the bank position to a window, or to one exact day.
func (s *MetricsService) BanqueOnDate(ctx context.Context, tenantID int64, start, end string, today bool) (decimal.Decimal, error) {
	var bounds []ledger.SumOption
	if today {
		bounds = append(bounds, ledger.On(s.today()))
	} else {
		if start != "" {
			bounds = append(bounds, ledger.From(start))
		}
		if end != "" {
			bounds = append(bounds, ledger.Until(end))
		}
	}

	in, err := s.store.Sum(ctx, tenantID, models.TableReconciliations, append(bounds, ledger.Cashing(true))...)
	if err != nil {
		return decimal.Zero, err
	}
	out, err := s.store.Sum(ctx, tenantID, models.TableReconciliations, append(bounds, ledger.Cashing(false))...)
	if err != nil {
		return decimal.Zero, err
	}
	return round3(in.Sub(out)), nil
}

// Caisse is the cash-drawer position. The subtraction of cash-method inflow
// reconciliations offsets double counting once cash takings are banked.
// Formula preserved from the historical books; do not re-derive.
func (s *MetricsService) Caisse(ctx context.Context, tenantID int64) (decimal.Decimal, error) {
	sales, err := s.store.Sum(ctx, tenantID, models.TableSales, ledger.ForMethod(models.MethodCash))
	if err != nil {
		return decimal.Zero, err
	}
	recovers, err := s.store.Sum(ctx, tenantID, models.TableRecoveries, ledger.ForMethod(models.MethodCash))
	if err != nil {
		return decimal.Zero, err
	}
	costs, err := s.store.Sum(ctx, tenantID, models.TableCostEntries, ledger.ForMethod(models.MethodCash))
	if err != nil {
		return decimal.Zero, err
	}
	purchases, err := s.store.Sum(ctx, tenantID, models.TablePurchases, ledger.ForMethod(models.MethodCash))
	if err != nil {
		return decimal.Zero, err
	}
	banked, err := s.store.Sum(ctx, tenantID, models.TableReconciliations,
		ledger.Cashing(true), ledger.ForMethod(models.MethodCash))
	if err != nil {
		return decimal.Zero, err
	}
	return round3(sales.Add(recovers).Sub(costs).Sub(purchases).Sub(banked)), nil
}

// StockValue is the valuation of the latest snapshot dated today or before.
func (s *MetricsService) StockValue(ctx context.Context, tenantID int64) (decimal.Decimal, error) {
	return s.StockValueAt(ctx, tenantID, s.today())
}

// StockValueAt is the valuation as of an arbitrary reference date.
func (s *MetricsService) StockValueAt(ctx context.Context, tenantID int64, onOrBefore string) (decimal.Decimal, error) {
	v, err := s.store.LatestStockValue(ctx, tenantID, onOrBefore)
	return round3(v), err
}

// StockOnDate returns today's stock valuation, or yesterday's when initial
// is set. Yesterday's figure serves as opening inventory for cost of goods.
func (s *MetricsService) StockOnDate(ctx context.Context, tenantID int64, initial bool) (decimal.Decimal, error) {
	ref := s.Now()
	if initial {
		ref = ref.AddDate(0, 0, -1)
	}
	return s.StockValueAt(ctx, tenantID, ref.Format(dateLayout))
}

// paymentsSign applies the configured liability treatment of payments.
func (s *MetricsService) paymentsSign(base, payments decimal.Decimal) decimal.Decimal {
	if s.subtractPayments {
		return base.Sub(payments)
	}
	return base.Add(payments)
}

// LiabilitiesPerCompany is the obligation toward a supplier net of outflow
// reconciliations. Payments enter with the historical additive sign unless
// configured otherwise; see config.LiabilitiesSubtractPayments.
func (s *MetricsService) LiabilitiesPerCompany(ctx context.Context, tenantID, companyID int64, method models.PaymentMethodID) (decimal.Decimal, error) {
	purchases, err := s.SumPurchases(ctx, tenantID, companyID, method)
	if err != nil {
		return decimal.Zero, err
	}
	payments, err := s.PaymentsPerCompany(ctx, tenantID, companyID, method)
	if err != nil {
		return decimal.Zero, err
	}
	settled, err := s.SumReconciliations(ctx, tenantID, companyID, method, false)
	if err != nil {
		return decimal.Zero, err
	}
	return round3(s.paymentsSign(purchases, payments).Sub(settled)), nil
}

// LiabilitiesPerCost mirrors LiabilitiesPerCompany for cost definitions.
func (s *MetricsService) LiabilitiesPerCost(ctx context.Context, tenantID, costID int64, method models.PaymentMethodID) (decimal.Decimal, error) {
	costs, err := s.SumCosts(ctx, tenantID, costID, method)
	if err != nil {
		return decimal.Zero, err
	}
	payments, err := s.PaymentsPerCost(ctx, tenantID, costID, method)
	if err != nil {
		return decimal.Zero, err
	}
	settled, err := s.SumReconciliationsCosts(ctx, tenantID, costID, method, false)
	if err != nil {
		return decimal.Zero, err
	}
	return round3(s.paymentsSign(costs, payments).Sub(settled)), nil
}

// DebtPerCompany is the explicitly deferred part: credit purchases minus
// payments already made to the supplier.
func (s *MetricsService) DebtPerCompany(ctx context.Context, tenantID, companyID int64) (decimal.Decimal, error) {
	purchases, err := s.SumPurchases(ctx, tenantID, companyID, models.MethodCredit)
	if err != nil {
		return decimal.Zero, err
	}
	payments, err := s.PaymentsPerCompany(ctx, tenantID, companyID, 0)
	if err != nil {
		return decimal.Zero, err
	}
	return round3(purchases.Sub(payments)), nil
}

func (s *MetricsService) DebtPerCost(ctx context.Context, tenantID, costID int64) (decimal.Decimal, error) {
	costs, err := s.SumCosts(ctx, tenantID, costID, models.MethodCredit)
	if err != nil {
		return decimal.Zero, err
	}
	payments, err := s.PaymentsPerCost(ctx, tenantID, costID, 0)
	if err != nil {
		return decimal.Zero, err
	}
	return round3(costs.Sub(payments)), nil
}

func (s *MetricsService) Debt(ctx context.Context, tenantID int64) (decimal.Decimal, error) {
	perCompany, err := s.DebtPerCompany(ctx, tenantID, 0)
	if err != nil {
		return decimal.Zero, err
	}
	perCost, err := s.DebtPerCost(ctx, tenantID, 0)
	if err != nil {
		return decimal.Zero, err
	}
	return round3(perCompany.Add(perCost)), nil
}

// AllLiabilities totals every engagement regardless of counterparty: cost
// entries and purchases not settled in cash or meal vouchers, minus outflow
// reconciliations already recorded.
func (s *MetricsService) AllLiabilities(ctx context.Context, tenantID int64) (decimal.Decimal, error) {
	costs, err := s.store.Sum(ctx, tenantID, models.TableCostEntries,
		ledger.ExcludingMethods(models.MethodCash, models.MethodMealVoucher))
	if err != nil {
		return decimal.Zero, err
	}
	purchases, err := s.store.Sum(ctx, tenantID, models.TablePurchases,
		ledger.ExcludingMethods(models.MethodCash, models.MethodMealVoucher))
	if err != nil {
		return decimal.Zero, err
	}
	settled, err := s.SumReconciliations(ctx, tenantID, 0, 0, false)
	if err != nil {
		return decimal.Zero, err
	}
	return round3(costs.Add(purchases).Sub(settled)), nil
}

// EconomicSituation is the single net-worth-like scalar: receivables and
// instrument balances plus bank, cash and stock, less all liabilities.
func (s *MetricsService) EconomicSituation(ctx context.Context, tenantID int64) (decimal.Decimal, error) {
	total, err := s.SoldClients(ctx, tenantID, 0)
	if err != nil {
		return decimal.Zero, err
	}
	for _, method := range models.PortfolioMethods {
		balance, err := s.SoldPortefeuille(ctx, tenantID, 0, method)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(balance)
	}

	banque, err := s.Banque(ctx, tenantID)
	if err != nil {
		return decimal.Zero, err
	}
	caisse, err := s.Caisse(ctx, tenantID)
	if err != nil {
		return decimal.Zero, err
	}
	stock, err := s.StockValue(ctx, tenantID)
	if err != nil {
		return decimal.Zero, err
	}
	liabilities, err := s.AllLiabilities(ctx, tenantID)
	if err != nil {
		return decimal.Zero, err
	}

	return round3(total.Add(banque).Add(caisse).Add(stock).Sub(liabilities)), nil
}

// FinancialCapacity is the liquid solvency indicator: bank plus cash less
// all liabilities, receivables and stock excluded.
func (s *MetricsService) FinancialCapacity(ctx context.Context, tenantID int64) (decimal.Decimal, error) {
	banque, err := s.Banque(ctx, tenantID)
	if err != nil {
		return decimal.Zero, err
	}
	caisse, err := s.Caisse(ctx, tenantID)
	if err != nil {
		return decimal.Zero, err
	}
	liabilities, err := s.AllLiabilities(ctx, tenantID)
	if err != nil {
		return decimal.Zero, err
	}
	return round3(banque.Add(caisse).Sub(liabilities)), nil
}

// ----------------------------------------------------------------------------
// Exploitation (P&L chain)
// ----------------------------------------------------------------------------

func (s *MetricsService) SalesOnPeriod(ctx context.Context, tenantID int64, p Period) (decimal.Decimal, error) {
	sum, err := s.store.Sum(ctx, tenantID, models.TableSales, s.periodOptions(p)...)
	return round3(sum), err
}

func (s *MetricsService) PurchasesOnPeriod(ctx context.Context, tenantID int64, p Period) (decimal.Decimal, error) {
	sum, err := s.store.Sum(ctx, tenantID, models.TablePurchases, s.periodOptions(p)...)
	return round3(sum), err
}

// CostsOnPeriod totals cost entries whose definition carries the given fixed
// classification.
func (s *MetricsService) CostsOnPeriod(ctx context.Context, tenantID int64, p Period, fixed bool) (decimal.Decimal, error) {
	opts := append(s.periodOptions(p), ledger.FixedCosts(fixed))
	sum, err := s.store.Sum(ctx, tenantID, models.TableCostEntries, opts...)
	return round3(sum), err
}

// CostOfGoodsSold is the inventory draw-down plus net purchases:
// (initial stock - current stock) + purchases over the period.
func (s *MetricsService) CostOfGoodsSold(ctx context.Context, tenantID int64, p Period) (decimal.Decimal, error) {
	initial, err := s.StockOnDate(ctx, tenantID, true)
	if err != nil {
		return decimal.Zero, err
	}
	current, err := s.StockOnDate(ctx, tenantID, false)
	if err != nil {
		return decimal.Zero, err
	}
	purchases, err := s.PurchasesOnPeriod(ctx, tenantID, p)
	if err != nil {
		return decimal.Zero, err
	}
	return round3(initial.Sub(current).Add(purchases)), nil
}

func (s *MetricsService) GrossMargin(ctx context.Context, tenantID int64, p Period) (decimal.Decimal, error) {
	sales, err := s.SalesOnPeriod(ctx, tenantID, p)
	if err != nil {
		return decimal.Zero, err
	}
	cogs, err := s.CostOfGoodsSold(ctx, tenantID, p)
	if err != nil {
		return decimal.Zero, err
	}
	return round3(sales.Sub(cogs)), nil
}

func (s *MetricsService) GrossOperatingIncome(ctx context.Context, tenantID int64, p Period) (decimal.Decimal, error) {
	margin, err := s.GrossMargin(ctx, tenantID, p)
	if err != nil {
		return decimal.Zero, err
	}
	variable, err := s.CostsOnPeriod(ctx, tenantID, p, false)
	if err != nil {
		return decimal.Zero, err
	}
	fixed, err := s.CostsOnPeriod(ctx, tenantID, p, true)
	if err != nil {
		return decimal.Zero, err
	}
	return round3(margin.Sub(variable.Add(fixed))), nil
}

func (s *MetricsService) TaxOnGrossOperatingIncome(ctx context.Context, tenantID int64, p Period) (decimal.Decimal, error) {
	income, err := s.GrossOperatingIncome(ctx, tenantID, p)
	if err != nil {
		return decimal.Zero, err
	}
	return round3(taxRate.Mul(income)), nil
}

func (s *MetricsService) NetOperatingIncome(ctx context.Context, tenantID int64, p Period) (decimal.Decimal, error) {
	income, err := s.GrossOperatingIncome(ctx, tenantID, p)
	if err != nil {
		return decimal.Zero, err
	}
	tax, err := s.TaxOnGrossOperatingIncome(ctx, tenantID, p)
	if err != nil {
		return decimal.Zero, err
	}
	depreciation := decimal.Zero // amortization not tracked yet
	return round3(income.Sub(tax).Sub(depreciation)), nil
}

// ----------------------------------------------------------------------------
// Treasury ladder
// ----------------------------------------------------------------------------

// TreasuryLadder is the 7-day view of one ISO week: opening and closing bank
// balances per day plus per-method inflow/outflow totals for that day.
// Matrix cells follow the Methods column order.
type TreasuryLadder struct {
	Week     string                   `json:"week"`
	FirstDay string                   `json:"first_day"`
	Methods  []models.PaymentMethodID `json:"methods"`
	Openings []decimal.Decimal        `json:"openings"`
	Closings []decimal.Decimal        `json:"closings"`
	Inflows  [][]decimal.Decimal      `json:"inflows"`
	Outflows [][]decimal.Decimal      `json:"outflows"`
}

// parseISOWeek resolves a "YYYY-Wnn" token to the Monday of that week.
func parseISOWeek(week string) (time.Time, error) {
	parts := strings.SplitN(week, "-W", 2)
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("invalid week token %q", week)
	}
	var year, wk int
	if _, err := fmt.Sscanf(parts[0], "%d", &year); err != nil {
		return time.Time{}, fmt.Errorf("invalid week token %q", week)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &wk); err != nil || wk < 1 || wk > 53 {
		return time.Time{}, fmt.Errorf("invalid week token %q", week)
	}

	// January 4th is always in ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	mondayOfWeek1 := jan4.AddDate(0, 0, -((int(jan4.Weekday()) + 6) % 7))
	return mondayOfWeek1.AddDate(0, 0, (wk-1)*7), nil
}

// ResolveWeek returns the Monday and normalized label for a week token,
// defaulting to the current week when the token is empty or malformed.
func (s *MetricsService) ResolveWeek(week string) (time.Time, string) {
	if strings.Contains(week, "-W") {
		if firstDay, err := parseISOWeek(week); err == nil {
			return firstDay, week
		}
	}
	now := s.Now()
	firstDay := now.AddDate(0, 0, -((int(now.Weekday()) + 6) % 7))
	year, wk := firstDay.ISOWeek()
	return firstDay, fmt.Sprintf("%d-W%d", year, wk)
}

// ComputeTreasuryLadder builds the weekly treasury matrix. Openings are the
// running bank position up to the prior day, closings up to the day itself.
func (s *MetricsService) ComputeTreasuryLadder(ctx context.Context, tenantID int64, week string) (*TreasuryLadder, error) {
	firstDay, label := s.ResolveWeek(week)

	ladder := &TreasuryLadder{
		Week:     label,
		FirstDay: firstDay.Format(dateLayout),
		Methods:  models.TreasuryMethods,
		Openings: make([]decimal.Decimal, 7),
		Closings: make([]decimal.Decimal, 7),
		Inflows:  make([][]decimal.Decimal, 7),
		Outflows: make([][]decimal.Decimal, 7),
	}

	for dayNumber := 0; dayNumber < 7; dayNumber++ {
		day := firstDay.AddDate(0, 0, dayNumber).Format(dateLayout)
		dayBefore := firstDay.AddDate(0, 0, dayNumber-1).Format(dateLayout)

		opening, err := s.BanqueOnDate(ctx, tenantID, "", dayBefore, false)
		if err != nil {
			return nil, err
		}
		closing, err := s.BanqueOnDate(ctx, tenantID, "", day, false)
		if err != nil {
			return nil, err
		}
		ladder.Openings[dayNumber] = opening
		ladder.Closings[dayNumber] = closing

		inflows := make([]decimal.Decimal, len(ladder.Methods))
		outflows := make([]decimal.Decimal, len(ladder.Methods))
		for i, method := range ladder.Methods {
			in, err := s.store.Sum(ctx, tenantID, models.TableReconciliations,
				ledger.On(day), ledger.Cashing(true), ledger.ForMethod(method))
			if err != nil {
				return nil, err
			}
			out, err := s.store.Sum(ctx, tenantID, models.TableReconciliations,
				ledger.On(day), ledger.Cashing(false), ledger.ForMethod(method))
			if err != nil {
				return nil, err
			}
			inflows[i] = round3(in)
			outflows[i] = round3(out)
		}
		ladder.Inflows[dayNumber] = inflows
		ladder.Outflows[dayNumber] = outflows
	}

	return ladder, nil
}
