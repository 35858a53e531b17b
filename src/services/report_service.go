package services

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/username/gescom/backend/src/logger"
	"github.com/username/gescom/backend/src/models"
)

const (
	DefaultCacheExpiration = 30 * time.Second
	CacheCleanupInterval   = 5 * time.Minute
)

// DashboardView is the balance-sheet snapshot shown on the landing page.
type DashboardView struct {
	SoldClients       decimal.Decimal `json:"sold_clients"`
	SoldCheques       decimal.Decimal `json:"sold_cheques"`
	SoldDrafts        decimal.Decimal `json:"sold_drafts"`
	SoldCard          decimal.Decimal `json:"sold_card"`
	SoldMealVouchers  decimal.Decimal `json:"sold_meal_vouchers"`
	Banque            decimal.Decimal `json:"banque"`
	Caisse            decimal.Decimal `json:"caisse"`
	Stock             decimal.Decimal `json:"stock"`
	Debt              decimal.Decimal `json:"debt"`
	AllLiabilities    decimal.Decimal `json:"all_liabilities"`
	EconomicSituation decimal.Decimal `json:"economic_situation"`
	FinancialCapacity decimal.Decimal `json:"financial_capacity"`
}

// ExploitationView is the P&L chain over one period.
type ExploitationView struct {
	Period             Period          `json:"period"`
	Sales              decimal.Decimal `json:"sales"`
	Purchases          decimal.Decimal `json:"purchases"`
	VariableCosts      decimal.Decimal `json:"variable_costs"`
	FixedCosts         decimal.Decimal `json:"fixed_costs"`
	CostOfGoodsSold    decimal.Decimal `json:"cost_of_goods_sold"`
	GrossMargin        decimal.Decimal `json:"gross_margin"`
	GrossOperating     decimal.Decimal `json:"gross_operating_income"`
	Tax                decimal.Decimal `json:"tax"`
	NetOperatingIncome decimal.Decimal `json:"net_operating_income"`
}

// ReportService assembles the dashboard, exploitation and treasury views.
// Dashboard snapshots are cached per tenant for a short TTL; every write
// through the intake service invalidates them.
type ReportService struct {
	metrics *MetricsService
	cache   *cache.Cache
}

func NewReportService(metrics *MetricsService, c *cache.Cache) *ReportService {
	return &ReportService{metrics: metrics, cache: c}
}

func dashboardCacheKey(tenantID int64) string {
	return fmt.Sprintf("dashboard:%d", tenantID)
}

// InvalidateTenantCache drops any cached view for the tenant. Called after
// every mutation so reads never serve pre-write figures.
func (s *ReportService) InvalidateTenantCache(tenantID int64) {
	if s.cache != nil {
		s.cache.Delete(dashboardCacheKey(tenantID))
	}
}

// Dashboard computes (or serves from cache) the full balance snapshot.
func (s *ReportService) Dashboard(ctx context.Context, tenantID int64) (*DashboardView, error) {
	if s.cache != nil {
		if cached, found := s.cache.Get(dashboardCacheKey(tenantID)); found {
			if view, ok := cached.(*DashboardView); ok {
				return view, nil
			}
		}
	}

	m := s.metrics
	view := &DashboardView{}
	var err error

	if view.SoldClients, err = m.SoldClients(ctx, tenantID, 0); err != nil {
		return nil, err
	}
	if view.SoldCheques, err = m.SoldPortefeuille(ctx, tenantID, 0, models.MethodCheque); err != nil {
		return nil, err
	}
	if view.SoldDrafts, err = m.SoldPortefeuille(ctx, tenantID, 0, models.MethodDraft); err != nil {
		return nil, err
	}
	if view.SoldCard, err = m.SoldPortefeuille(ctx, tenantID, 0, models.MethodCard); err != nil {
		return nil, err
	}
	if view.SoldMealVouchers, err = m.SoldPortefeuille(ctx, tenantID, 0, models.MethodMealVoucher); err != nil {
		return nil, err
	}
	if view.Banque, err = m.Banque(ctx, tenantID); err != nil {
		return nil, err
	}
	if view.Caisse, err = m.Caisse(ctx, tenantID); err != nil {
		return nil, err
	}
	if view.Stock, err = m.StockValue(ctx, tenantID); err != nil {
		return nil, err
	}
	if view.Debt, err = m.Debt(ctx, tenantID); err != nil {
		return nil, err
	}
	if view.AllLiabilities, err = m.AllLiabilities(ctx, tenantID); err != nil {
		return nil, err
	}
	if view.EconomicSituation, err = m.EconomicSituation(ctx, tenantID); err != nil {
		return nil, err
	}
	if view.FinancialCapacity, err = m.FinancialCapacity(ctx, tenantID); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(dashboardCacheKey(tenantID), view, DefaultCacheExpiration)
	}
	return view, nil
}

// Exploitation computes the income chain for the requested period.
func (s *ReportService) Exploitation(ctx context.Context, tenantID int64, p Period) (*ExploitationView, error) {
	m := s.metrics
	view := &ExploitationView{Period: p}
	var err error

	if view.Sales, err = m.SalesOnPeriod(ctx, tenantID, p); err != nil {
		return nil, err
	}
	if view.Purchases, err = m.PurchasesOnPeriod(ctx, tenantID, p); err != nil {
		return nil, err
	}
	if view.VariableCosts, err = m.CostsOnPeriod(ctx, tenantID, p, false); err != nil {
		return nil, err
	}
	if view.FixedCosts, err = m.CostsOnPeriod(ctx, tenantID, p, true); err != nil {
		return nil, err
	}
	if view.CostOfGoodsSold, err = m.CostOfGoodsSold(ctx, tenantID, p); err != nil {
		return nil, err
	}
	if view.GrossMargin, err = m.GrossMargin(ctx, tenantID, p); err != nil {
		return nil, err
	}
	if view.GrossOperating, err = m.GrossOperatingIncome(ctx, tenantID, p); err != nil {
		return nil, err
	}
	if view.Tax, err = m.TaxOnGrossOperatingIncome(ctx, tenantID, p); err != nil {
		return nil, err
	}
	if view.NetOperatingIncome, err = m.NetOperatingIncome(ctx, tenantID, p); err != nil {
		return nil, err
	}

	logger.L.Debug("exploitation view computed", "tenant_id", tenantID)
	return view, nil
}

// TreasuryView pairs the weekly ladder with the tenant's recorded movements:
// encaissements (money in) and décaissements (money out), newest first.
type TreasuryView struct {
	Ladder        *TreasuryLadder         `json:"ladder"`
	Encaissements []models.Reconciliation `json:"encaissements"`
	Decaissements []models.Reconciliation `json:"decaissements"`
}

// Treasury computes the weekly ladder for the requested ISO week token and
// attaches the running reconciliation lists.
func (s *ReportService) Treasury(ctx context.Context, tenantID int64, week string) (*TreasuryView, error) {
	ladder, err := s.metrics.ComputeTreasuryLadder(ctx, tenantID, week)
	if err != nil {
		return nil, err
	}

	db := s.metrics.store.DB()
	in := true
	encaissements, err := models.ListReconciliations(db, tenantID, &in)
	if err != nil {
		return nil, err
	}
	out := false
	decaissements, err := models.ListReconciliations(db, tenantID, &out)
	if err != nil {
		return nil, err
	}
	if encaissements == nil {
		encaissements = []models.Reconciliation{}
	}
	if decaissements == nil {
		decaissements = []models.Reconciliation{}
	}

	return &TreasuryView{
		Ladder:        ladder,
		Encaissements: encaissements,
		Decaissements: decaissements,
	}, nil
}
