package models

import "database/sql"

// PaymentMethodID is the closed enumeration of payment methods. The numeric
// values are load-bearing: they match the seeded payment_methods rows and the
// aggregation engine branches on them. Never renumber.
type PaymentMethodID int64

const (
	MethodCash         PaymentMethodID = 1
	MethodCheque       PaymentMethodID = 2
	MethodDraft        PaymentMethodID = 3 // traite
	MethodCredit       PaymentMethodID = 4
	MethodCard         PaymentMethodID = 5 // TPE
	MethodMealVoucher  PaymentMethodID = 6 // ticket resto
	MethodBankTransfer PaymentMethodID = 7 // virement
)

// TreasuryMethods are the methods tracked per-day in the treasury ladder,
// everything except Credit.
var TreasuryMethods = []PaymentMethodID{
	MethodCash, MethodCheque, MethodDraft, MethodCard, MethodMealVoucher, MethodBankTransfer,
}

// PortfolioMethods are the uncashed-instrument methods shown on the dashboard
// and folded into the economic situation.
var PortfolioMethods = []PaymentMethodID{
	MethodCheque, MethodDraft, MethodCard, MethodMealVoucher,
}

func (m PaymentMethodID) Valid() bool {
	return m >= MethodCash && m <= MethodBankTransfer
}

// RequiresDocument reports whether intake must demand a document number and
// due date for this method.
func (m PaymentMethodID) RequiresDocument() bool {
	return m == MethodCheque || m == MethodDraft
}

func (m PaymentMethodID) String() string {
	switch m {
	case MethodCash:
		return "cash"
	case MethodCheque:
		return "cheque"
	case MethodDraft:
		return "draft"
	case MethodCredit:
		return "credit"
	case MethodCard:
		return "card"
	case MethodMealVoucher:
		return "meal_voucher"
	case MethodBankTransfer:
		return "bank_transfer"
	}
	return "unknown"
}

// PaymentMethod is the seeded reference row.
type PaymentMethod struct {
	ID   PaymentMethodID `json:"id"`
	Name string          `json:"name"`
}

func ListPaymentMethods(db *sql.DB) ([]PaymentMethod, error) {
	rows, err := db.Query("SELECT id, name FROM payment_methods ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var methods []PaymentMethod
	for rows.Next() {
		var m PaymentMethod
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, rows.Err()
}
