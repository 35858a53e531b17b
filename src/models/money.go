package models

import "github.com/shopspring/decimal"

// Monetary amounts are persisted as integer millis (scale 3, the precision
// every report rounds to) so SQL SUM() stays exact. These helpers convert at
// the storage boundary.

func MilliFromDecimal(d decimal.Decimal) int64 {
	return d.Shift(3).IntPart()
}

func DecimalFromMilli(milli int64) decimal.Decimal {
	return decimal.New(milli, -3)
}
