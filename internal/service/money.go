package service

import "github.com/shopspring/decimal"

// TaxRate — единая ставка налога на заказ.
var TaxRate = decimal.RequireFromString("0.08")

type Totals struct {
	Subtotal     decimal.Decimal
	Tax          decimal.Decimal
	TotalWithTax decimal.Decimal
}

// ComputeTotals округляет каждую сумму до центов (half-up), так что TotalWithTax*100 — целое
// и совпадает с суммой, переданной шлюзу.
func ComputeTotals(subtotal decimal.Decimal) Totals {
	sub := subtotal.Round(2)
	tax := sub.Mul(TaxRate).Round(2)
	return Totals{
		Subtotal:     sub,
		Tax:          tax,
		TotalWithTax: sub.Add(tax),
	}
}

// ToMinorUnits: round-half-up(amount * 100).
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
