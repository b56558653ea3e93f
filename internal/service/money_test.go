package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestComputeTotals(t *testing.T) {
	tot := ComputeTotals(decimal.RequireFromString("39.95"))
	assert.Equal(t, "39.95", tot.Subtotal.StringFixed(2))
	assert.Equal(t, "3.20", tot.Tax.StringFixed(2))
	assert.Equal(t, "43.15", tot.TotalWithTax.StringFixed(2))
	assert.Equal(t, int64(4315), ToMinorUnits(tot.TotalWithTax))
}

func TestComputeTotals_MinorUnitsAreExact(t *testing.T) {
	for _, s := range []string{"0.01", "1.99", "12.345", "99.99", "250"} {
		tot := ComputeTotals(decimal.RequireFromString(s))
		minor := ToMinorUnits(tot.TotalWithTax)
		assert.True(t, FromMinorUnits(minor).Equal(tot.TotalWithTax), s)
		assert.True(t, tot.Subtotal.Add(tot.Tax).Equal(tot.TotalWithTax), s)
	}
}

func TestToMinorUnits_HalfUp(t *testing.T) {
	assert.Equal(t, int64(1001), ToMinorUnits(decimal.RequireFromString("10.005")))
	assert.Equal(t, int64(1000), ToMinorUnits(decimal.RequireFromString("10.004")))
	assert.Equal(t, "43.15", FromMinorUnits(4315).StringFixed(2))
}
