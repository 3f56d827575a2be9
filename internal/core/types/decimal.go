// Package types provides calendar date and decimal rounding helpers shared by
// the report payloads.
package types

import (
	"github.com/shopspring/decimal"
)

// Output precisions. Aggregation state is never rounded; these apply only
// when a value is written into a report payload.
const (
	MoneyPlaces    int32 = 2
	PercentPlaces  int32 = 2
	RatePlaces     int32 = 3
	WeightVarPlace int32 = 3
)

var hundred = decimal.NewFromInt(100)

// OrZero dereferences a nullable decimal, treating nil as zero.
func OrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

// Round rounds d half away from zero and converts it to float64 for output.
func Round(d decimal.Decimal, places int32) float64 {
	return d.Round(places).InexactFloat64()
}

// Round2 rounds to two decimal places (money, quantities, percentages).
func Round2(d decimal.Decimal) float64 {
	return Round(d, MoneyPlaces)
}

// Round3 rounds to three decimal places (turnover rates, weight variance).
func Round3(d decimal.Decimal) float64 {
	return Round(d, RatePlaces)
}

// RoundPtr rounds a nullable decimal; nil stays nil.
func RoundPtr(d *decimal.Decimal, places int32) *float64 {
	if d == nil {
		return nil
	}
	v := Round(*d, places)
	return &v
}

// Ratio returns num/den, or zero when den is not positive.
func Ratio(num, den decimal.Decimal) decimal.Decimal {
	if !den.IsPositive() {
		return decimal.Zero
	}
	return num.Div(den)
}

// Percent returns num/den*100, or zero when den is not positive.
func Percent(num, den decimal.Decimal) decimal.Decimal {
	if !den.IsPositive() {
		return decimal.Zero
	}
	return num.Mul(hundred).Div(den)
}
