package taxengine

import "math"

// Round converts a full-precision amount to integer cents, rounding half
// away from zero. This is the single rounding point of the engine: every
// stored or presented amount passes through here exactly once.
func Round(amount float64) int64 {
	return int64(math.Round(amount))
}

// ApplyPercentage computes rate% of base. The base is integer cents, the
// rate a percentage (19 means 19%).
func ApplyPercentage(base int64, rate float64) int64 {
	return Round(float64(base) * rate / 100)
}

// LinePreTax derives a line's pre-tax amount from quantity, unit price and
// discount. The intermediate product stays at full precision; only the
// result is rounded to cents.
func LinePreTax(quantity float64, unitPrice int64, discountPercent float64) int64 {
	return Round(quantity * float64(unitPrice) * (1 - discountPercent/100))
}
