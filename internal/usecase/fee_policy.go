package usecase

import "github.com/shopspring/decimal"

const feeScale = 6

// FeePolicy prices the fee charged on a swap's notional.
type FeePolicy interface {
	Fee(notionalIn decimal.Decimal) decimal.Decimal
}

var DefaultSwapFeeRate = decimal.RequireFromString("0.01")

// ProportionalFee charges Rate of the notional, rounded to 6 decimal places.
type ProportionalFee struct {
	Rate decimal.Decimal
}

func NewProportionalFee(rate decimal.Decimal) ProportionalFee {
	if rate.IsNegative() {
		rate = decimal.Zero
	}
	return ProportionalFee{Rate: rate}
}

func (p ProportionalFee) Fee(notionalIn decimal.Decimal) decimal.Decimal {
	return notionalIn.Mul(p.Rate).Round(feeScale)
}
