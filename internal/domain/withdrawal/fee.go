package withdrawal

import "github.com/shopspring/decimal"

// Transfer fee bands in NGN, mirroring the provider's flat pricing.
var (
	feeSmallCutoff  = decimal.NewFromInt(5000)
	feeMediumCutoff = decimal.NewFromInt(50000)

	feeSmall  = decimal.NewFromInt(10)
	feeMedium = decimal.NewFromInt(25)
	feeLarge  = decimal.NewFromInt(50)
)

// Fee maps a withdrawal amount to its flat processing fee. Pure and
// deterministic: the same amount always yields the same fee, and
// Fee(a) + Net(a) == a for every positive amount.
func Fee(amount decimal.Decimal) decimal.Decimal {
	switch {
	case amount.LessThanOrEqual(feeSmallCutoff):
		return feeSmall
	case amount.LessThanOrEqual(feeMediumCutoff):
		return feeMedium
	default:
		return feeLarge
	}
}

// Net returns the amount actually transferred after the fee
func Net(amount decimal.Decimal) decimal.Decimal {
	return amount.Sub(Fee(amount))
}
