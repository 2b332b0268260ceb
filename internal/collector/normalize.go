package collector

import (
	"fundingflow/internal/exchange"
	"fundingflow/internal/models"
)

// successRecord folds a venue payload into the uniform record shape. Nil
// payload fields stay nil; nothing is defaulted to zero.
func successRecord(id exchange.ExchangeID, sym models.LogicalSymbol, candidate string, raw models.RawFundingRate) models.FundingRateRecord {
	return models.FundingRateRecord{
		Exchange:        string(id),
		Symbol:          sym.String(),
		PerpetualSymbol: candidate,
		FundingRate:     raw.Rate,
		FundingTime:     raw.FundingTime,
		NextFundingTime: raw.NextFundingTime,
		Timestamp:       raw.Timestamp,
		Success:         true,
	}
}

// failureRecord builds the record for an exchange whose every candidate
// failed. The perpetual symbol reports the first candidate tried and the
// error is the last one observed.
func failureRecord(id exchange.ExchangeID, sym models.LogicalSymbol, firstCandidate string, err error) models.FundingRateRecord {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return models.FundingRateRecord{
		Exchange:        string(id),
		Symbol:          sym.String(),
		PerpetualSymbol: firstCandidate,
		Success:         false,
		Error:           models.StringPtr(msg),
	}
}
