package models

import (
	"fmt"
	"strings"
)

// LogicalSymbol identifies a base asset paired with a quote asset, e.g.
// BTC/USDT. It is a pure lookup key; venue-specific instrument names are
// derived from it per exchange.
type LogicalSymbol struct {
	Base  string
	Quote string
}

// NewLogicalSymbol builds a LogicalSymbol from an uppercase ticker and a
// quote asset. An empty quote defaults to USDT.
func NewLogicalSymbol(base, quote string) LogicalSymbol {
	if quote == "" {
		quote = "USDT"
	}
	return LogicalSymbol{
		Base:  strings.ToUpper(strings.TrimSpace(base)),
		Quote: strings.ToUpper(strings.TrimSpace(quote)),
	}
}

func (s LogicalSymbol) String() string {
	return fmt.Sprintf("%s/%s", s.Base, s.Quote)
}

// RawFundingRate is the uniform payload every adapter produces from its
// venue response. All fields are nullable: absent venue fields stay nil and
// are never defaulted. FundingTime and NextFundingTime carry the venue's own
// representation (millisecond strings, second counts, ISO datetimes) without
// reconciliation; Timestamp is the venue request/response time in epoch
// milliseconds when the venue reports one.
type RawFundingRate struct {
	Rate            *float64
	FundingTime     *string
	NextFundingTime *string
	Timestamp       *int64
}

// FundingRateRecord is the uniform per-exchange output unit.
type FundingRateRecord struct {
	Exchange        string   `json:"exchange"`
	Symbol          string   `json:"symbol"`
	PerpetualSymbol string   `json:"perpetual_symbol"`
	FundingRate     *float64 `json:"funding_rate"`
	FundingTime     *string  `json:"funding_time"`
	NextFundingTime *string  `json:"next_funding_time"`
	Timestamp       *int64   `json:"timestamp"`
	Success         bool     `json:"success"`
	Error           *string  `json:"error"`
}

// ExchangeReport holds one record per configured exchange for a single
// logical symbol, in exchange configuration order.
type ExchangeReport []FundingRateRecord

// AggregateReport maps each requested logical symbol (its String form) to
// its exchange report. Every requested symbol appears exactly once.
type AggregateReport map[string]ExchangeReport

// Successful returns the records flagged as successful.
func (r ExchangeReport) Successful() []FundingRateRecord {
	out := make([]FundingRateRecord, 0, len(r))
	for _, rec := range r {
		if rec.Success {
			out = append(out, rec)
		}
	}
	return out
}

// FailedExchanges lists the exchanges whose fetch failed.
func (r ExchangeReport) FailedExchanges() []string {
	out := make([]string, 0)
	for _, rec := range r {
		if !rec.Success {
			out = append(out, rec.Exchange)
		}
	}
	return out
}

// Float64Ptr returns a pointer to v. Convenience for building nullable
// payload fields.
func Float64Ptr(v float64) *float64 { return &v }

// StringPtr returns a pointer to v.
func StringPtr(v string) *string { return &v }

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 { return &v }
