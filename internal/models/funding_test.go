package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNewLogicalSymbolDefaults(t *testing.T) {
	s := NewLogicalSymbol(" btc ", "")
	if s.Base != "BTC" || s.Quote != "USDT" {
		t.Errorf("symbol = %+v, want BTC/USDT", s)
	}
	if s.String() != "BTC/USDT" {
		t.Errorf("String() = %q", s.String())
	}
}

func TestFundingRateRecordJSONNulls(t *testing.T) {
	rec := FundingRateRecord{
		Exchange:        "gateio",
		Symbol:          "BTC/USDT",
		PerpetualSymbol: "BTC_USDT",
		FundingRate:     Float64Ptr(0.0001),
		Success:         true,
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := string(data)

	if !strings.Contains(out, `"funding_rate":0.0001`) {
		t.Errorf("missing funding_rate: %s", out)
	}
	// Absent venue fields serialise as explicit nulls, never zeros.
	for _, want := range []string{`"funding_time":null`, `"next_funding_time":null`, `"timestamp":null`, `"error":null`} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in %s", want, out)
		}
	}
}

func TestExchangeReportHelpers(t *testing.T) {
	report := ExchangeReport{
		{Exchange: "okx", Success: true},
		{Exchange: "bitget", Success: false},
		{Exchange: "mexc", Success: true},
	}

	if got := len(report.Successful()); got != 2 {
		t.Errorf("Successful() = %d records, want 2", got)
	}
	failed := report.FailedExchanges()
	if len(failed) != 1 || failed[0] != "bitget" {
		t.Errorf("FailedExchanges() = %v, want [bitget]", failed)
	}
}
