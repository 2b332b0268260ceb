package bingx

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appconfig "fundingflow/config"
	"fundingflow/internal/exchange"
)

func testConfig(url string) *appconfig.Config {
	cfg := &appconfig.Config{}
	cfg.Reader.Timeout = 2 * time.Second
	cfg.Reader.RateLimit.RequestsPerSecond = 100
	cfg.Reader.RateLimit.BurstSize = 10
	cfg.Source.Bingx.URL = url
	return cfg
}

func TestFetchFundingRate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("symbol"); got != "BTC-USDT" {
			t.Errorf("symbol = %q, want BTC-USDT", got)
		}
		fmt.Fprintln(w, `{"code":0,"msg":"","data":{"symbol":"BTC-USDT","lastFundingRate":"0.0001","nextFundingTime":1733922000000}}`)
	}))
	defer server.Close()

	a := New(testConfig(server.URL))
	raw, err := a.FetchFundingRate(context.Background(), "BTC-USDT")
	if err != nil {
		t.Fatalf("FetchFundingRate failed: %v", err)
	}
	if raw.Rate == nil || *raw.Rate != 0.0001 {
		t.Errorf("rate = %v, want 0.0001", raw.Rate)
	}
	if raw.NextFundingTime == nil || *raw.NextFundingTime != "1733922000000" {
		t.Errorf("next funding time = %v", raw.NextFundingTime)
	}
	if raw.FundingTime != nil || raw.Timestamp != nil {
		t.Errorf("expected nil funding time and timestamp, got %+v", raw)
	}
}

func TestFetchFundingRateRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"code":100400,"msg":"invalid symbol","data":{}}`)
	}))
	defer server.Close()

	a := New(testConfig(server.URL))
	_, err := a.FetchFundingRate(context.Background(), "NOPE/USDT")
	var nf *exchange.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error = %v (%T), want *exchange.NotFoundError", err, err)
	}
}
