package mexc

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
	cfg.Source.Mexc.URL = url
	return cfg
}

func TestFetchFundingRate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/contract/funding_rate/BTC_USDT" {
			t.Errorf("path = %q", r.URL.Path)
		}
		fmt.Fprintln(w, `{"success":true,"code":0,"data":{"symbol":"BTC_USDT","fundingRate":0.000095,"nextSettleTime":1733922000000,"timestamp":1733890000000}}`)
	}))
	defer server.Close()

	a := New(testConfig(server.URL))
	raw, err := a.FetchFundingRate(context.Background(), "BTC_USDT")
	if err != nil {
		t.Fatalf("FetchFundingRate failed: %v", err)
	}
	if raw.Rate == nil || *raw.Rate != 0.000095 {
		t.Errorf("rate = %v, want 0.000095", raw.Rate)
	}
	if raw.NextFundingTime == nil || *raw.NextFundingTime != "1733922000000" {
		t.Errorf("next funding time = %v", raw.NextFundingTime)
	}
	if raw.Timestamp == nil || *raw.Timestamp != 1733890000000 {
		t.Errorf("timestamp = %v", raw.Timestamp)
	}
}

func TestFetchFundingRateRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"success":false,"code":1002,"message":"Contract not activated"}`)
	}))
	defer server.Close()

	a := New(testConfig(server.URL))
	_, err := a.FetchFundingRate(context.Background(), "NOPE_USDT")
	var nf *exchange.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error = %v (%T), want *exchange.NotFoundError", err, err)
	}
}

func TestFetchFundingRateNullRateStaysNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"success":true,"code":0,"data":{"symbol":"BTC_USDT","fundingRate":null,"nextSettleTime":0,"timestamp":0}}`)
	}))
	defer server.Close()

	a := New(testConfig(server.URL))
	raw, err := a.FetchFundingRate(context.Background(), "BTC_USDT")
	if err != nil {
		t.Fatalf("FetchFundingRate failed: %v", err)
	}
	if raw.Rate != nil || raw.NextFundingTime != nil || raw.Timestamp != nil {
		t.Errorf("expected all-nil payload, got %+v", raw)
	}
}
