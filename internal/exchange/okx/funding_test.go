package okx

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
	cfg.Source.Okx.URL = url
	return cfg
}

func TestFetchFundingRate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("instId"); got != "BTC-USDT-SWAP" {
			t.Errorf("instId = %q, want BTC-USDT-SWAP", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintln(w, `{"code":"0","msg":"","data":[{"instId":"BTC-USDT-SWAP","fundingRate":"0.0001","fundingTime":"1733893200000","nextFundingTime":"1733922000000","ts":"1733890000000"}]}`)
	}))
	defer server.Close()

	a := New(testConfig(server.URL))
	raw, err := a.FetchFundingRate(context.Background(), "BTC-USDT-SWAP")
	if err != nil {
		t.Fatalf("FetchFundingRate failed: %v", err)
	}
	if raw.Rate == nil || *raw.Rate != 0.0001 {
		t.Errorf("rate = %v, want 0.0001", raw.Rate)
	}
	if raw.FundingTime == nil || *raw.FundingTime != "1733893200000" {
		t.Errorf("funding time = %v", raw.FundingTime)
	}
	if raw.Timestamp == nil || *raw.Timestamp != 1733890000000 {
		t.Errorf("timestamp = %v", raw.Timestamp)
	}
}

func TestFetchFundingRateUnknownInstrument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"code":"51001","msg":"Instrument ID does not exist","data":[]}`)
	}))
	defer server.Close()

	a := New(testConfig(server.URL))
	_, err := a.FetchFundingRate(context.Background(), "NOPE/USDT")
	var nf *exchange.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error = %v (%T), want *exchange.NotFoundError", err, err)
	}
}

func TestFetchFundingRateRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	a := New(testConfig(server.URL))
	_, err := a.FetchFundingRate(context.Background(), "BTC-USDT-SWAP")
	var rl *exchange.RateLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("error = %v (%T), want *exchange.RateLimitError", err, err)
	}
}

func TestFetchFundingRateMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `not json at all`)
	}))
	defer server.Close()

	a := New(testConfig(server.URL))
	_, err := a.FetchFundingRate(context.Background(), "BTC-USDT-SWAP")
	var mr *exchange.MalformedResponseError
	if !errors.As(err, &mr) {
		t.Fatalf("error = %v (%T), want *exchange.MalformedResponseError", err, err)
	}
}

func TestFetchFundingRateServerDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	a := New(testConfig(server.URL))
	_, err := a.FetchFundingRate(context.Background(), "BTC-USDT-SWAP")
	var ne *exchange.NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("error = %v (%T), want *exchange.NetworkError", err, err)
	}
}
