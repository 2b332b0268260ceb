package kucoin

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
	cfg.Reader.ConnectionPool.MaxIdleConns = 1
	cfg.Reader.ConnectionPool.MaxConnsPerHost = 1
	cfg.Reader.ConnectionPool.IdleConnTimeout = time.Second
	cfg.Source.Kucoin.URL = url
	return cfg
}

// The test server answers the premium-index probe with an empty payload so
// only the funding-rate endpoint shape is under test.
func fundingServer(t *testing.T, fundingBody string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/premium/query" {
			fmt.Fprintln(w, `{"code":"200000","data":{"hasMore":false,"dataList":[]}}`)
			return
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
		}
		fmt.Fprintln(w, fundingBody)
	}))
}

func TestFetchFundingRate(t *testing.T) {
	body := `{"code":"200000","data":{"symbol":"XBTUSDTM","granularity":28800000,"timePoint":1733893200000,"value":0.000123,"predictedValue":0.0001}}`
	server := fundingServer(t, body, http.StatusOK)
	defer server.Close()

	a := New(testConfig(server.URL))
	raw, err := a.FetchFundingRate(context.Background(), "XBTUSDTM")
	if err != nil {
		t.Fatalf("FetchFundingRate failed: %v", err)
	}
	if raw.Rate == nil || *raw.Rate != 0.000123 {
		t.Errorf("rate = %v, want 0.000123", raw.Rate)
	}
	if raw.Timestamp == nil || *raw.Timestamp != 1733893200000 {
		t.Errorf("timestamp = %v, want 1733893200000", raw.Timestamp)
	}
	if raw.FundingTime == nil || *raw.FundingTime != "1733893200000" {
		t.Errorf("funding time = %v", raw.FundingTime)
	}
}

func TestFetchFundingRateEnvelopeCodeRejected(t *testing.T) {
	body := `{"code":"404000","msg":"symbol not exists","data":null}`
	server := fundingServer(t, body, http.StatusOK)
	defer server.Close()

	a := New(testConfig(server.URL))
	_, err := a.FetchFundingRate(context.Background(), "NOPEUSDTM")
	var nf *exchange.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error = %v (%T), want *exchange.NotFoundError", err, err)
	}
}

func TestFetchFundingRateHTTPErrorIsNotFound(t *testing.T) {
	server := fundingServer(t, `{"code":"404000","msg":"Not Found"}`, http.StatusNotFound)
	defer server.Close()

	a := New(testConfig(server.URL))
	_, err := a.FetchFundingRate(context.Background(), "NOPEUSDTM")
	var nf *exchange.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("error = %v (%T), want *exchange.NotFoundError", err, err)
	}
}

func TestFetchFundingRateNullValueStaysNil(t *testing.T) {
	body := `{"code":"200000","data":{"symbol":"XBTUSDTM","timePoint":0,"value":null}}`
	server := fundingServer(t, body, http.StatusOK)
	defer server.Close()

	a := New(testConfig(server.URL))
	raw, err := a.FetchFundingRate(context.Background(), "XBTUSDTM")
	if err != nil {
		t.Fatalf("FetchFundingRate failed: %v", err)
	}
	if raw.Rate != nil {
		t.Errorf("rate = %v, want nil for null venue value", raw.Rate)
	}
	if raw.Timestamp != nil {
		t.Errorf("timestamp = %v, want nil for zero timePoint", raw.Timestamp)
	}
}
