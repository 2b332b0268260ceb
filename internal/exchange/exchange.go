package exchange

import (
	"context"
	"net"
	"net/http"
	"time"

	appconfig "fundingflow/config"
	"fundingflow/internal/models"
)

// ExchangeID enumerates the supported venues. The set is fixed at
// configuration time; there is no runtime registration.
type ExchangeID string

const (
	Bitget  ExchangeID = "bitget"
	Huobi   ExchangeID = "huobi"
	Bybit   ExchangeID = "bybit"
	Bingx   ExchangeID = "bingx"
	Gateio  ExchangeID = "gateio"
	Okx     ExchangeID = "okx"
	Mexc    ExchangeID = "mexc"
	Kucoin  ExchangeID = "kucoin"
	Binance ExchangeID = "binance"
)

// All lists every supported exchange in the default aggregation order.
func All() []ExchangeID {
	return []ExchangeID{Bitget, Huobi, Bybit, Bingx, Gateio, Okx, Mexc, Kucoin, Binance}
}

// Known reports whether id names a supported exchange.
func Known(id ExchangeID) bool {
	for _, e := range All() {
		if e == id {
			return true
		}
	}
	return false
}

// Adapter fetches the current funding rate for one venue instrument.
// Implementations wrap a single exchange's REST semantics and must be safe
// for concurrent use; their only mutable state is advisory instrument
// metadata whose miss costs an extra round trip, never an error.
type Adapter interface {
	ID() ExchangeID
	FetchFundingRate(ctx context.Context, candidate string) (models.RawFundingRate, error)
}

// NewHTTPClient builds the pooled HTTP client every REST adapter shares the
// configuration of. A non-positive timeout falls back to ten seconds so no
// venue call can hang unbounded.
func NewHTTPClient(cfg *appconfig.Config) *http.Client {
	pool := cfg.Reader.ConnectionPool
	transport := &http.Transport{
		MaxIdleConns:        pool.MaxIdleConns,
		MaxIdleConnsPerHost: pool.MaxIdleConns,
		MaxConnsPerHost:     pool.MaxConnsPerHost,
		IdleConnTimeout:     pool.IdleConnTimeout,
		DisableCompression:  false,
	}
	if transport.DialContext == nil {
		dialer := &net.Dialer{Timeout: 5 * time.Second}
		transport.DialContext = dialer.DialContext
	}

	timeout := cfg.Reader.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &http.Client{Transport: transport, Timeout: timeout}
}
