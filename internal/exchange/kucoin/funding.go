package kucoin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	appconfig "fundingflow/config"
	"fundingflow/internal/exchange"
	"fundingflow/internal/models"
	"fundingflow/logger"

	api "github.com/Kucoin/kucoin-universal-sdk/sdk/golang/pkg/api"
	futuresmarket "github.com/Kucoin/kucoin-universal-sdk/sdk/golang/pkg/generate/futures/market"
	sdktype "github.com/Kucoin/kucoin-universal-sdk/sdk/golang/pkg/types"
	"golang.org/x/time/rate"
)

// Adapter fetches the current funding rate from the KuCoin futures API. The
// funding endpoint is plain REST; the universal SDK's market service is used
// only as an advisory premium-index probe confirming that an instrument
// exists, and a probe miss never fails a fetch.
type Adapter struct {
	client    *http.Client
	marketAPI futuresmarket.MarketAPI
	limiter   *rate.Limiter
	baseURL   string
	log       *logger.Log

	probed sync.Map // map[string]bool, instrument -> confirmed
}

// New builds the KuCoin adapter.
func New(cfg *appconfig.Config) *Adapter {
	baseURL := cfg.VenueURL("kucoin")
	if baseURL == "" {
		baseURL = "https://api-futures.kucoin.com"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	pool := cfg.Reader.ConnectionPool
	transportOpt := sdktype.NewTransportOptionBuilder().
		SetMaxIdleConns(pool.MaxIdleConns).
		SetMaxIdleConnsPerHost(pool.MaxIdleConns).
		SetMaxConnsPerHost(pool.MaxConnsPerHost).
		SetIdleConnTimeout(pool.IdleConnTimeout).
		SetTimeout(cfg.Reader.Timeout).
		Build()

	option := sdktype.NewClientOptionBuilder().
		WithFuturesEndpoint(baseURL).
		WithTransportOption(transportOpt).
		Build()

	client := api.NewClient(option)
	marketAPI := client.RestService().GetFuturesService().GetMarketAPI()

	rl := cfg.Reader.RateLimit
	rps := rl.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	burst := rl.BurstSize
	if burst <= 0 {
		burst = 1
	}

	return &Adapter{
		client:    exchange.NewHTTPClient(cfg),
		marketAPI: marketAPI,
		limiter:   rate.NewLimiter(rate.Limit(rps), burst),
		baseURL:   baseURL,
		log:       logger.GetLogger(),
	}
}

// ID implements exchange.Adapter.
func (a *Adapter) ID() exchange.ExchangeID { return exchange.Kucoin }

type fundingEnvelope struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Symbol    string   `json:"symbol"`
		Value     *float64 `json:"value"`
		TimePoint int64    `json:"timePoint"`
	} `json:"data"`
}

// FetchFundingRate requests the current funding rate for one KuCoin futures
// contract. Any non-2xx status and any envelope code other than "200000" is
// treated as an unknown instrument.
func (a *Adapter) FetchFundingRate(ctx context.Context, candidate string) (models.RawFundingRate, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return models.RawFundingRate{}, &exchange.NetworkError{Exchange: exchange.Kucoin, Err: err}
	}

	a.probeInstrument(ctx, candidate)

	reqURL := fmt.Sprintf("%s/api/v1/funding-rate/%s/current", a.baseURL, url.PathEscape(candidate))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return models.RawFundingRate{}, &exchange.NetworkError{Exchange: exchange.Kucoin, Err: err}
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return models.RawFundingRate{}, &exchange.NetworkError{Exchange: exchange.Kucoin, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return models.RawFundingRate{}, &exchange.RateLimitError{Exchange: exchange.Kucoin, Detail: resp.Status}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.RawFundingRate{}, &exchange.NotFoundError{Exchange: exchange.Kucoin, Symbol: candidate, Detail: resp.Status}
	}

	var envelope fundingEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return models.RawFundingRate{}, &exchange.MalformedResponseError{Exchange: exchange.Kucoin, Err: err}
	}

	if envelope.Code != "200000" {
		detail := fmt.Sprintf("code %s: %s", envelope.Code, envelope.Msg)
		return models.RawFundingRate{}, &exchange.NotFoundError{Exchange: exchange.Kucoin, Symbol: candidate, Detail: detail}
	}

	raw := models.RawFundingRate{}
	if envelope.Data.Value != nil {
		raw.Rate = models.Float64Ptr(*envelope.Data.Value)
	}
	if envelope.Data.TimePoint > 0 {
		raw.FundingTime = models.StringPtr(strconv.FormatInt(envelope.Data.TimePoint, 10))
		raw.Timestamp = models.Int64Ptr(envelope.Data.TimePoint)
	}
	return raw, nil
}

// probeInstrument confirms via the premium-index service that the venue knows
// the instrument. The result is memoized per symbol and the probe is purely
// advisory.
func (a *Adapter) probeInstrument(ctx context.Context, symbol string) {
	if _, done := a.probed.Load(symbol); done {
		return
	}

	req := futuresmarket.NewGetPremiumIndexReqBuilder().SetSymbol(symbol).SetMaxCount(1).Build()
	resp, err := a.marketAPI.GetPremiumIndex(req, ctx)
	confirmed := err == nil && resp != nil && len(resp.DataList) > 0
	a.probed.Store(symbol, confirmed)

	if err != nil {
		a.log.WithComponent("kucoin_adapter").WithField("symbol", symbol).
			WithError(err).Debug("premium index probe failed")
		return
	}
	if !confirmed {
		a.log.WithComponent("kucoin_adapter").WithField("symbol", symbol).
			Debug("premium index probe returned no data")
	}
}
