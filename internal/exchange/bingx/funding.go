package bingx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	appconfig "fundingflow/config"
	"fundingflow/internal/exchange"
	"fundingflow/internal/models"
	"fundingflow/logger"

	"golang.org/x/time/rate"
)

// Adapter fetches the current funding rate from the BingX swap v2 API via
// its premium index endpoint.
type Adapter struct {
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
	log     *logger.Log
}

// New builds the BingX adapter.
func New(cfg *appconfig.Config) *Adapter {
	baseURL := cfg.VenueURL("bingx")
	if baseURL == "" {
		baseURL = "https://open-api.bingx.com"
	}

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
		client:  exchange.NewHTTPClient(cfg),
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     logger.GetLogger(),
	}
}

// ID implements exchange.Adapter.
func (a *Adapter) ID() exchange.ExchangeID { return exchange.Bingx }

type fundingEnvelope struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Symbol          string `json:"symbol"`
		LastFundingRate string `json:"lastFundingRate"`
		NextFundingTime int64  `json:"nextFundingTime"`
	} `json:"data"`
}

// FetchFundingRate requests the premium index for one BingX perpetual symbol
// and extracts the funding fields.
func (a *Adapter) FetchFundingRate(ctx context.Context, candidate string) (models.RawFundingRate, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return models.RawFundingRate{}, &exchange.NetworkError{Exchange: exchange.Bingx, Err: err}
	}

	reqURL := fmt.Sprintf("%s/openApi/swap/v2/quote/premiumIndex?symbol=%s", a.baseURL, url.QueryEscape(candidate))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return models.RawFundingRate{}, &exchange.NetworkError{Exchange: exchange.Bingx, Err: err}
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return models.RawFundingRate{}, &exchange.NetworkError{Exchange: exchange.Bingx, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return models.RawFundingRate{}, &exchange.RateLimitError{Exchange: exchange.Bingx, Detail: resp.Status}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.RawFundingRate{}, &exchange.NotFoundError{Exchange: exchange.Bingx, Symbol: candidate, Detail: resp.Status}
	}

	var envelope fundingEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return models.RawFundingRate{}, &exchange.MalformedResponseError{Exchange: exchange.Bingx, Err: err}
	}

	if envelope.Code != 0 {
		detail := fmt.Sprintf("code %d: %s", envelope.Code, envelope.Msg)
		return models.RawFundingRate{}, &exchange.NotFoundError{Exchange: exchange.Bingx, Symbol: candidate, Detail: detail}
	}

	raw := models.RawFundingRate{}
	if envelope.Data.LastFundingRate != "" {
		v, err := strconv.ParseFloat(envelope.Data.LastFundingRate, 64)
		if err != nil {
			return models.RawFundingRate{}, &exchange.MalformedResponseError{Exchange: exchange.Bingx, Err: err}
		}
		raw.Rate = models.Float64Ptr(v)
	}
	if envelope.Data.NextFundingTime > 0 {
		raw.NextFundingTime = models.StringPtr(strconv.FormatInt(envelope.Data.NextFundingTime, 10))
	}
	return raw, nil
}
