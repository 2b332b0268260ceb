package okx

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

// Adapter fetches the current funding rate from the OKX v5 public REST API.
type Adapter struct {
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
	log     *logger.Log
}

// New builds the OKX adapter.
func New(cfg *appconfig.Config) *Adapter {
	baseURL := cfg.VenueURL("okx")
	if baseURL == "" {
		baseURL = "https://www.okx.com"
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
func (a *Adapter) ID() exchange.ExchangeID { return exchange.Okx }

type fundingEnvelope struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
	Data []struct {
		InstID          string `json:"instId"`
		FundingRate     string `json:"fundingRate"`
		FundingTime     string `json:"fundingTime"`
		NextFundingTime string `json:"nextFundingTime"`
		Ts              string `json:"ts"`
	} `json:"data"`
}

// FetchFundingRate requests the funding rate for one OKX instrument id.
func (a *Adapter) FetchFundingRate(ctx context.Context, candidate string) (models.RawFundingRate, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return models.RawFundingRate{}, &exchange.NetworkError{Exchange: exchange.Okx, Err: err}
	}

	reqURL := fmt.Sprintf("%s/api/v5/public/funding-rate?instId=%s", a.baseURL, url.QueryEscape(candidate))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return models.RawFundingRate{}, &exchange.NetworkError{Exchange: exchange.Okx, Err: err}
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return models.RawFundingRate{}, &exchange.NetworkError{Exchange: exchange.Okx, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return models.RawFundingRate{}, &exchange.RateLimitError{Exchange: exchange.Okx, Detail: resp.Status}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.RawFundingRate{}, &exchange.NotFoundError{Exchange: exchange.Okx, Symbol: candidate, Detail: resp.Status}
	}

	var envelope fundingEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return models.RawFundingRate{}, &exchange.MalformedResponseError{Exchange: exchange.Okx, Err: err}
	}

	if envelope.Code != "0" {
		detail := fmt.Sprintf("code %s: %s", envelope.Code, envelope.Msg)
		return models.RawFundingRate{}, &exchange.NotFoundError{Exchange: exchange.Okx, Symbol: candidate, Detail: detail}
	}
	if len(envelope.Data) == 0 {
		return models.RawFundingRate{}, &exchange.NotFoundError{Exchange: exchange.Okx, Symbol: candidate, Detail: "empty data array"}
	}

	entry := envelope.Data[0]
	raw := models.RawFundingRate{}
	if entry.FundingRate != "" {
		v, err := strconv.ParseFloat(entry.FundingRate, 64)
		if err != nil {
			return models.RawFundingRate{}, &exchange.MalformedResponseError{Exchange: exchange.Okx, Err: err}
		}
		raw.Rate = models.Float64Ptr(v)
	}
	if entry.FundingTime != "" {
		raw.FundingTime = models.StringPtr(entry.FundingTime)
	}
	if entry.NextFundingTime != "" {
		raw.NextFundingTime = models.StringPtr(entry.NextFundingTime)
	}
	if entry.Ts != "" {
		if ms, err := strconv.ParseInt(entry.Ts, 10, 64); err == nil {
			raw.Timestamp = models.Int64Ptr(ms)
		}
	}
	return raw, nil
}
