package mexc

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

// Adapter fetches the current funding rate from the MEXC contract API.
type Adapter struct {
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
	log     *logger.Log
}

// New builds the MEXC adapter.
func New(cfg *appconfig.Config) *Adapter {
	baseURL := cfg.VenueURL("mexc")
	if baseURL == "" {
		baseURL = "https://contract.mexc.com"
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
func (a *Adapter) ID() exchange.ExchangeID { return exchange.Mexc }

type fundingEnvelope struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Symbol         string   `json:"symbol"`
		FundingRate    *float64 `json:"fundingRate"`
		NextSettleTime int64    `json:"nextSettleTime"`
		Timestamp      int64    `json:"timestamp"`
	} `json:"data"`
}

// FetchFundingRate requests the funding rate for one MEXC contract symbol.
func (a *Adapter) FetchFundingRate(ctx context.Context, candidate string) (models.RawFundingRate, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return models.RawFundingRate{}, &exchange.NetworkError{Exchange: exchange.Mexc, Err: err}
	}

	reqURL := fmt.Sprintf("%s/api/v1/contract/funding_rate/%s", a.baseURL, url.PathEscape(candidate))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return models.RawFundingRate{}, &exchange.NetworkError{Exchange: exchange.Mexc, Err: err}
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return models.RawFundingRate{}, &exchange.NetworkError{Exchange: exchange.Mexc, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return models.RawFundingRate{}, &exchange.RateLimitError{Exchange: exchange.Mexc, Detail: resp.Status}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.RawFundingRate{}, &exchange.NotFoundError{Exchange: exchange.Mexc, Symbol: candidate, Detail: resp.Status}
	}

	var envelope fundingEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return models.RawFundingRate{}, &exchange.MalformedResponseError{Exchange: exchange.Mexc, Err: err}
	}

	if !envelope.Success || envelope.Code != 0 {
		detail := fmt.Sprintf("code %d: %s", envelope.Code, envelope.Message)
		return models.RawFundingRate{}, &exchange.NotFoundError{Exchange: exchange.Mexc, Symbol: candidate, Detail: detail}
	}

	raw := models.RawFundingRate{}
	if envelope.Data.FundingRate != nil {
		raw.Rate = models.Float64Ptr(*envelope.Data.FundingRate)
	}
	if envelope.Data.NextSettleTime > 0 {
		raw.NextFundingTime = models.StringPtr(strconv.FormatInt(envelope.Data.NextSettleTime, 10))
	}
	if envelope.Data.Timestamp > 0 {
		raw.Timestamp = models.Int64Ptr(envelope.Data.Timestamp)
	}
	return raw, nil
}
