package gateio

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

// Adapter fetches the current funding rate from the Gate.io v4 futures API.
// Unlike most venues Gate.io returns the contract object directly, with no
// code/data envelope; unknown contracts answer 404 with a label payload.
type Adapter struct {
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
	log     *logger.Log
}

// New builds the Gate.io adapter.
func New(cfg *appconfig.Config) *Adapter {
	baseURL := cfg.VenueURL("gateio")
	if baseURL == "" {
		baseURL = "https://api.gateio.ws"
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
func (a *Adapter) ID() exchange.ExchangeID { return exchange.Gateio }

type contract struct {
	Name             string `json:"name"`
	FundingRate      string `json:"funding_rate"`
	FundingNextApply int64  `json:"funding_next_apply"`
	FundingInterval  int64  `json:"funding_interval"`
}

// FetchFundingRate requests one Gate.io USDT-settled perpetual contract and
// extracts its funding fields.
func (a *Adapter) FetchFundingRate(ctx context.Context, candidate string) (models.RawFundingRate, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return models.RawFundingRate{}, &exchange.NetworkError{Exchange: exchange.Gateio, Err: err}
	}

	reqURL := fmt.Sprintf("%s/api/v4/futures/usdt/contracts/%s", a.baseURL, url.PathEscape(candidate))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return models.RawFundingRate{}, &exchange.NetworkError{Exchange: exchange.Gateio, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return models.RawFundingRate{}, &exchange.NetworkError{Exchange: exchange.Gateio, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return models.RawFundingRate{}, &exchange.RateLimitError{Exchange: exchange.Gateio, Detail: resp.Status}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Label   string `json:"label"`
			Message string `json:"message"`
		}
		detail := resp.Status
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Label != "" {
			detail = fmt.Sprintf("%s: %s", apiErr.Label, apiErr.Message)
		}
		return models.RawFundingRate{}, &exchange.NotFoundError{Exchange: exchange.Gateio, Symbol: candidate, Detail: detail}
	}

	var c contract
	if err := json.NewDecoder(resp.Body).Decode(&c); err != nil {
		return models.RawFundingRate{}, &exchange.MalformedResponseError{Exchange: exchange.Gateio, Err: err}
	}

	raw := models.RawFundingRate{}
	if c.FundingRate != "" {
		v, err := strconv.ParseFloat(c.FundingRate, 64)
		if err != nil {
			return models.RawFundingRate{}, &exchange.MalformedResponseError{Exchange: exchange.Gateio, Err: err}
		}
		raw.Rate = models.Float64Ptr(v)
	}
	if c.FundingNextApply > 0 {
		// Gate.io reports epoch seconds; keep the venue's own unit.
		raw.NextFundingTime = models.StringPtr(strconv.FormatInt(c.FundingNextApply, 10))
	}
	return raw, nil
}
