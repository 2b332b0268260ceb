package bitget

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

// Adapter fetches the current funding rate from the Bitget v2 mix market API.
type Adapter struct {
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
	log     *logger.Log
}

// New builds the Bitget adapter.
func New(cfg *appconfig.Config) *Adapter {
	baseURL := cfg.VenueURL("bitget")
	if baseURL == "" {
		baseURL = "https://api.bitget.com"
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
func (a *Adapter) ID() exchange.ExchangeID { return exchange.Bitget }

type fundingEnvelope struct {
	Code        string `json:"code"`
	Msg         string `json:"msg"`
	RequestTime int64  `json:"requestTime"`
	Data        []struct {
		Symbol      string `json:"symbol"`
		FundingRate string `json:"fundingRate"`
		NextUpdate  string `json:"nextUpdate"`
	} `json:"data"`
}

// FetchFundingRate requests the funding rate for one Bitget USDT-FUTURES
// contract.
func (a *Adapter) FetchFundingRate(ctx context.Context, candidate string) (models.RawFundingRate, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return models.RawFundingRate{}, &exchange.NetworkError{Exchange: exchange.Bitget, Err: err}
	}

	query := url.Values{}
	query.Set("symbol", candidate)
	query.Set("productType", "USDT-FUTURES")
	reqURL := fmt.Sprintf("%s/api/v2/mix/market/current-fund-rate?%s", a.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return models.RawFundingRate{}, &exchange.NetworkError{Exchange: exchange.Bitget, Err: err}
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return models.RawFundingRate{}, &exchange.NetworkError{Exchange: exchange.Bitget, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return models.RawFundingRate{}, &exchange.RateLimitError{Exchange: exchange.Bitget, Detail: resp.Status}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.RawFundingRate{}, &exchange.NotFoundError{Exchange: exchange.Bitget, Symbol: candidate, Detail: resp.Status}
	}

	var envelope fundingEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return models.RawFundingRate{}, &exchange.MalformedResponseError{Exchange: exchange.Bitget, Err: err}
	}

	if envelope.Code != "00000" {
		detail := fmt.Sprintf("code %s: %s", envelope.Code, envelope.Msg)
		return models.RawFundingRate{}, &exchange.NotFoundError{Exchange: exchange.Bitget, Symbol: candidate, Detail: detail}
	}
	if len(envelope.Data) == 0 {
		return models.RawFundingRate{}, &exchange.NotFoundError{Exchange: exchange.Bitget, Symbol: candidate, Detail: "empty data array"}
	}

	entry := envelope.Data[0]
	raw := models.RawFundingRate{}
	if entry.FundingRate != "" {
		v, err := strconv.ParseFloat(entry.FundingRate, 64)
		if err != nil {
			return models.RawFundingRate{}, &exchange.MalformedResponseError{Exchange: exchange.Bitget, Err: err}
		}
		raw.Rate = models.Float64Ptr(v)
	}
	if entry.NextUpdate != "" {
		raw.NextFundingTime = models.StringPtr(entry.NextUpdate)
	}
	if envelope.RequestTime > 0 {
		raw.Timestamp = models.Int64Ptr(envelope.RequestTime)
	}
	return raw, nil
}
