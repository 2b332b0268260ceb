package huobi

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

// Adapter fetches the current funding rate from the HTX (Huobi) linear swap
// API.
type Adapter struct {
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
	log     *logger.Log
}

// New builds the Huobi adapter.
func New(cfg *appconfig.Config) *Adapter {
	baseURL := cfg.VenueURL("huobi")
	if baseURL == "" {
		baseURL = "https://api.hbdm.com"
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
func (a *Adapter) ID() exchange.ExchangeID { return exchange.Huobi }

type fundingEnvelope struct {
	Status  string `json:"status"`
	ErrCode int    `json:"err_code"`
	ErrMsg  string `json:"err_msg"`
	Ts      int64  `json:"ts"`
	Data    struct {
		ContractCode    string `json:"contract_code"`
		FundingRate     string `json:"funding_rate"`
		FundingTime     string `json:"funding_time"`
		NextFundingTime string `json:"next_funding_time"`
	} `json:"data"`
}

// FetchFundingRate requests the funding rate for one Huobi linear swap
// contract code.
func (a *Adapter) FetchFundingRate(ctx context.Context, candidate string) (models.RawFundingRate, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return models.RawFundingRate{}, &exchange.NetworkError{Exchange: exchange.Huobi, Err: err}
	}

	reqURL := fmt.Sprintf("%s/linear-swap-api/v1/swap_funding_rate?contract_code=%s", a.baseURL, url.QueryEscape(candidate))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return models.RawFundingRate{}, &exchange.NetworkError{Exchange: exchange.Huobi, Err: err}
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return models.RawFundingRate{}, &exchange.NetworkError{Exchange: exchange.Huobi, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return models.RawFundingRate{}, &exchange.RateLimitError{Exchange: exchange.Huobi, Detail: resp.Status}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.RawFundingRate{}, &exchange.NotFoundError{Exchange: exchange.Huobi, Symbol: candidate, Detail: resp.Status}
	}

	var envelope fundingEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return models.RawFundingRate{}, &exchange.MalformedResponseError{Exchange: exchange.Huobi, Err: err}
	}

	if envelope.Status != "ok" {
		detail := fmt.Sprintf("err_code %d: %s", envelope.ErrCode, envelope.ErrMsg)
		return models.RawFundingRate{}, &exchange.NotFoundError{Exchange: exchange.Huobi, Symbol: candidate, Detail: detail}
	}

	raw := models.RawFundingRate{}
	if envelope.Data.FundingRate != "" {
		v, err := strconv.ParseFloat(envelope.Data.FundingRate, 64)
		if err != nil {
			return models.RawFundingRate{}, &exchange.MalformedResponseError{Exchange: exchange.Huobi, Err: err}
		}
		raw.Rate = models.Float64Ptr(v)
	}
	if envelope.Data.FundingTime != "" {
		raw.FundingTime = models.StringPtr(envelope.Data.FundingTime)
	}
	if envelope.Data.NextFundingTime != "" {
		raw.NextFundingTime = models.StringPtr(envelope.Data.NextFundingTime)
	}
	if envelope.Ts > 0 {
		raw.Timestamp = models.Int64Ptr(envelope.Ts)
	}
	return raw, nil
}
