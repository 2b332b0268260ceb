package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	appconfig "fundingflow/config"
	"fundingflow/internal/exchange"
	"fundingflow/internal/models"
	"fundingflow/logger"

	bybit_connector "github.com/bybit-exchange/bybit.go.api"
	"golang.org/x/time/rate"
)

// Adapter fetches the current funding rate from Bybit's v5 market tickers
// endpoint through the official connector.
type Adapter struct {
	client  *bybit_connector.Client
	limiter *rate.Limiter
	log     *logger.Log
}

// New builds the Bybit adapter. Public market data needs no credentials.
func New(cfg *appconfig.Config) *Adapter {
	baseURL := cfg.VenueURL("bybit")
	if baseURL == "" {
		baseURL = "https://api.bybit.com"
	}

	client := bybit_connector.NewBybitHttpClient("", "",
		bybit_connector.WithBaseURL(strings.TrimRight(baseURL, "/")))

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
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		log:     logger.GetLogger(),
	}
}

// ID implements exchange.Adapter.
func (a *Adapter) ID() exchange.ExchangeID { return exchange.Bybit }

type tickersResult struct {
	Category string `json:"category"`
	List     []struct {
		Symbol          string `json:"symbol"`
		FundingRate     string `json:"fundingRate"`
		NextFundingTime string `json:"nextFundingTime"`
	} `json:"list"`
}

// FetchFundingRate requests the linear ticker for one Bybit symbol and
// extracts the funding fields.
func (a *Adapter) FetchFundingRate(ctx context.Context, candidate string) (models.RawFundingRate, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return models.RawFundingRate{}, &exchange.NetworkError{Exchange: exchange.Bybit, Err: err}
	}

	params := map[string]interface{}{
		"category": "linear",
		"symbol":   candidate,
	}
	resp, err := a.client.NewUtaBybitServiceWithParams(params).GetMarketTickers(ctx)
	if err != nil {
		return models.RawFundingRate{}, &exchange.NetworkError{Exchange: exchange.Bybit, Err: err}
	}
	if resp == nil {
		return models.RawFundingRate{}, &exchange.MalformedResponseError{Exchange: exchange.Bybit, Err: fmt.Errorf("nil server response")}
	}
	if resp.RetCode != 0 {
		detail := fmt.Sprintf("retCode %d: %s", resp.RetCode, resp.RetMsg)
		return models.RawFundingRate{}, &exchange.NotFoundError{Exchange: exchange.Bybit, Symbol: candidate, Detail: detail}
	}

	// The connector returns Result as an untyped map; round-trip through
	// JSON to get the ticker schema.
	payload, err := json.Marshal(resp.Result)
	if err != nil {
		return models.RawFundingRate{}, &exchange.MalformedResponseError{Exchange: exchange.Bybit, Err: err}
	}
	var result tickersResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return models.RawFundingRate{}, &exchange.MalformedResponseError{Exchange: exchange.Bybit, Err: err}
	}
	if len(result.List) == 0 {
		return models.RawFundingRate{}, &exchange.NotFoundError{Exchange: exchange.Bybit, Symbol: candidate, Detail: "empty ticker list"}
	}

	entry := result.List[0]
	raw := models.RawFundingRate{}
	if entry.FundingRate != "" {
		v, perr := strconv.ParseFloat(entry.FundingRate, 64)
		if perr != nil {
			return models.RawFundingRate{}, &exchange.MalformedResponseError{Exchange: exchange.Bybit, Err: perr}
		}
		raw.Rate = models.Float64Ptr(v)
	}
	if entry.NextFundingTime != "" {
		raw.NextFundingTime = models.StringPtr(entry.NextFundingTime)
	}
	if resp.Time > 0 {
		raw.Timestamp = models.Int64Ptr(resp.Time)
	}
	return raw, nil
}
