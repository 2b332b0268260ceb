package binance

import (
	"context"
	"errors"
	"strconv"

	appconfig "fundingflow/config"
	"fundingflow/internal/exchange"
	"fundingflow/internal/models"
	"fundingflow/logger"

	"github.com/adshao/go-binance/v2/common"
	futures "github.com/adshao/go-binance/v2/futures"
	"golang.org/x/time/rate"
)

// Adapter fetches the current funding rate from Binance USDT-M futures via
// the premium index endpoint of the official SDK.
type Adapter struct {
	client  *futures.Client
	limiter *rate.Limiter
	log     *logger.Log
}

// New builds the Binance adapter. Public market data needs no credentials.
func New(cfg *appconfig.Config) *Adapter {
	client := futures.NewClient("", "")
	client.HTTPClient = exchange.NewHTTPClient(cfg)
	if baseURL := cfg.VenueURL("binance"); baseURL != "" {
		client.SetApiEndpoint(baseURL)
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
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		log:     logger.GetLogger(),
	}
}

// ID implements exchange.Adapter.
func (a *Adapter) ID() exchange.ExchangeID { return exchange.Binance }

// Binance error codes for throttling; anything else from the API means the
// venue rejected the request for this symbol.
const (
	codeTooManyRequests = -1003
)

// FetchFundingRate requests the premium index for one Binance futures symbol
// and extracts the funding fields.
func (a *Adapter) FetchFundingRate(ctx context.Context, candidate string) (models.RawFundingRate, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return models.RawFundingRate{}, &exchange.NetworkError{Exchange: exchange.Binance, Err: err}
	}

	res, err := a.client.NewPremiumIndexService().Symbol(candidate).Do(ctx)
	if err != nil {
		var apiErr *common.APIError
		if errors.As(err, &apiErr) {
			if apiErr.Code == codeTooManyRequests {
				return models.RawFundingRate{}, &exchange.RateLimitError{Exchange: exchange.Binance, Detail: apiErr.Message}
			}
			return models.RawFundingRate{}, &exchange.NotFoundError{Exchange: exchange.Binance, Symbol: candidate, Detail: apiErr.Error()}
		}
		return models.RawFundingRate{}, &exchange.NetworkError{Exchange: exchange.Binance, Err: err}
	}
	if len(res) == 0 {
		return models.RawFundingRate{}, &exchange.NotFoundError{Exchange: exchange.Binance, Symbol: candidate, Detail: "empty premium index response"}
	}

	entry := res[0]
	raw := models.RawFundingRate{}
	if entry.LastFundingRate != "" {
		v, perr := strconv.ParseFloat(entry.LastFundingRate, 64)
		if perr != nil {
			return models.RawFundingRate{}, &exchange.MalformedResponseError{Exchange: exchange.Binance, Err: perr}
		}
		raw.Rate = models.Float64Ptr(v)
	}
	if entry.NextFundingTime > 0 {
		raw.NextFundingTime = models.StringPtr(strconv.FormatInt(entry.NextFundingTime, 10))
	}
	if entry.Time > 0 {
		raw.Timestamp = models.Int64Ptr(entry.Time)
	}
	return raw, nil
}
