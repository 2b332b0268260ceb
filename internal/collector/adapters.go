package collector

import (
	"strings"

	appconfig "fundingflow/config"
	"fundingflow/internal/exchange"
	"fundingflow/internal/exchange/binance"
	"fundingflow/internal/exchange/bingx"
	"fundingflow/internal/exchange/bitget"
	"fundingflow/internal/exchange/bybit"
	"fundingflow/internal/exchange/gateio"
	"fundingflow/internal/exchange/huobi"
	"fundingflow/internal/exchange/kucoin"
	"fundingflow/internal/exchange/mexc"
	"fundingflow/internal/exchange/okx"
)

// BuildAdapters constructs one adapter per configured exchange. The mapping
// is a static dispatch; an unlisted exchange name is a configuration error
// caught before any fetch begins.
func BuildAdapters(cfg *appconfig.Config) (map[exchange.ExchangeID]exchange.Adapter, error) {
	out := make(map[exchange.ExchangeID]exchange.Adapter, len(cfg.Aggregator.Exchanges))
	for _, name := range cfg.Aggregator.Exchanges {
		id := exchange.ExchangeID(strings.ToLower(strings.TrimSpace(name)))
		switch id {
		case exchange.Bitget:
			out[id] = bitget.New(cfg)
		case exchange.Huobi:
			out[id] = huobi.New(cfg)
		case exchange.Bybit:
			out[id] = bybit.New(cfg)
		case exchange.Bingx:
			out[id] = bingx.New(cfg)
		case exchange.Gateio:
			out[id] = gateio.New(cfg)
		case exchange.Okx:
			out[id] = okx.New(cfg)
		case exchange.Mexc:
			out[id] = mexc.New(cfg)
		case exchange.Kucoin:
			out[id] = kucoin.New(cfg)
		case exchange.Binance:
			out[id] = binance.New(cfg)
		default:
			return nil, &exchange.ConfigurationError{Exchange: id}
		}
	}
	return out, nil
}
