package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	appconfig "fundingflow/config"
	"fundingflow/internal/exchange"
	"fundingflow/internal/models"
	"fundingflow/internal/symbols"
	"fundingflow/logger"
)

var errMissingRate = errors.New("venue response carried no funding rate")

// Collector fans funding-rate fetches out across every configured exchange
// and folds the results into per-symbol reports. It is safe for concurrent
// use; adapters carry all per-venue state.
type Collector struct {
	config   *appconfig.Config
	adapters map[exchange.ExchangeID]exchange.Adapter
	order    []exchange.ExchangeID
	log      *logger.Log
}

// New builds a Collector for the configured exchange set.
func New(cfg *appconfig.Config) (*Collector, error) {
	adapters, err := BuildAdapters(cfg)
	if err != nil {
		return nil, err
	}

	order := make([]exchange.ExchangeID, 0, len(cfg.Aggregator.Exchanges))
	for _, name := range cfg.Aggregator.Exchanges {
		order = append(order, exchange.ExchangeID(strings.ToLower(strings.TrimSpace(name))))
	}

	return &Collector{
		config:   cfg,
		adapters: adapters,
		order:    order,
		log:      logger.GetLogger(),
	}, nil
}

// newForTesting wires a Collector around pre-built adapters, bypassing the
// dispatch table.
func newForTesting(cfg *appconfig.Config, adapters map[exchange.ExchangeID]exchange.Adapter, order []exchange.ExchangeID) *Collector {
	return &Collector{config: cfg, adapters: adapters, order: order, log: logger.GetLogger()}
}

// Exchanges returns the reporting order of the configured exchange set.
func (c *Collector) Exchanges() []exchange.ExchangeID {
	out := make([]exchange.ExchangeID, len(c.order))
	copy(out, c.order)
	return out
}

// FetchOne resolves the candidate instrument names for one symbol on one
// exchange and tries them in order, returning on the first success. When
// every candidate fails the record carries the first candidate as the
// perpetual symbol and the last error observed.
func (c *Collector) FetchOne(ctx context.Context, id exchange.ExchangeID, sym models.LogicalSymbol) models.FundingRateRecord {
	adapter, ok := c.adapters[id]
	if !ok {
		logger.RecordFetch(string(id), true)
		return failureRecord(id, sym, "", &exchange.ConfigurationError{Exchange: id})
	}

	candidates := symbols.Candidates(id, sym)

	var lastErr error
	for _, candidate := range candidates {
		raw, err := adapter.FetchFundingRate(ctx, candidate)
		if err == nil && raw.Rate == nil {
			// A successful record must carry a rate; a venue answer
			// without one is not usable.
			err = &exchange.MalformedResponseError{Exchange: id, Err: errMissingRate}
		}
		if err == nil {
			logger.RecordFetch(string(id), false)
			return successRecord(id, sym, candidate, raw)
		}
		lastErr = err
		c.log.WithComponent("collector").WithFields(logger.Fields{
			"exchange":  string(id),
			"symbol":    sym.String(),
			"candidate": candidate,
		}).WithError(err).Debug("candidate fetch failed")
	}

	logger.RecordFetch(string(id), true)
	return failureRecord(id, sym, candidates[0], lastErr)
}

// FetchAll fetches every requested symbol on every configured exchange in
// parallel. Each symbol maps to one record per exchange, ordered by exchange
// configuration regardless of task completion order. A panicking adapter is
// contained to its own record.
func (c *Collector) FetchAll(ctx context.Context, syms []models.LogicalSymbol) models.AggregateReport {
	report := make(models.AggregateReport, len(syms))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, sym := range syms {
		wg.Add(1)
		go func(sym models.LogicalSymbol) {
			defer wg.Done()
			records := c.fetchSymbol(ctx, sym)
			mu.Lock()
			report[sym.String()] = records
			mu.Unlock()
		}(sym)
	}

	wg.Wait()
	return report
}

// fetchSymbol runs all exchange fetches for one symbol concurrently and
// joins them back into configuration order.
func (c *Collector) fetchSymbol(ctx context.Context, sym models.LogicalSymbol) models.ExchangeReport {
	records := make(models.ExchangeReport, len(c.order))
	var wg sync.WaitGroup

	for i, id := range c.order {
		wg.Add(1)
		go func(i int, id exchange.ExchangeID) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					c.log.WithComponent("collector").WithFields(logger.Fields{
						"exchange": string(id),
						"symbol":   sym.String(),
					}).Error(fmt.Sprintf("adapter panic: %v", r))
					logger.RecordFetch(string(id), true)
					first := ""
					if cands := symbols.Candidates(id, sym); len(cands) > 0 {
						first = cands[0]
					}
					records[i] = failureRecord(id, sym, first, fmt.Errorf("panic: %v", r))
				}
			}()
			records[i] = c.FetchOne(ctx, id, sym)
		}(i, id)
	}

	wg.Wait()
	return records
}
