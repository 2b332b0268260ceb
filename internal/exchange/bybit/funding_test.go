package bybit

import (
	"testing"
	"time"

	appconfig "fundingflow/config"
	"fundingflow/internal/exchange"
)

func minimalConfig() *appconfig.Config {
	cfg := &appconfig.Config{}
	cfg.Reader.Timeout = time.Second
	return cfg
}

func TestNewAdapter(t *testing.T) {
	a := New(minimalConfig())
	if a == nil {
		t.Fatal("New returned nil")
	}
	if a.ID() != exchange.Bybit {
		t.Errorf("ID = %s, want bybit", a.ID())
	}
}
