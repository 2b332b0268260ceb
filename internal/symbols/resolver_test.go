package symbols

import (
	"testing"

	"fundingflow/internal/exchange"
	"fundingflow/internal/models"
)

func TestCandidatesNativeFirst(t *testing.T) {
	sym := models.NewLogicalSymbol("ETH", "USDT")

	cases := []struct {
		id    exchange.ExchangeID
		first string
	}{
		{exchange.Bitget, "ETH/USDT:USDT"},
		{exchange.Huobi, "ETH-USDT"},
		{exchange.Bybit, "ETHUSDT"},
		{exchange.Bingx, "ETH-USDT"},
		{exchange.Gateio, "ETH_USDT"},
		{exchange.Okx, "ETH-USDT-SWAP"},
		{exchange.Mexc, "ETH_USDT"},
		{exchange.Kucoin, "ETHUSDTM"},
		{exchange.Binance, "ETHUSDT"},
	}

	for _, c := range cases {
		got := Candidates(c.id, sym)
		if len(got) == 0 {
			t.Fatalf("%s: empty candidate list", c.id)
		}
		if got[0] != c.first {
			t.Errorf("%s: first candidate = %q, want %q", c.id, got[0], c.first)
		}
	}
}

func TestCandidatesAlwaysEndWithPair(t *testing.T) {
	sym := models.NewLogicalSymbol("SOL", "USDT")
	for _, id := range exchange.All() {
		got := Candidates(id, sym)
		if got[len(got)-1] != "SOL/USDT" {
			t.Errorf("%s: last candidate = %q, want SOL/USDT", id, got[len(got)-1])
		}
	}
}

func TestCandidatesKucoinBTCAlias(t *testing.T) {
	got := Candidates(exchange.Kucoin, models.NewLogicalSymbol("BTC", "USDT"))
	want := []string{"XBTUSDTM", "BTCUSDTM", "BTC-USDT", "BTC/USDT"}
	if len(got) != len(want) {
		t.Fatalf("candidate count = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("candidate[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCandidatesDeterministic(t *testing.T) {
	sym := models.NewLogicalSymbol("DOGE", "USDT")
	first := Candidates(exchange.Okx, sym)
	second := Candidates(exchange.Okx, sym)
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("candidate[%d] differs: %q vs %q", i, first[i], second[i])
		}
	}
}

func TestCandidatesUnknownExchangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unknown exchange")
		}
	}()
	Candidates(exchange.ExchangeID("deribit"), models.NewLogicalSymbol("BTC", "USDT"))
}
