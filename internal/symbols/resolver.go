package symbols

import (
	"fmt"

	"fundingflow/internal/exchange"
	"fundingflow/internal/models"
)

// Candidates returns the ordered venue symbol candidates for a logical
// symbol on one exchange. The first entry is the venue's native perpetual
// grammar, followed by progressively more generic fallbacks ending with the
// plain BASE/QUOTE form. The result is never empty and the function performs
// no I/O; an unknown exchange id is a programmer error and panics.
func Candidates(id exchange.ExchangeID, sym models.LogicalSymbol) []string {
	base, quote := sym.Base, sym.Quote

	unified := fmt.Sprintf("%s/%s:%s", base, quote, quote)
	pair := fmt.Sprintf("%s/%s", base, quote)

	switch id {
	case exchange.Bitget:
		return []string{unified, base + quote, pair}
	case exchange.Huobi:
		return []string{base + "-" + quote, unified, pair}
	case exchange.Bybit:
		return []string{base + quote, unified, pair}
	case exchange.Bingx:
		return []string{base + "-" + quote, unified, pair}
	case exchange.Gateio:
		return []string{base + "_" + quote, unified, pair}
	case exchange.Okx:
		return []string{base + "-" + quote + "-SWAP", unified, pair}
	case exchange.Mexc:
		return []string{base + "_" + quote, unified, pair}
	case exchange.Kucoin:
		// KuCoin futures name BTC contracts XBT; the M suffix marks
		// the perpetual.
		native := base + quote + "M"
		if base == "BTC" {
			return []string{"XBT" + quote + "M", native, base + "-" + quote, pair}
		}
		return []string{native, base + "-" + quote, pair}
	case exchange.Binance:
		return []string{base + quote, unified, pair}
	default:
		panic(fmt.Sprintf("symbols: no candidate grammar for exchange %q", id))
	}
}
