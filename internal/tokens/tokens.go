package tokens

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"fundingflow/internal/models"
	"fundingflow/logger"
)

// Load reads a JSON array of base tickers from path. Entries are trimmed and
// uppercased; empty entries and duplicates are dropped, preserving first
// occurrence order. A positive max truncates the list to its first max
// entries.
func Load(path string, max int) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse token file: %w", err)
	}

	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		token := strings.ToUpper(strings.TrimSpace(t))
		if token == "" {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}

	if max > 0 && len(out) > max {
		logger.GetLogger().WithComponent("tokens").WithFields(logger.Fields{
			"loaded": len(out),
			"max":    max,
		}).Info("truncating token list")
		out = out[:max]
	}

	return out, nil
}

// Symbols pairs each token with the quote asset.
func Symbols(tokens []string, quote string) []models.LogicalSymbol {
	out := make([]models.LogicalSymbol, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, models.NewLogicalSymbol(t, quote))
	}
	return out
}
