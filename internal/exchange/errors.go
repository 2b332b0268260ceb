package exchange

import "fmt"

// NetworkError covers connection failures and timeouts talking to a venue.
type NetworkError struct {
	Exchange ExchangeID
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Exchange, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// NotFoundError means the venue does not recognise the requested instrument.
type NotFoundError struct {
	Exchange ExchangeID
	Symbol   string
	Detail   string
}

func (e *NotFoundError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: symbol %s not found: %s", e.Exchange, e.Symbol, e.Detail)
	}
	return fmt.Sprintf("%s: symbol %s not found", e.Exchange, e.Symbol)
}

// RateLimitError signals venue throttling (HTTP 429 or equivalent).
type RateLimitError struct {
	Exchange ExchangeID
	Detail   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limited: %s", e.Exchange, e.Detail)
}

// MalformedResponseError means the venue answered with a payload the adapter
// could not decode into the expected schema.
type MalformedResponseError struct {
	Exchange ExchangeID
	Err      error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed response: %v", e.Exchange, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// ConfigurationError reports an unknown ExchangeID. This is a programmer
// error surfaced at startup, never per record.
type ConfigurationError struct {
	Exchange ExchangeID
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("unknown exchange id %q", e.Exchange)
}
