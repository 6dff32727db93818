package app

import (
	"fmt"
	"net/url"
)

// prepareDBURL normalizes the Postgres connection URL. Prepared binary
// results break behind transaction-pooling pgbouncer, so they can be
// switched off via lib/pq's binary_parameters knob.
func prepareDBURL(raw string, disablePreparedBinary bool) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse db url: %w", err)
	}
	if parsed.Scheme != "postgres" && parsed.Scheme != "postgresql" {
		return "", fmt.Errorf("unsupported db url scheme %q", parsed.Scheme)
	}

	query := parsed.Query()
	if query.Get("sslmode") == "" {
		query.Set("sslmode", "require")
	}
	if disablePreparedBinary {
		query.Set("binary_parameters", "yes")
	}
	parsed.RawQuery = query.Encode()

	return parsed.String(), nil
}
