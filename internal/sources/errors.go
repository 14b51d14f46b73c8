package sources

import "errors"

var (
	ErrSourceUnavailable = errors.New("source unavailable")
	ErrRateLimited       = errors.New("rate limited by upstream")
	ErrNotFound          = errors.New("no data for this ticker")
)
