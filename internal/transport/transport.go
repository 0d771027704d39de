package transport

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// QueryShowStat is the command that returns the stats CSV.
const QueryShowStat = "show stat"

const defaultTimeout = 5 * time.Second

// ErrUnsupportedScheme is returned by New for URLs it cannot fetch from.
var ErrUnsupportedScheme = errors.New("unsupported stats url scheme")

// Fetcher returns the raw response to a stats query.
type Fetcher interface {
	Fetch(ctx context.Context, query string) (string, error)
}

// Error describes a failed fetch.
type Error struct {
	Op       string
	Endpoint string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Endpoint, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New picks a Fetcher for statsURL. A zero timeout means five seconds.
func New(statsURL string, timeout time.Duration) (Fetcher, error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	switch {
	case strings.HasPrefix(statsURL, "http://"), strings.HasPrefix(statsURL, "https://"):
		if _, err := url.Parse(statsURL); err != nil {
			return nil, fmt.Errorf("parse stats url: %w", err)
		}
		return NewHTTPFetcher(statsURL, timeout), nil

	case strings.HasPrefix(statsURL, "file://"):
		return NewSocketFetcher(strings.TrimPrefix(statsURL, "file://"), timeout), nil

	case strings.Contains(statsURL, "://"):
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, statsURL)

	case statsURL == "":
		return nil, errors.New("stats url is empty")
	}

	return NewSocketFetcher(statsURL, timeout), nil
}
