package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPFetcher reads stats from the HAProxy stats page in CSV mode, for
// example http://127.0.0.1:9000/haproxy_stats;csv. The query is not sent;
// the URL selects the output.
type HTTPFetcher struct {
	url    string
	client *http.Client
}

// NewHTTPFetcher returns a fetcher for url with the given request timeout.
func NewHTTPFetcher(url string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, _ string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return "", &Error{Op: "http", Endpoint: f.url, Err: err}
	}

	res, err := f.client.Do(req)
	if err != nil {
		return "", &Error{Op: "http", Endpoint: f.url, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", &Error{Op: "http", Endpoint: f.url, Err: fmt.Errorf("unexpected status %s", res.Status)}
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", &Error{Op: "http", Endpoint: f.url, Err: err}
	}

	return string(body), nil
}
