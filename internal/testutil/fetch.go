package testutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// FetchError reports a failed fetch. Status is the HTTP status code when a
// response arrived, or zero when the request itself failed.
type FetchError struct {
	URI    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("fetch %s: status %d: %v", e.URI, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("fetch %s: status %d", e.URI, e.Status)
	default:
		return fmt.Sprintf("fetch %s: %v", e.URI, e.Err)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ErrEmptyBody is the cause of a FetchError for a successful status with no
// content.
var ErrEmptyBody = errors.New("empty response body")

// Fetcher performs HTTP GETs for test fixtures.
type Fetcher struct {
	Client *http.Client
}

// Fetch GETs uri with http.DefaultClient.
func Fetch(ctx context.Context, uri string) ([]byte, error) {
	return (&Fetcher{}).Fetch(ctx, uri)
}

// Fetch GETs uri and returns the body. It succeeds only on a 2xx status
// with a non-empty body; anything else is a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, &FetchError{URI: uri, Err: err}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{URI: uri, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &FetchError{URI: uri, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{URI: uri, Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if len(body) == 0 {
		return nil, &FetchError{URI: uri, Status: resp.StatusCode, Err: ErrEmptyBody}
	}
	return body, nil
}
