// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch retrieves raw specimen payloads from the NHM data portal and
// the South West Collections Explorer (RAMM). It only moves bytes and decodes
// JSON; field mapping and filtering happen in package normalize.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/ukentomology/internal/httputil"
	"github.com/pdiddy/ukentomology/internal/logging"
	"github.com/pdiddy/ukentomology/internal/normalize"
	"github.com/pdiddy/ukentomology/pkg/types"
)

// Sentinel errors for errors.Is checks.
var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrRateLimited   = errors.New("rate limited")
	ErrUnavailable   = errors.New("service unavailable")
	ErrTokenRequired = errors.New("API token required")
)

// Backend fetches one institution's raw payload. Each museum API implements
// it with its own paging and authentication.
type Backend interface {
	Institution() types.Institution
	Fetch(ctx context.Context) (any, error)
}

// APIError is a non-200 response from a museum API.
type APIError struct {
	Source     types.Institution
	StatusCode int
	Endpoint   string
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := fmt.Sprintf("%s API returned HTTP %d", e.Source, e.StatusCode)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// Is maps status codes onto the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	case ErrUnavailable:
		return e.StatusCode >= 500
	}
	return false
}

// Hint suggests what to do about a fetch error, or returns "" when there is
// nothing specific to say.
func Hint(err error) string {
	switch {
	case errors.Is(err, ErrTokenRequired):
		return "set RAMM_API_TOKEN or write the token to .secrets/ramm-api-token"
	case errors.Is(err, ErrUnauthorized):
		return "the API rejected the credentials; check the RAMM token"
	case errors.Is(err, ErrRateLimited):
		return "rate limited after retries; wait and run again"
	case errors.Is(err, ErrUnavailable):
		return "the service is down or in maintenance; try later"
	}
	return ""
}

// Result is the outcome of one backend's fetch.
type Result struct {
	Institution types.Institution
	Payload     any
	Err         error
	Elapsed     time.Duration
}

// FetchAll runs every backend concurrently. A failing backend does not stop
// the others; its error is kept in its Result. Results follow backend order.
func FetchAll(ctx context.Context, backends []Backend) []Result {
	log := logging.FromContext(ctx)
	results := make([]Result, len(backends))

	var g errgroup.Group
	for i, b := range backends {
		g.Go(func() error {
			start := time.Now()
			payload, err := b.Fetch(ctx)
			results[i] = Result{
				Institution: b.Institution(),
				Payload:     payload,
				Err:         err,
				Elapsed:     time.Since(start),
			}
			if err != nil {
				ev := log.Warn().Err(err).Str("source", string(b.Institution()))
				if h := Hint(err); h != "" {
					ev = ev.Str("hint", h)
				}
				ev.Msg("fetch failed")
			} else {
				log.Info().Str("source", string(b.Institution())).
					Dur("elapsed", results[i].Elapsed).Msg("fetched")
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Inputs pairs fetch results with the normalize pipeline for each
// institution. A result with no matching source is reported as failed.
func Inputs(results []Result, sources ...normalize.Source) []normalize.Input {
	byInst := make(map[types.Institution]normalize.Source, len(sources))
	for _, s := range sources {
		byInst[s.Institution] = s
	}
	inputs := make([]normalize.Input, 0, len(results))
	for _, r := range results {
		src, ok := byInst[r.Institution]
		if !ok {
			src = normalize.Source{Institution: r.Institution}
			r.Err = fmt.Errorf("no pipeline for institution %q", r.Institution)
		}
		inputs = append(inputs, normalize.Input{Source: src, Payload: r.Payload, Err: r.Err})
	}
	return inputs
}

// getJSON issues a GET with retries and decodes the body. Numbers decode as
// json.Number so identifiers keep their exact digits.
func getJSON(ctx context.Context, client *http.Client, cfg types.HTTPConfig, source types.Institution, reqURL string) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, cfg.MaxRetries)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			uerr.URL = redactURL(uerr.URL)
		}
		return nil, fmt.Errorf("%s API request: %w", source, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", source, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			Source:     source,
			StatusCode: resp.StatusCode,
			Endpoint:   req.URL.Path,
			Message:    errorMessage(body),
		}
	}

	payload, err := DecodePayload(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing %s response: %w", source, err)
	}
	return payload, nil
}

// DecodePayload decodes one JSON document with json.Number for numbers.
func DecodePayload(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// errorMessage pulls a human-readable message out of an error body, if the
// body is JSON with a "message" or "error" field.
func errorMessage(body []byte) string {
	var e struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if json.Unmarshal(body, &e) != nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	var s string
	if json.Unmarshal(e.Error, &s) == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(e.Error, &obj) == nil {
		return obj.Message
	}
	return ""
}

// redactURL hides credentials carried in query parameters.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Has("api_token") {
		q.Set("api_token", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func asObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case json.Number:
		n, err := x.Int64()
		return int(n), err == nil
	case float64:
		return int(x), true
	}
	return 0, false
}
