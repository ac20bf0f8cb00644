// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/ukentomology/internal/logging"
	"github.com/pdiddy/ukentomology/pkg/types"
)

// NHMBackend queries the NHM data portal's CKAN datastore_search action.
// The free-text query restricts results to Lepidoptera, so the portal does
// this source's filtering.
type NHMBackend struct {
	Client *http.Client
	Config types.NHMConfig
	HTTP   types.HTTPConfig
}

// Institution returns the LMNH tag.
func (b *NHMBackend) Institution() types.Institution { return types.InstitutionLMNH }

func (b *NHMBackend) baseURL() string {
	base := b.Config.BaseURL
	if base == "" {
		base = types.DefaultNHMBaseURL
	}
	return strings.TrimRight(base, "/")
}

// Ping checks that the portal API root answers with HTTP 200.
func (b *NHMBackend) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if b.HTTP.UserAgent != "" {
		req.Header.Set("User-Agent", b.HTTP.UserAgent)
	}
	resp, err := b.Client.Do(req)
	if err != nil {
		return fmt.Errorf("LMNH API unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &APIError{Source: types.InstitutionLMNH, StatusCode: resp.StatusCode, Endpoint: req.URL.Path}
	}
	return nil
}

// Fetch pages through datastore_search and returns a payload shaped like a
// single response: {"success": true, "result": {"records": [...], "total": n}}.
// Paging stops at the reported total, an empty page, or MaxRecords; with
// MaxRecords at 0 only the first page is fetched. A page that does not
// carry result.records is returned unchanged for the normalizer to reject.
func (b *NHMBackend) Fetch(ctx context.Context) (any, error) {
	log := logging.FromContext(ctx)

	pageSize := b.Config.PageSize
	if pageSize <= 0 {
		pageSize = types.DefaultNHMPageSize
	}
	resource := b.Config.ResourceID
	if resource == "" {
		resource = types.DefaultNHMResource
	}
	query := b.Config.Query
	if query == "" {
		query = types.DefaultNHMQuery
	}

	var records []any
	total := -1
	for offset := 0; ; offset += pageSize {
		limit := pageSize
		if b.Config.MaxRecords > 0 && offset+limit > b.Config.MaxRecords {
			limit = b.Config.MaxRecords - offset
		}

		params := url.Values{
			"resource_id": {resource},
			"q":           {query},
			"limit":       {strconv.Itoa(limit)},
			"offset":      {strconv.Itoa(offset)},
		}
		reqURL := b.baseURL() + "/action/datastore_search?" + params.Encode()

		page, err := getJSON(ctx, b.Client, b.HTTP, types.InstitutionLMNH, reqURL)
		if err != nil {
			return nil, err
		}

		obj, _ := asObject(page)
		if success, ok := obj["success"].(bool); ok && !success {
			return nil, &APIError{
				Source:     types.InstitutionLMNH,
				StatusCode: http.StatusOK,
				Endpoint:   "/action/datastore_search",
				Message:    ckanError(obj["error"]),
			}
		}
		result, ok := asObject(obj["result"])
		if !ok {
			return page, nil
		}
		pageRecords, ok := result["records"].([]any)
		if !ok {
			return page, nil
		}
		if t, ok := asInt(result["total"]); ok {
			total = t
		}

		records = append(records, pageRecords...)
		log.Debug().Int("offset", offset).Int("page", len(pageRecords)).Int("total", total).Msg("LMNH page")

		if b.Config.MaxRecords <= 0 ||
			len(pageRecords) == 0 ||
			(total >= 0 && len(records) >= total) ||
			len(records) >= b.Config.MaxRecords {
			break
		}
	}

	if records == nil {
		records = []any{}
	}
	if total < 0 {
		total = len(records)
	}
	return map[string]any{
		"success": true,
		"result": map[string]any{
			"records": records,
			"total":   total,
		},
	}, nil
}

func ckanError(v any) string {
	obj, ok := asObject(v)
	if !ok {
		return "request unsuccessful"
	}
	if msg, ok := obj["message"].(string); ok {
		return msg
	}
	if typ, ok := obj["__type"].(string); ok {
		return typ
	}
	return "request unsuccessful"
}
