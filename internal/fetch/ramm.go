// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/ukentomology/internal/logging"
	"github.com/pdiddy/ukentomology/pkg/types"
)

// RAMMBackend lists natural-science objects from the South West Collections
// Explorer API. Every object in the category comes back; the butterfly/moth
// selection happens in the normalizer.
type RAMMBackend struct {
	Client *http.Client
	Config types.RAMMConfig
	HTTP   types.HTTPConfig
}

// Institution returns the RAMM tag.
func (b *RAMMBackend) Institution() types.Institution { return types.InstitutionRAMM }

// Fetch pages through /objects/ and returns {"data": [...]} holding every
// object seen. Paging stops at an empty or short page, or after MaxPages
// (default 1). A page without a "data" list is returned unchanged for the
// normalizer to reject.
func (b *RAMMBackend) Fetch(ctx context.Context) (any, error) {
	if b.Config.APIToken == "" {
		return nil, ErrTokenRequired
	}
	log := logging.FromContext(ctx)

	base := b.Config.BaseURL
	if base == "" {
		base = types.DefaultRAMMBaseURL
	}
	base = strings.TrimRight(base, "/")
	category := b.Config.Category
	if category == "" {
		category = types.DefaultRAMMCategory
	}
	perPage := b.Config.PerPage
	if perPage <= 0 {
		perPage = types.DefaultRAMMPerPage
	}
	maxPages := b.Config.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}

	data := []any{}
	for page := 1; page <= maxPages; page++ {
		params := url.Values{
			"api_token": {b.Config.APIToken},
			"category":  {category},
			"per_page":  {strconv.Itoa(perPage)},
		}
		if page > 1 {
			params.Set("page", strconv.Itoa(page))
		}
		reqURL := base + "/objects/?" + params.Encode()

		body, err := getJSON(ctx, b.Client, b.HTTP, types.InstitutionRAMM, reqURL)
		if err != nil {
			return nil, err
		}
		obj, _ := asObject(body)
		items, ok := obj["data"].([]any)
		if !ok {
			return body, nil
		}
		data = append(data, items...)
		log.Debug().Int("page", page).Int("objects", len(items)).Msg("RAMM page")

		if len(items) < perPage {
			break
		}
	}
	return map[string]any{"data": data}, nil
}
