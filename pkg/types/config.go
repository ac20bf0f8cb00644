// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by the fetch backends.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "ukentomology/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds retries on HTTP 429/503 (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// NHMConfig holds settings for the Natural History Museum data portal.
type NHMConfig struct {
	// BaseURL is the CKAN API root (default "https://data.nhm.ac.uk/api/3").
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// ResourceID is the datastore resource holding specimen records.
	ResourceID string `json:"resource_id" yaml:"resource_id" mapstructure:"resource_id"`

	// Query is the free-text datastore query. The portal does the
	// Lepidoptera filtering for this source.
	Query string `json:"query" yaml:"query" mapstructure:"query"`

	// PageSize is the number of records requested per call (default 100).
	PageSize int `json:"page_size" yaml:"page_size" mapstructure:"page_size"`

	// MaxRecords caps the total records fetched; 0 means one page only.
	MaxRecords int `json:"max_records" yaml:"max_records" mapstructure:"max_records"`
}

// RAMMConfig holds settings for the South West Collections Explorer API.
type RAMMConfig struct {
	// BaseURL is the API root (default "https://api.swcollectionsexplorer.org.uk/api/v1").
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// APIToken authenticates requests. Loaded from secrets, never written out.
	APIToken string `json:"-" yaml:"-" mapstructure:"api_token"`

	// Category restricts the object listing (default "natural-sciences").
	Category string `json:"category" yaml:"category" mapstructure:"category"`

	// PerPage is the page size requested from the API (default 250).
	PerPage int `json:"per_page" yaml:"per_page" mapstructure:"per_page"`

	// MaxPages caps the number of pages fetched (default 1).
	MaxPages int `json:"max_pages" yaml:"max_pages" mapstructure:"max_pages"`
}

// FetchConfig groups the settings for both source backends.
type FetchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	NHM  NHMConfig  `json:"nhm" yaml:"nhm" mapstructure:"nhm"`
	RAMM RAMMConfig `json:"ramm" yaml:"ramm" mapstructure:"ramm"`
}

// FailurePolicy selects what a run does when one source fails.
type FailurePolicy string

const (
	// PolicyPartial keeps going: the failed source contributes no rows and
	// its error is reported alongside the merged table.
	PolicyPartial FailurePolicy = "partial"

	// PolicyAbort stops the run on the first source failure.
	PolicyAbort FailurePolicy = "abort"
)

// Valid reports whether p is a known policy.
func (p FailurePolicy) Valid() bool {
	return p == PolicyPartial || p == PolicyAbort
}

// NormalizeConfig holds the runtime choices exposed for the merge pipeline.
type NormalizeConfig struct {
	// Policy decides between partial results and aborting on a source failure.
	Policy FailurePolicy `json:"policy" yaml:"policy" mapstructure:"policy"`

	// Parallel runs the two source pipelines concurrently.
	Parallel bool `json:"parallel" yaml:"parallel" mapstructure:"parallel"`

	// CaseInsensitiveNames makes the RAMM name filter ignore case.
	CaseInsensitiveNames bool `json:"case_insensitive_names" yaml:"case_insensitive_names" mapstructure:"case_insensitive_names"`
}

// StoreConfig holds settings for the local dataset store.
type StoreConfig struct {
	// DataDir contains ukentomology.db and runs/ manifests (default "data").
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Fetch     FetchConfig     `json:"fetch" yaml:"fetch" mapstructure:"fetch"`
	Normalize NormalizeConfig `json:"normalize" yaml:"normalize" mapstructure:"normalize"`
	Store     StoreConfig     `json:"store" yaml:"store" mapstructure:"store"`
}

// Defaults used when a config value is left at its zero value.
const (
	DefaultTimeout      = 60 * time.Second
	DefaultUserAgent    = "ukentomology/0.1"
	DefaultNHMBaseURL   = "https://data.nhm.ac.uk/api/3"
	DefaultNHMResource  = "05ff2255-c38a-40c9-b657-4ccb55ab2feb"
	DefaultNHMQuery     = "BMNH(E) Lepidoptera"
	DefaultNHMPageSize  = 100
	DefaultRAMMBaseURL  = "https://api.swcollectionsexplorer.org.uk/api/v1"
	DefaultRAMMCategory = "natural-sciences"
	DefaultRAMMPerPage  = 250
	DefaultDataDir      = "data"
)

// DefaultPipelineConfig returns a config populated with the defaults above.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Fetch: FetchConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   DefaultTimeout,
				UserAgent: DefaultUserAgent,
			},
			NHM: NHMConfig{
				BaseURL:    DefaultNHMBaseURL,
				ResourceID: DefaultNHMResource,
				Query:      DefaultNHMQuery,
				PageSize:   DefaultNHMPageSize,
			},
			RAMM: RAMMConfig{
				BaseURL:  DefaultRAMMBaseURL,
				Category: DefaultRAMMCategory,
				PerPage:  DefaultRAMMPerPage,
				MaxPages: 1,
			},
		},
		Normalize: NormalizeConfig{
			Policy: PolicyPartial,
		},
		Store: StoreConfig{
			DataDir: DefaultDataDir,
		},
	}
}
