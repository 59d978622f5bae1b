// Package adapters implements per-RFMO discovery and fetch drivers. A base
// HTML adapter carries the shared listing, candidate-filter, and hint
// extraction logic; concrete adapters specialize it with a static map from
// document category to index URLs.
package adapters

import (
	"context"
	"fmt"

	"github.com/ocean-watch/rfmo-ingestion/pkg/models"
)

// Adapter is the per-RFMO capability set: discover candidate documents on
// the organization's index pages, fetch one, and extract its metadata.
// Adapters own outbound network state but hold no persistent state.
type Adapter interface {
	// Name is the registry key, e.g. "iccat".
	Name() string

	// RFMO is the organization code, e.g. "ICCAT".
	RFMO() string

	// ListDocuments discovers candidate documents across the adapter's
	// category index pages.
	ListDocuments(ctx context.Context) ([]models.DocumentRef, error)

	// FetchDocument retrieves the raw bytes for a discovered ref.
	FetchDocument(ctx context.Context, ref models.DocumentRef) (*models.RawDocument, error)

	// ExtractMetadata derives a ParsedDocument skeleton from the raw
	// response and the ref's hints. Text extraction happens later in the
	// parse service.
	ExtractMetadata(raw *models.RawDocument, ref models.DocumentRef) *models.ParsedDocument
}

// DiscoveryError reports a failed index listing. It demotes the adapter's
// source health but never fails the run.
type DiscoveryError struct {
	Adapter  string
	IndexURL string
	Err      error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("%s: listing %s failed: %v", e.Adapter, e.IndexURL, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// FetchError reports a failed document fetch: network failure or a 4xx/5xx
// response.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
