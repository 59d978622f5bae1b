// Package ingest orchestrates one pass of the pipeline: discovery across
// the configured adapters, fetch under the politeness envelope, parsing,
// change detection, and versioned persistence. A failure anywhere inside
// one document's processing marks that document failed and moves on; only
// configuration errors fail the run itself.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/ocean-watch/rfmo-ingestion/pkg/adapters"
	"github.com/ocean-watch/rfmo-ingestion/pkg/fetch"
	"github.com/ocean-watch/rfmo-ingestion/pkg/metrics"
	"github.com/ocean-watch/rfmo-ingestion/pkg/models"
	"github.com/ocean-watch/rfmo-ingestion/pkg/parse"
	"github.com/ocean-watch/rfmo-ingestion/pkg/store"
	"github.com/ocean-watch/rfmo-ingestion/pkg/storage"
)

// Engine wires the pipeline stages together.
type Engine struct {
	store     *store.Store
	artifacts *storage.ArtifactStore
	registry  *adapters.Registry
	parser    *parse.Service
	metrics   *metrics.Registry
	fetchCfg  fetch.Config
	log       hclog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(log hclog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithMetrics sets the cumulative counter registry.
func WithMetrics(registry *metrics.Registry) Option {
	return func(e *Engine) { e.metrics = registry }
}

// WithFetchConfig overrides the politeness envelope.
func WithFetchConfig(cfg fetch.Config) Option {
	return func(e *Engine) { e.fetchCfg = cfg }
}

// New creates an engine over the given stores and adapter registry.
func New(st *store.Store, artifacts *storage.ArtifactStore, registry *adapters.Registry, opts ...Option) *Engine {
	e := &Engine{
		store:     st,
		artifacts: artifacts,
		registry:  registry,
		fetchCfg:  fetch.DefaultConfig(adapters.DefaultUserAgent),
		log:       hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = metrics.NewRegistry()
	}
	e.parser = parse.New(e.log.Named("parse"))
	return e
}

// Metrics returns the engine's counter registry.
func (e *Engine) Metrics() *metrics.Registry {
	return e.metrics
}

// ListDocuments returns every known document, optionally scoped to one
// RFMO code.
func (e *Engine) ListDocuments(rfmo string) ([]models.Document, error) {
	return e.store.ListDocuments(rfmo)
}

// ListVersions returns every persisted version across the corpus,
// optionally scoped to one RFMO code.
func (e *Engine) ListVersions(rfmo string) ([]models.DocumentVersion, error) {
	docs, err := e.store.ListDocuments(rfmo)
	if err != nil {
		return nil, err
	}
	var versions []models.DocumentVersion
	for _, doc := range docs {
		vs, err := e.store.ListVersions(doc.ID)
		if err != nil {
			return nil, err
		}
		versions = append(versions, vs...)
	}
	return versions, nil
}

// ListStoragePaths returns the raw artifact path of every persisted
// version, optionally scoped to one RFMO code.
func (e *Engine) ListStoragePaths(rfmo string) ([]string, error) {
	versions, err := e.ListVersions(rfmo)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(versions))
	for _, v := range versions {
		paths = append(paths, v.StoredPath)
	}
	return paths, nil
}

// RunOnce executes one full pipeline pass over the named adapters. Empty
// names means every registered adapter. An unknown adapter name fails the
// whole run before any network traffic.
func (e *Engine) RunOnce(ctx context.Context, adapterNames []string) (*models.IngestionRunResult, error) {
	resolved, err := e.registry.Resolve(adapterNames)
	if err != nil {
		return nil, err
	}

	run := &models.IngestionRunResult{
		RunID:   uuid.New().String(),
		Metrics: models.RunMetrics{StartedAt: time.Now().UTC()},
		Errors:  []string{},
	}

	e.log.Info("starting ingestion run",
		"run_id", run.RunID,
		"adapters", len(resolved),
	)

	for _, adapter := range resolved {
		health := e.runAdapter(ctx, adapter, run)
		if err := e.store.UpsertSourceHealth(health); err != nil {
			e.log.Error("failed to record source health", "adapter", adapter.Name(), "error", err)
			run.Errors = append(run.Errors, fmt.Sprintf("%s: source health: %v", adapter.Name(), err))
		}
		run.SourceHealth = append(run.SourceHealth, *health)
	}

	finished := time.Now().UTC()
	run.Metrics.FinishedAt = &finished
	run.Metrics.DurationSeconds = finished.Sub(run.Metrics.StartedAt).Seconds()
	e.metrics.Add(metrics.ProcessingSecondsTotal, run.Metrics.DurationSeconds)

	if err := e.store.SaveRunResult(run); err != nil {
		return run, fmt.Errorf("saving run result: %w", err)
	}

	e.log.Info("ingestion run complete",
		"run_id", run.RunID,
		"discovered", run.Metrics.DocumentsDiscovered,
		"ingested", run.Metrics.DocumentsIngested,
		"skipped", run.Metrics.DocumentsSkipped,
		"failures", run.Metrics.Failures,
		"duration_seconds", run.Metrics.DurationSeconds,
	)

	return run, nil
}

// runAdapter lists and processes one adapter's documents and returns the
// resulting health row. A listing failure demotes health and counts one
// failure; it never aborts the run.
func (e *Engine) runAdapter(ctx context.Context, adapter adapters.Adapter, run *models.IngestionRunResult) *models.SourceHealth {
	log := e.log.Named(adapter.Name())

	refs, err := adapter.ListDocuments(ctx)
	if err != nil {
		log.Error("discovery failed", "error", err)
		run.Metrics.Failures++
		e.metrics.Add(metrics.Failures, 1)
		run.Errors = append(run.Errors, fmt.Sprintf("%s: %v", adapter.Name(), err))
		return e.demotedHealth(adapter, err)
	}

	run.Metrics.DocumentsDiscovered += len(refs)
	e.metrics.Add(metrics.DocumentsDiscovered, float64(len(refs)))
	log.Info("discovered documents", "count", len(refs))

	fetcher := fetch.New(e.fetchCfg, log)

	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		if seen[ref.SourceURL] {
			continue
		}
		seen[ref.SourceURL] = true

		if err := ctx.Err(); err != nil {
			run.Errors = append(run.Errors, fmt.Sprintf("%s: %v", adapter.Name(), err))
			break
		}
		e.processRef(ctx, adapter, fetcher, ref, run, log)
	}

	now := time.Now().UTC()
	return &models.SourceHealth{
		AdapterName:         adapter.Name(),
		RFMO:                adapter.RFMO(),
		LastSuccessAt:       &now,
		ConsecutiveFailures: 0,
		LastError:           nil,
	}
}

func (e *Engine) demotedHealth(adapter adapters.Adapter, cause error) *models.SourceHealth {
	previous, err := e.store.GetSourceHealth(adapter.Name(), adapter.RFMO())
	if err != nil {
		previous = &models.SourceHealth{AdapterName: adapter.Name(), RFMO: adapter.RFMO()}
	}
	msg := cause.Error()
	return &models.SourceHealth{
		AdapterName:         adapter.Name(),
		RFMO:                adapter.RFMO(),
		LastSuccessAt:       previous.LastSuccessAt,
		ConsecutiveFailures: previous.ConsecutiveFailures + 1,
		LastError:           &msg,
	}
}

// processRef runs one document through fetch, parse, change detection, and
// persistence. Errors are accounted against the run and the document row,
// never returned.
func (e *Engine) processRef(
	ctx context.Context,
	adapter adapters.Adapter,
	fetcher *fetch.Service,
	ref models.DocumentRef,
	run *models.IngestionRunResult,
	log hclog.Logger,
) {
	doc, err := e.store.UpsertDocumentDiscovered(ref)
	if err != nil {
		run.Metrics.Failures++
		e.metrics.Add(metrics.Failures, 1)
		run.Errors = append(run.Errors, fmt.Sprintf("%s: %s: %v", adapter.Name(), ref.SourceURL, err))
		return
	}

	fail := func(stage string, cause error) {
		log.Warn("document processing failed", "url", ref.SourceURL, "stage", stage, "error", cause)
		run.Metrics.Failures++
		e.metrics.Add(metrics.Failures, 1)
		run.Errors = append(run.Errors, fmt.Sprintf("%s: %s: %s: %v", adapter.Name(), ref.SourceURL, stage, cause))
		if err := e.store.MarkDocumentStatus(doc.ID, models.StatusFailed); err != nil {
			log.Error("failed to mark document failed", "id", doc.ID, "error", err)
		}
	}

	raw, err := fetcher.Fetch(ctx, adapter.FetchDocument, ref)
	if err != nil {
		fail("fetch", err)
		return
	}
	run.Metrics.DocumentsFetched++
	e.metrics.Add(metrics.DocumentsFetched, 1)

	base := adapter.ExtractMetadata(raw, ref)
	parsed, perr := e.parser.Parse(raw, base)
	if perr != nil {
		// Parse failures degrade the version (empty text) but do not
		// block ingestion of the raw bytes.
		run.Metrics.ParseFailures++
		e.metrics.Add(metrics.ParseFailures, 1)
	}

	fileHash := SHA256Hex(raw.Body)
	contentHash := SHA256Hex([]byte(parsed.ExtractedText))
	etag := headerPtr(raw, "ETag")
	lastModified := headerPtr(raw, "Last-Modified")
	metadataHash := NewMetadataSignature(ref, raw, parsed, etag, lastModified).Hash()

	latest, err := e.store.GetLatestVersion(doc.ID)
	if err != nil {
		fail("latest version", err)
		return
	}

	decision := DetectChange(latest, fileHash, contentHash, metadataHash, etag, lastModified)
	if !decision.ShouldIngest {
		run.Metrics.DocumentsSkipped++
		e.metrics.Add(metrics.DocumentsSkipped, 1)
		if err := e.store.MarkDocumentStatus(doc.ID, models.StatusSkipped); err != nil {
			log.Error("failed to mark document skipped", "id", doc.ID, "error", err)
		}
		log.Debug("document unchanged", "url", ref.SourceURL)
		return
	}

	payload := metadataPayload(doc, ref, raw, parsed, decision, fileHash, contentHash, metadataHash)
	persisted, err := e.artifacts.Persist(doc, decision.NextVersionNumber, raw, parsed, payload)
	if err != nil {
		fail("persist", err)
		return
	}

	version := &models.DocumentVersion{
		DocumentID:        doc.ID,
		VersionNumber:     decision.NextVersionNumber,
		FileHash:          fileHash,
		ETag:              etag,
		LastModified:      lastModified,
		MetadataHash:      metadataHash,
		ContentHash:       contentHash,
		Status:            models.StatusIngested,
		StoredPath:        persisted.RawPath,
		ExtractedTextPath: persisted.ExtractedTextPath,
		SnapshotHTMLPath:  persisted.SnapshotHTMLPath,
		MetadataPath:      persisted.MetadataPath,
	}
	if err := e.store.CreateVersion(version, models.StatusIngested); err != nil {
		fail("create version", err)
		return
	}

	run.Metrics.DocumentsIngested++
	run.Metrics.StorageBytesWritten += persisted.BytesWritten
	e.metrics.Add(metrics.DocumentsIngested, 1)
	e.metrics.Add(metrics.StorageBytesWritten, float64(persisted.BytesWritten))

	log.Info("ingested document version",
		"url", ref.SourceURL,
		"version", decision.NextVersionNumber,
		"reasons", decision.Reasons,
	)
}

func headerPtr(raw *models.RawDocument, name string) *string {
	if v := raw.Header(name); v != "" {
		return &v
	}
	return nil
}

// metadataPayload builds the metadata.json sidecar content for a version.
func metadataPayload(
	doc *models.Document,
	ref models.DocumentRef,
	raw *models.RawDocument,
	parsed *models.ParsedDocument,
	decision ChangeDecision,
	fileHash, contentHash, metadataHash string,
) map[string]interface{} {
	reasons := make([]string, 0, len(decision.Reasons))
	for _, r := range decision.Reasons {
		reasons = append(reasons, string(r))
	}

	payload := map[string]interface{}{
		"document_id":       doc.ID.String(),
		"source_url":        ref.SourceURL,
		"rfmo":              ref.RFMO,
		"document_type":     string(ref.DocumentType),
		"title":             parsed.Title,
		"published_date":    isoDate(parsed.PublicationDate),
		"document_number":   parsed.DocumentNumber,
		"meeting_reference": parsed.MeetingReference,
		"rfmo_region":       parsed.RFMORegion,
		"index_url":         ref.IndexURL,
		"discovered_at":     ref.DiscoveredAt.UTC().Format(time.RFC3339),
		"fetched_at":        raw.FetchedAt.UTC().Format(time.RFC3339),
		"content_type":      raw.ContentType,
		"status_code":       raw.StatusCode,
		"headers":           raw.Headers,
		"file_hash":         fileHash,
		"content_hash":      contentHash,
		"metadata_hash":     metadataHash,
		"version_number":    decision.NextVersionNumber,
		"ingest_reasons":    reasons,
		"parser_info":       parsed.ParserInfo,
	}
	if len(ref.Metadata) > 0 {
		payload["adapter_metadata"] = ref.Metadata
	}
	return payload
}
