package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Counter names exported by the pipeline. Every counter is present in the
// registry from construction so scrapes see a stable series set even
// before the first run.
const (
	DocumentsDiscovered    = "rfmo_documents_discovered_total"
	DocumentsFilteredOut   = "rfmo_documents_filtered_out_total"
	DocumentsFetched       = "rfmo_documents_fetched_total"
	DocumentsIngested      = "rfmo_documents_ingested_total"
	DocumentsSkipped       = "rfmo_documents_skipped_total"
	Failures               = "rfmo_failures_total"
	ParseFailures          = "rfmo_parse_failures_total"
	StorageBytesWritten    = "rfmo_storage_bytes_total"
	ProcessingSecondsTotal = "rfmo_processing_seconds_total"
)

func knownCounters() []string {
	return []string{
		DocumentsDiscovered,
		DocumentsFilteredOut,
		DocumentsFetched,
		DocumentsIngested,
		DocumentsSkipped,
		Failures,
		ParseFailures,
		StorageBytesWritten,
		ProcessingSecondsTotal,
	}
}

// Registry is a process-wide cumulative counter set. Counters only ever
// grow; Snapshot returns a point-in-time copy safe to read concurrently
// with updates.
type Registry struct {
	mu       sync.Mutex
	counters map[string]float64
}

func NewRegistry() *Registry {
	r := &Registry{counters: make(map[string]float64)}
	for _, name := range knownCounters() {
		r.counters[name] = 0
	}
	return r
}

// Add increments the named counter by value.
func (r *Registry) Add(name string, value float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[name] += value
}

// Set replaces the named counter's value.
func (r *Registry) Set(name string, value float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[name] = value
}

// Get returns the current value of the named counter.
func (r *Registry) Get(name string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[name]
}

// Snapshot returns a copy of all counters.
func (r *Registry) Snapshot() map[string]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]float64, len(r.counters))
	for name, value := range r.counters {
		out[name] = value
	}
	return out
}

// PrometheusText renders the counters in the Prometheus text exposition
// format, one "name value" line per counter, sorted by name.
func (r *Registry) PrometheusText() string {
	snapshot := r.Snapshot()

	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%s %s\n", name, formatValue(snapshot[name]))
	}
	return b.String()
}

func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
