package metrics

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryStartsWithAllCounters(t *testing.T) {
	r := NewRegistry()
	snapshot := r.Snapshot()

	require.Len(t, snapshot, 9)
	for _, name := range knownCounters() {
		value, ok := snapshot[name]
		assert.True(t, ok, name)
		assert.Equal(t, 0.0, value)
	}
}

func TestRegistryAdd(t *testing.T) {
	r := NewRegistry()
	r.Add(DocumentsIngested, 1)
	r.Add(DocumentsIngested, 2)
	r.Add(StorageBytesWritten, 4096)

	assert.Equal(t, 3.0, r.Get(DocumentsIngested))
	assert.Equal(t, 4096.0, r.Get(StorageBytesWritten))

	r.Set(DocumentsIngested, 10)
	assert.Equal(t, 10.0, r.Get(DocumentsIngested))
}

func TestRegistryConcurrentAdds(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Add(DocumentsFetched, 1)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50.0, r.Get(DocumentsFetched))
}

func TestPrometheusTextSortedAndFormatted(t *testing.T) {
	r := NewRegistry()
	r.Add(DocumentsIngested, 2)
	r.Add(ProcessingSecondsTotal, 1.5)

	text := r.PrometheusText()
	lines := strings.Split(strings.TrimSpace(text), "\n")
	require.Len(t, lines, 9)

	names := make([]string, 0, len(lines))
	for _, line := range lines {
		parts := strings.SplitN(line, " ", 2)
		require.Len(t, parts, 2)
		names = append(names, parts[0])
	}
	assert.True(t, sort.StringsAreSorted(names))

	assert.Contains(t, text, "rfmo_documents_ingested_total 2\n")
	assert.Contains(t, text, "rfmo_processing_seconds_total 1.5\n")
	assert.Contains(t, text, "rfmo_failures_total 0\n")
}

func TestHandlerServesMetrics(t *testing.T) {
	r := NewRegistry()
	r.Add(DocumentsDiscovered, 7)
	srv := httptest.NewServer(Handler(r))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/plain; version=0.0.4", resp.Header.Get("Content-Type"))
}

func TestHandlerRejectsOtherPaths(t *testing.T) {
	srv := httptest.NewServer(Handler(NewRegistry()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/other")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	post, err := http.Post(srv.URL+"/metrics", "text/plain", nil)
	require.NoError(t, err)
	defer post.Body.Close()
	assert.Equal(t, http.StatusNotFound, post.StatusCode)
}
