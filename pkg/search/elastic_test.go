package search

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCluster struct {
	mu          sync.Mutex
	indexExists bool
	created     []string
	bulkBody    []byte
	bulkErrors  bool
}

func (f *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/":
		w.Write([]byte(`{"version":{"number":"8.19.0"},"tagline":"You Know, for Search"}`))
	case r.Method == http.MethodHead && r.URL.Path == "/supplier_stock":
		if f.indexExists {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	case r.Method == http.MethodPut && r.URL.Path == "/supplier_stock":
		f.created = append(f.created, r.URL.Path)
		f.indexExists = true
		w.Write([]byte(`{"acknowledged":true}`))
	case r.URL.Path == "/supplier_stock/_bulk":
		f.bulkBody, _ = io.ReadAll(r.Body)
		if f.bulkErrors {
			w.Write([]byte(`{"errors":true,"items":[]}`))
			return
		}
		w.Write([]byte(`{"errors":false,"items":[]}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, cluster *fakeCluster) *Client {
	t.Helper()
	srv := httptest.NewServer(cluster)
	t.Cleanup(srv.Close)

	c, err := NewClient(&Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return c
}

func TestCreateIndex_CreatesOnce(t *testing.T) {
	cluster := &fakeCluster{}
	c := newTestClient(t, cluster)

	require.NoError(t, c.CreateIndex(context.Background(), "supplier_stock", `{"mappings":{}}`))
	require.NoError(t, c.CreateIndex(context.Background(), "supplier_stock", `{"mappings":{}}`))
	assert.Len(t, cluster.created, 1)
}

func TestBulkIndex_WritesNDJSON(t *testing.T) {
	cluster := &fakeCluster{indexExists: true}
	c := newTestClient(t, cluster)

	err := c.BulkIndex(context.Background(), "supplier_stock", []Document{
		{ID: "4042834000005:1234567890001", Source: map[string]interface{}{"gtin": "1234567890001"}},
		{ID: "4042834000005:1234567890002", Source: map[string]interface{}{"gtin": "1234567890002"}},
	})
	require.NoError(t, err)

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(bytes.NewReader(cluster.bulkBody))
	for scanner.Scan() {
		var line map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	require.Len(t, lines, 4)
	meta := lines[0]["index"].(map[string]interface{})
	assert.Equal(t, "4042834000005:1234567890001", meta["_id"])
	assert.Equal(t, "1234567890002", lines[3]["gtin"])
}

func TestBulkIndex_ReportsItemErrors(t *testing.T) {
	cluster := &fakeCluster{indexExists: true, bulkErrors: true}
	c := newTestClient(t, cluster)

	err := c.BulkIndex(context.Background(), "supplier_stock", []Document{{ID: "1", Source: map[string]string{}}})
	assert.ErrorContains(t, err, "one or more documents failed")
}

func TestBulkIndex_NoDocuments(t *testing.T) {
	c := newTestClient(t, &fakeCluster{})
	assert.NoError(t, c.BulkIndex(context.Background(), "supplier_stock", nil))
}
