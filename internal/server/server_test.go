package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/aurehal/internal/config"
	"github.com/agenthands/aurehal/internal/core"
	"github.com/agenthands/aurehal/internal/core/model"
	"github.com/agenthands/aurehal/internal/driver"
	"github.com/agenthands/aurehal/internal/observability"
)

func newTestServer(t *testing.T, ref driver.Referential, timeout time.Duration) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	cfg.Concurrency.Enrich = 2
	cfg.Server.HarvestTimeout = config.Duration{Duration: timeout}

	registry := prometheus.NewRegistry()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := &Server{
		Harvester: core.NewHarvester(ref, cfg, observability.NewMetrics(registry), logger),
		Gatherer:  registry,
		Logger:    logger,
	}
	return s.SetupRouter()
}

func sampleReferential() *driver.MockReferential {
	return &driver.MockReferential{
		Children: map[model.ID][]model.ID{
			"1039632": {"520677", "537646"},
		},
		Descriptions: map[model.ID]model.Description{
			"1039632": {Acronym: "UCA", Status: model.StatusValid, Type: model.TypeRegroupInstitution},
			"520677":  {Acronym: "LJAD", Status: model.StatusValid, Type: model.TypeLaboratory},
			"537646":  {Acronym: "I3S", Status: model.StatusOld, Type: model.TypeLaboratory},
		},
		Counts: map[model.ID]int{"1039632": 48213, "520677": 10, "537646": 20},
	}
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r := newTestServer(t, sampleReferential(), 0)

	w := do(r, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestIndex(t *testing.T) {
	r := newTestServer(t, sampleReferential(), 0)

	w := do(r, http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "vis-network")
}

func TestHarvestJSON(t *testing.T) {
	r := newTestServer(t, sampleReferential(), 0)

	w := do(r, http.MethodPost, "/api/harvest", `{"root":"1039632","direction":"desc"}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var h model.Harvest
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &h))
	assert.Equal(t, model.HarvestOK, h.Status)
	assert.Len(t, h.Edges, 2)
	require.Len(t, h.Records, 3)
	rec, ok := h.Record("1039632")
	require.True(t, ok)
	assert.Equal(t, 48213, rec.Publications())
	assert.NotEmpty(t, h.Logs)
}

func TestHarvestByPath_Ancestors(t *testing.T) {
	ref := sampleReferential()
	r := newTestServer(t, ref, 0)

	w := do(r, http.MethodGet, "/api/harvest/520677?direction=asc", "")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var h model.Harvest
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &h))
	assert.Equal(t, model.HarvestEmpty, h.Status)
	require.Len(t, h.Records, 1)
	assert.Equal(t, model.ID("520677"), h.Records[0].ID)
	assert.Equal(t, 1, ref.Calls(driver.OpFindParents, "520677"))
}

func TestHarvest_BadRequests(t *testing.T) {
	r := newTestServer(t, sampleReferential(), 0)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"missing root", http.MethodPost, "/api/harvest", `{"direction":"desc"}`},
		{"blank root", http.MethodPost, "/api/harvest", `{"root":"  "}`},
		{"query in root", http.MethodPost, "/api/harvest", `{"root":"1 OR parentDocid_i:*"}`},
		{"alphanumeric root", http.MethodGet, "/api/harvest/abc", ""},
		{"query in network root", http.MethodPost, "/api/network", `{"root":"1 OR parentDocid_i:*"}`},
		{"bad direction", http.MethodPost, "/api/harvest", `{"root":"1","direction":"sideways"}`},
		{"bad direction in query", http.MethodGet, "/api/harvest/1?direction=up", ""},
		{"malformed body", http.MethodPost, "/api/network", `{"root":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestHarvest_ReferentialFailure(t *testing.T) {
	ref := sampleReferential()
	ref.Errs = map[string]error{
		"describe:537646": &driver.TransportError{
			Operation: driver.OpDescribe, ID: "537646", StatusCode: 503, Err: errors.New("unavailable"),
		},
	}
	r := newTestServer(t, ref, 0)

	w := do(r, http.MethodPost, "/api/harvest", `{"root":"1039632"}`)

	require.Equal(t, http.StatusBadGateway, w.Code)
	var body struct {
		Error     string   `json:"error"`
		Kind      string   `json:"kind"`
		Operation string   `json:"operation"`
		ID        string   `json:"id"`
		HarvestID string   `json:"harvest_id"`
		Logs      []string `json:"logs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "transport", body.Kind)
	assert.Equal(t, "describe", body.Operation)
	assert.Equal(t, "537646", body.ID)
	assert.NotEmpty(t, body.HarvestID)
	assert.NotEmpty(t, body.Logs)
}

func TestHarvest_Timeout(t *testing.T) {
	ref := sampleReferential()
	ref.Delay = time.Second
	r := newTestServer(t, ref, 20*time.Millisecond)

	w := do(r, http.MethodPost, "/api/harvest", `{"root":"1039632"}`)

	assert.Equal(t, http.StatusGatewayTimeout, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"kind":"timeout"`)
}

func TestNetwork(t *testing.T) {
	r := newTestServer(t, sampleReferential(), 0)

	body := `{"root":"1039632","direction":"desc","options":{"color_by":"type_s","statuses":["VALID"],"hierarchical":true,"layout_direction":"LR"}}`
	w := do(r, http.MethodPost, "/api/network", body)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp NetworkResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, model.HarvestOK, resp.Status)
	assert.Len(t, resp.Rows, 3)
	// 537646 is OLD and filtered out with its edge.
	require.Len(t, resp.Network.Nodes, 2)
	require.Len(t, resp.Network.Edges, 1)
	assert.Equal(t, "1039632__520677", resp.Network.Edges[0].ID)
	assert.Equal(t, 1, resp.Fragments)
	assert.NotEmpty(t, resp.Legend.Statuses)

	layout, ok := resp.Options["layout"].(map[string]any)
	require.True(t, ok)
	hier, ok := layout["hierarchical"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "LR", hier["direction"])
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestServer(t, sampleReferential(), 0)
	do(r, http.MethodPost, "/api/harvest", `{"root":"1039632"}`)

	w := do(r, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.Contains(w.Body.Bytes(), []byte("aurehal_harvest_total")))
}
