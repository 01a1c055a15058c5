package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

const testEnvPrefix = "ROUTESWEEPCMDTEST"

type sweepHarness struct {
	server   *httptest.Server
	hits     atomic.Int32
	dir      string
	targets  string
	stdout   bytes.Buffer
	stderr   bytes.Buffer
	exitWith error
}

func newSweepHarness(t *testing.T, targetsJSON string) *sweepHarness {
	t.Helper()
	h := &sweepHarness{dir: t.TempDir()}
	h.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.hits.Add(1)
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	t.Cleanup(h.server.Close)

	h.targets = filepath.Join(h.dir, "targets.json")
	require.NoError(t, os.WriteFile(h.targets, []byte(targetsJSON), 0o600))
	return h
}

func (h *sweepHarness) execute(args ...string) {
	cmd := newRootCommand(&h.stdout, &h.stderr)
	cmd.SetArgs(append([]string{"--env-prefix", testEnvPrefix, "--no-progress"}, args...))
	h.exitWith = cmd.ExecuteContext(context.Background())
}

const exampleTargets = `[
  {"method": "GET", "route": "/health"},
  {"method": "TRACE", "route": "/x"},
  {"method": "DELETE", "route": "/missing"},
  {"method": "POST", "route": "/boom"}
]`

func TestTableMode(t *testing.T) {
	h := newSweepHarness(t, exampleTargets)
	h.execute("--base-url", h.server.URL, "--targets", h.targets)

	require.NoError(t, h.exitWith)
	out := h.stdout.String()
	require.Contains(t, out, "| Route    | Method   |   Status Code | Error                          |")
	require.Contains(t, out, "| /health  | GET      |           200 |                                |")
	require.Contains(t, out, "| /x       | TRACE    |               | Unsupported HTTP method: TRACE |")
	require.Contains(t, out, "| /missing | DELETE   |           404 |                                |")
	require.Contains(t, out, "| /boom    | POST     |           500 |                                |")
	require.Less(t, strings.Index(out, "/health"), strings.Index(out, "/x"))
	require.Less(t, strings.Index(out, "/missing"), strings.Index(out, "/boom"))
	require.Equal(t, int32(3), h.hits.Load())
}

func TestExportMode(t *testing.T) {
	h := newSweepHarness(t, exampleTargets)
	exportPath := filepath.Join(h.dir, "results.json")
	h.execute("--base-url", h.server.URL, "--targets", h.targets, "--export", exportPath)

	require.NoError(t, h.exitWith)
	require.Equal(t, "Results exported to "+exportPath+"\n", h.stdout.String())

	raw, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	require.Contains(t, string(raw), "\n    \"metadata\": {\n        \"base_url\"")

	var doc struct {
		Metadata struct {
			BaseURL     string `json:"base_url"`
			TargetsFile string `json:"targets_file"`
			ResultsFile string `json:"results_file"`
		} `json:"metadata"`
		Responses []map[string]any `json:"responses"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.Equal(t, h.server.URL, doc.Metadata.BaseURL)
	require.Equal(t, h.targets, doc.Metadata.TargetsFile)
	require.Equal(t, exportPath, doc.Metadata.ResultsFile)
	require.Len(t, doc.Responses, 4)
	require.Equal(t, map[string]any{"Route": "/health", "Method": "GET", "Status Code": float64(200)}, doc.Responses[0])
	require.Equal(t, map[string]any{"Route": "/x", "Method": "TRACE", "Error": "Unsupported HTTP method: TRACE"}, doc.Responses[1])
}

func TestParallelSweepKeepsOrder(t *testing.T) {
	h := newSweepHarness(t, exampleTargets)
	exportPath := filepath.Join(h.dir, "results.json")
	h.execute("--base-url", h.server.URL, "--targets", h.targets, "--export", exportPath, "--concurrency", "3")
	require.NoError(t, h.exitWith)

	raw, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	var doc struct {
		Responses []struct {
			Route string `json:"Route"`
		} `json:"responses"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	routes := make([]string, 0, len(doc.Responses))
	for _, r := range doc.Responses {
		routes = append(routes, r.Route)
	}
	require.Equal(t, []string{"/health", "/x", "/missing", "/boom"}, routes)
}

func TestMetricsFileWritten(t *testing.T) {
	h := newSweepHarness(t, exampleTargets)
	metricsPath := filepath.Join(h.dir, "routesweep.prom")
	h.execute("--base-url", h.server.URL, "--targets", h.targets, "--metrics-file", metricsPath)
	require.NoError(t, h.exitWith)

	raw, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	require.Contains(t, string(raw), `routesweep_requests_total{method="TRACE",outcome="error",status_code="none"} 1`)
	require.Contains(t, string(raw), "routesweep_sweep_descriptors 4")
}

func TestMissingTargetsIsFatalBeforeAnyRequest(t *testing.T) {
	h := newSweepHarness(t, exampleTargets)
	h.execute("--base-url", h.server.URL, "--targets", filepath.Join(h.dir, "absent.json"))

	require.Error(t, h.exitWith)
	require.Empty(t, h.stdout.String())
	require.Zero(t, h.hits.Load())
}

func TestMalformedTargetsIsFatal(t *testing.T) {
	h := newSweepHarness(t, `[{"method": "GET", "route": "/health"`)
	h.execute("--base-url", h.server.URL, "--targets", h.targets)

	require.Error(t, h.exitWith)
	require.Empty(t, h.stdout.String())
	require.Zero(t, h.hits.Load())
}

func TestRequiredFlags(t *testing.T) {
	h := newSweepHarness(t, exampleTargets)
	h.execute("--targets", h.targets)
	require.ErrorContains(t, h.exitWith, "baseUrl")

	h = newSweepHarness(t, exampleTargets)
	h.execute("--base-url", h.server.URL)
	require.ErrorContains(t, h.exitWith, "targetsFile")
}

func TestEnvironmentSuppliesBaseURL(t *testing.T) {
	h := newSweepHarness(t, `[{"method": "GET", "route": "/health"}]`)
	t.Setenv(testEnvPrefix+"_SWEEP__BASEURL", h.server.URL)
	h.execute("--targets", h.targets)

	require.NoError(t, h.exitWith)
	require.Contains(t, h.stdout.String(), "| /health | GET      |           200 |")
}

func TestConfigFileSuppliesSettings(t *testing.T) {
	h := newSweepHarness(t, `[{"method": "PATCH", "route": "/missing"}]`)
	settings := filepath.Join(h.dir, "routesweep.yaml")
	contents := "sweep:\n  baseUrl: " + h.server.URL + "\n  targetsFile: " + h.targets + "\nlogging:\n  level: debug\n  format: json\n"
	require.NoError(t, os.WriteFile(settings, []byte(contents), 0o600))

	h.execute("--config", settings)
	require.NoError(t, h.exitWith)
	require.Contains(t, h.stdout.String(), "404")
	require.Contains(t, h.stderr.String(), `"msg":"request completed"`)
}

func TestInvalidLogLevelIsFatal(t *testing.T) {
	h := newSweepHarness(t, exampleTargets)
	h.execute("--base-url", h.server.URL, "--targets", h.targets, "--log-level", "loud")
	require.Error(t, h.exitWith)
	require.Zero(t, h.hits.Load())
}

func TestCancelledContextProducesNoOutput(t *testing.T) {
	h := newSweepHarness(t, exampleTargets)
	cmd := newRootCommand(&h.stdout, &h.stderr)
	cmd.SetArgs([]string{"--env-prefix", testEnvPrefix, "--no-progress", "--base-url", h.server.URL, "--targets", h.targets})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := cmd.ExecuteContext(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, h.stdout.String())
}

func TestProgressBarGoesToStderr(t *testing.T) {
	h := newSweepHarness(t, exampleTargets)
	cmd := newRootCommand(&h.stdout, &h.stderr)
	cmd.SetArgs([]string{"--env-prefix", testEnvPrefix, "--base-url", h.server.URL, "--targets", h.targets})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	require.Contains(t, h.stderr.String(), "Processing Endpoints")
	require.NotContains(t, h.stdout.String(), "Processing Endpoints")
}
