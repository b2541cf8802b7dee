package metrics

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveFileDuration("goldmark", 15*time.Millisecond)
	pr.IncFileResult(ResultScanned)
	pr.IncFileResult(ResultScanned)
	pr.IncFileResult(ResultFailed)
	pr.IncFinding("broken reference link")
	pr.ObserveRunDuration(500 * time.Millisecond)
	pr.IncRunOutcome(OutcomeFindings)
	pr.SetWorkers(4)

	require.InDelta(t, 2, gathered(t, reg, "mdlinkcheck_files_total", "scanned"), 0)
	require.InDelta(t, 1, gathered(t, reg, "mdlinkcheck_files_total", "failed"), 0)
	require.InDelta(t, 1, gathered(t, reg, "mdlinkcheck_findings_total", "broken reference link"), 0)
	require.InDelta(t, 4, gathered(t, reg, "mdlinkcheck_workers", ""), 0)
}

// gathered returns the value of the counter or gauge sample of family name whose first
// label equals label ("" for unlabelled metrics).
func gathered(t *testing.T, reg *prom.Registry, name, label string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if label != "" && (len(m.GetLabel()) == 0 || m.GetLabel()[0].GetValue() != label) {
				continue
			}
			if c := m.GetCounter(); c != nil {
				return c.GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s{%s} not gathered", name, label)
	return 0
}

func TestPrometheusRecorder_NilSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.ObserveFileDuration("pandoc", time.Second)
	pr.IncFileResult(ResultExcluded)
	pr.IncFinding("x")
	pr.ObserveRunDuration(time.Second)
	pr.IncRunOutcome(OutcomeClean)
	pr.SetWorkers(1)
}

func TestNoopRecorderImplementsRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.IncFileResult(ResultScanned)
	r.SetWorkers(2)
}

func TestWriteTextfile(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.IncRunOutcome(OutcomeClean)

	path := filepath.Join(t.TempDir(), "collector", "mdlinkcheck.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `mdlinkcheck_run_outcomes_total{outcome="clean"} 1`)
}

func TestHTTPHandler(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).IncFinding("broken reference link")

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "mdlinkcheck_findings_total")
}
