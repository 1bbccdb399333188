package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicegrid/internal/metrics"
)

func counterValue(t *testing.T, m *metrics.Metrics, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
	next:
		for _, metric := range fam.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue next
				}
			}
			return metric.GetCounter().GetValue()
		}
	}
	return 0
}

func TestMetrics_ObserveFile(t *testing.T) {
	m := metrics.New()

	m.ObserveFile(false, 3, 120*time.Millisecond)
	m.ObserveFile(false, 2, 80*time.Millisecond)
	m.ObserveFile(true, 0, 10*time.Millisecond)

	assert.Equal(t, 2.0, counterValue(t, m, "invoicegrid_files_processed_total", map[string]string{"status": "success"}))
	assert.Equal(t, 1.0, counterValue(t, m, "invoicegrid_files_processed_total", map[string]string{"status": "error"}))
	assert.Equal(t, 5.0, counterValue(t, m, "invoicegrid_line_items_extracted_total", nil))
}

func TestMetrics_ObserveExport(t *testing.T) {
	m := metrics.New()

	m.ObserveExport("xlsx", nil)
	m.ObserveExport("csv", errors.New("disk full"))

	assert.Equal(t, 1.0, counterValue(t, m, "invoicegrid_exports_total", map[string]string{"format": "xlsx", "status": "success"}))
	assert.Equal(t, 1.0, counterValue(t, m, "invoicegrid_exports_total", map[string]string{"format": "csv", "status": "error"}))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.ObserveFile(false, 1, time.Second)
		m.ObserveExport("xlsx", nil)
		m.ObserveSession("completed")
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := metrics.New()
	m.ObserveSession("completed")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), `invoicegrid_sessions_total{status="completed"} 1`))
}
