package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveTurn("ok", time.Second)
		m.ObserveCompletion(time.Second)
		m.RecordDispatch("open_app", "ok")
		m.RecordResolve("exact")
		m.SetHistorySize(3)
		m.RecordHTTP("GET", "/healthz", "200")
	})
}

func TestMetricsRecord(t *testing.T) {
	t.Parallel()

	m := New()
	m.RecordDispatch("open_app", "ok")
	m.RecordDispatch("open_app", "ok")
	m.RecordDispatch("close_window", "not_found")
	m.ObserveTurn("error", 10*time.Millisecond)
	m.SetHistorySize(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ToolDispatches.WithLabelValues("open_app", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolDispatches.WithLabelValues("close_window", "not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TurnsTotal.WithLabelValues("error")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.HistoryExchanges))
}
