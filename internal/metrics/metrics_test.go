package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	require.NotNil(t, reg)

	metricChecks := []struct {
		name   string
		metric interface{}
	}{
		{"ChecksTotal", reg.ChecksTotal},
		{"RequestsTotal", reg.RequestsTotal},
		{"RequestDuration", reg.RequestDuration},
		{"IterationsTotal", reg.IterationsTotal},
		{"IterationDuration", reg.IterationDuration},
		{"VUsActive", reg.VUsActive},
	}
	for _, check := range metricChecks {
		assert.NotNil(t, check.metric, check.name)
	}
}

func TestRecordChecks(t *testing.T) {
	reg := NewRegistry()
	reg.Record("is status 200", true)
	reg.Record("is status 200", true)
	reg.Record("is status 200", false)

	assert.InDelta(t, 2, testutil.ToFloat64(reg.ChecksTotal.WithLabelValues("is status 200", "pass")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(reg.ChecksTotal.WithLabelValues("is status 200", "fail")), 0)
}

func TestObserveRequestsAndIterations(t *testing.T) {
	reg := NewRegistry()
	reg.ObserveRequest(200, 10*time.Millisecond)
	reg.ObserveRequest(500, 20*time.Millisecond)
	reg.ObserveRequest(200, 30*time.Millisecond)
	reg.ObserveIteration(nil, time.Millisecond)
	reg.ObserveIteration(errors.New("boom"), time.Millisecond)
	reg.SetActiveVUs(4)

	assert.InDelta(t, 2, testutil.ToFloat64(reg.RequestsTotal.WithLabelValues("200")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(reg.RequestsTotal.WithLabelValues("500")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(reg.IterationsTotal.WithLabelValues("ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(reg.IterationsTotal.WithLabelValues("error")), 0)
	assert.InDelta(t, 4, testutil.ToFloat64(reg.VUsActive), 0)

	count, err := testutil.GatherAndCount(reg.Gatherer(), "loginload_http_req_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg := NewRegistry()
	reg.Record("is status 200", true)

	srv := httptest.NewServer(reg.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `loginload_checks_total{check="is status 200",result="pass"} 1`)
}
