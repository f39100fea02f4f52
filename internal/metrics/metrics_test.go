package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveHTTP("GET", "/api/meetings", 200, 30*time.Millisecond)
	m.ObserveUpstream("list_meetings", nil, time.Millisecond)
	m.ObserveUpstream("list_meetings", errors.New("boom"), time.Millisecond)
	m.ObserveCache("segment-comments", true)
	m.ObserveUpload("recording", 1024, nil)
	m.ObserveUpload("recording", 10, errors.New("denied"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/meetings", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamCallsTotal.WithLabelValues("list_meetings", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookupsTotal.WithLabelValues("segment-comments", "hit")))
	assert.Equal(t, 1024.0, testutil.ToFloat64(m.UploadBytesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UploadsTotal.WithLabelValues("recording", "error")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveHTTP("GET", "/", 200, 0)
		m.ObserveUpstream("x", nil, 0)
		m.ObserveCache("x", false)
		m.ObserveUpload("x", 1, nil)
	})
}
