package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWithRegistry(reg)
	require.NotNil(t, m)

	m.IndexBuildsTotal.WithLabelValues("pods").Inc()
	m.SearchesTotal.WithLabelValues("pods", "hit").Add(2)
	m.LoadsTotal.WithLabelValues("pods", "fetch").Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.IndexBuildsTotal.WithLabelValues("pods")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.SearchesTotal.WithLabelValues("pods", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoadsTotal.WithLabelValues("pods", "fetch")))
}

func TestSeparateRegistriesDoNotCollide(t *testing.T) {
	a := NewWithRegistry(prometheus.NewRegistry())
	b := NewWithRegistry(prometheus.NewRegistry())

	a.CacheHitsTotal.WithLabelValues("lists").Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.CacheHitsTotal.WithLabelValues("lists")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.CacheHitsTotal.WithLabelValues("lists")))
}
