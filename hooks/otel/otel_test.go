package otelhook

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/unkn0wn-root/cacheaspect"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				out[m.Name] += dp.Value
			}
		}
	}
	return out
}

func TestCounters(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	h, err := New(mp.Meter("cacheaspect"))
	require.NoError(t, err)

	h.CacheHit("S.Get", "k")
	h.CacheHit("S.Get", "k")
	h.CacheMiss("S.Get", "k")
	h.Stored("S.Get", "k", cacheaspect.DataTypeMap)
	h.Evicted("S.Del", "k")
	h.KeyTruncated("S.Del", "k", 1)
	h.Failed("S.Get", cacheaspect.StageLoad, errors.New("x"))

	got := collect(t, reader)
	assert.EqualValues(t, 2, got["cacheaspect.hits"])
	assert.EqualValues(t, 1, got["cacheaspect.misses"])
	assert.EqualValues(t, 1, got["cacheaspect.stores"])
	assert.EqualValues(t, 1, got["cacheaspect.evictions"])
	assert.EqualValues(t, 1, got["cacheaspect.key_truncations"])
	assert.EqualValues(t, 1, got["cacheaspect.failures"])
}
