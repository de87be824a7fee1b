package xmetrics

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// ============================================================================
// ManualReader 辅助
// ============================================================================

// newTestMeterProvider 创建带 ManualReader 的 MeterProvider，供断言读取导出值
func newTestMeterProvider() (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)), reader
}

// collect 读取当前累积的全部指标数据
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

// findMetric 按指标名查找已导出的指标
func findMetric(t *testing.T, rm metricdata.ResourceMetrics, name string) metricdata.Metrics {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m
			}
		}
	}
	t.Fatalf("metric %q not found", name)
	return metricdata.Metrics{}
}

// ============================================================================
// NewOTelSink 测试
// ============================================================================

func TestNewOTelSink_Default(t *testing.T) {
	sink, err := NewOTelSink()
	require.NoError(t, err)
	require.NotNil(t, sink)
}

func TestNewOTelSink_WithOptions(t *testing.T) {
	mp, _ := newTestMeterProvider()
	defer func() { _ = mp.Shutdown(context.Background()) }()

	sink, err := NewOTelSink(
		WithInstrumentationName("test-instrumentation"),
		WithMeterProvider(mp),
	)

	require.NoError(t, err)
	require.NotNil(t, sink)
}

func TestNewOTelSink_WithEmptyInstrumentationName(t *testing.T) {
	// 空名称应该使用默认值
	sink, err := NewOTelSink(WithInstrumentationName(""))
	require.NoError(t, err)
	require.NotNil(t, sink)
}

func TestNewOTelSink_WithNilProvider(t *testing.T) {
	// nil provider 应该使用全局默认
	sink, err := NewOTelSink(WithMeterProvider(nil))
	require.NoError(t, err)
	require.NotNil(t, sink)
}

func TestNewOTelSink_NilOption(t *testing.T) {
	sink, err := NewOTelSink(nil)
	require.ErrorIs(t, err, ErrNilOption)
	assert.Nil(t, sink)
}

// ============================================================================
// Gauge / Add 测试
// ============================================================================

func TestOTelSink_Gauge(t *testing.T) {
	mp, reader := newTestMeterProvider()
	defer func() { _ = mp.Shutdown(context.Background()) }()

	sink, err := NewOTelSink(WithMeterProvider(mp))
	require.NoError(t, err)

	// 同名同属性多次上报，读数为最后一次的值
	sink.Gauge("circuit_state", 0)
	sink.Gauge("circuit_state", 1)

	rm := collect(t, reader)
	m := findMetric(t, rm, "circuit_state")

	gauge, ok := m.Data.(metricdata.Gauge[float64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.InDelta(t, 1.0, gauge.DataPoints[0].Value, 1e-9)
}

func TestOTelSink_Gauge_WithAttrs(t *testing.T) {
	mp, reader := newTestMeterProvider()
	defer func() { _ = mp.Shutdown(context.Background()) }()

	sink, err := NewOTelSink(WithMeterProvider(mp))
	require.NoError(t, err)

	sink.Gauge("err_rate_window", 0.25, String("name", "payments"))

	rm := collect(t, reader)
	m := findMetric(t, rm, "err_rate_window")

	gauge, ok := m.Data.(metricdata.Gauge[float64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.InDelta(t, 0.25, gauge.DataPoints[0].Value, 1e-9)

	v, ok := gauge.DataPoints[0].Attributes.Value(attribute.Key("name"))
	require.True(t, ok)
	assert.Equal(t, "payments", v.AsString())
}

func TestOTelSink_Gauge_AttrsSplitDataPoints(t *testing.T) {
	mp, reader := newTestMeterProvider()
	defer func() { _ = mp.Shutdown(context.Background()) }()

	sink, err := NewOTelSink(WithMeterProvider(mp))
	require.NoError(t, err)

	// 不同属性集合各自独立累积
	sink.Gauge("circuit_state", 0, String("name", "a"))
	sink.Gauge("circuit_state", 1, String("name", "b"))

	rm := collect(t, reader)
	m := findMetric(t, rm, "circuit_state")

	gauge, ok := m.Data.(metricdata.Gauge[float64])
	require.True(t, ok)
	assert.Len(t, gauge.DataPoints, 2)
}

func TestOTelSink_Add(t *testing.T) {
	mp, reader := newTestMeterProvider()
	defer func() { _ = mp.Shutdown(context.Background()) }()

	sink, err := NewOTelSink(WithMeterProvider(mp))
	require.NoError(t, err)

	sink.Add("transitions_total", 1)
	sink.Add("transitions_total", 2.5)

	rm := collect(t, reader)
	m := findMetric(t, rm, "transitions_total")

	sum, ok := m.Data.(metricdata.Sum[float64])
	require.True(t, ok)
	assert.True(t, sum.IsMonotonic)
	require.Len(t, sum.DataPoints, 1)
	assert.InDelta(t, 3.5, sum.DataPoints[0].Value, 1e-9)
}

func TestOTelSink_Add_WithAttrs(t *testing.T) {
	mp, reader := newTestMeterProvider()
	defer func() { _ = mp.Shutdown(context.Background()) }()

	sink, err := NewOTelSink(WithMeterProvider(mp))
	require.NoError(t, err)

	sink.Add("transitions_total", 1, String("from", "OPEN"), String("to", "TRIPPED"))
	sink.Add("transitions_total", 1, String("from", "OPEN"), String("to", "TRIPPED"))
	sink.Add("transitions_total", 1, String("from", "TRIPPED"), String("to", "HALF_OPEN"))

	rm := collect(t, reader)
	m := findMetric(t, rm, "transitions_total")

	sum, ok := m.Data.(metricdata.Sum[float64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 2)

	// 同一 from/to 组合累加到同一数据点
	for _, dp := range sum.DataPoints {
		to, ok := dp.Attributes.Value(attribute.Key("to"))
		require.True(t, ok)
		switch to.AsString() {
		case "TRIPPED":
			assert.InDelta(t, 2.0, dp.Value, 1e-9)
		case "HALF_OPEN":
			assert.InDelta(t, 1.0, dp.Value, 1e-9)
		default:
			t.Fatalf("unexpected to attr: %s", to.AsString())
		}
	}
}

// ============================================================================
// 惰性仪表创建测试
// ============================================================================

func TestOTelSink_LazyInstruments(t *testing.T) {
	mp, reader := newTestMeterProvider()
	defer func() { _ = mp.Shutdown(context.Background()) }()

	sink, err := NewOTelSink(WithMeterProvider(mp))
	require.NoError(t, err)

	// 尚未上报任何指标，不应该有仪表存在
	rm := collect(t, reader)
	assert.Empty(t, rm.ScopeMetrics)

	sink.Gauge("lazy_gauge", 1)

	rm = collect(t, reader)
	require.Len(t, rm.ScopeMetrics, 1)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)
	assert.Equal(t, "lazy_gauge", rm.ScopeMetrics[0].Metrics[0].Name)
}

func TestOTelSink_InstrumentReuse(t *testing.T) {
	mp, _ := newTestMeterProvider()
	defer func() { _ = mp.Shutdown(context.Background()) }()

	raw, err := NewOTelSink(WithMeterProvider(mp))
	require.NoError(t, err)

	sink, ok := raw.(*otelSink)
	require.True(t, ok)

	for i := range 100 {
		sink.Gauge("reused", float64(i))
		sink.Add("reused_total", 1)
	}

	// 同名指标复用缓存仪表，不重复创建
	assert.Len(t, sink.gauges, 1)
	assert.Len(t, sink.counters, 1)
}

func TestOTelSink_SeparateNames(t *testing.T) {
	mp, reader := newTestMeterProvider()
	defer func() { _ = mp.Shutdown(context.Background()) }()

	sink, err := NewOTelSink(WithMeterProvider(mp))
	require.NoError(t, err)

	sink.Gauge("gauge_a", 1)
	sink.Gauge("gauge_b", 2)
	sink.Add("counter_c", 3)

	rm := collect(t, reader)
	require.Len(t, rm.ScopeMetrics, 1)
	assert.Len(t, rm.ScopeMetrics[0].Metrics, 3)
}

// ============================================================================
// 并发写入
// ============================================================================

func TestOTelSink_Concurrent(t *testing.T) {
	mp, reader := newTestMeterProvider()
	defer func() { _ = mp.Shutdown(context.Background()) }()

	raw, err := NewOTelSink(WithMeterProvider(mp))
	require.NoError(t, err)

	const goroutines = 50
	const rounds = 20

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for id := range goroutines {
		go func() {
			defer wg.Done()
			for j := range rounds {
				raw.Gauge("renew_latency_ms", float64(j), Int("worker", id))
				raw.Add("renewals_total", 1)
			}
		}()
	}
	wg.Wait()

	rm := collect(t, reader)
	m := findMetric(t, rm, "renewals_total")

	sum, ok := m.Data.(metricdata.Sum[float64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.InDelta(t, float64(goroutines*rounds), sum.DataPoints[0].Value, 1e-9)

	// 并发下同名仪表只创建一次
	sink, ok := raw.(*otelSink)
	require.True(t, ok)
	assert.Len(t, sink.gauges, 1)
	assert.Len(t, sink.counters, 1)
}

// ============================================================================
// 属性转换测试
// ============================================================================

func TestOTelAttrs(t *testing.T) {
	t.Run("empty_input", func(t *testing.T) {
		assert.Nil(t, otelAttrs(nil))
		assert.Nil(t, otelAttrs([]Attr{}))
	})

	t.Run("drops_unusable_entries", func(t *testing.T) {
		kvs := otelAttrs([]Attr{
			{Key: "", Value: "anonymous"},
			{Key: "reason", Value: nil},
			String("name", "payments"),
		})
		require.Len(t, kvs, 1)
		assert.Equal(t, attribute.Key("name"), kvs[0].Key)
	})

	t.Run("keeps_order", func(t *testing.T) {
		kvs := otelAttrs([]Attr{
			String("env", "prod"),
			String("service", "gateway"),
			String("instance", "gw-1"),
		})
		require.Len(t, kvs, 3)
		assert.Equal(t, attribute.Key("env"), kvs[0].Key)
		assert.Equal(t, attribute.Key("instance"), kvs[2].Key)
	})
}

func TestOTelAttr(t *testing.T) {
	tests := []struct {
		name string
		in   Attr
		want attribute.KeyValue
	}{
		{"string", String("state", "TRIPPED"), attribute.String("state", "TRIPPED")},
		{"int", Int("window_len", 12), attribute.Int("window_len", 12)},
		{"int64", Int64("takeover_ms", 1100), attribute.Int64("takeover_ms", 1100)},
		{"float64", Float64("err_rate", 0.15), attribute.Float64("err_rate", 0.15)},
		{"float32", Any("ratio", float32(0.5)), attribute.Float64("ratio", 0.5)},
		{"bool", Bool("leader", true), attribute.Bool("leader", true)},
		{"uint64_in_range", Any("epoch", uint64(7)), attribute.Int64("epoch", 7)},
		{"uint64_overflow", Any("epoch", uint64(math.MaxInt64)+1), attribute.String("epoch", "9223372036854775808")},
		{"duration", Any("ttl", 3*time.Second), attribute.Int64("ttl", (3 * time.Second).Nanoseconds())},
		{"fallback_sprint", Any("err", errors.New("dial timeout")), attribute.String("err", "dial timeout")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, otelAttr(tt.in))
		})
	}
}

// ============================================================================
// 构造选项
// ============================================================================

func TestOTelOptions(t *testing.T) {
	t.Run("instrumentation_name", func(t *testing.T) {
		cfg := &otelConfig{instrumentationName: defaultInstrumentationName}
		WithInstrumentationName("guardkit-test")(cfg)
		assert.Equal(t, "guardkit-test", cfg.instrumentationName)
	})

	t.Run("empty_name_keeps_default", func(t *testing.T) {
		cfg := &otelConfig{instrumentationName: defaultInstrumentationName}
		WithInstrumentationName("")(cfg)
		assert.Equal(t, defaultInstrumentationName, cfg.instrumentationName)
	})

	t.Run("meter_provider", func(t *testing.T) {
		mp, _ := newTestMeterProvider()
		defer func() { _ = mp.Shutdown(context.Background()) }()

		cfg := &otelConfig{}
		WithMeterProvider(mp)(cfg)
		assert.Same(t, mp, cfg.meterProvider)
	})

	t.Run("nil_provider_keeps_current", func(t *testing.T) {
		current := otel.GetMeterProvider()
		cfg := &otelConfig{meterProvider: current}
		WithMeterProvider(nil)(cfg)
		assert.Equal(t, current, cfg.meterProvider)
	})
}
