package xmetrics

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const defaultInstrumentationName = "github.com/omeyang/guardkit/xmetrics"

type otelConfig struct {
	instrumentationName string
	meterProvider       metric.MeterProvider
}

// Option 配置 NewOTelSink。
type Option func(*otelConfig)

// WithInstrumentationName 覆盖默认的 instrumentation scope 名称。
// 空串视为未设置，保持默认值。
func WithInstrumentationName(name string) Option {
	return func(cfg *otelConfig) {
		if name == "" {
			return
		}
		cfg.instrumentationName = name
	}
}

// WithMeterProvider 指定 MeterProvider，nil 保持全局默认。
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(cfg *otelConfig) {
		if provider == nil {
			return
		}
		cfg.meterProvider = provider
	}
}

// NewOTelSink 创建基于 OpenTelemetry 的 Sink。
//
// 仪表按指标名惰性创建并缓存：同名指标复用同一仪表，
// 创建失败的指标名降级为空操作且不再重试。
// Gauge/Add 本身永不返回错误，上报失败对调用方透明。
func NewOTelSink(opts ...Option) (Sink, error) {
	cfg := &otelConfig{
		instrumentationName: defaultInstrumentationName,
		meterProvider:       otel.GetMeterProvider(),
	}
	for _, opt := range opts {
		if opt == nil {
			return nil, ErrNilOption
		}
		opt(cfg)
	}

	return &otelSink{
		meter:    cfg.meterProvider.Meter(cfg.instrumentationName),
		gauges:   make(map[string]metric.Float64Gauge),
		counters: make(map[string]metric.Float64Counter),
	}, nil
}

type otelSink struct {
	meter metric.Meter

	mu       sync.RWMutex
	gauges   map[string]metric.Float64Gauge
	counters map[string]metric.Float64Counter
}

var _ Sink = (*otelSink)(nil)

// Gauge 上报瞬时值。
func (s *otelSink) Gauge(name string, value float64, attrs ...Attr) {
	g := s.gauge(name)
	if g == nil {
		return
	}
	g.Record(context.Background(), value, metric.WithAttributes(otelAttrs(attrs)...))
}

// Add 累加计数器增量。
func (s *otelSink) Add(name string, delta float64, attrs ...Attr) {
	c := s.counter(name)
	if c == nil {
		return
	}
	c.Add(context.Background(), delta, metric.WithAttributes(otelAttrs(attrs)...))
}

func (s *otelSink) gauge(name string) metric.Float64Gauge {
	s.mu.RLock()
	g, ok := s.gauges[name]
	s.mu.RUnlock()
	if ok {
		return g
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.gauges[name]; ok {
		return g
	}
	g, err := s.meter.Float64Gauge(name)
	if err != nil {
		// 缓存 nil 条目，同名指标不再重试创建
		s.gauges[name] = nil
		return nil
	}
	s.gauges[name] = g
	return g
}

func (s *otelSink) counter(name string) metric.Float64Counter {
	s.mu.RLock()
	c, ok := s.counters[name]
	s.mu.RUnlock()
	if ok {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.counters[name]; ok {
		return c
	}
	c, err := s.meter.Float64Counter(name)
	if err != nil {
		s.counters[name] = nil
		return nil
	}
	s.counters[name] = c
	return c
}

// otelAttrs 把属性列表转换为 OTel 形式，丢弃空 key 和 nil 值的条目。
func otelAttrs(attrs []Attr) []attribute.KeyValue {
	if len(attrs) == 0 {
		return nil
	}
	kvs := make([]attribute.KeyValue, 0, len(attrs))
	for _, a := range attrs {
		if a.Key == "" || a.Value == nil {
			continue
		}
		kvs = append(kvs, otelAttr(a))
	}
	return kvs
}

// otelAttr 转换单个属性，未识别的类型退化为 fmt.Sprint 字符串。
func otelAttr(a Attr) attribute.KeyValue {
	switch v := a.Value.(type) {
	case string:
		return attribute.String(a.Key, v)
	case int:
		return attribute.Int(a.Key, v)
	case int64:
		return attribute.Int64(a.Key, v)
	case float64:
		return attribute.Float64(a.Key, v)
	case float32:
		return attribute.Float64(a.Key, float64(v))
	case bool:
		return attribute.Bool(a.Key, v)
	case uint64:
		// OTel 属性没有无符号整型，超出 int64 的值转字符串避免截断
		if v > math.MaxInt64 {
			return attribute.String(a.Key, strconv.FormatUint(v, 10))
		}
		return attribute.Int64(a.Key, int64(v))
	case time.Duration:
		return attribute.Int64(a.Key, v.Nanoseconds())
	default:
		return attribute.String(a.Key, fmt.Sprint(v))
	}
}
