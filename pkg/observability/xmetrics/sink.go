package xmetrics

// Attr 表示指标属性。
type Attr struct {
	Key   string
	Value any
}

// 属性构造函数，风格对齐 slog：调用点写 String("name", "payments")
// 比手写 Attr 字面量短，也不容易把 key 和 value 写反。

// String 构造字符串属性。
func String(key, value string) Attr {
	return Attr{Key: key, Value: value}
}

// Int 构造 int 属性。
func Int(key string, value int) Attr {
	return Attr{Key: key, Value: value}
}

// Int64 构造 int64 属性。
// 时间戳、耗时等量值建议在 key 里带上单位，例如 "takeover_ms"。
func Int64(key string, value int64) Attr {
	return Attr{Key: key, Value: value}
}

// Float64 构造 float64 属性，错误率之类的比例值用它。
func Float64(key string, value float64) Attr {
	return Attr{Key: key, Value: value}
}

// Bool 构造布尔属性。
func Bool(key string, value bool) Attr {
	return Attr{Key: key, Value: value}
}

// Any 构造任意值属性。
// OTel 转换层对未识别的类型退化为字符串，见 otelAttr。
func Any(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

// Sink 定义统一指标上报接口。
//
// 实现必须容忍任意指标名和属性组合，上报失败不得影响调用方。
type Sink interface {
	// Gauge 上报瞬时值，覆盖同名指标的当前读数。
	Gauge(name string, value float64, attrs ...Attr)
	// Add 累加计数器增量，delta 可为任意正数。
	Add(name string, delta float64, attrs ...Attr)
}

// NoopSink 是空实现。
type NoopSink struct{}

// Gauge 空实现，不做任何处理。
func (NoopSink) Gauge(_ string, _ float64, _ ...Attr) {}

// Add 空实现，不做任何处理。
func (NoopSink) Add(_ string, _ float64, _ ...Attr) {}

// Gauge 通过 sink 上报瞬时值，nil sink 时为空操作。
//
// 设计决策: 包级函数统一处理 nil sink，调用方无需在每个上报点判空。
// 组件持有 Sink 字段时可以放心置 nil 表示"不上报"。
func Gauge(sink Sink, name string, value float64, attrs ...Attr) {
	if sink == nil {
		return
	}
	sink.Gauge(name, value, attrs...)
}

// Add 通过 sink 累加计数器，nil sink 时为空操作。
func Add(sink Sink, name string, delta float64, attrs ...Attr) {
	if sink == nil {
		return
	}
	sink.Add(name, delta, attrs...)
}
