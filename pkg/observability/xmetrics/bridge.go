package xmetrics

import "sort"

// EventSink 将事件回调翻译为 Sink 调用。
//
// 翻译规则按字段名约定：
//   - fields 含数值 "add"：按计数器处理，Add(event, add)，其余字段转为属性
//   - fields 含数值 "value"：按瞬时值处理，Gauge(event, value)，其余字段转为属性
//   - 其他情况：按事件发生次数计数，Add(event, 1)，全部字段转为属性
//
// 属性按字段名排序，同一事件的属性集合稳定可比。
// nil sink 返回空操作函数，调用方无需判空。
func EventSink(sink Sink) func(event string, fields map[string]any) {
	if sink == nil {
		return func(string, map[string]any) {}
	}
	return func(event string, fields map[string]any) {
		if delta, ok := numericField(fields, "add"); ok {
			sink.Add(event, delta, fieldAttrs(fields, "add")...)
			return
		}
		if value, ok := numericField(fields, "value"); ok {
			sink.Gauge(event, value, fieldAttrs(fields, "value")...)
			return
		}
		sink.Add(event, 1, fieldAttrs(fields, "")...)
	}
}

func numericField(fields map[string]any, key string) (float64, bool) {
	v, ok := fields[key]
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// fieldAttrs 将 fields 中除 skip 外的字段转为按 key 排序的属性切片。
func fieldAttrs(fields map[string]any, skip string) []Attr {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k == skip {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Strings(keys)
	attrs := make([]Attr, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, Any(k, fields[k]))
	}
	return attrs
}
