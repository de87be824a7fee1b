package xmetrics

import "errors"

// ErrNilOption 表示 NewOTelSink 收到了 nil 的 Option。
var ErrNilOption = errors.New("xmetrics: nil option")
