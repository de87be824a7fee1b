package xrun

import (
	"errors"
	"os"
)

// ErrSignal 表示进程因收到系统信号而退出。
// 判断方式：errors.Is(err, ErrSignal)。
var ErrSignal = errors.New("received signal")

// ErrNilFunc 表示注册到 Group 的服务函数为 nil。
var ErrNilFunc = errors.New("xrun: nil service func")

// ErrInvalidInterval 表示 Ticker 的周期不是正数。
var ErrInvalidInterval = errors.New("xrun: interval must be positive")

// SignalError 携带触发退出的具体信号。
//
// Run/RunWithOptions 收到被监听的信号后，Wait 链路会把它作为退出
// 原因返回。粗粒度判断用 errors.Is(err, ErrSignal)，需要具体信号时
// 用 errors.As：
//
//	var sig *xrun.SignalError
//	if errors.As(err, &sig) {
//	    logger.Info("shutting down", slog.Any("signal", sig.Signal))
//	}
type SignalError struct {
	Signal os.Signal
}

func (e *SignalError) Error() string {
	name := "<nil>"
	if e.Signal != nil {
		name = e.Signal.String()
	}
	return "received signal " + name
}

// Is 让 errors.Is(err, ErrSignal) 成立。
func (e *SignalError) Is(target error) bool {
	return target == ErrSignal
}

// Unwrap 返回 ErrSignal，保持错误链完整。
func (e *SignalError) Unwrap() error {
	return ErrSignal
}
