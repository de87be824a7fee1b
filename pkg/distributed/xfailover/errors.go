package xfailover

import "errors"

// ErrNilLease 表示创建协调器时未提供租约
var ErrNilLease = errors.New("xfailover: lease is nil")
