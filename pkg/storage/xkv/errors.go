package xkv

import "errors"

// 错误定义。
var (
	// ErrKeyNotFound 键不存在或已过期。
	ErrKeyNotFound = errors.New("xkv: key not found")

	// ErrEmptyKey 键名为空。
	ErrEmptyKey = errors.New("xkv: key is empty")

	// ErrNilClient 客户端为空。
	ErrNilClient = errors.New("xkv: nil client")
)

// IsKeyNotFound 判断 err 是否为键不存在（含已过期）。
func IsKeyNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound)
}
