package xlease

import "errors"

// 预定义错误。
// 仅 New 返回错误；运行期的 KV 故障一律降级为"非领导者"，不向调用方传播。
var (
	// ErrNilStore 存储为空。
	// 传入 nil Store 时返回此错误。
	ErrNilStore = errors.New("xlease: store is nil")

	// ErrEmptyKey 租约 key 为空。
	// key 为空字符串或仅含空白时返回此错误。
	ErrEmptyKey = errors.New("xlease: key must not be empty")
)
