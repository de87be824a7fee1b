package xrotate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// dirPerm 自动创建父目录时使用的权限（符合 gosec G301 建议）
const dirPerm = 0750

// sanitizePath 对日志文件路径进行格式净化和规范化。
//
// 功能：
//   - 路径规范化（消除 . 和冗余斜杠）
//   - 阻止相对路径穿越（如 "../etc/passwd"）
//   - 拒绝空字节和显式目录路径（尾随 "/" 或 "\"）
//
// 本函数接受绝对路径；绝对路径中的 ".." 由 filepath.Clean 正常解析
// （如 "/var/log/../etc" -> "/etc"，这是合法路径而非穿越）。
func sanitizePath(filename string) (string, error) {
	if strings.ContainsRune(filename, 0) {
		return "", fmt.Errorf("filename contains null byte: %w", ErrInvalidPath)
	}

	// 尾部分隔符表示目录，必须在 filepath.Clean 之前检查（Clean 会移除尾部斜杠）。
	// 设计决策: Linux 上反斜杠是合法文件名字符，但以 "\" 结尾几乎总是跨平台
	// 拼接错误，为安全起见统一拒绝。
	if strings.HasSuffix(filename, "/") || strings.HasSuffix(filename, "\\") {
		return "", fmt.Errorf("path is a directory: %w", ErrInvalidPath)
	}

	cleaned := filepath.Clean(filename)

	// 不能用 strings.Contains(cleaned, "..")：会误伤合法文件名（如 "app..2024.log"）。
	// 按路径段精确判断，只要某个 segment 恰好是 ".." 就拒绝。
	if hasDotDotSegment(cleaned) {
		return "", fmt.Errorf("filename escapes parent directory: %w", ErrPathTraversal)
	}

	if base := filepath.Base(cleaned); base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("missing file name: %w", ErrInvalidPath)
	}

	return cleaned, nil
}

// hasDotDotSegment 检测路径中是否包含 ".." 作为独立路径段。
// '/' 和 '\' 都视为分隔符，Windows 风格的穿越在 Linux 上同样拦截；
// 切片遍历不产生内存分配。
func hasDotDotSegment(path string) bool {
	for len(path) > 0 {
		end := strings.IndexAny(path, `/\`)
		if end < 0 {
			return path == ".."
		}
		if path[:end] == ".." {
			return true
		}
		path = path[end+1:]
	}
	return false
}

// ensureDir 确保日志文件的父目录存在，不存在时以 dirPerm 权限创建。
// 目录已存在时不修改其权限。
func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, dirPerm)
}
