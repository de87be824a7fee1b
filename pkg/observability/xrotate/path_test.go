package xrotate

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// 路径净化白盒测试
// =============================================================================

// TestSanitizePath 测试路径格式净化
func TestSanitizePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{
			name:  "普通绝对路径",
			input: "/var/log/app.log",
			want:  "/var/log/app.log",
		},
		{
			name:  "冗余分隔符被规范化",
			input: "/var//log/./app.log",
			want:  "/var/log/app.log",
		},
		{
			name:  "合法文件名中的连续点号",
			input: "/var/log/app..2024.log",
			want:  "/var/log/app..2024.log",
		},
		{
			name:    "相对路径穿越",
			input:   "../../etc/passwd",
			wantErr: ErrPathTraversal,
		},
		{
			name:    "反斜杠风格穿越",
			input:   "..\\..\\etc\\passwd",
			wantErr: ErrPathTraversal,
		},
		{
			name:    "空字节",
			input:   "/var/log/app\x00.log",
			wantErr: ErrInvalidPath,
		},
		{
			name:    "目录路径（尾随斜杠）",
			input:   "/var/log/",
			wantErr: ErrInvalidPath,
		},
		{
			name:    "目录路径（尾随反斜杠）",
			input:   "C:\\logs\\",
			wantErr: ErrInvalidPath,
		},
		{
			name:    "无文件名",
			input:   ".",
			wantErr: ErrInvalidPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sanitizePath(tt.input)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestHasDotDotSegment 测试 ".." 路径段检测
func TestHasDotDotSegment(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"", false},
		{"..", true},
		{"../a", true},
		{"a/../b", true},
		{"a\\..\\b", true},
		{"a/..b/c", false},
		{"a/b../c", false},
		{"app..log", false},
		{"/a/b/c", false},
		{"...", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, hasDotDotSegment(tt.path))
		})
	}
}

// TestEnsureDir 测试父目录自动创建
func TestEnsureDir(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("创建多级父目录", func(t *testing.T) {
		filename := filepath.Join(tmpDir, "a", "b", "c", "app.log")
		require.NoError(t, ensureDir(filename))
		assert.DirExists(t, filepath.Join(tmpDir, "a", "b", "c"))
	})

	t.Run("目录已存在时不报错", func(t *testing.T) {
		filename := filepath.Join(tmpDir, "app.log")
		require.NoError(t, ensureDir(filename))
		require.NoError(t, ensureDir(filename))
	})

	t.Run("无父目录时直接返回", func(t *testing.T) {
		require.NoError(t, ensureDir("app.log"))
	})
}
