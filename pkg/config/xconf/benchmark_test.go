package xconf

import (
	"os"
	"path/filepath"
	"testing"
)

// =============================================================================
// 基准夹具
// =============================================================================

const benchYAMLMinimal = `
gate:
  name: payments
  max_err_rate: 0.05
lease:
  ttl_ms: 3000
`

// 完整配置：闸门 + 租约 + 日志三段，贴近实际部署文件的规模
const benchYAMLFull = `
gate:
  name: payments
  max_err_rate: 0.05
  window_sec: 60
  min_closed_sec: 180
  half_open_probe: 3
  log_budget: 5
  max_bins: 120
  thread_safe: true
lease:
  key: locks/reporter
  ttl_ms: 3000
  renew_ms: 1500
  idempotent_renew: true
log:
  level: info
  format: json
  file: /var/log/guardkit/guard.log
  max_size_mb: 64
  max_backups: 7
  compress: true
`

const benchJSONMinimal = `{
  "gate": {"name": "payments", "max_err_rate": 0.05},
  "lease": {"ttl_ms": 3000}
}`

func writeBenchProfile(b *testing.B, name, content string) string {
	b.Helper()
	path := filepath.Join(b.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		b.Fatalf("write %s: %v", name, err)
	}
	return path
}

func benchFullConfig(b *testing.B) Config {
	b.Helper()
	cfg, err := NewFromBytes([]byte(benchYAMLFull), FormatYAML)
	if err != nil {
		b.Fatal(err)
	}
	return cfg
}

// =============================================================================
// 加载
// =============================================================================

func BenchmarkNew_YAML(b *testing.B) {
	path := writeBenchProfile(b, "guard.yaml", benchYAMLFull)

	for b.Loop() {
		if _, err := New(path); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkNew_JSON(b *testing.B) {
	path := writeBenchProfile(b, "guard.json", benchJSONMinimal)

	for b.Loop() {
		if _, err := New(path); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkNewFromBytes_Minimal(b *testing.B) {
	data := []byte(benchYAMLMinimal)

	for b.Loop() {
		if _, err := NewFromBytes(data, FormatYAML); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkNewFromBytes_Full(b *testing.B) {
	data := []byte(benchYAMLFull)

	b.ReportAllocs()
	for b.Loop() {
		if _, err := NewFromBytes(data, FormatYAML); err != nil {
			b.Fatalf("parse full profile: %v", err)
		}
	}
}

// =============================================================================
// 读取
// =============================================================================

func BenchmarkClient_String(b *testing.B) {
	cfg := benchFullConfig(b)

	for b.Loop() {
		_ = cfg.Client().String("gate.name")
	}
}

func BenchmarkClient_Float64(b *testing.B) {
	cfg := benchFullConfig(b)

	for b.Loop() {
		_ = cfg.Client().Float64("gate.max_err_rate")
	}
}

func BenchmarkClient_Int64(b *testing.B) {
	cfg := benchFullConfig(b)

	for b.Loop() {
		_ = cfg.Client().Int64("lease.ttl_ms")
	}
}

func BenchmarkClient_String_Parallel(b *testing.B) {
	cfg := benchFullConfig(b)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = cfg.Client().String("gate.name")
		}
	})
}

// =============================================================================
// 反序列化
// =============================================================================

type benchProfile struct {
	Gate struct {
		Name          string  `koanf:"name"`
		MaxErrRate    float64 `koanf:"max_err_rate"`
		WindowSec     int64   `koanf:"window_sec"`
		MinClosedSec  int64   `koanf:"min_closed_sec"`
		HalfOpenProbe int     `koanf:"half_open_probe"`
		LogBudget     int     `koanf:"log_budget"`
		MaxBins       int     `koanf:"max_bins"`
		ThreadSafe    bool    `koanf:"thread_safe"`
	} `koanf:"gate"`
	Lease struct {
		Key             string `koanf:"key"`
		TTLMs           int64  `koanf:"ttl_ms"`
		RenewMs         int64  `koanf:"renew_ms"`
		IdempotentRenew bool   `koanf:"idempotent_renew"`
	} `koanf:"lease"`
	Log struct {
		Level      string `koanf:"level"`
		Format     string `koanf:"format"`
		File       string `koanf:"file"`
		MaxSizeMB  int    `koanf:"max_size_mb"`
		MaxBackups int    `koanf:"max_backups"`
		Compress   bool   `koanf:"compress"`
	} `koanf:"log"`
}

func BenchmarkUnmarshal_Full(b *testing.B) {
	cfg := benchFullConfig(b)

	b.ReportAllocs()
	for b.Loop() {
		var prof benchProfile
		if err := cfg.Unmarshal("", &prof); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkUnmarshal_Section(b *testing.B) {
	cfg := benchFullConfig(b)

	type gateOnly struct {
		Name       string  `koanf:"name"`
		MaxErrRate float64 `koanf:"max_err_rate"`
	}

	for b.Loop() {
		var g gateOnly
		if err := cfg.Unmarshal("gate", &g); err != nil {
			b.Fatalf("unmarshal gate section: %v", err)
		}
	}
}

// =============================================================================
// 重载
// =============================================================================

func BenchmarkReload(b *testing.B) {
	path := writeBenchProfile(b, "guard.yaml", benchYAMLFull)

	cfg, err := New(path)
	if err != nil {
		b.Fatalf("load %s: %v", path, err)
	}

	for b.Loop() {
		if err := cfg.Reload(); err != nil {
			b.Fatalf("reload: %v", err)
		}
	}
}
