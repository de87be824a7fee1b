// Package xconf 提供统一的配置加载和解析功能，基于 koanf 实现。
//
// # 设计理念
//
// xconf 定位为最小化配置加载器，负责文件/字节数据的加载、反序列化和热重载：
//   - 工厂函数 New（文件）与 NewFromBytes（内存字节）
//   - Client() 直接暴露底层 koanf 实例，键值读取用 koanf 原生 API
//   - 在此之上只加两样：并发安全的 Reload、类型化的 Unmarshal
//
// # 支持的格式
//
// 按扩展名识别：.yaml 和 .yml 解析为 YAML（默认，推荐），.json 解析为
// JSON，其余扩展名在 New 处返回 [ErrUnsupportedFormat]。
//
// # 并发安全
//
// 所有方法都是并发安全的。Reload() 先在锁外重新解析，成功后在写锁
// 保护下整体替换 koanf 实例；解析失败时保留旧配置，不会出现半更新状态。
//
// Client() 返回的实例在 Reload() 后仍然有效，但指向旧配置（快照语义）。
// 推荐用法：每次需要时调用 Client()，不要长期缓存返回的指针。
//
// # Unmarshal
//
// 反序列化走 mapstructure，弱类型转换默认开启，字符串 "8080" 能落到
// int 字段上；需要严格校验的场景在 Unmarshal 之后自行验证。
// MustUnmarshal 与 Unmarshal 相同但失败时 panic，适用于程序启动时的
// 必要配置加载。
//
// # 类型化配置
//
// [Settings] 聚合闸门、租约与日志的文件配置（[GateConfig]、[LeaseConfig]、
// [LogConfig]），字段使用 snake_case 标签。数值越界一律由 Normalize 钳位
// 而非拒绝加载，配置错误只出现在文档本身无法解析时：
//
//	s := xconf.DefaultSettings()
//	if err := cfg.Unmarshal("", &s); err != nil { ... }
//	s.Normalize()
//
// # 配置监视
//
// Watch 基于 fsnotify 监视配置文件：监视的是所在目录而非文件本身，
// 事件经防抖窗口合并后触发 Reload，vim/emacs 的原子保存（rename）
// 同样能被捕获。字节来源的 Config 无文件可监视，Watch 返回
// [ErrNotFromFile]。
package xconf
