// Package xkv 提供租约锁所需的最小键值存储能力。
//
// # 设计理念
//
// 租约锁只依赖四个写读原语加一个毫秒时钟，高于此的能力（事务、订阅、
// 批量操作）一律不进入接口。接口越窄，后端越容易替换，故障语义越容易
// 推理。
//
// # 核心概念
//
//   - Store: 四操作加时钟的能力接口（SetNX/PExpire/Get/Del/NowMs）
//   - Clock: 毫秒时钟抽象，Memory/Etcd 后端的时间来源
//   - Memory: 进程内实现，配合 ManualClock 用于确定性测试与混沌演练
//   - Redis: go-redis 实现，SetNX/PExpire/TIME 直接映射 Redis 命令
//   - Etcd: etcd 实现，以 create-revision 守卫加租约模拟 SetNX 语义
//
// # 过期边界
//
// 所有后端统一采用同一边界约定：nowMs >= expiryMs 即视为过期。
// 恰好到期瞬间，新的 SetNX 成功，而读取与续期失败。Memory 后端严格
// 实现该边界；Redis/Etcd 由服务端的过期机制保证近似语义。
//
// # 时间语义
//
//   - Memory: 注入的 Clock，允许负值与非单调回拨
//   - Redis: 服务端 TIME 命令，多个客户端共享同一时间源
//   - Etcd: etcd 无时间查询接口，使用注入的 Clock
//
// 详细使用示例请参考 example_test.go。
package xkv
