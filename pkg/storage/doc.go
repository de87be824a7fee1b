// Package storage 提供数据存储相关的子包。
//
// 子包列表：
//   - xkv: 租约锁消费的键值存储能力，内置内存、Redis、etcd 三种后端
//
// 设计原则：
//   - 以最小操作面（SetNX/PExpire/Get/Del/NowMs）屏蔽后端差异
//   - 过期判定统一为 now >= expiry
//   - 内存后端配合手动时钟，支撑确定性测试与混沌演练
package storage
