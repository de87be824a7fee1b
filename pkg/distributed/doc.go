// Package distributed 提供分布式协调相关的子包。
//
// 子包列表：
//   - xlease: 租约制分布式锁，基于键值存储的 SetNX/PExpire 原语
//   - xfailover: 逐拍驱动的主备切换协调器，基于 xlease 判定角色
//
// 设计原则：
//   - 核心不起后台协程，节奏完全由调用方驱动
//   - 本地认知与存储权威分离，对外判定以存储读取为准
//   - 存储故障一律降级为非持有者，而非向调用方抛错
package distributed
