// Package xfailover 在租约之上提供主备角色协调。
//
// # 设计理念
//
// xlease 只回答"我现在是不是领导者"；xfailover 把这个判定
// 编排成调度循环：每拍根据本地信念选择获取或续期，再以
// KV 权威判定定角色。调用方得到的是一个随时可问角色、
// 失败自动降级为跟随者的状态机，而不是一串租约调用。
//
// # 使用模式
//
//	coord, err := xfailover.New(lease)
//	if err != nil { ... }
//
//	for range time.Tick(100 * time.Millisecond) {
//		switch coord.Tick(ctx, time.Now().UnixMilli()) {
//		case xfailover.RoleLeader:
//			// 执行只有领导者做的工作
//		case xfailover.RoleFollower:
//			// 待命
//		}
//	}
//
// 角色转换会记录一行日志，也可通过 WithOnRoleChange 挂接回调。
package xfailover
