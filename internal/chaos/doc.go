// Package chaos 在进程内重放一套确定性的主备切换浸泡场景。
//
// 场景把两个节点（A、B）压在同一个 xkv.Memory 和手动时钟上，
// 各自通过 xlease.Lease + xfailover.Coordinator 按脚本化时间线逐拍驱动：
// A 获取租约后心跳一段时间停摆，B 持续试探并在租约到期后接管，
// A 回归后保持跟随者。全程没有真实时间流逝，输出是确定性的。
//
// 每一拍向输出写一行事件，结束时给出接管耗时与幂等续期计数的汇总：
//
//	CHAOS t=<ms> role=<节点名> state=<leader|follower> lock=<acq|renew|miss>
//	CHAOS_SUMMARY takeover_ms=<int> idem_hits_total=<int>
//	CHAOS_RESULT=OK
//
// 每拍之后都会用权威判定断言至多一个领导者，违反时结果为 FAIL。
//
// 本包是 internal 包，仅供 cmd/guardctl 的 soak 子命令与自身测试使用。
package chaos
