package xgate

import (
	"strconv"
	"strings"
)

// State 表示闸门的离散状态。
//
// 整数码是对外稳定契约，用于 gauge 导出与看板告警，不得改动：
// OPEN=0 放行，TRIPPED=1 阻断，HALF_OPEN=2 探测。
type State int

const (
	// StateOpen 闸门敞开，流量放行（正常态）。
	StateOpen State = 0
	// StateTripped 闸门落下，流量阻断。
	StateTripped State = 1
	// StateHalfOpen 闸门半开，放入有限探测流量。
	StateHalfOpen State = 2
)

// 状态名称是日志与指标标签的稳定契约，与整数码同源。
const (
	nameOpen     = "OPEN"
	nameTripped  = "TRIPPED"
	nameHalfOpen = "HALF_OPEN"
)

// String 返回状态的稳定名称。
func (s State) String() string {
	switch s {
	case StateOpen:
		return nameOpen
	case StateTripped:
		return nameTripped
	case StateHalfOpen:
		return nameHalfOpen
	default:
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
}

// Code 返回状态的稳定整数码，用于 gauge 导出。
func (s State) Code() int {
	return int(s)
}

// ParseState 将状态名称解析为 State。
// 输入先去除首尾空白并转为大写；未知名称返回 StateOpen。
//
// 设计决策: 未知名称不报错而是回落到 StateOpen，沿袭既有调用方依赖的
// 宽松解析行为（脏数据恢复场景宁可回到放行态）。
func ParseState(name string) State {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case nameOpen:
		return StateOpen
	case nameTripped:
		return StateTripped
	case nameHalfOpen:
		return StateHalfOpen
	default:
		return StateOpen
	}
}
