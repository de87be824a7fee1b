package xgate

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Params 熔断判定参数，构造后不可变。
type Params struct {
	// MaxErrRate 窗口错误率阈值（比例）。严格大于该值才触发熔断，
	// 因此 1.0 表示永不熔断，0.0 表示任一错误即熔断。
	MaxErrRate float64
	// WindowSec 滑动窗口跨度（秒）。
	WindowSec int
	// MinClosedSec 封闸最短时长（秒）：TRIPPED 后至少经过该时长才允许
	// 进入 HALF_OPEN 探测。
	MinClosedSec int
	// HalfOpenProbe 半开态放行的探测数：连续该数量的成功才重新敞开。
	HalfOpenProbe int
}

// DefaultParams 返回推荐默认参数。
func DefaultParams() Params {
	return Params{
		MaxErrRate:    0.15,
		WindowSec:     300,
		MinClosedSec:  180,
		HalfOpenProbe: 5,
	}
}

// normalize 将越界参数钳位到有效值；构造永不失败。
func (p Params) normalize() Params {
	if p.MaxErrRate < 0 {
		p.MaxErrRate = 0
	}
	if p.MaxErrRate > 1 {
		p.MaxErrRate = 1
	}
	if p.WindowSec <= 0 {
		p.WindowSec = 300
	}
	if p.MinClosedSec < 0 {
		p.MinClosedSec = 0
	}
	if p.HalfOpenProbe < 0 {
		p.HalfOpenProbe = 0
	}
	return p
}

// Snapshot 是闸门的一致性读取结果。
type Snapshot struct {
	// State 当前状态。
	State State
	// ErrRate 当前窗口错误率。
	ErrRate float64
	// WindowLen 当前窗口内的桶数。
	WindowLen int
	// LastTransitionTS 最近一次状态迁移的时刻（整秒）。
	LastTransitionTS int64
}

// 默认反洪泛参数。
const (
	defaultMaxBinCap         = 10000
	defaultLogLinesPerSecond = 10
)

// Gate 是单个受保护资源的熔断闸门。
//
// 每次状态迁移输出一行固定字段序的 ASCII 日志（行内无资源名，多闸门
// 共用 writer 时建议按闸门配置独立 writer）：
//
//	event=circuit_transition state_from=<X> state_to=<Y> err_rate=<%.6f> window_len=<int> now=<int> reason=<str>
//
// 日志输出受每秒行数预算限制，预算在秒翻转时重置；迁移本身不受限，
// 仅日志行可能被丢弃。
type Gate struct {
	name   string
	params Params

	// guard 是统一的临界区获取抽象：线程安全模式下是真实互斥锁，
	// 否则是空实现。Record/State/Snapshot 共享同一把锁。
	guard sync.Locker

	nowFn func() time.Time
	win   *window

	state             State
	trippedAt         float64
	halfOpenRemaining int
	lastTransitionTS  float64

	floodCoalesced uint64

	logW           io.Writer
	maxLogPerSec   int
	lastLogSec     int64
	secLogBudget   int

	// 旧式逐项回调与统一事件回调相互独立，可同时配置。
	stateGauge      func(int)
	errRateGauge    func(float64)
	transitionCount func(from, to string)
	metricsFn       func(event string, fields map[string]any)

	// 构造期选项暂存
	threadSafe       bool
	maxBins          int
	eventsPerSecHint int
}

// New 创建熔断闸门。name 用于调用方标识，不参与日志行格式。
// 构造永不失败：越界参数被钳位，缺省项取推荐值。
// 构造完成时即发布一次初始状态/错误率 gauge。
func New(name string, params Params, opts ...Option) *Gate {
	g := &Gate{
		name:             name,
		params:           params.normalize(),
		state:            StateOpen,
		nowFn:            time.Now,
		logW:             os.Stdout,
		maxLogPerSec:     defaultLogLinesPerSecond,
		eventsPerSecHint: 1,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(g)
	}

	if g.threadSafe {
		g.guard = &sync.Mutex{}
	} else {
		g.guard = nopLocker{}
	}
	g.secLogBudget = g.maxLogPerSec
	g.lastLogSec = -1

	maxBins := g.maxBins
	if maxBins <= 0 {
		calc := g.params.WindowSec * g.eventsPerSecHint
		maxBins = calc
		if maxBins > defaultMaxBinCap {
			maxBins = defaultMaxBinCap
		}
		if maxBins < 1 {
			maxBins = 1
		}
	}
	g.win = newWindow(maxBins)

	g.applyMetrics(g.nowSeconds())
	return g
}

// Name 返回闸门的资源标识。
func (g *Gate) Name() string {
	return g.name
}

// Params 返回构造时的判定参数（已钳位）。
func (g *Gate) Params() Params {
	return g.params
}

// State 返回当前状态。
func (g *Gate) State() State {
	g.guard.Lock()
	defer g.guard.Unlock()
	return g.state
}

// StateName 返回当前状态的稳定名称。
func (g *Gate) StateName() string {
	return g.State().String()
}

// Snapshot 在与 Record 相同的临界区内读取状态、窗口错误率、桶数与
// 最近迁移时刻。
func (g *Gate) Snapshot() Snapshot {
	g.guard.Lock()
	defer g.guard.Unlock()
	now := g.nowSeconds()
	return Snapshot{
		State:            g.state,
		ErrRate:          g.errRate(now),
		WindowLen:        g.win.len(),
		LastTransitionTS: int64(g.lastTransitionTS),
	}
}

// Record 记录一次调用结果并返回记录后的状态。
//
// 结果并入当前秒的桶（同秒合并，超出首个的事件递增洪泛计数）；随后
// 裁剪窗口、发布 gauge、重算含本次结果的错误率、评估迁移表。所有
// 时间驱动的迁移都只在这里发生，没有后台定时器。
func (g *Gate) Record(isError bool) State {
	g.guard.Lock()
	defer g.guard.Unlock()

	now := g.nowSeconds()
	sec := int64(now)

	if coalesced := g.win.add(sec, isError); coalesced {
		g.floodCoalesced++
		g.emitEvent("flood_coalesced_total", map[string]any{"add": 1})
	}
	g.win.prune(sec - int64(g.params.WindowSec))

	g.applyMetrics(now)
	if b, ok := g.win.last(); ok {
		g.emitEvent("per_sec_event_rate", map[string]any{"value": b.ok + b.err})
	}

	rate := g.errRate(now)

	switch g.state {
	case StateOpen:
		if rate > g.params.MaxErrRate {
			g.trippedAt = now
			g.halfOpenRemaining = 0
			g.transition(StateTripped, "trip", rate)
		}
	case StateTripped:
		if now-g.trippedAt >= float64(g.params.MinClosedSec) {
			// 触发探测的这次结果被迁移本身消耗，不作为探测处理
			g.halfOpenRemaining = g.params.HalfOpenProbe
			g.transition(StateHalfOpen, "probe_start", rate)
		}
	case StateHalfOpen:
		if isError {
			g.trippedAt = now
			g.halfOpenRemaining = 0
			g.transition(StateTripped, "probe_fail", rate)
		} else {
			if g.halfOpenRemaining > 0 {
				g.halfOpenRemaining--
			}
			if g.halfOpenRemaining <= 0 {
				g.transition(StateOpen, "probe_success", rate)
			}
		}
	}
	return g.state
}

// OnOK 记录一次成功，等价于 Record(false)。
func (g *Gate) OnOK() State {
	return g.Record(false)
}

// OnError 记录一次失败，等价于 Record(true)。
func (g *Gate) OnError() State {
	return g.Record(true)
}

// FloodCoalesced 返回累计的同秒合并事件数（诊断用）。
func (g *Gate) FloodCoalesced() uint64 {
	g.guard.Lock()
	defer g.guard.Unlock()
	return g.floodCoalesced
}

// nowSeconds 返回注入时钟的浮点秒。
func (g *Gate) nowSeconds() float64 {
	t := g.nowFn()
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

// errRate 裁剪窗口后返回当前错误率。
func (g *Gate) errRate(now float64) float64 {
	g.win.prune(int64(now) - int64(g.params.WindowSec))
	return g.win.rate()
}

// transition 执行状态迁移。迁移到相同状态是幂等空操作：不重复输出
// 日志，也不重复上报迁移计数。
func (g *Gate) transition(to State, reason string, rate float64) {
	if to == g.state {
		return
	}
	from := g.state
	g.state = to
	g.lastTransitionTS = g.nowSeconds()
	g.emitTransition(from, to, rate, reason)
	g.applyMetrics(g.lastTransitionTS)
}

// emitTransition 输出迁移日志行并上报迁移计数。
// 日志受每秒行数预算限制；回调失败被吞掉。
func (g *Gate) emitTransition(from, to State, rate float64, reason string) {
	now := int64(g.nowSeconds())
	line := formatTransitionLine(from, to, rate, g.win.len(), now, reason)

	if g.lastLogSec != now {
		g.lastLogSec = now
		g.secLogBudget = g.maxLogPerSec
	}
	if g.secLogBudget > 0 {
		_, _ = fmt.Fprintln(g.logW, line)
		g.secLogBudget--
	}

	if g.transitionCount != nil {
		safeCall(func() { g.transitionCount(from.String(), to.String()) })
	}
	g.emitEvent("transitions_total", map[string]any{"from": from.String(), "to": to.String()})
}

// formatTransitionLine 生成固定字段序的迁移日志行。字段顺序与格式是
// 对外稳定契约，供日志采集侧按前缀匹配解析。
func formatTransitionLine(from, to State, rate float64, windowLen int, now int64, reason string) string {
	return fmt.Sprintf(
		"event=circuit_transition state_from=%s state_to=%s err_rate=%.6f window_len=%d now=%d reason=%s",
		from, to, rate, windowLen, now, reason,
	)
}

// applyMetrics 发布状态与错误率 gauge。
// Record 在迁移评估前发布一次，迁移完成后再发布一次，因此一次迁移内
// gauge 先后反映旧态与新态。
func (g *Gate) applyMetrics(now float64) {
	if g.stateGauge != nil {
		safeCall(func() { g.stateGauge(g.state.Code()) })
	}
	rate := g.errRate(now)
	if g.errRateGauge != nil {
		safeCall(func() { g.errRateGauge(rate) })
	}
	g.emitEvent("circuit_state", map[string]any{"value": g.state.Code()})
	g.emitEvent("err_rate_window", map[string]any{"value": rate})
}

// emitEvent 通过统一回调上报一个事件；回调未配置时为空操作。
func (g *Gate) emitEvent(event string, fields map[string]any) {
	if g.metricsFn == nil {
		return
	}
	safeCall(func() { g.metricsFn(event, fields) })
}

// safeCall 在调用点吞掉回调抛出的 panic：观测侧故障不得影响主流程。
func safeCall(fn func()) {
	defer func() {
		_ = recover()
	}()
	fn()
}

// nopLocker 是空的临界区实现，用于默认的单协程协作模式。
type nopLocker struct{}

func (nopLocker) Lock()   {}
func (nopLocker) Unlock() {}
