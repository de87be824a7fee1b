package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	retry "github.com/avast/retry-go/v5"
	"github.com/omeyang/guardkit/internal/chaos"
	"github.com/omeyang/guardkit/pkg/config/xconf"
	"github.com/omeyang/guardkit/pkg/lifecycle/xrun"
	"github.com/omeyang/guardkit/pkg/observability/xlog"
	"github.com/omeyang/guardkit/pkg/observability/xrotate"
	"github.com/omeyang/guardkit/pkg/resilience/xgate"
	"github.com/omeyang/guardkit/pkg/storage/xkv"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"
)

// exitError 携带命令自行决定的退出码。
// 输出在命令内部已经完成，run 只负责透传这个码。
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// usageError 表示调用方参数错误，main 统一映射为退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

// isCLIUsageError 判定 urfave/cli 框架产生的参数解析错误（未知命令、
// 未知 flag 等）。框架返回的是普通 error，无类型可断言，按消息特征识别。
func isCLIUsageError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.HasPrefix(msg, "flag provided but not defined") ||
		strings.HasPrefix(msg, "No help topic for") ||
		strings.Contains(msg, "flag needs an argument")
}

// 创建所有子命令。
func createCommands() []*cli.Command {
	return []*cli.Command{
		createSoakCommand(),
		createGateCommand(),
		createLeaseCommand(),
	}
}

// ----------------------------------------------------------------------------
// soak
// ----------------------------------------------------------------------------

// 浸泡场景默认参数，与内置脚本的标定时间轴一致。
const (
	defaultSoakTTLMs   = 3000
	defaultSoakRenewMs = 1500
)

// createSoakCommand 创建 soak 子命令（进程内主备切换浸泡场景）。
func createSoakCommand() *cli.Command {
	return &cli.Command{
		Name:  "soak",
		Usage: "进程内重放确定性主备切换浸泡场景",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:  "ttl-ms",
				Usage: "初次获取的租约时长（毫秒）",
				Value: defaultSoakTTLMs,
			},
			&cli.Int64Flag{
				Name:  "renew-ms",
				Usage: "续期节奏（毫秒）",
				Value: defaultSoakRenewMs,
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "租约与协调器日志写入的轮转文件路径（默认丢弃）",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cmdSoak(ctx, cmd.Int64("ttl-ms"), cmd.Int64("renew-ms"), cmd.String("log-file"))
		},
	}
}

// cmdSoak 运行浸泡场景。CHAOS 行协议写到标准输出，
// 场景结果 FAIL 时通过 exitError 返回退出码 1。
func cmdSoak(ctx context.Context, ttlMs, renewMs int64, logFile string) error {
	if ttlMs <= 0 {
		return &usageError{msg: fmt.Sprintf("--ttl-ms 必须为正数，当前值: %d", ttlMs)}
	}
	if renewMs <= 0 {
		return &usageError{msg: fmt.Sprintf("--renew-ms 必须为正数，当前值: %d", renewMs)}
	}

	opts := []chaos.Option{
		chaos.WithTTL(time.Duration(ttlMs) * time.Millisecond),
		chaos.WithRenewInterval(time.Duration(renewMs) * time.Millisecond),
	}
	runOpts := []xrun.Option{xrun.WithName("soak")}

	if logFile != "" {
		// 浸泡日志量有限，64MB 上限加 3 份备份足够回溯
		slogger, logCleanup, err := xlog.New().
			SetRotation(logFile,
				xrotate.WithMaxSize(64),
				xrotate.WithMaxBackups(3),
				xrotate.WithCompress(false),
			).
			BuildSlog()
		if err != nil {
			return fmt.Errorf("打开日志文件失败: %w", err)
		}
		defer func() { _ = logCleanup() }()
		opts = append(opts, chaos.WithLogger(slogger))
		runOpts = append(runOpts, xrun.WithLogger(slogger))
	}

	// xrun 的信号服务在 ctx 取消前不会退出；场景是有限任务，
	// 完成后取消 ctx 让信号服务收队，Wait 才能返回。
	runCtx, done := context.WithCancel(ctx)
	defer done()

	var sum chaos.Summary
	err := xrun.RunWithOptions(runCtx, runOpts, func(svcCtx context.Context) error {
		defer done()
		s, runErr := chaos.Run(svcCtx, os.Stdout, opts...)
		if runErr != nil {
			return runErr
		}
		sum = s
		return nil
	})
	if err != nil {
		return err
	}

	if !sum.OK {
		// 失败详情已由 CHAOS 行协议输出，此处仅设置退出码。
		return &exitError{code: 1}
	}
	return nil
}

// ----------------------------------------------------------------------------
// gate replay
// ----------------------------------------------------------------------------

// createGateCommand 创建 gate 子命令组。
func createGateCommand() *cli.Command {
	return &cli.Command{
		Name:  "gate",
		Usage: "熔断闸门诊断命令",
		Commands: []*cli.Command{
			createGateReplayCommand(),
		},
	}
}

// createGateReplayCommand 创建 gate replay 子命令（按结果脚本回放闸门）。
func createGateReplayCommand() *cli.Command {
	return &cli.Command{
		Name:  "replay",
		Usage: "按结果脚本回放熔断闸门并打印状态迁移",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "闸门配置文件（YAML/JSON）",
			},
			&cli.StringFlag{
				Name:    "input",
				Aliases: []string{"i"},
				Usage:   "结果脚本路径，省略时读取标准输入",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cmdGateReplay(ctx, cmd.String("config"), cmd.String("input"))
		},
	}
}

// replayClock 由脚本偏移驱动的虚拟时钟。
// 基准取 Unix 纪元，迁移日志中的 now 字段因此直接等于脚本偏移（取整秒）。
type replayClock struct {
	offset time.Duration
}

func (c *replayClock) now() time.Time {
	return time.Unix(0, 0).Add(c.offset)
}

// cmdGateReplay 从配置构建闸门，逐行回放结果脚本。
// 脚本每行 "<秒偏移> <ok|err>"，空行与 # 开头的行跳过。
// 迁移日志随回放写到标准输出，结束后打印最终快照。
func cmdGateReplay(ctx context.Context, configPath, inputPath string) error {
	if configPath == "" {
		return &usageError{msg: "gate replay 需要 --config 指定闸门配置文件"}
	}

	gate, clock, err := buildGateFromConfig(configPath)
	if err != nil {
		return err
	}

	in := io.Reader(os.Stdin)
	if inputPath != "" {
		f, openErr := os.Open(inputPath)
		if openErr != nil {
			return fmt.Errorf("打开结果脚本失败: %w", openErr)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	total, err := replayOutcomes(ctx, gate, clock, in)
	if err != nil {
		return err
	}

	snap := gate.Snapshot()
	fmt.Printf("闸门: %s\n", gate.Name())
	fmt.Printf("状态: %s\n", snap.State)
	fmt.Printf("错误率: %.6f\n", snap.ErrRate)
	fmt.Printf("窗口桶数: %d\n", snap.WindowLen)
	fmt.Printf("最近迁移时刻: %d\n", snap.LastTransitionTS)
	fmt.Printf("事件数: %d（同秒合并 %d）\n", total, gate.FloodCoalesced())
	return nil
}

// buildGateFromConfig 加载配置并构建闸门与配套的回放时钟。
// 配置中省略的字段保持 xconf 默认值，越界值按 Normalize 规则钳位。
func buildGateFromConfig(configPath string) (*xgate.Gate, *replayClock, error) {
	cfg, err := xconf.New(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("加载配置失败: %w", err)
	}

	s := xconf.DefaultSettings()
	if err := cfg.Unmarshal("", &s); err != nil {
		return nil, nil, fmt.Errorf("解析配置失败: %w", err)
	}
	s.Normalize()

	name := s.Gate.Name
	if name == "" {
		name = "replay"
	}

	clock := &replayClock{}
	opts := []xgate.Option{
		xgate.WithNowFunc(clock.now),
		xgate.WithLogWriter(os.Stdout),
		xgate.WithLogBudget(s.Gate.LogBudget),
		xgate.WithMaxBins(s.Gate.MaxBins),
		xgate.WithEventsPerSecHint(s.Gate.EventsPerSecHint),
	}
	if s.Gate.ThreadSafe {
		opts = append(opts, xgate.WithThreadSafe())
	}

	gate := xgate.New(name, xgate.Params{
		MaxErrRate:    s.Gate.MaxErrRate,
		WindowSec:     s.Gate.WindowSec,
		MinClosedSec:  s.Gate.MinClosedSec,
		HalfOpenProbe: s.Gate.HalfOpenProbe,
	}, opts...)
	return gate, clock, nil
}

// replayOutcomes 逐行回放结果脚本，返回生效的事件数。
func replayOutcomes(ctx context.Context, gate *xgate.Gate, clock *replayClock, in io.Reader) (int, error) {
	scanner := bufio.NewScanner(in)
	total := 0
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return total, err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			return total, fmt.Errorf("第 %d 行格式错误（应为 \"<秒偏移> <ok|err>\"）: %q", lineNo, line)
		}

		offsetSec, err := strconv.ParseFloat(fields[0], 64)
		if err != nil || offsetSec < 0 {
			return total, fmt.Errorf("第 %d 行秒偏移无效: %q", lineNo, fields[0])
		}
		clock.offset = time.Duration(offsetSec * float64(time.Second))

		switch fields[1] {
		case "ok":
			gate.OnOK()
		case "err":
			gate.OnError()
		default:
			return total, fmt.Errorf("第 %d 行结果无效（应为 ok 或 err）: %q", lineNo, fields[1])
		}
		total++
	}
	if err := scanner.Err(); err != nil {
		return total, fmt.Errorf("读取结果脚本失败: %w", err)
	}
	return total, nil
}

// ----------------------------------------------------------------------------
// lease status
// ----------------------------------------------------------------------------

// Redis 首次连通性检查的重试参数。
const (
	connectAttempts  = 3
	connectBaseDelay = 200 * time.Millisecond
	connectMaxDelay  = 2 * time.Second
)

// createLeaseCommand 创建 lease 子命令组。
func createLeaseCommand() *cli.Command {
	return &cli.Command{
		Name:  "lease",
		Usage: "分布式租约锁诊断命令",
		Commands: []*cli.Command{
			createLeaseStatusCommand(),
		},
	}
}

// createLeaseStatusCommand 创建 lease status 子命令（查看锁持有者）。
func createLeaseStatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "查看租约锁的当前持有者",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "redis",
				Usage: "Redis 地址（host:port）",
			},
			&cli.StringFlag{
				Name:  "key",
				Usage: "锁键",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "单次 Redis 操作超时",
				Value: 3 * time.Second,
			},
			&cli.BoolFlag{
				Name:    "watch",
				Aliases: []string{"w"},
				Usage:   "周期刷新输出，Ctrl+C 退出",
			},
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "刷新间隔（仅 --watch 时生效）",
				Value: 2 * time.Second,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cmdLeaseStatus(ctx,
				cmd.String("redis"), cmd.String("key"),
				cmd.Duration("timeout"),
				cmd.Bool("watch"), cmd.Duration("interval"))
		},
	}
}

// cmdLeaseStatus 查询租约锁的当前持有者。
// 键不存在（无人持有）打印 <none>，属正常结果而非错误。
func cmdLeaseStatus(ctx context.Context, addr, key string, timeout time.Duration, watch bool, interval time.Duration) error {
	if addr == "" {
		return &usageError{msg: "lease status 需要 --redis 指定 Redis 地址"}
	}
	if key == "" {
		return &usageError{msg: "lease status 需要 --key 指定锁键"}
	}
	if timeout <= 0 {
		return &usageError{msg: fmt.Sprintf("--timeout 必须为正数，当前值: %v", timeout)}
	}
	if watch && interval <= 0 {
		return &usageError{msg: fmt.Sprintf("--interval 必须为正数，当前值: %v", interval)}
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	defer func() { _ = client.Close() }()

	// 首次连通性检查带指数退避重试，吸收 Redis 瞬时不可达。
	err := retry.New(
		retry.Context(ctx),
		retry.Attempts(connectAttempts),
		retry.Delay(connectBaseDelay),
		retry.MaxDelay(connectMaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	).Do(func() error {
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return client.Ping(pingCtx).Err()
	})
	if err != nil {
		return fmt.Errorf("连接 Redis 失败（地址: %s）: %w", addr, err)
	}

	store, err := xkv.NewRedis(client)
	if err != nil {
		return err
	}

	fmt.Printf("锁键: %s\n", key)
	if !watch {
		return printLeaseHolder(ctx, store, key, timeout)
	}

	// 周期刷新由 xrun 管理：Ticker 负责节奏，信号服务负责取消。
	err = xrun.Run(ctx, xrun.Ticker(interval, true, func(tickCtx context.Context) error {
		return printLeaseHolder(tickCtx, store, key, timeout)
	}))
	if errors.Is(err, xrun.ErrSignal) {
		// Ctrl+C 是 watch 模式的正常退出方式
		return nil
	}
	return err
}

// printLeaseHolder 打印一次持有者状态。
func printLeaseHolder(ctx context.Context, store *xkv.Redis, key string, timeout time.Duration) error {
	getCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	holder, err := store.Get(getCtx, key)
	switch {
	case err == nil:
		fmt.Printf("持有者: %s\n", holder)
	case errors.Is(err, xkv.ErrKeyNotFound):
		fmt.Println("持有者: <none>")
	default:
		return fmt.Errorf("读取锁键失败: %w", err)
	}
	return nil
}
