// guardctl 是 guardkit 弹性原语的诊断与演练命令行工具。
//
// 用法:
//
//	guardctl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-t, --timeout  单次存储操作的超时时间 (默认: 5s)
//
// 命令:
//
//	soak           进程内重放确定性主备切换浸泡场景
//	gate replay    按结果脚本回放熔断闸门并打印状态迁移
//	lease status   查看分布式租约锁的当前持有者
//	help           显示帮助信息
//
// soak 命令说明:
//
//	在单进程内以手动时钟驱动两个竞争同一租约锁的节点，输出逐拍的
//	CHAOS 行协议与汇总行。场景确定性执行，不访问外部存储，
//	可直接用于 CI 门禁。CHAOS_RESULT=OK 且退出码 0 表示
//	每一拍都至多一个持有者。
//
// 退出码:
//
//	0: 命令执行成功（soak 命令: 场景结果 OK）
//	1: 命令执行失败或场景结果 FAIL（soak 命令）
//	2: 参数错误（缺少必需参数、未知命令等）
//
// 示例:
//
//	guardctl soak                                    # 默认参数运行浸泡场景
//	guardctl soak --ttl-ms 2000 --renew-ms 1000      # 缩短租约加速接管
//	guardctl soak --log-file /var/log/guardkit/soak.log
//	guardctl gate replay --config gate.yaml          # 从标准输入读结果脚本
//	guardctl gate replay --config gate.yaml --input outcomes.txt
//	guardctl lease status --redis localhost:6379 --key locks/reporter
//	guardctl lease status --redis localhost:6379 --key locks/reporter --watch
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"
)

// defaultTimeout 默认的单次存储操作超时时间。
const defaultTimeout = 5 * time.Second

// 版本信息，构建时用 -ldflags 注入:
//
//	go build -ldflags "-X main.Version=1.2.0 -X main.GitCommit=$(git rev-parse --short HEAD)"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() { os.Exit(run()) }

func run() int {
	// 长阻塞命令（soak、lease status --watch）由 xrun 管理信号取消，
	// 此层不再另装信号处理。
	if err := createApp().Run(context.Background(), os.Args); err != nil {
		return exitCode(err)
	}
	return 0
}

// exitCode 把错误映射到文档约定的退出码：exitError 按其自带码，
// 参数类错误一律 2，其余业务失败 1。
func exitCode(err error) int {
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}

	var usageErr *usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(os.Stderr, "参数错误: %v\n", usageErr)
		return 2
	}

	// flag 解析错误与未知命令：详情已由框架或 ExitErrHandler 打到 stderr
	if isCLIUsageError(err) {
		return 2
	}

	fmt.Fprintf(os.Stderr, "错误: %v\n", err)
	return 1
}

// createApp 创建 CLI 应用。
func createApp() *cli.Command {
	return &cli.Command{
		Name:    "guardctl",
		Usage:   "guardkit 弹性原语命令行工具",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:    "timeout",
				Aliases: []string{"t"},
				Usage:   "单次存储操作的超时时间",
				Value:   defaultTimeout,
			},
		},
		DefaultCommand: "help",
		Commands:       createCommands(),
		Authors: []any{
			"GuardKit Team",
		},
		// 设计决策: 不让 urfave/cli 自行 os.Exit，退出码统一由 run()
		// 映射，文档的 0/1/2 契约才有单一出口。
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			// 默认的 HandleExitCoder 会直接退出进程，这里只把
			// ExitCoder 错误（如未知命令）的消息打到 stderr。
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(os.Stderr, err)
			}
		},
		Description: `guardctl 是 guardkit 弹性原语的诊断与演练工具，覆盖熔断闸门、
分布式租约锁与主备切换协调器三类组件。

主要命令:
  soak                进程内重放确定性主备切换浸泡场景
    --ttl-ms          初次获取的租约时长（毫秒，默认 3000）
    --renew-ms        续期节奏（毫秒，默认 1500）
    --log-file        租约与协调器日志写入的轮转文件（默认丢弃）

  gate replay         按结果脚本回放熔断闸门
    --config, -c      闸门配置文件（YAML/JSON，必填）
    --input, -i       结果脚本路径（默认标准输入），每行 "<秒偏移> <ok|err>"

  lease status        查看租约锁的当前持有者
    --redis           Redis 地址（host:port，必填）
    --key             锁键（必填）
    --watch, -w       周期刷新输出，Ctrl+C 退出
    --interval        刷新间隔（默认 2s，仅 --watch 时生效）`,
	}
}
