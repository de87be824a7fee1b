package xconf

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchCallback 配置变更回调。
// 每次重载尝试后调用一次，err 表示该次重载是否成功；
// 失败时旧配置仍然生效。
type WatchCallback func(cfg Config, err error)

// Watcher 配置文件监视器。
// 监控文件变更，防抖后自动 Reload 并通知回调。
// 典型用途是闸门阈值的热调整：运维改配置文件，运行中的闸门换参数。
type Watcher struct {
	cfg      *koanfConfig
	watcher  *fsnotify.Watcher
	callback WatchCallback
	debounce time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	running bool
	stopped bool        // Stop 后置位，保证资源只释放一次
	timer   *time.Timer // 防抖定时器，Stop 时取消
}

// WatchOption 监视器选项。
type WatchOption func(*watchOptions)

// watchOptions 仅承载防抖窗口，保持 Watch 的参数面最小。
type watchOptions struct {
	debounce time.Duration
}

func defaultWatchOptions() *watchOptions {
	return &watchOptions{debounce: 100 * time.Millisecond}
}

// WithDebounce 设置防抖窗口。
// 窗口内的多次文件事件只触发一次重载，默认 100ms。
// 非正值在 Watch 处返回 [ErrInvalidDebounce]。
func WithDebounce(d time.Duration) WatchOption {
	return func(o *watchOptions) {
		o.debounce = d
	}
}

// Watch 创建配置文件监视器。
//
// 仅支持从文件创建的 Config（New 的返回值），字节来源的返回
// [ErrNotFromFile]。返回的 Watcher 需调用 Start（阻塞）或
// StartAsync（后台）开始监视，Stop 停止并释放资源。
//
// 示例：
//
//	cfg, _ := xconf.New("/etc/guardkit/guard.yaml")
//	w, err := xconf.Watch(cfg, func(c xconf.Config, err error) {
//	    if err != nil {
//	        logger.Warn(ctx, "配置重载失败", slog.String("err", err.Error()))
//	        return
//	    }
//	    applyGateSettings(c)
//	})
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//	w.StartAsync()
func Watch(cfg Config, callback WatchCallback, opts ...WatchOption) (*Watcher, error) {
	kc, ok := cfg.(*koanfConfig)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported config type %T", ErrWatchFailed, cfg)
	}

	if kc.isBytes {
		return nil, fmt.Errorf("%w: created from bytes", ErrNotFromFile)
	}

	if kc.path == "" {
		return nil, ErrEmptyPath
	}

	if callback == nil {
		return nil, ErrNilCallback
	}

	options := defaultWatchOptions()
	for _, opt := range opts {
		opt(options)
	}
	if options.debounce <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDebounce, options.debounce)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWatchFailed, err)
	}

	// 监视所在目录而非文件本身：编辑器原子保存（写临时文件再 rename）
	// 会让针对单文件的 watch 丢事件
	dir := filepath.Dir(kc.path)
	if err := fsWatcher.Add(dir); err != nil {
		addErr := fmt.Errorf("%w: directory %s: %w", ErrWatchFailed, dir, err)
		return nil, errors.Join(addErr, fsWatcher.Close())
	}

	w := &Watcher{
		cfg:      kc,
		watcher:  fsWatcher,
		callback: callback,
		debounce: options.debounce,
	}
	w.ctx, w.cancel = context.WithCancel(context.Background())
	return w, nil
}

// begin 置位 running，返回是否应当进入主循环。
// 已在运行或已 Stop 的监视器返回 false。
func (w *Watcher) begin() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running || w.stopped {
		return false
	}
	w.running = true
	return true
}

// Start 启动监视，阻塞直到 Stop。
func (w *Watcher) Start() {
	if w.begin() {
		w.run()
	}
}

// StartAsync 后台启动监视，立即返回。
// running 标志在 goroutine 启动前置位，避免与 Stop 竞态。
func (w *Watcher) StartAsync() {
	if w.begin() {
		go w.run()
	}
}

// Stop 停止监视并释放 fsnotify 资源，幂等。
// 未启动过的 Watcher 也需要 Stop，否则 fsnotify 句柄泄漏。
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	w.running = false
	w.cancel()

	// 取消防抖定时器，Stop 之后不得再触发回调
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	return w.watcher.Close()
}

// run 监视主循环，事件与错误都从这里分发。
func (w *Watcher) run() {
	target := filepath.Base(w.cfg.path)
	for {
		select {
		case <-w.ctx.Done():
			return

		case err, ok := <-w.watcher.Errors:
			if ok {
				w.handleError(err)
				continue
			}
			return

		case event, ok := <-w.watcher.Events:
			if ok {
				// 目录级监视会收到同目录其他文件的事件，按文件名过滤
				if filepath.Base(event.Name) == target && mayModify(event) {
					w.scheduleReload()
				}
				continue
			}
			return
		}
	}
}

// mayModify 判断事件是否可能改变文件内容。
// Write 直接修改；Create 新建（部分编辑器先删后建）；
// Rename 对应原子保存（vim/emacs 写临时文件后 rename）。
func mayModify(event fsnotify.Event) bool {
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

// scheduleReload 防抖调度一次重载：窗口内的新事件重置计时器，
// 静默满 debounce 才真正执行。
func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Stop 之后不再重新挂定时器
	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}

	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case <-w.ctx.Done():
			return
		default:
			w.safeCallback(w.cfg.Reload())
		}
	})
}

// handleError 把 fsnotify 自身的错误包一层转给回调，不携带配置变更。
func (w *Watcher) handleError(err error) {
	w.safeCallback(fmt.Errorf("xconf: watch error: %w", err))
}

// safeCallback 执行回调并隔离 panic。
// 回调跑在后台 goroutine（防抖定时器/监视循环），
// 未恢复的 panic 会直接崩溃进程。
func (w *Watcher) safeCallback(err error) {
	if w.callback == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	w.callback(w.cfg, err)
}

// WatchConfig 带监视能力的配置接口。
type WatchConfig interface {
	Config

	// Watch 监视配置文件变更，变更后自动重载并通知回调。
	Watch(callback WatchCallback, opts ...WatchOption) (*Watcher, error)
}

// koanfConfig 实现 WatchConfig。
func (c *koanfConfig) Watch(callback WatchCallback, opts ...WatchOption) (*Watcher, error) {
	return Watch(c, callback, opts...)
}
