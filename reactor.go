package rio

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/legamerdc/rio/poller"
)

// Reactor 单 goroutine 事件循环：一个监听端点加若干客户端连接，
// 就绪事件串行分发给用户回调，每连接不占用 goroutine。
// 除 Close 外的方法都只能在循环 goroutine 上（或 Start 之前）调用。

type Reactor struct {
	cfg Config
	log *zap.Logger

	pl    poller.Poller
	lfd   int
	addr  net.Addr
	conns map[int]*Client // fd -> 当前连接，与 poller 监视集合保持一致
	seq   uint64

	handlers handlerTable
	lastTick time.Time

	mu      sync.Mutex // 串行化 Start/Close 的状态迁移
	closed  atomic.Bool
	running atomic.Bool
}

// New 按选项表构造 Reactor，键见 ParseOptions。
func New(opts map[string]any) (*Reactor, error) {
	cfg, err := ParseOptions(opts)
	if err != nil {
		return nil, err
	}
	return NewWithConfig(cfg)
}

// NewWithConfig 打开监听 socket、创建 poller 并注册监听 fd。
// 任一步失败则回收已打开的资源，不会留下半初始化的实例。
func NewWithConfig(cfg Config) (*Reactor, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	lfd, addr, err := openListener(&cfg)
	if err != nil {
		return nil, fmt.Errorf("rio: open listener: %w", err)
	}
	pl, err := poller.New()
	if err != nil {
		_ = closeFD(lfd)
		return nil, fmt.Errorf("rio: create poller: %w", err)
	}
	if err := pl.Add(lfd); err != nil {
		_ = pl.Close()
		_ = closeFD(lfd)
		return nil, fmt.Errorf("rio: watch listener: %w", err)
	}
	r := &Reactor{
		cfg:      cfg,
		log:      log,
		pl:       pl,
		lfd:      lfd,
		addr:     addr,
		conns:    make(map[int]*Client),
		handlers: defaultHandlers(),
		lastTick: time.Now(),
	}
	log.Info("listening",
		zap.String("proto", cfg.Proto),
		zap.Stringer("addr", addr),
		zap.Duration("loop_timeout", cfg.LoopTimeout))
	return r, nil
}

// Addr 返回实际绑定的监听地址（localport 为 0 时是内核分配的端口）。
func (r *Reactor) Addr() net.Addr { return r.addr }

// Start 运行事件循环。正常情况下不返回；Close 之后返回 ErrClosed，
// poller 致命错误时返回该错误。回调 panic 不做恢复，直接炸掉循环。
func (r *Reactor) Start() error {
	r.mu.Lock()
	if r.closed.Load() {
		r.mu.Unlock()
		return ErrClosed
	}
	if !r.running.CompareAndSwap(false, true) {
		r.mu.Unlock()
		return errors.New("rio: Start called twice")
	}
	r.mu.Unlock()
	defer r.running.Store(false)

	for {
		if r.closed.Load() {
			r.teardown()
			return ErrClosed
		}
		// 先结账再睡觉：超时检查在 poll 之前，poll 的等待上限
		// 保证检查最多延后一个周期
		now := time.Now()
		if now.Sub(r.lastTick) > r.cfg.LoopTimeout {
			r.log.Debug("timeout", zap.Time("last", r.lastTick))
			r.handlers.timeout()
			r.lastTick = now
		}
		ready, err := r.pl.Wait(r.cfg.LoopTimeout)
		if err != nil {
			if r.closed.Load() {
				r.teardown()
				return ErrClosed
			}
			return fmt.Errorf("rio: poll: %w", err)
		}
		for _, fd := range ready {
			if fd == r.lfd {
				r.acceptAll()
				continue
			}
			c, ok := r.conns[fd]
			if !ok {
				// 同一批次里先被 Disconnect 的 fd，跳过
				continue
			}
			r.handlers.input(c)
		}
	}
}

// acceptAll 把 accept 队列取空（直到 EAGAIN）。
func (r *Reactor) acceptAll() {
	for {
		fd, addr, err := acceptFD(r.lfd)
		if err != nil {
			r.log.Warn("accept", zap.Error(err))
			return
		}
		if fd < 0 {
			return
		}
		r.seq++
		c := &Client{id: r.seq, fd: fd, addr: addr}
		if !r.handlers.connected(c) {
			// 拒绝即弃：不注册、之后也没有任何事件
			c.closed = true
			_ = closeFD(fd)
			r.log.Debug("rejected", zap.Uint64("id", c.id))
			continue
		}
		if err := r.pl.Add(fd); err != nil {
			c.closed = true
			_ = closeFD(fd)
			r.log.Error("watch client", zap.Uint64("id", c.id), zap.Error(err))
			continue
		}
		r.conns[fd] = c
		r.log.Debug("connected", zap.Uint64("id", c.id), zap.Any("addr", addr))
	}
}

// Disconnect 触发 disconnected 回调，把连接移出监视集合并关闭 fd。
// 这是唯一的断开路径，每条连接只允许一次；再次调用（包括在它自己的
// disconnected 回调里）返回 ErrNotConnected。
func (r *Reactor) Disconnect(c *Client) error {
	if c == nil {
		return ErrNotConnected
	}
	cur, ok := r.conns[c.fd]
	if !ok || cur != c {
		return ErrNotConnected
	}
	delete(r.conns, c.fd)
	c.closed = true
	r.handlers.disconnected(c)
	if err := r.pl.Remove(c.fd); err != nil {
		r.log.Warn("unwatch client", zap.Uint64("id", c.id), zap.Error(err))
	}
	err := closeFD(c.fd)
	r.log.Debug("disconnected", zap.Uint64("id", c.id))
	return err
}

// Close 关闭监听 fd 与全部连接，不触发任何回调。循环在运行时由
// 唤醒后的循环完成回收并从 Start 返回 ErrClosed，否则就地回收。
// 重复 Close 返回 ErrClosed。
func (r *Reactor) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	if r.running.Load() {
		return r.pl.Wake()
	}
	r.teardown()
	return nil
}

// teardown 批量回收，不触发回调。只会执行一次：要么在循环里，
// 要么在 Close 里（循环未运行时）。
func (r *Reactor) teardown() {
	for fd, c := range r.conns {
		c.closed = true
		_ = closeFD(fd)
		delete(r.conns, fd)
	}
	_ = closeFD(r.lfd)
	_ = r.pl.Close()
	r.log.Info("closed")
}
