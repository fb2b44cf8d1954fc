package poller

import (
	"errors"
	"time"
)

// FD 表示文件描述符。
type FD = int

var (
	// ErrAlreadyWatched 重复加入同一 fd，属用法错误
	ErrAlreadyWatched = errors.New("poller: fd already watched")

	// ErrNotWatched 摘除未被监视的 fd，属用法错误
	ErrNotWatched = errors.New("poller: fd not watched")

	// ErrClosed poller 已关闭
	ErrClosed = errors.New("poller: closed")
)

// Poller 维护被监视的 fd 集合，阻塞等待读就绪（水平触发）。
// Add/Remove 对不在预期状态的 fd 返回用法错误，不做静默忽略。
// Wait 按内核给出的顺序返回就绪 fd（跨 fd 无顺序保证），超时、
// 被 Wake 唤醒或 EINTR 时返回空切片；返回的切片仅在下一次 Wait
// 前有效。timeout < 0 表示无限等待。

type Poller interface {
	Add(fd FD) error
	Remove(fd FD) error
	Wait(timeout time.Duration) ([]FD, error)
	Wake() error
	Close() error
}
