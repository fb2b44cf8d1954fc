//go:build linux

package poller

import (
	"encoding/binary"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

type epollPoller struct {
	efd     int
	wfd     int // eventfd，用于跨 goroutine 唤醒
	watched map[FD]struct{}
	events  []unix.EpollEvent
	ready   []FD
	closed  atomic.Bool
}

// New 创建 epoll poller。内部的唤醒 eventfd 一并注册，
// 但不会出现在 Wait 的结果里。
func New() (Poller, error) {
	efd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	wfd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(efd)
		return nil, err
	}
	ev := &unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wfd)}
	if err := unix.EpollCtl(efd, unix.EPOLL_CTL_ADD, wfd, ev); err != nil {
		unix.Close(wfd)
		unix.Close(efd)
		return nil, err
	}
	return &epollPoller{
		efd:     efd,
		wfd:     wfd,
		watched: make(map[FD]struct{}),
		events:  make([]unix.EpollEvent, 1024),
		ready:   make([]FD, 0, 1024),
	}, nil
}

func (p *epollPoller) Add(fd FD) error {
	if p.closed.Load() {
		return ErrClosed
	}
	if _, ok := p.watched[fd]; ok {
		return ErrAlreadyWatched
	}
	// 不带 EPOLLET：水平触发，未读完的数据下一轮继续就绪
	ev := &unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	if err := unix.EpollCtl(p.efd, unix.EPOLL_CTL_ADD, fd, ev); err != nil {
		return err
	}
	p.watched[fd] = struct{}{}
	return nil
}

func (p *epollPoller) Remove(fd FD) error {
	if p.closed.Load() {
		return ErrClosed
	}
	if _, ok := p.watched[fd]; !ok {
		return ErrNotWatched
	}
	if err := unix.EpollCtl(p.efd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return err
	}
	delete(p.watched, fd)
	return nil
}

func (p *epollPoller) Wait(timeout time.Duration) ([]FD, error) {
	if p.closed.Load() {
		return nil, ErrClosed
	}
	msec := -1
	if timeout >= 0 {
		msec = int(timeout / time.Millisecond)
		if timeout > 0 && msec == 0 {
			msec = 1
		}
	}
	n, err := unix.EpollWait(p.efd, p.events, msec)
	if err != nil {
		if err == unix.EINTR {
			return p.ready[:0], nil
		}
		return nil, err
	}
	p.ready = p.ready[:0]
	for i := 0; i < n; i++ {
		fd := FD(p.events[i].Fd)
		if fd == p.wfd {
			p.drainWake()
			continue
		}
		// ERR/HUP 同样按可读上报，由上层读出 EOF 后断开
		p.ready = append(p.ready, fd)
	}
	return p.ready, nil
}

func (p *epollPoller) drainWake() {
	var buf [8]byte
	for {
		if _, err := unix.Read(p.wfd, buf[:]); err != nil {
			return
		}
	}
}

func (p *epollPoller) Wake() error {
	if p.closed.Load() {
		return ErrClosed
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	_, err := unix.Write(p.wfd, buf[:])
	if err == unix.EAGAIN {
		// 计数器已满说明尚有唤醒未被消费，效果等同
		return nil
	}
	return err
}

func (p *epollPoller) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	unix.Close(p.wfd)
	return unix.Close(p.efd)
}
