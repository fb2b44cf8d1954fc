//go:build darwin

package poller

import (
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

type kqueuePoller struct {
	kq      int
	rfd     int // 管道读端，注册进 kqueue
	wfd     int // 管道写端，用于唤醒
	watched map[FD]struct{}
	events  []unix.Kevent_t
	ready   []FD
	closed  atomic.Bool
}

// New 创建 kqueue poller，唤醒走一对非阻塞管道。
func New() (Poller, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	var pp [2]int
	if err := unix.Pipe(pp[:]); err != nil {
		unix.Close(kq)
		return nil, err
	}
	rfd, wfd := pp[0], pp[1]
	_ = unix.SetNonblock(rfd, true)
	_ = unix.SetNonblock(wfd, true)
	kev := unix.Kevent_t{Ident: uint64(rfd), Filter: unix.EVFILT_READ, Flags: unix.EV_ADD}
	if _, err := unix.Kevent(kq, []unix.Kevent_t{kev}, nil, nil); err != nil {
		unix.Close(rfd)
		unix.Close(wfd)
		unix.Close(kq)
		return nil, err
	}
	return &kqueuePoller{
		kq:      kq,
		rfd:     rfd,
		wfd:     wfd,
		watched: make(map[FD]struct{}),
		events:  make([]unix.Kevent_t, 1024),
		ready:   make([]FD, 0, 1024),
	}, nil
}

func (p *kqueuePoller) Add(fd FD) error {
	if p.closed.Load() {
		return ErrClosed
	}
	if _, ok := p.watched[fd]; ok {
		return ErrAlreadyWatched
	}
	// 不带 EV_CLEAR：水平触发
	kev := unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: unix.EV_ADD}
	if _, err := unix.Kevent(p.kq, []unix.Kevent_t{kev}, nil, nil); err != nil {
		return err
	}
	p.watched[fd] = struct{}{}
	return nil
}

func (p *kqueuePoller) Remove(fd FD) error {
	if p.closed.Load() {
		return ErrClosed
	}
	if _, ok := p.watched[fd]; !ok {
		return ErrNotWatched
	}
	kev := unix.Kevent_t{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: unix.EV_DELETE}
	if _, err := unix.Kevent(p.kq, []unix.Kevent_t{kev}, nil, nil); err != nil {
		return err
	}
	delete(p.watched, fd)
	return nil
}

func (p *kqueuePoller) Wait(timeout time.Duration) ([]FD, error) {
	if p.closed.Load() {
		return nil, ErrClosed
	}
	var ts *unix.Timespec
	if timeout >= 0 {
		t := unix.NsecToTimespec(timeout.Nanoseconds())
		ts = &t
	}
	n, err := unix.Kevent(p.kq, nil, p.events, ts)
	if err != nil {
		if err == unix.EINTR {
			return p.ready[:0], nil
		}
		return nil, err
	}
	p.ready = p.ready[:0]
	for i := 0; i < n; i++ {
		fd := FD(p.events[i].Ident)
		if fd == p.rfd {
			p.drainWake()
			continue
		}
		// EV_EOF 仍先走可读路径，残留数据读尽后上层自会看到 EOF
		p.ready = append(p.ready, fd)
	}
	return p.ready, nil
}

func (p *kqueuePoller) drainWake() {
	var buf [16]byte
	for {
		if _, err := unix.Read(p.rfd, buf[:]); err != nil {
			return
		}
	}
}

func (p *kqueuePoller) Wake() error {
	if p.closed.Load() {
		return ErrClosed
	}
	var b [1]byte
	b[0] = 1
	_, err := unix.Write(p.wfd, b[:])
	if err == unix.EAGAIN {
		// 管道已满说明尚有唤醒未被消费，效果等同
		return nil
	}
	return err
}

func (p *kqueuePoller) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	unix.Close(p.rfd)
	unix.Close(p.wfd)
	return unix.Close(p.kq)
}
