//go:build linux

package rio

import (
	"net"

	"golang.org/x/sys/unix"

	"github.com/legamerdc/rio/internal/netutil"
)

// acceptFD 取出一条就绪连接并设为非阻塞；队列为空返回 fd=-1。
func acceptFD(lfd int) (int, net.Addr, error) {
	for {
		fd, sa, err := unix.Accept4(lfd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		switch err {
		case nil:
		case unix.EINTR, unix.ECONNABORTED:
			continue
		case unix.EAGAIN: // == unix.EWOULDBLOCK on linux; listing both is a duplicate-case compile error
			return -1, nil, nil
		default:
			return -1, nil, err
		}
		// unix socket 上 NODELAY 不适用，忽略错误即可
		_ = netutil.SetNoDelay(fd, true)
		return fd, netutil.SockaddrToAddr(sa), nil
	}
}
