//go:build darwin

package rio

import (
	"net"

	"golang.org/x/sys/unix"

	"github.com/legamerdc/rio/internal/netutil"
)

// acceptFD 取出一条就绪连接并设为非阻塞；队列为空返回 fd=-1。
// darwin 没有 accept4，非阻塞与 cloexec 逐个补设。
func acceptFD(lfd int) (int, net.Addr, error) {
	for {
		fd, sa, err := unix.Accept(lfd)
		switch err {
		case nil:
		case unix.EINTR, unix.ECONNABORTED:
			continue
		case unix.EAGAIN: // == unix.EWOULDBLOCK on darwin; listing both is a duplicate-case compile error
			return -1, nil, nil
		default:
			return -1, nil, err
		}
		if err := netutil.SetNonblock(fd, true); err != nil {
			unix.Close(fd)
			return -1, nil, err
		}
		unix.CloseOnExec(fd)
		_ = netutil.SetNoDelay(fd, true)
		return fd, netutil.SockaddrToAddr(sa), nil
	}
}
