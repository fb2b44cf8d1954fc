//go:build linux || darwin

package rio

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/legamerdc/rio/internal/netutil"
)

// openListener 按 cfg 打开监听 socket，返回 fd 与实际绑定地址。
func openListener(cfg *Config) (int, net.Addr, error) {
	switch cfg.Proto {
	case "unix":
		return openUnixListener(cfg)
	case "tcp", "tcp4", "tcp6":
		return openTCPListener(cfg)
	}
	return -1, nil, fmt.Errorf("unsupported proto %q", cfg.Proto)
}

func openUnixListener(cfg *Config) (int, net.Addr, error) {
	path := cfg.LocalPath
	// 上次运行残留的 socket 文件会让 bind 失败，先清掉
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return -1, nil, fmt.Errorf("remove stale socket %s: %w", path, err)
	}
	if _, err := os.Lstat(path); err == nil {
		return -1, nil, fmt.Errorf("socket path %s still occupied", path)
	}
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return -1, nil, err
	}
	// bind 期间放开 umask，socket 文件对所有用户可连
	old := unix.Umask(0)
	err = unix.Bind(fd, &unix.SockaddrUnix{Name: path})
	unix.Umask(old)
	if err != nil {
		unix.Close(fd)
		return -1, nil, err
	}
	if err := finishListener(fd, cfg); err != nil {
		unix.Close(fd)
		_ = os.Remove(path)
		return -1, nil, err
	}
	return fd, &net.UnixAddr{Name: path, Net: "unix"}, nil
}

func openTCPListener(cfg *Config) (int, net.Addr, error) {
	addr, err := net.ResolveTCPAddr(cfg.Proto, net.JoinHostPort(cfg.LocalAddr, strconv.Itoa(cfg.LocalPort)))
	if err != nil {
		return -1, nil, err
	}
	var sa unix.Sockaddr
	fam := unix.AF_INET
	if cfg.Proto == "tcp6" || (addr.IP != nil && addr.IP.To4() == nil) {
		fam = unix.AF_INET6
		sa6 := &unix.SockaddrInet6{Port: addr.Port}
		if ip := addr.IP.To16(); ip != nil {
			copy(sa6.Addr[:], ip)
		}
		sa = sa6
	} else {
		sa4 := &unix.SockaddrInet4{Port: addr.Port}
		if ip := addr.IP.To4(); ip != nil {
			copy(sa4.Addr[:], ip)
		}
		sa = sa4
	}
	fd, err := unix.Socket(fam, unix.SOCK_STREAM, 0)
	if err != nil {
		return -1, nil, err
	}
	_ = netutil.SetReuseAddr(fd, true)
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return -1, nil, err
	}
	if err := finishListener(fd, cfg); err != nil {
		unix.Close(fd)
		return -1, nil, err
	}
	// localport 为 0 时向内核询问实际端口
	bound, err := unix.Getsockname(fd)
	if err != nil {
		unix.Close(fd)
		return -1, nil, err
	}
	return fd, netutil.SockaddrToAddr(bound), nil
}

// finishListener 套接字选项 + 非阻塞 + listen，unix/tcp 共用。
func finishListener(fd int, cfg *Config) error {
	if cfg.RcvBuf > 0 {
		if err := netutil.SetRecvBuf(fd, cfg.RcvBuf); err != nil {
			return err
		}
	}
	if cfg.SndBuf > 0 {
		if err := netutil.SetSendBuf(fd, cfg.SndBuf); err != nil {
			return err
		}
	}
	if err := netutil.SetNonblock(fd, true); err != nil {
		return err
	}
	unix.CloseOnExec(fd)
	return unix.Listen(fd, cfg.Listen)
}

func closeFD(fd int) error { return unix.Close(fd) }

func readFD(fd int, p []byte) (int, error) {
	for {
		n, err := unix.Read(fd, p)
		if err == unix.EINTR {
			continue
		}
		if n < 0 {
			n = 0
		}
		return n, err
	}
}

func writeFD(fd int, p []byte) (int, error) {
	for {
		n, err := unix.Write(fd, p)
		if err == unix.EINTR {
			continue
		}
		if n < 0 {
			n = 0
		}
		return n, err
	}
}
