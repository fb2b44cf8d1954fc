package rio

import (
	"io"
	"net"
)

// Client 表示一条由 reactor 管理的连接，从 accept 到 Disconnect
// 归属于事件循环。Data 供回调挂接每连接状态，reactor 本身不读不写。
// 回调不得直接关闭底层 fd，断开只能走 Reactor.Disconnect。
type Client struct {
	id     uint64
	fd     int
	addr   net.Addr
	closed bool

	Data any
}

// ID 返回单调递增的连接序号。
func (c *Client) ID() uint64 { return c.id }

// RemoteAddr 返回对端地址。
func (c *Client) RemoteAddr() net.Addr { return c.addr }

// Read 非阻塞读。对端关闭返回 io.EOF，暂无数据返回 EAGAIN，
// 已断开的连接返回 ErrNotConnected。
func (c *Client) Read(p []byte) (int, error) {
	if c.closed {
		return 0, ErrNotConnected
	}
	n, err := readFD(c.fd, p)
	if err != nil {
		return n, err
	}
	if n == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Write 非阻塞写。短写可能发生，由调用方自行处理。
func (c *Client) Write(p []byte) (int, error) {
	if c.closed {
		return 0, ErrNotConnected
	}
	return writeFD(c.fd, p)
}
