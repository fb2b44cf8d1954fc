package client

import (
	"net"
	"sync"

	"github.com/legamerdc/rio/protocol"
)

// Handler 拨号方回调。OnMessage 的 payload 仅在回调期间有效，
// 需要保留时自行拷贝。
type Handler interface {
	OnOpen(c *Client)
	OnMessage(c *Client, payload []byte)
	OnClose(c *Client, err error)
}

// Client 以帧为单位与服务端通信，内部一个读 goroutine 负责拆帧。
type Client struct {
	conn net.Conn
	enc  *protocol.Encoder
	sp   *protocol.StreamParser

	mu sync.Mutex // 串行化并发 Send
}

// Dial 建立连接。OnOpen 在返回前同步触发，之后读循环在后台运行。
func Dial(network, address string, h Handler) (*Client, error) {
	nc, err := net.Dial(network, address)
	if err != nil {
		return nil, err
	}
	enc, _ := protocol.NewEncoder()
	sp, err := protocol.NewStreamParser(0)
	if err != nil {
		nc.Close()
		return nil, err
	}
	c := &Client{conn: nc, enc: enc, sp: sp}
	h.OnOpen(c)
	go c.readLoop(h)
	return c, nil
}

func (c *Client) readLoop(h Handler) {
	buf := make([]byte, 64<<10)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			ferr := c.sp.Feed(buf[:n], func(payload []byte) error {
				h.OnMessage(c, payload)
				return nil
			})
			if ferr != nil {
				c.conn.Close()
				c.finish(h, ferr)
				return
			}
		}
		if err != nil {
			c.finish(h, err)
			return
		}
	}
}

func (c *Client) finish(h Handler, err error) {
	_ = c.sp.Close()
	_ = c.enc.Close()
	h.OnClose(c, err)
}

// Send 发送一帧明文 payload。
func (c *Client) Send(payload []byte) error { return c.send(payload, false) }

// SendCompressed 发送一帧 zstd 压缩的 payload。
func (c *Client) SendCompressed(payload []byte) error { return c.send(payload, true) }

func (c *Client) send(payload []byte, compress bool) error {
	frame, err := c.enc.Encode(payload, compress)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err = c.conn.Write(frame)
	return err
}

// LocalAddr 返回本端地址。
func (c *Client) LocalAddr() net.Addr { return c.conn.LocalAddr() }

// Close 关闭底层连接，读循环随后以错误收尾并触发 OnClose。
func (c *Client) Close() error { return c.conn.Close() }
