//go:build linux || darwin

package client_test

import (
	"bytes"
	"io"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/legamerdc/rio"
	"github.com/legamerdc/rio/client"
	"github.com/legamerdc/rio/protocol"
)

// startReactor 在后台跑给定 reactor，测试结束时收掉。
func startReactor(t *testing.T, r *rio.Reactor) {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- r.Start() }()
	t.Cleanup(func() {
		_ = r.Close()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("事件循环未退出")
		}
	})
}

// frameEchoServer 起一个按帧回显的 reactor，返回监听地址。
func frameEchoServer(t *testing.T) string {
	t.Helper()
	r, err := rio.New(map[string]any{"localaddr": "127.0.0.1", "localport": 0})
	require.NoError(t, err)

	enc, err := protocol.NewEncoder()
	require.NoError(t, err)

	r.OnConnected(func(c *rio.Client) bool {
		sp, err := protocol.NewStreamParser(0)
		if err != nil {
			return false
		}
		c.Data = sp
		return true
	})
	buf := make([]byte, 64<<10)
	r.OnInput(func(c *rio.Client) {
		sp := c.Data.(*protocol.StreamParser)
		for {
			n, err := c.Read(buf)
			if n > 0 {
				ferr := sp.Feed(buf[:n], func(payload []byte) error {
					frame, eerr := enc.Encode(payload, len(payload) > 1024)
					if eerr != nil {
						return eerr
					}
					_, werr := c.Write(frame)
					return werr
				})
				if ferr != nil {
					_ = r.Disconnect(c)
					return
				}
			}
			if err != nil {
				if err != syscall.EAGAIN {
					_ = r.Disconnect(c)
				}
				return
			}
		}
	})

	startReactor(t, r)
	return r.Addr().String()
}

type collector struct {
	opened   chan struct{}
	messages chan []byte
	closed   chan error
}

func newCollector() *collector {
	return &collector{
		opened:   make(chan struct{}, 1),
		messages: make(chan []byte, 16),
		closed:   make(chan error, 1),
	}
}

func (h *collector) OnOpen(c *client.Client) { h.opened <- struct{}{} }
func (h *collector) OnMessage(c *client.Client, payload []byte) {
	h.messages <- append([]byte(nil), payload...)
}
func (h *collector) OnClose(c *client.Client, err error) { h.closed <- err }

func recvMsg(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case m := <-ch:
		return m
	case <-time.After(5 * time.Second):
		t.Fatal("等待消息超时")
		panic("unreachable")
	}
}

func TestDialSendReceive(t *testing.T) {
	addr := frameEchoServer(t)

	h := newCollector()
	c, err := client.Dial("tcp", addr, h)
	require.NoError(t, err)

	select {
	case <-h.opened: // Dial 返回前 OnOpen 已同步触发
	default:
		t.Fatal("OnOpen 未在 Dial 返回前触发")
	}

	require.NoError(t, c.Send([]byte("hello frames")))
	require.Equal(t, []byte("hello frames"), recvMsg(t, h.messages))

	// 64 KiB 明文走长头；服务端回显时走压缩路径
	big := bytes.Repeat([]byte("0123456789abcdef"), 4096)
	require.NoError(t, c.Send(big))
	require.Equal(t, big, recvMsg(t, h.messages))

	// 压缩发送同样回得来
	require.NoError(t, c.SendCompressed(big))
	require.Equal(t, big, recvMsg(t, h.messages))

	require.NoError(t, c.Close())
	select {
	case err := <-h.closed:
		require.Error(t, err) // 主动关闭后读循环以错误收尾
	case <-time.After(5 * time.Second):
		t.Fatal("等待 OnClose 超时")
	}
}

func TestServerDropTriggersOnClose(t *testing.T) {
	r, err := rio.New(map[string]any{"localaddr": "127.0.0.1", "localport": 0})
	require.NoError(t, err)

	// 读干净后立刻断开
	buf := make([]byte, 1024)
	r.OnInput(func(c *rio.Client) {
		for {
			if _, err := c.Read(buf); err != nil {
				break
			}
		}
		_ = r.Disconnect(c)
	})
	startReactor(t, r)

	h := newCollector()
	c, err := client.Dial("tcp", r.Addr().String(), h)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Send([]byte("bye")))
	select {
	case cerr := <-h.closed:
		require.ErrorIs(t, cerr, io.EOF)
	case <-time.After(5 * time.Second):
		t.Fatal("服务端断开后 OnClose 未触发")
	}
}
