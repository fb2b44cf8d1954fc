package rio

// 四种事件各有一种回调形状；回调运行在事件循环 goroutine 上，
// 必须自行保证不阻塞。

// TimeoutFunc 周期超时回调。
type TimeoutFunc func()

// ConnectedFunc 新连接回调。返回 false 表示拒绝：连接立即关闭，
// 不进入监视集合，之后也不会产生 disconnected 事件。
type ConnectedFunc func(c *Client) bool

// DisconnectedFunc 断开回调，仅由 Disconnect 触发。
type DisconnectedFunc func(c *Client)

// InputFunc 可读事件回调，读取动作由回调自行完成。
type InputFunc func(c *Client)

// handlerTable 每种事件一个槽位，任何时刻都不缺项。
type handlerTable struct {
	timeout      TimeoutFunc
	connected    ConnectedFunc
	disconnected DisconnectedFunc
	input        InputFunc
}

func defaultHandlers() handlerTable {
	return handlerTable{
		timeout:      func() {},
		connected:    func(*Client) bool { return true },
		disconnected: func(*Client) {},
		input:        func(*Client) {},
	}
}

// OnTimeout 设置超时回调；传 nil 恢复内置空操作。
// 回调内调用安全，只影响之后的分发。
func (r *Reactor) OnTimeout(f TimeoutFunc) {
	if f == nil {
		f = func() {}
	}
	r.handlers.timeout = f
}

// OnConnected 设置新连接回调；传 nil 恢复默认（保留连接）。
func (r *Reactor) OnConnected(f ConnectedFunc) {
	if f == nil {
		f = func(*Client) bool { return true }
	}
	r.handlers.connected = f
}

// OnDisconnected 设置断开回调；传 nil 恢复内置空操作。
func (r *Reactor) OnDisconnected(f DisconnectedFunc) {
	if f == nil {
		f = func(*Client) {}
	}
	r.handlers.disconnected = f
}

// OnInput 设置可读回调；传 nil 恢复内置空操作。
func (r *Reactor) OnInput(f InputFunc) {
	if f == nil {
		f = func(*Client) {}
	}
	r.handlers.input = f
}
