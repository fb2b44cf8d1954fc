package rio

import "errors"

var (
	// ErrClosed reactor 已整体关闭
	ErrClosed = errors.New("rio: reactor closed")

	// ErrNotConnected 连接不存在或已断开
	ErrNotConnected = errors.New("rio: client not connected")

	// ErrPlatformNotSupported 仅支持 epoll/kqueue 平台
	ErrPlatformNotSupported = errors.New("rio: platform not supported (requires epoll/kqueue)")
)
