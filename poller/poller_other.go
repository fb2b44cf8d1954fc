//go:build !linux && !darwin

package poller

import "errors"

// New 仅支持 linux/darwin。
func New() (Poller, error) {
	return nil, errors.New("poller: platform not supported (requires epoll/kqueue)")
}
