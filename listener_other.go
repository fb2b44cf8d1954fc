//go:build !linux && !darwin

package rio

import "net"

func openListener(cfg *Config) (int, net.Addr, error) { return -1, nil, ErrPlatformNotSupported }

func acceptFD(lfd int) (int, net.Addr, error) { return -1, nil, ErrPlatformNotSupported }

func closeFD(fd int) error { return ErrPlatformNotSupported }

func readFD(fd int, p []byte) (int, error) { return 0, ErrPlatformNotSupported }

func writeFD(fd int, p []byte) (int, error) { return 0, ErrPlatformNotSupported }
