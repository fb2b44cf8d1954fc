package rio

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

// Config 为 Reactor 的程序化配置。零值经 normalize 补全后即可用：
// tcp 下 LocalPort 为 0 表示由内核分配端口。
type Config struct {
	Proto     string // unix / tcp / tcp4 / tcp6，留空按 LocalPath 推断
	LocalPath string // unix socket 文件路径
	LocalAddr string // 绑定地址，也接受 host:port 形式
	LocalPort int
	Listen    int // accept 队列长度

	LoopTimeout time.Duration // 超时回调周期，同时是单次 poll 的等待上限
	RcvBuf      int           // SO_RCVBUF，0 用系统默认
	SndBuf      int           // SO_SNDBUF，0 用系统默认

	Logger *zap.Logger // nil 则不输出
}

// DefaultConfig 返回一组可直接使用的默认值。
func DefaultConfig() Config {
	return Config{
		LoopTimeout: 60 * time.Second,
		Listen:      10,
	}
}

// options 是 New 选项表的解码目标。键大小写不敏感，未知键忽略，
// 值做弱类型转换（"8080" 与 8080 等价）。
type options struct {
	LoopTimeout int    `mapstructure:"loop_timeout"` // 秒
	LocalPath   string `mapstructure:"localpath"`
	LocalAddr   string `mapstructure:"localaddr"`
	LocalPort   int    `mapstructure:"localport"`
	Proto       string `mapstructure:"proto"`
	Listen      int    `mapstructure:"listen"`
	RcvBuf      int    `mapstructure:"rcvbuf"`
	SndBuf      int    `mapstructure:"sndbuf"`
}

// ParseOptions 解析选项表并校验出一份可用的 Config。
func ParseOptions(opts map[string]any) (Config, error) {
	o := options{
		LoopTimeout: 60,
		Listen:      10,
		LocalPort:   -1, // 区分“未给出”与显式 0（0 表示内核分配）
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &o,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Config{}, err
	}
	if err := dec.Decode(opts); err != nil {
		return Config{}, fmt.Errorf("rio: bad options: %w", err)
	}
	cfg := Config{
		Proto:       o.Proto,
		LocalPath:   o.LocalPath,
		LocalAddr:   o.LocalAddr,
		LocalPort:   o.LocalPort,
		Listen:      o.Listen,
		LoopTimeout: time.Duration(o.LoopTimeout) * time.Second,
		RcvBuf:      o.RcvBuf,
		SndBuf:      o.SndBuf,
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// normalize 补全默认值、推断 proto 并校验端点参数。可重复调用。
func (c *Config) normalize() error {
	if c.LoopTimeout <= 0 {
		c.LoopTimeout = 60 * time.Second
	}
	if c.Listen <= 0 {
		c.Listen = 10
	}
	if c.Proto == "" {
		if c.LocalPath != "" {
			c.Proto = "unix"
		} else {
			c.Proto = "tcp"
		}
	}
	switch c.Proto {
	case "unix":
		if c.LocalPath == "" {
			return errors.New("rio: localpath required for unix")
		}
	case "tcp", "tcp4", "tcp6":
		// localaddr 带端口时拆开；显式给出的正 localport 优先
		if host, port, err := net.SplitHostPort(c.LocalAddr); err == nil {
			c.LocalAddr = host
			if c.LocalPort <= 0 {
				p, perr := strconv.Atoi(port)
				if perr != nil {
					return fmt.Errorf("rio: bad port in localaddr: %w", perr)
				}
				c.LocalPort = p
			}
		}
		if c.LocalPort < 0 {
			return fmt.Errorf("rio: localport required for %s", c.Proto)
		}
	default:
		return fmt.Errorf("rio: unsupported proto %q", c.Proto)
	}
	return nil
}
