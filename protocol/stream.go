package protocol

import (
	"errors"

	"github.com/legamerdc/rio/internal/ring"
)

// DefaultMaxPayload 单帧帧体的默认上限。
const DefaultMaxPayload = 1 << 20

var ErrPayloadTooLarge = errors.New("protocol: payload too large")

// StreamParser 面向字节流：跨多次读取累积半帧，凑齐后逐帧回调。
// 适合逐段喂数据的场合（input 回调、读循环）。
type StreamParser struct {
	rb         *ring.Buffer
	prs        *Parser
	maxPayload int
}

// NewStreamParser 构造流式解析器；maxPayload 不大于 0 时用 DefaultMaxPayload。
func NewStreamParser(maxPayload int) (*StreamParser, error) {
	if maxPayload <= 0 {
		maxPayload = DefaultMaxPayload
	}
	prs, err := NewParser()
	if err != nil {
		return nil, err
	}
	// 预留头部加一次整读的余量，避免凑满一帧之前缓冲先写满
	return &StreamParser{
		rb:         ring.New(maxPayload + LongHeaderLen + 64<<10),
		prs:        prs,
		maxPayload: maxPayload,
	}, nil
}

// Feed 追加一段字节流并解析其中所有完整帧。
// 单帧帧体超过上限返回 ErrPayloadTooLarge，此后流不可恢复。
func (s *StreamParser) Feed(p []byte, onFrame func(payload []byte) error) error {
	if _, err := s.rb.Write(p); err != nil {
		return err
	}
	for {
		b := s.rb.Peek(s.rb.Len())
		hdrLen, length, _, err := DecodeHeader(b)
		if err != nil {
			return nil // 半个头，等下次
		}
		if length > s.maxPayload {
			return ErrPayloadTooLarge
		}
		if len(b) < hdrLen+length {
			return nil
		}
		consumed, perr := s.prs.Parse(b[:hdrLen+length], onFrame)
		s.rb.Discard(consumed)
		if perr != nil {
			return perr
		}
	}
}

// Buffered 返回积压的未解析字节数。
func (s *StreamParser) Buffered() int { return s.rb.Len() }

func (s *StreamParser) Close() error { return s.prs.Close() }
