package ring

import "errors"

var ErrTooLarge = errors.New("ring: write exceeds free space")

// Buffer 单线程使用的环形字节缓冲。容量固定，不做扩容，
// 读写都在同一个循环里发生，因此不加锁。

type Buffer struct {
	buf  []byte
	head int // 下一个待读字节下标
	n    int // 当前缓存的字节数
}

// New 返回容量向上取整到 2 的幂的环形缓冲。
func New(capacity int) *Buffer {
	c := 1
	for c < capacity {
		c <<= 1
	}
	return &Buffer{buf: make([]byte, c)}
}

func (b *Buffer) Cap() int { return len(b.buf) }

func (b *Buffer) Len() int { return b.n }

func (b *Buffer) Free() int { return len(b.buf) - b.n }

// Write 追加 p 的全部内容；空间不足时一个字节也不写入。
func (b *Buffer) Write(p []byte) (int, error) {
	if len(p) > b.Free() {
		return 0, ErrTooLarge
	}
	tail := (b.head + b.n) & (len(b.buf) - 1)
	w := copy(b.buf[tail:], p)
	if w < len(p) {
		copy(b.buf, p[w:])
	}
	b.n += len(p)
	return len(p), nil
}

// Peek 返回前 n 字节但不前进读位置。未跨环尾时直接引用内部存储，
// 该视图在下一次 Write/Discard 前有效；跨环尾时返回拷贝。
func (b *Buffer) Peek(n int) []byte {
	if n <= 0 {
		return nil
	}
	if n > b.n {
		n = b.n
	}
	if b.head+n <= len(b.buf) {
		return b.buf[b.head : b.head+n]
	}
	out := make([]byte, n)
	k := copy(out, b.buf[b.head:])
	copy(out[k:], b.buf[:n-k])
	return out
}

// Discard 丢弃前 n 字节，返回实际丢弃数。
func (b *Buffer) Discard(n int) int {
	if n > b.n {
		n = b.n
	}
	b.head = (b.head + n) & (len(b.buf) - 1)
	b.n -= n
	return n
}
