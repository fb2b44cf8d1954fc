package protocol

import (
	"sync"

	"github.com/klauspost/compress/zstd"
)

// zstd 编解码器初始化较重，池化复用；EncodeAll/DecodeAll 调用间无状态残留。
var (
	zencPool = sync.Pool{New: func() any {
		w, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
		return w
	}}
	zdecPool = sync.Pool{New: func() any {
		r, _ := zstd.NewReader(nil)
		return r
	}}
)

func getEncoder() *zstd.Encoder  { return zencPool.Get().(*zstd.Encoder) }
func putEncoder(w *zstd.Encoder) { zencPool.Put(w) }
func getDecoder() *zstd.Decoder  { return zdecPool.Get().(*zstd.Decoder) }
func putDecoder(r *zstd.Decoder) { zdecPool.Put(r) }
