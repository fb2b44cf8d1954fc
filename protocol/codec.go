package protocol

// Encoder 产出单帧：头部 + 可选压缩的帧体。
// 单个 Encoder 不支持并发使用。

type Encoder struct{}

func NewEncoder() (*Encoder, error) { return &Encoder{}, nil }

func (e *Encoder) Close() error { return nil }

// Encode 编码一帧；compress 为 true 时帧体走 zstd。
func (e *Encoder) Encode(payload []byte, compress bool) ([]byte, error) {
	body := payload
	if compress {
		zw := getEncoder()
		body = zw.EncodeAll(payload, nil)
		putEncoder(zw)
	}
	out, err := EncodeHeader(make([]byte, 0, LongHeaderLen+len(body)), len(body), compress)
	if err != nil {
		return nil, err
	}
	return append(out, body...), nil
}

// Parser 从一段缓冲里解出尽可能多的完整帧。

type Parser struct{}

func NewParser() (*Parser, error) { return &Parser{}, nil }

func (p *Parser) Close() error { return nil }

// Parse 逐帧回调 onFrame（压缩帧先解压），返回已消费字节数。
// 尾部不完整的帧留给下一轮；payload 仅在回调期间有效。
// 回调返回错误则停止解析并原样上抛，出错的帧不计入 consumed。
func (p *Parser) Parse(buf []byte, onFrame func(payload []byte) error) (consumed int, _ error) {
	i := 0
	for {
		hdrLen, length, compressed, err := DecodeHeader(buf[i:])
		if err != nil {
			return i, nil // 头都不够，等更多数据
		}
		if len(buf[i+hdrLen:]) < length {
			return i, nil
		}
		payload := buf[i+hdrLen : i+hdrLen+length]
		if compressed {
			dz := getDecoder()
			out, derr := dz.DecodeAll(payload, nil)
			putDecoder(dz)
			if derr != nil {
				return i, derr
			}
			payload = out
		}
		if err := onFrame(payload); err != nil {
			return i, err
		}
		i += hdrLen + length
	}
}
