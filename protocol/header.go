package protocol

import (
	"encoding/binary"
	"errors"
)

// 帧头为变长大端编码，长度指帧体（压缩后）字节数，不含头部：
// 短头（2B）: bit15 Compressed | bit14 Ext=0 | bit13..0  Len14
// 长头（4B）: bit31 Compressed | bit30 Ext=1 | bit29..0  Len30

const (
	ShortHeaderLen = 2
	LongHeaderLen  = 4

	shortMaxLen = 1<<14 - 1
	longMaxLen  = 1<<30 - 1
)

var (
	errHeaderTooShort   = errors.New("protocol: header too short")
	errLengthOutOfRange = errors.New("protocol: length out of range")
)

// EncodeHeader 把帧头追加到 dst 并返回；按长度自动选 2B 或 4B。
func EncodeHeader(dst []byte, length int, compressed bool) ([]byte, error) {
	if length < 0 || length > longMaxLen {
		return dst, errLengthOutOfRange
	}
	if length <= shortMaxLen {
		v := uint16(length)
		if compressed {
			v |= 1 << 15
		}
		return binary.BigEndian.AppendUint16(dst, v), nil
	}
	v := uint32(length) | 1<<30 // Ext=1
	if compressed {
		v |= 1 << 31
	}
	return binary.BigEndian.AppendUint32(dst, v), nil
}

// DecodeHeader 解析帧头，返回头部字节数、帧体长度与压缩标记。
// 字节不足一个完整头时返回 errHeaderTooShort。
func DecodeHeader(b []byte) (hdrLen, length int, compressed bool, _ error) {
	if len(b) < ShortHeaderLen {
		return 0, 0, false, errHeaderTooShort
	}
	v16 := binary.BigEndian.Uint16(b)
	compressed = v16&(1<<15) != 0
	if v16&(1<<14) == 0 {
		return ShortHeaderLen, int(v16 & shortMaxLen), compressed, nil
	}
	if len(b) < LongHeaderLen {
		return 0, 0, false, errHeaderTooShort
	}
	v32 := binary.BigEndian.Uint32(b)
	return LongHeaderLen, int(v32 & longMaxLen), compressed, nil
}
