package protocol

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeaderSelection(t *testing.T) {
	hdr, err := EncodeHeader(nil, 0, false)
	require.NoError(t, err)
	require.Len(t, hdr, ShortHeaderLen)

	hdr, err = EncodeHeader(nil, shortMaxLen, false)
	require.NoError(t, err)
	require.Len(t, hdr, ShortHeaderLen)

	hdr, err = EncodeHeader(nil, shortMaxLen+1, true)
	require.NoError(t, err)
	require.Len(t, hdr, LongHeaderLen)

	_, err = EncodeHeader(nil, -1, false)
	require.ErrorIs(t, err, errLengthOutOfRange)
	_, err = EncodeHeader(nil, longMaxLen+1, false)
	require.ErrorIs(t, err, errLengthOutOfRange)
}

func TestHeaderRoundtrip(t *testing.T) {
	for _, tc := range []struct {
		length     int
		compressed bool
		hdrLen     int
	}{
		{0, false, ShortHeaderLen},
		{1, true, ShortHeaderLen},
		{shortMaxLen, false, ShortHeaderLen},
		{shortMaxLen + 1, false, LongHeaderLen},
		{1 << 20, true, LongHeaderLen},
		{longMaxLen, false, LongHeaderLen},
	} {
		hdr, err := EncodeHeader(nil, tc.length, tc.compressed)
		require.NoError(t, err)
		hdrLen, length, compressed, err := DecodeHeader(hdr)
		require.NoError(t, err)
		require.Equal(t, tc.hdrLen, hdrLen, "length=%d", tc.length)
		require.Equal(t, tc.length, length)
		require.Equal(t, tc.compressed, compressed)
	}
}

func TestDecodeHeaderShortInput(t *testing.T) {
	_, _, _, err := DecodeHeader([]byte{0x00})
	require.ErrorIs(t, err, errHeaderTooShort)
	// 长头只到了两个字节
	_, _, _, err = DecodeHeader([]byte{0x40, 0x00})
	require.ErrorIs(t, err, errHeaderTooShort)
}

func TestEncodeParseRoundtrip(t *testing.T) {
	enc, err := NewEncoder()
	require.NoError(t, err)
	prs, err := NewParser()
	require.NoError(t, err)

	plain, err := enc.Encode([]byte("hello"), false)
	require.NoError(t, err)
	big := bytes.Repeat([]byte("rio"), 4096)
	zipped, err := enc.Encode(big, true)
	require.NoError(t, err)
	require.Less(t, len(zipped), len(big)) // 高冗余内容压得动

	var got [][]byte
	consumed, err := prs.Parse(append(plain, zipped...), func(p []byte) error {
		got = append(got, append([]byte(nil), p...))
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, len(plain)+len(zipped), consumed)
	require.Len(t, got, 2)
	require.Equal(t, []byte("hello"), got[0])
	require.Equal(t, big, got[1])
}

func TestParsePartialFrame(t *testing.T) {
	enc, _ := NewEncoder()
	prs, _ := NewParser()
	frame, err := enc.Encode([]byte("abcdef"), false)
	require.NoError(t, err)

	for cut := 0; cut < len(frame); cut++ {
		consumed, err := prs.Parse(frame[:cut], func([]byte) error {
			t.Fatalf("cut=%d 不应产生回调", cut)
			return nil
		})
		require.NoError(t, err)
		require.Zero(t, consumed)
	}
}

func TestParseCallbackError(t *testing.T) {
	enc, _ := NewEncoder()
	prs, _ := NewParser()
	f1, err := enc.Encode([]byte("one"), false)
	require.NoError(t, err)
	f2, err := enc.Encode([]byte("two"), false)
	require.NoError(t, err)

	boom := errors.New("boom")
	calls := 0
	consumed, err := prs.Parse(append(f1, f2...), func([]byte) error {
		calls++
		if calls == 2 {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, len(f1), consumed) // 出错的帧不计入消费
	require.Equal(t, 2, calls)
}
