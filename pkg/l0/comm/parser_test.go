package comm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func fixedLen(n int) PayloadLenFunc {
	return func(byte) int { return n }
}

func frameBytes(key byte, payload ...byte) []byte {
	return Frame{Key: key, Payload: payload}.Bytes(SumChecksum)
}

type parserTestCase struct {
	name      string
	input     [][]byte
	expect    []Frame
	buffered  int
	discarded uint64
}

func (tc *parserTestCase) run(t *testing.T) {
	p := NewParser(fixedLen(2), nil)
	var frames []Frame
	for _, chunk := range tc.input {
		p.Feed(chunk)
		for {
			f, ok := p.Next()
			if !ok {
				break
			}
			frames = append(frames, f)
		}
	}
	require.Equal(t, tc.expect, frames)
	require.Equal(t, tc.buffered, p.Buffered())
	require.Equal(t, tc.discarded, p.Discarded())
}

func TestParser(t *testing.T) {
	cases := []parserTestCase{
		{
			name:  "single frame",
			input: [][]byte{frameBytes(14, 0x30, 0x39)},
			expect: []Frame{
				{Key: 14, Payload: []byte{0x30, 0x39}},
			},
		},
		{
			name:  "byte by byte",
			input: [][]byte{{0xfd}, {14}, {0x30}, {0x39}, {0x88}},
			expect: []Frame{
				{Key: 14, Payload: []byte{0x30, 0x39}},
			},
		},
		{
			name: "back to back",
			input: [][]byte{
				append(frameBytes(14, 0x30, 0x39), frameBytes(40, 0x05, 0x14)...),
			},
			expect: []Frame{
				{Key: 14, Payload: []byte{0x30, 0x39}},
				{Key: 40, Payload: []byte{0x05, 0x14}},
			},
		},
		{
			name:     "partial frame kept",
			input:    [][]byte{frameBytes(14, 0x30, 0x39)[:3]},
			buffered: 3,
		},
		{
			name: "garbage before frame",
			input: [][]byte{
				{0x01, 0x02, 0x03},
				frameBytes(16, 0x00, 0x01),
			},
			expect: []Frame{
				{Key: 16, Payload: []byte{0x00, 0x01}},
			},
			discarded: 3,
		},
		{
			name: "corrupted frame followed by valid frame",
			input: [][]byte{
				{0xfd, 14, 0x30, 0x39, 0x00},
				frameBytes(28, 0x12, 0x34),
			},
			expect: []Frame{
				{Key: 28, Payload: []byte{0x12, 0x34}},
			},
			discarded: 5,
		},
		{
			name: "dropped byte",
			input: [][]byte{
				{0xfd, 14, 0x39, 0x88},
				frameBytes(30, 0x00, 0x02),
			},
			expect: []Frame{
				{Key: 30, Payload: []byte{0x00, 0x02}},
			},
			discarded: 4,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, tc.run)
	}
}

func TestDecode(t *testing.T) {
	valid := frameBytes(14, 0x30, 0x39)

	_, n, err := Decode(nil, fixedLen(2), SumChecksum)
	require.Equal(t, ErrNeedMoreData, err)
	require.Zero(t, n)

	_, n, err = Decode(valid[:4], fixedLen(2), SumChecksum)
	require.Equal(t, ErrNeedMoreData, err)
	require.Zero(t, n)

	f, n, err := Decode(valid, fixedLen(2), SumChecksum)
	require.NoError(t, err)
	require.Equal(t, len(valid), n)
	require.Equal(t, Frame{Key: 14, Payload: []byte{0x30, 0x39}}, f)

	_, n, err = Decode(append([]byte{0x00, 0x11}, valid...), fixedLen(2), SumChecksum)
	require.IsType(t, &FramingError{}, err)
	require.Equal(t, 2, n)
	require.Equal(t, 2, err.(*FramingError).Discard)

	_, n, err = Decode([]byte{0x00, 0x11, 0x22}, fixedLen(2), SumChecksum)
	require.IsType(t, &FramingError{}, err)
	require.Equal(t, 3, n)
}

func TestDecodeVariablePayloadLen(t *testing.T) {
	payloadLen := func(key byte) int {
		if key == 1 {
			return 4
		}
		return 2
	}
	buf := append(frameBytes(1, 1, 2, 3, 4), frameBytes(2, 5, 6)...)
	f, n, err := Decode(buf, payloadLen, SumChecksum)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4}, f.Payload)
	f, _, err = Decode(buf[n:], payloadLen, SumChecksum)
	require.NoError(t, err)
	require.Equal(t, byte(2), f.Key)
}

func TestParserChecksumSensitivity(t *testing.T) {
	valid := frameBytes(40, 0x05, 0x14)
	for i := 1; i < len(valid); i++ {
		for bit := 0; bit < 8; bit++ {
			corrupted := append([]byte(nil), valid...)
			corrupted[i] ^= 1 << uint(bit)
			p := NewParser(fixedLen(2), SumChecksum)
			p.Feed(corrupted)
			f, ok := p.Next()
			require.False(t, ok, "byte %d bit %d decoded as %v", i, bit, f)
		}
	}
}

func TestParserResyncLiveness(t *testing.T) {
	valid := frameBytes(14, 0x30, 0x39)
	for n := 0; n < 64; n++ {
		garbage := bytes.Repeat([]byte{0x5a}, n)
		p := NewParser(fixedLen(2), SumChecksum)
		p.Feed(append(garbage, valid...))
		f, ok := p.Next()
		require.True(t, ok)
		require.Equal(t, Frame{Key: 14, Payload: []byte{0x30, 0x39}}, f)
		require.Equal(t, uint64(n), p.Discarded())
		require.Zero(t, p.Buffered())
	}
}

func TestParserCustomChecksum(t *testing.T) {
	xor := func(b []byte) byte {
		var x byte
		for _, c := range b {
			x ^= c
		}
		return x
	}
	p := NewParser(fixedLen(2), xor)
	p.Feed(Frame{Key: 14, Payload: []byte{1, 2}}.Bytes(xor))
	f, ok := p.Next()
	require.True(t, ok)
	require.Equal(t, byte(14), f.Key)

	p.Feed(frameBytes(14, 1, 2))
	_, ok = p.Next()
	require.False(t, ok)
}
