package comm

import (
	"bytes"
	"fmt"

	"github.com/golang/glog"
)

// PayloadLenFunc tells the payload length of the response frame for a key.
type PayloadLenFunc func(key byte) int

// Decode decodes one response frame from the head of buf.
//
// It returns the frame and the number of bytes it occupies on success.
// If buf doesn't hold a full frame yet, it returns ErrNeedMoreData and
// consumes nothing. Otherwise a *FramingError is returned and n is the
// number of bytes to discard: all the bytes before the next sync byte, or
// exactly one byte when the frame window starting at a sync byte fails the
// checksum, so a valid frame right behind corrupted bytes is never lost.
func Decode(buf []byte, payloadLen PayloadLenFunc, checksum Checksum) (f Frame, n int, err error) {
	if len(buf) == 0 {
		return f, 0, ErrNeedMoreData
	}
	if buf[0] != SyncByte {
		skip := bytes.IndexByte(buf, SyncByte)
		if skip < 0 {
			skip = len(buf)
		}
		return f, skip, &FramingError{Reason: fmt.Sprintf("%d bytes before sync", skip), Discard: skip}
	}
	if len(buf) < 2 {
		return f, 0, ErrNeedMoreData
	}
	size := payloadLen(buf[1]) + 3
	if len(buf) < size {
		return f, 0, ErrNeedMoreData
	}
	if sum := checksum(buf[1 : size-1]); sum != buf[size-1] {
		return f, 1, &FramingError{
			Reason:  fmt.Sprintf("key %d checksum %02x, expect %02x", buf[1], buf[size-1], sum),
			Discard: 1,
		}
	}
	f.Key = buf[1]
	f.Payload = append([]byte(nil), buf[2:size-1]...)
	return f, size, nil
}

// Parser decodes response frames from a byte stream which may deliver
// partial frames, corrupted or dropped bytes.
type Parser struct {
	PayloadLen PayloadLenFunc
	Checksum   Checksum

	buf       []byte
	discarded uint64
}

// NewParser creates a Parser.
func NewParser(payloadLen PayloadLenFunc, checksum Checksum) *Parser {
	if checksum == nil {
		checksum = SumChecksum
	}
	return &Parser{PayloadLen: payloadLen, Checksum: checksum}
}

// Feed appends received bytes.
func (p *Parser) Feed(b []byte) {
	p.buf = append(p.buf, b...)
}

// Next returns the next complete frame, resynchronizing past bad bytes.
// ok is false when more data is needed.
func (p *Parser) Next() (f Frame, ok bool) {
	for {
		frame, n, err := Decode(p.buf, p.PayloadLen, p.Checksum)
		if err == ErrNeedMoreData {
			p.compact()
			return f, false
		}
		p.buf = p.buf[n:]
		if err != nil {
			p.discarded += uint64(n)
			if glog.V(2) {
				glog.Infof("resync: %v, %d bytes dropped", err, n)
			}
			continue
		}
		return frame, true
	}
}

// Buffered returns the number of bytes waiting for a complete frame.
func (p *Parser) Buffered() int {
	return len(p.buf)
}

// Discarded returns the total number of bytes dropped while resynchronizing.
func (p *Parser) Discarded() uint64 {
	return p.discarded
}

// Reset drops all buffered bytes.
func (p *Parser) Reset() {
	p.buf = nil
}

func (p *Parser) compact() {
	if len(p.buf) == 0 {
		p.buf = nil
	} else if cap(p.buf) > 1024 && len(p.buf) < cap(p.buf)/4 {
		p.buf = append([]byte(nil), p.buf...)
	}
}
