package protocol

import (
	"bufio"
	"io"

	"github.com/Tnze/go-mc/nbt"
	pk "github.com/Tnze/go-mc/net/packet"
	"github.com/pkg/errors"
)

type byteReader interface {
	io.Reader
	io.ByteReader
}

// packetReader reads wire fields in order and keeps the first error.
type packetReader struct {
	r   byteReader
	err error
}

func newPacketReader(r io.Reader) *packetReader {
	br, ok := r.(byteReader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &packetReader{r: br}
}

func (p *packetReader) field(name string, field io.ReaderFrom) {
	if p.err != nil {
		return
	}
	if _, err := field.ReadFrom(p.r); err != nil {
		p.err = errors.Wrapf(err, "reading %s", name)
	}
}

func (p *packetReader) integer(name string) int32 {
	var v pk.Int
	p.field(name, &v)
	return int32(v)
}

func (p *packetReader) varInt(name string) int32 {
	var v pk.VarInt
	p.field(name, &v)
	return int32(v)
}

func (p *packetReader) boolean(name string) bool {
	var v pk.Boolean
	p.field(name, &v)
	return bool(v)
}

func (p *packetReader) short(name string) int16 {
	var v pk.Short
	p.field(name, &v)
	return int16(v)
}

func (p *packetReader) unsignedByte(name string) uint8 {
	var v pk.UnsignedByte
	p.field(name, &v)
	return uint8(v)
}

func (p *packetReader) long(name string) uint64 {
	var v pk.Long
	p.field(name, &v)
	return uint64(v)
}

// length reads a VarInt length prefix and checks it against max.
func (p *packetReader) length(name string, limit int) int {
	n := p.varInt(name)
	if p.err == nil && (n < 0 || int(n) > limit) {
		p.err = errors.Wrapf(ErrInvalidLength, "%s %d not in [0, %d]", name, n, limit)
	}
	if p.err != nil {
		return 0
	}
	return int(n)
}

func (p *packetReader) raw(name string, n int) []byte {
	if p.err != nil {
		return nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(p.r, buf); err != nil {
		p.err = errors.Wrapf(err, "reading %s", name)
		return nil
	}
	return buf
}

func (p *packetReader) nbt(name string, v any) {
	if p.err != nil {
		return
	}
	if _, err := nbt.NewDecoder(p.r).Decode(v); err != nil {
		p.err = errors.Wrapf(err, "decoding %s", name)
	}
}

func (p *packetReader) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

// atEOF reports whether the packet has been fully consumed.
func (p *packetReader) atEOF() bool {
	if p.err != nil {
		return false
	}
	if _, err := p.r.ReadByte(); err == io.EOF {
		return true
	}
	return false
}
