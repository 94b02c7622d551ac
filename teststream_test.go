// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package serialscan

import (
	"bytes"
	"encoding/binary"
)

// streamBuilder assembles a hand-written Java serialized-object stream
// byte by byte, in the teacher's tradition of hand-rolled test fixtures
// rather than a generator library.
type streamBuilder struct {
	buf bytes.Buffer
}

func newStream() *streamBuilder {
	sb := &streamBuilder{}
	sb.u16(StreamMagic)
	sb.u16(StreamVersion)
	return sb
}

func (sb *streamBuilder) bytes() []byte { return sb.buf.Bytes() }

func (sb *streamBuilder) raw(b ...byte) *streamBuilder {
	sb.buf.Write(b)
	return sb
}

func (sb *streamBuilder) tag(t TypeCode) *streamBuilder { return sb.raw(byte(t)) }

func (sb *streamBuilder) u8(v uint8) *streamBuilder { return sb.raw(v) }

func (sb *streamBuilder) u16(v uint16) *streamBuilder {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return sb.raw(b[:]...)
}

func (sb *streamBuilder) i16(v int16) *streamBuilder { return sb.u16(uint16(v)) }

func (sb *streamBuilder) i32(v int32) *streamBuilder {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(v))
	return sb.raw(b[:]...)
}

func (sb *streamBuilder) i64(v int64) *streamBuilder {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(v))
	return sb.raw(b[:]...)
}

// utf writes a u16-length-prefixed ASCII string (modified UTF-8 and
// plain ASCII coincide for the printable subset these tests use).
func (sb *streamBuilder) utf(s string) *streamBuilder {
	sb.u16(uint16(len(s)))
	sb.buf.WriteString(s)
	return sb
}

// backReference writes the wire-handle form (BaseWireHandle + handle).
func (sb *streamBuilder) backReference(handle int64) *streamBuilder {
	return sb.i32(int32(int64(BaseWireHandle) + handle))
}

// minimalClassDesc writes a complete TC_CLASSDESC for a named,
// fieldless, non-enum, non-externalizable class with no superclass:
// name, serialVersionUID=0, SC_SERIALIZABLE flag, zero fields, an
// empty annotation (just TC_ENDBLOCKDATA), and TC_NULL for super.
func (sb *streamBuilder) minimalClassDesc(name string) *streamBuilder {
	sb.tag(TcClassDesc)
	sb.utf(name)
	sb.i64(0)
	sb.u8(byte(ScSerializable))
	sb.i16(0)
	sb.tag(TcEndBlockData)
	sb.tag(TcNull)
	return sb
}
