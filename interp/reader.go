// Package interp is the runtime layout interpreter: the reader, the
// ref-count dispatch tables, the enum walkers, the five top-level
// operation engines, the resilience resolver, and the standalone enum tag
// API. It is the package a caller compiles a layout string into a
// layoutrt.Metadata against and then invokes to walk memory buffers.
package interp

import (
	"encoding/binary"

	"github.com/vela-lang/layoutrt"
	"github.com/vela-lang/layoutrt/internal/wire"
)

// HeaderSize is the width, in bytes, of a layout string's fixed-size
// leading header (the declared size word) before its entry stream
// begins. It is the exported form of wire.HeaderSize for callers outside
// the interp tree that slice a raw layout string themselves.
const HeaderSize = wire.HeaderSize

// Reader is a sequential, peeking cursor over an immutable layout string
// (§4.1). All multi-byte reads are little-endian and unaligned.
type Reader struct {
	buf    []byte
	cursor int
}

// NewReader returns a Reader positioned at the start of buf. Callers pass
// the entry stream (past the fixed-size header), not the whole layout
// string.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Offset returns the reader's current cursor position within its buffer.
func (r *Reader) Offset() int { return r.cursor }

// SeekTo repositions the cursor to an absolute offset.
func (r *Reader) SeekTo(off int) { r.cursor = off }

func (r *Reader) need(n int) []byte {
	if r.cursor+n > len(r.buf) {
		layoutrt.Raise("ByteReader.read", "need %d bytes at offset %d, have %d", n, r.cursor, len(r.buf))
	}
	b := r.buf[r.cursor : r.cursor+n]
	r.cursor += n
	return b
}

// ReadU8 reads and consumes one byte.
func (r *Reader) ReadU8() uint8 {
	return r.need(1)[0]
}

// ReadU16 reads and consumes a little-endian uint16.
func (r *Reader) ReadU16() uint16 {
	return binary.LittleEndian.Uint16(r.need(2))
}

// ReadU32 reads and consumes a little-endian uint32.
func (r *Reader) ReadU32() uint32 {
	return binary.LittleEndian.Uint32(r.need(4))
}

// ReadU64 reads and consumes a little-endian uint64.
func (r *Reader) ReadU64() uint64 {
	return binary.LittleEndian.Uint64(r.need(8))
}

// ReadUintptr reads and consumes a pointer-width little-endian unsigned
// integer, the width layout strings use for sizes and counts (§3).
func (r *Reader) ReadUintptr() uintptr {
	return uintptr(r.ReadU64())
}

// Skip advances the cursor by n bytes without interpreting them.
func (r *Reader) Skip(n int) {
	if r.cursor+n > len(r.buf) {
		layoutrt.Raise("ByteReader.Skip", "skip %d bytes at offset %d, have %d", n, r.cursor, len(r.buf))
	}
	r.cursor += n
}

// PeekU64 reads an 8-byte little-endian value at a byte offset relative
// to the current cursor, without advancing it.
func (r *Reader) PeekU64(relOffset int) uint64 {
	off := r.cursor + relOffset
	if off+8 > len(r.buf) {
		layoutrt.Raise("ByteReader.PeekU64", "peek at offset %d, have %d", off, len(r.buf))
	}
	return binary.LittleEndian.Uint64(r.buf[off : off+8])
}

// ReadRelativeFunc reads a 32-bit signed offset and returns the absolute
// byte offset, within this reader's buffer, that it points to: the
// byte-string analog of a relative function pointer (§4.1, §6). The
// offset is relative to the position of the offset word itself, i.e. the
// cursor position before this read.
//
// Real relative function pointers also get signed with the function
// pointer key under pointer authentication; Go has no equivalent ABI
// feature to stub, so callers that need to materialize an actual callable
// value look the resolved offset up in a side table (see
// layoutbuild.Builder's Resilient, SinglePayloadEnumFN, and
// MultiPayloadEnumFN methods, and this package's accessor registries)
// rather than treating the offset as a jumpable address.
func (r *Reader) ReadRelativeFunc() int {
	base := r.cursor
	off := int32(r.ReadU32())
	return base + int(off)
}

// Modify calls f with this reader, then restores the cursor to whatever
// it was before the call, used to inspect an entry's payload without
// consuming it, so the caller can fall through to reading the entry's
// trailing fields itself (§4.1).
func (r *Reader) Modify(f func(*Reader)) {
	saved := r.cursor
	f(r)
	r.cursor = saved
}

// Remaining reports how many bytes are left unread.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.cursor
}

// ReadEntryHeader reads and consumes the next entry's header word,
// returning its opcode and skip-distance fields (§4.1). This is the
// exported form of the header unpack every engine loop in this package
// does inline, for callers outside the interp tree (such as a
// disassembler) that need to walk entries structurally without driving
// the interpreter itself.
func (r *Reader) ReadEntryHeader() (opcode layoutrt.RefCountingKind, skip uint64) {
	op, sk := wire.UnpackEntry(r.ReadU64())
	return layoutrt.RefCountingKind(op), sk
}
