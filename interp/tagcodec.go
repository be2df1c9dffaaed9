package interp

import (
	"encoding/binary"

	"github.com/vela-lang/layoutrt"
)

// ReadTag returns the little-endian unsigned value of n bytes at addr
// within buf, for n in {1, 2, 4, 8} (§4.2). Any other byte count is
// structurally impossible for a well-formed layout string and raises a
// Fault (§7.1's "unreachable fault").
func ReadTag(buf []byte, addr int, n int) uint64 {
	switch n {
	case 1:
		return uint64(buf[addr])
	case 2:
		return uint64(binary.LittleEndian.Uint16(buf[addr : addr+2]))
	case 4:
		return uint64(binary.LittleEndian.Uint32(buf[addr : addr+4]))
	case 8:
		return binary.LittleEndian.Uint64(buf[addr : addr+8])
	default:
		layoutrt.Raise("TagByteCodec.ReadTag", "unsupported tag byte length %d", n)
		return 0
	}
}

// StoreTag is the inverse of ReadTag: it writes value as an n-byte
// little-endian word at addr within buf.
func StoreTag(buf []byte, addr int, value uint64, n int) {
	switch n {
	case 1:
		buf[addr] = uint8(value)
	case 2:
		binary.LittleEndian.PutUint16(buf[addr:addr+2], uint16(value))
	case 4:
		binary.LittleEndian.PutUint32(buf[addr:addr+4], uint32(value))
	case 8:
		binary.LittleEndian.PutUint64(buf[addr:addr+8], value)
	default:
		layoutrt.Raise("TagByteCodec.StoreTag", "unsupported tag byte length %d", n)
	}
}

// LoadEnumElement reads an extra-inhabitant discriminator of the given
// payload size: 1, 2, or 4 bytes are read directly, and any size of 4 or
// more is read as a 4-byte value (§4.2).
func LoadEnumElement(buf []byte, addr int, size int) uint64 {
	if size >= 4 {
		return ReadTag(buf, addr, 4)
	}
	return ReadTag(buf, addr, size)
}

// StoreEnumElement is the inverse of LoadEnumElement.
func StoreEnumElement(buf []byte, addr int, value uint64, size int) {
	if size >= 4 {
		StoreTag(buf, addr, value, 4)
		return
	}
	StoreTag(buf, addr, value, size)
}
