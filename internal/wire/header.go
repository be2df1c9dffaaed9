// Package wire defines the on-disk layout of the layout-string header and
// entry stream (spec §3, §6): fixed sizes the reader, the resilience
// resolver, and the layout builder all need to agree on.
package wire

// HeaderSize is the fixed-size header preceding the entry stream. The
// header in this implementation carries the declared size of the type the
// layout string describes, stored as a little-endian uint64, so a
// disassembler can sanity-check a layout string without a separate
// Metadata.
const HeaderSize = 8

// OpcodeShift is the bit position of the opcode within an entry's 64-bit
// header word; the remaining low bits are the skip distance.
const OpcodeShift = 56

// SkipMask isolates the skip-distance bits of an entry header word.
const SkipMask uint64 = (1 << OpcodeShift) - 1

// PackEntry combines an opcode and a skip distance into an entry header
// word.
func PackEntry(opcode uint8, skip uint64) uint64 {
	return uint64(opcode)<<OpcodeShift | (skip & SkipMask)
}

// UnpackEntry splits an entry header word into its opcode and skip
// distance.
func UnpackEntry(word uint64) (opcode uint8, skip uint64) {
	return uint8(word >> OpcodeShift), word & SkipMask
}
