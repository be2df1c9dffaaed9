//go:build !amd64 && !arm64

package abi

// SpareBitsMask on 32-bit targets: no spare bits are reserved by this
// runtime's ABI, so the mask is a no-op.
const SpareBitsMask uintptr = 0

// ObjCReservedBitsMask marks a pointer as an Objective-C tagged pointer.
const ObjCReservedBitsMask uintptr = 0x1
