//go:build amd64 || arm64

package abi

// SpareBitsMask covers the pointer bits a 64-bit heap-object pointer never
// sets in practice (the top byte, reserved for tagging by the ABI this
// runtime targets). NativeStrong, Unowned, and ObjCStrong mask a read
// pointer with ^SpareBitsMask before handing it to a collaborator, and
// store the word back verbatim so any tag bits round-trip untouched.
const SpareBitsMask uintptr = 0xFF00_0000_0000_0000

// ObjCReservedBitsMask marks a pointer as an Objective-C tagged pointer:
// a small value packed directly into the pointer word, with no backing
// object to retain or release.
const ObjCReservedBitsMask uintptr = 0x1
