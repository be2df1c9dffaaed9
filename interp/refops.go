package interp

import (
	"encoding/binary"
	"sync"
	"unsafe"

	"github.com/vela-lang/layoutrt"
	"github.com/vela-lang/layoutrt/interp/internal/abi"
)

// wordSize is the pointer width layout strings are compiled for. Every
// scenario in the spec is stated "on a 64-bit target"; this interpreter
// targets amd64/arm64 hosts exclusively.
const wordSize = 8

// NumWordsValueBuffer is the fixed word count of an existential's inline
// value buffer (§4.3).
const NumWordsValueBuffer = 3

// opBuffers carries the destination and, for everything but destroy, the
// source buffer a ref-op primitive operates on.
type opBuffers struct {
	Dest []byte
	Src  []byte
}

func readWord(buf []byte, addr int) uintptr {
	return uintptr(binary.LittleEndian.Uint64(buf[addr : addr+8]))
}

func writeWord(buf []byte, addr int, w uintptr) {
	binary.LittleEndian.PutUint64(buf[addr:addr+8], uint64(w))
}

// refOpFunc is one dispatch-table entry: given the enclosing metadata,
// the layout-string reader positioned just past the entry header, the
// running address offset, the buffers, and the collaborators, it performs
// the opcode's action and advances addrOffset past the field it consumed.
type refOpFunc func(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators)

var (
	destroyTable     [layoutrt.NumOpcodes]refOpFunc
	initCopyTable    [layoutrt.NumOpcodes]refOpFunc
	initTakeTable    [layoutrt.NumOpcodes]refOpFunc
	assignCopyTable  [layoutrt.NumOpcodes]refOpFunc
)

func init() {
	for _, t := range []*[layoutrt.NumOpcodes]refOpFunc{&destroyTable, &initCopyTable, &initTakeTable, &assignCopyTable} {
		t[layoutrt.End] = endOpNotDispatchable
		t[layoutrt.SinglePayloadEnumSimple] = enumOpUnsupportedInTable
		t[layoutrt.SinglePayloadEnumFN] = enumOpUnsupportedInTable
		t[layoutrt.SinglePayloadEnumFNResolved] = enumOpUnsupportedInTable
		t[layoutrt.SinglePayloadEnumGeneric] = enumOpUnsupportedInTable
		t[layoutrt.MultiPayloadEnumFN] = enumOpUnsupportedInTable
		t[layoutrt.MultiPayloadEnumFNResolved] = enumOpUnsupportedInTable
		t[layoutrt.MultiPayloadEnumGeneric] = enumOpUnsupportedInTable
	}

	destroyTable[layoutrt.Error] = errorDestroy
	destroyTable[layoutrt.NativeStrong] = nativeStrongDestroy
	destroyTable[layoutrt.Unowned] = unownedDestroy
	destroyTable[layoutrt.Weak] = weakDestroy
	destroyTable[layoutrt.Unknown] = unknownDestroy
	destroyTable[layoutrt.UnknownUnowned] = unknownUnownedDestroy
	destroyTable[layoutrt.UnknownWeak] = unknownWeakDestroy
	destroyTable[layoutrt.Bridge] = bridgeDestroy
	destroyTable[layoutrt.Block] = blockDestroy
	destroyTable[layoutrt.ObjCStrong] = objcStrongDestroy
	destroyTable[layoutrt.Metatype] = metatypeDestroy
	destroyTable[layoutrt.Existential] = existentialDestroy
	destroyTable[layoutrt.Resilient] = resilientDestroy
	destroyTable[layoutrt.Custom] = customUnsupported
	destroyTable[layoutrt.Generic] = genericUnsupported

	initCopyTable[layoutrt.Error] = errorRetain
	initCopyTable[layoutrt.NativeStrong] = nativeStrongInitCopy
	initCopyTable[layoutrt.Unowned] = unownedInitCopy
	initCopyTable[layoutrt.Weak] = weakInitCopy
	initCopyTable[layoutrt.Unknown] = unknownInitCopy
	initCopyTable[layoutrt.UnknownUnowned] = unknownUnownedInitCopy
	initCopyTable[layoutrt.UnknownWeak] = unknownWeakInitCopy
	initCopyTable[layoutrt.Bridge] = bridgeInitCopy
	initCopyTable[layoutrt.Block] = blockInitCopy
	initCopyTable[layoutrt.ObjCStrong] = objcStrongInitCopy
	initCopyTable[layoutrt.Metatype] = metatypeInitCopy
	initCopyTable[layoutrt.Existential] = existentialInitCopy
	initCopyTable[layoutrt.Resilient] = resilientInitCopy
	initCopyTable[layoutrt.Custom] = customUnsupported
	initCopyTable[layoutrt.Generic] = genericUnsupported

	initTakeTable[layoutrt.Error] = errorInitTake
	initTakeTable[layoutrt.NativeStrong] = nativeStrongInitTake
	initTakeTable[layoutrt.Unowned] = unownedInitTake
	initTakeTable[layoutrt.Weak] = weakInitTake
	initTakeTable[layoutrt.Unknown] = unknownInitTake
	initTakeTable[layoutrt.UnknownUnowned] = unknownUnownedInitTake
	initTakeTable[layoutrt.UnknownWeak] = unknownWeakInitTake
	initTakeTable[layoutrt.Bridge] = bridgeInitTake
	initTakeTable[layoutrt.Block] = blockInitTake
	initTakeTable[layoutrt.ObjCStrong] = objcStrongInitTake
	initTakeTable[layoutrt.Metatype] = metatypeInitTake
	initTakeTable[layoutrt.Existential] = existentialInitTake
	initTakeTable[layoutrt.Resilient] = resilientInitTake
	initTakeTable[layoutrt.Custom] = customUnsupported
	initTakeTable[layoutrt.Generic] = genericUnsupported

	assignCopyTable[layoutrt.Error] = errorAssignCopy
	assignCopyTable[layoutrt.NativeStrong] = nativeStrongAssignCopy
	assignCopyTable[layoutrt.Unowned] = unownedAssignCopy
	assignCopyTable[layoutrt.Weak] = weakAssignCopy
	assignCopyTable[layoutrt.Unknown] = unknownAssignCopy
	assignCopyTable[layoutrt.UnknownUnowned] = unknownUnownedAssignCopy
	assignCopyTable[layoutrt.UnknownWeak] = unknownWeakAssignCopy
	assignCopyTable[layoutrt.Bridge] = bridgeAssignCopy
	assignCopyTable[layoutrt.Block] = blockAssignCopy
	assignCopyTable[layoutrt.ObjCStrong] = objcStrongAssignCopy
	assignCopyTable[layoutrt.Metatype] = metatypeAssignCopy
	assignCopyTable[layoutrt.Existential] = existentialAssignCopy
	assignCopyTable[layoutrt.Resilient] = resilientAssignCopy
	assignCopyTable[layoutrt.Custom] = customUnsupported
	assignCopyTable[layoutrt.Generic] = genericUnsupported
}

func enumOpUnsupportedInTable(*layoutrt.Metadata, *Reader, *uintptr, opBuffers, *layoutrt.Collaborators) {
	layoutrt.Raise("refops", "enum opcodes are dispatched by the engine, not the ref-op table")
}

func endOpNotDispatchable(*layoutrt.Metadata, *Reader, *uintptr, opBuffers, *layoutrt.Collaborators) {
	layoutrt.Raise("refops", "End is a terminator, not a dispatchable opcode")
}

// customUnsupported and genericUnsupported implement Open Question (a):
// the Custom and Generic opcode slots exist in RefCountingKind and in
// every dispatch table, but the emitter contract for their operands is
// unspecified. Reaching them is a Fault, not silent success.
func customUnsupported(*layoutrt.Metadata, *Reader, *uintptr, opBuffers, *layoutrt.Collaborators) {
	layoutrt.Raise("Custom", "opcode has no defined operand contract")
}

func genericUnsupported(*layoutrt.Metadata, *Reader, *uintptr, opBuffers, *layoutrt.Collaborators) {
	layoutrt.Raise("Generic", "opcode has no defined operand contract")
}

// errorInitTake, unknownInitTake, blockInitTake, objcStrongInitTake, and
// bridgeInitTake move a reference word from src to dest without any
// retain/release traffic: ownership transfers, the source is abandoned
// without a release, so retaining in the destination would leak a
// reference.

func bridgeInitTake(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	word := readWord(bufs.Src, int(*off))
	writeWord(bufs.Dest, int(*off), word)
	*off += wordSize
}

func errorInitTake(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	word := readWord(bufs.Src, int(*off))
	writeWord(bufs.Dest, int(*off), word)
	*off += wordSize
}

func unknownInitTake(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	word := readWord(bufs.Src, int(*off))
	writeWord(bufs.Dest, int(*off), word)
	*off += wordSize
}

func blockInitTake(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	word := readWord(bufs.Src, int(*off))
	writeWord(bufs.Dest, int(*off), word)
	*off += wordSize
}

func objcStrongInitTake(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	word := readWord(bufs.Src, int(*off))
	writeWord(bufs.Dest, int(*off), word)
	*off += wordSize
}

// --- NativeStrong -----------------------------------------------------

func nativeStrongDestroy(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	word := readWord(bufs.Dest, int(*off))
	*off += wordSize
	co.Native.Release(layoutrt.Handle(abi.MaskSpareBits(word)))
}

func nativeStrongInitCopy(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	word := readWord(bufs.Src, int(*off))
	writeWord(bufs.Dest, int(*off), word)
	*off += wordSize
	co.Native.Retain(layoutrt.Handle(abi.MaskSpareBits(word)))
}

func nativeStrongInitTake(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	word := readWord(bufs.Src, int(*off))
	writeWord(bufs.Dest, int(*off), word)
	*off += wordSize
}

func nativeStrongAssignCopy(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	prev := readWord(bufs.Dest, int(*off))
	word := readWord(bufs.Src, int(*off))
	writeWord(bufs.Dest, int(*off), word)
	*off += wordSize
	co.Native.Retain(layoutrt.Handle(abi.MaskSpareBits(word)))
	co.Native.Release(layoutrt.Handle(abi.MaskSpareBits(prev)))
}

// --- Unowned ------------------------------------------------------------

func unownedDestroy(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	word := readWord(bufs.Dest, int(*off))
	*off += wordSize
	co.Native.UnownedRelease(layoutrt.Handle(abi.MaskSpareBits(word)))
}

func unownedInitCopy(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	word := readWord(bufs.Src, int(*off))
	writeWord(bufs.Dest, int(*off), word)
	*off += wordSize
	co.Native.UnownedRetain(layoutrt.Handle(abi.MaskSpareBits(word)))
}

func unownedInitTake(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	word := readWord(bufs.Src, int(*off))
	writeWord(bufs.Dest, int(*off), word)
	*off += wordSize
}

func unownedAssignCopy(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	prev := readWord(bufs.Dest, int(*off))
	word := readWord(bufs.Src, int(*off))
	writeWord(bufs.Dest, int(*off), word)
	*off += wordSize
	co.Native.UnownedRetain(layoutrt.Handle(abi.MaskSpareBits(word)))
	co.Native.UnownedRelease(layoutrt.Handle(abi.MaskSpareBits(prev)))
}

// --- Weak -----------------------------------------------------------------
// Weak slots are never raw-copied; they always go through the dedicated
// weak_* collaborator primitives (§4.3).

const weakSlotSize = wordSize

func weakSlot(buf []byte, off int) unsafe.Pointer {
	return unsafe.Pointer(&buf[off])
}

func weakDestroy(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	slot := weakSlot(bufs.Dest, int(*off))
	*off += weakSlotSize
	co.Weak.WeakDestroy(slot)
}

func weakInitCopy(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	dst, src := weakSlot(bufs.Dest, int(*off)), weakSlot(bufs.Src, int(*off))
	*off += weakSlotSize
	co.Weak.WeakCopyInit(dst, src)
}

func weakInitTake(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	dst, src := weakSlot(bufs.Dest, int(*off)), weakSlot(bufs.Src, int(*off))
	*off += weakSlotSize
	co.Weak.WeakTakeInit(dst, src)
}

func weakAssignCopy(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	dst, src := weakSlot(bufs.Dest, int(*off)), weakSlot(bufs.Src, int(*off))
	*off += weakSlotSize
	co.Weak.WeakCopyAssign(dst, src)
}

// --- Unknown (polymorphic, possibly-foreign object) ------------------------

func unknownDestroy(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	word := readWord(bufs.Dest, int(*off))
	*off += wordSize
	co.Unknown.UnknownRelease(layoutrt.Handle(unsafe.Pointer(word)))
}

func unknownInitCopy(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	word := readWord(bufs.Src, int(*off))
	writeWord(bufs.Dest, int(*off), word)
	*off += wordSize
	co.Unknown.UnknownRetain(layoutrt.Handle(unsafe.Pointer(word)))
}

func unknownAssignCopy(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	prev := readWord(bufs.Dest, int(*off))
	word := readWord(bufs.Src, int(*off))
	writeWord(bufs.Dest, int(*off), word)
	*off += wordSize
	co.Unknown.UnknownRetain(layoutrt.Handle(unsafe.Pointer(word)))
	co.Unknown.UnknownRelease(layoutrt.Handle(unsafe.Pointer(prev)))
}

// --- UnknownUnowned ---------------------------------------------------------

func unknownUnownedDestroy(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	h := layoutrt.Handle(unsafe.Pointer(&bufs.Dest[*off]))
	*off += wordSize
	co.Unknown.UnknownUnownedDestroy(h)
}

func unknownUnownedInitCopy(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	dst := layoutrt.Handle(unsafe.Pointer(&bufs.Dest[*off]))
	src := layoutrt.Handle(unsafe.Pointer(&bufs.Src[*off]))
	*off += wordSize
	co.Unknown.UnknownUnownedCopyInit(dst, src)
}

func unknownUnownedInitTake(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	dst := layoutrt.Handle(unsafe.Pointer(&bufs.Dest[*off]))
	src := layoutrt.Handle(unsafe.Pointer(&bufs.Src[*off]))
	*off += wordSize
	co.Unknown.UnknownUnownedTakeAssign(dst, src)
}

func unknownUnownedAssignCopy(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	dst := layoutrt.Handle(unsafe.Pointer(&bufs.Dest[*off]))
	co.Unknown.UnknownUnownedDestroy(dst)
	src := layoutrt.Handle(unsafe.Pointer(&bufs.Src[*off]))
	*off += wordSize
	co.Unknown.UnknownUnownedCopyInit(dst, src)
}

// --- UnknownWeak -------------------------------------------------------------

func unknownWeakDestroy(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	slot := weakSlot(bufs.Dest, int(*off))
	*off += weakSlotSize
	co.Unknown.UnknownWeakDestroy(slot)
}

func unknownWeakInitCopy(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	dst, src := weakSlot(bufs.Dest, int(*off)), weakSlot(bufs.Src, int(*off))
	*off += weakSlotSize
	co.Unknown.UnknownWeakCopyInit(dst, src)
}

func unknownWeakInitTake(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	dst, src := weakSlot(bufs.Dest, int(*off)), weakSlot(bufs.Src, int(*off))
	*off += weakSlotSize
	co.Unknown.UnknownWeakTakeInit(dst, src)
}

func unknownWeakAssignCopy(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	dst, src := weakSlot(bufs.Dest, int(*off)), weakSlot(bufs.Src, int(*off))
	*off += weakSlotSize
	co.Unknown.UnknownWeakCopyAssign(dst, src)
}

// --- Bridge -----------------------------------------------------------------

func bridgeDestroy(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	word := readWord(bufs.Dest, int(*off))
	*off += wordSize
	co.Bridge.BridgeRelease(layoutrt.Handle(unsafe.Pointer(word)))
}

func bridgeInitCopy(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	word := readWord(bufs.Src, int(*off))
	writeWord(bufs.Dest, int(*off), word)
	*off += wordSize
	co.Bridge.BridgeRetain(layoutrt.Handle(unsafe.Pointer(word)))
}

func bridgeAssignCopy(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	prev := readWord(bufs.Dest, int(*off))
	word := readWord(bufs.Src, int(*off))
	writeWord(bufs.Dest, int(*off), word)
	*off += wordSize
	co.Bridge.BridgeRetain(layoutrt.Handle(unsafe.Pointer(word)))
	co.Bridge.BridgeRelease(layoutrt.Handle(unsafe.Pointer(prev)))
}

// --- Error --------------------------------------------------------------

func errorDestroy(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	word := readWord(bufs.Dest, int(*off))
	*off += wordSize
	co.Err.ErrorRelease(layoutrt.Handle(unsafe.Pointer(word)))
}

func errorRetain(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	word := readWord(bufs.Src, int(*off))
	writeWord(bufs.Dest, int(*off), word)
	*off += wordSize
	co.Err.ErrorRetain(layoutrt.Handle(unsafe.Pointer(word)))
}

func errorAssignCopy(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	prev := readWord(bufs.Dest, int(*off))
	word := readWord(bufs.Src, int(*off))
	writeWord(bufs.Dest, int(*off), word)
	*off += wordSize
	co.Err.ErrorRetain(layoutrt.Handle(unsafe.Pointer(word)))
	co.Err.ErrorRelease(layoutrt.Handle(unsafe.Pointer(prev)))
}

// --- Block --------------------------------------------------------------

func blockDestroy(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	word := readWord(bufs.Dest, int(*off))
	*off += wordSize
	co.Block.BlockRelease(layoutrt.Handle(unsafe.Pointer(word)))
}

func blockInitCopy(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	word := readWord(bufs.Src, int(*off))
	copied := co.Block.BlockCopy(layoutrt.Handle(unsafe.Pointer(word)))
	writeWord(bufs.Dest, int(*off), uintptr(copied))
	*off += wordSize
}

func blockAssignCopy(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	prev := readWord(bufs.Dest, int(*off))
	word := readWord(bufs.Src, int(*off))
	copied := co.Block.BlockCopy(layoutrt.Handle(unsafe.Pointer(word)))
	writeWord(bufs.Dest, int(*off), uintptr(copied))
	*off += wordSize
	co.Block.BlockRelease(layoutrt.Handle(unsafe.Pointer(prev)))
}

// --- ObjCStrong -----------------------------------------------------------
// ObjC strong references additionally skip retain/release when the
// pointer has any reserved bits set (a tagged pointer, §4.3).

func objcStrongDestroy(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	word := readWord(bufs.Dest, int(*off))
	*off += wordSize
	if abi.IsObjCTagged(word) {
		return
	}
	co.ObjC.ObjCRelease(layoutrt.Handle(abi.MaskSpareBits(word)))
}

func objcStrongInitCopy(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	word := readWord(bufs.Src, int(*off))
	writeWord(bufs.Dest, int(*off), word)
	*off += wordSize
	if abi.IsObjCTagged(word) {
		return
	}
	co.ObjC.ObjCRetain(layoutrt.Handle(abi.MaskSpareBits(word)))
}

func objcStrongAssignCopy(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	prev := readWord(bufs.Dest, int(*off))
	word := readWord(bufs.Src, int(*off))
	writeWord(bufs.Dest, int(*off), word)
	*off += wordSize
	if !abi.IsObjCTagged(word) {
		co.ObjC.ObjCRetain(layoutrt.Handle(abi.MaskSpareBits(word)))
	}
	if !abi.IsObjCTagged(prev) {
		co.ObjC.ObjCRelease(layoutrt.Handle(abi.MaskSpareBits(prev)))
	}
}

// --- Metatype and Resilient -------------------------------------------------
// Both delegate to vw_* on a payload metadata pointer; the difference is
// how that pointer is obtained. Metatype reads it inline from the layout
// string entry itself (an operand baked in at compile time or by the
// resilience resolver); Resilient calls a relative function pointer.
//
// The payload *layoutrt.Metadata is embedded as a raw pointer word,
// mirroring how the real ABI embeds a Metadata* inline. The referenced
// Metadata must be kept reachable by the caller for the lifetime of any
// buffer holding it: the interpreter holds no reference of its own,
// exactly as it holds no reference to any other field it walks.

func readInlineMetadata(r *Reader) *layoutrt.Metadata {
	word := r.ReadUintptr()
	if word == 0 {
		return nil
	}
	return (*layoutrt.Metadata)(unsafe.Pointer(word)) //nolint:govet
}

func metatypeDestroy(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	payloadType := readInlineMetadata(r)
	if payloadType == nil || payloadType.VWDestroy == nil {
		layoutrt.Raise("Metatype", "payload metadata missing VWDestroy")
	}
	payloadType.VWDestroy(bufs.Dest[*off:], payloadType)
	*off += payloadType.Size
}

func metatypeInitCopy(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	payloadType := readInlineMetadata(r)
	if payloadType == nil || payloadType.VWInitWithCopy == nil {
		layoutrt.Raise("Metatype", "payload metadata missing VWInitWithCopy")
	}
	payloadType.VWInitWithCopy(bufs.Dest[*off:], bufs.Src[*off:], payloadType)
	*off += payloadType.Size
}

func metatypeInitTake(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	payloadType := readInlineMetadata(r)
	if payloadType == nil {
		layoutrt.Raise("Metatype", "payload metadata missing")
	}
	if payloadType.IsBitwiseTakable {
		copy(bufs.Dest[*off:int(*off)+int(payloadType.Size)], bufs.Src[*off:int(*off)+int(payloadType.Size)])
	} else if payloadType.VWInitWithTake != nil {
		payloadType.VWInitWithTake(bufs.Dest[*off:], bufs.Src[*off:], payloadType)
	} else {
		layoutrt.Raise("Metatype", "payload metadata missing VWInitWithTake")
	}
	*off += payloadType.Size
}

func metatypeAssignCopy(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	payloadType := readInlineMetadata(r)
	if payloadType == nil || payloadType.VWAssignWithCopy == nil {
		layoutrt.Raise("Metatype", "payload metadata missing VWAssignWithCopy")
	}
	payloadType.VWAssignWithCopy(bufs.Dest[*off:], bufs.Src[*off:], payloadType)
	*off += payloadType.Size
}

// GetEnumTagFunc computes the active case index of a single- or multi-
// payload enum from its raw payload bytes, standing in for the compiled
// getEnumTag(payloadPtr) routine the FN enum dialects call through a
// relative function pointer in the original ABI (§4.3, §6).
type GetEnumTagFunc func(payload []byte) uint32

// accessorTable resolves the offsets ByteReader.ReadRelativeFunc computes
// for the FN enum dialects to callables. Real relative function pointers
// address executable code; Go has no equivalent to embed inline, so
// layoutbuild.Builder registers each accessor here and encodes the
// resulting registry id as the "relative offset" a well-formed layout
// string carries, restoring it losslessly when the entry is read back.
var accessorTable sync.Map // int -> GetEnumTagFunc

// RegisterAccessor registers the accessor an FN-dialect enum entry with
// the given id resolves through.
func RegisterAccessor(id int, fn GetEnumTagFunc) {
	accessorTable.Store(id, fn)
}

func lookupAccessor(id int) GetEnumTagFunc {
	v, ok := accessorTable.Load(id)
	if !ok {
		layoutrt.Raise("enum_fn", "no accessor registered for id %d", id)
	}
	return v.(GetEnumTagFunc)
}

// resilientAccessors maps a registry id (encoded the same way FN enum
// accessors are, via ReadRelativeFunc) to the function that resolves a
// resilient field's concrete Metadata. Real Resilient opcodes call a
// relative function pointer with the enclosing type's generic-argument
// vector; here the accessor closes over whatever context it needs.
var resilientAccessors sync.Map // int -> ResilientAccessor

// ResilientAccessor resolves a resilient field's concrete Metadata for a
// given enclosing metadata.
type ResilientAccessor func(enclosing *layoutrt.Metadata) *layoutrt.Metadata

// RegisterResilientAccessor registers the accessor a Resilient opcode
// with the given id resolves through. Called once at module-load time by
// the code that assembles a layout string containing Resilient entries
// (normally the compiler; layoutbuild.Builder in tests).
func RegisterResilientAccessor(id int, fn ResilientAccessor) {
	resilientAccessors.Store(id, fn)
}

func lookupResilientAccessor(id int) ResilientAccessor {
	v, ok := resilientAccessors.Load(id)
	if !ok {
		layoutrt.Raise("Resilient", "no accessor registered for id %d", id)
	}
	return v.(ResilientAccessor)
}

func resolveResilientType(md *layoutrt.Metadata, r *Reader) *layoutrt.Metadata {
	id := r.ReadRelativeFunc()
	fn := lookupResilientAccessor(id)
	return fn(md)
}

func resilientDestroy(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	payloadType := resolveResilientType(md, r)
	if payloadType.VWDestroy == nil {
		layoutrt.Raise("Resilient", "resolved metadata missing VWDestroy")
	}
	payloadType.VWDestroy(bufs.Dest[*off:], payloadType)
	*off += payloadType.Size
}

func resilientInitCopy(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	payloadType := resolveResilientType(md, r)
	if payloadType.VWInitWithCopy == nil {
		layoutrt.Raise("Resilient", "resolved metadata missing VWInitWithCopy")
	}
	payloadType.VWInitWithCopy(bufs.Dest[*off:], bufs.Src[*off:], payloadType)
	*off += payloadType.Size
}

func resilientInitTake(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	payloadType := resolveResilientType(md, r)
	if payloadType.IsBitwiseTakable {
		copy(bufs.Dest[*off:int(*off)+int(payloadType.Size)], bufs.Src[*off:int(*off)+int(payloadType.Size)])
	} else if payloadType.VWInitWithTake != nil {
		payloadType.VWInitWithTake(bufs.Dest[*off:], bufs.Src[*off:], payloadType)
	} else {
		layoutrt.Raise("Resilient", "resolved metadata missing VWInitWithTake")
	}
	*off += payloadType.Size
}

func resilientAssignCopy(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	payloadType := resolveResilientType(md, r)
	if payloadType.VWAssignWithCopy == nil {
		layoutrt.Raise("Resilient", "resolved metadata missing VWAssignWithCopy")
	}
	payloadType.VWAssignWithCopy(bufs.Dest[*off:], bufs.Src[*off:], payloadType)
	*off += payloadType.Size
}

// --- Existential -------------------------------------------------------

func existentialSize() uintptr { return NumWordsValueBuffer * wordSize }

func existentialMetadataOf(buf []byte, off int) *layoutrt.Metadata {
	word := readWord(buf, off+int(existentialSize()))
	if word == 0 {
		return nil
	}
	return (*layoutrt.Metadata)(unsafe.Pointer(word)) //nolint:govet
}

func existentialDestroy(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	payloadType := existentialMetadataOf(bufs.Dest, int(*off))
	base := int(*off)
	if payloadType != nil && payloadType.IsValueInline {
		if payloadType.VWDestroy != nil {
			payloadType.VWDestroy(bufs.Dest[base:base+int(existentialSize())], payloadType)
		}
	} else {
		word := readWord(bufs.Dest, base)
		co.Native.Release(layoutrt.Handle(abi.MaskSpareBits(word)))
	}
	*off += existentialSize()
}

func existentialInitCopy(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	base := int(*off)
	payloadType := existentialMetadataOf(bufs.Src, base)
	copy(bufs.Dest[base:base+int(existentialSize())], bufs.Src[base:base+int(existentialSize())])
	if payloadType != nil && payloadType.IsValueInline {
		if payloadType.VWInitWithCopy != nil {
			payloadType.VWInitWithCopy(bufs.Dest[base:base+int(existentialSize())], bufs.Src[base:base+int(existentialSize())], payloadType)
		}
	} else {
		word := readWord(bufs.Src, base)
		co.Native.Retain(layoutrt.Handle(abi.MaskSpareBits(word)))
	}
	*off += existentialSize()
}

func existentialInitTake(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	base := int(*off)
	copy(bufs.Dest[base:base+int(existentialSize())], bufs.Src[base:base+int(existentialSize())])
	*off += existentialSize()
}

func existentialAssignCopy(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	base := int(*off)
	destBufs := opBuffers{Dest: bufs.Dest, Src: bufs.Dest}
	var destOff uintptr = uintptr(base)
	existentialDestroy(md, r, &destOff, destBufs, co)
	existentialInitCopy(md, r, off, bufs, co)
}
