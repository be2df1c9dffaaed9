package layoutrt

import "unsafe"

// Handle is an opaque reference to a managed object, as the interpreter
// sees it: a raw pointer-sized word that may carry spare-bit or tagged-
// pointer encoding. Collaborators are responsible for masking it
// themselves; the interpreter only masks the bits documented in §4.3 of
// the spec (spare bits on NativeStrong/Unowned/ObjCStrong) before handing
// the result to Retainer.
type Handle unsafe.Pointer

// Retainer is the collaborator interface for native strong and unowned
// references (§6). Implementations must tolerate a nil Handle.
type Retainer interface {
	Retain(h Handle)
	Release(h Handle)
	UnownedRetain(h Handle)
	UnownedRelease(h Handle)
}

// WeakSlot is the in-buffer representation of a weak reference. Its
// layout is opaque to the interpreter: WeakOps owns reading and writing
// it.
type WeakSlot = unsafe.Pointer

// WeakOps is the collaborator interface for native weak references (§6).
// WeakCopyInit and WeakTakeInit initialize dst from src; WeakCopyAssign
// assigns over a live dst; WeakDestroy tears down a live slot.
type WeakOps interface {
	WeakCopyInit(dst, src WeakSlot)
	WeakCopyAssign(dst, src WeakSlot)
	WeakTakeInit(dst, src WeakSlot)
	WeakDestroy(w WeakSlot)
}

// UnknownOps is the collaborator interface for polymorphic references
// that may point to a foreign (non-native) object: "unknown object" and
// "unknown unowned/weak" in the spec's vocabulary.
type UnknownOps interface {
	UnknownRetain(h Handle)
	UnknownRelease(h Handle)
	UnknownUnownedCopyInit(dst, src Handle)
	UnknownUnownedTakeAssign(dst, src Handle)
	UnknownUnownedDestroy(h Handle)
	UnknownWeakCopyInit(dst, src WeakSlot)
	UnknownWeakTakeInit(dst, src WeakSlot)
	UnknownWeakCopyAssign(dst, src WeakSlot)
	UnknownWeakDestroy(w WeakSlot)
}

// BridgeOps is the collaborator interface for bridge objects: references
// that may be native or foreign-bridged, distinguished by low tag bits
// (§4.3).
type BridgeOps interface {
	BridgeRetain(h Handle)
	BridgeRelease(h Handle)
}

// ErrorOps is the collaborator interface for the boxed error type. The
// interpreter treats Error payloads as opaque and forwards to these two
// primitives (§4.3).
type ErrorOps interface {
	ErrorRetain(h Handle)
	ErrorRelease(h Handle)
}

// BlockOps is the collaborator interface for Objective-C blocks.
type BlockOps interface {
	BlockCopy(h Handle) Handle
	BlockRelease(h Handle)
}

// ObjCOps is the collaborator interface for Objective-C strong
// references. Tagged pointers (low reserved bits set) skip retain/release
// entirely; see internal/abi.IsObjCTagged.
type ObjCOps interface {
	ObjCRetain(h Handle)
	ObjCRelease(h Handle)
}

// Collaborators aggregates every reference-family collaborator the
// interpreter needs. A nil field means the layout string is guaranteed
// never to use the corresponding opcode; dispatching to a nil
// collaborator is a method call on a nil interface, which panics with a
// Go runtime error rather than a Fault.
type Collaborators struct {
	Native  Retainer
	Weak    WeakOps
	Unknown UnknownOps
	Bridge  BridgeOps
	Err     ErrorOps
	Block   BlockOps
	ObjC    ObjCOps
}
