package objmodel

import (
	"unsafe"

	"github.com/vela-lang/layoutrt"
)

// Retain implements layoutrt.Retainer.
func (h *Heap) Retain(hd layoutrt.Handle) {
	obj := h.lookup(hd)
	if obj == nil {
		return
	}
	h.mu.Lock()
	obj.strong++
	h.mu.Unlock()
}

// Release implements layoutrt.Retainer. It runs obj's deinit the moment
// the strong count reaches zero, then drops the table entry once nothing
// else (an unowned or weak reference) still needs it reachable.
func (h *Heap) Release(hd layoutrt.Handle) {
	obj := h.lookup(hd)
	if obj == nil {
		return
	}
	h.mu.Lock()
	obj.strong--
	justDied := obj.strong == 0 && obj.alive
	if justDied {
		obj.alive = false
	}
	h.mu.Unlock()

	if justDied && obj.deinit != nil {
		obj.deinit()
	}
	h.collectIfDead(unsafe.Pointer(hd), obj)
}

// UnownedRetain implements layoutrt.Retainer.
func (h *Heap) UnownedRetain(hd layoutrt.Handle) {
	obj := h.lookup(hd)
	if obj == nil {
		return
	}
	h.mu.Lock()
	obj.unowned++
	h.mu.Unlock()
}

// UnownedRelease implements layoutrt.Retainer.
func (h *Heap) UnownedRelease(hd layoutrt.Handle) {
	obj := h.lookup(hd)
	if obj == nil {
		return
	}
	h.mu.Lock()
	obj.unowned--
	h.mu.Unlock()
	h.collectIfDead(unsafe.Pointer(hd), obj)
}

func readSlot(s layoutrt.WeakSlot) unsafe.Pointer {
	return *(*unsafe.Pointer)(s)
}

func writeSlot(s layoutrt.WeakSlot, v unsafe.Pointer) {
	*(*unsafe.Pointer)(s) = v
}

// WeakCopyInit implements layoutrt.WeakOps: dst starts tracking whatever
// src currently points to, gaining a weak-table reference if the target
// is still alive, or becoming nil if it has already deinitialized.
func (h *Heap) WeakCopyInit(dst, src layoutrt.WeakSlot) {
	target := readSlot(src)
	if target == nil {
		writeSlot(dst, nil)
		return
	}
	obj := h.lookup(layoutrt.Handle(target))
	h.mu.Lock()
	alive := obj != nil && obj.alive
	if alive {
		obj.weak++
	}
	h.mu.Unlock()
	if alive {
		writeSlot(dst, target)
	} else {
		writeSlot(dst, nil)
	}
}

// WeakTakeInit implements layoutrt.WeakOps: dst takes over src's weak
// reference outright, with no change to the weak count, and src is
// cleared.
func (h *Heap) WeakTakeInit(dst, src layoutrt.WeakSlot) {
	target := readSlot(src)
	writeSlot(dst, target)
	writeSlot(src, nil)
}

// WeakCopyAssign implements layoutrt.WeakOps: destroy dst's current
// reference, then copy-init it from src.
func (h *Heap) WeakCopyAssign(dst, src layoutrt.WeakSlot) {
	h.WeakDestroy(dst)
	h.WeakCopyInit(dst, src)
}

// WeakDestroy implements layoutrt.WeakOps.
func (h *Heap) WeakDestroy(w layoutrt.WeakSlot) {
	target := readSlot(w)
	if target == nil {
		return
	}
	obj := h.lookup(layoutrt.Handle(target))
	if obj == nil {
		return
	}
	h.mu.Lock()
	obj.weak--
	h.mu.Unlock()
	h.collectIfDead(target, obj)
}

// The Unknown* family treats every reference the same way a native
// strong/unowned/weak one is treated: this heap does not distinguish
// foreign objects from native ones, since it exists to exercise the
// interpreter's collaborator call sites, not to model a second runtime's
// object representation.

// UnknownRetain implements layoutrt.UnknownOps.
func (h *Heap) UnknownRetain(hd layoutrt.Handle) { h.Retain(hd) }

// UnknownRelease implements layoutrt.UnknownOps.
func (h *Heap) UnknownRelease(hd layoutrt.Handle) { h.Release(hd) }

// dst and src for the Unknown-unowned family are addresses of in-buffer
// slots holding a target handle, not object handles themselves, the same
// convention WeakSlot uses, reusing the Handle type only because
// UnknownOps was written against it (§6).

// UnknownUnownedCopyInit implements layoutrt.UnknownOps.
func (h *Heap) UnknownUnownedCopyInit(dst, src layoutrt.Handle) {
	target := readSlot(unsafe.Pointer(src))
	if target != nil {
		h.UnownedRetain(layoutrt.Handle(target))
	}
	writeSlot(unsafe.Pointer(dst), target)
}

// UnknownUnownedTakeAssign implements layoutrt.UnknownOps. It is only
// ever called to initialize uninitialized destination storage, so
// unlike WeakCopyAssign it never destroys a prior dst value first.
func (h *Heap) UnknownUnownedTakeAssign(dst, src layoutrt.Handle) {
	target := readSlot(unsafe.Pointer(src))
	writeSlot(unsafe.Pointer(dst), target)
}

// UnknownUnownedDestroy implements layoutrt.UnknownOps.
func (h *Heap) UnknownUnownedDestroy(hd layoutrt.Handle) {
	target := readSlot(unsafe.Pointer(hd))
	if target != nil {
		h.UnownedRelease(layoutrt.Handle(target))
	}
}

// UnknownWeakCopyInit implements layoutrt.UnknownOps.
func (h *Heap) UnknownWeakCopyInit(dst, src layoutrt.WeakSlot) { h.WeakCopyInit(dst, src) }

// UnknownWeakTakeInit implements layoutrt.UnknownOps.
func (h *Heap) UnknownWeakTakeInit(dst, src layoutrt.WeakSlot) { h.WeakTakeInit(dst, src) }

// UnknownWeakCopyAssign implements layoutrt.UnknownOps.
func (h *Heap) UnknownWeakCopyAssign(dst, src layoutrt.WeakSlot) { h.WeakCopyAssign(dst, src) }

// UnknownWeakDestroy implements layoutrt.UnknownOps.
func (h *Heap) UnknownWeakDestroy(w layoutrt.WeakSlot) { h.WeakDestroy(w) }

// BridgeRetain implements layoutrt.BridgeOps.
func (h *Heap) BridgeRetain(hd layoutrt.Handle) { h.Retain(hd) }

// BridgeRelease implements layoutrt.BridgeOps.
func (h *Heap) BridgeRelease(hd layoutrt.Handle) { h.Release(hd) }

// ErrorRetain implements layoutrt.ErrorOps.
func (h *Heap) ErrorRetain(hd layoutrt.Handle) { h.Retain(hd) }

// ErrorRelease implements layoutrt.ErrorOps.
func (h *Heap) ErrorRelease(hd layoutrt.Handle) { h.Release(hd) }

// BlockCopy implements layoutrt.BlockOps: blocks in this model are
// always heap-allocated already, so "copying" one is just taking another
// strong reference to the same handle.
func (h *Heap) BlockCopy(hd layoutrt.Handle) layoutrt.Handle {
	h.Retain(hd)
	return hd
}

// BlockRelease implements layoutrt.BlockOps.
func (h *Heap) BlockRelease(hd layoutrt.Handle) { h.Release(hd) }

// ObjCRetain implements layoutrt.ObjCOps.
func (h *Heap) ObjCRetain(hd layoutrt.Handle) { h.Retain(hd) }

// ObjCRelease implements layoutrt.ObjCOps.
func (h *Heap) ObjCRelease(hd layoutrt.Handle) { h.Release(hd) }

// Collaborators returns a layoutrt.Collaborators that routes every
// reference family through this single heap.
func (h *Heap) Collaborators() *layoutrt.Collaborators {
	return &layoutrt.Collaborators{
		Native:  h,
		Weak:    h,
		Unknown: h,
		Bridge:  h,
		Err:     h,
		Block:   h,
		ObjC:    h,
	}
}
