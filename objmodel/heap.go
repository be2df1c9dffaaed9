// Package objmodel is a synthetic reference-counted heap that implements
// every collaborator interface layoutrt.Collaborators aggregates. It
// exists to give the interpreter something real to retain, release, and
// weak-reference during tests and the veladump CLI, standing in for
// whatever managed-object runtime a real embedder of layoutrt would
// supply.
//
// A Heap tracks one refcounted object family. Separate reference
// families (native, bridge, error, block, ObjC) can share a Heap or use
// independent ones; Heap.Collaborators in this package wires one Heap to
// every family for simplicity, which is enough to exercise all of the
// interpreter's collaborator call sites.
package objmodel

import (
	"sync"
	"unsafe"

	"github.com/vela-lang/layoutrt"
)

// object is a heap entry's control block: refcounts and liveness, mirror
// of Swift's HeapObject header plus the weak side-table entry it keeps
// alive past deinitialization.
type object struct {
	strong  int32
	unowned int32
	weak    int32
	alive   bool
	deinit  func()
}

// Heap is an in-memory object table keyed by the object's own address,
// the same role resource.LocalBackend plays for WASM resource handles:
// a mutex-guarded table plus a free-list-shaped deletion path, adapted
// here to track refcounts rather than borrow counts.
type Heap struct {
	mu    sync.Mutex
	table map[unsafe.Pointer]*object
}

// NewHeap returns an empty heap.
func NewHeap() *Heap {
	return &Heap{table: make(map[unsafe.Pointer]*object)}
}

// New allocates a heap object with a strong count of one and returns its
// handle. deinit, if non-nil, runs exactly once, when the strong count
// first reaches zero.
func (h *Heap) New(deinit func()) layoutrt.Handle {
	obj := &object{strong: 1, alive: true, deinit: deinit}
	ptr := unsafe.Pointer(obj)

	h.mu.Lock()
	h.table[ptr] = obj
	h.mu.Unlock()

	return layoutrt.Handle(ptr)
}

// IsAlive reports whether h's target has not yet run its deinit
// (strong count has not reached zero). A handle to an object this heap
// never allocated, or a nil handle, is never alive.
func (h *Heap) IsAlive(hd layoutrt.Handle) bool {
	obj := h.lookup(hd)
	if obj == nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return obj.alive
}

// Counts returns the current strong, unowned, and weak counts for hd, for
// test assertions. A handle with no entry reports all zeros.
func (h *Heap) Counts(hd layoutrt.Handle) (strong, unowned, weak int32) {
	obj := h.lookup(hd)
	if obj == nil {
		return 0, 0, 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return obj.strong, obj.unowned, obj.weak
}

func (h *Heap) lookup(hd layoutrt.Handle) *object {
	if hd == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.table[unsafe.Pointer(hd)]
}

// collectIfDead removes obj's table entry once every count that can keep
// it reachable has dropped to zero, the same "entry becomes eligible for
// the free list" transition backend_local.go's Drop makes explicit.
func (h *Heap) collectIfDead(ptr unsafe.Pointer, obj *object) {
	h.mu.Lock()
	dead := obj.strong == 0 && obj.unowned == 0 && obj.weak == 0
	if dead {
		delete(h.table, ptr)
	}
	h.mu.Unlock()
}
