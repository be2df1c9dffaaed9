package objmodel

import (
	"testing"
	"unsafe"

	"github.com/vela-lang/layoutrt"
)

func TestNewStartsAtStrongOne(t *testing.T) {
	h := NewHeap()
	hd := h.New(nil)
	strong, unowned, weak := h.Counts(hd)
	if strong != 1 || unowned != 0 || weak != 0 {
		t.Errorf("counts = (%d,%d,%d), want (1,0,0)", strong, unowned, weak)
	}
	if !h.IsAlive(hd) {
		t.Error("freshly allocated handle is not alive")
	}
}

func TestRetainReleaseBalance(t *testing.T) {
	h := NewHeap()
	hd := h.New(nil)
	h.Retain(hd)
	h.Retain(hd)
	if strong, _, _ := h.Counts(hd); strong != 3 {
		t.Fatalf("strong = %d, want 3", strong)
	}
	h.Release(hd)
	h.Release(hd)
	if strong, _, _ := h.Counts(hd); strong != 1 {
		t.Fatalf("strong = %d, want 1", strong)
	}
	if !h.IsAlive(hd) {
		t.Error("object with strong=1 reported not alive")
	}
}

func TestReleaseRunsDeinitExactlyOnceAtStrongZero(t *testing.T) {
	h := NewHeap()
	runs := 0
	hd := h.New(func() { runs++ })
	h.Retain(hd)

	h.Release(hd)
	if runs != 0 {
		t.Fatalf("deinit ran at strong=1, runs = %d", runs)
	}
	if !h.IsAlive(hd) {
		t.Error("object with strong=1 after one release reported not alive")
	}

	h.Release(hd)
	if runs != 1 {
		t.Fatalf("runs = %d, want 1 after strong reached 0", runs)
	}
	if h.IsAlive(hd) {
		t.Error("object with strong=0 still reports alive")
	}
}

func TestUnownedRetainReleaseBalance(t *testing.T) {
	h := NewHeap()
	hd := h.New(nil)
	h.UnownedRetain(hd)
	h.UnownedRetain(hd)
	if _, unowned, _ := h.Counts(hd); unowned != 2 {
		t.Fatalf("unowned = %d, want 2", unowned)
	}
	h.UnownedRelease(hd)
	if _, unowned, _ := h.Counts(hd); unowned != 1 {
		t.Fatalf("unowned = %d, want 1", unowned)
	}
}

// An object kept alive only by an unowned reference after its strong count
// reaches zero still has a table entry (collectIfDead must not evict it
// while unowned > 0), and its deinit must already have run.
func TestUnownedReferenceOutlivesStrongZero(t *testing.T) {
	h := NewHeap()
	runs := 0
	hd := h.New(func() { runs++ })
	h.UnownedRetain(hd)

	h.Release(hd)
	if runs != 1 {
		t.Fatalf("runs = %d, want 1", runs)
	}
	if strong, unowned, _ := h.Counts(hd); strong != 0 || unowned != 1 {
		t.Fatalf("counts = (%d,_,%d), want (0,_,1)", strong, unowned)
	}

	h.UnownedRelease(hd)
	if strong, unowned, _ := h.Counts(hd); strong != 0 || unowned != 0 {
		t.Errorf("counts after final unowned release = (%d,_,%d), want (0,_,0)", strong, unowned)
	}
}

func newSlot(target layoutrt.Handle) (slot layoutrt.WeakSlot, backing *unsafe.Pointer) {
	backing = new(unsafe.Pointer)
	*backing = unsafe.Pointer(target)
	return unsafe.Pointer(backing), backing
}

func TestWeakCopyInitTracksLiveTarget(t *testing.T) {
	h := NewHeap()
	hd := h.New(nil)
	src, _ := newSlot(hd)
	dst, dstBacking := newSlot(nil)

	h.WeakCopyInit(dst, src)
	if _, _, weak := h.Counts(hd); weak != 1 {
		t.Fatalf("weak = %d, want 1", weak)
	}
	if *dstBacking != unsafe.Pointer(hd) {
		t.Error("dst slot does not point at hd after WeakCopyInit")
	}
}

func TestWeakCopyInitOfDeadTargetYieldsNil(t *testing.T) {
	h := NewHeap()
	hd := h.New(nil)
	h.Release(hd) // strong -> 0, object deinitializes with no weak references outstanding

	src, _ := newSlot(hd)
	dst, dstBacking := newSlot(nil)
	h.WeakCopyInit(dst, src)

	if *dstBacking != nil {
		t.Error("WeakCopyInit of a dead target did not clear dst")
	}
}

func TestWeakTakeInitMovesWithoutChangingCount(t *testing.T) {
	h := NewHeap()
	hd := h.New(nil)
	tracked, trackedBacking := newSlot(hd)
	h.WeakCopyInit(tracked, tracked)
	if _, _, weak := h.Counts(hd); weak != 1 {
		t.Fatalf("weak after establishing reference = %d, want 1", weak)
	}

	dst, dstBacking := newSlot(nil)
	h.WeakTakeInit(dst, tracked)

	if _, _, weak := h.Counts(hd); weak != 1 {
		t.Errorf("weak after WeakTakeInit = %d, want 1 (count must not change)", weak)
	}
	if *dstBacking != unsafe.Pointer(hd) {
		t.Error("dst does not hold the taken target")
	}
	if *trackedBacking != nil {
		t.Error("WeakTakeInit did not clear src")
	}
}

func TestWeakDestroyDropsCount(t *testing.T) {
	h := NewHeap()
	hd := h.New(nil)
	slot, _ := newSlot(hd)
	h.WeakCopyInit(slot, slot)
	if _, _, weak := h.Counts(hd); weak != 1 {
		t.Fatalf("weak = %d, want 1", weak)
	}

	h.WeakDestroy(slot)
	if _, _, weak := h.Counts(hd); weak != 0 {
		t.Errorf("weak after WeakDestroy = %d, want 0", weak)
	}
}

func TestWeakCopyAssignDestroysOldThenCopiesNew(t *testing.T) {
	h := NewHeap()
	oldTarget := h.New(nil)
	newTarget := h.New(nil)

	dst, dstBacking := newSlot(oldTarget)
	h.WeakCopyInit(dst, dst) // dst now weakly tracks oldTarget, weak=1 on oldTarget
	if _, _, weak := h.Counts(oldTarget); weak != 1 {
		t.Fatalf("oldTarget weak = %d, want 1", weak)
	}

	src, _ := newSlot(newTarget)
	h.WeakCopyAssign(dst, src)

	if _, _, weak := h.Counts(oldTarget); weak != 0 {
		t.Errorf("oldTarget weak after reassign = %d, want 0", weak)
	}
	if _, _, weak := h.Counts(newTarget); weak != 1 {
		t.Errorf("newTarget weak after reassign = %d, want 1", weak)
	}
	if *dstBacking != unsafe.Pointer(newTarget) {
		t.Error("dst does not point at newTarget after WeakCopyAssign")
	}
}

func TestUnknownUnownedCopyInitAndDestroy(t *testing.T) {
	h := NewHeap()
	hd := h.New(nil)
	srcBacking := unsafe.Pointer(hd)
	dstBacking := unsafe.Pointer(nil)

	h.UnknownUnownedCopyInit(layoutrt.Handle(unsafe.Pointer(&dstBacking)), layoutrt.Handle(unsafe.Pointer(&srcBacking)))
	if _, unowned, _ := h.Counts(hd); unowned != 1 {
		t.Fatalf("unowned after UnknownUnownedCopyInit = %d, want 1", unowned)
	}
	if dstBacking != unsafe.Pointer(hd) {
		t.Error("dst does not hold hd after UnknownUnownedCopyInit")
	}

	h.UnknownUnownedDestroy(layoutrt.Handle(unsafe.Pointer(&dstBacking)))
	if _, unowned, _ := h.Counts(hd); unowned != 0 {
		t.Errorf("unowned after UnknownUnownedDestroy = %d, want 0", unowned)
	}
}

func TestBlockCopyRetainsAndReturnsSameHandle(t *testing.T) {
	h := NewHeap()
	hd := h.New(nil)
	got := h.BlockCopy(hd)
	if got != hd {
		t.Errorf("BlockCopy returned %v, want the same handle %v", got, hd)
	}
	if strong, _, _ := h.Counts(hd); strong != 2 {
		t.Errorf("strong after BlockCopy = %d, want 2", strong)
	}
}

func TestCountsOfUnknownHandleAreZero(t *testing.T) {
	h := NewHeap()
	other := NewHeap()
	hd := other.New(nil)
	if strong, unowned, weak := h.Counts(hd); strong != 0 || unowned != 0 || weak != 0 {
		t.Errorf("counts for foreign handle = (%d,%d,%d), want (0,0,0)", strong, unowned, weak)
	}
	if h.IsAlive(hd) {
		t.Error("foreign handle reported alive")
	}
}

func TestCollaboratorsRoutesEveryFamilyToTheSameHeap(t *testing.T) {
	h := NewHeap()
	co := h.Collaborators()
	hd := h.New(nil)

	co.Native.Retain(hd)
	co.Bridge.BridgeRetain(hd)
	if strong, _, _ := h.Counts(hd); strong != 3 {
		t.Errorf("strong after Native+Bridge retains = %d, want 3", strong)
	}
}
