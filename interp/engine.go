package interp

import (
	"github.com/vela-lang/layoutrt"
	"github.com/vela-lang/layoutrt/internal/wire"
)

// direction selects which of the four ref-op dispatch tables an engine
// consults, and how it recurses into enum payload sub-programs.
type direction int

const (
	dirDestroy direction = iota
	dirInitCopy
	dirInitTake
	dirAssignCopy
)

// copySkipBytes carries the plain (non-reference) bytes a layout string's
// entry header skips over from src to dest, for whichever directions have
// a live src distinct from dest (§4.5's loop pseudocode; the original's
// handleRefCountsInitWithCopy does the equivalent memcpy). Destroy has no
// src, only a single buffer being torn down, so it never copies.
func copySkipBytes(d direction, bufs opBuffers, start, skip uintptr) {
	if skip == 0 || d == dirDestroy {
		return
	}
	copy(bufs.Dest[start:start+skip], bufs.Src[start:start+skip])
}

func tableFor(d direction) *[layoutrt.NumOpcodes]refOpFunc {
	switch d {
	case dirDestroy:
		return &destroyTable
	case dirInitCopy:
		return &initCopyTable
	case dirInitTake:
		return &initTakeTable
	case dirAssignCopy:
		return &assignCopyTable
	default:
		layoutrt.Raise("engine", "unknown direction %d", int(d))
		return nil
	}
}

// run drives the entry stream of md.LayoutString to completion in the
// given direction, dispatching plain byte skips, ref-op primitives, and
// enum sub-programs, and asserting on return (in debug builds) that the
// walked distance exactly covers md.Size (§4.5's postcondition).
func run(d direction, md *layoutrt.Metadata, bufs opBuffers, co *layoutrt.Collaborators) {
	r := NewReader(md.LayoutString[wire.HeaderSize:])
	var off uintptr

	for {
		header := r.ReadU64()
		opcode, skip := wire.UnpackEntry(header)
		copySkipBytes(d, bufs, off, uintptr(skip))
		off += uintptr(skip)
		kind := layoutrt.RefCountingKind(opcode)

		if kind == layoutrt.End {
			break
		}

		if kind.IsSinglePayloadEnum() {
			runSinglePayloadEntry(d, kind, md, r, &off, bufs, co)
			continue
		}
		if kind.IsMultiPayloadEnum() {
			runMultiPayloadEntry(d, kind, md, r, &off, bufs, co)
			continue
		}

		if int(kind) >= layoutrt.NumOpcodes {
			layoutrt.Raise("engine", "opcode %d is outside the dispatch tables", opcode)
		}
		table := tableFor(d)
		fn := table[kind]
		if fn == nil {
			layoutrt.Raise("engine", "opcode %s has no entry in the %d-direction table", kind, int(d))
		}
		fn(md, r, &off, bufs, co)
	}

	assertWalkedFullExtent(md, off)
}

// runSinglePayloadEntry recurses into the enum payload's own sub-layout
// by invoking run again, scoped to the payload type's metadata, which
// the caller embeds inline the same way Metatype does (a raw *Metadata
// pointer word, the last field of the dialect's entry). destroy-while-
// walking for assign is handled by the two-phase helpers in
// enum_single.go.
func runSinglePayloadEntry(d direction, kind layoutrt.RefCountingKind, md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	recurse := func(direction direction) singlePayloadHandler {
		return func(payloadMD *layoutrt.Metadata, payloadOff uintptr, innerBufs opBuffers) {
			runNested(direction, payloadMD, payloadOff, innerBufs, co)
		}
	}
	switch d {
	case dirDestroy:
		walkSinglePayloadEnum(kind, md, r, off, bufs, false, recurse(d))
	case dirInitCopy, dirInitTake:
		walkSinglePayloadEnum(kind, md, r, off, bufs, true, recurse(d))
	case dirAssignCopy:
		SinglePayloadEnumAssignWithCopy(kind, md, r, off, bufs, co, recurse(dirDestroy), recurse(dirInitCopy))
	}
}

// runMultiPayloadEntry mirrors runSinglePayloadEntry for multi-payload
// dialects: the resolved case's own sub-program is interpreted as a
// nested entry stream starting at the payload offset, using the same
// buffers and a fresh cursor over the case's byte range.
func runMultiPayloadEntry(d direction, kind layoutrt.RefCountingKind, md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	runCase := func(direction direction) func(sub *Reader, payloadOff uintptr, b opBuffers) {
		return func(sub *Reader, payloadOff uintptr, b opBuffers) {
			runNestedFromReader(direction, md, sub, payloadOff, b, co)
		}
	}
	switch d {
	case dirDestroy:
		walkMultiPayloadEnum(kind, md, r, off, bufs, false, func(caseIndex int, payloadOff uintptr, b opBuffers) {
			sub := NewReader(r.buf)
			sub.SeekTo(r.Offset())
			runCase(d)(sub, payloadOff, b)
		})
	case dirInitCopy, dirInitTake:
		walkMultiPayloadEnum(kind, md, r, off, bufs, true, func(caseIndex int, payloadOff uintptr, b opBuffers) {
			sub := NewReader(r.buf)
			sub.SeekTo(r.Offset())
			runCase(d)(sub, payloadOff, b)
		})
	case dirAssignCopy:
		MultiPayloadEnumAssignWithCopy(kind, md, r, off, bufs, co,
			func(sub *Reader, payloadOff uintptr, b opBuffers) {
				runCase(dirDestroy)(sub, payloadOff, b)
			},
			func(sub *Reader, payloadOff uintptr, b opBuffers) {
				runCase(dirInitCopy)(sub, payloadOff, b)
			},
		)
	}
}

// runNested continues walking a payload's own entry stream (for single-
// payload enums, which store the payload's full layout string inline via
// its Metadata) starting at payloadOff within the shared buffers.
func runNested(d direction, md *layoutrt.Metadata, payloadOff uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	if md == nil {
		return
	}
	sub := NewReader(md.LayoutString[wire.HeaderSize:])
	runWithOffset(d, md, sub, payloadOff, bufs, co)
}

// runNestedFromReader continues walking a multi-payload case's own
// sub-program, which lives directly in the enclosing layout string
// rather than behind a separate Metadata, using the reader already
// positioned at the case's first entry.
func runNestedFromReader(d direction, md *layoutrt.Metadata, sub *Reader, payloadOff uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	runWithOffset(d, md, sub, payloadOff, bufs, co)
}

func runWithOffset(d direction, md *layoutrt.Metadata, r *Reader, startOff uintptr, bufs opBuffers, co *layoutrt.Collaborators) {
	off := startOff
	for {
		header := r.ReadU64()
		opcode, skip := wire.UnpackEntry(header)
		copySkipBytes(d, bufs, off, uintptr(skip))
		off += uintptr(skip)
		kind := layoutrt.RefCountingKind(opcode)

		if kind == layoutrt.End {
			return
		}
		if kind.IsSinglePayloadEnum() {
			runSinglePayloadEntry(d, kind, md, r, &off, bufs, co)
			continue
		}
		if kind.IsMultiPayloadEnum() {
			runMultiPayloadEntry(d, kind, md, r, &off, bufs, co)
			continue
		}

		if int(kind) >= layoutrt.NumOpcodes {
			layoutrt.Raise("engine", "opcode %d is outside the dispatch tables", opcode)
		}
		table := tableFor(d)
		fn := table[kind]
		if fn == nil {
			layoutrt.Raise("engine", "opcode %s has no entry in the %d-direction table", kind, int(d))
		}
		fn(md, r, &off, bufs, co)
	}
}

// Destroy runs a type's destroy program over addr (§4.4).
func Destroy(md *layoutrt.Metadata, addr []byte, co *layoutrt.Collaborators) {
	run(dirDestroy, md, opBuffers{Dest: addr}, co)
}

// InitWithCopy initializes dest from src by copy, retaining every
// reference src holds (§4.4). Bitwise-takable types never reach this
// path from a move context, but InitWithCopy itself always walks the
// layout string, since src remains live afterward.
func InitWithCopy(md *layoutrt.Metadata, dest, src []byte, co *layoutrt.Collaborators) {
	run(dirInitCopy, md, opBuffers{Dest: dest, Src: src}, co)
}

// InitWithTake initializes dest from src by move: references transfer
// ownership without any retain/release traffic. When md.IsBitwiseTakable
// is set, this bypasses the interpreter entirely and does a raw memcpy,
// the fast path the spec calls out explicitly (§4.4, §GLOSSARY).
func InitWithTake(md *layoutrt.Metadata, dest, src []byte, co *layoutrt.Collaborators) {
	if md.IsBitwiseTakable {
		copy(dest[:md.Size], src[:md.Size])
		return
	}
	run(dirInitTake, md, opBuffers{Dest: dest, Src: src}, co)
}

// AssignWithCopy overwrites a live dest with a copy of src: every
// ref-op primitive retains src's reference and then releases dest's old
// one (§4.4, §4.5).
func AssignWithCopy(md *layoutrt.Metadata, dest, src []byte, co *layoutrt.Collaborators) {
	run(dirAssignCopy, md, opBuffers{Dest: dest, Src: src}, co)
}

// AssignWithTake overwrites a live dest by moving src into it: equivalent
// to Destroy(dest) followed by InitWithTake(dest, src), and implemented
// exactly that way (§4.4's defining identity, also Testable Property 5).
func AssignWithTake(md *layoutrt.Metadata, dest, src []byte, co *layoutrt.Collaborators) {
	Destroy(md, dest, co)
	InitWithTake(md, dest, src, co)
}

// ArrayDestroy runs Destroy pointwise over count contiguous elements
// starting at addr, each stride bytes apart (§4.4's array variants, §4.5,
// §6). stride is provided by the caller: it equals md.Size rounded up to
// md.Align, and may exceed md.Size when the element size isn't already a
// multiple of the alignment.
func ArrayDestroy(md *layoutrt.Metadata, addr []byte, count int, stride uintptr, co *layoutrt.Collaborators) {
	for i := 0; i < count; i++ {
		lo := uintptr(i) * stride
		Destroy(md, addr[lo:lo+md.Size], co)
	}
}

// ArrayInitWithCopy runs InitWithCopy pointwise over count elements,
// each stride bytes apart.
func ArrayInitWithCopy(md *layoutrt.Metadata, dest, src []byte, count int, stride uintptr, co *layoutrt.Collaborators) {
	for i := 0; i < count; i++ {
		lo := uintptr(i) * stride
		InitWithCopy(md, dest[lo:lo+md.Size], src[lo:lo+md.Size], co)
	}
}

// ArrayAssignWithCopy runs AssignWithCopy pointwise over count elements,
// each stride bytes apart.
func ArrayAssignWithCopy(md *layoutrt.Metadata, dest, src []byte, count int, stride uintptr, co *layoutrt.Collaborators) {
	for i := 0; i < count; i++ {
		lo := uintptr(i) * stride
		AssignWithCopy(md, dest[lo:lo+md.Size], src[lo:lo+md.Size], co)
	}
}
