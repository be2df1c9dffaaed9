package interp

import (
	"github.com/vela-lang/layoutrt"
)

// multiPayloadHandler recurses into one case's sub-program: given the
// resolved case index and the address offset the case payload starts at,
// it walks that case's own layout entries against the same buffers.
type multiPayloadHandler func(caseIndex int, payloadOff uintptr, bufs opBuffers)

// walkMultiPayloadEnum implements the three multi-payload dialects. Wire
// shape:
//
//	[num_payload_cases:u32][case_tag_bytes:u32]
//	FN:          [relative_fn][enum_size:uintptr]
//	FN-Resolved: [resolved_marker:u32][enum_size:uintptr]       (marker replaces relative_fn)
//	Generic:     [enum_size:uintptr]                            (consults md directly)
//	             [case_length:u32 x num_payload_cases][case 0 bytes][case 1 bytes]...
//
// enum_size is the enum's total storage size: the widest case's payload
// size plus any out-of-line extra tag bits, a property of the type as a
// whole rather than of whichever case the discriminant happens to select
// (§4.3). Unlike a single-payload enum, a multi-payload enum's storage
// can't be read off the active case's own metadata, since cases carry no
// Metadata of their own, only inline sub-programs.
//
// FN-Resolved and Generic read a case_tag_bytes-wide discriminator from
// the buffer, and FN calls its registered accessor, to select which of
// num_payload_cases sub-programs runs; the interpreter
// has no notion of "empty" multi-payload cases; every discriminant maps to
// some payload case (possibly a zero-size one).
//
// readSrc selects which buffer the discriminant is read from (bufs.Src
// for init-copy/init-take/assign-copy's init-like phase, bufs.Dest for
// destroy and assign's destroy phase; see walkSinglePayloadEnum). When
// true, it also carries the enum's own storage from src to dest before
// dispatching: unlike a single-payload enum, a multi-payload case's own
// sub-program only accounts for the bytes its ref-op entries touch, never
// the tag bits or a narrower case's slack within the widest case's
// enumSize, so those bytes need a plain copy the same way trailing
// padding does (BytecodeLayouts.cpp:447/470, §9(b)).
func walkMultiPayloadEnum(kind layoutrt.RefCountingKind, md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, readSrc bool, handle multiPayloadHandler) {
	numCases := int(r.ReadU32())
	tagBytes := int(r.ReadU32())

	tagBuf := bufs.Dest
	if readSrc {
		tagBuf = bufs.Src
	}

	var caseIdx int
	var enumSize uintptr

	switch kind {
	case layoutrt.MultiPayloadEnumFN:
		id := r.ReadRelativeFunc()
		enumSize = r.ReadUintptr()
		caseIdx = int(lookupAccessor(id)(tagBuf[*off:]))

	case layoutrt.MultiPayloadEnumFNResolved:
		r.ReadU32() // resolved marker, value ignored; the discriminant is read directly below
		enumSize = r.ReadUintptr()
		caseIdx = int(LoadEnumElement(tagBuf, int(*off), tagBytes))

	case layoutrt.MultiPayloadEnumGeneric:
		if md == nil {
			layoutrt.Raise("MultiPayloadEnumGeneric", "enclosing metadata required")
		}
		enumSize = r.ReadUintptr()
		caseIdx = int(LoadEnumElement(tagBuf, int(*off), tagBytes))

	default:
		layoutrt.Raise("enum_multi", "kind %s is not a multi-payload dialect", kind)
	}

	if readSrc {
		copy(bufs.Dest[*off:*off+enumSize], bufs.Src[*off:*off+enumSize])
	}
	dispatchMultiPayloadCase(md, r, off, bufs, numCases, caseIdx, handle)
	*off += enumSize
}

// dispatchMultiPayloadCase reads the per-case sub-program offset table,
// numCases consecutive u32 byte lengths, each the size in bytes of that
// case's own entry stream immediately following the table, seeks to the
// selected case's sub-program, and hands control to handle. Every other
// case's sub-program is skipped over untouched.
func dispatchMultiPayloadCase(md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, numCases, caseIdx int, handle multiPayloadHandler) {
	if caseIdx < 0 || caseIdx >= numCases {
		layoutrt.Raise("enum_multi", "case index %d out of range [0,%d)", caseIdx, numCases)
	}
	lengths := make([]int, numCases)
	for i := range lengths {
		lengths[i] = int(r.ReadU32())
	}
	tableEnd := r.Offset()
	subStart := tableEnd
	for i := 0; i < caseIdx; i++ {
		subStart += lengths[i]
	}
	r.SeekTo(subStart)
	handle(caseIdx, *off, bufs)
	r.SeekTo(tableEnd + sumLengths(lengths))
}

func sumLengths(lengths []int) int {
	total := 0
	for _, l := range lengths {
		total += l
	}
	return total
}

// skipCaseTable advances r past a multi-payload entry's per-case length
// table and every case's bytes, without interpreting any of them: the
// structural skip a caller that isn't selecting a case (the resilience
// resolver, a disassembler) needs instead of dispatchMultiPayloadCase's
// single-case seek.
func skipCaseTable(r *Reader, numCases int) {
	lengths := make([]int, numCases)
	for i := range lengths {
		lengths[i] = int(r.ReadU32())
	}
	r.Skip(sumLengths(lengths))
}

// MultiPayloadEnumDestroy runs destroy for a multi-payload enum entry:
// resolve the active case, then let the caller-supplied sub-interpreter
// walk that case's own destroy program against the payload bytes.
func MultiPayloadEnumDestroy(kind layoutrt.RefCountingKind, md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators, runCaseProgram func(sub *Reader, payloadOff uintptr, bufs opBuffers)) {
	walkMultiPayloadEnum(kind, md, r, off, bufs, false, func(caseIndex int, payloadOff uintptr, b opBuffers) {
		sub := NewReader(r.buf)
		sub.SeekTo(r.Offset())
		runCaseProgram(sub, payloadOff, b)
	})
}

// MultiPayloadEnumAssignWithCopy implements assign as destroy-then-init-
// copy over the destination's own discriminant for the destroy phase and
// the source's discriminant for the init-copy phase; the two phases may
// select different cases entirely, exactly as with any assign built from
// destroy+init (§4.5, §9).
//
// Assign-with-take does not pass through here: it is Destroy followed by
// InitWithTake. In every init-like phase, walkMultiPayloadEnum copies the
// entry's whole enum_size from src to dest before the selected case runs,
// so the copied extent is the same whichever case src or dest selects; no
// per-case trailing-bytes extent is computed.
func MultiPayloadEnumAssignWithCopy(kind layoutrt.RefCountingKind, md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators, runDestroyProgram, runCaseProgram func(sub *Reader, payloadOff uintptr, bufs opBuffers)) {
	r.Modify(func(rr *Reader) {
		destOff := *off
		destBufs := opBuffers{Dest: bufs.Dest, Src: bufs.Dest}
		walkMultiPayloadEnum(kind, md, rr, &destOff, destBufs, false, func(caseIndex int, payloadOff uintptr, b opBuffers) {
			sub := NewReader(rr.buf)
			sub.SeekTo(rr.Offset())
			runDestroyProgram(sub, payloadOff, b)
		})
	})
	walkMultiPayloadEnum(kind, md, r, off, bufs, true, func(caseIndex int, payloadOff uintptr, b opBuffers) {
		sub := NewReader(r.buf)
		sub.SeekTo(r.Offset())
		runCaseProgram(sub, payloadOff, b)
	})
}
