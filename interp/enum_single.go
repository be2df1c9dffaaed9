package interp

import (
	"unsafe"

	"github.com/vela-lang/layoutrt"
)

// singlePayloadHandler is the recursive re-entry point every single-
// payload enum dialect calls into when the discriminator says the
// payload case is active: it walks the payload's own sub-layout against
// the same buffers and address offset the enum walker is using.
type singlePayloadHandler func(payloadMD *layoutrt.Metadata, payloadOff uintptr, bufs opBuffers)

func readPayloadMetadataWord(r *Reader) *layoutrt.Metadata {
	word := r.ReadUintptr()
	if word == 0 {
		return nil
	}
	return (*layoutrt.Metadata)(unsafe.Pointer(word)) //nolint:govet
}

// walkSinglePayloadEnum implements all four single-payload dialects for a
// single ref-op direction (destroy, init-copy, or init-take; assign is
// built separately as destroy+init-copy). Each dialect entry in the
// layout string is:
//
//	Simple:       [xi_tag_bytes:u32][num_empty_cases:u64][payload_md:uintptr]
//	FN:           [xi_tag_bytes:u32][relative_fn][num_empty_cases:u64][payload_md:uintptr]
//	FN-Resolved:  identical wire shape to FN; ResolveResilientAccessors
//	              has overwritten the relative_fn with a resolved marker
//	              whose value is not read
//	Generic:      [num_empty_cases:u64][payload_md:uintptr], consulting the
//	              payload metadata's GetEnumTagSinglePayload instead of a
//	              byte-level XI check
//
// In every dialect, the payload case is active when the stored
// extra-inhabitant value is numEmptyCases or greater: that range of
// values is never used to encode an empty case, so it means the bits at
// *off are the payload's own representation, not a spare bit pattern
// (§4.4, §4.7). A value below numEmptyCases selects that index's empty
// case, which carries no data and needs no recursion. The trailing
// payload_md word is always consumed, whether or not the payload case is
// active, since it is a fixed part of the entry's wire shape.
//
// readSrc selects which buffer the discriminant is read from, and
// governs whether an inactive case's bytes get copied. Destroy has only
// one live buffer, bufs.Dest, and passes false. Init-copy, init-take,
// and assign-copy's init-like phase pass true: their dest is either
// uninitialized or about to be overwritten, so the discriminant can only
// be trusted from bufs.Src, and an inactive case's storage still needs
// to reach dest by a plain copy, since no recursion will touch it.
func walkSinglePayloadEnum(kind layoutrt.RefCountingKind, md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, readSrc bool, handle singlePayloadHandler) {
	tagBuf := bufs.Dest
	if readSrc {
		tagBuf = bufs.Src
	}

	var payloadMD *layoutrt.Metadata
	var active bool

	switch kind {
	case layoutrt.SinglePayloadEnumSimple:
		xiTagBytes := int(r.ReadU32())
		numEmptyCases := r.ReadU64()
		payloadMD = readPayloadMetadataWord(r)
		tag := LoadEnumElement(tagBuf, int(*off), xiTagBytes)
		active = numEmptyCases == 0 || tag >= numEmptyCases

	case layoutrt.SinglePayloadEnumFN, layoutrt.SinglePayloadEnumFNResolved:
		xiTagBytes := int(r.ReadU32())
		if kind == layoutrt.SinglePayloadEnumFNResolved {
			r.ReadU32() // resolved marker, value ignored; the XI check below is byte-level
		} else {
			id := r.ReadRelativeFunc()
			lookupAccessor(id)(tagBuf[*off:]) // validates the accessor resolves; the XI check below is byte-level
		}
		numEmptyCases := r.ReadU64()
		payloadMD = readPayloadMetadataWord(r)
		tag := LoadEnumElement(tagBuf, int(*off), xiTagBytes)
		active = numEmptyCases == 0 || tag >= numEmptyCases

	case layoutrt.SinglePayloadEnumGeneric:
		numEmptyCases := r.ReadU64()
		payloadMD = readPayloadMetadataWord(r)
		if payloadMD == nil || payloadMD.GetEnumTagSinglePayload == nil {
			layoutrt.Raise("SinglePayloadEnumGeneric", "payload metadata missing GetEnumTagSinglePayload")
		}
		tag := payloadMD.GetEnumTagSinglePayload(tagBuf[*off:], int(numEmptyCases))
		active = tag == 0

	default:
		layoutrt.Raise("enum_single", "kind %s is not a single-payload dialect", kind)
	}

	switch {
	case active:
		handle(payloadMD, *off, bufs)
	case readSrc && payloadMD != nil:
		// The empty case carries no fields to recurse into, but its
		// storage is still live bytes that belong to dest now (BytecodeLayouts.cpp:447/470).
		copy(bufs.Dest[*off:*off+payloadMD.Size], bufs.Src[*off:*off+payloadMD.Size])
	}
	// A single-payload enum's storage is exactly its payload's storage:
	// the discriminator lives in the payload's own extra inhabitants, not
	// in additional bytes, so the enum occupies payloadMD.Size regardless
	// of which case is active (§4.3).
	if payloadMD != nil {
		*off += payloadMD.Size
	}
}

// SinglePayloadEnumAssignWithCopy implements assign as destroy-then-
// init-copy, matching the multi-payload walker and the top-level engines
// (§4.5): there is no dedicated assign dialect entry, so the enum's own
// discriminator is read twice, once per phase.
func SinglePayloadEnumAssignWithCopy(kind layoutrt.RefCountingKind, md *layoutrt.Metadata, r *Reader, off *uintptr, bufs opBuffers, co *layoutrt.Collaborators, destroy, initCopy singlePayloadHandler) {
	r.Modify(func(rr *Reader) {
		destOff := *off
		destBufs := opBuffers{Dest: bufs.Dest, Src: bufs.Dest}
		walkSinglePayloadEnum(kind, md, rr, &destOff, destBufs, false, destroy)
	})
	walkSinglePayloadEnum(kind, md, r, off, bufs, true, initCopy)
}
