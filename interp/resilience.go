package interp

import (
	"go.uber.org/zap"

	"github.com/vela-lang/layoutrt"
	"github.com/vela-lang/layoutrt/errors"
	"github.com/vela-lang/layoutrt/internal/wire"
)

// logger is the package-level structured logger. It defaults to
// zap.NewNop() until a caller installs a real one via SetLogger; no other
// package in this module logs.
var logger = zap.NewNop()

// SetLogger installs the *zap.Logger this package logs resolution events
// through.
func SetLogger(l *zap.Logger) {
	if l != nil {
		logger = l
	}
}

// ResolveResilientAccessors rewrites every SinglePayloadEnumFN and
// MultiPayloadEnumFN entry in md's layout string in place into its
// FN-Resolved form, once the accessor each entry's relative function
// pointer resolves to can actually be looked up. This mirrors
// swift_resolve_resilientAccessors: a one-shot, idempotent pass a caller
// runs exactly once per compiled type, after which the interpreter never
// calls an accessor again for that type's instances.
//
// Only the top-level entry stream is walked: a multi-payload entry's
// per-case sub-programs are skipped whole, so an FN entry nested inside a
// case is neither checked nor rewritten.
//
// Resilient opcode entries (as opposed to the enum FN dialects) carry no
// resolved counterpart opcode in this wire format: the spec only defines
// a resolved/unresolved pair for the enum dialects (§4.3), so this pass
// only verifies a Resilient entry's accessor is registered and logs it;
// the entry itself is unchanged and the engine re-resolves it on every
// call, which is correct but not free. A future opcode could add a
// "ResilientResolved" form the way the enum dialects have one, caching
// the resolved *Metadata inline instead of an accessor id.
//
// Calling ResolveResilientAccessors twice on an already-resolved layout
// string is a no-op, not an error: idempotence is required because
// callers that aren't sure whether resolution already ran need to call
// it unconditionally (Testable Property 7).
func ResolveResilientAccessors(md *layoutrt.Metadata) error {
	r := NewReader(md.LayoutString[wire.HeaderSize:])

	for {
		headerOffset := r.Offset()
		header := r.ReadU64()
		opcode, skip := wire.UnpackEntry(header)
		kind := layoutrt.RefCountingKind(opcode)

		if kind == layoutrt.End {
			return nil
		}

		switch kind {
		case layoutrt.Resilient:
			if err := verifyResilientAccessor(r, headerOffset, skip); err != nil {
				return errors.New(errors.PhaseResolve, errors.KindMissingAccessor).Opcode(kind.String()).Cause(err).Build()
			}
		case layoutrt.SinglePayloadEnumFN:
			if err := resolveSinglePayloadFNEntry(md, r, headerOffset); err != nil {
				return errors.New(errors.PhaseResolve, errors.KindMissingAccessor).Opcode(kind.String()).Cause(err).Build()
			}
		case layoutrt.MultiPayloadEnumFN:
			if err := resolveMultiPayloadFNEntry(md, r, headerOffset); err != nil {
				return errors.New(errors.PhaseResolve, errors.KindMissingAccessor).Opcode(kind.String()).Cause(err).Build()
			}
		default:
			skipNonFNFields(kind, r)
		}
	}
}

// verifyResilientAccessor confirms a Resilient entry's accessor id
// resolves and logs it; see the doc comment on ResolveResilientAccessors
// for why this opcode isn't rewritten in place.
func verifyResilientAccessor(r *Reader, headerOffset int, skip uint64) error {
	id := r.ReadRelativeFunc()
	if lookupResilientAccessorSafe(id) == nil {
		return errors.New(errors.PhaseResolve, errors.KindMissingAccessor).Detail("no accessor registered for id %d", id).Build()
	}
	logger.Debug("resilient accessor resolved",
		zap.Int("id", id),
		zap.Int("entry_offset", headerOffset),
		zap.Uint64("skip", skip),
	)
	return nil
}

func lookupResilientAccessorSafe(id int) ResilientAccessor {
	v, ok := resilientAccessors.Load(id)
	if !ok {
		return nil
	}
	return v.(ResilientAccessor)
}

func lookupAccessorSafe(id int) GetEnumTagFunc {
	v, ok := accessorTable.Load(id)
	if !ok {
		return nil
	}
	return v.(GetEnumTagFunc)
}

// resolveSinglePayloadFNEntry rewrites a SinglePayloadEnumFN entry into
// SinglePayloadEnumFNResolved in place: the relative-function-pointer
// field becomes a direct word recording that the accessor resolved, and
// the opcode byte of the entry header changes to match (§4.3's FN /
// FN-Resolved pair, §6's resolution contract).
func resolveSinglePayloadFNEntry(md *layoutrt.Metadata, r *Reader, headerOffset int) error {
	r.ReadU32() // xi_tag_bytes, unchanged by resolution
	fnFieldOffset := r.Offset()
	id := r.ReadRelativeFunc()
	if lookupAccessorSafe(id) == nil {
		return errors.New(errors.PhaseResolve, errors.KindMissingAccessor).Detail("no accessor registered for id %d", id).Build()
	}
	r.ReadU64()     // num_empty_cases, unchanged
	r.ReadUintptr() // payload_md, unchanged

	StoreTag(md.LayoutString, wire.HeaderSize+fnFieldOffset, 1, 4) // marks the field resolved; the FN-Resolved reader ignores its value
	rewriteOpcode(md.LayoutString, wire.HeaderSize+headerOffset, layoutrt.SinglePayloadEnumFNResolved)
	logger.Debug("single-payload enum FN resolved", zap.Int("entry_offset", headerOffset), zap.Int("accessor_id", id))
	return nil
}

// resolveMultiPayloadFNEntry is the multi-payload analog of
// resolveSinglePayloadFNEntry.
func resolveMultiPayloadFNEntry(md *layoutrt.Metadata, r *Reader, headerOffset int) error {
	numCases := int(r.ReadU32()) // num_payload_cases, unchanged
	r.ReadU32()                  // case_tag_bytes, unchanged
	fnFieldOffset := r.Offset()
	id := r.ReadRelativeFunc()
	if lookupAccessorSafe(id) == nil {
		return errors.New(errors.PhaseResolve, errors.KindMissingAccessor).Detail("no accessor registered for id %d", id).Build()
	}
	r.ReadUintptr() // enum_size, unchanged
	skipCaseTable(r, numCases)

	StoreTag(md.LayoutString, wire.HeaderSize+fnFieldOffset, 1, 4)
	rewriteOpcode(md.LayoutString, wire.HeaderSize+headerOffset, layoutrt.MultiPayloadEnumFNResolved)
	logger.Debug("multi-payload enum FN resolved", zap.Int("entry_offset", headerOffset), zap.Int("accessor_id", id))
	return nil
}

// rewriteOpcode overwrites the opcode byte of the entry header word at
// headerOffset within layoutString, preserving its skip field. This is
// the resolver's only mutation of a layout string; everywhere else in
// the package treats LayoutString as immutable.
func rewriteOpcode(layoutString []byte, headerOffset int, newOpcode layoutrt.RefCountingKind) {
	var word uint64
	for i := 0; i < 8; i++ {
		word |= uint64(layoutString[headerOffset+i]) << (8 * i)
	}
	_, skip := wire.UnpackEntry(word)
	newWord := wire.PackEntry(uint8(newOpcode), skip)
	for i := 0; i < 8; i++ {
		layoutString[headerOffset+i] = byte(newWord >> (8 * i))
	}
}

// skipNonFNFields advances r past the fixed fields of any entry this
// pass does not rewrite: already-resolved FN-Resolved entries, the
// Simple/Generic enum dialects (which never carry an accessor), and
// every plain ref-op opcode (which carries no operand at all beyond the
// header itself, except Metatype's inline metadata word).
func skipNonFNFields(kind layoutrt.RefCountingKind, r *Reader) {
	switch kind {
	case layoutrt.SinglePayloadEnumSimple:
		r.ReadU32()
		r.ReadU64()
		r.ReadUintptr()
	case layoutrt.SinglePayloadEnumFNResolved:
		r.ReadU32()
		r.ReadU32()
		r.ReadU64()
		r.ReadUintptr()
	case layoutrt.SinglePayloadEnumGeneric:
		r.ReadU64()
		r.ReadUintptr()
	case layoutrt.MultiPayloadEnumFNResolved:
		numCases := int(r.ReadU32())
		r.ReadU32()     // case_tag_bytes
		r.ReadU32()     // resolved marker, in place of relative_fn
		r.ReadUintptr() // enum_size
		skipCaseTable(r, numCases)
	case layoutrt.MultiPayloadEnumGeneric:
		numCases := int(r.ReadU32())
		r.ReadU32()     // case_tag_bytes
		r.ReadUintptr() // enum_size
		skipCaseTable(r, numCases)
	case layoutrt.Metatype:
		r.ReadUintptr()
	}
}
