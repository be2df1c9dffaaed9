// Package layoutbuild is a fluent, debug-only assembler for layout
// strings. It exists for tests and for cmd/veladump to construct
// well-formed entry streams by hand, the way a compiler's code generator
// would, without hand-packing entry header words.
//
// Nothing in this package runs on the interpreter's hot path: the
// methods here return *errors.Error on misuse rather than panicking,
// since a malformed program under construction is a programmer mistake
// to report, not a Fault in already-compiled data (§7, contrasted with
// interp's panic-only contract).
package layoutbuild

import (
	"encoding/binary"
	"sync/atomic"
	"unsafe"

	"github.com/vela-lang/layoutrt"
	"github.com/vela-lang/layoutrt/errors"
	"github.com/vela-lang/layoutrt/interp"
	"github.com/vela-lang/layoutrt/internal/wire"
)

// Builder assembles a layout string one entry at a time. The zero value
// is not usable; construct one with New.
type Builder struct {
	declaredSize uint64
	entries      []byte
	pendingSkip  uint64
	err          *errors.Error
}

// New returns a Builder for a type of the given declared size: the value
// later written into Metadata.Size, and the figure the debug-build
// postcondition check verifies a completed walk against.
func New(declaredSize uint64) *Builder {
	return &Builder{declaredSize: declaredSize}
}

// Skip records n bytes of plain (POD) data to advance over before the
// next typed entry's action runs. Consecutive Skip calls accumulate.
func (b *Builder) Skip(n uint64) *Builder {
	b.pendingSkip += n
	return b
}

func (b *Builder) emit(opcode layoutrt.RefCountingKind, operand []byte) *Builder {
	if b.err != nil {
		return b
	}
	header := wire.PackEntry(uint8(opcode), b.pendingSkip)
	var hbuf [8]byte
	binary.LittleEndian.PutUint64(hbuf[:], header)
	b.entries = append(b.entries, hbuf[:]...)
	b.entries = append(b.entries, operand...)
	b.pendingSkip = 0
	return b
}

func (b *Builder) fail(detail string, args ...any) *Builder {
	if b.err == nil {
		b.err = errors.New(errors.PhaseBuild, errors.KindCorruptLayout).Detail(detail, args...).Build()
	}
	return b
}

// NativeStrong appends a native strong-reference entry.
func (b *Builder) NativeStrong() *Builder { return b.emit(layoutrt.NativeStrong, nil) }

// Unowned appends a native unowned-reference entry.
func (b *Builder) Unowned() *Builder { return b.emit(layoutrt.Unowned, nil) }

// Weak appends a native weak-reference entry.
func (b *Builder) Weak() *Builder { return b.emit(layoutrt.Weak, nil) }

// Unknown appends a polymorphic unknown-object entry.
func (b *Builder) Unknown() *Builder { return b.emit(layoutrt.Unknown, nil) }

// UnknownUnowned appends an unknown-unowned entry.
func (b *Builder) UnknownUnowned() *Builder { return b.emit(layoutrt.UnknownUnowned, nil) }

// UnknownWeak appends an unknown-weak entry.
func (b *Builder) UnknownWeak() *Builder { return b.emit(layoutrt.UnknownWeak, nil) }

// Bridge appends a bridge-object entry.
func (b *Builder) Bridge() *Builder { return b.emit(layoutrt.Bridge, nil) }

// Block appends an Objective-C block entry.
func (b *Builder) Block() *Builder { return b.emit(layoutrt.Block, nil) }

// ObjCStrong appends an Objective-C strong-reference entry.
func (b *Builder) ObjCStrong() *Builder { return b.emit(layoutrt.ObjCStrong, nil) }

// Error appends a boxed-error entry.
func (b *Builder) Error() *Builder { return b.emit(layoutrt.Error, nil) }

// Existential appends an existential-container entry; the buffer it
// walks is assumed to carry its own inline metadata pointer immediately
// after the value buffer, written separately by the caller into the
// instance data, not into the layout string.
func (b *Builder) Existential() *Builder { return b.emit(layoutrt.Existential, nil) }

// Metatype appends a Metatype entry whose payload value-witness
// operations come from payloadType, embedded inline as a raw pointer
// word (§4.3). The caller must keep payloadType reachable for as long as
// any Metadata embedding this layout string is in use.
func (b *Builder) Metatype(payloadType *layoutrt.Metadata) *Builder {
	if payloadType == nil {
		return b.fail("Metatype: payloadType must not be nil")
	}
	return b.emit(layoutrt.Metatype, uintptrBytes(payloadType))
}

// Resilient appends a Resilient entry whose payload type is resolved at
// call time by fn, registered under a freshly allocated accessor id.
func (b *Builder) Resilient(fn interp.ResilientAccessor) *Builder {
	if fn == nil {
		return b.fail("Resilient: accessor must not be nil")
	}
	id := b.allocAccessor()
	interp.RegisterResilientAccessor(id, fn)
	return b.emit(layoutrt.Resilient, relativeFuncBytes(b, 0, id))
}

// SinglePayloadEnumSimple appends a Simple-dialect single-payload enum
// entry (§4.3): xiTagBytes discriminator bytes, numEmptyCases empty
// cases, recursing into payloadType when the discriminator is
// numEmptyCases or greater (or numEmptyCases is zero).
func (b *Builder) SinglePayloadEnumSimple(xiTagBytes uint32, numEmptyCases uint64, payloadType *layoutrt.Metadata) *Builder {
	operand := make([]byte, 0, 16)
	operand = appendU32(operand, xiTagBytes)
	operand = appendU64(operand, numEmptyCases)
	operand = append(operand, uintptrBytes(payloadType)...)
	return b.emit(layoutrt.SinglePayloadEnumSimple, operand)
}

// SinglePayloadEnumGeneric appends a Generic-dialect single-payload enum
// entry, consulting payloadType.GetEnumTagSinglePayload instead of a
// byte-level check.
func (b *Builder) SinglePayloadEnumGeneric(numEmptyCases uint64, payloadType *layoutrt.Metadata) *Builder {
	operand := make([]byte, 0, 16)
	operand = appendU64(operand, numEmptyCases)
	operand = append(operand, uintptrBytes(payloadType)...)
	return b.emit(layoutrt.SinglePayloadEnumGeneric, operand)
}

// SinglePayloadEnumFN appends an FN-dialect single-payload enum entry,
// registering fn as the accessor its relative function pointer resolves
// to.
func (b *Builder) SinglePayloadEnumFN(xiTagBytes uint32, fn interp.GetEnumTagFunc, numEmptyCases uint64, payloadType *layoutrt.Metadata) *Builder {
	if fn == nil {
		return b.fail("SinglePayloadEnumFN: accessor must not be nil")
	}
	id := b.allocAccessor()
	interp.RegisterAccessor(id, fn)

	operand := make([]byte, 0, 24)
	operand = appendU32(operand, xiTagBytes)
	operand = append(operand, relativeFuncBytes(b, 4, id)...)
	operand = appendU64(operand, numEmptyCases)
	operand = append(operand, uintptrBytes(payloadType)...)
	return b.emit(layoutrt.SinglePayloadEnumFN, operand)
}

// MultiPayloadEnumGeneric appends a Generic-dialect multi-payload enum
// entry. cases supplies each case's already-assembled sub-program bytes,
// in discriminant order. enumSize is the enum's total storage size: the
// widest case's payload size plus any out-of-line extra tag bits.
func (b *Builder) MultiPayloadEnumGeneric(tagBytes uint32, enumSize uint64, cases [][]byte) *Builder {
	return b.emitMultiPayload(layoutrt.MultiPayloadEnumGeneric, tagBytes, enumSize, nil, cases)
}

// MultiPayloadEnumFN appends an FN-dialect multi-payload enum entry,
// registering fn as the case-selector accessor. enumSize is the enum's
// total storage size, as for MultiPayloadEnumGeneric.
func (b *Builder) MultiPayloadEnumFN(tagBytes uint32, enumSize uint64, fn interp.GetEnumTagFunc, cases [][]byte) *Builder {
	if fn == nil {
		return b.fail("MultiPayloadEnumFN: accessor must not be nil")
	}
	id := b.allocAccessor()
	interp.RegisterAccessor(id, fn)
	return b.emitMultiPayload(layoutrt.MultiPayloadEnumFN, tagBytes, enumSize, &id, cases)
}

func (b *Builder) emitMultiPayload(kind layoutrt.RefCountingKind, tagBytes uint32, enumSize uint64, accessorID *int, cases [][]byte) *Builder {
	if b.err != nil {
		return b
	}
	operand := make([]byte, 0, 64)
	operand = appendU32(operand, uint32(len(cases)))
	operand = appendU32(operand, tagBytes)
	if accessorID != nil {
		operand = append(operand, relativeFuncBytes(b, 8, *accessorID)...)
	}
	operand = appendU64(operand, enumSize)
	for _, c := range cases {
		operand = appendU32(operand, uint32(len(c)))
	}
	for _, c := range cases {
		operand = append(operand, c...)
	}
	return b.emit(kind, operand)
}

// CaseProgram terminates and returns b's entry stream as a bare
// sub-program: an End entry with no leading header word. Use this, not
// End, to build one case's bytes for MultiPayloadEnumGeneric or
// MultiPayloadEnumFN: a multi-payload case lives directly in the
// enclosing layout string rather than behind its own Metadata, so it
// carries no declared-size header of its own (§4.3).
func (b *Builder) CaseProgram() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	b.emit(layoutrt.End, nil)
	return b.entries, nil
}

// End terminates the entry stream and returns the assembled layout
// string, prefixed with the fixed-size header the Reader's NewReader
// callers expect (wire.HeaderSize bytes encoding the declared size).
func (b *Builder) End() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	b.emit(layoutrt.End, nil)

	out := make([]byte, wire.HeaderSize+len(b.entries))
	binary.LittleEndian.PutUint64(out[:wire.HeaderSize], b.declaredSize)
	copy(out[wire.HeaderSize:], b.entries)
	return out, nil
}

// accessorIDCounter allocates process-unique accessor ids across every
// Builder, so layout strings built by different Builder instances never
// collide in interp's global accessor tables.
var accessorIDCounter int64

func nextGlobalAccessorID() int {
	return int(atomic.AddInt64(&accessorIDCounter, 1))
}

// allocAccessor returns a process-unique accessor id for this builder's
// registrations.
func (b *Builder) allocAccessor() int {
	return nextGlobalAccessorID()
}

// relativeFuncBytes computes the 4-byte signed offset that, when read by
// Reader.ReadRelativeFunc from the position the field will occupy, yields
// id, inverting the interpreter's "base + offset" computation at build
// time. precedingBytes is the size of this entry's operand fields already
// appended before the relative-function field itself; the field's
// position in the finished entries stream (and hence the Reader's
// coordinate space, which starts at the first byte after the header) is
// len(b.entries), the bytes of already-emitted entries, plus 8 for this
// entry's own header word not yet appended, plus precedingBytes.
func relativeFuncBytes(b *Builder, precedingBytes int, id int) []byte {
	base := len(b.entries) + 8 + precedingBytes
	offset := int32(id - base)
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(offset))
	return buf
}

func appendU32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendU64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

// pinnedMetadata holds every Metadata whose address a layout string
// embeds. Storing it here makes the compiler allocate it on the heap,
// where its address never changes, rather than on a goroutine stack that
// may move.
var pinnedMetadata []*layoutrt.Metadata

func uintptrBytes(md *layoutrt.Metadata) []byte {
	pinnedMetadata = append(pinnedMetadata, md)
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(uintptr(unsafe.Pointer(md))))
	return buf
}
