package layoutrt

// Metadata is the compiled type descriptor the interpreter consults
// whenever it needs to know a value's size, alignment, or how to recurse
// into a nested witness table (§3).
type Metadata struct {
	// LayoutString is the immutable byte-code program describing the
	// type's reference-bearing structure. Owned by the compiled module;
	// the interpreter only ever reads it, except through
	// interp.ResolveResilientAccessors, which rewrites this slice in
	// place.
	LayoutString []byte

	// Size is the total byte size of an instance of this type. After any
	// top-level engine returns, the cumulative address offset it walked
	// must equal Size (§3, §4.5).
	Size uintptr

	// Align is the required alignment of an instance of this type.
	Align uint8

	// IsBitwiseTakable reports whether a raw memcpy suffices to transfer
	// ownership of an instance (§GLOSSARY). When true, InitWithTake
	// bypasses the interpreter entirely.
	IsBitwiseTakable bool

	// IsValueInline reports whether an instance of this type stores its
	// payload directly in its value buffer, rather than boxing it on the
	// heap. Existential's delegation logic switches on this.
	IsValueInline bool

	// NumExtraInhabitants returns the number of extra-inhabitant bit
	// patterns available in this type's payload encoding, used by
	// Generic enum dialects. May be nil for types with none.
	NumExtraInhabitants func() int

	// VWDestroy, VWInitWithCopy, VWInitWithTake, and VWAssignWithCopy are
	// this type's own value-witness operations, consulted when a larger
	// type's layout string contains a Metatype, Existential, or Resilient
	// field whose payload type is this one.
	VWDestroy      func(addr []byte, md *Metadata)
	VWInitWithCopy func(dest, src []byte, md *Metadata)
	VWInitWithTake func(dest, src []byte, md *Metadata)
	VWAssignWithCopy func(dest, src []byte, md *Metadata)

	// GetEnumTagSinglePayload and StoreEnumTagSinglePayload back the Generic
	// single-payload enum dialect's extra-inhabitant check
	// (vw_getEnumTagSinglePayload / vw_storeEnumTagSinglePayload).
	GetEnumTagSinglePayload   func(addr []byte, numEmptyCases int) int
	StoreEnumTagSinglePayload func(addr []byte, tag, numEmptyCases int)
}
