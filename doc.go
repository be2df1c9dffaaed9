// Package layoutrt is a runtime layout interpreter for Vela, an
// ahead-of-time-compiled managed-object language.
//
// Vela's compiler emits, for every aggregate type, a compact layout
// string: a byte-code program describing, in address order, the raw
// bytes, the strong/weak/unowned reference slots, the nested tagged
// unions ("enums"), the embedded metatype and existential slots, and the
// resiliently-opaque fields inside an instance of that type. This package
// is the small set of polymorphic primitives that execute that byte-code
// program against a raw memory buffer at run time, in place of a
// per-type, open-coded copy/destroy routine.
//
// # Architecture
//
//	layoutrt/              Root package: collaborator interfaces, Metadata, opcodes
//	├── interp/             The interpreter: reader, dispatch tables, engines
//	├── errors/             Structured errors for the resolver and layoutbuild
//	├── objmodel/           A synthetic managed heap implementing the collaborators
//	├── layoutbuild/        A debug-only layout-string assembler
//	└── cmd/veladump/       An interactive layout-string disassembler/stepper
//
// # Quick Start
//
// Build a layout string (normally emitted by the Vela compiler; here
// assembled by hand for illustration), compile it into a Metadata, and
// run the five top-level operations against raw buffers:
//
//	layout, err := layoutbuild.New(16).Skip(8).NativeStrong().End()
//	if err != nil {
//		return err
//	}
//	md := &layoutrt.Metadata{Size: 16, Align: 8, LayoutString: layout}
//	interp.InitWithCopy(md, dest, src, collaborators)
//	interp.Destroy(md, dest, collaborators)
//
// # Entry Points
//
// interp exposes Destroy, InitWithCopy, InitWithTake, AssignWithCopy,
// AssignWithTake, their array variants, the standalone enum tag API, and
// ResolveResilientAccessors.
//
// # Thread Safety
//
// Every top-level operation is single-threaded per invocation: it
// operates on caller-owned, non-overlapping memory ranges, and the layout
// string itself is immutable once compiled so any number of goroutines
// may read it concurrently. The resilience resolver mutates the layout
// string of the Metadata it is given in place and takes no lock, so it
// must not run concurrently with any other use of that Metadata.
//
// # Error Handling
//
// Layout strings are assumed compiler-generated and well-formed. There is
// no user-visible error path on the hot path: an opcode the dispatch
// tables do not recognize, or a read past the end of a layout string,
// panics with a Fault rather than returning an error. The resilience
// resolver and the debug-only layoutbuild.Builder are exceptions: they
// run before the hot path and return *errors.Error on failure.
package layoutrt
