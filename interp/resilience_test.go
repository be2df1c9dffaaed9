package interp_test

import (
	"testing"

	"github.com/vela-lang/layoutrt"
	"github.com/vela-lang/layoutrt/interp"
	"github.com/vela-lang/layoutrt/layoutbuild"
	"github.com/vela-lang/layoutrt/objmodel"
)

func TestResolveResilientAccessorsSinglePayloadFN(t *testing.T) {
	payloadLayout, err := layoutbuild.New(8).NativeStrong().End()
	if err != nil {
		t.Fatalf("build payload layout: %v", err)
	}
	payloadMD := &layoutrt.Metadata{LayoutString: payloadLayout, Size: 8, Align: 8}

	accessor := func(payload []byte) uint32 { return 0 }
	layout, err := layoutbuild.New(8).
		SinglePayloadEnumFN(1, accessor, 0, payloadMD).
		End()
	if err != nil {
		t.Fatalf("build layout: %v", err)
	}
	md := &layoutrt.Metadata{LayoutString: layout, Size: 8, Align: 8}

	if err := interp.ResolveResilientAccessors(md); err != nil {
		t.Fatalf("ResolveResilientAccessors: %v", err)
	}

	heap := objmodel.NewHeap()
	co := heap.Collaborators()
	h := heap.New(nil)
	buf := make([]byte, 8)
	putHandle(buf, 0, h)

	interp.Destroy(md, buf, co)
	if strong, _, _ := heap.Counts(h); strong != 0 {
		t.Errorf("h strong = %d, want 0", strong)
	}
}

func TestResolveResilientAccessorsIsIdempotent(t *testing.T) {
	payloadLayout, err := layoutbuild.New(8).NativeStrong().End()
	if err != nil {
		t.Fatalf("build payload layout: %v", err)
	}
	payloadMD := &layoutrt.Metadata{LayoutString: payloadLayout, Size: 8, Align: 8}

	accessor := func(payload []byte) uint32 { return 0 }
	layout, err := layoutbuild.New(8).
		SinglePayloadEnumFN(1, accessor, 0, payloadMD).
		End()
	if err != nil {
		t.Fatalf("build layout: %v", err)
	}
	md := &layoutrt.Metadata{LayoutString: layout, Size: 8, Align: 8}

	if err := interp.ResolveResilientAccessors(md); err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	firstPass := append([]byte(nil), md.LayoutString...)

	if err := interp.ResolveResilientAccessors(md); err != nil {
		t.Fatalf("second resolve: %v", err)
	}

	if string(firstPass) != string(md.LayoutString) {
		t.Errorf("second resolution pass mutated an already-resolved layout string")
	}
}

// Regression test: resolving a multi-payload FN entry must skip past its
// enum_size field and its entire case table, or the resolver desyncs and
// misreads whatever entry follows as something else entirely.
func TestResolveResilientAccessorsMultiPayloadFNSkipsTrailingEntry(t *testing.T) {
	emptyCase, err := layoutbuild.New(0).Skip(8).CaseProgram()
	if err != nil {
		t.Fatalf("build empty case: %v", err)
	}
	strongCase, err := layoutbuild.New(0).NativeStrong().CaseProgram()
	if err != nil {
		t.Fatalf("build strong case: %v", err)
	}

	accessor := func(payload []byte) uint32 { return 0 }
	layout, err := layoutbuild.New(16).
		MultiPayloadEnumFN(1, 8, accessor, [][]byte{emptyCase, strongCase}).
		NativeStrong().
		End()
	if err != nil {
		t.Fatalf("build layout: %v", err)
	}
	md := &layoutrt.Metadata{LayoutString: layout, Size: 16, Align: 8}

	if err := interp.ResolveResilientAccessors(md); err != nil {
		t.Fatalf("ResolveResilientAccessors: %v", err)
	}

	heap := objmodel.NewHeap()
	co := heap.Collaborators()
	fieldHandle := heap.New(nil)
	buf := make([]byte, 16)
	buf[0] = 0 // selects the empty case
	putHandle(buf, 8, fieldHandle)

	// If resolution had desynced on the case table, this would either
	// panic (misreading garbage as an opcode) or silently skip releasing
	// fieldHandle.
	interp.Destroy(md, buf, co)
	if strong, _, _ := heap.Counts(fieldHandle); strong != 0 {
		t.Errorf("fieldHandle strong = %d, want 0", strong)
	}
}

func TestResolveResilientAccessorsVerifiesResilientOpcode(t *testing.T) {
	payloadLayout, err := layoutbuild.New(8).NativeStrong().End()
	if err != nil {
		t.Fatalf("build payload layout: %v", err)
	}
	payloadMD := &layoutrt.Metadata{LayoutString: payloadLayout, Size: 8, Align: 8}

	resolved := func(enclosing *layoutrt.Metadata) *layoutrt.Metadata { return payloadMD }
	layout, err := layoutbuild.New(8).
		Resilient(resolved).
		End()
	if err != nil {
		t.Fatalf("build layout: %v", err)
	}
	md := &layoutrt.Metadata{LayoutString: layout, Size: 8, Align: 8}

	before := append([]byte(nil), md.LayoutString...)
	if err := interp.ResolveResilientAccessors(md); err != nil {
		t.Fatalf("ResolveResilientAccessors: %v", err)
	}
	// Resilient entries have no resolved counterpart opcode; the pass
	// only verifies the accessor and must leave the bytes untouched.
	if string(before) != string(md.LayoutString) {
		t.Errorf("ResolveResilientAccessors rewrote a Resilient entry in place")
	}
}

func TestResolveResilientAccessorsMissingAccessorFails(t *testing.T) {
	payloadLayout, err := layoutbuild.New(8).NativeStrong().End()
	if err != nil {
		t.Fatalf("build payload layout: %v", err)
	}
	payloadMD := &layoutrt.Metadata{LayoutString: payloadLayout, Size: 8, Align: 8}

	accessor := func(payload []byte) uint32 { return 0 }
	layout, err := layoutbuild.New(8).
		SinglePayloadEnumFN(1, accessor, 0, payloadMD).
		End()
	if err != nil {
		t.Fatalf("build layout: %v", err)
	}

	// Corrupt the relative-function field (leading 8-byte header, then the
	// entry's own 8-byte header, then xi_tag_bytes:u32, landing on the
	// relative_fn:u32 field) so it no longer resolves to any registered
	// accessor; simulates a layout string built against accessors the
	// current process never registered.
	md := &layoutrt.Metadata{LayoutString: append([]byte(nil), layout...), Size: 8, Align: 8}
	const relativeFnOffset = 8 + 8 + 4
	md.LayoutString[relativeFnOffset] ^= 0xff

	if err := interp.ResolveResilientAccessors(md); err == nil {
		t.Error("ResolveResilientAccessors succeeded against a corrupted accessor reference, want error")
	}
}
