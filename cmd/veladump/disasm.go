package main

import (
	"fmt"

	"github.com/vela-lang/layoutrt"
	"github.com/vela-lang/layoutrt/interp"
)

// Entry is one decoded layout-string entry, with the sub-programs of a
// multi-payload case table attached as Children. A single-payload
// entry's embedded metadata is shown only as an address in Detail; its
// layout string is not decoded. Disassembly walks every case
// structurally, unlike the interpreter itself, which only ever walks
// the one case a runtime discriminant selects.
type Entry struct {
	Offset   int
	Opcode   layoutrt.RefCountingKind
	Skip     uint64
	Detail   string
	Children []Entry
	// IsCaseHeader marks a synthetic entry standing in for one
	// multi-payload case's sub-program; Opcode is meaningless on it and
	// the tree view renders Detail alone instead.
	IsCaseHeader bool
}

// Disassemble decodes a complete layout string (header plus entry
// stream) into a flat list of top-level entries.
func Disassemble(layoutString []byte) ([]Entry, error) {
	if len(layoutString) < interp.HeaderSize {
		return nil, fmt.Errorf("layout string is %d bytes, shorter than the %d-byte header", len(layoutString), interp.HeaderSize)
	}
	r := interp.NewReader(layoutString[interp.HeaderSize:])
	return disassembleStream(r)
}

func disassembleStream(r *interp.Reader) ([]Entry, error) {
	var entries []Entry
	for {
		offset := r.Offset()
		opcode, skip := r.ReadEntryHeader()
		if opcode == layoutrt.End {
			entries = append(entries, Entry{Offset: offset, Opcode: opcode, Skip: skip})
			return entries, nil
		}

		e := Entry{Offset: offset, Opcode: opcode, Skip: skip}
		if err := decodeOperand(r, &e); err != nil {
			return entries, fmt.Errorf("entry at %d (%s): %w", offset, opcode, err)
		}
		entries = append(entries, e)
	}
}

// decodeOperand consumes opcode e.Opcode's operand fields from r, filling
// in e.Detail and, for enum dialects, e.Children. Plain ref-op opcodes
// carry no operand at all: End aside, only Metatype, Resilient, and the
// seven enum dialects have anything beyond the header word (§4.3).
func decodeOperand(r *interp.Reader, e *Entry) error {
	switch e.Opcode {
	case layoutrt.Metatype:
		md := r.ReadUintptr()
		e.Detail = fmt.Sprintf("payload_md=0x%x", md)

	case layoutrt.Resilient:
		id := r.ReadRelativeFunc()
		e.Detail = fmt.Sprintf("accessor_id=%d (unresolved until ResolveResilientAccessors verifies it)", id)

	case layoutrt.SinglePayloadEnumSimple:
		xiTagBytes := r.ReadU32()
		numEmpty := r.ReadU64()
		md := r.ReadUintptr()
		e.Detail = fmt.Sprintf("xi_tag_bytes=%d num_empty_cases=%d payload_md=0x%x", xiTagBytes, numEmpty, md)

	case layoutrt.SinglePayloadEnumFN:
		xiTagBytes := r.ReadU32()
		id := r.ReadRelativeFunc()
		numEmpty := r.ReadU64()
		md := r.ReadUintptr()
		e.Detail = fmt.Sprintf("xi_tag_bytes=%d accessor_id=%d num_empty_cases=%d payload_md=0x%x", xiTagBytes, id, numEmpty, md)

	case layoutrt.SinglePayloadEnumFNResolved:
		xiTagBytes := r.ReadU32()
		r.ReadU32() // resolved marker, opaque
		numEmpty := r.ReadU64()
		md := r.ReadUintptr()
		e.Detail = fmt.Sprintf("xi_tag_bytes=%d (resolved) num_empty_cases=%d payload_md=0x%x", xiTagBytes, numEmpty, md)

	case layoutrt.SinglePayloadEnumGeneric:
		numEmpty := r.ReadU64()
		md := r.ReadUintptr()
		e.Detail = fmt.Sprintf("num_empty_cases=%d payload_md=0x%x", numEmpty, md)

	case layoutrt.MultiPayloadEnumFN:
		numCases := r.ReadU32()
		tagBytes := r.ReadU32()
		id := r.ReadRelativeFunc()
		enumSize := r.ReadUintptr()
		e.Detail = fmt.Sprintf("num_cases=%d tag_bytes=%d accessor_id=%d enum_size=%d", numCases, tagBytes, id, enumSize)
		children, err := decodeCaseTable(r, int(numCases))
		if err != nil {
			return err
		}
		e.Children = children

	case layoutrt.MultiPayloadEnumFNResolved:
		numCases := r.ReadU32()
		tagBytes := r.ReadU32()
		r.ReadU32() // resolved marker, opaque
		enumSize := r.ReadUintptr()
		e.Detail = fmt.Sprintf("num_cases=%d tag_bytes=%d enum_size=%d (resolved)", numCases, tagBytes, enumSize)
		children, err := decodeCaseTable(r, int(numCases))
		if err != nil {
			return err
		}
		e.Children = children

	case layoutrt.MultiPayloadEnumGeneric:
		numCases := r.ReadU32()
		tagBytes := r.ReadU32()
		enumSize := r.ReadUintptr()
		e.Detail = fmt.Sprintf("num_cases=%d tag_bytes=%d enum_size=%d", numCases, tagBytes, enumSize)
		children, err := decodeCaseTable(r, int(numCases))
		if err != nil {
			return err
		}
		e.Children = children
	}
	return nil
}

// decodeCaseTable reads a multi-payload entry's per-case byte-length
// table and recursively disassembles every case's sub-program in turn,
// leaving r positioned immediately past the last case's bytes.
func decodeCaseTable(r *interp.Reader, numCases int) ([]Entry, error) {
	lengths := make([]int, numCases)
	for i := range lengths {
		lengths[i] = int(r.ReadU32())
	}

	cases := make([]Entry, numCases)
	for i, length := range lengths {
		start := r.Offset()
		sub, err := disassembleStream(r)
		if err != nil {
			return nil, fmt.Errorf("case %d: %w", i, err)
		}
		r.SeekTo(start + length)
		cases[i] = Entry{
			Offset:       start,
			Detail:       fmt.Sprintf("case %d (%d bytes)", i, length),
			Children:     sub,
			IsCaseHeader: true,
		}
	}
	return cases, nil
}
