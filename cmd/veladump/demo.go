package main

import (
	"github.com/vela-lang/layoutrt"
	"github.com/vela-lang/layoutrt/layoutbuild"
)

// buildDemoMetadata assembles a small but structurally varied layout
// string covering most opcode families, for -demo to disassemble when
// the caller has no real compiled type on hand.
func buildDemoMetadata() (*layoutrt.Metadata, error) {
	boxMD := &layoutrt.Metadata{Size: 8, Align: 8, IsBitwiseTakable: false}
	boxLayout, err := layoutbuild.New(8).NativeStrong().End()
	if err != nil {
		return nil, err
	}
	boxMD.LayoutString = boxLayout

	emptyCase, err := layoutbuild.New(0).CaseProgram()
	if err != nil {
		return nil, err
	}
	boxCase, err := layoutbuild.New(8).NativeStrong().CaseProgram()
	if err != nil {
		return nil, err
	}
	weakCase, err := layoutbuild.New(8).Weak().CaseProgram()
	if err != nil {
		return nil, err
	}

	layout, err := layoutbuild.New(32).
		NativeStrong().
		Skip(8).
		Weak().
		Skip(8).
		Unowned().
		Metatype(boxMD).
		SinglePayloadEnumSimple(1, 1, boxMD).
		MultiPayloadEnumGeneric(1, 8, [][]byte{emptyCase, boxCase, weakCase}).
		End()
	if err != nil {
		return nil, err
	}

	return &layoutrt.Metadata{
		LayoutString:     layout,
		Size:             32,
		Align:            8,
		IsBitwiseTakable: false,
	}, nil
}
