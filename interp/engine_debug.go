//go:build vela_debug

package interp

import "github.com/vela-lang/layoutrt"

// assertWalkedFullExtent enforces §4.5's postcondition: every top-level
// engine's cumulative address offset must equal the type's declared
// size when it finishes, as a Fault rather than silently tolerating a
// drift that would otherwise only surface as memory corruption much
// later. Built only under vela_debug; the hot path pays nothing for it
// in a release build (engine_release.go).
func assertWalkedFullExtent(md *layoutrt.Metadata, walked uintptr) {
	if walked != md.Size {
		layoutrt.Raise("engine", "walked %d bytes, want %d (type size)", uint64(walked), uint64(md.Size))
	}
}
