//go:build !vela_debug

package interp

import "github.com/vela-lang/layoutrt"

// assertWalkedFullExtent is a no-op outside vela_debug builds, matching
// the hot path's "no user-visible checks" design (§7).
func assertWalkedFullExtent(*layoutrt.Metadata, uintptr) {}
