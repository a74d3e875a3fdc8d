//go:build !convolver_debug

package convolver

// debugAssertFDLIndex is a no-op in release builds; see debug.go.
func debugAssertFDLIndex(_, _ int) {}
