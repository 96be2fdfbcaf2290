//go:build !treatz_release

package treatz

// strictContracts makes contract violations panic at the point of detection.
const strictContracts = true
