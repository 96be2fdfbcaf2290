//go:build treatz_release

package treatz

// strictContracts is off in release builds; violations are logged and the
// affected subscription ends without a completion.
const strictContracts = false
