//go:build !debug

package hedge

// verboseDebug controls debug output — const false enables dead-code elimination.
const verboseDebug = false

// debugPrintf is a no-op when verboseDebug is false.
func debugPrintf(format string, args ...interface{}) {}
