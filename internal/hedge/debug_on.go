//go:build debug

package hedge

import "fmt"

// verboseDebug controls debug output — enabled via -tags debug.
const verboseDebug = true

// debugPrintf prints debug messages when verboseDebug is enabled.
func debugPrintf(format string, args ...interface{}) {
	if verboseDebug {
		fmt.Printf(format, args...)
	}
}
