package app

import (
	"os"
	"strconv"
	"sync/atomic"
)

// ATELIER_TEST_MODE short-circuits the binaries' startup so packages can be
// imported from tests without opening pools or sockets. Any truthy value
// (1, true, TRUE) counts.
const testModeEnv = "ATELIER_TEST_MODE"

// testMode caches the parsed flag; nil means not read yet.
var testMode atomic.Value

func readTestMode() bool {
	on, _ := strconv.ParseBool(os.Getenv(testModeEnv))
	testMode.Store(on)
	return on
}

// InTestMode reports whether the application should skip runtime side effects.
func InTestMode() bool {
	if v := testMode.Load(); v != nil {
		return v.(bool)
	}
	return readTestMode()
}

// RefreshTestMode re-reads the flag after the environment changes.
func RefreshTestMode() {
	readTestMode()
}
