package app

import (
	"os"
	"strconv"
	"sync"
)

const testModeEnv = "UNITDESK_TEST_MODE"

// testMode is resolved once per process. Any strconv.ParseBool spelling is
// accepted; unparsable values count as off.
var testMode = sync.OnceValue(func() bool {
	on, err := strconv.ParseBool(os.Getenv(testModeEnv))
	return err == nil && on
})

// InTestMode reports whether per-request access logging is muted.
func InTestMode() bool {
	return testMode()
}
