// Package testing mutes request logging and pins the local zone to UTC for
// any test binary that blank-imports it. It must be imported before the
// router is first built, since the test-mode flag is read once.
package testing

import (
	"os"
	"time"
)

func init() {
	_ = os.Setenv("UNITDESK_TEST_MODE", "true")
	time.Local = time.UTC
}
