package app

import (
	"os"
	"strconv"
	"strings"
	"sync"
)

// TestModeEnv marks a process started by the test suite. Binaries return
// before opening Postgres, Redis or listeners when it is set.
const TestModeEnv = "BACKOFFICE_TEST_MODE"

var inTestMode = sync.OnceValue(func() bool {
	return parseTestMode(os.Getenv(TestModeEnv))
})

// InTestMode reports whether the process runs under the test suite.
func InTestMode() bool {
	return inTestMode()
}

// parseTestMode accepts the strconv.ParseBool spellings; anything else is off.
func parseTestMode(raw string) bool {
	on, err := strconv.ParseBool(strings.TrimSpace(raw))
	return err == nil && on
}
