package util

import (
	"log"
	"os"
)

// NewLogger returns the shared application logger. A single *log.Logger is
// injected everywhere rather than using the global default, so tests can
// substitute their own writer.
func NewLogger() *log.Logger {
	return log.New(os.Stdout, "", log.LstdFlags)
}
