package stockroom

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	Level:  log.WarnLevel,
	Prefix: "stockroom",
})

// SetLogger replaces the package logger. Conflict diagnostics and, when
// enabled, access tracing go through it.
func SetLogger(l *log.Logger) {
	logger = l
}

func componentName(c Component) string {
	return fmt.Sprintf("%T", c)
}
