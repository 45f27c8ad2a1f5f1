package pool

import (
	"fmt"
	"log"
	"os"
)

// Logger is the minimal logging interface the pool needs. Keeping it local
// avoids an import cycle with higher-level logging packages; any logger with
// an Errorf method satisfies it.
type Logger interface {
	Errorf(format string, args ...interface{})
}

// defaultLogger implements Logger using standard log
type defaultLogger struct {
	logger *log.Logger
}

func newDefaultLogger() Logger {
	return &defaultLogger{
		logger: log.New(os.Stderr, "[ERROR] ", log.LstdFlags|log.Lshortfile),
	}
}

func (l *defaultLogger) Errorf(format string, args ...interface{}) {
	l.logger.Output(3, fmt.Sprintf(format, args...))
}
