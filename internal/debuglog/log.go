// Package debuglog holds the SDK's internal debug logger. Output is discarded
// unless the host application opts in via checkend.ClientOptions.
package debuglog

import (
	"io"
	"log"
	"sync"
)

var (
	mu     sync.RWMutex
	logger = log.New(io.Discard, "[checkend] ", log.LstdFlags)
)

// SetLogger replaces the debug logger. Safe for concurrent use.
func SetLogger(l *log.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

// SetOutput redirects the current logger's output.
func SetOutput(w io.Writer) {
	mu.RLock()
	defer mu.RUnlock()
	logger.SetOutput(w)
}

// GetLogger returns the current logger instance.
func GetLogger() *log.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Printf calls Printf on the current logger.
func Printf(format string, args ...interface{}) {
	GetLogger().Printf(format, args...)
}

// Println calls Println on the current logger.
func Println(args ...interface{}) {
	GetLogger().Println(args...)
}
