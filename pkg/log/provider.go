// Package log provides global logger provider management.
//
// This file contains the package-level accessors used throughout churnlab.
// Estimators and pipeline stages obtain their loggers through GetLogger and
// GetLoggerWithName so that applications can swap the logging backend in one
// place (see SetLoggerProvider). When no provider has been configured, a
// zerolog-backed provider writing to stderr at Info level is installed
// lazily.

package log

import (
	"log/slog"
	"sync"
)

var (
	providerMu     sync.RWMutex
	globalProvider LoggerProvider
)

// SetLoggerProvider replaces the global provider used by the package-level
// logger accessors. Passing nil restores the lazy default provider.
//
// Example:
//
//	log.SetLoggerProvider(log.NewZerologProvider(log.ToLogLevel("debug")))
func SetLoggerProvider(p LoggerProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	globalProvider = p
}

// GetLogger returns the default logger from the global provider.
func GetLogger() Logger {
	return provider().GetLogger()
}

// GetLoggerWithName returns a named logger from the global provider.
// The name identifies the component emitting the logs, e.g.
// "tree.classifier" or "model_selection.grid_search".
func GetLoggerWithName(name string) Logger {
	return provider().GetLoggerWithName(name)
}

// SetGlobalLevel adjusts the minimum level on the global provider.
func SetGlobalLevel(level Level) {
	provider().SetLevel(level)
}

func provider() LoggerProvider {
	providerMu.RLock()
	p := globalProvider
	providerMu.RUnlock()
	if p != nil {
		return p
	}

	providerMu.Lock()
	defer providerMu.Unlock()
	if globalProvider == nil {
		globalProvider = NewZerologProvider(slog.LevelInfo)
	}
	return globalProvider
}
