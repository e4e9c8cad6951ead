// Copyright 2020 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package obslog centralizes the zap logger construction used by the
// builder and the CLI, so every component logs in the same shape
// instead of each caller hand-rolling a zap.Config. Grounded on
// armchr-bot-go's cmd/main.go, which builds its logger once in main
// and threads it down via constructor parameters.
package obslog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures the process-wide logger.
type Options struct {
	// Development selects zap's human-readable console encoder and
	// debug level; otherwise the production JSON encoder is used.
	Development bool
	// Level overrides the default level ("info" in production mode,
	// "debug" in development mode). Accepts any zapcore.Level name.
	Level string
}

// New builds a *zap.Logger per opts. Construction failures fall back
// to zap.NewNop rather than propagating an error up through every
// caller that just wants a logger to pass along.
func New(opts Options) *zap.Logger {
	var cfg zap.Config
	if opts.Development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	if opts.Level != "" {
		var lvl zapcore.Level
		if err := lvl.Set(opts.Level); err == nil {
			cfg.Level = zap.NewAtomicLevelAt(lvl)
		}
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// Nop returns a logger that discards everything, for callers (mainly
// tests) that don't want build-progress noise.
func Nop() *zap.Logger { return zap.NewNop() }
