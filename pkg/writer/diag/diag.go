/*
Copyright 2025 The pdfcpu Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package diag is an opt-in structured diagnostic sink for the writer
// core's two-pass driver: two zap records per state-machine stage (spec.md
// §4.9), one when it begins and one when it ends or fails, the latter
// carrying its wall-clock duration. It is bridged into the driver the same way
// the teacher's internal/zap4echo bridges zap into echo's middleware chain
// — a thin adapter callers wire in explicitly, never a default.
package diag

import (
	"time"

	"go.uber.org/zap"
)

// Sink wraps a *zap.Logger scoped to one Driver.Save call.
type Sink struct {
	l *zap.Logger
}

// NewSink wraps l as a Sink.
func NewSink(l *zap.Logger) *Sink {
	return &Sink{l: l}
}

// NewDefaultSink returns a production JSON Sink.
func NewDefaultSink() (*Sink, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return NewSink(l), nil
}

// Stage begins timing one driver stage and returns the func that closes it
// out. Callers defer the returned func, passing the stage's outcome:
//
//	end := sink.Stage("MARK")
//	err := marker.MarkAll()
//	end(err)
func (s *Sink) Stage(name string) func(err error, fields ...zap.Field) {
	if s == nil || s.l == nil {
		return func(error, ...zap.Field) {}
	}
	start := time.Now()
	s.l.Info("stage begin", zap.String("stage", name))
	return func(err error, fields ...zap.Field) {
		fields = append(fields, zap.String("stage", name), zap.Duration("elapsed", time.Since(start)))
		if err != nil {
			s.l.Error("stage failed", append(fields, zap.Error(err))...)
			return
		}
		s.l.Info("stage end", fields...)
	}
}

// Sync flushes any buffered log entries, the way a caller would defer
// logger.Sync() on a raw *zap.Logger.
func (s *Sink) Sync() error {
	if s == nil || s.l == nil {
		return nil
	}
	return s.l.Sync()
}
