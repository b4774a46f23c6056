// Package vlog is the per-process logging facility spec.md §6 treats
// as an external collaborator: only the semantic events it emits are
// part of the observable contract, not how they are shipped or stored.
// It wraps go.uber.org/zap so those events carry structured fields
// instead of free-form strings.
package vlog

import (
	"kvstore/internal/address"
	"kvstore/internal/clock"

	"go.uber.org/zap"
)

// Logger emits the semantic log events of spec.md §6: membership
// changes and per-operation CRUD outcomes.
type Logger struct {
	z *zap.Logger
}

// New wraps a zap.Logger. Pass zap.NewNop() in tests that don't care
// about log output.
func New(z *zap.Logger) *Logger {
	if z == nil {
		z = zap.NewNop()
	}
	return &Logger{z: z}
}

// WithRunID tags every subsequent event with a simulation run
// identifier, so logs from concurrently executing test runs don't
// interleave confusingly.
func (l *Logger) WithRunID(runID string) *Logger {
	return &Logger{z: l.z.With(zap.String("run_id", runID))}
}

// NodeAdd logs that `self` observed `added` join the membership table.
func (l *Logger) NodeAdd(self, added address.Address) {
	l.z.Info("node add",
		zap.String("self", self.String()),
		zap.String("added", added.String()),
	)
}

// NodeRemove logs that `self` evicted `removed` from its membership
// table after TREMOVE rounds in the FAILED state.
func (l *Logger) NodeRemove(self, removed address.Address) {
	l.z.Info("node remove",
		zap.String("self", self.String()),
		zap.String("removed", removed.String()),
	)
}

// Op identifies which CRUD operation a log event concerns.
type Op string

const (
	OpCreate Op = "CREATE"
	OpRead   Op = "READ"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
)

// Outcome logs one finalized CRUD outcome: logXxxSuccess/Fail in
// spec.md's vocabulary, parameterized by Op and success.
func (l *Logger) Outcome(self address.Address, op Op, success bool, isCoordinator bool, transID int, round clock.Round, key, value string) {
	fields := []zap.Field{
		zap.String("self", self.String()),
		zap.String("op", string(op)),
		zap.Bool("success", success),
		zap.Bool("is_coordinator", isCoordinator),
		zap.Int("trans_id", transID),
		zap.Int64("round", int64(round)),
		zap.String("key", key),
	}
	if value != "" {
		fields = append(fields, zap.String("value", value))
	}
	if success {
		l.z.Info("op success", fields...)
	} else {
		l.z.Info("op fail", fields...)
	}
}
