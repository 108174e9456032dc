// Package observe implements the ambient logging and optional telemetry
// channel: a writer-sink, bit-flagged-scope logger, plus the Prometheus
// collectors backing the optional instrumentation channel named in the
// hook surface.
package observe

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/movingc/igc/internal/arena"
	"github.com/prometheus/client_golang/prometheus"
)

// Scope is a bit flag identifying one log-worthy subsystem. Scopes are
// ORed together to select what a Logger prints.
type Scope uint32

const (
	ScopeCycle Scope = 1 << iota
	ScopeAlloc
	ScopeRoots
	ScopeFinalize

	ScopeNone Scope = 0
	ScopeAll  Scope = ScopeCycle | ScopeAlloc | ScopeRoots | ScopeFinalize
)

// Logger writes scoped, timestamped lines to an underlying io.Writer. The
// zero Logger discards everything (Scopes defaults to ScopeNone).
type Logger struct {
	w      io.Writer
	scopes Scope
}

// NewLogger returns a Logger writing lines matching any bit in scopes to
// w. Passing a nil w defaults to os.Stderr.
func NewLogger(w io.Writer, scopes Scope) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{w: w, scopes: scopes}
}

// IsEnabled reports whether scope is one of the scopes this Logger prints.
func (l *Logger) IsEnabled(scope Scope) bool {
	return l != nil && l.scopes&scope != 0
}

// Logf writes a scoped, formatted line if scope is enabled.
func (l *Logger) Logf(scope Scope, format string, args ...interface{}) {
	if !l.IsEnabled(scope) {
		return
	}
	fmt.Fprintf(l.w, "[%s] "+format+"\n", append([]interface{}{time.Now().UTC().Format(time.RFC3339Nano)}, args...)...)
}

// Telemetry wraps the optional Prometheus collectors mirroring an Arena's
// cycle statistics. A nil *Telemetry is valid and every method on it is a
// no-op, matching the hook surface's "optional" framing.
type Telemetry struct {
	registry *prometheus.Registry

	cycles            prometheus.Counter
	bytesCopied       prometheus.Counter
	objectsForwarded  prometheus.Counter
	finalizersDrained prometheus.Counter
}

// NewTelemetry constructs and registers the collector's Prometheus
// metrics into a fresh registry.
func NewTelemetry() *Telemetry {
	t := &Telemetry{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "igc", Name: "cycles_total", Help: "Completed collection cycles.",
		}),
		bytesCopied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "igc", Name: "bytes_copied_total", Help: "Bytes copied by relocation.",
		}),
		objectsForwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "igc", Name: "objects_forwarded_total", Help: "Objects forwarded by relocation.",
		}),
		finalizersDrained: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "igc", Name: "finalizers_drained_total", Help: "Finalizer callbacks run.",
		}),
	}
	t.registry.MustRegister(t.cycles, t.bytesCopied, t.objectsForwarded, t.finalizersDrained)
	return t
}

// Registry exposes the underlying prometheus.Registry for an embedder to
// serve (e.g. via promhttp.HandlerFor), kept decoupled from any transport.
func (t *Telemetry) Registry() *prometheus.Registry {
	if t == nil {
		return nil
	}
	return t.registry
}

// Observe updates every counter to match snap, a cumulative Arena
// snapshot; since Prometheus counters only increase, Observe adds the
// delta since the last observed snapshot.
func (t *Telemetry) Observe(snap arena.Snapshot, prev arena.Snapshot) {
	if t == nil {
		return
	}
	if d := snap.Cycles - prev.Cycles; d > 0 {
		t.cycles.Add(float64(d))
	}
	if d := snap.BytesCopied - prev.BytesCopied; d > 0 {
		t.bytesCopied.Add(float64(d))
	}
	if d := snap.ObjectsForwarded - prev.ObjectsForwarded; d > 0 {
		t.objectsForwarded.Add(float64(d))
	}
	if d := snap.FinalizersDrained - prev.FinalizersDrained; d > 0 {
		t.finalizersDrained.Add(float64(d))
	}
}
