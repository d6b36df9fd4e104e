package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ixado-dev/ixado/pkg/telemetry"
)

const (
	defaultMaxSizeBytes = 10 * 1024 * 1024
	defaultMaxRotations = 5
)

// Logger appends redacted audit entries to a rotating JSONL file. It holds
// no in-memory buffer — every Append is a durable file write, matching the
// single-process single-writer append-only file store this package is
// grounded on.
type Logger struct {
	path         string
	maxSizeBytes int64
	maxRotations int
	metrics      *telemetry.Metrics
}

// Option configures a Logger.
type Option func(*Logger)

// WithMaxSizeBytes overrides the default 10 MiB rotation threshold.
func WithMaxSizeBytes(n int64) Option {
	return func(l *Logger) { l.maxSizeBytes = n }
}

// WithMaxRotations overrides the default keep-window of 5 rotated files.
func WithMaxRotations(n int) Option {
	return func(l *Logger) { l.maxRotations = n }
}

// WithMetrics attaches the ambient telemetry counters. A Logger built
// without this option records nothing — metrics are a best-effort
// observability layer, never load-bearing for correctness.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(l *Logger) { l.metrics = m }
}

// ResolvePath returns the IXADO_AUDIT_LOG_FILE override if set, otherwise
// "<cwd>/.ixado/audit.log".
func ResolvePath() (string, error) {
	if v := os.Getenv("IXADO_AUDIT_LOG_FILE"); v != "" {
		return v, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("audit: resolving cwd: %w", err)
	}
	return filepath.Join(cwd, ".ixado", "audit.log"), nil
}

// NewLogger constructs a Logger writing to path, creating its parent
// directory on demand.
func NewLogger(path string, opts ...Option) *Logger {
	l := &Logger{
		path:         path,
		maxSizeBytes: defaultMaxSizeBytes,
		maxRotations: defaultMaxRotations,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Append redacts, serializes, rotates if necessary, and durably writes one
// entry as a newline-terminated JSON line.
func (l *Logger) Append(e Entry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	e = RedactEntry(e)

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("audit: creating log directory: %w", err)
	}

	if err := l.rotateIfNeeded(); err != nil {
		return err
	}

	line, err := json.Marshal(marshaled{
		Timestamp:   e.Timestamp.Format(time.RFC3339Nano),
		Actor:       e.Actor,
		Role:        e.Role,
		Action:      e.Action,
		Target:      e.Target,
		Decision:    e.Decision,
		Reason:      e.Reason,
		CommandHash: e.CommandHash,
	})
	if err != nil {
		return fmt.Errorf("audit: marshaling entry: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("audit: opening log file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("audit: writing entry: %w", err)
	}
	return nil
}

// rotateIfNeeded stats the main log file and, if it has reached
// maxSizeBytes, shifts ".i" to ".i+1" for i = maxRotations-1 downto 1
// (skipping missing files, letting the slot beyond maxRotations+1 be
// overwritten/dropped), then renames the main file to ".1". A missing
// main file is a no-op.
func (l *Logger) rotateIfNeeded() error {
	info, err := os.Stat(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("audit: statting log file: %w", err)
	}
	if info.Size() < l.maxSizeBytes {
		return nil
	}

	maxRotations := l.maxRotations
	if maxRotations <= 0 {
		maxRotations = defaultMaxRotations
	}

	for i := maxRotations - 1; i >= 1; i-- {
		src := l.rotatedPath(i)
		dst := l.rotatedPath(i + 1)
		if _, err := os.Stat(src); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("audit: statting rotation slot %d: %w", i, err)
		}
		if err := os.Rename(src, dst); err != nil {
			return fmt.Errorf("audit: rotating slot %d to %d: %w", i, i+1, err)
		}
	}

	if err := os.Rename(l.path, l.rotatedPath(1)); err != nil {
		return fmt.Errorf("audit: rotating main log to .1: %w", err)
	}
	l.metrics.RecordAuditRotation()
	return nil
}

func (l *Logger) rotatedPath(i int) string {
	return fmt.Sprintf("%s.%d", l.path, i)
}
