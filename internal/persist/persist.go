// Package persist writes downloaded bytes to local disk, falling back to a
// scratch directory when the requested location cannot be written.
package persist

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Save methods.
const (
	MethodPrimary  = "primary"
	MethodFallback = "fallback"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Error describes one failed write attempt.
type Error struct {
	Path string
	Op   string // mkdir, write, rename, stat, verify
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("persist: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Outcome reports where the bytes ended up. When Success is false both
// error fields are set and nothing was left on disk.
type Outcome struct {
	Success       bool
	Path          string // absolute
	Size          int64
	Method        string
	PrimaryError  error
	FallbackError error
}

// Persister saves files. The zero value is not usable; use New.
type Persister struct {
	fallbackDir string
	logger      *slog.Logger
}

// New returns a Persister that falls back to fallbackDir, or to the system
// temp directory when fallbackDir is empty.
func New(fallbackDir string, logger *slog.Logger) *Persister {
	if fallbackDir == "" {
		fallbackDir = os.TempDir()
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Persister{fallbackDir: fallbackDir, logger: logger}
}

// FallbackDir returns the directory used when the primary write fails.
func (p *Persister) FallbackDir() string {
	return p.fallbackDir
}

// Save writes data to primaryPath. If that fails at any step, it writes to
// the fallback directory under the same base name. A path is reported only
// after the file on disk has been verified to hold len(data) bytes.
func (p *Persister) Save(data []byte, primaryPath string) Outcome {
	path, err := writeVerified(primaryPath, data)
	if err == nil {
		p.logger.Info("file saved",
			slog.String("path", path),
			slog.Int("size", len(data)),
		)

		return Outcome{Success: true, Path: path, Size: int64(len(data)), Method: MethodPrimary}
	}

	primaryErr := err
	p.logger.Warn("primary save failed, trying fallback",
		slog.String("path", primaryPath),
		slog.String("error", primaryErr.Error()),
	)

	fallbackPath := filepath.Join(p.fallbackDir, filepath.Base(primaryPath))

	path, err = writeVerified(fallbackPath, data)
	if err == nil {
		p.logger.Info("file saved to fallback location",
			slog.String("path", path),
			slog.Int("size", len(data)),
		)

		return Outcome{
			Success:      true,
			Path:         path,
			Size:         int64(len(data)),
			Method:       MethodFallback,
			PrimaryError: primaryErr,
		}
	}

	p.logger.Error("both primary and fallback saves failed",
		slog.String("primary_error", primaryErr.Error()),
		slog.String("fallback_error", err.Error()),
	)

	return Outcome{PrimaryError: primaryErr, FallbackError: err}
}

// writeVerified writes data through a ".partial" sibling and renames it
// into place, so a failure never leaves a truncated file at path. It
// returns the absolute path written.
func writeVerified(path string, data []byte) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", &Error{Path: path, Op: "resolve", Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(abs), dirPerm); err != nil {
		return "", &Error{Path: abs, Op: "mkdir", Err: err}
	}

	partial := abs + ".partial"

	if err := os.WriteFile(partial, data, filePerm); err != nil {
		os.Remove(partial)
		return "", &Error{Path: partial, Op: "write", Err: err}
	}

	if err := os.Rename(partial, abs); err != nil {
		os.Remove(partial)
		return "", &Error{Path: abs, Op: "rename", Err: err}
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", &Error{Path: abs, Op: "stat", Err: err}
	}

	if info.Size() != int64(len(data)) {
		os.Remove(abs)
		return "", &Error{
			Path: abs,
			Op:   "verify",
			Err:  fmt.Errorf("size mismatch: wrote %d bytes, found %d", len(data), info.Size()),
		}
	}

	return abs, nil
}
