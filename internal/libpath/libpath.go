// Package libpath normalizes caller-supplied paths inside a document
// library and rejects anything that would escape it. Every remote call that
// takes a user path runs through Resolve first.
package libpath

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrTraversal is returned when a path normalizes to a location outside
// its root.
var ErrTraversal = errors.New("libpath: path escapes root")

// ErrRestricted is returned for local sources under system-reserved roots.
var ErrRestricted = errors.New("libpath: restricted local path")

// TraversalError records the offending input.
type TraversalError struct {
	Root  string
	Input string
}

func (e *TraversalError) Error() string {
	return fmt.Sprintf("invalid path traversal attempt: %q escapes %q", e.Input, e.Root)
}

func (e *TraversalError) Unwrap() error {
	return ErrTraversal
}

// Clean POSIX-normalizes sub as a path relative to some root: "." and ".."
// segments collapse, duplicate and leading slashes go away, and each
// segment is NFC-normalized so composed and decomposed names compare
// equal. Backslashes are treated as separators. The result is "" for the
// root itself, and an error if sub climbs above the root.
func Clean(sub string) (string, error) {
	s := strings.ReplaceAll(sub, "\\", "/")

	// Rooting at "/" first makes path.Clean discard leading "..", so the
	// escape check has to look at the relative form.
	rel := path.Clean(s)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", &TraversalError{Input: sub}
	}

	clean := strings.TrimPrefix(path.Clean("/"+s), "/")
	if clean == "" {
		return "", nil
	}

	return norm.NFC.String(clean), nil
}

// Resolve joins a cleaned sub path under root. An empty or "." sub path
// resolves to root itself.
func Resolve(root, sub string) (string, error) {
	root = strings.Trim(root, "/")

	clean, err := Clean(sub)
	if err != nil {
		var te *TraversalError
		if errors.As(err, &te) {
			te.Root = root
		}

		return "", err
	}

	if clean == "" {
		return root, nil
	}

	if root == "" {
		return clean, nil
	}

	return root + "/" + clean, nil
}

// Join appends a single name to an already resolved parent path. Names
// containing separators or dot segments are rejected.
func Join(parent, name string) (string, error) {
	if err := ValidName(name); err != nil {
		return "", err
	}

	name = norm.NFC.String(name)
	if parent == "" {
		return name, nil
	}

	return strings.TrimSuffix(parent, "/") + "/" + name, nil
}

// ValidName reports whether name can be used as a single path segment.
func ValidName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return errors.New("name must not be empty")
	case name == "." || name == "..":
		return &TraversalError{Input: name}
	case strings.ContainsAny(name, "/\\"):
		return fmt.Errorf("name %q must not contain path separators", name)
	}

	return nil
}

// Base returns the last segment of a resolved path.
func Base(p string) string {
	p = strings.TrimSuffix(p, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}

	return p
}

// restrictedRoots are local locations an upload may never read from.
var restrictedRoots = []string{
	"/etc",
	"/proc",
	"/sys",
	"/dev",
	"/boot",
	"/root",
	"/var/run",
	"/run",
	"/private/etc",
	"/private/var/run",
}

var restrictedWindowsRoots = []string{
	`c:\windows`,
	`c:\program files`,
	`c:\program files (x86)`,
}

// CheckLocalSource validates a local file path before it is read for
// upload. It returns the absolute path with symlinks resolved. Relative
// paths that climb out of the working directory, paths that do not exist,
// and anything under a system-reserved root (before or after resolving
// links) are rejected.
func CheckLocalSource(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", errors.New("local path must not be empty")
	}

	if !filepath.IsAbs(p) && !isWindowsAbs(p) {
		rel := filepath.Clean(p)
		if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", &TraversalError{Root: ".", Input: p}
		}
	}

	if underRestrictedWindowsRoot(p) {
		return "", fmt.Errorf("%w: %s", ErrRestricted, p)
	}

	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolving local path %q: %w", p, err)
	}

	if underRestrictedRoot(abs) {
		return "", fmt.Errorf("%w: %s", ErrRestricted, p)
	}

	// Symlinks are followed so the file that passes the check is the file
	// that gets read.
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("resolving local path %q: %w", p, err)
	}

	if underRestrictedRoot(resolved) || underRestrictedWindowsRoot(resolved) {
		return "", fmt.Errorf("%w: %s resolves to %s", ErrRestricted, p, resolved)
	}

	return resolved, nil
}

func underRestrictedRoot(abs string) bool {
	slashed := filepath.ToSlash(abs)
	for _, r := range restrictedRoots {
		if slashed == r || strings.HasPrefix(slashed, r+"/") {
			return true
		}
	}

	return false
}

func underRestrictedWindowsRoot(p string) bool {
	if !isWindowsAbs(p) {
		return false
	}

	lower := strings.ToLower(strings.ReplaceAll(p, "/", `\`))
	for _, r := range restrictedWindowsRoots {
		if lower == r || strings.HasPrefix(lower, r+`\`) {
			return true
		}
	}

	return false
}

func isWindowsAbs(p string) bool {
	if runtime.GOOS == "windows" {
		return filepath.IsAbs(p)
	}

	return len(p) >= 3 && p[1] == ':' && (p[2] == '\\' || p[2] == '/')
}
