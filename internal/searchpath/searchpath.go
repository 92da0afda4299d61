package searchpath

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
)

var (
	// ErrModuleNotFound is returned when no directory on the path provides a module.
	ErrModuleNotFound = errors.New("module not found")

	// ErrInvalidModule is returned for malformed dotted module names.
	ErrInvalidModule = errors.New("invalid module name")

	// ErrInvalidName is returned for malformed namespace names.
	ErrInvalidName = errors.New("invalid namespace name")

	// ErrNamespaceNotFound is returned when no root provides the namespace directory.
	ErrNamespaceNotFound = errors.New("namespace not found")
)

// namePattern matches one segment of a dotted name.
var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// ValidateName checks that name is a single, safe path segment.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// SearchPath is the ordered list of directories contributing to one namespace.
// It is safe for concurrent use.
type SearchPath struct {
	mu         sync.RWMutex
	name       string
	primary    string
	dirs       []string
	extensions []string
}

// New creates a search path for namespace name. The first root is the
// primary directory; roots are made absolute and de-duplicated.
func New(name string, roots ...string) (*SearchPath, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("search path %q needs at least one root", name)
	}

	sp := &SearchPath{
		name:       name,
		extensions: []string{""},
	}
	for _, root := range roots {
		abs, err := normalize(root)
		if err != nil {
			return nil, fmt.Errorf("resolving root %q: %w", root, err)
		}
		if sp.primary == "" {
			sp.primary = abs
		}
		sp.appendLocked(abs)
	}
	return sp, nil
}

// Name returns the namespace name.
func (sp *SearchPath) Name() string {
	return sp.name
}

// Primary returns the directory the path was created for.
func (sp *SearchPath) Primary() string {
	return sp.primary
}

// SetExtensions sets the suffixes tried, in order, when resolving a module.
// The empty suffix matches a directory or an extension-less file.
func (sp *SearchPath) SetExtensions(exts ...string) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if len(exts) == 0 {
		exts = []string{""}
	}
	sp.extensions = append([]string(nil), exts...)
}

// Dirs returns a copy of the directory list in resolution order.
func (sp *SearchPath) Dirs() []string {
	sp.mu.RLock()
	defer sp.mu.RUnlock()
	return append([]string(nil), sp.dirs...)
}

// Len returns the number of directories on the path.
func (sp *SearchPath) Len() int {
	sp.mu.RLock()
	defer sp.mu.RUnlock()
	return len(sp.dirs)
}

// Contains reports whether dir (after normalization) is on the path.
func (sp *SearchPath) Contains(dir string) bool {
	abs, err := normalize(dir)
	if err != nil {
		return false
	}
	sp.mu.RLock()
	defer sp.mu.RUnlock()
	return sp.indexLocked(abs) >= 0
}

// Extend scans installRoots for directories named like the namespace and
// appends the ones not already present. It returns the number added.
func (sp *SearchPath) Extend(installRoots ...string) int {
	added := 0
	for _, root := range installRoots {
		candidate := filepath.Join(root, sp.name)
		if !isDir(candidate) {
			continue
		}
		if sp.Append(candidate) {
			added++
		}
	}
	return added
}

// MergeNested appends <primary>/<name> when that directory exists and is
// not already present. A missing candidate is skipped silently. It returns
// the candidate and whether it is on the path after the call.
func (sp *SearchPath) MergeNested() (string, bool) {
	candidate := filepath.Join(sp.primary, sp.name)
	if !isDir(candidate) {
		return candidate, false
	}
	sp.Append(candidate)
	return candidate, true
}

// Append adds dir at the end unless already present.
func (sp *SearchPath) Append(dir string) bool {
	abs, err := normalize(dir)
	if err != nil {
		return false
	}
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.appendLocked(abs)
}

// Prepend inserts dir at the front unless already present.
func (sp *SearchPath) Prepend(dir string) bool {
	abs, err := normalize(dir)
	if err != nil {
		return false
	}
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if sp.indexLocked(abs) >= 0 {
		return false
	}
	sp.dirs = append([]string{abs}, sp.dirs...)
	return true
}

// Resolve returns the first existing location of a dotted module name
// ("rag.chroma_store" -> "rag/chroma_store"), trying every directory in
// order and, within a directory, every extension in order.
func (sp *SearchPath) Resolve(module string) (string, error) {
	rel, err := ModulePath(module)
	if err != nil {
		return "", err
	}

	sp.mu.RLock()
	dirs := append([]string(nil), sp.dirs...)
	exts := append([]string(nil), sp.extensions...)
	sp.mu.RUnlock()

	if path, _, ok := lookup(dirs, exts, rel); ok {
		return path, nil
	}
	return "", fmt.Errorf("%w: %s.%s", ErrModuleNotFound, sp.name, module)
}

// lookup finds rel in dirs, trying every extension in order within a
// directory before moving to the next one. It returns the location and the
// directory that provided it.
func lookup(dirs, exts []string, rel string) (string, string, bool) {
	for _, dir := range dirs {
		for _, ext := range exts {
			candidate := filepath.Join(dir, rel) + ext
			info, err := os.Stat(candidate)
			if err != nil {
				continue
			}
			if ext != "" && info.IsDir() {
				continue
			}
			return candidate, dir, true
		}
	}
	return "", "", false
}

// ResolveOrPrimary resolves module, falling back to its location under the
// primary directory when it does not exist yet.
func (sp *SearchPath) ResolveOrPrimary(module string) (string, error) {
	path, err := sp.Resolve(module)
	if err == nil {
		return path, nil
	}
	if !errors.Is(err, ErrModuleNotFound) {
		return "", err
	}
	rel, _ := ModulePath(module)
	return filepath.Join(sp.primary, rel), nil
}

// ModulePath converts a dotted module name to a relative filesystem path.
func ModulePath(module string) (string, error) {
	if module == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidModule)
	}
	segs := strings.Split(module, ".")
	for _, seg := range segs {
		if !namePattern.MatchString(seg) {
			return "", fmt.Errorf("%w: %q", ErrInvalidModule, module)
		}
	}
	return filepath.Join(segs...), nil
}

func (sp *SearchPath) appendLocked(abs string) bool {
	if sp.indexLocked(abs) >= 0 {
		return false
	}
	sp.dirs = append(sp.dirs, abs)
	return true
}

func (sp *SearchPath) indexLocked(abs string) int {
	for i, d := range sp.dirs {
		if d == abs {
			return i
		}
	}
	return -1
}

func normalize(dir string) (string, error) {
	if dir == "" {
		return "", errors.New("empty directory")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
