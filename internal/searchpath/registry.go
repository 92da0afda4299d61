package searchpath

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Config declares a namespace statically.
type Config struct {
	// Name is the namespace name; it is also the directory name looked up
	// in each root.
	Name string

	// Roots are directories appended verbatim after the discovered ones.
	Roots []string

	// InstallRoots are extra locations scanned for a directory named Name,
	// in addition to the registry roots.
	InstallRoots []string

	// MergeNested appends <primary>/<Name> when it exists.
	MergeNested bool

	// Extensions are the suffixes tried when resolving a module.
	Extensions []string
}

// Registry maps namespace names to their search paths.
type Registry struct {
	mu      sync.Mutex
	roots   []string
	configs map[string]Config
	spaces  map[string]*SearchPath
}

// NewRegistry creates a registry over the given top-level roots. Namespaces
// without a Config get the defaults (MergeNested on, no extra roots).
func NewRegistry(roots []string, cfgs ...Config) (*Registry, error) {
	r := &Registry{
		configs: make(map[string]Config, len(cfgs)),
		spaces:  make(map[string]*SearchPath),
	}
	for _, root := range roots {
		r.Append(root)
	}
	for _, cfg := range cfgs {
		if err := ValidateName(cfg.Name); err != nil {
			return nil, err
		}
		if _, dup := r.configs[cfg.Name]; dup {
			return nil, fmt.Errorf("namespace %q configured twice", cfg.Name)
		}
		r.configs[cfg.Name] = cfg
	}
	return r, nil
}

// Prepend inserts root at the front of the top-level roots unless already
// present. Namespaces established earlier are not rebuilt.
func (r *Registry) Prepend(root string) bool {
	abs, err := normalize(root)
	if err != nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.roots {
		if existing == abs {
			return false
		}
	}
	r.roots = append([]string{abs}, r.roots...)
	return true
}

// Append adds root at the end of the top-level roots unless already present.
func (r *Registry) Append(root string) bool {
	abs, err := normalize(root)
	if err != nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.roots {
		if existing == abs {
			return false
		}
	}
	r.roots = append(r.roots, abs)
	return true
}

// Roots returns a copy of the top-level roots.
func (r *Registry) Roots() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.roots...)
}

// Names returns the established namespace names, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.spaces))
	for name := range r.spaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Get returns an already established namespace.
func (r *Registry) Get(name string) (*SearchPath, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sp, ok := r.spaces[name]
	return sp, ok
}

// Namespace returns the search path for name, establishing it on first use.
func (r *Registry) Namespace(name string) (*SearchPath, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if sp, ok := r.spaces[name]; ok {
		return sp, nil
	}

	cfg, configured := r.configs[name]
	if !configured {
		cfg = Config{Name: name, MergeNested: true}
	}

	var primary string
	for _, root := range r.roots {
		if candidate := filepath.Join(root, name); isDir(candidate) {
			primary = candidate
			break
		}
	}
	if primary == "" && len(cfg.Roots) > 0 {
		primary = cfg.Roots[0]
	}
	if primary == "" {
		return nil, fmt.Errorf("%w: %s (roots: %s)", ErrNamespaceNotFound, name, strings.Join(r.roots, ", "))
	}

	sp, err := New(name, primary)
	if err != nil {
		return nil, err
	}
	if len(cfg.Extensions) > 0 {
		sp.SetExtensions(cfg.Extensions...)
	}

	sp.Extend(r.roots...)
	sp.Extend(cfg.InstallRoots...)
	if cfg.MergeNested {
		sp.MergeNested()
	}
	for _, dir := range cfg.Roots {
		sp.Append(dir)
	}

	r.spaces[name] = sp
	return sp, nil
}

// Resolve resolves a fully qualified dotted name ("locable.data.chroma").
// The first segment selects the namespace; a bare namespace name resolves
// to its primary directory.
func (r *Registry) Resolve(qualified string) (string, error) {
	if qualified == "" {
		return "", fmt.Errorf("%w: empty name", ErrInvalidModule)
	}
	ns, rest, _ := strings.Cut(qualified, ".")
	sp, err := r.Namespace(ns)
	if err != nil {
		return "", err
	}
	if rest == "" {
		return sp.Primary(), nil
	}
	return sp.Resolve(rest)
}

// IsNotFound reports whether err means a namespace or module is missing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNamespaceNotFound) || errors.Is(err, ErrModuleNotFound)
}
