package searchpath

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// Module is a resolvable entry of a namespace.
type Module struct {
	// Name is the dotted module name relative to the namespace.
	Name string `json:"name" yaml:"name"`
	// Path is the winning filesystem location.
	Path string `json:"path" yaml:"path"`
	// Dir is the search path directory that provided Path.
	Dir string `json:"dir" yaml:"dir"`
}

// Glob lists the modules whose dotted names match pattern. "*" matches
// within one segment, "**" across segments. A module provided by several
// directories is reported once, at its first (winning) location.
func (sp *SearchPath) Glob(pattern string) ([]Module, error) {
	g, err := glob.Compile(pattern, '.')
	if err != nil {
		return nil, fmt.Errorf("compiling pattern %q: %w", pattern, err)
	}

	sp.mu.RLock()
	dirs := append([]string(nil), sp.dirs...)
	exts := append([]string(nil), sp.extensions...)
	sp.mu.RUnlock()

	names := make(map[string]bool)
	for _, dir := range dirs {
		if !isDir(dir) {
			continue
		}
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				// Unreadable subtrees are skipped rather than failing the listing.
				if d != nil && d.IsDir() && path != dir {
					return filepath.SkipDir
				}
				return nil
			}
			if path == dir {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return nil
			}
			name, ok := moduleName(rel, d.IsDir(), exts)
			if !ok {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if g.Match(name) {
				names[name] = true
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", dir, err)
		}
	}

	// The walk only proposes names; the winning location is chosen the same
	// way Resolve chooses it.
	modules := make([]Module, 0, len(names))
	for name := range names {
		rel, err := ModulePath(name)
		if err != nil {
			continue
		}
		path, dir, ok := lookup(dirs, exts, rel)
		if !ok {
			continue
		}
		modules = append(modules, Module{Name: name, Path: path, Dir: dir})
	}

	sort.Slice(modules, func(i, j int) bool { return modules[i].Name < modules[j].Name })
	return modules, nil
}

// moduleName maps a relative path back to a dotted name. Files qualify only
// when their suffix is one of exts; directories always qualify.
func moduleName(rel string, isDir bool, exts []string) (string, bool) {
	if !isDir {
		matched := false
		for _, ext := range exts {
			if ext == "" {
				if filepath.Ext(rel) == "" {
					matched = true
					break
				}
				continue
			}
			if strings.HasSuffix(rel, ext) {
				rel = strings.TrimSuffix(rel, ext)
				matched = true
				break
			}
		}
		if !matched {
			return "", false
		}
	}

	segs := strings.Split(rel, string(filepath.Separator))
	for _, seg := range segs {
		if !namePattern.MatchString(seg) {
			return "", false
		}
	}
	return strings.Join(segs, "."), true
}
