package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
)

// MarkerFile marks a project root outside of git.
const MarkerFile = "locable.yaml"

// Source describes how a root was found.
type Source string

const (
	SourceGit    Source = "git"
	SourceMarker Source = "marker"
	SourceStart  Source = "start"
)

// Common errors.
var (
	ErrEmptyPath   = errors.New("project path cannot be empty")
	ErrInvalidPath = errors.New("invalid project path")
)

// Project is a detected project root.
type Project struct {
	// Root is the absolute project root.
	Root string `json:"root" yaml:"root"`

	// Name is the base name of Root.
	Name string `json:"name" yaml:"name"`

	// Source records which rule found Root.
	Source Source `json:"source" yaml:"source"`

	// Branch is the checked out branch when Source is git.
	Branch string `json:"branch,omitempty" yaml:"branch,omitempty"`
}

// FindRoot returns the project containing start.
func FindRoot(start string) (*Project, error) {
	if start == "" {
		return nil, ErrEmptyPath
	}
	abs, err := filepath.Abs(start)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	if !info.IsDir() {
		abs = filepath.Dir(abs)
	}

	if p := fromGit(abs); p != nil {
		return p, nil
	}
	if root, ok := findMarker(abs); ok {
		return newProject(root, SourceMarker), nil
	}
	return newProject(abs, SourceStart), nil
}

// Abs resolves path against the project root. Absolute paths are only
// cleaned.
func (p *Project) Abs(path string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(p.Root, path)
	}
	return filepath.Clean(path)
}

// AbsAll applies Abs to every non-empty entry of paths.
func (p *Project) AbsAll(paths []string) []string {
	if len(paths) == 0 {
		return paths
	}
	out := make([]string, 0, len(paths))
	for _, path := range paths {
		if path == "" {
			continue
		}
		out = append(out, p.Abs(path))
	}
	return out
}

func newProject(root string, src Source) *Project {
	return &Project{Root: root, Name: filepath.Base(root), Source: src}
}

// fromGit opens the repository enclosing dir, if any.
func fromGit(dir string) *Project {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil
	}
	wt, err := repo.Worktree()
	if err != nil {
		// bare repository
		return nil
	}

	p := newProject(filepath.Clean(wt.Filesystem.Root()), SourceGit)
	if head, err := repo.Head(); err == nil && head.Name().IsBranch() {
		p.Branch = head.Name().Short()
	}
	return p
}

// findMarker walks up from dir looking for MarkerFile.
func findMarker(dir string) (string, bool) {
	for {
		if info, err := os.Stat(filepath.Join(dir, MarkerFile)); err == nil && !info.IsDir() {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
