package project

import (
	"fmt"
	"path/filepath"

	"github.com/locable/locable/internal/searchpath"
)

// persistModule is the dotted location of the store directory inside the
// namespace.
const persistModule = "data.chroma"

// Layout is the resolved filesystem layout for one command.
type Layout struct {
	Project *Project

	// Namespace is the merged search path, nil when the project does not
	// provide the namespace directory.
	Namespace *searchpath.SearchPath

	// PersistDir is the store persistence directory.
	PersistDir string
}

// NewLayout prepends the project root to reg and resolves namespace and the
// persistence directory. A non-empty persistDir overrides the derived one;
// relative overrides are taken from the project root.
func NewLayout(p *Project, reg *searchpath.Registry, namespace, persistDir string) (*Layout, error) {
	reg.Prepend(p.Root)

	l := &Layout{Project: p}

	ns, err := reg.Namespace(namespace)
	switch {
	case err == nil:
		l.Namespace = ns
	case searchpath.IsNotFound(err):
		// Running outside a checkout of the package; keep the root layout.
	default:
		return nil, fmt.Errorf("resolving namespace %q: %w", namespace, err)
	}

	switch {
	case persistDir != "":
		l.PersistDir = p.Abs(persistDir)
	case l.Namespace != nil:
		dir, err := l.Namespace.ResolveOrPrimary(persistModule)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", persistModule, err)
		}
		l.PersistDir = dir
	default:
		l.PersistDir = filepath.Join(p.Root, "data", "chroma")
	}
	return l, nil
}
