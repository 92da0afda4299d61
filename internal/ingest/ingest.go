// Package ingest turns project files into vector store documents.
//
// Each regular file becomes one document whose ID and "source" metadata are
// its slash-separated path relative to the project root, so ingesting a file
// again replaces the stored copy. Directories are walked recursively,
// skipping hidden entries, dependency and build directories, and paths
// matched by the project's .gitignore or .locableignore. Binary (non UTF-8),
// empty and oversized files are reported as skipped rather than failing the
// run. When a secrets.Redactor is configured, credentials are replaced with
// redaction markers before the content becomes a document.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gobwas/glob"
	"github.com/locable/locable/internal/ignore"
	"github.com/locable/locable/internal/secrets"
	"github.com/locable/locable/internal/vectorstore"
)

const (
	// DefaultMaxFileSize is the per-file limit when Options leaves it unset.
	DefaultMaxFileSize = 1 << 20
	// MaxFileSizeLimit caps Options.MaxFileSize.
	MaxFileSizeLimit = 10 << 20
)

// ErrInvalidOptions wraps every option validation failure.
var ErrInvalidOptions = errors.New("invalid ingest options")

// defaultSkipDirs contain generated code, dependencies or VCS data.
var defaultSkipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"venv":         true,
	"__pycache__":  true,
	"dist":         true,
	"build":        true,
	"target":       true,
}

// Skip reasons.
const (
	ReasonEmpty    = "empty"
	ReasonBinary   = "binary"
	ReasonTooLarge = "too large"
	ReasonFiltered = "filtered"
)

// Options configures a Collector.
type Options struct {
	// Include globs select files by relative path ("**.css"); empty selects all.
	Include []string
	// Exclude globs drop files by relative path and take precedence.
	Exclude []string
	// MaxFileSize in bytes; 0 means DefaultMaxFileSize.
	MaxFileSize int64
	// SkipDirs are absolute directories never walked (the store directory).
	SkipDirs []string
	// NoIgnoreFiles disables reading .gitignore and .locableignore.
	NoIgnoreFiles bool
	// Redactor scrubs file contents; nil stores them as read.
	Redactor *secrets.Redactor
}

// Skipped is a file that produced no document.
type Skipped struct {
	Path   string
	Reason string
}

// Redacted is a document that had secrets removed.
type Redacted struct {
	Path  string
	Rules []string
}

// Result is the outcome of Collect.
type Result struct {
	Documents []vectorstore.Document
	Skipped   []Skipped
	Redacted  []Redacted
}

// Collector builds documents for one project root.
type Collector struct {
	root     string
	maxSize  int64
	include  glob.Glob
	exclude  glob.Glob
	ignored  *ignore.Matcher
	skipDirs map[string]bool
	redactor *secrets.Redactor
}

// New validates opts and prepares a collector for root.
func New(root string, opts Options) (*Collector, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: root: %v", ErrInvalidOptions, err)
	}

	c := &Collector{
		root:     abs,
		maxSize:  opts.MaxFileSize,
		skipDirs: make(map[string]bool, len(opts.SkipDirs)),
		redactor: opts.Redactor,
	}
	if c.maxSize == 0 {
		c.maxSize = DefaultMaxFileSize
	}
	if c.maxSize < 0 || c.maxSize > MaxFileSizeLimit {
		return nil, fmt.Errorf("%w: max file size must be between 1 and %d bytes", ErrInvalidOptions, MaxFileSizeLimit)
	}

	if c.include, err = compilePatterns(opts.Include); err != nil {
		return nil, fmt.Errorf("%w: include: %v", ErrInvalidOptions, err)
	}
	if c.exclude, err = compilePatterns(opts.Exclude); err != nil {
		return nil, fmt.Errorf("%w: exclude: %v", ErrInvalidOptions, err)
	}

	if !opts.NoIgnoreFiles {
		rules, err := ignore.NewParser(ignore.DefaultFiles, nil).ParseProject(abs)
		if err != nil {
			return nil, fmt.Errorf("reading ignore files: %w", err)
		}
		if c.ignored, err = ignore.Compile(rules); err != nil {
			return nil, err
		}
	}

	for _, dir := range opts.SkipDirs {
		if d, err := filepath.Abs(dir); err == nil {
			c.skipDirs[filepath.Clean(d)] = true
		}
	}
	return c, nil
}

// Collect expands paths into documents. Explicitly named files bypass the
// ignore files and directory skipping but not the include and exclude
// globs.
func (c *Collector) Collect(ctx context.Context, paths ...string) (*Result, error) {
	res := &Result{}
	for _, arg := range paths {
		path, err := filepath.Abs(arg)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", arg, err)
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", arg, err)
		}
		if !info.IsDir() {
			if err := c.addFile(res, path, info); err != nil {
				return nil, err
			}
			continue
		}
		if err := c.walk(ctx, res, path); err != nil {
			return nil, fmt.Errorf("walking %s: %w", arg, err)
		}
	}
	return res, nil
}

func (c *Collector) walk(ctx context.Context, res *Result, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if path != dir && c.skipDir(path, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || strings.HasPrefix(d.Name(), ".") || c.ignored.Match(c.relative(path), false) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return c.addFile(res, path, info)
	})
}

func (c *Collector) skipDir(path, name string) bool {
	if strings.HasPrefix(name, ".") || defaultSkipDirs[name] || c.skipDirs[path] {
		return true
	}
	return c.ignored.Match(c.relative(path), true)
}

func (c *Collector) addFile(res *Result, path string, info fs.FileInfo) error {
	id := DocumentID(c.root, path)

	if (c.include != nil && !c.include.Match(id)) || (c.exclude != nil && c.exclude.Match(id)) {
		res.Skipped = append(res.Skipped, Skipped{Path: id, Reason: ReasonFiltered})
		return nil
	}
	if info.Size() > c.maxSize {
		res.Skipped = append(res.Skipped, Skipped{Path: id, Reason: ReasonTooLarge})
		return nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	switch {
	case !utf8.Valid(content):
		res.Skipped = append(res.Skipped, Skipped{Path: id, Reason: ReasonBinary})
		return nil
	case strings.TrimSpace(string(content)) == "":
		res.Skipped = append(res.Skipped, Skipped{Path: id, Reason: ReasonEmpty})
		return nil
	}

	text := string(content)
	if c.redactor != nil {
		scrubbed := c.redactor.Redact(id, text)
		if scrubbed.HasFindings() {
			res.Redacted = append(res.Redacted, Redacted{Path: id, Rules: scrubbed.RuleIDs()})
			text = scrubbed.Content
		}
	}

	res.Documents = append(res.Documents, vectorstore.Document{
		ID:      id,
		Content: text,
		Metadata: map[string]interface{}{
			"source":    id,
			"extension": filepath.Ext(path),
		},
	})
	return nil
}

func (c *Collector) relative(path string) string {
	rel, err := filepath.Rel(c.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// DocumentID is the slash-separated path of path relative to root, or the
// absolute path for files outside root.
func DocumentID(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// compilePatterns joins patterns into one slash-separated matcher; nil
// patterns give a nil matcher.
func compilePatterns(patterns []string) (glob.Glob, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	pattern := patterns[0]
	if len(patterns) > 1 {
		pattern = "{" + strings.Join(patterns, ",") + "}"
	}
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %w", pattern, err)
	}
	return g, nil
}
