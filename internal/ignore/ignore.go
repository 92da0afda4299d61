// Package ignore reads gitignore-style files and matches project paths
// against them.
//
// Supported syntax: comments, blank lines, anchored patterns ("/dist"),
// directory-only patterns ("build/"), "*", "?", character classes and "**".
// Negations ("!keep.txt") are not supported and are skipped.
package ignore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultFiles are the ignore files read from a project root.
var DefaultFiles = []string{".gitignore", ".locableignore"}

// Rule is one parsed ignore line.
type Rule struct {
	// Pattern is the glob matched against "/"+relative path.
	Pattern string
	// DirOnly rules match directories only.
	DirOnly bool
}

// Parser reads ignore files.
type Parser struct {
	// IgnoreFiles are the file names looked up in the project root.
	IgnoreFiles []string

	// FallbackRules apply when none of IgnoreFiles exists.
	FallbackRules []Rule
}

// NewParser creates a parser for the given ignore file names.
func NewParser(ignoreFiles []string, fallback []Rule) *Parser {
	return &Parser{
		IgnoreFiles:   ignoreFiles,
		FallbackRules: fallback,
	}
}

// ParseProject reads every ignore file present in root and returns the
// combined, de-duplicated rules.
func (p *Parser) ParseProject(root string) ([]Rule, error) {
	var rules []Rule
	found := false

	for _, name := range p.IgnoreFiles {
		fileRules, err := parseFile(filepath.Join(root, name))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		rules = append(rules, fileRules...)
		found = true
	}

	if !found {
		return p.FallbackRules, nil
	}
	return deduplicate(rules), nil
}

func parseFile(path string) ([]Rule, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var rules []Rule
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if rule, ok := ParseLine(scanner.Text()); ok {
			rules = append(rules, rule)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return rules, nil
}

// ParseLine converts one gitignore line to a rule. ok is false for blank
// lines, comments and negations.
func ParseLine(line string) (Rule, bool) {
	line = strings.TrimRight(line, " \t\r")
	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
		return Rule{}, false
	}

	var rule Rule
	if strings.HasSuffix(line, "/") {
		rule.DirOnly = true
		line = strings.TrimRight(line, "/")
		if line == "" {
			return Rule{}, false
		}
	}

	// A slash anywhere but the end anchors the pattern to the root, except
	// for a leading "**/".
	switch {
	case strings.HasPrefix(line, "**/"):
		rule.Pattern = line
	case strings.Contains(line, "/"):
		rule.Pattern = "/" + strings.TrimPrefix(line, "/")
	default:
		rule.Pattern = "**/" + line
	}
	return rule, true
}

// Matcher matches relative paths against compiled rules.
type Matcher struct {
	rules []compiledRule
}

type compiledRule struct {
	g       glob.Glob
	dirOnly bool
}

// Compile builds a matcher.
func Compile(rules []Rule) (*Matcher, error) {
	m := &Matcher{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		g, err := glob.Compile(r.Pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", r.Pattern, err)
		}
		m.rules = append(m.rules, compiledRule{g: g, dirOnly: r.DirOnly})
	}
	return m, nil
}

// Match reports whether the slash-separated relative path is ignored.
// Callers walking a tree skip ignored directories, so files below them
// never reach Match.
func (m *Matcher) Match(rel string, isDir bool) bool {
	if m == nil {
		return false
	}
	rooted := "/" + strings.TrimPrefix(filepath.ToSlash(rel), "/")
	for _, r := range m.rules {
		if r.dirOnly && !isDir {
			continue
		}
		if r.g.Match(rooted) {
			return true
		}
	}
	return false
}

// Len returns the number of rules.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.rules)
}

func deduplicate(rules []Rule) []Rule {
	seen := make(map[Rule]bool)
	result := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if !seen[r] {
			seen[r] = true
			result = append(result, r)
		}
	}
	return result
}
