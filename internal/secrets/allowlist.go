package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"regexp"

	"github.com/BurntSushi/toml"
)

// ProjectAllowlistName is the allowlist file read from the project root.
const ProjectAllowlistName = ".gitleaks.toml"

var (
	// ErrInvalidRegex indicates an allowlist pattern failed to compile.
	ErrInvalidRegex = errors.New("invalid regex pattern")

	// ErrInvalidTOML indicates an allowlist file could not be parsed.
	ErrInvalidTOML = errors.New("invalid TOML format")
)

// Allowlist holds patterns exempt from redaction.
type Allowlist struct {
	// Paths are matched against the slash-separated document path.
	Paths []string
	// Regexes are matched against the detected secret.
	Regexes []string
}

// LoadAllowlists reads and merges the given TOML files. Missing files are
// skipped; unreadable or invalid ones are errors.
//
// The format is the [allowlist] table of a gitleaks config:
//
//	[allowlist]
//	paths = ['''fixtures/.*''']
//	regexes = ['''EXAMPLE_KEY''']
func LoadAllowlists(files ...string) (*Allowlist, error) {
	merged := &Allowlist{}
	for _, file := range files {
		if file == "" {
			continue
		}
		list, err := loadTOML(file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		merged.Paths = append(merged.Paths, list.Paths...)
		merged.Regexes = append(merged.Regexes, list.Regexes...)
	}
	return merged, nil
}

func loadTOML(path string) (*Allowlist, error) {
	var doc struct {
		Allowlist struct {
			Paths   []string `toml:"paths"`
			Regexes []string `toml:"regexes"`
		} `toml:"allowlist"`
	}
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTOML, path, err)
	}

	list := &Allowlist{Paths: doc.Allowlist.Paths, Regexes: doc.Allowlist.Regexes}
	if _, err := compileAll(list.Paths); err != nil {
		return nil, fmt.Errorf("%s: path %w", path, err)
	}
	if _, err := compileAll(list.Regexes); err != nil {
		return nil, fmt.Errorf("%s: content %w", path, err)
	}
	return list, nil
}

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidRegex, p, err)
		}
		out = append(out, re)
	}
	return out, nil
}
