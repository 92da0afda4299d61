package secrets

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/zricethezav/gitleaks/v8/detect"
)

// Finding describes one redacted secret. The secret value itself is never kept.
type Finding struct {
	RuleID      string
	Description string
	Line        int
}

// Result is the redacted content plus what was removed from it.
type Result struct {
	Content  string
	Findings []Finding
}

// HasFindings reports whether anything was redacted.
func (r *Result) HasFindings() bool {
	return len(r.Findings) > 0
}

// RuleIDs returns the sorted, distinct rule IDs that matched.
func (r *Result) RuleIDs() []string {
	seen := make(map[string]bool, len(r.Findings))
	ids := make([]string, 0, len(r.Findings))
	for _, f := range r.Findings {
		if !seen[f.RuleID] {
			seen[f.RuleID] = true
			ids = append(ids, f.RuleID)
		}
	}
	sort.Strings(ids)
	return ids
}

// Redactor scrubs secrets from text. It is safe for concurrent use.
type Redactor struct {
	mu       sync.Mutex
	detector *detect.Detector
	paths    []*regexp.Regexp
	values   []*regexp.Regexp
}

// New builds a Redactor from the gitleaks default rules and allowlist. A nil
// allowlist exempts nothing.
func New(allowlist *Allowlist) (*Redactor, error) {
	detector, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("loading gitleaks rules: %w", err)
	}
	r := &Redactor{detector: detector}
	if allowlist != nil {
		if r.paths, err = compileAll(allowlist.Paths); err != nil {
			return nil, err
		}
		if r.values, err = compileAll(allowlist.Regexes); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Redact replaces every secret in content with a [REDACTED:rule-id] marker.
// Content under an allowlisted path is returned unchanged.
func (r *Redactor) Redact(path, content string) *Result {
	res := &Result{Content: content}
	if matchAny(r.paths, path) {
		return res
	}

	r.mu.Lock()
	found := r.detector.DetectString(content)
	r.mu.Unlock()

	type hit struct {
		secret string
		marker string
	}
	hits := make([]hit, 0, len(found))
	for _, f := range found {
		secret := f.Secret
		if secret == "" {
			secret = f.Match
		}
		if secret == "" || matchAny(r.values, secret) || matchAny(r.values, f.Match) {
			continue
		}
		res.Findings = append(res.Findings, Finding{
			RuleID:      f.RuleID,
			Description: f.Description,
			Line:        lineOf(content, secret),
		})
		hits = append(hits, hit{secret: secret, marker: "[REDACTED:" + f.RuleID + "]"})
	}

	// Longest first so a secret containing another is replaced whole.
	sort.SliceStable(hits, func(i, j int) bool {
		return len(hits[i].secret) > len(hits[j].secret)
	})
	for _, h := range hits {
		res.Content = strings.ReplaceAll(res.Content, h.secret, h.marker)
	}
	return res
}

func matchAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// lineOf is the 1-based line of the first occurrence of s in content.
func lineOf(content, s string) int {
	i := strings.Index(content, s)
	if i < 0 {
		return 0
	}
	return strings.Count(content[:i], "\n") + 1
}
