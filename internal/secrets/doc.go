// Package secrets redacts credentials from documents before they are
// embedded and stored.
//
// Detection uses the gitleaks default rule set. Findings are replaced with
// a [REDACTED:rule-id] marker so the surrounding text still embeds
// meaningfully. Projects can exempt paths or values with a gitleaks-style
// TOML allowlist.
package secrets
