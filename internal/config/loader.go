package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "LOCABLE_"

	// ProjectConfigName is the per-project config file looked up at the project root.
	ProjectConfigName = "locable.yaml"
)

// listKeys are config keys whose environment values are comma separated lists.
var listKeys = map[string]bool{
	"namespace.roots":         true,
	"namespace.install_roots": true,
	"namespace.extensions":    true,
}

// DefaultConfigPath returns ~/.config/locable/config.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "locable", "config.yaml"), nil
}

// LoadWithFile loads configuration from a YAML file, then overrides it with
// environment variables.
//
// Precedence (highest to lowest):
//  1. Environment variables (LOCABLE_STORE_PATH, LOCABLE_QUERY_N_RESULTS, ...)
//  2. YAML config file
//  3. Hardcoded defaults
//
// An empty configPath selects DefaultConfigPath. A missing file is not an
// error. The file must live under ~/.config/locable/, /etc/locable/ or one of
// extraDirs (the CLI passes the project root), must not be group or world
// writable and must be smaller than 1MB.
//
// Environment variables drop the LOCABLE_ prefix and split on the first
// underscore:
//
//	LOCABLE_STORE_PATH      -> store.path
//	LOCABLE_QUERY_N_RESULTS -> query.n_results
//	LOCABLE_NAMESPACE_ROOTS -> namespace.roots (comma separated)
func LoadWithFile(configPath string, extraDirs ...string) (*Config, error) {
	k := koanf.New(".")

	if configPath == "" {
		p, err := DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		configPath = p
	}

	if err := validateConfigPath(configPath, extraDirs...); err != nil {
		return nil, fmt.Errorf("config path validation failed: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		// Validate through the open descriptor to avoid a TOCTOU race.
		f, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
		if err := validateConfigFileProperties(info); err != nil {
			return nil, fmt.Errorf("config file validation failed: %w", err)
		}

		content, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Bools that default to true must be set before unmarshaling.
	cfg := &Config{Namespace: NamespaceConfig{MergeNested: true}, Secrets: SecretsConfig{Redact: true}}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// envTransform maps LOCABLE_SECTION_FIELD_NAME to section.field_name.
func envTransform(key, value string) (string, interface{}) {
	lower := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower, value
	}

	path := parts[0] + "." + parts[1]
	if listKeys[path] {
		items := strings.Split(value, ",")
		out := make([]string, 0, len(items))
		for _, item := range items {
			if item = strings.TrimSpace(item); item != "" || path == "namespace.extensions" {
				out = append(out, item)
			}
		}
		return path, out
	}
	return path, value
}

// validateConfigPath checks that path is inside an allowed directory.
// Runs even if the file doesn't exist yet.
func validateConfigPath(path string, extraDirs ...string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	// Follow symlinks so they cannot escape the allowed directories.
	resolvedPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		resolvedPath = absPath
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	allowedDirs := []string{
		filepath.Join(home, ".config", "locable"),
		"/etc/locable",
	}
	allowedDirs = append(allowedDirs, extraDirs...)

	for _, dir := range allowedDirs {
		if dir == "" {
			continue
		}
		absDir, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		if resolvedDir, err := filepath.EvalSymlinks(absDir); err == nil {
			absDir = resolvedDir
		}
		rel, err := filepath.Rel(absDir, resolvedPath)
		if err != nil {
			continue
		}
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return nil
		}
	}

	return fmt.Errorf("config file must be in ~/.config/locable/, /etc/locable/ or the project root: %s", path)
}

// validateConfigFileProperties checks file permissions and size.
func validateConfigFileProperties(info os.FileInfo) error {
	if runtime.GOOS != "windows" {
		if perm := info.Mode().Perm(); perm&0o022 != 0 {
			return fmt.Errorf("insecure config file permissions: %v (must not be group or world writable)", perm)
		}
	}

	if info.Size() > maxConfigFileSize {
		return fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	return nil
}
