package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateConfigPath_RejectsPathTraversal(t *testing.T) {
	home, cleanup := setupTestHome(t)
	defer cleanup()

	tests := []struct {
		name string
		path string
	}{
		{"sibling with shared prefix", "/etc/locable../etc/passwd"},
		{"multiple escapes", filepath.Join(home, ".config", "locable", "..", "..", "..", "etc", "passwd")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := validateConfigPath(tt.path); err == nil {
				t.Errorf("Expected error for path traversal attempt: %s", tt.path)
			}
		})
	}
}

func TestValidateConfigPath_AllowsValidPaths(t *testing.T) {
	home, cleanup := setupTestHome(t)
	defer cleanup()

	validPaths := []string{
		filepath.Join(home, ".config", "locable", "config.yaml"),
		filepath.Join(home, ".config", "locable", "subdir", "config.yaml"),
		"/etc/locable/config.yaml",
	}

	for _, path := range validPaths {
		t.Run(path, func(t *testing.T) {
			if err := validateConfigPath(path); err != nil {
				t.Errorf("Valid path rejected: %s, error: %v", path, err)
			}
		})
	}
}

func TestValidateConfigPath_ExtraDirs(t *testing.T) {
	_, cleanup := setupTestHome(t)
	defer cleanup()

	projectRoot := t.TempDir()
	path := filepath.Join(projectRoot, ProjectConfigName)

	if err := validateConfigPath(path); err == nil {
		t.Error("project config accepted without the project root being allowed")
	}
	if err := validateConfigPath(path, projectRoot); err != nil {
		t.Errorf("project config rejected with project root allowed: %v", err)
	}
}

func TestValidateConfigFileProperties(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		perm    os.FileMode
		size    int
		wantErr bool
	}{
		{"owner only", 0600, 10, false},
		{"world readable", 0644, 10, false},
		{"group writable", 0660, 10, true},
		{"world writable", 0606, 10, true},
		{"too large", 0600, maxConfigFileSize + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".yaml")
			if err := os.WriteFile(path, make([]byte, tt.size), 0600); err != nil {
				t.Fatal(err)
			}
			if err := os.Chmod(path, tt.perm); err != nil {
				t.Fatal(err)
			}
			info, err := os.Stat(path)
			if err != nil {
				t.Fatal(err)
			}
			err = validateConfigFileProperties(info)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateConfigFileProperties() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
