package paths

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigRootHonorsXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	root, err := ConfigRoot()
	if err != nil {
		t.Fatalf("ConfigRoot() error = %v", err)
	}

	if want := filepath.Join(dir, "mariabak"); root != want {
		t.Errorf("ConfigRoot() = %q, want %q", root, want)
	}
}

func TestConfigRootIgnoresRelativeXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "relative/path")

	root, err := ConfigRoot()
	if err != nil {
		t.Fatalf("ConfigRoot() error = %v", err)
	}

	if strings.HasPrefix(root, "relative") {
		t.Errorf("ConfigRoot() = %q used a relative XDG path", root)
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	file, err := ConfigFile()
	if err != nil {
		t.Fatalf("ConfigFile() error = %v", err)
	}

	if want := filepath.Join(dir, "mariabak", "config.yaml"); file != want {
		t.Errorf("ConfigFile() = %q, want %q", file, want)
	}
}

func TestDefaultLogFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", dir)

	file, err := DefaultLogFile()
	if err != nil {
		t.Fatalf("DefaultLogFile() error = %v", err)
	}

	if want := filepath.Join(dir, "mariabak", "logs", "mariabak.log"); file != want {
		t.Errorf("DefaultLogFile() = %q, want %q", file, want)
	}
}
