package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".cache", appName)
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
}

func TestXDGDirs(t *testing.T) {
	tests := []struct {
		name string
		env  string
		fn   func() (string, error)
	}{
		{"cache", "XDG_CACHE_HOME", cacheDir},
		{"config", "XDG_CONFIG_HOME", configDir},
		{"data", "XDG_DATA_HOME", dataDir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			custom := filepath.Join(t.TempDir(), tt.name)
			t.Setenv(tt.env, custom)

			dir, err := tt.fn()
			if err != nil {
				t.Fatalf("error: %v", err)
			}
			if want := filepath.Join(custom, appName); dir != want {
				t.Errorf("with %s = %q, want %q", tt.env, dir, want)
			}
		})
	}
}

func TestHomeDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_DATA_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	if dir, _ := configDir(); dir != filepath.Join(home, ".config", appName) {
		t.Errorf("configDir() = %q", dir)
	}
	if dir, _ := dataDir(); dir != filepath.Join(home, ".local", "share", appName) {
		t.Errorf("dataDir() = %q", dir)
	}
}
