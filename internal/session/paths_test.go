package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDir(t *testing.T) {
	t.Setenv(EnvHome, "")
	home, _ := os.UserHomeDir()
	got := Dir("main")
	want := filepath.Join(home, ".mingle", "profiles", "main")
	if got != want {
		t.Errorf("Dir(main) = %q, want %q", got, want)
	}
}

func TestBaseDirOverride(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv(EnvHome, tmp)
	if got := BaseDir(); got != tmp {
		t.Errorf("BaseDir() = %q, want %q", got, tmp)
	}
	if got := ConfigPath(); got != filepath.Join(tmp, "config.toml") {
		t.Errorf("ConfigPath() = %q", got)
	}
}

func TestProfilePaths(t *testing.T) {
	tests := []struct {
		name   string
		got    string
		suffix string
	}{
		{"lock", LockPath("test"), filepath.Join("profiles", "test", "LOCK")},
		{"db", DBPath("test"), filepath.Join("profiles", "test", "mingle.db")},
		{"log", LogPath("test"), filepath.Join("profiles", "test", "logs", "mingle.log")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.HasSuffix(tt.got, tt.suffix) {
				t.Errorf("%s path = %q, want suffix %q", tt.name, tt.got, tt.suffix)
			}
		})
	}
}

func TestEnsureDir(t *testing.T) {
	t.Setenv(EnvHome, t.TempDir())

	if err := EnsureDir("test"); err != nil {
		t.Fatalf("EnsureDir() error = %v", err)
	}

	info, err := os.Stat(LogDir("test"))
	if err != nil {
		t.Fatalf("log dir not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("log dir is not a directory")
	}
	if perm := info.Mode().Perm(); perm != 0700 {
		t.Errorf("log dir permission = %o, want 0700", perm)
	}
}
