package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matheus3301/mingle/internal/config"
	"github.com/matheus3301/mingle/internal/session"
)

func TestLoadParams(t *testing.T) {
	home := t.TempDir()
	t.Setenv(session.EnvHome, home)
	t.Setenv(config.EnvProfile, "")
	t.Setenv(config.EnvBaseURL, "")

	toml := "default_profile = \"work\"\nbase_url = \"http://file.example/MyChatApp\"\n"
	if err := os.WriteFile(filepath.Join(home, "config.toml"), []byte(toml), 0o600); err != nil {
		t.Fatal(err)
	}

	p, err := LoadParams("", false)
	if err != nil {
		t.Fatal(err)
	}
	if p.Profile != "work" || p.Config.BaseURL != "http://file.example/MyChatApp" {
		t.Errorf("LoadParams() = %q %q", p.Profile, p.Config.BaseURL)
	}

	t.Setenv(config.EnvBaseURL, "http://env.example/MyChatApp")
	p, err = LoadParams("cli", true)
	if err != nil {
		t.Fatal(err)
	}
	if p.Profile != "cli" || p.Config.BaseURL != "http://env.example/MyChatApp" || !p.LogToStderr {
		t.Errorf("LoadParams(cli) = %+v base %q", p, p.Config.BaseURL)
	}
}

func TestLoadParamsRejectsBadProfile(t *testing.T) {
	t.Setenv(session.EnvHome, t.TempDir())
	t.Setenv(config.EnvProfile, "")
	if _, err := LoadParams("Not Valid", false); err == nil {
		t.Error("LoadParams() accepted an invalid profile name")
	}
}
