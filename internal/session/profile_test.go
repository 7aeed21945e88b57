package session

import (
	"errors"
	"testing"

	"github.com/matheus3301/mingle/internal/config"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "main", false},
		{"valid with numbers", "work123", false},
		{"valid with hyphen", "my-profile", false},
		{"valid with underscore", "my_profile", false},
		{"valid max length", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", false},
		{"empty", "", true},
		{"uppercase", "Main", true},
		{"space", "my profile", true},
		{"dot", "my.profile", true},
		{"too long", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", true},
		{"slash", "my/profile", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidProfile) {
				t.Errorf("ValidateName(%q) error = %v, want ErrInvalidProfile", tt.input, err)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		flag string
		cfg  *config.Config
		want string
	}{
		{"flag wins", "work", &config.Config{DefaultProfile: "home"}, "work"},
		{"config default", "", &config.Config{DefaultProfile: "home"}, "home"},
		{"fallback", "", &config.Config{}, DefaultProfile},
		{"nil config", "", nil, DefaultProfile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.flag, tt.cfg); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.flag, got, tt.want)
			}
		})
	}
}

func TestSelect(t *testing.T) {
	got, err := Select("", &config.Config{DefaultProfile: "work"})
	if err != nil || got != "work" {
		t.Fatalf("Select() = %q, %v; want work", got, err)
	}
	if _, err := Select("Bad Name", nil); !errors.Is(err, ErrInvalidProfile) {
		t.Errorf("Select(bad) error = %v, want ErrInvalidProfile", err)
	}
}
