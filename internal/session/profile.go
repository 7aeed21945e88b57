package session

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/matheus3301/mingle/internal/config"
)

// DefaultProfile is used when neither the flag nor the config names one.
const DefaultProfile = "main"

// ErrInvalidProfile is wrapped by every profile name rejection.
var ErrInvalidProfile = errors.New("invalid profile name")

// Profile names become directory names under BaseDir.
var profileName = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

// ValidateName rejects names that are not safe as a profile directory.
func ValidateName(name string) error {
	if profileName.MatchString(name) {
		return nil
	}
	return fmt.Errorf("%w %q: use 1-64 of a-z, 0-9, '-' or '_'", ErrInvalidProfile, name)
}

// Resolve picks the profile: the --profile flag, then default_profile from
// cfg (which MINGLE_PROFILE may already have replaced), then DefaultProfile.
func Resolve(flagOverride string, cfg *config.Config) string {
	switch {
	case flagOverride != "":
		return flagOverride
	case cfg != nil && cfg.DefaultProfile != "":
		return cfg.DefaultProfile
	default:
		return DefaultProfile
	}
}

// Select resolves and validates the profile in one step.
func Select(flagOverride string, cfg *config.Config) (string, error) {
	name := Resolve(flagOverride, cfg)
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return name, nil
}
