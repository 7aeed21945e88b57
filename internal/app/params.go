package app

import (
	"fmt"

	"github.com/matheus3301/mingle/internal/config"
	"github.com/matheus3301/mingle/internal/session"
)

// LoadParams resolves the configuration and profile for a front end: .env,
// then config.toml, then MINGLE_* overrides, then the --profile flag.
func LoadParams(profileFlag string, logToStderr bool) (Params, error) {
	if err := config.LoadEnv(); err != nil {
		return Params{}, err
	}
	cfg, err := config.LoadOrDefault(session.ConfigPath())
	if err != nil {
		return Params{}, fmt.Errorf("load config: %w", err)
	}
	cfg.ApplyEnv()

	profile, err := session.Select(profileFlag, cfg)
	if err != nil {
		return Params{}, err
	}
	return Params{Profile: profile, Config: cfg, LogToStderr: logToStderr}, nil
}
