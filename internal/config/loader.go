package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rmuhamedgaliev/arcana/internal/story"
)

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Games
	if cfg.Games.Dir == "" {
		errs = append(errs, errors.New("games.dir is required"))
	}
	if cfg.Games.DefaultLanguage != "" && !story.Language(cfg.Games.DefaultLanguage).IsValid() {
		errs = append(errs, fmt.Errorf("games.default_language %q is not supported; valid values: %v", cfg.Games.DefaultLanguage, story.Languages()))
	}

	// Session
	if cfg.Session.ChoiceTimeout < 0 {
		errs = append(errs, fmt.Errorf("session.choice_timeout %s must not be negative", cfg.Session.ChoiceTimeout))
	}

	// Storage availability warning
	if cfg.Storage.PostgresDSN == "" {
		slog.Warn("storage.postgres_dsn is empty; player progress will not survive a restart")
	}

	// Discord
	if cfg.Discord.Token == "" && (cfg.Discord.GuildID != "" || cfg.Discord.RoleID != "") {
		errs = append(errs, errors.New("discord.guild_id/role_id are set but discord.token is empty"))
	}

	return errors.Join(errs...)
}
