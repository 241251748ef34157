package config

// ConfigDiff describes what changed between two loaded configs. Only
// the log level can be applied to a running server; every other
// section is read once at startup.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// RestartRequired lists the sections whose new values cannot take
	// effect without restarting the server.
	RestartRequired []string
}

// Empty reports whether the diff carries no changes at all.
func (d ConfigDiff) Empty() bool {
	return !d.LogLevelChanged && len(d.RestartRequired) == 0
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Server.ListenAddr != new.Server.ListenAddr {
		d.RestartRequired = append(d.RestartRequired, "server.listen_addr")
	}
	if old.Storage != new.Storage {
		d.RestartRequired = append(d.RestartRequired, "storage")
	}
	if old.Games != new.Games {
		d.RestartRequired = append(d.RestartRequired, "games")
	}
	if old.Session.ChoiceTimeout != new.Session.ChoiceTimeout ||
		old.Session.StatusEnabled() != new.Session.StatusEnabled() {
		d.RestartRequired = append(d.RestartRequired, "session")
	}
	if old.Discord != new.Discord {
		d.RestartRequired = append(d.RestartRequired, "discord")
	}

	return d
}
