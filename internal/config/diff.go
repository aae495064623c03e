package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked; provider,
// storage, and listen-address changes require a restart.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// TemplatesDirChanged means the summary template directory moved; the
	// loader picks it up for subsequent generations.
	TemplatesDirChanged bool
	NewTemplatesDir     string

	// CaptureChanged means the live window tuning changed; running capture
	// sessions keep their settings, new sessions use the new values.
	CaptureChanged bool
	NewCapture     CaptureConfig
}

// Any reports whether the diff contains at least one change.
func (d ConfigDiff) Any() bool {
	return d.LogLevelChanged || d.TemplatesDirChanged || d.CaptureChanged
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}
	if old.Templates.Dir != new.Templates.Dir {
		d.TemplatesDirChanged = true
		d.NewTemplatesDir = new.Templates.Dir
	}
	if old.Capture != new.Capture {
		d.CaptureChanged = true
		d.NewCapture = new.Capture
	}

	return d
}
