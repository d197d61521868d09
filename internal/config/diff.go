package config

import (
	"maps"
	"reflect"
	"slices"
)

// ConfigDiff describes what changed between two configs. Only settings that
// can be applied without a restart are tracked; everything else shows up as
// RestartRequired.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// VoiceChanged means the catalog, profiles, moods, or default intensity
	// differ and the voice tables must be rebuilt.
	VoiceChanged bool

	// CrisisChanged means the hotline, fallback contacts, or analyzer
	// temperature differ.
	CrisisChanged bool

	// CheckInDelaysChanged means only the per-level due delays differ.
	CheckInDelaysChanged bool

	// RestartRequired lists top-level sections whose changes are ignored
	// until the process restarts.
	RestartRequired []string
}

// Empty reports whether nothing changed.
func (d ConfigDiff) Empty() bool {
	return !d.LogLevelChanged && !d.VoiceChanged && !d.CrisisChanged &&
		!d.CheckInDelaysChanged && len(d.RestartRequired) == 0
}

// Diff compares old and new.
func Diff(old, new *Config) ConfigDiff {
	var d ConfigDiff

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	d.VoiceChanged = !reflect.DeepEqual(old.Voice, new.Voice)
	d.CrisisChanged = old.Crisis.Hotline != new.Crisis.Hotline ||
		old.Crisis.AnalyzerTemperature != new.Crisis.AnalyzerTemperature ||
		!slices.Equal(old.Crisis.FallbackContacts, new.Crisis.FallbackContacts)
	d.CheckInDelaysChanged = !maps.Equal(old.CheckIn.Delays, new.CheckIn.Delays)

	if old.Server.ListenAddr != new.Server.ListenAddr || !reflect.DeepEqual(old.Server.TLS, new.Server.TLS) {
		d.RestartRequired = append(d.RestartRequired, "server")
	}
	if !reflect.DeepEqual(old.Providers, new.Providers) {
		d.RestartRequired = append(d.RestartRequired, "providers")
	}
	if old.CheckIn.PostgresDSN != new.CheckIn.PostgresDSN || old.CheckIn.File != new.CheckIn.File ||
		old.CheckIn.SweepInterval != new.CheckIn.SweepInterval {
		d.RestartRequired = append(d.RestartRequired, "checkin")
	}
	return d
}
