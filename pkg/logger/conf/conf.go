package conf

import "strings"

type Level string

const (
	TraceLevel Level = "trace"
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
	FatalLevel Level = "fatal"
)

type Formatter string

const (
	JSONFormater    Formatter = "json"
	ConsoleFormater Formatter = "console"
)

func isValidFormatter(f Formatter) bool {
	return (f == JSONFormater) || (f == ConsoleFormater)
}

// LogConfig controls the global logger output.
type LogConfig struct {
	Level     Level     `json:"level" yaml:"level"`
	Formatter Formatter `json:"formatter" yaml:"formatter"`

	// File enables rotating file output when non-empty; stdout otherwise.
	File       string `json:"file" yaml:"file"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days"`
}

func DefaultConfig() *LogConfig {
	return &LogConfig{
		Level:      InfoLevel,
		Formatter:  JSONFormater,
		MaxSizeMB:  100,
		MaxBackups: 3,
		MaxAgeDays: 14,
	}
}

// Normalize fills invalid fields with defaults.
func (c *LogConfig) Normalize() {
	c.Level = Level(strings.ToLower(string(c.Level)))
	switch c.Level {
	case TraceLevel, DebugLevel, InfoLevel, WarnLevel, ErrorLevel, FatalLevel:
	default:
		c.Level = InfoLevel
	}
	if !isValidFormatter(c.Formatter) {
		c.Formatter = JSONFormater
	}
	if c.MaxSizeMB <= 0 {
		c.MaxSizeMB = 100
	}
}
