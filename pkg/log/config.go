package log

import (
	"fmt"
	"strings"
)

// Config declares how to build a process logger.
type Config struct {
	Level   string         `json:"level" yaml:"level"`
	Format  string         `json:"format" yaml:"format"`
	Outputs []OutputConfig `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	// Redact lists field keys whose values are replaced with [REDACTED].
	Redact []string `json:"redact,omitempty" yaml:"redact,omitempty"`
	// Sampling, when Thereafter > 0, thins out repeated messages.
	Sampling *SamplingConfig `json:"sampling,omitempty" yaml:"sampling,omitempty"`
}

// OutputConfig selects one output: console, file or null.
type OutputConfig struct {
	Type string `json:"type" yaml:"type"`
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

type SamplingConfig struct {
	Initial    int `json:"initial" yaml:"initial"`
	Thereafter int `json:"thereafter" yaml:"thereafter"`
}

// ParseLevel parses debug|info|warn|error|fatal (case-insensitive).
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	case "fatal":
		return FatalLevel, nil
	default:
		return InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// ApplyConfig builds a Logger from cfg.
func ApplyConfig(cfg *Config) (Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := []LoggerOption{WithLevel(lvl)}

	switch strings.ToLower(cfg.Format) {
	case "", "text":
		opts = append(opts, WithFormatter(&TextFormatter{}))
	case "json":
		opts = append(opts, WithFormatter(&JSONFormatter{}))
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	for _, oc := range cfg.Outputs {
		switch strings.ToLower(oc.Type) {
		case "console", "":
			opts = append(opts, WithOutput(NewConsoleOutput()))
		case "file":
			if oc.Path == "" {
				return nil, fmt.Errorf("file output requires a path")
			}
			fo, err := NewFileOutput(oc.Path)
			if err != nil {
				return nil, fmt.Errorf("open log file: %w", err)
			}
			opts = append(opts, WithOutput(fo))
		case "null":
			opts = append(opts, WithOutput(NullOutput{}))
		default:
			return nil, fmt.Errorf("unknown log output %q", oc.Type)
		}
	}
	if len(cfg.Redact) > 0 {
		opts = append(opts, WithRedaction(cfg.Redact...))
	}
	if cfg.Sampling != nil {
		opts = append(opts, WithSampling(cfg.Sampling.Initial, cfg.Sampling.Thereafter))
	}
	return NewLogger(opts...), nil
}
