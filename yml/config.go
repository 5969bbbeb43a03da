package yml

import (
	"bytes"
	"context"
)

type contextKey string

func (c contextKey) String() string {
	return "yml-context-key-" + string(c)
}

const configContextKey = contextKey("config")

// OutputFormat is the serialization format of a document.
type OutputFormat string

const (
	OutputFormatJSON OutputFormat = "json"
	OutputFormatYAML OutputFormat = "yaml"
)

// Config controls how documents are written back out.
type Config struct {
	Indentation     int          // The indentation level of the document
	OutputFormat    OutputFormat // The output format to use when marshalling
	OriginalFormat  OutputFormat // The original input format, helps detect when we are changing formats
	TrailingNewline bool         // Whether the original document had a trailing newline
}

var defaultConfig = &Config{
	Indentation:     2,
	OutputFormat:    OutputFormatYAML,
	OriginalFormat:  OutputFormatYAML,
	TrailingNewline: true,
}

// GetDefaultConfig returns a copy of the default configuration.
func GetDefaultConfig() *Config {
	cfg := *defaultConfig
	return &cfg
}

// ContextWithConfig returns a context carrying the provided config.
func ContextWithConfig(ctx context.Context, config *Config) context.Context {
	if config == nil {
		return ctx
	}

	return context.WithValue(ctx, configContextKey, config)
}

// GetConfigFromContext returns the config stored in ctx or a copy of the default config.
func GetConfigFromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configContextKey).(*Config); ok && cfg != nil {
		return cfg
	}

	return GetDefaultConfig()
}

// GetConfigFromDoc inspects raw document bytes to build a config that writes the document back the way it was read.
func GetConfigFromDoc(data []byte) *Config {
	cfg := GetDefaultConfig()

	cfg.OutputFormat = DetectFormat(data)
	cfg.OriginalFormat = cfg.OutputFormat
	cfg.Indentation = inspectIndentation(data)
	cfg.TrailingNewline = len(data) > 0 && data[len(data)-1] == '\n'

	return cfg
}

// inspectIndentation finds the first increase in leading spaces relative to the shallowest line.
func inspectIndentation(data []byte) int {
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))

	baseline := -1
	for i, line := range lines {
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 || trimmed[0] == '#' {
			continue
		}

		leading := len(line) - len(bytes.TrimLeft(line, " "))

		if baseline == -1 || leading < baseline {
			baseline = leading
			continue
		}

		if leading > baseline {
			return leading - baseline
		}

		if i > 20 {
			break
		}
	}

	return defaultConfig.Indentation
}
