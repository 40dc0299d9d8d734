// Package config holds the settings of the paradox-reader command.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"gopkg.in/yaml.v3"

	"github.com/dot5enko/paradox-reader/codepage"
)

// ReaderConfig controls how tables are decoded.
type ReaderConfig struct {
	// CodePage is a DOS/ANSI code page id, 0 meaning the default.
	CodePage          uint16 `yaml:"code_page"`
	UseHeaderCodePage bool   `yaml:"use_header_code_page"`
	Mmap              bool   `yaml:"mmap"`
	BCDAsDecimal      bool   `yaml:"bcd_as_decimal"`
}

// OutputConfig controls the export of rows.
type OutputConfig struct {
	// Dir receives one export file per table; empty prints to stdout.
	Dir string `yaml:"dir"`
	// Compression is "none" or "lz4".
	Compression string `yaml:"compression"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Config is the top-level configuration.
type Config struct {
	DataDir string   `yaml:"data_dir"`
	Tables  []string `yaml:"tables"`
	Workers int      `yaml:"workers"`

	Reader  ReaderConfig  `yaml:"reader"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

var (
	ErrUnknownCodePage    = errors.New("unknown code page")
	ErrUnknownCompression = errors.New("unknown compression")
)

// Load reads YAML configuration from r on top of the defaults. A nil or
// empty reader yields the defaults.
func Load(r io.Reader) (*Config, error) {
	cfg := &Config{
		DataDir: ".",
		Workers: 4,
		Output: OutputConfig{
			Compression: "none",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}

	if r == nil {
		return cfg, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config data: %w", err)
	}

	if len(data) == 0 {
		return cfg, nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadConfig reads configuration from a YAML file by path. A missing file
// yields the defaults.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Load(nil)
		}
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer file.Close()

	return Load(file)
}

func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if _, err := c.Reader.Charset(); err != nil {
		return err
	}
	switch c.Output.Compression {
	case "", "none", "lz4":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCompression, c.Output.Compression)
	}
	return nil
}

// Charset returns the configured text encoding, nil when the default or
// the table header should decide.
func (r ReaderConfig) Charset() (encoding.Encoding, error) {
	if r.CodePage == 0 {
		return nil, nil
	}
	enc, ok := codepage.Lookup(r.CodePage)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCodePage, r.CodePage)
	}
	return enc, nil
}

// Compressed reports whether exports are lz4 compressed.
func (o OutputConfig) Compressed() bool {
	return o.Compression == "lz4"
}

// ParseLevel maps a level name to a slog level, falling back to info.
func ParseLevel(level string, logger *slog.Logger) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		if logger != nil {
			logger.Warn("invalid log level, using info", "level", level)
		}
		return slog.LevelInfo
	}
	return l
}
