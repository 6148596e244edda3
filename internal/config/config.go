package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/magiconair/properties"
	dserrors "github.com/systmms/dbpassrotate/internal/errors"
	"github.com/systmms/dbpassrotate/internal/logging"
	"gopkg.in/yaml.v3"
)

// Recognised setting keys
const (
	KeyIgnoreErrors   = "ignore_errors"
	KeyDatabaseNames  = "db_names"
	KeyConnectTimeout = "connect_timeout"
	KeyLogFile        = "log_file"
	KeyMetricsFile    = "metrics_file"
	KeyHistoryDir     = "history_dir"

	connectionURLSuffix = "_connection_url"
)

// DefaultConnectTimeout bounds connect plus execute for one database
const DefaultConnectTimeout = 30 * time.Second

// Config holds the runtime configuration
type Config struct {
	Path     string
	Logger   *logging.Logger
	Settings *Settings
}

// Load reads the settings file at c.Path.
// Files ending in .yaml or .yml are read as a flat YAML mapping;
// anything else is read as a Java properties file.
func (c *Config) Load() error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return dserrors.ConfigError{
				Field:      "path",
				Value:      c.Path,
				Message:    "settings file not found",
				Suggestion: "Create settings.properties next to the binary or pass --config <path>",
			}
		}
		return dserrors.UserError{
			Message:    "Failed to read settings file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	var settings *Settings
	switch strings.ToLower(filepath.Ext(c.Path)) {
	case ".yaml", ".yml":
		settings, err = parseYAML(data)
	default:
		settings, err = parseProperties(data)
	}
	if err != nil {
		return err
	}

	c.Settings = settings
	return nil
}

func parseProperties(data []byte) (*Settings, error) {
	// Expansion stays off: passwords and URLs may legitimately contain "${"
	loader := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	p, err := loader.LoadBytes(data)
	if err != nil {
		return nil, dserrors.ConfigError{
			Message:    fmt.Sprintf("invalid properties syntax: %v", err),
			Suggestion: "Use one key=value pair per line and escape backslashes",
		}
	}

	values := make(map[string]string, p.Len())
	for _, key := range p.Keys() {
		value, _ := p.Get(key)
		values[key] = value
	}
	return NewSettings(values), nil
}

func parseYAML(data []byte) (*Settings, error) {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, dserrors.ConfigError{
			Message:    "invalid YAML syntax in settings file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters",
		}
	}

	values := make(map[string]string, len(raw))
	for key, node := range raw {
		if node.Kind != yaml.ScalarNode {
			return nil, dserrors.ConfigError{
				Field:      key,
				Message:    "settings must be plain key: value pairs",
				Suggestion: "Write lists such as db_names as a comma separated string",
			}
		}
		values[key] = node.Value
	}
	return NewSettings(values), nil
}

// Settings is the key/value property set the rotation run reads from.
// It is built once at startup and passed to the runner.
type Settings struct {
	values map[string]string
}

// NewSettings creates settings from a plain map; the map is copied
func NewSettings(values map[string]string) *Settings {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &Settings{values: copied}
}

// Lookup returns the raw value for key and whether it was present
func (s *Settings) Lookup(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	value, ok := s.values[key]
	return value, ok
}

// Bool interprets key as a boolean. "true", "yes" and "y" (any case) are
// true, an absent or empty value yields def, and anything else is false.
func (s *Settings) Bool(key string, def bool) bool {
	value, ok := s.Lookup(key)
	if !ok || value == "" {
		return def
	}
	switch strings.ToLower(value) {
	case "true", "yes", "y":
		return true
	default:
		return false
	}
}

// IgnoreErrors reports whether the run continues past a failed database
func (s *Settings) IgnoreErrors() bool {
	return s.Bool(KeyIgnoreErrors, true)
}

// DatabaseNames returns the db_names setting
func (s *Settings) DatabaseNames() (string, bool) {
	return s.Lookup(KeyDatabaseNames)
}

// ConnectionURLKey returns the setting key holding the URL for database
func ConnectionURLKey(database string) string {
	return database + connectionURLSuffix
}

// ConnectionURL returns the configured connection URL for database
func (s *Settings) ConnectionURL(database string) (string, bool) {
	return s.Lookup(ConnectionURLKey(database))
}

// ConnectTimeout returns connect_timeout in seconds as a duration.
// Missing, malformed or non-positive values fall back to DefaultConnectTimeout.
func (s *Settings) ConnectTimeout() time.Duration {
	value, ok := s.Lookup(KeyConnectTimeout)
	if !ok {
		return DefaultConnectTimeout
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || seconds <= 0 {
		return DefaultConnectTimeout
	}
	return time.Duration(seconds) * time.Second
}

// LogFile returns the log_file setting, if any
func (s *Settings) LogFile() string {
	value, _ := s.Lookup(KeyLogFile)
	return strings.TrimSpace(value)
}

// MetricsFile returns the metrics_file setting, if any
func (s *Settings) MetricsFile() string {
	value, _ := s.Lookup(KeyMetricsFile)
	return strings.TrimSpace(value)
}

// HistoryDir returns the history_dir setting, if any
func (s *Settings) HistoryDir() string {
	value, _ := s.Lookup(KeyHistoryDir)
	return strings.TrimSpace(value)
}
