// Package config loads the autotransferd configuration file.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chatroute/autotransfer/pkg/livechat"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid config")

// Config is the daemon configuration.
type Config struct {
	// Settings seeds the settings store, including the auto-transfer
	// timeout in milliseconds.
	Settings map[string]any `yaml:"settings"`

	// Agents are the agents available for transfers.
	Agents []livechat.Agent `yaml:"agents"`

	// Rooms are preloaded into the room store.
	Rooms []RoomConfig `yaml:"rooms"`

	// Monitor configures the auto-transfer monitor.
	Monitor MonitorConfig `yaml:"monitor"`

	// Paths configures file locations.
	Paths PathsConfig `yaml:"paths"`

	// Logging configures operational logging.
	Logging LoggingConfig `yaml:"logging"`
}

// RoomConfig describes a preloaded room.
type RoomConfig struct {
	ID string `yaml:"id"`

	// Type is the room type code. Default: l
	Type string `yaml:"type"`

	// ServedBy is the username of the serving agent, if any.
	ServedBy string `yaml:"served_by"`

	// Closed marks the room as closed.
	Closed bool `yaml:"closed"`
}

// MonitorConfig configures the auto-transfer monitor.
type MonitorConfig struct {
	// TransferTimeout bounds one transfer attempt. Default: 30s
	TransferTimeout Duration `yaml:"transfer_timeout"`

	// RestoreGrace delays restored transfers whose deadline already
	// passed. Default: 1s
	RestoreGrace Duration `yaml:"restore_grace"`
}

// PathsConfig configures file locations. Empty paths disable the
// corresponding feature.
type PathsConfig struct {
	// EventLog is the CBOR event log file.
	EventLog string `yaml:"event_log"`

	// StateFile is the pending-transfer snapshot.
	StateFile string `yaml:"state_file"`
}

// LoggingConfig configures operational logging.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error. Default: info
	Level string `yaml:"level"`

	// Format is text or json. Default: text
	Format string `yaml:"format"`
}

// Duration is a time.Duration written as a Go duration string in YAML.
type Duration time.Duration

// UnmarshalYAML parses strings like "30s" or "1m30s".
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration: %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes the duration as a string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the default configuration. Auto-transfer starts
// disabled because no timeout setting is seeded.
func Default() *Config {
	return &Config{
		Settings: map[string]any{},
		Monitor: MonitorConfig{
			TransferTimeout: Duration(30 * time.Second),
			RestoreGrace:    Duration(time.Second),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Settings == nil {
		cfg.Settings = map[string]any{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks references and enumerations.
func (c *Config) Validate() error {
	agents := make(map[string]bool, len(c.Agents))
	for i, a := range c.Agents {
		if a.Username == "" {
			return fmt.Errorf("%w: agents[%d]: username is required", ErrInvalid, i)
		}
		if agents[a.Username] {
			return fmt.Errorf("%w: agents[%d]: duplicate username %q", ErrInvalid, i, a.Username)
		}
		agents[a.Username] = true
	}

	rooms := make(map[string]bool, len(c.Rooms))
	for i, r := range c.Rooms {
		if r.ID == "" {
			return fmt.Errorf("%w: rooms[%d]: id is required", ErrInvalid, i)
		}
		if rooms[r.ID] {
			return fmt.Errorf("%w: rooms[%d]: duplicate id %q", ErrInvalid, i, r.ID)
		}
		rooms[r.ID] = true
		if _, err := parseRoomType(r.Type); err != nil {
			return fmt.Errorf("%w: rooms[%d]: %v", ErrInvalid, i, err)
		}
		if r.ServedBy != "" && !agents[r.ServedBy] {
			return fmt.Errorf("%w: rooms[%d]: unknown agent %q", ErrInvalid, i, r.ServedBy)
		}
	}

	if c.Monitor.TransferTimeout <= 0 {
		return fmt.Errorf("%w: monitor.transfer_timeout must be positive", ErrInvalid)
	}
	if c.Monitor.RestoreGrace <= 0 {
		return fmt.Errorf("%w: monitor.restore_grace must be positive", ErrInvalid)
	}

	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: logging.level: %v", ErrInvalid, err)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: logging.format %q: want text or json", ErrInvalid, c.Logging.Format)
	}
	return nil
}

// LivechatRooms builds the configured rooms.
func (c *Config) LivechatRooms() []*livechat.Room {
	agents := make(map[string]livechat.Agent, len(c.Agents))
	for _, a := range c.Agents {
		agents[a.Username] = a
	}

	rooms := make([]*livechat.Room, 0, len(c.Rooms))
	for _, r := range c.Rooms {
		typ, _ := parseRoomType(r.Type)
		room := &livechat.Room{ID: r.ID, Type: typ, Open: !r.Closed}
		if a, ok := agents[r.ServedBy]; ok {
			room.ServedBy = &a
		}
		rooms = append(rooms, room)
	}
	return rooms
}

// NewLogger returns an slog logger writing to w at the configured level
// and format.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, _ := ParseLevel(c.Logging.Level)
	opts := &slog.HandlerOptions{Level: level}
	if c.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel parses debug, info, warn, or error. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown level %q", s)
	}
}

func parseRoomType(s string) (livechat.RoomType, error) {
	switch livechat.RoomType(s) {
	case "":
		return livechat.RoomTypeLivechat, nil
	case livechat.RoomTypeLivechat, livechat.RoomTypeChannel, livechat.RoomTypeDirect, livechat.RoomTypePrivate:
		return livechat.RoomType(s), nil
	default:
		return "", fmt.Errorf("unknown room type %q", s)
	}
}
