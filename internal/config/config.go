// Package config provides configuration management for FocusFlow.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. FOCUSFLOW_SERVER_ADDR.
const EnvPrefix = "FOCUSFLOW"

// Config holds all configuration for the FocusFlow application.
type Config struct {
	Server        ServerConfig       `mapstructure:"server"`
	Auth          AuthConfig         `mapstructure:"auth"`
	Storage       StorageConfig      `mapstructure:"storage"`
	Timer         TimerConfig        `mapstructure:"timer"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Log           LogConfig          `mapstructure:"log"`
	CLI           CLIConfig          `mapstructure:"cli"`
	Theme         ThemeConfig        `mapstructure:"theme"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string   `mapstructure:"addr"`
	Compress        bool     `mapstructure:"compress"`
	OriginPatterns  []string `mapstructure:"origin_patterns"`
	ShutdownTimeout Duration `mapstructure:"shutdown_timeout"`
	QueueSize       int      `mapstructure:"queue_size"`
}

// AuthConfig holds session cookie and password settings. An empty secret
// generates a random one at startup.
type AuthConfig struct {
	Secret        string   `mapstructure:"secret"`
	CookieName    string   `mapstructure:"cookie_name"`
	SessionTTL    Duration `mapstructure:"session_ttl"`
	SecureCookies string   `mapstructure:"secure_cookies"`
	BcryptCost    int      `mapstructure:"bcrypt_cost"`
}

// StorageConfig holds storage settings. Driver is "sqlite" or "memory".
type StorageConfig struct {
	Driver  string `mapstructure:"driver"`
	DataDir string `mapstructure:"data_dir"`
}

// TimerConfig holds engine scheduling settings.
type TimerConfig struct {
	TickInterval  Duration `mapstructure:"tick_interval"`
	DefaultPreset string   `mapstructure:"default_preset"`
}

// NotificationConfig holds notification settings.
type NotificationConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Sound   bool `mapstructure:"sound"`
}

// LogConfig selects the slog handler. Format is text, json or auto.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CLIConfig holds settings for the local terminal commands.
type CLIConfig struct {
	UserEmail string `mapstructure:"user_email"`
	DetectGit bool   `mapstructure:"detect_git"`
}

// ThemeConfig holds the terminal timer colors.
type ThemeConfig struct {
	ColorWork           string `mapstructure:"color_work"`
	ColorBreak          string `mapstructure:"color_break"`
	ColorPaused         string `mapstructure:"color_paused"`
	ColorTitle          string `mapstructure:"color_title"`
	ColorHelp           string `mapstructure:"color_help"`
	WorkGradientStart   string `mapstructure:"work_gradient_start"`
	WorkGradientEnd     string `mapstructure:"work_gradient_end"`
	BreakGradientStart  string `mapstructure:"break_gradient_start"`
	BreakGradientEnd    string `mapstructure:"break_gradient_end"`
	PausedGradientStart string `mapstructure:"paused_gradient_start"`
	PausedGradientEnd   string `mapstructure:"paused_gradient_end"`
}

// DefaultThemeConfig returns the default theme configuration.
func DefaultThemeConfig() ThemeConfig {
	return ThemeConfig{
		ColorWork:           "#7C6FE0",
		ColorBreak:          "#4ECDC4",
		ColorPaused:         "#6B7280",
		ColorTitle:          "#6B7280",
		ColorHelp:           "#95A5A6",
		WorkGradientStart:   "#7C6FE0",
		WorkGradientEnd:     "#A78BFA",
		BreakGradientStart:  "#4ECDC4",
		BreakGradientEnd:    "#2ECC71",
		PausedGradientStart: "#6B7280",
		PausedGradientEnd:   "#4B5563",
	}
}

// Duration is a wrapper around time.Duration for TOML parsing.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(duration)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// String returns the string representation of the duration.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            "127.0.0.1:8080",
			Compress:        true,
			ShutdownTimeout: Duration(10 * time.Second),
			QueueSize:       256,
		},
		Auth: AuthConfig{
			CookieName:    "focusflow_session",
			SessionTTL:    Duration(7 * 24 * time.Hour),
			SecureCookies: "auto",
		},
		Storage: StorageConfig{
			Driver:  "sqlite",
			DataDir: "~/.focusflow",
		},
		Timer: TimerConfig{
			TickInterval:  Duration(time.Second),
			DefaultPreset: "custom",
		},
		Notifications: NotificationConfig{
			Enabled: true,
			Sound:   true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
		CLI: CLIConfig{
			UserEmail: "local@focusflow.local",
			DetectGit: true,
		},
		Theme: DefaultThemeConfig(),
	}
}

// Load loads the configuration from the default config file, creating it
// with defaults on first run.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from configPath. Environment variables
// prefixed with FOCUSFLOW_ override file values.
func LoadFrom(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := SaveTo(configPath, DefaultConfig()); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	v := newViper(configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	dataDir, err := expandHome(cfg.Storage.DataDir)
	if err != nil {
		return nil, err
	}
	cfg.Storage.DataDir = dataDir

	return &cfg, nil
}

// Save saves the configuration to the default config file.
func Save(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	return SaveTo(configPath, cfg)
}

// SaveTo writes cfg to configPath as TOML.
func SaveTo(configPath string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	for key, value := range flatten(cfg) {
		v.Set(key, value)
	}
	return v.WriteConfig()
}

// GetConfigPath returns the path to the config file.
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".focusflow", "config.toml"), nil
}

// GetDBPath returns the path to the database file.
func GetDBPath(cfg *Config) string {
	return filepath.Join(cfg.Storage.DataDir, "focusflow.db")
}

func newViper(configPath string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults double as the key list AutomaticEnv consults on Unmarshal.
	for key, value := range flatten(DefaultConfig()) {
		v.SetDefault(key, value)
	}
	return v
}

// flatten maps cfg to dotted viper keys.
func flatten(cfg *Config) map[string]any {
	origins := cfg.Server.OriginPatterns
	if origins == nil {
		origins = []string{}
	}
	return map[string]any{
		"server.addr":             cfg.Server.Addr,
		"server.compress":         cfg.Server.Compress,
		"server.origin_patterns":  origins,
		"server.shutdown_timeout": cfg.Server.ShutdownTimeout.String(),
		"server.queue_size":       cfg.Server.QueueSize,

		"auth.secret":         cfg.Auth.Secret,
		"auth.cookie_name":    cfg.Auth.CookieName,
		"auth.session_ttl":    cfg.Auth.SessionTTL.String(),
		"auth.secure_cookies": cfg.Auth.SecureCookies,
		"auth.bcrypt_cost":    cfg.Auth.BcryptCost,

		"storage.driver":   cfg.Storage.Driver,
		"storage.data_dir": cfg.Storage.DataDir,

		"timer.tick_interval":  cfg.Timer.TickInterval.String(),
		"timer.default_preset": cfg.Timer.DefaultPreset,

		"notifications.enabled": cfg.Notifications.Enabled,
		"notifications.sound":   cfg.Notifications.Sound,

		"log.level":  cfg.Log.Level,
		"log.format": cfg.Log.Format,

		"cli.user_email": cfg.CLI.UserEmail,
		"cli.detect_git": cfg.CLI.DetectGit,

		"theme.color_work":            cfg.Theme.ColorWork,
		"theme.color_break":           cfg.Theme.ColorBreak,
		"theme.color_paused":          cfg.Theme.ColorPaused,
		"theme.color_title":           cfg.Theme.ColorTitle,
		"theme.color_help":            cfg.Theme.ColorHelp,
		"theme.work_gradient_start":   cfg.Theme.WorkGradientStart,
		"theme.work_gradient_end":     cfg.Theme.WorkGradientEnd,
		"theme.break_gradient_start":  cfg.Theme.BreakGradientStart,
		"theme.break_gradient_end":    cfg.Theme.BreakGradientEnd,
		"theme.paused_gradient_start": cfg.Theme.PausedGradientStart,
		"theme.paused_gradient_end":   cfg.Theme.PausedGradientEnd,
	}
}

func expandHome(dir string) (string, error) {
	if dir != "" && dir != "~" && !strings.HasPrefix(dir, "~/") {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	if dir == "" || dir == "~" {
		return filepath.Join(homeDir, ".focusflow"), nil
	}
	return filepath.Join(homeDir, dir[2:]), nil
}
