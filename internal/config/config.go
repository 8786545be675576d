// Package config handles mariabak configuration using Viper.
//
// Configuration sources (in priority order):
//  1. Environment variables (MARIABAK_*)
//  2. Config file (./config.yml, else <user config dir>/mariabak/config.yaml)
//  3. Built-in defaults
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	clierrors "github.com/mariabak-dev/mariabak/internal/errors"
	"github.com/mariabak-dev/mariabak/internal/paths"
)

const (
	// LocalConfigFile is the working-directory config file checked first.
	LocalConfigFile = "config.yml"

	// DefaultStoragePath is the default backup storage directory.
	DefaultStoragePath = "./backups"
	// DefaultPort is the default MariaDB port.
	DefaultPort = 3306
	// DefaultTimeoutSeconds is the default per-dump timeout.
	DefaultTimeoutSeconds = 3600
	// DefaultKeepLast is the default count-based retention limit.
	DefaultKeepLast = 10
	// DefaultMaxGB is the default size-based retention limit.
	DefaultMaxGB = 5.0

	// DefaultSuccessMessage is the default webhook success template.
	DefaultSuccessMessage = "Backup of {database} on {host} completed successfully."
	// DefaultFailureMessage is the default webhook failure template.
	DefaultFailureMessage = "Backup of {database} on {host} failed: {error}"

	// WebhookPlaceholder is the starter-file webhook value, treated as unset.
	WebhookPlaceholder = "YOUR_DISCORD_WEBHOOK_URL"

	// scheduleLayout is the time layout for daily schedules.
	scheduleLayout = "15:04"
)

// Config is the fully decoded mariabak configuration.
type Config struct {
	Storage   StorageConfig   `mapstructure:"storage"`
	Retention RetentionConfig `mapstructure:"retention"`
	Discord   DiscordConfig   `mapstructure:"discord"`
	Servers   []ServerConfig  `mapstructure:"servers"`

	file string
}

// StorageConfig locates the backup store on disk.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// RetentionPolicy bounds the backups kept for one database.
type RetentionPolicy struct {
	KeepLast int     `mapstructure:"keep_last"`
	MaxGB    float64 `mapstructure:"max_gb"`
}

// RetentionConfig holds the default policy and per-database overrides.
type RetentionConfig struct {
	Default   RetentionPolicy            `mapstructure:"default"`
	Overrides map[string]RetentionPolicy `mapstructure:"overrides"`
}

// PolicyFor returns the retention policy for a database: the override if one
// exists, the default otherwise.
func (r RetentionConfig) PolicyFor(database string) RetentionPolicy {
	if policy, ok := r.Overrides[database]; ok {
		return policy
	}

	return r.Default
}

// DiscordConfig configures webhook notifications.
type DiscordConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
	OnSuccess  string `mapstructure:"on_success"`
	OnFailure  string `mapstructure:"on_failure"`
}

// DatabaseConfig names one database to back up. In YAML it may be a plain
// string or a map with a per-database timeout override.
type DatabaseConfig struct {
	Name    string `mapstructure:"name"`
	Timeout int    `mapstructure:"timeout"`
}

// ServerConfig describes one MariaDB server and its backup cadence.
type ServerConfig struct {
	Host          string           `mapstructure:"host"`
	Port          int              `mapstructure:"port"`
	User          string           `mapstructure:"user"`
	Password      string           `mapstructure:"password"`
	Container     string           `mapstructure:"container"`
	Timeout       int              `mapstructure:"timeout"`
	Schedule      string           `mapstructure:"schedule"`
	IntervalHours int              `mapstructure:"interval_hours"`
	Databases     []DatabaseConfig `mapstructure:"databases"`
}

// Load reads configuration from all sources and decodes it.
// A missing config file is not an error; a malformed one is.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if _, err := os.Stat(LocalConfigFile); err == nil {
		v.SetConfigFile(LocalConfigFile)
	} else if root, rootErr := paths.ConfigRoot(); rootErr == nil {
		v.AddConfigPath(root)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("MARIABAK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, clierrors.ConfigInvalid(err)
		}
	}

	cfg := &Config{}

	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		stringToDatabaseHook,
	))

	if err := v.Unmarshal(cfg, decodeHook); err != nil {
		return nil, clierrors.ConfigInvalid(err)
	}

	cfg.file = v.ConfigFileUsed()
	cfg.applyDefaults()

	return cfg, nil
}

// FileUsed returns the path of the config file that was read, or "" when
// running on defaults only.
func (c *Config) FileUsed() string {
	return c.file
}

// ServerFor returns the server configuration for the given host.
func (c *Config) ServerFor(host string) (ServerConfig, bool) {
	for _, server := range c.Servers {
		if server.Host == host {
			return server, true
		}
	}

	return ServerConfig{}, false
}

// Validate checks the decoded configuration for problems that would make
// backups fail or silently never run.
func (c *Config) Validate() error {
	var problems []string

	if c.Retention.Default.KeepLast < 0 {
		problems = append(problems, "retention.default.keep_last must not be negative")
	}

	if c.Retention.Default.MaxGB <= 0 {
		problems = append(problems, "retention.default.max_gb must be positive")
	}

	for name, policy := range c.Retention.Overrides {
		if policy.KeepLast < 0 {
			problems = append(problems, fmt.Sprintf("retention override for %s: keep_last must not be negative", name))
		}

		if policy.MaxGB <= 0 {
			problems = append(problems, fmt.Sprintf("retention override for %s: max_gb must be positive", name))
		}
	}

	for i, server := range c.Servers {
		label := server.Host
		if label == "" {
			label = fmt.Sprintf("servers[%d]", i)
		}

		if server.Host == "" {
			problems = append(problems, fmt.Sprintf("%s: host is required", label))
		}

		if server.User == "" {
			problems = append(problems, fmt.Sprintf("%s: user is required", label))
		}

		if server.Port < 1 || server.Port > 65535 {
			problems = append(problems, fmt.Sprintf("%s: port %d out of range", label, server.Port))
		}

		if len(server.Databases) == 0 {
			problems = append(problems, fmt.Sprintf("%s: at least one database is required", label))
		}

		for _, db := range server.Databases {
			if db.Name == "" {
				problems = append(problems, fmt.Sprintf("%s: database entries need a name", label))
			}
		}

		if server.Schedule != "" {
			if _, err := ParseDailySchedule(server.Schedule); err != nil {
				problems = append(problems, fmt.Sprintf("%s: %v", label, err))
			}
		}

		if server.IntervalHours < 0 {
			problems = append(problems, fmt.Sprintf("%s: interval_hours must not be negative", label))
		}
	}

	if len(problems) == 0 {
		return nil
	}

	return clierrors.ConfigInvalid(errors.New(strings.Join(problems, "; ")))
}

// ParseDailySchedule parses an HH:MM daily schedule string.
func ParseDailySchedule(schedule string) (time.Time, error) {
	at, err := time.Parse(scheduleLayout, schedule)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid schedule %q (expected HH:MM)", schedule)
	}

	return at, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.path", DefaultStoragePath)
	v.SetDefault("retention.default.keep_last", DefaultKeepLast)
	v.SetDefault("retention.default.max_gb", DefaultMaxGB)
	v.SetDefault("discord.webhook_url", "")
	v.SetDefault("discord.on_success", DefaultSuccessMessage)
	v.SetDefault("discord.on_failure", DefaultFailureMessage)
}

// applyDefaults fills per-server and per-database fallbacks that cannot be
// expressed as global viper defaults.
func (c *Config) applyDefaults() {
	if c.Storage.Path == "" {
		c.Storage.Path = DefaultStoragePath
	}

	for i := range c.Servers {
		server := &c.Servers[i]

		if server.Port == 0 {
			server.Port = DefaultPort
		}

		if server.Timeout == 0 {
			server.Timeout = DefaultTimeoutSeconds
		}

		for j := range server.Databases {
			if server.Databases[j].Timeout == 0 {
				server.Databases[j].Timeout = server.Timeout
			}
		}
	}
}

// stringToDatabaseHook lets YAML database entries be either a plain string
// ("website_db") or a map ({name: big_db, timeout: 7200}).
func stringToDatabaseHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(DatabaseConfig{}) || from.Kind() != reflect.String {
		return data, nil
	}

	name, ok := data.(string)
	if !ok {
		return data, nil
	}

	return DatabaseConfig{Name: name}, nil
}
