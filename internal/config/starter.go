package config

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// starterConfig mirrors the Config schema with yaml tags, used only to
// render the commented starter file written by `mariabak config init`.
type starterConfig struct {
	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`
	Retention struct {
		Default   starterPolicy            `yaml:"default"`
		Overrides map[string]starterPolicy `yaml:"overrides"`
	} `yaml:"retention"`
	Discord struct {
		WebhookURL string `yaml:"webhook_url"`
		OnSuccess  string `yaml:"on_success"`
		OnFailure  string `yaml:"on_failure"`
	} `yaml:"discord"`
	Servers []starterServer `yaml:"servers"`
}

type starterPolicy struct {
	KeepLast int     `yaml:"keep_last"`
	MaxGB    float64 `yaml:"max_gb"`
}

type starterServer struct {
	Host      string   `yaml:"host"`
	Port      int      `yaml:"port"`
	User      string   `yaml:"user"`
	Password  string   `yaml:"password"`
	Container string   `yaml:"container,omitempty"`
	Schedule  string   `yaml:"schedule"`
	Timeout   int      `yaml:"timeout"`
	Databases []string `yaml:"databases"`
}

// Starter renders a commented starter config file.
func Starter() ([]byte, error) {
	starter := starterConfig{}
	starter.Storage.Path = DefaultStoragePath
	starter.Retention.Default = starterPolicy{KeepLast: DefaultKeepLast, MaxGB: DefaultMaxGB}
	starter.Retention.Overrides = map[string]starterPolicy{
		"important_db": {KeepLast: 5, MaxGB: 1.0},
	}
	starter.Discord.WebhookURL = WebhookPlaceholder
	starter.Discord.OnSuccess = DefaultSuccessMessage
	starter.Discord.OnFailure = DefaultFailureMessage
	starter.Servers = []starterServer{
		{
			Host:      "db1.example.com",
			Port:      DefaultPort,
			User:      "backup",
			Password:  "change-me",
			Schedule:  "03:30",
			Timeout:   DefaultTimeoutSeconds,
			Databases: []string{"website_db", "important_db"},
		},
	}

	var buf bytes.Buffer

	buf.WriteString("# mariabak configuration.\n")
	buf.WriteString("# Servers run daily at 'schedule' (HH:MM) or every 'interval_hours'.\n")
	buf.WriteString("# Database entries may be plain names or {name: ..., timeout: ...}.\n")
	buf.WriteString("# Passwords may instead come from MARIABAK_PASSWORD_<HOST> or 'mariabak secret set'.\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	if err := enc.Encode(&starter); err != nil {
		return nil, fmt.Errorf("encode starter config: %w", err)
	}

	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode starter config: %w", err)
	}

	return buf.Bytes(), nil
}
