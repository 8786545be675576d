// Package secrets resolves MariaDB passwords for configured servers.
//
// Passwords are sourced in the following priority order:
//  1. The 'password' field in config.yml
//  2. Environment variable: MARIABAK_PASSWORD_<HOST>
//  3. OS keyring (macOS Keychain, Windows Credential Manager, Linux Secret Service)
package secrets

import (
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	clierrors "github.com/mariabak-dev/mariabak/internal/errors"
)

// keyringService is the service name used in OS keyring storage.
// The account name is the server host.
const keyringService = "mariabak"

// Source indicates where a password was found.
type Source string

// Password source constants identify where a password was loaded from.
const (
	SourceConfig  Source = "config file"
	SourceEnv     Source = "environment variable"
	SourceKeyring Source = "keyring"
	SourceNone    Source = ""
)

// EnvVar returns the password environment variable name for a host,
// e.g. db1.example.com -> MARIABAK_PASSWORD_DB1_EXAMPLE_COM.
func EnvVar(host string) string {
	sanitized := strings.NewReplacer(".", "_", "-", "_").Replace(host)
	return "MARIABAK_PASSWORD_" + strings.ToUpper(sanitized)
}

// Resolve returns the password for a host and where it came from.
// configPassword is the value from the server's config entry, which wins
// when set. Returns SourceNone and an empty string when nothing is found.
func Resolve(host, configPassword string) (Source, string) {
	if configPassword != "" {
		return SourceConfig, configPassword
	}

	if password := os.Getenv(EnvVar(host)); password != "" {
		return SourceEnv, password
	}

	if password, err := keyring.Get(keyringService, host); err == nil && password != "" {
		return SourceKeyring, password
	}

	return SourceNone, ""
}

// Store saves a password for a host in the OS keyring.
func Store(host, password string) error {
	if err := keyring.Set(keyringService, host, password); err != nil {
		return clierrors.KeyringFailed("store the password", err)
	}

	return nil
}

// Delete removes the stored password for a host from the OS keyring.
func Delete(host string) error {
	if err := keyring.Delete(keyringService, host); err != nil {
		return clierrors.KeyringFailed("delete the password", err)
	}

	return nil
}
