package secrets

import (
	"testing"

	"github.com/zalando/go-keyring"
)

func TestEnvVar(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{host: "localhost", want: "MARIABAK_PASSWORD_LOCALHOST"},
		{host: "db1.example.com", want: "MARIABAK_PASSWORD_DB1_EXAMPLE_COM"},
		{host: "my-db-host", want: "MARIABAK_PASSWORD_MY_DB_HOST"},
	}

	for _, tt := range tests {
		if got := EnvVar(tt.host); got != tt.want {
			t.Errorf("EnvVar(%q) = %q, want %q", tt.host, got, tt.want)
		}
	}
}

func TestResolvePriority(t *testing.T) {
	keyring.MockInit()

	host := "db1.example.com"

	if err := Store(host, "from-keyring"); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	t.Setenv(EnvVar(host), "from-env")

	// Config beats env and keyring.
	if source, pw := Resolve(host, "from-config"); source != SourceConfig || pw != "from-config" {
		t.Errorf("Resolve() = %q, %q; want config win", source, pw)
	}

	// Env beats keyring.
	if source, pw := Resolve(host, ""); source != SourceEnv || pw != "from-env" {
		t.Errorf("Resolve() = %q, %q; want env win", source, pw)
	}

	// Keyring as the last resort.
	t.Setenv(EnvVar(host), "")

	if source, pw := Resolve(host, ""); source != SourceKeyring || pw != "from-keyring" {
		t.Errorf("Resolve() = %q, %q; want keyring win", source, pw)
	}
}

func TestResolveNothingFound(t *testing.T) {
	keyring.MockInit()

	if source, pw := Resolve("unknown.example.com", ""); source != SourceNone || pw != "" {
		t.Errorf("Resolve() = %q, %q; want none", source, pw)
	}
}

func TestStoreAndDelete(t *testing.T) {
	keyring.MockInit()

	host := "db2.example.com"

	if err := Store(host, "secret"); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	if source, _ := Resolve(host, ""); source != SourceKeyring {
		t.Fatalf("password not readable after Store(), source = %q", source)
	}

	if err := Delete(host); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if source, _ := Resolve(host, ""); source != SourceNone {
		t.Errorf("password still resolvable after Delete(), source = %q", source)
	}
}
