package main

import (
	"errors"
	"testing"

	"github.com/mariabak-dev/mariabak/internal/config"
	clierrors "github.com/mariabak-dev/mariabak/internal/errors"
)

func twoServerConfig() *config.Config {
	return &config.Config{
		Servers: []config.ServerConfig{
			{
				Host: "db1.example.com",
				Databases: []config.DatabaseConfig{
					{Name: "website_db"},
					{Name: "analytics_db"},
				},
			},
			{
				Host: "db2.example.com",
				Databases: []config.DatabaseConfig{
					{Name: "website_db"},
				},
			},
		},
	}
}

func TestSelectTargets(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		database string
		want     []string // "host/database" pairs, in order
		wantErr  bool
	}{
		{
			name: "everything",
			want: []string{
				"db1.example.com/website_db",
				"db1.example.com/analytics_db",
				"db2.example.com/website_db",
			},
		},
		{
			name: "host only",
			host: "db1.example.com",
			want: []string{
				"db1.example.com/website_db",
				"db1.example.com/analytics_db",
			},
		},
		{
			name:     "database filter spans all servers",
			database: "website_db",
			want: []string{
				"db1.example.com/website_db",
				"db2.example.com/website_db",
			},
		},
		{
			name:     "host and database",
			host:     "db2.example.com",
			database: "website_db",
			want:     []string{"db2.example.com/website_db"},
		},
		{
			name:    "unknown host",
			host:    "db9.example.com",
			wantErr: true,
		},
		{
			name:     "database on no server",
			database: "missing_db",
			wantErr:  true,
		},
		{
			name:     "database not on the named host",
			host:     "db2.example.com",
			database: "analytics_db",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			targets, err := selectTargets(twoServerConfig(), tt.host, tt.database)

			if tt.wantErr {
				if err == nil {
					t.Fatal("selectTargets() expected error")
				}

				var cliErr *clierrors.CLIError
				if !errors.As(err, &cliErr) || cliErr.Code != clierrors.ExitConfig {
					t.Errorf("selectTargets() error = %v, want config error", err)
				}

				return
			}

			if err != nil {
				t.Fatalf("selectTargets() error = %v", err)
			}

			var got []string
			for _, target := range targets {
				got = append(got, target.server.Host+"/"+target.db.Name)
			}

			if len(got) != len(tt.want) {
				t.Fatalf("selectTargets() = %v, want %v", got, tt.want)
			}

			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("target[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
