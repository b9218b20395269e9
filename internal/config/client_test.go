package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  ClientConfig
		want error
	}{
		{"valid", ClientConfig{BaseURL: "https://api.estatehub.app", AnonKey: "pk_live_81f2"}, nil},
		{"valid localhost", ClientConfig{BaseURL: "http://localhost:3000", AnonKey: "dev-key"}, nil},
		{"missing url", ClientConfig{AnonKey: "k"}, ErrConfigMissing},
		{"missing key", ClientConfig{BaseURL: "http://localhost:3000"}, ErrConfigMissing},
		{"bad scheme", ClientConfig{BaseURL: "ftp://host", AnonKey: "k"}, ErrConfigMissing},
		{"filler key", ClientConfig{BaseURL: "http://localhost:3000", AnonKey: "XXXXXX"}, ErrConfigPlaceholder},
		{"random key containing xxx", ClientConfig{BaseURL: "http://localhost:3000", AnonKey: "pk_9fxxxq2Lm"}, nil},
		{"placeholder key", ClientConfig{BaseURL: "http://localhost:3000", AnonKey: "your-anon-key"}, ErrConfigPlaceholder},
		{"angle key", ClientConfig{BaseURL: "http://localhost:3000", AnonKey: "<anon key>"}, ErrConfigPlaceholder},
		{"placeholder url", ClientConfig{BaseURL: "https://your-project.host.io", AnonKey: "k"}, ErrConfigPlaceholder},
		{"example host", ClientConfig{BaseURL: "https://api.example.com", AnonKey: "k"}, ErrConfigPlaceholder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadClient(t *testing.T) {
	t.Setenv("ESTATEHUB_URL", "http://localhost:3000/")
	t.Setenv("ESTATEHUB_ANON_KEY", "dev-key")

	cfg, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000", cfg.BaseURL)
	assert.Equal(t, "dev-key", cfg.AnonKey)

	t.Setenv("ESTATEHUB_ANON_KEY", "changeme")
	_, err = LoadClient()
	assert.ErrorIs(t, err, ErrConfigPlaceholder)
}

func TestLoad(t *testing.T) {
	t.Setenv("APP_MODE", "dev")
	t.Setenv("API_ANON_KEY", "anon")
	t.Setenv("DB_DRIVER", "postgres")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "anon", cfg.API.AnonKey)
	assert.Contains(t, buildPostgresDSN(cfg.Database), "dbname=estatehub")

	t.Setenv("DB_DRIVER", "sqlite")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("APP_MODE", "staging")
	_, err = Load()
	assert.Error(t, err)
}
