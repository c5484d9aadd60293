package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJsonConfig_Unmarshal(t *testing.T) {
	raw := []byte(`{
		"server_url": "https://api.example.com",
		"request_timeout": "15s",
		"database_path": "/tmp/creds.db"
	}`)

	var jc JsonConfig
	require.NoError(t, json.Unmarshal(raw, &jc))

	assert.Equal(t, "https://api.example.com", jc.ServerURL)
	assert.Equal(t, 15*time.Second, jc.RequestTimeout.Duration)
	assert.Equal(t, "/tmp/creds.db", jc.DatabasePath)
}

func TestJsonConfig_PartialFileKeepsDefaults(t *testing.T) {
	var cfg Config
	cfg.LoadDefaults()

	var jc JsonConfig
	require.NoError(t, json.Unmarshal([]byte(`{"server_url": "https://api.example.com"}`), &jc))

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = time.Duration(jc.RequestTimeout.Duration)
	}

	assert.Equal(t, "https://api.example.com", cfg.ServerURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout, "unset JSON fields keep defaults")
}
