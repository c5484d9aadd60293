package config

import "os"

// parseEnv overlays Config with values from the environment (or a .env
// file loaded by main). Only the string-valued settings are read here.
func parseEnv(config *Config) {
	config.ServerURL = getEnv("MGSTUDIO_SERVER_URL", config.ServerURL)
	config.DatabasePath = getEnv("MGSTUDIO_DB_PATH", config.DatabasePath)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
