package config

import "os"

// parseEnv overlays Config with values from the environment. Only the
// string-valued settings are read here: these are the fields deployments
// inject through the environment (or a .env file), most of them secrets
// that do not belong in a config file or on the command line.
func parseEnv(config *Config) {
	config.Addr = getEnv("ADDR", config.Addr)
	config.DatabaseDSN = getEnv("DATABASE_DSN", config.DatabaseDSN)
	config.SecretKey = getEnv("SECRET_KEY", config.SecretKey)
	config.SMSGatewayEndpoint = getEnv("SMS_GATEWAY_ENDPOINT", config.SMSGatewayEndpoint)
	config.SMSGatewayAPIKey = getEnv("SMS_GATEWAY_API_KEY", config.SMSGatewayAPIKey)
	config.S3RootUser = getEnv("S3_ROOT_USER", config.S3RootUser)
	config.S3RootPassword = getEnv("S3_ROOT_PASSWORD", config.S3RootPassword)
	config.S3Bucket = getEnv("S3_BUCKET", config.S3Bucket)
	config.S3Region = getEnv("S3_REGION", config.S3Region)
	config.S3BaseEndpoint = getEnv("S3_BASE_ENDPOINT", config.S3BaseEndpoint)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
