package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/aidolab/mgstudio/internal/flagx"
	"github.com/aidolab/mgstudio/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "5m" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON configuration
// files. After unmarshalling, its fields are copied into the runtime Config
// struct which uses time.Duration.
type JsonConfig struct {
	Addr                  string         `json:"addr"`
	DatabaseDSN           string         `json:"database_dsn"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	CodeValidityDuration  timex.Duration `json:"code_validity_duration"`
	SendCodeRatePerMinute int            `json:"send_code_rate_per_minute"`
	SendCodeBurst         int            `json:"send_code_burst"`
	SMSGatewayEndpoint    string         `json:"sms_gateway_endpoint"`
	SMSGatewayAPIKey      string         `json:"sms_gateway_api_key"`
	S3RootUser            string         `json:"s3_root_user"`
	S3RootPassword        string         `json:"s3_root_password"`
	S3Bucket              string         `json:"s3_bucket"`
	S3Region              string         `json:"s3_region"`
	S3BaseEndpoint        string         `json:"s3_base_endpoint"`
	RenderInterval        timex.Duration `json:"render_interval"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path is taken from the -c or -config command-line flags; if
// neither is set, no JSON file is loaded. Only fields present in the file
// override the current values. If the file cannot be read or contains
// invalid JSON, the function panics.
func parseJson(config *Config) {

	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	if c.Addr != "" {
		config.Addr = c.Addr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.TokenValidityDuration.Duration != 0 {
		config.TokenValidityDuration = time.Duration(c.TokenValidityDuration.Duration)
	}
	if c.CodeValidityDuration.Duration != 0 {
		config.CodeValidityDuration = time.Duration(c.CodeValidityDuration.Duration)
	}
	if c.SendCodeRatePerMinute != 0 {
		config.SendCodeRatePerMinute = c.SendCodeRatePerMinute
	}
	if c.SendCodeBurst != 0 {
		config.SendCodeBurst = c.SendCodeBurst
	}
	if c.SMSGatewayEndpoint != "" {
		config.SMSGatewayEndpoint = c.SMSGatewayEndpoint
	}
	if c.SMSGatewayAPIKey != "" {
		config.SMSGatewayAPIKey = c.SMSGatewayAPIKey
	}
	if c.S3RootUser != "" {
		config.S3RootUser = c.S3RootUser
	}
	if c.S3RootPassword != "" {
		config.S3RootPassword = c.S3RootPassword
	}
	if c.S3Bucket != "" {
		config.S3Bucket = c.S3Bucket
	}
	if c.S3Region != "" {
		config.S3Region = c.S3Region
	}
	if c.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = c.S3BaseEndpoint
	}
	if c.RenderInterval.Duration != 0 {
		config.RenderInterval = time.Duration(c.RenderInterval.Duration)
	}
}
