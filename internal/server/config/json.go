package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/chatvault/internal/flagx"
	"github.com/dmitrijs2005/chatvault/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations accept either
// "15m" style strings or integer nanoseconds. Absent keys keep the current
// value.
type JsonConfig struct {
	HTTPAddr                *string         `json:"http_addr"`
	DatabaseDSN             *string         `json:"database_dsn"`
	SecretKey               *string         `json:"secret_key"`
	SessionValidityDuration *timex.Duration `json:"session_validity_duration"`
	CookieSecure            *bool           `json:"cookie_secure"`
	CookieDomain            *string         `json:"cookie_domain"`
	S3RootUser              *string         `json:"s3_root_user"`
	S3RootPassword          *string         `json:"s3_root_password"`
	S3Bucket                *string         `json:"s3_bucket"`
	S3Region                *string         `json:"s3_region"`
	S3BaseEndpoint          *string         `json:"s3_base_endpoint"`
	UploadURLValidity       *timex.Duration `json:"upload_url_validity"`
}

// parseJson overlays config with the JSON file named by -c/-config or
// $CHATVAULT_CONFIG. It panics when the file is unreadable or invalid.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setIf(&config.HTTPAddr, c.HTTPAddr)
	setIf(&config.DatabaseDSN, c.DatabaseDSN)
	setIf(&config.SecretKey, c.SecretKey)
	setIf(&config.CookieSecure, c.CookieSecure)
	setIf(&config.CookieDomain, c.CookieDomain)
	setIf(&config.S3RootUser, c.S3RootUser)
	setIf(&config.S3RootPassword, c.S3RootPassword)
	setIf(&config.S3Bucket, c.S3Bucket)
	setIf(&config.S3Region, c.S3Region)
	setIf(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.SessionValidityDuration != nil {
		config.SessionValidityDuration = c.SessionValidityDuration.Duration
	}
	if c.UploadURLValidity != nil {
		config.UploadURLValidity = c.UploadURLValidity.Duration
	}
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
