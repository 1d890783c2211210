package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/gophblog/internal/flagx"
)

// duration accepts "30m"-style strings as well as integer nanoseconds.
type duration time.Duration

func (d *duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		*d = duration(time.Duration(value))
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = duration(parsed)
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
	return nil
}

// jsonConfig is the on-disk shape of the configuration file. Pointers tell
// "absent" apart from "zero", so a partial file only touches what it names.
type jsonConfig struct {
	HTTPAddr         *string   `json:"http_addr"`
	BaseURL          *string   `json:"base_url"`
	DatabaseDSN      *string   `json:"database_dsn"`
	SecretKey        *string   `json:"secret_key"`
	LogLevel         *string   `json:"log_level"`
	SessionDuration  *duration `json:"session_duration"`
	RememberDuration *duration `json:"remember_duration"`
	ResetTokenTTL    *duration `json:"reset_token_ttl"`
	CookieSecure     *bool     `json:"cookie_secure"`
	SMTPHost         *string   `json:"smtp_host"`
	SMTPPort         *int      `json:"smtp_port"`
	SMTPUsername     *string   `json:"smtp_username"`
	SMTPPassword     *string   `json:"smtp_password"`
	SMTPFrom         *string   `json:"smtp_from"`
	SMTPTLS          *string   `json:"smtp_tls"`
	ImageBackend     *string   `json:"image_backend"`
	ImageDir         *string   `json:"image_dir"`
	MaxUploadBytes   *int64    `json:"max_upload_bytes"`
	S3AccessKey      *string   `json:"s3_access_key"`
	S3SecretKey      *string   `json:"s3_secret_key"`
	S3Bucket         *string   `json:"s3_bucket"`
	S3Region         *string   `json:"s3_region"`
	S3BaseEndpoint   *string   `json:"s3_base_endpoint"`
	S3PublicURL      *string   `json:"s3_public_url"`
}

// parseJson loads the file named by -c/-config, if any, into config.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &jsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	setIf(&config.HTTPAddr, c.HTTPAddr)
	setIf(&config.BaseURL, c.BaseURL)
	setIf(&config.DatabaseDSN, c.DatabaseDSN)
	setIf(&config.SecretKey, c.SecretKey)
	setIf(&config.LogLevel, c.LogLevel)
	setDurationIf(&config.SessionDuration, c.SessionDuration)
	setDurationIf(&config.RememberDuration, c.RememberDuration)
	setDurationIf(&config.ResetTokenTTL, c.ResetTokenTTL)
	setIf(&config.CookieSecure, c.CookieSecure)
	setIf(&config.SMTPHost, c.SMTPHost)
	setIf(&config.SMTPPort, c.SMTPPort)
	setIf(&config.SMTPUsername, c.SMTPUsername)
	setIf(&config.SMTPPassword, c.SMTPPassword)
	setIf(&config.SMTPFrom, c.SMTPFrom)
	setIf(&config.SMTPTLS, c.SMTPTLS)
	setIf(&config.ImageBackend, c.ImageBackend)
	setIf(&config.ImageDir, c.ImageDir)
	setIf(&config.MaxUploadBytes, c.MaxUploadBytes)
	setIf(&config.S3AccessKey, c.S3AccessKey)
	setIf(&config.S3SecretKey, c.S3SecretKey)
	setIf(&config.S3Bucket, c.S3Bucket)
	setIf(&config.S3Region, c.S3Region)
	setIf(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setIf(&config.S3PublicURL, c.S3PublicURL)

	return nil
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setDurationIf(dst *time.Duration, src *duration) {
	if src != nil {
		*dst = time.Duration(*src)
	}
}
