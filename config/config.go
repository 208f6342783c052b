package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"
)

// Config is read from the function environment.
type Config struct {
	SegmentName     string   `envconfig:"SEGMENT_NAME" default:"account-settings"`
	Warmup          bool     `envconfig:"WARMUP" default:"true"`
	LogLevel        string   `envconfig:"LOG_LEVEL" default:"info"`
	RedactKeys      []string `envconfig:"REDACT_KEYS" default:"PASSWORD,SECRET,TOKEN,CREDENTIAL"`
	ParameterPrefix string   `envconfig:"PARAMETER_PREFIX"`
	Region          string   `envconfig:"AWS_REGION"`

	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure bool   `envconfig:"OTEL_EXPORTER_OTLP_INSECURE" default:"true"`
}

// Load reads the configuration and validates the log level.
func Load() (*Config, error) {
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return nil, err
	}

	if c.SegmentName == "" {
		return nil, fmt.Errorf("SEGMENT_NAME must not be empty")
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	return &c, nil
}

// Level returns the parsed log level, defaulting to info.
func (c *Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}

	return level
}
