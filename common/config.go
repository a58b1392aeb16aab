package common

import (
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config is representation of the configuration data
type Config struct {
	APIKey   string `yaml:"apiKey"`
	Endpoint string `yaml:"endpoint"`
	Timeout  string `yaml:"timeout"`

	// ReportableSeverities is the severity mask the error hook raises for
	ReportableSeverities []string `yaml:"reportableSeverities"`

	// FatalSeverities are host specific severities treated as fatal at
	// shutdown, in addition to the standard fatal ones
	FatalSeverities []string `yaml:"fatalSeverities"`

	User     map[string]interface{} `yaml:"user"`
	App      map[string]interface{} `yaml:"app"`
	Device   map[string]interface{} `yaml:"device"`
	MetaData map[string]interface{} `yaml:"metaData"`

	Listen   string `yaml:"listen"`
	Token    string `yaml:"token"`
	LogLevel string `yaml:"logLevel"`
	Log      Log    `yaml:"log"`
}

// Log configures an optional rotating log file
type Log struct {
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"maxSize"`
	MaxBackups int    `yaml:"maxBackups"`
	MaxAge     int    `yaml:"maxAge"`
	Compress   bool   `yaml:"compress"`
}

// ReadConfig decodes the configuration from an io Reader
func ReadConfig(r io.Reader) (Config, error) {
	var c Config
	log.Infoln("Reading configuration")
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return c, errors.Wrap(err, "unable to decode JSON message")
	}
	return c, nil
}

// ReadYAMLConfig decodes YAML configuration from an io Reader
func ReadYAMLConfig(r io.Reader) (Config, error) {
	var c Config
	log.Infoln("Reading YAML configuration")
	if err := yaml.NewDecoder(r).Decode(&c); err != nil {
		return c, errors.Wrap(err, "unable to decode YAML message")
	}
	return c, nil
}

// ReadConfigFile decodes the configuration from r, choosing the decoder from
// the extension of name
func ReadConfigFile(name string, r io.Reader) (Config, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return ReadYAMLConfig(r)
	default:
		return ReadConfig(r)
	}
}

// ClientTimeout parses the delivery timeout, returning 0 when it's unset
func (c Config) ClientTimeout() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid timeout %q", c.Timeout)
	}
	return d, nil
}
