package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/multierr"
	yaml "gopkg.in/yaml.v3"

	"jenkinsaction/internal/logger"
)

const (
	inputPrefix   = "INPUT"
	actionsPrefix = "GITHUB"

	defaultTimeout      = 600
	defaultStartTimeout = 600
	defaultInterval     = 5
	defaultLogLevel     = "INFO"
)

// Config represents the action configuration
type Config struct {
	Jenkins  JenkinsConfig `yaml:"jenkins"`
	Poll     PollConfig    `yaml:"poll"`
	Wait     bool          `yaml:"wait"`
	LogLevel string        `yaml:"log_level"`
	// OutputPath is the pipeline output file (GITHUB_OUTPUT); empty outside
	// of GitHub Actions
	OutputPath string `yaml:"output_path"`
}

// JenkinsConfig represents the Jenkins connection and job settings
type JenkinsConfig struct {
	URL        string         `yaml:"url"`
	JobName    string         `yaml:"job_name"`
	Username   string         `yaml:"username"`
	Token      string         `yaml:"api_token"`
	Parameters map[string]any `yaml:"parameters"`
	Cookies    map[string]any `yaml:"cookies"`
}

// HasCredentials reports whether both username and token are set
func (c JenkinsConfig) HasCredentials() bool {
	return c.Username != "" && c.Token != ""
}

// PollConfig holds the polling budget, all values in seconds
type PollConfig struct {
	Timeout      int `yaml:"timeout"`
	StartTimeout int `yaml:"start_timeout"`
	Interval     int `yaml:"interval"`
}

// TimeoutDuration is the budget for the build to finish
func (p PollConfig) TimeoutDuration() time.Duration {
	return time.Duration(p.Timeout) * time.Second
}

// StartTimeoutDuration is the budget for the build to leave the queue
func (p PollConfig) StartTimeoutDuration() time.Duration {
	return time.Duration(p.StartTimeout) * time.Second
}

// IntervalDuration is the fixed pause between two polls
func (p PollConfig) IntervalDuration() time.Duration {
	return time.Duration(p.Interval) * time.Second
}

// Error is a configuration error tied to one setting
type Error struct {
	Field string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

var errRequired = errors.New("is required")

// inputs mirrors the INPUT_* variables GitHub Actions sets for action inputs
type inputs struct {
	URL          string `split_words:"true"`
	JobName      string `split_words:"true"`
	Username     string `split_words:"true"`
	APIToken     string `split_words:"true"`
	Parameters   string `split_words:"true"`
	Cookies      string `split_words:"true"`
	Wait         string `split_words:"true"`
	Timeout      string `split_words:"true"`
	StartTimeout string `split_words:"true"`
	Interval     string `split_words:"true"`
	LogLevel     string `split_words:"true"`
}

type actionsEnv struct {
	Output string `split_words:"true"`
}

// Load loads the configuration from the optional YAML file at filePath and
// the process environment. Environment values override the file.
func Load(filePath string) (*Config, error) {
	config := &Config{}

	if filePath != "" {
		if err := loadFile(filePath, config); err != nil {
			return nil, err
		}
	}

	// Apply environment variables
	if err := applyEnvVars(config); err != nil {
		return nil, err
	}

	// Set default values if not provided
	setDefaults(config)

	// Validate configuration
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

func loadFile(filePath string, config *Config) error {
	path, err := homedir.Expand(filePath)
	if err != nil {
		return &Error{Field: "config file", Err: err}
	}

	data, err := os.ReadFile(path) //nolint:gosec // Trusted file path input
	if err != nil {
		return &Error{Field: "config file", Err: err}
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return &Error{Field: "config file", Err: fmt.Errorf("parse %s: %w", path, err)}
	}
	return nil
}

// applyEnvVars applies environment variables to the configuration
func applyEnvVars(config *Config) error {
	var in inputs
	if err := envconfig.Process(inputPrefix, &in); err != nil {
		return &Error{Field: "environment", Err: err}
	}

	var errs error

	if in.URL != "" {
		config.Jenkins.URL = in.URL
	}
	if in.JobName != "" {
		config.Jenkins.JobName = in.JobName
	}
	if in.Username != "" {
		config.Jenkins.Username = in.Username
	}
	if in.APIToken != "" {
		config.Jenkins.Token = in.APIToken
	}

	if in.Parameters != "" {
		params, err := parseJSONObject(in.Parameters)
		if err != nil {
			errs = multierr.Append(errs, &Error{Field: "INPUT_PARAMETERS", Err: err})
		}
		config.Jenkins.Parameters = params
	}
	if in.Cookies != "" {
		cookies, err := parseJSONObject(in.Cookies)
		if err != nil {
			errs = multierr.Append(errs, &Error{Field: "INPUT_COOKIES", Err: err})
		}
		config.Jenkins.Cookies = cookies
	}

	if in.Wait != "" {
		wait, err := parseWait(in.Wait)
		if err != nil {
			errs = multierr.Append(errs, &Error{Field: "INPUT_WAIT", Err: err})
		}
		config.Wait = wait
	}

	for _, s := range []struct {
		field string
		value string
		dst   *int
	}{
		{"INPUT_TIMEOUT", in.Timeout, &config.Poll.Timeout},
		{"INPUT_START_TIMEOUT", in.StartTimeout, &config.Poll.StartTimeout},
		{"INPUT_INTERVAL", in.Interval, &config.Poll.Interval},
	} {
		if s.value == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(s.value))
		if err != nil {
			errs = multierr.Append(errs, &Error{Field: s.field, Err: fmt.Errorf("not an integer number of seconds: %q", s.value)})
			continue
		}
		*s.dst = n
	}

	if in.LogLevel != "" {
		config.LogLevel = in.LogLevel
	}

	var gh actionsEnv
	if err := envconfig.Process(actionsPrefix, &gh); err != nil {
		errs = multierr.Append(errs, &Error{Field: "GITHUB_OUTPUT", Err: err})
	} else if gh.Output != "" {
		config.OutputPath = gh.Output
	}

	return errs
}

// parseWait interprets the wait flag. Besides the strconv.ParseBool forms,
// yes/y/on and no/n/off are accepted. Anything else is an error.
func parseWait(value string) (bool, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "yes", "y", "on":
		return true, nil
	case "no", "n", "off":
		return false, nil
	}

	enabled, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("must be true or false, got %q", value)
	}
	return enabled, nil
}

// parseJSONObject decodes raw as a JSON object. Numbers are kept as
// json.Number so they round-trip without float formatting.
func parseJSONObject(raw string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("is not valid JSON: %w", err)
	}
	if dec.More() {
		return nil, errors.New("is not valid JSON: trailing data after object")
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("must be a JSON object, got %s", jsonKind(v))
	}
	return obj, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	if config.Poll.Timeout == 0 {
		config.Poll.Timeout = defaultTimeout
	}
	if config.Poll.StartTimeout == 0 {
		config.Poll.StartTimeout = defaultStartTimeout
	}
	if config.Poll.Interval == 0 {
		config.Poll.Interval = defaultInterval
	}
	if config.LogLevel == "" {
		config.LogLevel = defaultLogLevel
	}
	if config.Jenkins.Parameters == nil {
		config.Jenkins.Parameters = map[string]any{}
	}
	if config.Jenkins.Cookies == nil {
		config.Jenkins.Cookies = map[string]any{}
	}
}

// GetLogLevel returns the log level from the environment, before the full
// configuration is loaded
func GetLogLevel() string {
	level := os.Getenv("INPUT_LOG_LEVEL")
	if level == "" || !logger.ValidLevel(level) {
		return defaultLogLevel
	}
	return level
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	var errs error

	if cfg.Jenkins.URL == "" {
		errs = multierr.Append(errs, &Error{Field: "INPUT_URL", Err: errRequired})
	} else if u, err := url.Parse(cfg.Jenkins.URL); err != nil {
		errs = multierr.Append(errs, &Error{Field: "INPUT_URL", Err: err})
	} else if u.Scheme == "" || u.Host == "" {
		errs = multierr.Append(errs, &Error{Field: "INPUT_URL", Err: fmt.Errorf("must be an absolute URL, got %q", cfg.Jenkins.URL)})
	}

	if strings.TrimSpace(cfg.Jenkins.JobName) == "" {
		errs = multierr.Append(errs, &Error{Field: "INPUT_JOB_NAME", Err: errRequired})
	}

	if cfg.Poll.Timeout < 0 {
		errs = multierr.Append(errs, &Error{Field: "INPUT_TIMEOUT", Err: fmt.Errorf("must be non-negative, got %d", cfg.Poll.Timeout)})
	}
	if cfg.Poll.StartTimeout < 0 {
		errs = multierr.Append(errs, &Error{Field: "INPUT_START_TIMEOUT", Err: fmt.Errorf("must be non-negative, got %d", cfg.Poll.StartTimeout)})
	}
	if cfg.Poll.Interval < 0 {
		errs = multierr.Append(errs, &Error{Field: "INPUT_INTERVAL", Err: fmt.Errorf("must be non-negative, got %d", cfg.Poll.Interval)})
	}

	if !logger.ValidLevel(cfg.LogLevel) {
		logger.Warn("Unknown log level, using INFO", "log_level", cfg.LogLevel)
		cfg.LogLevel = defaultLogLevel
	}

	return errs
}
