package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// this is a pointer so that if someone attempts to use it before loading it will
// panic and force them to load it first.
// it is also private so that it cannot be modified after loading.
var _loaded *Config

// Config is the main configuration structure
type Config struct {
	Common Common `yaml:"common"`
}

// Load loads the configuration following proper precedence: defaults → config file → environment variables.
// An explicit path wins over RELAY_CONFIG_FILE.
func Load(path string) {
	cfg := defaultConfig
	_loaded = &cfg

	configFile := path
	if configFile == "" {
		configFile = os.Getenv("RELAY_CONFIG_FILE")
	}
	if configFile == "" {
		configFile = "relay.yaml"
	}

	if err := LoadFromFile(configFile); err != nil {
		log.Printf("Failed to load config file: %v, using defaults", err)
	} else {
		log.Printf("Successfully loaded config from file: %s", configFile)
	}

	ApplyEnvOverrides()
}

// LoadDefault installs the defaults without reading a file or the environment.
func LoadDefault() {
	cfg := defaultConfig
	_loaded = &cfg
}

// Set installs an already built configuration. Used by tests and embedders.
func Set(cfg *Config) {
	_loaded = cfg
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return err
	}

	_loaded = cfg
	return nil
}

// Parse decodes YAML over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := defaultConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

// set sane defaults for all of the config options. when loading the config from
// the file, any options that are not set will be set to these defaults.
var defaultConfig = Config{
	Common: Common{
		Log: logConfig{
			Level:  "info",
			Format: "json",
		},
		Http: httpConfig{
			Host:           "0.0.0.0",
			Port:           8000,
			MaxRequestSize: 1048576,
		},
		Cors: corsConfig{
			AllowOrigins:     []string{"http://localhost:5173"},
			AllowCredentials: true,
		},
		Tavus: tavusConfig{
			BaseURL: "https://tavusapi.com",
			Timeout: 30 * time.Second,
		},
		Conversation: conversationConfig{
			CallbackURL:              "https://yourwebsite.com/webhook",
			Name:                     "Game Buddy",
			Context:                  "You are a playful and clever riddle master. Your job is to challenge the user with creative and tricky riddles. Encourage the user to guess, ask for hints, or skip if they're stuck. React in a fun and engaging way to each guess, making the experience lighthearted and enjoyable.",
			Greeting:                 "Welcome, challenger! Ready to test your wits with some riddles? Let's see if you can outsmart me!",
			MaxCallDuration:          3600,
			ParticipantLeftTimeout:   60,
			ParticipantAbsentTimeout: 300,
			EnableRecording:          true,
			EnableClosedCaptions:     true,
			ApplyGreenscreen:         true,
			Language:                 "english",
			RecordingBucketName:      "conversation-recordings",
			RecordingBucketRegion:    "us-east-1",
			AWSAssumeRoleARN:         "",
		},
		Events: eventsConfig{
			Enabled: false,
			Postgres: postgresConfig{
				User:               "postgres",
				Password:           "postgres",
				Host:               "localhost",
				Port:               5432,
				Database:           "relay",
				MaxOpenConnections: 10,
			},
		},
		Telemetry: telemetryConfig{
			Enabled:     false,
			Dir:         "logs",
			ServiceName: "relay",
		},
	},
}

type Common struct {
	Log          logConfig          `yaml:"log"`
	Http         httpConfig         `yaml:"http"`
	Cors         corsConfig         `yaml:"cors"`
	Tavus        tavusConfig        `yaml:"tavus"`
	Conversation conversationConfig `yaml:"conversation"`
	Events       eventsConfig       `yaml:"events"`
	Telemetry    telemetryConfig    `yaml:"telemetry"`
}

type logConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`

	// File, when set, receives the log stream through a rotating writer instead of stderr.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

type httpConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	MaxRequestSize int64  `yaml:"max_request_size"`
}

func (c httpConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type corsConfig struct {
	AllowOrigins     []string `yaml:"allow_origins"`
	AllowCredentials bool     `yaml:"allow_credentials"`
}

type tavusConfig struct {
	BaseURL   string        `yaml:"base_url"`
	APIKey    string        `yaml:"api_key"`
	PersonaID string        `yaml:"persona_id"`
	ReplicaID string        `yaml:"replica_id"`
	Timeout   time.Duration `yaml:"timeout"`
}

// conversationConfig is the fixed payload sent with every create call.
type conversationConfig struct {
	CallbackURL              string `yaml:"callback_url"`
	Name                     string `yaml:"name"`
	Context                  string `yaml:"context"`
	Greeting                 string `yaml:"greeting"`
	MaxCallDuration          int    `yaml:"max_call_duration"`
	ParticipantLeftTimeout   int    `yaml:"participant_left_timeout"`
	ParticipantAbsentTimeout int    `yaml:"participant_absent_timeout"`
	EnableRecording          bool   `yaml:"enable_recording"`
	EnableClosedCaptions     bool   `yaml:"enable_closed_captions"`
	ApplyGreenscreen         bool   `yaml:"apply_greenscreen"`
	Language                 string `yaml:"language"`
	RecordingBucketName      string `yaml:"recording_s3_bucket_name"`
	RecordingBucketRegion    string `yaml:"recording_s3_bucket_region"`
	AWSAssumeRoleARN         string `yaml:"aws_assume_role_arn"`
}

type eventsConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Postgres postgresConfig `yaml:"postgres"`
}

type postgresConfig struct {
	User               string `yaml:"user"`
	Password           string `yaml:"password"`
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	Database           string `yaml:"database"`
	MaxOpenConnections int    `yaml:"max_open_connections"`
}

func (c postgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		url.QueryEscape(c.Database),
	)
}

type telemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Dir         string `yaml:"dir"`
	ServiceName string `yaml:"service_name"`
}

// Validate checks the settings the relay cannot run without.
func (c *Config) Validate() error {
	var errs []error

	t := c.Common.Tavus
	if t.APIKey == "" {
		errs = append(errs, errors.New("tavus.api_key is required (TAVUS_API_KEY)"))
	}
	if t.PersonaID == "" {
		errs = append(errs, errors.New("tavus.persona_id is required (PERSONA_ID)"))
	}
	if t.ReplicaID == "" {
		errs = append(errs, errors.New("tavus.replica_id is required (REPLICA_ID)"))
	}
	if _, err := url.ParseRequestURI(t.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("tavus.base_url is invalid: %w", err))
	}
	if t.Timeout < 0 {
		errs = append(errs, errors.New("tavus.timeout cannot be negative"))
	}

	if p := c.Common.Http.Port; p <= 0 || p > 65535 {
		errs = append(errs, fmt.Errorf("http.port %d is out of range", p))
	}

	if c.Common.Events.Enabled && c.Common.Events.Postgres.Host == "" {
		errs = append(errs, errors.New("events.postgres.host is required when events are enabled"))
	}

	if len(errs) > 0 {
		return &ValidationError{Problems: errs}
	}
	return nil
}

// ValidationError lists every configuration problem found in one pass.
type ValidationError struct {
	Problems []error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Error()
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() []error {
	return e.Problems
}

// there should be a getter for each top level field in the config struct.
// these getters will panic if the config has not been loaded.

func Logger() logConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Log
}

func Http() httpConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Http
}

func Cors() corsConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Cors
}

func Tavus() tavusConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Tavus
}

func Conversation() conversationConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Conversation
}

func Events() eventsConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Events
}

func Telemetry() telemetryConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Telemetry
}

// Get returns the full configuration
func Get() *Config {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded
}

// ApplyEnvOverrides applies environment variables over the loaded config.
// The provider credentials keep the plain names the front-end deployment already uses.
func ApplyEnvOverrides() {
	if _loaded == nil {
		return
	}
	c := &_loaded.Common

	if v := os.Getenv("TAVUS_API_KEY"); v != "" {
		c.Tavus.APIKey = v
	}
	if v := os.Getenv("PERSONA_ID"); v != "" {
		c.Tavus.PersonaID = v
	}
	if v := os.Getenv("REPLICA_ID"); v != "" {
		c.Tavus.ReplicaID = v
	}
	if v := os.Getenv("RELAY_TAVUS_BASE_URL"); v != "" {
		c.Tavus.BaseURL = v
	}
	if v := os.Getenv("RELAY_TAVUS_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Tavus.Timeout = d
		}
	}

	if v := os.Getenv("RELAY_HTTP_HOST"); v != "" {
		c.Http.Host = v
	}
	if v := os.Getenv("RELAY_HTTP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Http.Port = port
		}
	}
	if v := os.Getenv("RELAY_CORS_ORIGINS"); v != "" {
		c.Cors.AllowOrigins = strings.Split(v, ",")
	}

	if v := os.Getenv("RELAY_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("RELAY_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}

	if v := os.Getenv("RELAY_EVENTS_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Events.Enabled = enabled
		}
	}
	if v := os.Getenv("RELAY_DB_HOST"); v != "" {
		c.Events.Postgres.Host = v
	}
	if v := os.Getenv("RELAY_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Events.Postgres.Port = port
		}
	}
	if v := os.Getenv("RELAY_DB_USER"); v != "" {
		c.Events.Postgres.User = v
	}
	if v := os.Getenv("RELAY_DB_PASSWORD"); v != "" {
		c.Events.Postgres.Password = v
	}
	if v := os.Getenv("RELAY_DB_NAME"); v != "" {
		c.Events.Postgres.Database = v
	}

	if v := os.Getenv("RELAY_TELEMETRY_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Telemetry.Enabled = enabled
		}
	}
}
