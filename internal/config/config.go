package config

import (
	"fmt"
	"strings"
	"time"

	"ideaboard/internal/models"

	"github.com/spf13/viper"
)

const (
	DefaultMetric        = "ROC_AUC"
	DefaultCandidateFile = "final_candidate.py"
	DefaultBaselineScore = 0.51
)

// Config holds the entire application configuration.
type Config struct {
	Server  ServerConfig           `mapstructure:"server" yaml:"server"`
	Logger  LoggerConfig           `mapstructure:"logger" yaml:"logger"`
	Auth    AuthConfig             `mapstructure:"auth" yaml:"auth"`
	Catalog CatalogConfig          `mapstructure:"catalog" yaml:"catalog"`
	Deploy  DeployConfig           `mapstructure:"deploy" yaml:"deploy"`
	Users   map[string]UserProfile `mapstructure:"users" yaml:"users"`
}

type ServerConfig struct {
	Port           string        `mapstructure:"port" yaml:"port"`
	AllowedOrigins []string      `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	MaxUploadMB    int64         `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
}

// LoggerConfig configures the zap logger and its optional rotating file sink.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl" yaml:"token_ttl"`
}

type CatalogConfig struct {
	ScanConcurrency int `mapstructure:"scan_concurrency" yaml:"scan_concurrency"`
}

type DeployConfig struct {
	EndpointBase string `mapstructure:"endpoint_base" yaml:"endpoint_base"`
}

// UserProfile is everything a logged-in user's dashboard reads: where the ideas
// live, which metric ranks them and which baseline they are diffed against.
type UserProfile struct {
	Password      string   `mapstructure:"password" yaml:"password"`
	BaseDir       string   `mapstructure:"base_dir" yaml:"base_dir"`
	BaselineFile  string   `mapstructure:"baseline_file" yaml:"baseline_file"`
	PageTitle     string   `mapstructure:"page_title" yaml:"page_title"`
	IdeasFile     string   `mapstructure:"ideas_file" yaml:"ideas_file"`
	BaselineScore *float64 `mapstructure:"baseline_score" yaml:"baseline_score"`
	Metric        string   `mapstructure:"metric" yaml:"metric"`
	Random        bool     `mapstructure:"random" yaml:"random"`
	CandidateFile string   `mapstructure:"candidate_file" yaml:"candidate_file"`
}

// Threshold returns the configured baseline score, or 0.51 when unset.
func (u UserProfile) Threshold() float64 {
	if u.BaselineScore == nil {
		return DefaultBaselineScore
	}
	return *u.BaselineScore
}

func (u UserProfile) MetricName() string {
	if u.Metric == "" {
		return DefaultMetric
	}
	return u.Metric
}

func (u UserProfile) CandidateFileName() string {
	if u.CandidateFile == "" {
		return DefaultCandidateFile
	}
	return u.CandidateFile
}

// CatalogConfig is the scan this profile's dashboard ranks.
func (u UserProfile) CatalogConfig() models.CatalogConfig {
	return models.CatalogConfig{
		BaseDirectory: u.BaseDir,
		MetricName:    u.MetricName(),
		SyntheticMode: u.Random,
	}
}

// Profile looks up a user by name. Viper lowercases map keys, so lookups do too.
func (c *Config) Profile(username string) (UserProfile, bool) {
	p, ok := c.Users[strings.ToLower(username)]
	return p, ok
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults registers default values for every configuration key.
func SetDefaults(v *viper.Viper) {
	// -- Server --
	v.SetDefault("server.port", "8001")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "http://127.0.0.1:3000"})
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.max_upload_mb", 100)

	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "ideaboard")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Auth --
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "12h")

	// -- Catalog --
	v.SetDefault("catalog.scan_concurrency", 8)

	// -- Deploy --
	v.SetDefault("deploy.endpoint_base", "https://api.co-datascientist.com/models")
}

// Load reads the config file (if any), applies IDEABOARD_* environment
// overrides and returns a validated configuration.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("IDEABOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults/env vars
	}

	return NewConfigFromViper(v)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	v.BindEnv("auth.jwt_secret", "IDEABOARD_JWT_SECRET")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be a positive integer")
	}
	if c.Catalog.ScanConcurrency <= 0 {
		return fmt.Errorf("catalog.scan_concurrency must be a positive integer")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be a positive duration")
	}
	for name, u := range c.Users {
		if err := u.Validate(); err != nil {
			return fmt.Errorf("users.%s: %w", name, err)
		}
	}
	return nil
}

// Validate checks a single user profile.
func (u *UserProfile) Validate() error {
	if u.Password == "" {
		return fmt.Errorf("password is required")
	}
	if u.BaseDir == "" {
		return fmt.Errorf("base_dir is required")
	}
	if u.BaselineFile == "" {
		return fmt.Errorf("baseline_file is required")
	}
	return nil
}
