package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/agri4/agri-server/internal/templates"
	"github.com/agri4/agri-server/internal/utils/pathutil"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	FilesystemLocal = "local"
	FilesystemS3    = "s3"
)

const (
	DriverPostgres = "pg"
	DriverSQLite   = "sqlite"
)

const EnvPrefix = "AGRI"

type Config struct {
	Port           int      `mapstructure:"port"`
	Host           string   `mapstructure:"host"`
	PublicURL      string   `mapstructure:"public_url"`
	Environment    string   `mapstructure:"environment"`
	AgriHome       string   `mapstructure:"agri_home"`
	AssetsDir      string   `mapstructure:"assets_dir"`
	ModelsDir      string   `mapstructure:"models_dir"`
	TempDir        string   `mapstructure:"temp_dir"`
	PublicDir      string   `mapstructure:"public_dir"`
	Filesystem     string   `mapstructure:"filesystem_type"`
	OnnxRuntimeLib string   `mapstructure:"onnxruntime_lib"`
	WarmupModels   []string `mapstructure:"warmup_models"`
	SentryDSN      string   `mapstructure:"sentry_dsn"`
	HFToken        string   `mapstructure:"hf_token"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	DB         *DBConfig         `mapstructure:"db"`
	S3         *S3Config         `mapstructure:"s3"`
	OpenAI     *OpenAIConfig     `mapstructure:"openai"`
	Auth       *AuthConfig       `mapstructure:"auth"`
	RateLimit  *RateLimitConfig  `mapstructure:"rate_limit"`
	Moderation *ModerationConfig `mapstructure:"moderation"`
}

type DBConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	Debug  bool   `mapstructure:"debug"`
}

type S3Config struct {
	Folder    string `mapstructure:"folder"`
	Region    string `mapstructure:"region_name"`
	Bucket    string `mapstructure:"bucket_name"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Endpoint  string `mapstructure:"endpoint_url"`
	PublicUrl string `mapstructure:"public_url"`
}

type OpenAIConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	BaseURL    string        `mapstructure:"base_url"`
	Model      string        `mapstructure:"model"`
	MaxRetries int           `mapstructure:"max_retries"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
	Burst             int `mapstructure:"burst"`
}

type ModerationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Model   string `mapstructure:"model"`
}

var config *Config

// InitConfig resolves the agri home directories, writes the first-run .env
// and config.yaml templates, loads both and unmarshals the result.
func InitConfig() error {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	viper.AutomaticEnv()
	setDefaults()
	bindSecrets()

	agriHome, err := getAgriHome()
	if err != nil {
		return err
	}

	if err := createAgriHomeDirs(agriHome); err != nil {
		return err
	}

	viper.Set("agri_home", agriHome)
	viper.SetDefault("db.dsn", "file:"+filepath.Join(agriHome, "agri.db"))
	for key, subdir := range homeSubdirs {
		dir, err := resolveDir(key, agriHome, subdir)
		if err != nil {
			return err
		}
		viper.Set(key, dir)
	}

	envFile := viper.GetString("env_file")
	if envFile == "" {
		envFile = filepath.Join(agriHome, ".env")
	}
	configFile := viper.GetString("config_file")
	if configFile == "" {
		configFile = filepath.Join(agriHome, "config.yaml")
	}

	if err := writeIfMissing(envFile, templates.WriteEnv); err != nil {
		return fmt.Errorf("failed to create .env file: %w", err)
	}
	if err := writeIfMissing(configFile, templates.WriteConfig); err != nil {
		return fmt.Errorf("failed to create config.yaml file: %w", err)
	}

	// Variables already present in the environment win over the .env file.
	if err := godotenv.Load(envFile); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}

	viper.SetConfigFile(configFile)
	return LoadConfig(true)
}

func LoadConfig(reload bool) error {
	if config != nil && !reload {
		return fmt.Errorf("config already loaded")
	}

	if err := viper.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("error reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("error unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	config = cfg
	return nil
}

func (c *Config) Validate() error {
	switch c.Filesystem {
	case FilesystemLocal:
	case FilesystemS3:
		if c.S3 == nil || c.S3.Bucket == "" {
			return ErrS3BucketNotSet
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFilesystem, c.Filesystem)
	}

	if c.DB == nil {
		return ErrDBNotConfigured
	}
	switch c.DB.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidDBDriver, c.DB.Driver)
	}

	return nil
}

func GetConfig() *Config {
	if config == nil {
		panic("config not loaded")
	}

	return config
}

func IsLoaded() bool {
	return config != nil
}

// SetConfig replaces the loaded config; used by commands that build their
// own config and by tests.
func SetConfig(cfg *Config) {
	config = cfg
}

func (c *Config) IsProduction() bool {
	return c.Environment == "prod" || c.Environment == "production"
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

var homeSubdirs = map[string]string{
	"assets_dir": "assets",
	"models_dir": "models",
	"temp_dir":   "temp",
	"public_dir": "web",
}

// Returns the agri home directory path.
// It attempts to retrieve the agri home directory from the following sources in order:
// 1. The `agri_home` flag from viper.
// 2. The `AGRI_HOME` environment variable.
// 3. The default agri home directory.
func getAgriHome() (string, error) {
	agriHome := viper.GetString("agri_home")
	if agriHome == "" {
		agriHome = os.Getenv("AGRI_HOME")
		if agriHome == "" {
			agriHome = DefaultAgriHome
		}
	}

	agriHome, err := pathutil.ExpandPath(agriHome)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAgriHomeExpandFailed, err)
	}

	return agriHome, nil
}

func resolveDir(key, agriHome, subdir string) (string, error) {
	if agriHome == "" {
		return "", ErrAgriHomeNotSet
	}

	dir := viper.GetString(key)
	if dir == "" {
		dir = filepath.Join(agriHome, subdir)
	}

	dir, err := pathutil.ExpandPath(dir)
	if err != nil {
		return "", fmt.Errorf("failed to expand %s: %w", key, err)
	}

	return dir, nil
}

func createAgriHomeDirs(agriHome string) error {
	if err := os.MkdirAll(agriHome, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create agri home directory: %w", err)
	}

	for _, subdir := range []string{"assets", "models", "temp"} {
		dir := filepath.Join(agriHome, subdir)
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("failed to create %s directory: %w", subdir, err)
		}
	}

	return nil
}

func writeIfMissing(path string, write func(string) error) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}
	return write(path)
}

// bindSecrets lets the conventional variable names of external services be
// used without the AGRI_ prefix.
func bindSecrets() {
	viper.BindEnv("openai.api_key", EnvPrefix+"_OPENAI_API_KEY", "OPENAI_API_KEY")
	viper.BindEnv("auth.jwt_secret", EnvPrefix+"_AUTH_JWT_SECRET", "JWT_SECRET")
	viper.BindEnv("sentry_dsn", EnvPrefix+"_SENTRY_DSN", "SENTRY_DSN")
	viper.BindEnv("hf_token", EnvPrefix+"_HF_TOKEN", "HF_TOKEN")
	viper.BindEnv("db.dsn", EnvPrefix+"_DB_DSN", "DATABASE_URL")
}

// EnvKeyReplacer maps config keys and flag names to environment variables.
var EnvKeyReplacer = strings.NewReplacer(`-`, `_`, `.`, `_`)
