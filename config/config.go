package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sagarc03/gallery/database"
	galleryhttp "github.com/sagarc03/gallery/http"
	"github.com/sagarc03/gallery/objectstore"
)

// EnvPrefix is prepended to every configuration key read from the environment.
const EnvPrefix = "GALLERY"

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for the gallery server.
type Config struct {
	Env     string                 `mapstructure:"env"`
	Server  ServerConfig           `mapstructure:"server"`
	Storage StorageConfig          `mapstructure:"storage"`
	Index   database.Config        `mapstructure:"index"`
	CORS    galleryhttp.CORSConfig `mapstructure:"cors"`
	Log     LogConfig              `mapstructure:"log"`
}

// IsProduction reports whether env selects production logging.
func (c *Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port          int   `mapstructure:"port" validate:"required,min=1,max=65535"`
	MaxUploadSize int64 `mapstructure:"max_upload_size" validate:"min=0"`
}

// StorageConfig holds object store configuration.
type StorageConfig struct {
	Type string `mapstructure:"type" validate:"required,oneof=minio filesystem"`
	Path string `mapstructure:"path" validate:"required_if=Type filesystem"`
	// PublicURL is the base of image URLs handed to clients. Empty means
	// images are served through GET /files/{fileName}.
	PublicURL string             `mapstructure:"public_url" validate:"omitempty,url"`
	MinIO     objectstore.Config `mapstructure:"minio"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"port":          "server.port",
	"storage-type":  "storage.type",
	"storage-path":  "storage.path",
	"public-url":    "storage.public_url",
	"index-type":    "index.type",
	"index-dsn":     "index.dsn",
	"index-table":   "index.table",
	"log-level":     "log.level",
	"max-upload":    "server.max_upload_size",
	"minio-bucket":  "storage.minio.bucket",
	"minio-address": "storage.minio.endpoint",
}

// bindFlags binds CLI flags to viper keys with custom name mapping and
// returns the keys that were bound.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) map[string]bool {
	bound := make(map[string]bool)

	flags.VisitAll(func(f *pflag.Flag) {
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
			bound[viperKey] = true
		}
	})

	return bound
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")

	v.SetDefault("server.port", 3000)
	v.SetDefault("server.max_upload_size", 0) // 0 means no limit

	v.SetDefault("storage.type", "minio")
	v.SetDefault("storage.path", "./data")
	v.SetDefault("storage.public_url", "")
	v.SetDefault("storage.minio.endpoint", "minio:9000")
	v.SetDefault("storage.minio.access_key", "")
	v.SetDefault("storage.minio.secret_key", "")
	v.SetDefault("storage.minio.use_ssl", false)
	v.SetDefault("storage.minio.bucket", "photo-storage")
	v.SetDefault("storage.minio.region", "us-east-1")
	v.SetDefault("storage.minio.public_read", true)

	v.SetDefault("index.type", "memory")
	v.SetDefault("index.dsn", "")
	v.SetDefault("index.table", "gallery_images")

	v.SetDefault("cors.enabled", true)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "DELETE", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"*"})
	v.SetDefault("cors.exposed_headers", []string{"X-Index-Status"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 300)

	v.SetDefault("log.level", "info")
}

// LoadDotEnv loads KEY=value pairs from path into the process environment.
// Variables that are already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// applyEnvAliases maps the MINIO_* variables used by existing deployments
// onto configuration keys. GALLERY_* variables and explicit flags take
// precedence over an alias.
func applyEnvAliases(v *viper.Viper, boundFlags map[string]bool) {
	set := func(key, value string) {
		if value == "" || boundFlags[key] {
			return
		}
		if _, ok := os.LookupEnv(envName(key)); ok {
			return
		}
		v.Set(key, value)
	}

	port := os.Getenv("MINIO_PORT")

	if host := os.Getenv("MINIO_ENDPOINT"); host != "" {
		endpoint := host
		if _, _, err := net.SplitHostPort(host); err != nil {
			if port == "" {
				port = "9000"
			}
			endpoint = net.JoinHostPort(host, port)
		}
		set("storage.minio.endpoint", endpoint)
	}

	set("storage.minio.access_key", os.Getenv("MINIO_ACCESS_KEY"))
	set("storage.minio.secret_key", os.Getenv("MINIO_SECRET_KEY"))

	if host := os.Getenv("MINIO_PUBLIC_HOST"); host != "" {
		if port == "" {
			port = "9000"
		}
		set("storage.public_url", "http://"+net.JoinHostPort(host, port))
	}
}

// envName returns the environment variable that overrides key.
func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	var boundFlags map[string]bool
	if flags != nil {
		boundFlags = bindFlags(v, flags)
	}

	// 5. Legacy MINIO_* variables
	applyEnvAliases(v, boundFlags)

	// 6. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 7. Validate using go-playground/validator
	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
