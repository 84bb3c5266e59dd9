package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/soaringjerry/Brightpath/internal/utils"
)

const envPrefix = "BRIGHTPATH"

const devJWTSecret = "brightpath-dev-secret"

type Config struct {
	Env            string
	Addr           string
	AppName        string
	StaticDir      string
	DevFrontendURL string
	AllowedOrigins []string
	JWTSecret      string

	StorageDriver  string // memory | sqlite | redis
	SQLitePath     string
	MigrationsDir  string
	LegacySnapshot string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	LogLevel  string
	LogFormat string

	SendgridAPIKey string
	SendgridHost   string
	MailFrom       string

	Commit    string
	BuildTime string
}

// Load reads defaults, then envFile (if it exists), then BRIGHTPATH_* variables.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("config: load %s: %w", envFile, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: stat %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetDefault("env", utils.SafeEnv("APP_ENV", "development"))
	v.SetDefault("addr", ":8080")
	v.SetDefault("app_name", "Brightpath")
	v.SetDefault("static_dir", "")
	v.SetDefault("dev_frontend_url", "")
	v.SetDefault("allowed_origins", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("storage_driver", "memory")
	v.SetDefault("sqlite_path", "brightpath.db")
	v.SetDefault("migrations_dir", "")
	v.SetDefault("legacy_snapshot", "")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("sendgrid_api_key", "")
	v.SetDefault("sendgrid_host", "https://api.sendgrid.com")
	v.SetDefault("mail_from", "noreply@localhost")
	v.SetDefault("commit", "")
	v.SetDefault("build_time", "")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	cfg := &Config{
		Env:            strings.ToLower(v.GetString("env")),
		Addr:           v.GetString("addr"),
		AppName:        v.GetString("app_name"),
		StaticDir:      v.GetString("static_dir"),
		DevFrontendURL: v.GetString("dev_frontend_url"),
		AllowedOrigins: utils.SplitList(v.GetString("allowed_origins")),
		JWTSecret:      v.GetString("jwt_secret"),
		StorageDriver:  strings.ToLower(v.GetString("storage_driver")),
		SQLitePath:     v.GetString("sqlite_path"),
		MigrationsDir:  v.GetString("migrations_dir"),
		LegacySnapshot: v.GetString("legacy_snapshot"),
		RedisAddr:      v.GetString("redis_addr"),
		RedisPassword:  v.GetString("redis_password"),
		RedisDB:        v.GetInt("redis_db"),
		LogLevel:       v.GetString("log_level"),
		LogFormat:      v.GetString("log_format"),
		SendgridAPIKey: v.GetString("sendgrid_api_key"),
		SendgridHost:   v.GetString("sendgrid_host"),
		MailFrom:       v.GetString("mail_from"),
		Commit:         v.GetString("commit"),
		BuildTime:      v.GetString("build_time"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool { return c.Env == "production" }

func (c *Config) validate() error {
	switch c.StorageDriver {
	case "memory", "sqlite", "redis":
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.StorageDriver)
	}
	if c.JWTSecret == "" {
		if c.IsProduction() {
			return errors.New("config: BRIGHTPATH_JWT_SECRET is required in production")
		}
		c.JWTSecret = devJWTSecret
	}
	if c.LegacySnapshot != "" && c.StorageDriver != "sqlite" {
		return errors.New("config: legacy snapshot import requires the sqlite driver")
	}
	return nil
}
