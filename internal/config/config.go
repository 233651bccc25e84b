package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the process configuration, read once at startup.
type Config struct {
	HTTPAddr     string
	PublicURL    string
	Store        string
	DBDSN        string
	DBMaxConns   int
	MongoURI     string
	MongoDB      string
	JWTSecret    string
	JWTTTL       time.Duration
	GelfAddr     string
	LogLevel     string
	MaxUploadMiB int
	AdminEmail   string
	AdminPass    string
}

// Load reads configuration from FORMS_* environment variables, after
// loading an optional .env file from the working directory.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("forms")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("addr", ":8080")
	v.SetDefault("public_url", "http://localhost:8080")
	v.SetDefault("store", "sqlite")
	v.SetDefault("db_dsn", "oxiforms.db")
	v.SetDefault("db_max_conns", 5)
	v.SetDefault("mongo_uri", "mongodb://127.0.0.1:27017")
	v.SetDefault("mongo_db", "oxiforms")
	v.SetDefault("jwt_secret", "oxiforms-dev-secret-change-me")
	v.SetDefault("jwt_ttl", "24h")
	v.SetDefault("gelf_addr", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("max_upload_mib", 8)
	v.SetDefault("admin_email", "")
	v.SetDefault("admin_password", "")

	cfg := &Config{
		HTTPAddr:     v.GetString("addr"),
		PublicURL:    strings.TrimRight(v.GetString("public_url"), "/"),
		Store:        strings.ToLower(v.GetString("store")),
		DBDSN:        v.GetString("db_dsn"),
		DBMaxConns:   v.GetInt("db_max_conns"),
		MongoURI:     v.GetString("mongo_uri"),
		MongoDB:      v.GetString("mongo_db"),
		JWTSecret:    v.GetString("jwt_secret"),
		JWTTTL:       v.GetDuration("jwt_ttl"),
		GelfAddr:     v.GetString("gelf_addr"),
		LogLevel:     v.GetString("log_level"),
		MaxUploadMiB: v.GetInt("max_upload_mib"),
		AdminEmail:   v.GetString("admin_email"),
		AdminPass:    v.GetString("admin_password"),
	}

	switch cfg.Store {
	case "sqlite", "postgres", "postgresql", "mysql", "mariadb":
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("FORMS_DB_DSN is required for store %q", cfg.Store)
		}
	case "mongo", "mongodb":
		if cfg.MongoURI == "" || cfg.MongoDB == "" {
			return nil, fmt.Errorf("FORMS_MONGO_URI and FORMS_MONGO_DB are required for store %q", cfg.Store)
		}
	default:
		return nil, fmt.Errorf("unsupported store: %s", cfg.Store)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("FORMS_JWT_SECRET is required")
	}
	if cfg.JWTTTL <= 0 {
		cfg.JWTTTL = 24 * time.Hour
	}
	if cfg.DBMaxConns <= 0 {
		cfg.DBMaxConns = 1
	}
	if cfg.MaxUploadMiB <= 0 {
		cfg.MaxUploadMiB = 8
	}
	return cfg, nil
}
