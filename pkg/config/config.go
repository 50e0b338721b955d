package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string
	BaseURL   string

	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Uploads  UploadsConfig
	Seed     SeedConfig
	Export   ExportConfig
}

type DatabaseConfig struct {
	URL          string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	URL      string
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig toggles the Redis-backed student list cache.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

// CORSConfig lists exact origins plus host suffixes (".vercel.app") accepted for preview deployments.
type CORSConfig struct {
	AllowedOrigins        []string
	AllowedOriginSuffixes []string
}

type LogConfig struct {
	Level  string
	Format string
}

// UploadsConfig controls where student photos live and how large they may be.
type UploadsConfig struct {
	Dir          string
	MaxFileBytes int64
	AllowedMIMEs []string
}

// SeedConfig holds the bootstrap account passwords.
type SeedConfig struct {
	OnStart              bool
	DirectorPassword     string
	PsychologistPassword string
}

// ExportConfig points the PDF renderer at a TTF font with Cyrillic glyphs.
type ExportConfig struct {
	FontPath string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.BaseURL = strings.TrimRight(v.GetString("BASE_URL"), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:" + v.GetString("PORT")
	}

	cfg.Database = DatabaseConfig{
		URL:          v.GetString("DATABASE_URL"),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		URL:      v.GetString("REDIS_URL"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("CACHE_ENABLED"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 5*time.Minute),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Issuer:     v.GetString("JWT_ISSUER"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 7*24*time.Hour),
	}

	origins := splitAndTrim(v.GetString("ALLOWED_ORIGINS"))
	if frontend := strings.TrimSpace(v.GetString("FRONTEND_URL")); frontend != "" {
		origins = append([]string{frontend}, origins...)
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins:        origins,
		AllowedOriginSuffixes: splitAndTrim(v.GetString("ALLOWED_ORIGIN_SUFFIXES")),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	maxPhoto := v.GetInt64("PHOTO_MAX_SIZE")
	if maxPhoto <= 0 {
		maxPhoto = 5 * 1024 * 1024
	}
	cfg.Uploads = UploadsConfig{
		Dir:          v.GetString("UPLOADS_DIR"),
		MaxFileBytes: maxPhoto,
		AllowedMIMEs: splitAndTrim(v.GetString("PHOTO_ALLOWED_MIME_TYPES")),
	}

	cfg.Seed = SeedConfig{
		OnStart:              v.GetBool("SEED_ON_START"),
		DirectorPassword:     v.GetString("SEED_DIRECTOR_PASSWORD"),
		PsychologistPassword: v.GetString("SEED_PSYCHOLOGIST_PASSWORD"),
	}

	cfg.Export = ExportConfig{FontPath: v.GetString("EXPORT_FONT_PATH")}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 3001)
	v.SetDefault("API_PREFIX", "/api")
	v.SetDefault("BASE_URL", "")

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "atfitk")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("CACHE_TTL", "5m")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "atfitk-websystem")
	v.SetDefault("JWT_EXPIRATION", "168h")

	v.SetDefault("FRONTEND_URL", "")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:5174,https://atfitk-websystem.vercel.app")
	v.SetDefault("ALLOWED_ORIGIN_SUFFIXES", ".vercel.app")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("UPLOADS_DIR", "./uploads")
	v.SetDefault("PHOTO_MAX_SIZE", 5*1024*1024)
	v.SetDefault("PHOTO_ALLOWED_MIME_TYPES", "image/jpeg,image/png,image/webp,image/gif")

	v.SetDefault("SEED_ON_START", true)
	v.SetDefault("SEED_DIRECTOR_PASSWORD", "Atfitk@Dir2024!")
	v.SetDefault("SEED_PSYCHOLOGIST_PASSWORD", "Psy#Atfitk2024!")

	v.SetDefault("EXPORT_FONT_PATH", "")
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
