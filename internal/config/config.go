package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server     ServerConfig
	Redis      RedisConfig
	JWT        JWTConfig
	RateLimit  RateLimitConfig
	Anthropic  AnthropicConfig
	Meshy      MeshyConfig
	Rodin      RodinConfig
	OpenSCAD   OpenSCADConfig
	Storefront StorefrontConfig
	R2         R2Config
	Zitadel    ZitadelConfig
	Gateway    GatewayConfig
}

type ServerConfig struct {
	Port      string
	Env       string
	LogLevel  string
	ApiDomain string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration int // hours
}

type RateLimitConfig struct {
	GeneratePerHour int
	PreviewPerMin   int
	CatalogPerMin   int
}

type AnthropicConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type MeshyConfig struct {
	APIKey  string
	BaseURL string
}

type RodinConfig struct {
	APIKey  string
	BaseURL string
}

// OpenSCADConfig controls the external DSL toolchain and the
// generation/correction loop built on top of it.
type OpenSCADConfig struct {
	Binary                string
	TimeoutSeconds        int
	MaxCorrectionAttempts int
	BuildVolume           BuildVolume
}

// BuildVolume is the printable envelope in millimeters
type BuildVolume struct {
	X int
	Y int
	Z int
}

type StorefrontConfig struct {
	BaseURL      string
	AccessToken  string
	ProductLimit int
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

type ZitadelConfig struct {
	Domain   string
	ClientID string
	Issuer   string
}

type GatewayConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("ANTHROPIC_API_KEY")
	readSecret("MESHY_API_KEY")
	readSecret("RODIN_API_KEY")
	readSecret("STOREFRONT_ACCESS_TOKEN")
	readSecret("R2_ACCOUNT_ID")
	readSecret("R2_ACCESS_KEY_ID")
	readSecret("R2_SECRET_ACCESS_KEY")
	readSecret("ZITADEL_CLIENT_ID")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("server.api_domain", "API_DOMAIN")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")
	_ = viper.BindEnv("jwt.secret", "JWT_SECRET")
	_ = viper.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	_ = viper.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")
	_ = viper.BindEnv("anthropic.base_url", "ANTHROPIC_BASE_URL")
	_ = viper.BindEnv("anthropic.model", "ANTHROPIC_MODEL")
	_ = viper.BindEnv("meshy.api_key", "MESHY_API_KEY")
	_ = viper.BindEnv("meshy.base_url", "MESHY_BASE_URL")
	_ = viper.BindEnv("rodin.api_key", "RODIN_API_KEY")
	_ = viper.BindEnv("rodin.base_url", "RODIN_BASE_URL")
	_ = viper.BindEnv("openscad.binary", "OPENSCAD_BINARY")
	_ = viper.BindEnv("openscad.timeout", "OPENSCAD_TIMEOUT")
	_ = viper.BindEnv("openscad.max_correction_attempts", "OPENSCAD_MAX_CORRECTION_ATTEMPTS")
	_ = viper.BindEnv("storefront.base_url", "STOREFRONT_BASE_URL")
	_ = viper.BindEnv("storefront.access_token", "STOREFRONT_ACCESS_TOKEN")
	_ = viper.BindEnv("storefront.product_limit", "STOREFRONT_PRODUCT_LIMIT")
	_ = viper.BindEnv("r2.account_id", "R2_ACCOUNT_ID")
	_ = viper.BindEnv("r2.access_key_id", "R2_ACCESS_KEY_ID")
	_ = viper.BindEnv("r2.secret_access_key", "R2_SECRET_ACCESS_KEY")
	_ = viper.BindEnv("r2.bucket_name", "R2_BUCKET_NAME")
	_ = viper.BindEnv("r2.public_url", "R2_PUBLIC_URL")
	_ = viper.BindEnv("zitadel.domain", "ZITADEL_DOMAIN")
	_ = viper.BindEnv("zitadel.client_id", "ZITADEL_CLIENT_ID")
	_ = viper.BindEnv("zitadel.issuer", "ZITADEL_ISSUER")
	_ = viper.BindEnv("gateway.enabled", "GATEWAY_ENABLED")

	// Defaults
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("jwt.expiration", 24)
	viper.SetDefault("ratelimit.generate_per_hour", 20)
	viper.SetDefault("ratelimit.preview_per_min", 60)
	viper.SetDefault("ratelimit.catalog_per_min", 30)

	// Anthropic defaults
	viper.SetDefault("anthropic.base_url", "https://api.anthropic.com")
	viper.SetDefault("anthropic.model", "claude-sonnet-4-20250514")

	// Mesh provider defaults
	viper.SetDefault("meshy.base_url", "https://api.meshy.ai")
	viper.SetDefault("rodin.base_url", "https://hyperhuman.deemos.com")

	// OpenSCAD toolchain defaults (Bambu Lab A1 build volume)
	viper.SetDefault("openscad.binary", "openscad")
	viper.SetDefault("openscad.timeout", 30)
	viper.SetDefault("openscad.max_correction_attempts", 5)
	viper.SetDefault("openscad.build_volume.x", 256)
	viper.SetDefault("openscad.build_volume.y", 256)
	viper.SetDefault("openscad.build_volume.z", 256)

	// Storefront defaults
	viper.SetDefault("storefront.product_limit", 50)

	// Gateway defaults
	viper.SetDefault("gateway.enabled", false)

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:      viper.GetString("server.port"),
			Env:       viper.GetString("server.env"),
			LogLevel:  viper.GetString("server.log_level"),
			ApiDomain: viper.GetString("server.api_domain"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:     viper.GetString("jwt.secret"),
			Expiration: viper.GetInt("jwt.expiration"),
		},
		RateLimit: RateLimitConfig{
			GeneratePerHour: viper.GetInt("ratelimit.generate_per_hour"),
			PreviewPerMin:   viper.GetInt("ratelimit.preview_per_min"),
			CatalogPerMin:   viper.GetInt("ratelimit.catalog_per_min"),
		},
		Anthropic: AnthropicConfig{
			APIKey:  viper.GetString("anthropic.api_key"),
			BaseURL: viper.GetString("anthropic.base_url"),
			Model:   viper.GetString("anthropic.model"),
		},
		Meshy: MeshyConfig{
			APIKey:  viper.GetString("meshy.api_key"),
			BaseURL: viper.GetString("meshy.base_url"),
		},
		Rodin: RodinConfig{
			APIKey:  viper.GetString("rodin.api_key"),
			BaseURL: viper.GetString("rodin.base_url"),
		},
		OpenSCAD: OpenSCADConfig{
			Binary:                viper.GetString("openscad.binary"),
			TimeoutSeconds:        viper.GetInt("openscad.timeout"),
			MaxCorrectionAttempts: viper.GetInt("openscad.max_correction_attempts"),
			BuildVolume: BuildVolume{
				X: viper.GetInt("openscad.build_volume.x"),
				Y: viper.GetInt("openscad.build_volume.y"),
				Z: viper.GetInt("openscad.build_volume.z"),
			},
		},
		Storefront: StorefrontConfig{
			BaseURL:      viper.GetString("storefront.base_url"),
			AccessToken:  viper.GetString("storefront.access_token"),
			ProductLimit: viper.GetInt("storefront.product_limit"),
		},
		R2: R2Config{
			AccountID:       viper.GetString("r2.account_id"),
			AccessKeyID:     viper.GetString("r2.access_key_id"),
			SecretAccessKey: viper.GetString("r2.secret_access_key"),
			BucketName:      viper.GetString("r2.bucket_name"),
			PublicURL:       viper.GetString("r2.public_url"),
		},
		Zitadel: ZitadelConfig{
			Domain:   viper.GetString("zitadel.domain"),
			ClientID: viper.GetString("zitadel.client_id"),
			Issuer:   viper.GetString("zitadel.issuer"),
		},
		Gateway: GatewayConfig{
			Enabled: viper.GetBool("gateway.enabled"),
		},
	}

	return cfg, nil
}
