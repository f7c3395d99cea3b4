package config

import (
	"os"
	"time"
)

// Server captures process-level configuration. Built from environment
// variables so main stays lean.
type Server struct {
	Addr          string
	DatabaseURL   string
	RedisURL      string
	JWTSigningKey string
	JWTIssuer     string
	JWTTTL        time.Duration

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	// GoogleTokenInfoURL is the endpoint used to verify Google credentials.
	// Overridable so tests and local stacks can point at a fake.
	GoogleTokenInfoURL string
}

// MarkerCacheTTL bounds staleness of the public map marker cache.
var MarkerCacheTTL = time.Minute

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:               envOr("KOSFINDER_ADDR", ":8080"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		JWTSigningKey:      envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:          envOr("JWT_ISSUER", "kosfinder"),
		JWTTTL:             24 * time.Hour,
		MinIOEndpoint:      envOr("MINIO_ENDPOINT", "localhost:9000"),
		MinIOAccessKey:     envOr("MINIO_ACCESS_KEY", "minioadmin"),
		MinIOSecretKey:     envOr("MINIO_SECRET_KEY", "minioadmin"),
		MinIOBucket:        envOr("MINIO_BUCKET", "kos-images"),
		MinIOUseSSL:        os.Getenv("MINIO_USE_SSL") == "true",
		GoogleTokenInfoURL: envOr("GOOGLE_TOKENINFO_URL", "https://oauth2.googleapis.com/tokeninfo"),
	}
	if ttl := os.Getenv("JWT_TTL"); ttl != "" {
		if parsed, err := time.ParseDuration(ttl); err == nil {
			cfg.JWTTTL = parsed
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
