package config

import "time"

type JwtConfig struct {
	Secret string
	TTL    time.Duration
}

func NewJwtConfig() *JwtConfig {
	return &JwtConfig{
		Secret: getEnv("JWT_SECRET", "dev-secret-change-me"),
		TTL:    time.Duration(getEnvInt("JWT_TTL_MIN", 24*60)) * time.Minute,
	}
}
