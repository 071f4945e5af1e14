package config

import "os"

type AppConfig struct {
	DebugMode      bool
	HttpConfig     *HttpConfig
	RedisConfig    *RedisConfig
	PostgresConfig *PostgresConfig
	JwtConfig      *JwtConfig
	AuthConfig     *AuthConfig
	EmulatorConfig *EmulatorConfig
}

func NewSystemConfig() *AppConfig {
	return &AppConfig{
		DebugMode:      os.Getenv("DEBUG_MODE") == "true",
		HttpConfig:     NewHttpConfig(),
		RedisConfig:    NewRedisConfig(),
		PostgresConfig: NewPostgresConfig(),
		JwtConfig:      NewJwtConfig(),
		AuthConfig:     NewAuthConfig(),
		EmulatorConfig: NewEmulatorConfig(),
	}
}
