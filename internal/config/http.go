package config

import "time"

type HttpConfig struct {
	Port            int
	ShutdownTimeout time.Duration
}

func NewHttpConfig() *HttpConfig {
	return &HttpConfig{
		Port:            getEnvInt("HTTP_PORT", 8082),
		ShutdownTimeout: 5 * time.Second,
	}
}
