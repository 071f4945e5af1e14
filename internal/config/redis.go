package config

import "time"

type RedisConfig struct {
	DB          int
	Url         string
	Password    string
	TestCaseTTL time.Duration
}

func NewRedisConfig() *RedisConfig {
	return &RedisConfig{
		DB:          getEnvInt("REDIS_DB", 0),
		Url:         getEnv("REDIS_ADDR", "localhost:6379"),
		Password:    getEnv("REDIS_PASSWORD", ""),
		TestCaseTTL: getEnvSeconds("TESTCASE_CACHE_TTL_SEC", 10*time.Minute),
	}
}
