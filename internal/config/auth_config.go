package config

import "strings"

type AuthConfig struct {
	// EmailDomain, when set, is the only domain signup accepts, e.g. "school.edu".
	EmailDomain string
}

func NewAuthConfig() *AuthConfig {
	return &AuthConfig{
		EmailDomain: strings.TrimPrefix(getEnv("AUTH_EMAIL_DOMAIN", ""), "@"),
	}
}
