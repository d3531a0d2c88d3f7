package config

import "github.com/rs/zerolog/log"

// DefaultSessionSecret is the development fallback for cookie signing.
// Running with it in production defeats cookie integrity.
const DefaultSessionSecret = "dev-session-secret-change-in-production"

type SecurityConfig interface {
	GetSessionSecret() []byte
	GetSecureCookies() bool
}

type Security struct{}

var _ SecurityConfig = Security{}

func (Security) GetSessionSecret() []byte {
	secret := GetEnv("SESSION_SECRET", DefaultSessionSecret)
	if secret == DefaultSessionSecret {
		log.Warn().Msg("Using default SESSION_SECRET! Change this in production!")
	}
	return []byte(secret)
}

// GetSecureCookies reports whether session cookies carry the Secure flag.
// Requires HTTPS when enabled.
func (Security) GetSecureCookies() bool {
	return GetEnvBool("SECURE_COOKIES", false)
}
