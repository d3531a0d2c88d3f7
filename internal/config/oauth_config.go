package config

import "time"

type OAuthConfig interface {
	GetOAuthClientID() string
	GetOAuthClientSecret() string
	GetOAuthRedirectURI() string
	GetOAuthAuthorizeURL() string
	GetOAuthTokenURL() string
	GetOAuthUserInfoURL() string
	GetOAuthIssuer() string
	GetOAuthScope() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetPendingAuthTimeout() time.Duration
	GetProviderTimeout() time.Duration
}

type OAuth struct{}

var _ OAuthConfig = OAuth{}

func (OAuth) GetOAuthClientID() string {
	return GetEnv("OAUTH_CLIENT_ID", "")
}

func (OAuth) GetOAuthClientSecret() string {
	return GetEnv("OAUTH_CLIENT_SECRET", "")
}

func (OAuth) GetOAuthRedirectURI() string {
	return GetEnv("OAUTH_REDIRECT_URI", "http://localhost:8000/auth/callback")
}

// Provider endpoints default to GitHub. Setting OAUTH_ISSUER switches the
// provider client to OIDC discovery and these three are ignored.
func (OAuth) GetOAuthAuthorizeURL() string {
	return GetEnv("OAUTH_AUTHORIZE_URL", "https://github.com/login/oauth/authorize")
}

func (OAuth) GetOAuthTokenURL() string {
	return GetEnv("OAUTH_TOKEN_URL", "https://github.com/login/oauth/access_token")
}

func (OAuth) GetOAuthUserInfoURL() string {
	return GetEnv("OAUTH_USERINFO_URL", "https://api.github.com/user")
}

func (OAuth) GetOAuthIssuer() string {
	return GetEnv("OAUTH_ISSUER", "")
}

func (OAuth) GetOAuthScope() string {
	return GetEnv("OAUTH_SCOPE", "user:email")
}

func (OAuth) GetAccessTokenExpiry() time.Duration {
	return time.Duration(GetEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute
}

func (OAuth) GetRefreshTokenExpiry() time.Duration {
	return time.Duration(GetEnvInt("REFRESH_TOKEN_EXPIRE_DAYS", 7)) * 24 * time.Hour
}

// GetPendingAuthTimeout bounds how long an unfinished login attempt may wait
// for its callback before the stored state is discarded.
func (OAuth) GetPendingAuthTimeout() time.Duration {
	return time.Duration(GetEnvInt("PENDING_AUTH_TIMEOUT_MINUTES", 10)) * time.Minute
}

// GetProviderTimeout bounds each outbound round-trip to the provider.
func (OAuth) GetProviderTimeout() time.Duration {
	return time.Duration(GetEnvInt("PROVIDER_TIMEOUT_SECONDS", 10)) * time.Second
}
