// Package provider is the client side of the OAuth 2.0 provider: it trades
// authorization codes for tokens, refreshes access tokens and fetches the
// authenticated user's identity. Failures never cross this boundary raw;
// callers only ever see the coarse error taxonomy.
package provider

import "time"

// TokenSet is the outcome of a successful code exchange or refresh grant.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	// Expiry is the provider-reported access token expiry. Zero when the
	// provider omits expires_in (GitHub does for classic OAuth apps).
	Expiry time.Time
}

// UserIdentity is the identity record returned by the provider's user-info
// endpoint, immutable once fetched.
type UserIdentity struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}
