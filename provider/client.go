package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/mergington/go-activity-server/internal/config"
	apperrors "github.com/mergington/go-activity-server/internal/errors"
)

// Client performs the provider round-trips. Every call is a single request
// under a bounded timeout; a failed call is surfaced to the user as a failed
// login or refresh, never retried here.
type Client struct {
	oauth       *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
	timeout     time.Duration
	log         zerolog.Logger
}

// New builds a client from the statically configured provider endpoints.
func New(conf config.OAuthConfig, logger zerolog.Logger) *Client {
	return newClient(conf, oauth2.Endpoint{
		AuthURL:  conf.GetOAuthAuthorizeURL(),
		TokenURL: conf.GetOAuthTokenURL(),
	}, conf.GetOAuthUserInfoURL(), logger)
}

func newClient(conf config.OAuthConfig, endpoint oauth2.Endpoint, userInfoURL string, logger zerolog.Logger) *Client {
	timeout := conf.GetProviderTimeout()
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     conf.GetOAuthClientID(),
			ClientSecret: conf.GetOAuthClientSecret(),
			RedirectURL:  conf.GetOAuthRedirectURI(),
			Endpoint:     endpoint,
			Scopes:       []string{conf.GetOAuthScope()},
		},
		userInfoURL: userInfoURL,
		httpClient:  &http.Client{Timeout: timeout},
		timeout:     timeout,
		log:         logger.With().Str("component", "provider").Logger(),
	}
}

// AuthCodeURL builds the provider authorization URL for a login attempt.
func (c *Client) AuthCodeURL(state, challenge string) string {
	return c.oauth.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", challenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

// Exchange performs the authorization-code grant, presenting the PKCE
// verifier that matches the challenge sent on the authorize redirect.
func (c *Client) Exchange(ctx context.Context, code, verifier string) (TokenSet, error) {
	ctx, cancel := c.roundTrip(ctx)
	defer cancel()

	token, err := c.oauth.Exchange(ctx, code, oauth2.SetAuthURLParam("code_verifier", verifier))
	if err != nil {
		c.log.Error().Err(err).Msg("token exchange failed")
		return TokenSet{}, apperrors.ErrTokenExchangeFailed
	}
	if token.AccessToken == "" {
		c.log.Error().Msg("token exchange returned no access token")
		return TokenSet{}, apperrors.ErrTokenExchangeFailed
	}
	return tokenSetFrom(token), nil
}

// Refresh performs the refresh-token grant. A provider rejection here is
// terminal for the session holding the refresh token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (TokenSet, error) {
	ctx, cancel := c.roundTrip(ctx)
	defer cancel()

	token, err := c.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		c.log.Warn().Err(err).Msg("refresh grant failed")
		return TokenSet{}, apperrors.ErrRefreshFailed
	}
	if token.AccessToken == "" {
		c.log.Warn().Msg("refresh grant returned no access token")
		return TokenSet{}, apperrors.ErrRefreshFailed
	}
	return tokenSetFrom(token), nil
}

// FetchIdentity calls the user-info endpoint with a bearer token.
func (c *Client) FetchIdentity(ctx context.Context, accessToken string) (UserIdentity, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfoURL, nil)
	if err != nil {
		c.log.Error().Err(err).Msg("building user info request")
		return UserIdentity{}, apperrors.ErrIdentityFetchFailed
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Msg("user info request failed")
		return UserIdentity{}, apperrors.ErrIdentityFetchFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.log.Error().Int("status", resp.StatusCode).Bytes("body", body).Msg("user info returned non-200")
		return UserIdentity{}, apperrors.ErrIdentityFetchFailed
	}

	var raw struct {
		ID        json.Number `json:"id"`
		Sub       string      `json:"sub"`
		Login     string      `json:"login"`
		Email     string      `json:"email"`
		Name      string      `json:"name"`
		AvatarURL string      `json:"avatar_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		c.log.Error().Err(err).Msg("decoding user info payload")
		return UserIdentity{}, apperrors.ErrIdentityFetchFailed
	}

	identity := UserIdentity{
		ID:        raw.ID.String(),
		Email:     raw.Email,
		Name:      raw.Name,
		AvatarURL: raw.AvatarURL,
	}
	// GitHub-shaped fallbacks: OIDC providers use sub, GitHub users may hide
	// their email and have no display name set.
	if identity.ID == "" {
		identity.ID = raw.Sub
	}
	if identity.Email == "" && raw.Login != "" {
		identity.Email = fmt.Sprintf("%s@github.user", raw.Login)
	}
	if identity.Name == "" {
		identity.Name = raw.Login
	}

	if identity.ID == "" && identity.Email == "" {
		c.log.Error().Msg("user info payload carried no usable identity")
		return UserIdentity{}, apperrors.ErrIdentityFetchFailed
	}
	return identity, nil
}

// roundTrip scopes a provider call: bounded timeout and our http client
// threaded through the oauth2 library.
func (c *Client) roundTrip(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	return context.WithTimeout(ctx, c.timeout)
}

func tokenSetFrom(token *oauth2.Token) TokenSet {
	return TokenSet{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry,
	}
}
