package provider

import (
	"context"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/rs/zerolog"

	"github.com/mergington/go-activity-server/internal/config"
	apperrors "github.com/mergington/go-activity-server/internal/errors"
)

// NewFromIssuer builds a client by discovering the provider's endpoints from
// its OIDC configuration document instead of the statically configured URLs.
// Used when OAUTH_ISSUER is set.
func NewFromIssuer(ctx context.Context, conf config.OAuthConfig, logger zerolog.Logger) (*Client, error) {
	oidcProvider, err := oidc.NewProvider(ctx, conf.GetOAuthIssuer())
	if err != nil {
		return nil, apperrors.Wrapf(err, "[provider NewFromIssuer] OIDC discovery for %q", conf.GetOAuthIssuer())
	}

	var claims struct {
		UserInfoEndpoint string `json:"userinfo_endpoint"`
	}
	if err := oidcProvider.Claims(&claims); err != nil {
		return nil, apperrors.Wrapf(err, "[provider NewFromIssuer] reading discovery document")
	}
	userInfoURL := claims.UserInfoEndpoint
	if userInfoURL == "" {
		userInfoURL = conf.GetOAuthUserInfoURL()
	}

	return newClient(conf, oidcProvider.Endpoint(), userInfoURL, logger), nil
}
