package google

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/plumeworks/authgate/internal/config"
	"github.com/plumeworks/authgate/internal/provider"
)

type googleProvider struct {
	conf *config.ProviderConfig

	// Overridable in tests.
	newService func(ctx context.Context, opts ...option.ClientOption) (*oauth2api.Service, error)
}

func New(conf *config.ProviderConfig) (provider.Interface, error) {
	return &googleProvider{
		conf:       conf,
		newService: oauth2api.NewService,
	}, nil
}

// Name implements provider.Interface.
func (g *googleProvider) Name() string { return "google" }

// OAuth2Config implements provider.Interface.
func (g *googleProvider) OAuth2Config() *oauth2.Config {
	return &oauth2.Config{
		Endpoint: google.Endpoint,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
	}
}

// FetchUser implements provider.Interface.
func (g *googleProvider) FetchUser(ctx context.Context, ts oauth2.TokenSource) (*provider.UserInfo, error) {
	svc, err := g.newService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("failed to create google oauth2 service: %w", err)
	}

	userInfo, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get google user info: %w", err)
	}

	email := userInfo.Email
	if userInfo.VerifiedEmail == nil || !*userInfo.VerifiedEmail {
		return nil, fmt.Errorf("google email '%s' is not verified", email)
	}

	if !g.conf.ValidateEmailDomain(email) {
		return nil, fmt.Errorf("the domain of the email '%s' is not allowed", email)
	}

	return &provider.UserInfo{
		Login:     email,
		Email:     email,
		Name:      userInfo.Name,
		AvatarURL: userInfo.Picture,
	}, nil
}
