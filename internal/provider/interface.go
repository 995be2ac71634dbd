package provider

import (
	"context"

	"golang.org/x/oauth2"
)

// UserInfo is the profile fetched from the identity provider after a
// successful code exchange.
type UserInfo struct {
	Login     string
	Email     string
	Name      string
	AvatarURL string
}

type Interface interface {
	// Name returns the provider identifier used in login and callback paths.
	Name() string

	// OAuth2Config returns the provider endpoint and scopes. Client
	// credentials and the redirect URL are filled in by the caller.
	OAuth2Config() *oauth2.Config

	// FetchUser retrieves and validates the authenticated user's profile.
	FetchUser(ctx context.Context, ts oauth2.TokenSource) (*UserInfo, error)
}
