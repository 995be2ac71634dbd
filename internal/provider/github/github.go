package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"github.com/plumeworks/authgate/internal/config"
	"github.com/plumeworks/authgate/internal/provider"
)

const (
	userEndpoint   = "https://api.github.com/user"
	emailsEndpoint = "https://api.github.com/user/emails"
)

type githubProvider struct {
	conf *config.ProviderConfig

	// Overridable in tests.
	userURL   string
	emailsURL string
}

func New(conf *config.ProviderConfig) (provider.Interface, error) {
	return &githubProvider{
		conf:      conf,
		userURL:   userEndpoint,
		emailsURL: emailsEndpoint,
	}, nil
}

// Name implements provider.Interface.
func (g *githubProvider) Name() string { return "github" }

// OAuth2Config implements provider.Interface.
func (g *githubProvider) OAuth2Config() *oauth2.Config {
	return &oauth2.Config{
		Endpoint: github.Endpoint,
		Scopes:   []string{"read:user", "user:email"},
	}
}

// FetchUser implements provider.Interface.
func (g *githubProvider) FetchUser(ctx context.Context, ts oauth2.TokenSource) (*provider.UserInfo, error) {
	client := oauth2.NewClient(ctx, ts)

	// Call user endpoint.
	resp, err := client.Get(g.userURL)
	if err != nil {
		return nil, fmt.Errorf("user request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user: %s", resp.Status)
	}

	var claims struct {
		Login     string `json:"login"`
		Email     string `json:"email"`
		Name      string `json:"name"`
		AvatarURL string `json:"avatar_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return nil, fmt.Errorf("error unmarshaling claims from github user response: %w", err)
	}

	// Users with a private email return null from the user endpoint; the
	// emails endpoint still lists the verified primary address.
	email := claims.Email
	if email == "" {
		email, err = g.fetchPrimaryEmail(client)
		if err != nil {
			return nil, err
		}
	}

	if !g.conf.ValidateEmailDomain(email) {
		return nil, fmt.Errorf("the domain of the email '%s' is not allowed", email)
	}

	return &provider.UserInfo{
		Login:     claims.Login,
		Email:     email,
		Name:      claims.Name,
		AvatarURL: claims.AvatarURL,
	}, nil
}

func (g *githubProvider) fetchPrimaryEmail(client *http.Client) (string, error) {
	resp, err := client.Get(g.emailsURL)
	if err != nil {
		return "", fmt.Errorf("emails request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("emails: %s", resp.Status)
	}

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&emails); err != nil {
		return "", fmt.Errorf("error unmarshaling github emails response: %w", err)
	}

	for _, e := range emails {
		if e.Primary && e.Verified {
			return e.Email, nil
		}
	}
	return "", fmt.Errorf("no verified primary email on the github account")
}
