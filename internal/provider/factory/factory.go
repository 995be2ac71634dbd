package factory

import (
	"fmt"

	"github.com/plumeworks/authgate/internal/config"
	"github.com/plumeworks/authgate/internal/provider"
	"github.com/plumeworks/authgate/internal/provider/github"
	"github.com/plumeworks/authgate/internal/provider/google"
)

const (
	providerGoogle = "google"
	providerGitHub = "github"
)

func New(conf *config.ProviderConfig) (provider.Interface, error) {
	switch conf.Name {
	case providerGoogle:
		return google.New(conf)
	case providerGitHub:
		return github.New(conf)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", conf.Name)
	}
}

// NewAll builds every configured provider, keyed by name.
func NewAll(conf *config.Config) (map[string]provider.Interface, error) {
	providers := make(map[string]provider.Interface, len(conf.Providers))
	for _, pc := range conf.Providers {
		p, err := New(pc)
		if err != nil {
			return nil, err
		}
		providers[pc.Name] = p
	}
	return providers, nil
}
