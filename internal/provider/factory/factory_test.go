package factory

import (
	"testing"

	. "github.com/onsi/gomega"

	"github.com/plumeworks/authgate/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name          string
		providerName  string
		expectedError string
	}{
		{
			name:         "github provider",
			providerName: "github",
		},
		{
			name:         "google provider",
			providerName: "google",
		},
		{
			name:          "unsupported provider",
			providerName:  "gitlab",
			expectedError: "unsupported provider: gitlab",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			p, err := New(&config.ProviderConfig{Name: tt.providerName})

			if tt.expectedError != "" {
				g.Expect(err).To(HaveOccurred())
				g.Expect(err.Error()).To(Equal(tt.expectedError))
				g.Expect(p).To(BeNil())
				return
			}
			g.Expect(err).ToNot(HaveOccurred())
			g.Expect(p.Name()).To(Equal(tt.providerName))
		})
	}
}

func TestNewAll(t *testing.T) {
	g := NewWithT(t)

	cfg := &config.Config{Providers: []*config.ProviderConfig{
		{Name: "github", ClientID: "id", ClientSecret: "secret"},
		{Name: "google", ClientID: "id", ClientSecret: "secret"},
	}}
	g.Expect(cfg.ValidateAndInitialize()).To(Succeed())

	providers, err := NewAll(cfg)

	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(providers).To(HaveLen(2))
	g.Expect(providers).To(HaveKey("github"))
	g.Expect(providers).To(HaveKey("google"))
}

func TestNewAllUnsupported(t *testing.T) {
	g := NewWithT(t)

	cfg := &config.Config{Providers: []*config.ProviderConfig{
		{Name: "gitlab", ClientID: "id", ClientSecret: "secret"},
	}}

	_, err := NewAll(cfg)

	g.Expect(err).To(HaveOccurred())
}
