package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/gomega"
)

func validConfig() *Config {
	return &Config{
		Providers: []*ProviderConfig{{
			Name:         "github",
			ClientID:     "client-id",
			ClientSecret: "client-secret",
		}},
	}
}

func TestLoad(t *testing.T) {
	g := NewWithT(t)

	fileName := filepath.Join(t.TempDir(), "config.yaml")
	contents := `
providers:
- name: github
  clientID: gh-client
  clientSecret: gh-secret
- name: google
  clientID: goog-client
  clientSecret: goog-secret
  allowedEmailDomains:
  - ^example\.com$
gateway:
  allowedRedirectURLs:
  - ^https://app\.example/
  cors: true
state:
  ttl: 10m
  sweepInterval: 30s
token:
  lifetime: 45m
server:
  addr: ":9090"
upload:
  dir: /tmp/uploads
  maxBytes: 1048576
`
	g.Expect(os.WriteFile(fileName, []byte(contents), 0o600)).To(Succeed())
	t.Setenv("AUTHGATE_CONFIG", fileName)

	cfg, err := Load()

	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(cfg.Providers).To(HaveLen(2))
	g.Expect(cfg.Providers[0].Name).To(Equal("github"))
	g.Expect(cfg.Gateway.CORS).To(BeTrue())
	g.Expect(cfg.State.TTL.Std()).To(Equal(10 * time.Minute))
	g.Expect(cfg.State.SweepInterval.Std()).To(Equal(30 * time.Second))
	g.Expect(cfg.Token.Lifetime.Std()).To(Equal(45 * time.Minute))
	g.Expect(cfg.Server.Addr).To(Equal(":9090"))
	g.Expect(cfg.Upload.MaxBytes).To(Equal(int64(1048576)))

	p, ok := cfg.Provider("google")
	g.Expect(ok).To(BeTrue())
	g.Expect(p.ClientID).To(Equal("goog-client"))
	_, ok = cfg.Provider("gitlab")
	g.Expect(ok).To(BeFalse())
}

func TestLoadMissingFile(t *testing.T) {
	g := NewWithT(t)

	t.Setenv("AUTHGATE_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()

	g.Expect(err).To(HaveOccurred())
}

func TestValidateAndInitialize(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*Config)
		expectedError string
	}{
		{
			name:   "valid minimal config",
			mutate: func(c *Config) {},
		},
		{
			name:          "no providers",
			mutate:        func(c *Config) { c.Providers = nil },
			expectedError: "at least one provider",
		},
		{
			name:          "provider without name",
			mutate:        func(c *Config) { c.Providers[0].Name = "" },
			expectedError: "name is empty",
		},
		{
			name: "duplicate providers",
			mutate: func(c *Config) {
				c.Providers = append(c.Providers, c.Providers[0])
			},
			expectedError: "duplicate provider",
		},
		{
			name:          "provider without clientID",
			mutate:        func(c *Config) { c.Providers[0].ClientID = "" },
			expectedError: "clientID must be set",
		},
		{
			name:          "provider without clientSecret",
			mutate:        func(c *Config) { c.Providers[0].ClientSecret = "" },
			expectedError: "clientSecret must be set",
		},
		{
			name: "invalid redirect URL regex",
			mutate: func(c *Config) {
				c.Gateway.AllowedRedirectURLs = []string{"["}
			},
			expectedError: "failed to compile regex",
		},
		{
			name: "invalid email domain regex",
			mutate: func(c *Config) {
				c.Providers[0].AllowedEmailDomains = []string{"("}
			},
			expectedError: "failed to compile regex",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.ValidateAndInitialize()

			if tt.expectedError != "" {
				g.Expect(err).To(HaveOccurred())
				g.Expect(err.Error()).To(ContainSubstring(tt.expectedError))
				return
			}
			g.Expect(err).ToNot(HaveOccurred())
			g.Expect(cfg.Server.Addr).To(Equal(defaultServerAddr))
			g.Expect(cfg.State.TTL.Std()).To(Equal(defaultStateTTL))
			g.Expect(cfg.State.SweepInterval.Std()).To(Equal(defaultSweepInterval))
			g.Expect(cfg.Token.Lifetime.Std()).To(Equal(defaultTokenLifetime))
			g.Expect(cfg.Upload.Dir).ToNot(BeEmpty())
			g.Expect(cfg.Upload.MaxBytes).To(Equal(int64(defaultUploadMax)))
		})
	}
}

func TestValidateRedirectURL(t *testing.T) {
	tests := []struct {
		name     string
		allowed  []string
		url      string
		expected bool
	}{
		{
			name:     "empty URL is always rejected",
			url:      "",
			expected: false,
		},
		{
			name:     "no allow list accepts any URL",
			url:      "https://anything.example/cb",
			expected: true,
		},
		{
			name:     "matching URL",
			allowed:  []string{`^https://app\.example/`},
			url:      "https://app.example/cb",
			expected: true,
		},
		{
			name:     "non-matching URL",
			allowed:  []string{`^https://app\.example/`},
			url:      "https://evil.example/cb",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			cfg := validConfig()
			cfg.Gateway.AllowedRedirectURLs = tt.allowed
			g.Expect(cfg.ValidateAndInitialize()).To(Succeed())

			g.Expect(cfg.Gateway.ValidateRedirectURL(tt.url)).To(Equal(tt.expected))
		})
	}
}

func TestValidateEmailDomain(t *testing.T) {
	tests := []struct {
		name     string
		allowed  []string
		email    string
		expected bool
	}{
		{
			name:     "email without domain",
			email:    "not-an-email",
			expected: false,
		},
		{
			name:     "no allow list accepts any domain",
			email:    "user@anywhere.example",
			expected: true,
		},
		{
			name:     "matching domain",
			allowed:  []string{`^example\.com$`},
			email:    "user@example.com",
			expected: true,
		},
		{
			name:     "non-matching domain",
			allowed:  []string{`^example\.com$`},
			email:    "user@examplexcom",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			cfg := validConfig()
			cfg.Providers[0].AllowedEmailDomains = tt.allowed
			g.Expect(cfg.ValidateAndInitialize()).To(Succeed())

			g.Expect(cfg.Providers[0].ValidateEmailDomain(tt.email)).To(Equal(tt.expected))
		})
	}
}

func TestDurationUnmarshal(t *testing.T) {
	g := NewWithT(t)

	fileName := filepath.Join(t.TempDir(), "config.yaml")
	contents := `
providers:
- name: github
  clientID: id
  clientSecret: secret
state:
  ttl: not-a-duration
`
	g.Expect(os.WriteFile(fileName, []byte(contents), 0o600)).To(Succeed())
	t.Setenv("AUTHGATE_CONFIG", fileName)

	_, err := Load()

	g.Expect(err).To(HaveOccurred())
	g.Expect(err.Error()).To(ContainSubstring("failed to parse duration"))
}
