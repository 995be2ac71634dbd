package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultServerAddr    = ":8080"
	defaultStateTTL      = 10 * time.Minute
	defaultSweepInterval = time.Minute
	defaultTokenLifetime = time.Hour
	defaultUploadMax     = 8 << 20 // 8 MiB
)

type Config struct {
	Providers []*ProviderConfig `yaml:"providers" json:"providers"`
	Gateway   GatewayConfig     `yaml:"gateway" json:"gateway"`
	State     StateConfig       `yaml:"state" json:"state"`
	Token     TokenConfig       `yaml:"token" json:"token"`
	Server    ServerConfig      `yaml:"server" json:"server"`
	Upload    UploadConfig      `yaml:"upload" json:"upload"`
}

type ProviderConfig struct {
	Name                string   `yaml:"name" json:"name"`
	ClientID            string   `yaml:"clientID" json:"clientID"`
	ClientSecret        string   `yaml:"clientSecret" json:"clientSecret"`
	AllowedEmailDomains []string `yaml:"allowedEmailDomains" json:"allowedEmailDomains"`

	regexAllowedEmailDomains []*regexp.Regexp
}

type GatewayConfig struct {
	AllowedRedirectURLs []string `yaml:"allowedRedirectURLs" json:"allowedRedirectURLs"`
	CORS                bool     `yaml:"cors" json:"cors"`

	regexAllowedRedirectURLs []*regexp.Regexp
}

type StateConfig struct {
	TTL           Duration    `yaml:"ttl" json:"ttl"`
	SweepInterval Duration    `yaml:"sweepInterval" json:"sweepInterval"`
	Redis         RedisConfig `yaml:"redis" json:"redis"`
}

// RedisConfig enables the Redis-backed state store when Addr is set.
// Without it the gateway keeps login state in process memory, which is
// fine for a single instance but loses pending logins on restart.
type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
}

// TokenConfig controls the issued JWTs. The signing key rotates once
// per lifetime as well.
type TokenConfig struct {
	Lifetime Duration `yaml:"lifetime" json:"lifetime"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

type UploadConfig struct {
	Dir      string `yaml:"dir" json:"dir"`
	MaxBytes int64  `yaml:"maxBytes" json:"maxBytes"`
}

// Duration is a time.Duration that unmarshals from YAML strings like "10m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("failed to parse duration '%s': %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

func Load() (*Config, error) {
	fileName := "/etc/authgate/config.yaml"
	if fn := os.Getenv("AUTHGATE_CONFIG"); fn != "" {
		fileName = fn
	}
	var cfg Config
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.ValidateAndInitialize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) ValidateAndInitialize() error {
	// Apply defaults.
	if c.Gateway.AllowedRedirectURLs == nil {
		c.Gateway.AllowedRedirectURLs = []string{}
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaultServerAddr
	}
	if c.State.TTL <= 0 {
		c.State.TTL = Duration(defaultStateTTL)
	}
	if c.State.SweepInterval <= 0 {
		c.State.SweepInterval = Duration(defaultSweepInterval)
	}
	if c.Token.Lifetime <= 0 {
		c.Token.Lifetime = Duration(defaultTokenLifetime)
	}
	if c.Upload.Dir == "" {
		c.Upload.Dir = os.TempDir()
	}
	if c.Upload.MaxBytes <= 0 {
		c.Upload.MaxBytes = defaultUploadMax
	}

	// Validate required fields.
	if len(c.Providers) == 0 {
		return fmt.Errorf("at least one provider must be configured")
	}
	seen := make(map[string]bool, len(c.Providers))
	for i, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("name is empty for providers[%d]", i)
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate provider '%s'", p.Name)
		}
		seen[p.Name] = true
		if p.ClientID == "" {
			return fmt.Errorf("clientID must be set for provider '%s'", p.Name)
		}
		if p.ClientSecret == "" {
			return fmt.Errorf("clientSecret must be set for provider '%s'", p.Name)
		}
		if p.AllowedEmailDomains == nil {
			p.AllowedEmailDomains = []string{}
		}
	}

	// Compile regular expressions.
	buildRegexList := func(in []string, out *[]*regexp.Regexp) error {
		for _, s := range in {
			r, err := regexp.Compile(s)
			if err != nil {
				return fmt.Errorf("failed to compile regex '%s': %w", s, err)
			}
			*out = append(*out, r)
		}
		return nil
	}
	for _, p := range c.Providers {
		if err := buildRegexList(p.AllowedEmailDomains, &p.regexAllowedEmailDomains); err != nil {
			return fmt.Errorf("failed to build regex list for allowed email domains: %w", err)
		}
	}
	if err := buildRegexList(c.Gateway.AllowedRedirectURLs, &c.Gateway.regexAllowedRedirectURLs); err != nil {
		return fmt.Errorf("failed to build regex list for allowed redirect URLs: %w", err)
	}

	return nil
}

// Provider returns the configuration for the named provider, if present.
func (c *Config) Provider(name string) (*ProviderConfig, bool) {
	for _, p := range c.Providers {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

func GetEmailDomain(email string) string {
	s := strings.Split(email, "@")
	if len(s) == 2 {
		return s[1]
	}
	return ""
}

func (p *ProviderConfig) ValidateEmailDomain(email string) bool {
	domain := GetEmailDomain(email)
	if domain == "" {
		return false
	}
	if len(p.regexAllowedEmailDomains) == 0 {
		return true
	}
	for _, r := range p.regexAllowedEmailDomains {
		if r.MatchString(domain) {
			return true
		}
	}
	return false
}

func (g *GatewayConfig) ValidateRedirectURL(url string) bool {
	if url == "" {
		return false
	}
	if len(g.regexAllowedRedirectURLs) == 0 {
		return true
	}
	for _, r := range g.regexAllowedRedirectURLs {
		if r.MatchString(url) {
			return true
		}
	}
	return false
}
