package token

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/sirupsen/logrus"
)

const (
	defaultLifetime = time.Hour

	claimEmail     = "email"
	claimName      = "name"
	claimAvatarURL = "picture"
)

func Algorithm() jwa.SignatureAlgorithm { return jwa.RS256() }

// Profile is the user identity carried inside issued tokens.
type Profile struct {
	Login     string `json:"login"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"picture,omitempty"`
}

type Issuer interface {
	Issue(iss, aud string, now time.Time, profile Profile) (string, time.Time, error)
	Verify(bearerToken string, now time.Time, iss, aud string) (Profile, bool)
	PublicKeys(now time.Time) []jwk.Key
}

type tokenIssuer struct {
	keys     privateKeySource
	lifetime time.Duration
}

// New returns an Issuer whose tokens expire after lifetime. The signing
// key rotates on the same period. A non-positive lifetime means one hour.
func New(lifetime time.Duration) Issuer {
	if lifetime <= 0 {
		lifetime = defaultLifetime
	}
	return &tokenIssuer{
		keys:     newRotatingKeySource(lifetime),
		lifetime: lifetime,
	}
}

func (t *tokenIssuer) Issue(iss, aud string, now time.Time, profile Profile) (string, time.Time, error) {
	cur, err := t.keys.current(now)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to get current private key: %w", err)
	}
	keyID, ok := cur.KeyID()
	if !ok {
		return "", time.Time{}, fmt.Errorf("private key has no key ID")
	}

	exp := now.Add(t.lifetime)

	tok, err := jwt.NewBuilder().
		Issuer(iss).
		Subject(profile.Login).
		Audience([]string{aud}).
		Expiration(exp).
		NotBefore(now).
		IssuedAt(now).
		JwtID(uuid.NewString()).
		Claim(claimEmail, profile.Email).
		Claim(claimName, profile.Name).
		Claim(claimAvatarURL, profile.AvatarURL).
		Build()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to build token: %w", err)
	}

	b, err := jwt.Sign(tok, jwt.WithKey(Algorithm(), cur))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	signedJWT := string(b)

	// Log the token issuance.
	b, _ = json.Marshal(tok)
	var claims map[string]any
	_ = json.Unmarshal(b, &claims)
	logrus.WithField("token", logrus.Fields{
		jwk.KeyIDKey: keyID,
		"claims":     claims,
	}).Info("token issued")

	return signedJWT, exp, nil
}

func (t *tokenIssuer) Verify(bearerToken string, now time.Time, iss, aud string) (Profile, bool) {
	for _, key := range t.keys.publicKeys(now) {

		tok, err := jwt.ParseString(bearerToken,
			jwt.WithKey(Algorithm(), key),
			jwt.WithIssuer(iss),
			jwt.WithAudience(aud))
		if err != nil {
			continue
		}

		if exp, ok := tok.Expiration(); !ok || now.After(exp) {
			continue
		}

		var profile Profile
		profile.Login, _ = tok.Subject()
		_ = tok.Get(claimEmail, &profile.Email)
		_ = tok.Get(claimName, &profile.Name)
		_ = tok.Get(claimAvatarURL, &profile.AvatarURL)
		return profile, true
	}
	return Profile{}, false
}

func (t *tokenIssuer) PublicKeys(now time.Time) []jwk.Key {
	return t.keys.publicKeys(now)
}
