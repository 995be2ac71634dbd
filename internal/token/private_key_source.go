package token

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"sync"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/sirupsen/logrus"
)

type privateKeySource interface {
	current(now time.Time) (jwk.Key, error)
	publicKeys(now time.Time) []jwk.Key
}

// rotatingPrivateKeySource mints a fresh in-memory RSA key once per
// rotation period. The previous public key stays available for one extra
// grace period so tokens signed just before a rotation remain verifiable
// until they expire on their own.
type rotatingPrivateKeySource struct {
	rotationPeriod time.Duration
	verifyGrace    time.Duration

	cur  *signingKey
	prev *signingKey
	mu   sync.RWMutex
}

func newRotatingKeySource(tokenLifetime time.Duration) *rotatingPrivateKeySource {
	return &rotatingPrivateKeySource{
		rotationPeriod: tokenLifetime,
		verifyGrace:    tokenLifetime,
	}
}

func (s *rotatingPrivateKeySource) current(now time.Time) (jwk.Key, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cur.signableAt(now) {
		next, err := s.mint(now)
		if err != nil {
			return nil, err
		}

		s.prev, s.cur = s.cur, next
	}

	return s.cur.private, nil
}

func (s *rotatingPrivateKeySource) publicKeys(now time.Time) []jwk.Key {
	s.mu.RLock()
	cur, prev := s.cur, s.prev
	s.mu.RUnlock()

	var keys []jwk.Key
	if cur.verifiableAt(now, s.verifyGrace) {
		keys = append(keys, cur.public)
	}
	if prev.verifiableAt(now, s.verifyGrace) {
		keys = append(keys, prev.public)
	}
	return keys
}

func (s *rotatingPrivateKeySource) mint(now time.Time) (*signingKey, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("failed to generate rsa key: %w", err)
	}

	private, err := jwk.Import(priv)
	if err != nil {
		return nil, fmt.Errorf("failed to convert rsa key to jwk: %w", err)
	}

	public, err := private.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("failed to get public key from jwk: %w", err)
	}

	thumbprint, err := public.Thumbprint(crypto.SHA256)
	if err != nil {
		return nil, fmt.Errorf("failed to get thumbprint from public key: %w", err)
	}

	keyID := fmt.Sprintf("%x", thumbprint)
	private.Set(jwk.KeyIDKey, keyID)
	public.Set(jwk.KeyIDKey, keyID)

	rotateAt := now.Add(s.rotationPeriod)

	logrus.WithField("key", logrus.Fields{
		jwk.KeyIDKey: keyID,
		"rotateAt":   rotateAt,
	}).Info("signing key generated")

	return &signingKey{
		private:  private,
		public:   public,
		rotateAt: rotateAt,
	}, nil
}
