package token

import (
	"time"

	"github.com/lestrrat-go/jwx/v3/jwk"
)

type signingKey struct {
	private  jwk.Key
	public   jwk.Key
	rotateAt time.Time
}

func (s *signingKey) signableAt(now time.Time) bool {
	return s != nil && !s.rotateAt.Before(now)
}

func (s *signingKey) verifiableAt(now time.Time, grace time.Duration) bool {
	return s != nil && !s.rotateAt.Add(grace).Before(now)
}
