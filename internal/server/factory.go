package server

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/plumeworks/authgate/internal/config"
	"github.com/plumeworks/authgate/internal/provider"
	"github.com/plumeworks/authgate/internal/state"
	"github.com/plumeworks/authgate/internal/token"
)

// New wires the token issuer, state store and API into an http.Server.
// The janitor goroutine stops when ctx is canceled.
func New(ctx context.Context, conf *config.Config, providers map[string]provider.Interface) *http.Server {
	iss := token.New(conf.Token.Lifetime.Std())
	st := newStateStore(conf)
	go state.RunJanitor(ctx, st, conf.State.SweepInterval.Std())
	api := newAPI(iss, providers, conf, st, time.Now)
	return newServer(conf, api, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

func newStateStore(conf *config.Config) state.Store[LoginState] {
	ttl := conf.State.TTL.Std()
	if addr := conf.State.Redis.Addr; addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: conf.State.Redis.Password,
			DB:       conf.State.Redis.DB,
		})
		return state.NewRedisStore[LoginState](client, ttl)
	}
	return state.NewMemoryStore[LoginState](ttl)
}
