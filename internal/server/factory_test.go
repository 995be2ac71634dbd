package server

import (
	"context"
	"testing"

	. "github.com/onsi/gomega"

	"github.com/plumeworks/authgate/internal/state"
)

func TestNew(t *testing.T) {
	g := NewWithT(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conf := newTestConfig(g, t.TempDir())
	s := New(ctx, conf, nil)

	g.Expect(s).NotTo(BeNil())
	g.Expect(s.Addr).To(Equal(conf.Server.Addr))
}

func TestNewStateStore(t *testing.T) {
	g := NewWithT(t)

	conf := newTestConfig(g, t.TempDir())
	_, ok := newStateStore(conf).(*state.MemoryStore[LoginState])
	g.Expect(ok).To(BeTrue())

	conf.State.Redis.Addr = "localhost:6379"
	_, ok = newStateStore(conf).(*state.RedisStore[LoginState])
	g.Expect(ok).To(BeTrue())
}
