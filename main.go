package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/plumeworks/authgate/internal/config"
	"github.com/plumeworks/authgate/internal/logging"
	"github.com/plumeworks/authgate/internal/provider/factory"
	"github.com/plumeworks/authgate/internal/server"
)

func main() {
	if err := logging.LoadLevel(); err != nil {
		logrus.WithError(err).Warn("failed to load log level")
	}

	conf, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	providers, err := factory.NewAll(conf)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create providers")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(ctx, conf, providers)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Error("failed to shut down server")
		}
	}()

	logrus.WithField("addr", conf.Server.Addr).Info("server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logrus.WithError(err).Fatal("server error")
	}
}
