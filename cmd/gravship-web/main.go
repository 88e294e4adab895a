package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tomz197/gravship/internal/asset"
	"github.com/tomz197/gravship/internal/config"
	"github.com/tomz197/gravship/internal/hub"
	"github.com/tomz197/gravship/internal/web"
)

const (
	defaultHost = "0.0.0.0"
	defaultPort = "8080"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "gravship-web",
	})
	if config.GetEnv("GRAVSHIP_DEBUG", "") != "" {
		logger.SetLevel(log.DebugLevel)
	}

	host := config.GetEnv("WEB_HOST", defaultHost)
	port := config.GetEnv("WEB_PORT", defaultPort)
	fps := config.GetEnvInt("GRAVSHIP_FPS", config.WebFrameRate)
	if fps <= 0 {
		fps = config.WebFrameRate
	}

	sprites := asset.NewStore()
	if err := sprites.Load(context.Background(), asset.Default()); err != nil {
		logger.Fatal("failed to load sprites", "err", err)
	}

	players := hub.New(logger)
	srv := &http.Server{
		Addr: net.JoinHostPort(host, port),
		Handler: web.NewServer(sprites, players, web.Options{
			FrameInterval: time.Second / time.Duration(fps),
			WallInterval:  config.GetEnvInt("GRAVSHIP_WALLS", config.WallInterval),
			Logger:        logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("starting web server", "url", "http://"+srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", "err", err)
		}
	}()

	<-done
	logger.Info("shutting down server")
	players.Shutdown(config.ShutdownTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("shutdown error", "err", err)
	}
}
