package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/danielhkuo/hirevote/auth"
	"github.com/danielhkuo/hirevote/cliparse"
	"github.com/danielhkuo/hirevote/metrics"
	"github.com/danielhkuo/hirevote/middleware"
	"github.com/danielhkuo/hirevote/router"
	"github.com/danielhkuo/hirevote/store/backend"
	"github.com/danielhkuo/hirevote/voting"
)

func main() {
	var err error

	// .env is optional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env", "error", err)
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	// Open storage and create schema
	st, err := backend.FromConfig(context.Background(), cfg)
	if err != nil {
		slog.Error("storage setup failed", "type", cfg.DatabaseType, "error", err)
		os.Exit(1)
	}
	defer st.Close()
	slog.Info("Storage ready", "type", cfg.DatabaseType)

	salt := cfg.EmailSalt
	if salt == "" {
		if salt, err = auth.GenerateSecret(); err != nil {
			slog.Error("failed to generate email salt", "error", err)
			os.Exit(1)
		}
		slog.Warn("EMAIL_SALT not set; voter hashes in logs will change on restart")
	}

	m := metrics.New()
	svc := voting.New(st,
		voting.WithLogger(logger),
		voting.WithMetrics(m),
		voting.WithEmailSalt(salt),
	)

	// Create router
	mux := router.NewRouter(svc, cfg, m)

	// Create server
	server := http.Server{
		Handler: middleware.CORS(cfg.AllowedOrigins, mux),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		server.Close()
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}
