package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rakesh1308/screenapp-mcp-server/internal/mcp"
	"github.com/rakesh1308/screenapp-mcp-server/internal/screenapp"
	"github.com/rakesh1308/screenapp-mcp-server/internal/server"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := screenapp.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	// Refuse to serve without the credential rather than fail every call.
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	client := screenapp.NewClient(cfg)
	registry := mcp.NewRegistry()
	if err := mcp.NewToolset(client).Register(registry); err != nil {
		log.Fatal().Err(err).Msg("Failed to register tools")
	}
	dispatcher := mcp.NewDispatcher(registry)
	srv := server.New(cfg, dispatcher)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv.Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().
			Str("addr", httpServer.Addr).
			Str("screenapp_url", cfg.BaseURL).
			Int("tools", len(registry.List())).
			Msg("Starting ScreenApp MCP server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown failed")
	}
}
