package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/neuralign-labs/neuralign/internal/config"
	"github.com/neuralign-labs/neuralign/internal/scoreapi"
	"github.com/neuralign-labs/neuralign/internal/utils/logger"
)

func main() {
	logger.Init()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := scoreapi.NewServer(cfg)
	log.Info().Str("address", cfg.Address).Int("port", cfg.Port).Msg("starting evaluation service")
	if err := server.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}
