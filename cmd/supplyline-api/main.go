package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"supplyline/internal/api"
	"supplyline/internal/api/handler"
	"supplyline/internal/config"
	"supplyline/internal/llm"
	"supplyline/internal/store"
	"supplyline/pkg/router"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	if err := store.InitDB(cfg.DBPath); err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to open database")
	}

	handler.Init(cfg, &llm.OpenAICaller{BaseURL: cfg.OpenAIBaseURL})

	r := router.New()
	api.RegisterRoutes(r)
	r.Start(cfg.ListenAddr)
}
