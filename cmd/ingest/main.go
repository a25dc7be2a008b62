package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"phasecast/internal/cfg"
	"phasecast/internal/registry"
	"phasecast/internal/storage"
)

func main() {
	var (
		condition = flag.String("condition", "", "Registry condition query (overrides config)")
		limit     = flag.Int("limit", 0, "Maximum studies to fetch, 0 for all (overrides config)")
		csvOut    = flag.String("csv", "", "Also export the snapshot as a registry CSV")
		logLevel  = flag.String("log-level", "info", "Log level: debug, info, warn, error")
	)
	flag.Parse()

	_ = godotenv.Load()
	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	if *condition != "" {
		c.RegistryCondition = *condition
	}
	if *limit > 0 {
		c.FetchLimit = *limit
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := registry.NewClient(c.RegistryBaseURL, c.RESTTimeout)
	studies, err := client.FetchStudies(ctx, c.RegistryCondition, c.PageSize, c.FetchLimit)
	if err != nil {
		log.Fatal().Err(err).Msg("study fetch failed")
	}

	if err := os.MkdirAll(c.DataPath, 0o750); err != nil {
		log.Fatal().Err(err).Str("data_path", c.DataPath).Msg("data directory create failed")
	}

	store, err := storage.New(c.DataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("storage open failed")
	}
	defer store.Close()

	if err := store.PutStudies(studies); err != nil {
		log.Fatal().Err(err).Msg("study store failed")
	}

	if *csvOut != "" {
		if err := registry.WriteCSV(*csvOut, studies); err != nil {
			log.Fatal().Err(err).Msg("registry export failed")
		}
	}

	total, err := store.Count()
	if err != nil {
		log.Fatal().Err(err).Msg("store count failed")
	}
	log.Info().Int("fetched", len(studies)).Int("stored", total).Msg("ingest complete")
}
