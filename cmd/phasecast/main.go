package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"phasecast/internal/api"
	"phasecast/internal/cfg"
	"phasecast/internal/metrics"
	"phasecast/internal/ml"
	"phasecast/internal/pairs"
)

func main() {
	_ = godotenv.Load()
	setupLogging()

	c, err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	m := metrics.New()

	// The model is loaded once per process and treated as immutable;
	// scoring cannot proceed without it.
	model, err := ml.Load(c.ModelPath)
	if err != nil {
		log.Fatal().Err(err).Str("model_path", c.ModelPath).Msg("model load failed")
	}
	m.ModelAge.Set(time.Since(model.TrainedAt).Seconds())
	m.TrainingSamples.Set(float64(model.TrainingSamples))

	// The historical dataset backs the dashboard endpoints; the
	// scoring contract works without it.
	dataset, err := pairs.ReadCSV(c.PairsPath)
	if err != nil {
		log.Warn().Err(err).Str("pairs_path", c.PairsPath).Msg("pair dataset unavailable, dashboard endpoints will be empty")
		dataset = nil
	}
	m.DatasetPairs.Set(float64(len(dataset)))

	r := mux.NewRouter()
	api.NewHandler(model, dataset, m).RegisterRoutes(r)
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", c.ListenPort),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Int("port", c.ListenPort).Msg("scoring server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}

func setupLogging() {
	level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}
