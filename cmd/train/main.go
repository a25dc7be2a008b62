package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"phasecast/internal/cfg"
	"phasecast/internal/ml"
	"phasecast/internal/pairs"
	"phasecast/internal/registry"
	"phasecast/internal/storage"
)

func main() {
	var (
		registryCSV  = flag.String("registry", "", "Registry export CSV (overrides config)")
		fromStore    = flag.Bool("from-store", false, "Read studies from the BoltDB snapshot instead of CSV")
		pairsPath    = flag.String("pairs", "", "Output path for the pair dataset (overrides config)")
		modelPath    = flag.String("model", "", "Output path for the model artifact (overrides config)")
		maxFeatures  = flag.Int("max-features", 0, "Vocabulary bound (overrides config)")
		maxIter      = flag.Int("max-iter", 0, "Optimizer iteration cap (overrides config)")
		testFraction = flag.Float64("test-fraction", -1, "Held-out fraction (overrides config)")
		topFeatures  = flag.Int("top-features", 20, "Strongest coefficients to print per direction")
		logLevel     = flag.String("log-level", "info", "Log level: debug, info, warn, error")
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
	if *registryCSV != "" {
		c.RegistryCSV = *registryCSV
	}
	if *pairsPath != "" {
		c.PairsPath = *pairsPath
	}
	if *modelPath != "" {
		c.ModelPath = *modelPath
	}
	if *maxFeatures > 0 {
		c.MaxFeatures = *maxFeatures
	}
	if *maxIter > 0 {
		c.MaxIter = *maxIter
	}
	if *testFraction >= 0 {
		c.TestFraction = *testFraction
	}

	studies, err := loadStudies(c, *fromStore)
	if err != nil {
		log.Fatal().Err(err).Msg("study load failed")
	}

	ps := pairs.Build(studies)
	if err := pairs.WriteCSV(c.PairsPath, ps); err != nil {
		log.Fatal().Err(err).Msg("pair dataset write failed")
	}

	model, eval, err := ml.Train(ps, ml.TrainConfig{
		MaxFeatures:  c.MaxFeatures,
		MaxIter:      c.MaxIter,
		LearningRate: c.LearningRate,
		L2Penalty:    c.L2Penalty,
		TestFraction: c.TestFraction,
		Seed:         c.Seed,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("training failed")
	}

	if err := model.Save(c.ModelPath); err != nil {
		log.Fatal().Err(err).Msg("model save failed")
	}

	fmt.Println("=== Training Results ===")
	fmt.Printf("Pairs:          %d\n", len(ps))
	fmt.Printf("Training rows:  %d\n", model.TrainingSamples)
	fmt.Printf("Feature dim:    %d\n", model.Pipeline.Dim())
	if eval.Samples > 0 {
		fmt.Printf("Accuracy:       %.3f\n", eval.Accuracy)
		fmt.Printf("ROC-AUC:        %.3f\n", eval.AUC)
	}
	fmt.Printf("Model artifact: %s\n", c.ModelPath)

	if *topFeatures > 0 {
		pos, neg := model.FeatureImportance(*topFeatures)
		fmt.Println("\n=== Top Positive Features (predict success) ===")
		for _, fw := range pos {
			fmt.Printf("%-25s %.4f\n", fw.Name, fw.Weight)
		}
		fmt.Println("\n=== Top Negative Features (predict failure) ===")
		for _, fw := range neg {
			fmt.Printf("%-25s %.4f\n", fw.Name, fw.Weight)
		}
	}
}

func loadStudies(c cfg.Settings, fromStore bool) ([]registry.Study, error) {
	if !fromStore {
		return registry.LoadCSV(c.RegistryCSV)
	}

	store, err := storage.New(c.DataPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	return store.AllStudies()
}
