package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "DATA_PATH", "REGISTRY_CSV", "PAIRS_PATH", "MODEL_PATH",
		"REGISTRY_BASE_URL", "REGISTRY_CONDITION", "REGISTRY_PAGE_SIZE",
		"REGISTRY_FETCH_LIMIT", "REST_TIMEOUT", "MAX_FEATURES", "MAX_ITER",
		"LEARNING_RATE", "L2_PENALTY", "TEST_FRACTION", "SPLIT_SEED", "LISTEN_PORT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_EnvDefaults(t *testing.T) {
	clearEnv(t)

	s, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if s.MaxFeatures != 5000 {
		t.Errorf("MaxFeatures = %d, want 5000", s.MaxFeatures)
	}
	if s.MaxIter != 500 {
		t.Errorf("MaxIter = %d, want 500", s.MaxIter)
	}
	if s.TestFraction != 0.2 {
		t.Errorf("TestFraction = %f, want 0.2", s.TestFraction)
	}
	if s.Seed != 42 {
		t.Errorf("Seed = %d, want 42", s.Seed)
	}
	if s.RESTTimeout != 30*time.Second {
		t.Errorf("RESTTimeout = %v, want 30s", s.RESTTimeout)
	}
	if s.ListenPort != 8080 {
		t.Errorf("ListenPort = %d, want 8080", s.ListenPort)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_FEATURES", "2000")
	t.Setenv("MODEL_PATH", "custom.bin")
	t.Setenv("LISTEN_PORT", "9000")

	s, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.MaxFeatures != 2000 || s.ModelPath != "custom.bin" || s.ListenPort != 9000 {
		t.Errorf("env overrides not applied: %+v", s)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)

	config := `
registry:
  baseURL: https://example.org/api/v2
  condition: cancer
  pageSize: 500
  restTimeout: 45s
data:
  dataPath: /tmp/phasecast
  pairsPath: /tmp/pairs.csv
model:
  modelPath: /tmp/model.bin
  maxFeatures: 3000
  maxIter: 200
  testFraction: 0.1
server:
  listenPort: 9090
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(config), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)

	s, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.RegistryBaseURL != "https://example.org/api/v2" {
		t.Errorf("RegistryBaseURL = %q", s.RegistryBaseURL)
	}
	if s.PageSize != 500 || s.MaxFeatures != 3000 || s.MaxIter != 200 || s.ListenPort != 9090 {
		t.Errorf("yaml values not applied: %+v", s)
	}
	if s.RESTTimeout != 45*time.Second {
		t.Errorf("RESTTimeout = %v, want 45s", s.RESTTimeout)
	}
	// Unset yaml values fall back to defaults.
	if s.LearningRate != 0.5 {
		t.Errorf("LearningRate = %f, want default 0.5", s.LearningRate)
	}
}

func TestLoad_YAMLWithEnvOverride(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("model:\n  maxFeatures: 3000\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("MAX_FEATURES", "1234")

	s, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.MaxFeatures != 1234 {
		t.Errorf("env should override yaml, got %d", s.MaxFeatures)
	}
}

func TestValidateSettings(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"zero max features", func(s *Settings) { s.MaxFeatures = 0 }},
		{"negative l2", func(s *Settings) { s.L2Penalty = -1 }},
		{"test fraction one", func(s *Settings) { s.TestFraction = 1 }},
		{"bad port", func(s *Settings) { s.ListenPort = 80 }},
		{"bad timeout", func(s *Settings) { s.RESTTimeout = time.Millisecond }},
		{"page size too big", func(s *Settings) { s.PageSize = 5000 }},
		{"empty model path", func(s *Settings) { s.ModelPath = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			s, err := Load()
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			tc.mutate(&s)
			if err := validateSettings(&s); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
