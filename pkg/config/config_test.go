package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	t.Run("loads from JSON file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.json")

		testConfig := Config{
			Server: ServerConfig{
				Port: "9090",
			},
			Database: DatabaseConfig{
				Path: "/tmp/test.db",
			},
			APIs: APIConfig{
				Ticketmaster: TicketmasterConfig{
					APIKey: "tm-key",
				},
			},
		}

		data, _ := json.Marshal(testConfig)
		if err := os.WriteFile(configPath, data, 0644); err != nil {
			t.Fatal(err)
		}

		config, err := Load(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Server.Port != "9090" {
			t.Errorf("expected port 9090, got %s", config.Server.Port)
		}
		if config.Database.Path != "/tmp/test.db" {
			t.Errorf("expected database path /tmp/test.db, got %s", config.Database.Path)
		}
		if config.APIs.Ticketmaster.APIKey != "tm-key" {
			t.Errorf("expected ticketmaster key tm-key, got %s", config.APIs.Ticketmaster.APIKey)
		}
	})

	t.Run("loads from YAML file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.yaml")

		yamlConfig := `server:
  port: "7171"
apis:
  places:
    api_key: places-key
engine:
  visited_history_size: 4
`
		if err := os.WriteFile(configPath, []byte(yamlConfig), 0644); err != nil {
			t.Fatal(err)
		}

		config, err := Load(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Server.Port != "7171" {
			t.Errorf("expected port 7171, got %s", config.Server.Port)
		}
		if config.APIs.Places.APIKey != "places-key" {
			t.Errorf("expected places key, got %s", config.APIs.Places.APIKey)
		}
		if config.Engine.VisitedHistorySize != 4 {
			t.Errorf("expected history size 4, got %d", config.Engine.VisitedHistorySize)
		}
	})

	t.Run("applies defaults", func(t *testing.T) {
		config, err := Load("")
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Server.Port != "8080" {
			t.Errorf("expected default port 8080, got %s", config.Server.Port)
		}
		if config.Server.ReadTimeout != 30 {
			t.Errorf("expected default read timeout 30, got %d", config.Server.ReadTimeout)
		}
		if config.Database.Path != "out-and-about.db" {
			t.Errorf("expected default database path, got %s", config.Database.Path)
		}
		if config.Engine.VisitedHistorySize != 10 {
			t.Errorf("expected default history size 10, got %d", config.Engine.VisitedHistorySize)
		}
		if config.Engine.SimilarLimit != 6 {
			t.Errorf("expected default similar limit 6, got %d", config.Engine.SimilarLimit)
		}
		if config.Engine.DetailCacheSize != 128 {
			t.Errorf("expected default detail cache size 128, got %d", config.Engine.DetailCacheSize)
		}
	})

	t.Run("environment overrides", func(t *testing.T) {
		os.Setenv("OAA_SERVER_PORT", "7070")
		os.Setenv("OAA_DATABASE_PATH", "/data/env.db")
		os.Setenv("OAA_APIS_TICKETMASTER_API_KEY", "env-tm-key")
		os.Setenv("OAA_ENGINE_SIMILAR_LIMIT", "3")
		defer func() {
			os.Unsetenv("OAA_SERVER_PORT")
			os.Unsetenv("OAA_DATABASE_PATH")
			os.Unsetenv("OAA_APIS_TICKETMASTER_API_KEY")
			os.Unsetenv("OAA_ENGINE_SIMILAR_LIMIT")
		}()

		config, err := Load("")
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Server.Port != "7070" {
			t.Errorf("expected env port 7070, got %s", config.Server.Port)
		}
		if config.Database.Path != "/data/env.db" {
			t.Errorf("expected env database path, got %s", config.Database.Path)
		}
		if config.APIs.Ticketmaster.APIKey != "env-tm-key" {
			t.Errorf("expected env ticketmaster key, got %s", config.APIs.Ticketmaster.APIKey)
		}
		if config.Engine.SimilarLimit != 3 {
			t.Errorf("expected env similar limit 3, got %d", config.Engine.SimilarLimit)
		}
	})

	t.Run("handles missing file", func(t *testing.T) {
		config, err := Load("/non/existent/path.json")
		if err != nil {
			t.Fatalf("should not error on missing file: %v", err)
		}

		if config.Server.Port != "8080" {
			t.Errorf("expected default port 8080, got %s", config.Server.Port)
		}
	})

	t.Run("malformed file", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.json")
		if err := os.WriteFile(configPath, []byte("{not json"), 0644); err != nil {
			t.Fatal(err)
		}

		if _, err := Load(configPath); err == nil {
			t.Error("expected error for malformed config")
		}
	})
}

func TestConfig_Validate(t *testing.T) {
	t.Run("defaults are valid", func(t *testing.T) {
		config, err := Load("")
		if err != nil {
			t.Fatal(err)
		}
		if err := config.Validate(); err != nil {
			t.Errorf("expected valid config, got error: %v", err)
		}
	})

	t.Run("missing database path", func(t *testing.T) {
		config := &Config{}
		if err := config.Validate(); err == nil {
			t.Error("expected validation error for missing database path")
		}
	})

	t.Run("negative engine bounds", func(t *testing.T) {
		config := &Config{
			Database: DatabaseConfig{Path: "test.db"},
			Engine:   EngineConfig{VisitedHistorySize: -1},
		}
		if err := config.Validate(); err == nil {
			t.Error("expected validation error for negative history size")
		}
	})
}

func TestApplyDefaults(t *testing.T) {
	config := &Config{}
	applyDefaults(config)

	if config.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", config.Server.Port)
	}
	if config.Server.WriteTimeout != 30 {
		t.Errorf("expected default write timeout 30, got %d", config.Server.WriteTimeout)
	}
	if config.Engine.SimilarRadiusKm != 5 {
		t.Errorf("expected default similar radius 5, got %f", config.Engine.SimilarRadiusKm)
	}
}
