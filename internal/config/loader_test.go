package config_test

import (
	"strings"
	"testing"

	"github.com/MrWong99/protokoll/internal/config"
)

const minimalYAML = `
providers:
  stt:
    name: whisper
    base_url: "https://api.lemonfox.ai/v1"
storage:
  postgres_dsn: "postgres://localhost/protokoll"
`

func TestLoadFromReader_Minimal(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader(minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Providers.STT.Name != "whisper" {
		t.Errorf("stt name: got %q, want whisper", cfg.Providers.STT.Name)
	}
}

func TestLoadFromReader_Defaults(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader(minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("listen_addr default: got %q, want :8080", cfg.Server.ListenAddr)
	}
	if cfg.Templates.Dir != "templates" {
		t.Errorf("templates.dir default: got %q, want templates", cfg.Templates.Dir)
	}
	if cfg.Capture.ChunkSeconds != 3 || cfg.Capture.WindowChunks != 3 {
		t.Errorf("capture defaults: got %+v, want 3s chunks × 3", cfg.Capture)
	}
}

func TestLoadFromReader_EmbeddingDimensionsDefault(t *testing.T) {
	t.Parallel()
	yaml := `
providers:
  stt:
    name: whisper
  embeddings:
    name: openai
    api_key: sk-test
storage:
  postgres_dsn: "postgres://localhost/protokoll"
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.EmbeddingDimensions != 1536 {
		t.Errorf("embedding_dimensions default: got %d, want 1536", cfg.Storage.EmbeddingDimensions)
	}
}

func TestLoadFromReader_UnknownFieldRejected(t *testing.T) {
	t.Parallel()
	yaml := minimalYAML + `
unknown_top_level: true
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

func TestValidate_MissingSTT(t *testing.T) {
	t.Parallel()
	yaml := `
storage:
  postgres_dsn: "postgres://localhost/protokoll"
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for missing STT provider, got nil")
	}
	if !strings.Contains(err.Error(), "providers.stt") {
		t.Errorf("error should mention providers.stt, got: %v", err)
	}
}

func TestValidate_MissingDSN(t *testing.T) {
	t.Parallel()
	yaml := `
providers:
  stt:
    name: whisper
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for missing postgres_dsn, got nil")
	}
	if !strings.Contains(err.Error(), "postgres_dsn") {
		t.Errorf("error should mention postgres_dsn, got: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: bananas
providers:
  stt:
    name: whisper
storage:
  postgres_dsn: "postgres://localhost/protokoll"
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for invalid log level, got nil")
	}
	if !strings.Contains(err.Error(), "log_level") {
		t.Errorf("error should mention log_level, got: %v", err)
	}
}

func TestValidate_IncompleteTLS(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  tls:
    cert_file: /etc/tls/cert.pem
providers:
  stt:
    name: whisper
storage:
  postgres_dsn: "postgres://localhost/protokoll"
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for TLS without key_file, got nil")
	}
	if !strings.Contains(err.Error(), "key_file") {
		t.Errorf("error should mention key_file, got: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: nope
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected errors, got nil")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "log_level") || !strings.Contains(errStr, "providers.stt") {
		t.Errorf("joined error should list every failure, got: %v", err)
	}
}

func TestValidProviderNames(t *testing.T) {
	t.Parallel()
	if len(config.ValidProviderNames) == 0 {
		t.Fatal("ValidProviderNames should not be empty")
	}
	found := false
	for _, n := range config.ValidProviderNames["llm"] {
		if n == "deepseek" {
			found = true
			break
		}
	}
	if !found {
		t.Error("ValidProviderNames[\"llm\"] should contain \"deepseek\"")
	}
}
