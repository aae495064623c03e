package config_test

import (
	"errors"
	"testing"

	"github.com/MrWong99/protokoll/internal/config"
	"github.com/MrWong99/protokoll/pkg/provider/embeddings"
	embmock "github.com/MrWong99/protokoll/pkg/provider/embeddings/mock"
	"github.com/MrWong99/protokoll/pkg/provider/llm"
	llmmock "github.com/MrWong99/protokoll/pkg/provider/llm/mock"
	"github.com/MrWong99/protokoll/pkg/provider/stt"
	sttmock "github.com/MrWong99/protokoll/pkg/provider/stt/mock"
)

func TestLogLevelIsValid(t *testing.T) {
	t.Parallel()
	valid := []config.LogLevel{config.LogDebug, config.LogInfo, config.LogWarn, config.LogError}
	for _, l := range valid {
		if !l.IsValid() {
			t.Errorf("%q should be valid", l)
		}
	}
	if config.LogLevel("verbose").IsValid() {
		t.Error("\"verbose\" should not be valid")
	}
	if config.LogLevel("").IsValid() {
		t.Error("empty log level should not be valid")
	}
}

func TestRegistryCreateSTT(t *testing.T) {
	t.Parallel()
	r := config.NewRegistry()
	r.RegisterSTT("mock", func(entry config.ProviderEntry) (stt.Provider, error) {
		return &sttmock.Provider{}, nil
	})

	p, err := r.CreateSTT(config.ProviderEntry{Name: "mock"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p == nil {
		t.Fatal("expected provider, got nil")
	}
}

func TestRegistryCreateLLM(t *testing.T) {
	t.Parallel()
	r := config.NewRegistry()
	r.RegisterLLM("mock", func(entry config.ProviderEntry) (llm.Provider, error) {
		return &llmmock.Provider{}, nil
	})

	if _, err := r.CreateLLM(config.ProviderEntry{Name: "mock"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRegistryCreateEmbeddings(t *testing.T) {
	t.Parallel()
	r := config.NewRegistry()
	r.RegisterEmbeddings("mock", func(entry config.ProviderEntry) (embeddings.Provider, error) {
		return &embmock.Provider{}, nil
	})

	if _, err := r.CreateEmbeddings(config.ProviderEntry{Name: "mock"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRegistryUnregisteredProvider(t *testing.T) {
	t.Parallel()
	r := config.NewRegistry()

	_, err := r.CreateSTT(config.ProviderEntry{Name: "ghost"})
	if !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Fatalf("expected ErrProviderNotRegistered, got %v", err)
	}
	_, err = r.CreateLLM(config.ProviderEntry{Name: "ghost"})
	if !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Fatalf("expected ErrProviderNotRegistered, got %v", err)
	}
	_, err = r.CreateEmbeddings(config.ProviderEntry{Name: "ghost"})
	if !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Fatalf("expected ErrProviderNotRegistered, got %v", err)
	}
}

func TestRegistryFactoryReceivesEntry(t *testing.T) {
	t.Parallel()
	r := config.NewRegistry()

	var got config.ProviderEntry
	r.RegisterSTT("whisper", func(entry config.ProviderEntry) (stt.Provider, error) {
		got = entry
		return &sttmock.Provider{}, nil
	})

	entry := config.ProviderEntry{
		Name:    "whisper",
		APIKey:  "sk-test",
		BaseURL: "https://example.test/v1",
		Model:   "whisper-1",
	}
	if _, err := r.CreateSTT(entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != entry.Name || got.APIKey != entry.APIKey || got.BaseURL != entry.BaseURL || got.Model != entry.Model {
		t.Errorf("factory received %+v, want %+v", got, entry)
	}
}

func TestRegistryOverwrite(t *testing.T) {
	t.Parallel()
	r := config.NewRegistry()

	first := &sttmock.Provider{}
	second := &sttmock.Provider{}
	r.RegisterSTT("whisper", func(config.ProviderEntry) (stt.Provider, error) { return first, nil })
	r.RegisterSTT("whisper", func(config.ProviderEntry) (stt.Provider, error) { return second, nil })

	p, err := r.CreateSTT(config.ProviderEntry{Name: "whisper"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != second {
		t.Error("later registration should win")
	}
}
