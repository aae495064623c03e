// Package whisper provides an stt.Provider backed by any OpenAI-compatible
// audio transcription endpoint (whisper-server with the OpenAI shim,
// LemonFox.ai, or api.openai.com itself).
//
// Requests are sent as multipart/form-data to POST {baseURL}/audio/
// transcriptions with response_format=verbose_json so that the engine
// returns segment-level timestamps alongside the full text. Engines that
// ignore verbose_json and return plain text still parse: Segments is simply
// left empty.
//
// Usage:
//
//	p, err := whisper.New("https://api.lemonfox.ai/v1", apiKey,
//	    whisper.WithModel("whisper-1"),
//	    whisper.WithTimeout(10*time.Minute),
//	)
//	res, err := p.Transcribe(ctx, stt.Request{Audio: wav, Filename: "audio.wav"})
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/MrWong99/protokoll/pkg/provider/stt"
)

const (
	defaultModel   = "whisper-1"
	defaultTimeout = 10 * time.Minute
)

// Compile-time assertion that Provider implements stt.Provider.
var _ stt.Provider = (*Provider)(nil)

// Option is a functional option for configuring a Provider.
type Option func(*Provider)

// WithModel sets the model identifier sent to the engine (e.g. "whisper-1",
// "base.en"). Defaults to "whisper-1".
func WithModel(model string) Option {
	return func(p *Provider) {
		p.model = model
	}
}

// WithTimeout sets the per-request HTTP timeout. Batch transcription of
// long recordings needs a large budget; live-window callers should pass a
// short ctx deadline instead of lowering this. Defaults to 10 minutes.
func WithTimeout(d time.Duration) Option {
	return func(p *Provider) {
		p.httpClient.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client entirely. Mainly
// useful in tests with httptest servers.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = c
	}
}

// Provider implements stt.Provider against an OpenAI-compatible
// transcription endpoint. Safe for concurrent use.
type Provider struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// New creates a Provider that posts to baseURL+"/audio/transcriptions".
// baseURL must be non-empty (e.g. "https://api.lemonfox.ai/v1"). apiKey may
// be empty for local engines that do not authenticate.
func New(baseURL, apiKey string, opts ...Option) (*Provider, error) {
	if baseURL == "" {
		return nil, errors.New("whisper: baseURL must not be empty")
	}
	p := &Provider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      defaultModel,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// verboseResponse mirrors the OpenAI verbose_json transcription schema.
// Engines that return the plain schema still decode — segments stay nil.
type verboseResponse struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// Transcribe implements stt.Provider.
func (p *Provider) Transcribe(ctx context.Context, req stt.Request) (*stt.Result, error) {
	if len(req.Audio) == 0 {
		return nil, errors.New("whisper: empty audio")
	}

	filename := req.Filename
	if filename == "" || !strings.Contains(filename, ".") {
		filename = "audio.wav"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("whisper: create form file: %w", err)
	}
	if _, err := fw.Write(req.Audio); err != nil {
		return nil, fmt.Errorf("whisper: write audio data: %w", err)
	}
	if err := mw.WriteField("model", p.model); err != nil {
		return nil, fmt.Errorf("whisper: write model field: %w", err)
	}
	if err := mw.WriteField("response_format", "verbose_json"); err != nil {
		return nil, fmt.Errorf("whisper: write response_format field: %w", err)
	}
	if req.Language != "" {
		if err := mw.WriteField("language", req.Language); err != nil {
			return nil, fmt.Errorf("whisper: write language field: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("whisper: close multipart writer: %w", err)
	}

	endpoint := p.baseURL + "/audio/transcriptions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("whisper: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("whisper: http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("whisper: read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("whisper: server returned HTTP %d: %s", resp.StatusCode, truncate(data, 200))
	}

	var vr verboseResponse
	if err := json.Unmarshal(data, &vr); err != nil {
		return nil, fmt.Errorf("whisper: parse JSON response: %w", err)
	}
	if strings.TrimSpace(vr.Text) == "" {
		return nil, stt.ErrNoText
	}

	result := &stt.Result{
		Text:     strings.TrimSpace(vr.Text),
		Language: vr.Language,
		Duration: vr.Duration,
	}
	for _, seg := range vr.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		result.Segments = append(result.Segments, stt.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  text,
		})
	}
	return result, nil
}

// truncate clips b to at most n bytes for error messages.
func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "…"
}
