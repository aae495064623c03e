package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/MrWong99/protokoll/internal/meeting"
	"github.com/MrWong99/protokoll/internal/observe"
	"github.com/MrWong99/protokoll/internal/transcribe"
	"github.com/MrWong99/protokoll/pkg/provider/llm"
)

var (
	// ErrNoTranscripts rejects generation requests for meetings that have no
	// transcript segments yet.
	ErrNoTranscripts = errors.New("summary: no transcripts available")

	// ErrNoCanonicalSummary rejects translate-only requests when nothing in
	// the compatibility chain exists to translate.
	ErrNoCanonicalSummary = errors.New("summary: no canonical summary to translate")
)

// setResultAttempts bounds the optimistic-concurrency retry loop. The
// per-meeting mutex serializes in-process writers; conflicts only occur
// against other processes sharing the database.
const setResultAttempts = 5

// Pipeline orchestrates summary generation: always draft in the canonical
// language, store under the template key, translate on demand under the
// "templateID_lang" key. One record per meeting; every read-modify-write of
// the variant mapping holds that meeting's lock and writes through the
// store's version check.
type Pipeline struct {
	llm       llm.Provider
	summaries meeting.SummaryStore
	segments  meeting.SegmentStore
	templates *Loader
	logger    *slog.Logger
	metrics   *observe.Metrics

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewPipeline creates a Pipeline. logger may be nil, in which case
// slog.Default is used.
func NewPipeline(provider llm.Provider, summaries meeting.SummaryStore, segments meeting.SegmentStore, templates *Loader, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		llm:       provider,
		summaries: summaries,
		segments:  segments,
		templates: templates,
		logger:    logger,
		metrics:   observe.DefaultMetrics(),
		locks:     make(map[string]*sync.Mutex),
	}
}

// meetingLock returns the mutex serializing variant writes for a meeting.
func (p *Pipeline) meetingLock(meetingID string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.locks[meetingID]
	if !ok {
		l = &sync.Mutex{}
		p.locks[meetingID] = l
	}
	return l
}

// GenerateRequest describes one summary generation request.
type GenerateRequest struct {
	MeetingID string

	// TemplateID selects the summary template. The sentinel NoTemplateID
	// always means no custom scaffolding regardless of UseTemplate.
	TemplateID string

	// ContextPrompt is optional organizer-supplied background.
	ContextPrompt string

	// OutputLanguage is the language the caller wants to read. The draft is
	// always generated in CanonicalLanguage first; a differing
	// OutputLanguage triggers a best-effort translation.
	OutputLanguage string

	// UseTemplate enables template scaffolding. Forced off for NoTemplateID.
	UseTemplate bool
}

// Generate starts a summary generation. It validates that transcripts
// exist, writes the record with status processing, and returns it
// immediately; drafting and translation happen in a background goroutine.
// Callers poll the record until status leaves processing, ignoring updates
// whose TemplateID is not the one they requested.
func (p *Pipeline) Generate(ctx context.Context, req GenerateRequest) (*meeting.SummaryRecord, error) {
	segs, err := p.segments.ListByMeeting(ctx, req.MeetingID)
	if err != nil {
		return nil, fmt.Errorf("summary: list transcripts: %w", err)
	}
	if len(segs) == 0 {
		return nil, ErrNoTranscripts
	}

	templateID := req.TemplateID
	if templateID == "" {
		templateID = NoTemplateID
	}
	useTemplate := req.UseTemplate && templateID != NoTemplateID

	var tpl *Template
	if useTemplate {
		tpl, err = p.templates.Load(templateID)
		if err != nil {
			// Degrade gracefully: a generically structured summary beats a
			// failed request.
			p.logger.Warn("template load failed, generating without template",
				"meeting_id", req.MeetingID,
				"template_id", templateID,
				"error", err,
			)
			tpl = nil
		}
	}

	rec, err := p.summaries.Upsert(ctx, meeting.SummaryRecord{
		MeetingID:     req.MeetingID,
		Status:        meeting.SummaryProcessing,
		TemplateID:    templateID,
		ContextPrompt: req.ContextPrompt,
	})
	if err != nil {
		return nil, fmt.Errorf("summary: create record: %w", err)
	}

	transcript := formatTranscript(segs)
	go p.runGeneration(context.WithoutCancel(ctx), req.MeetingID, templateID, tpl, req.ContextPrompt, req.OutputLanguage, transcript)

	return rec, nil
}

// runGeneration is the background half of Generate: canonical draft,
// best-effort translation, variant merge, final status.
func (p *Pipeline) runGeneration(ctx context.Context, meetingID, templateID string, tpl *Template, contextPrompt, outputLanguage, transcript string) {
	system, user := BuildDraftPrompt(transcript, tpl, contextPrompt)
	start := time.Now()
	resp, err := p.llm.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: system,
		Messages:     []llm.Message{{Role: "user", Content: user}},
		Temperature:  draftTemperature,
		MaxTokens:    draftMaxTokens,
	})
	p.metrics.ObserveLLM(ctx, "draft", time.Since(start), err)
	if err != nil {
		p.logger.Error("summary generation failed",
			"meeting_id", meetingID,
			"template_id", templateID,
			"error", err,
		)
		if ferr := p.summaries.SetFailed(ctx, meetingID, err.Error()); ferr != nil {
			p.logger.Error("failed to mark summary failed", "meeting_id", meetingID, "error", ferr)
		}
		p.metrics.RecordSummary(ctx, templateID, string(meeting.SummaryFailed))
		return
	}
	canonical := strings.TrimSpace(resp.Content)

	// Translation is best effort: a failure falls back to the canonical
	// text and never fails the request.
	var translated string
	if outputLanguage != "" && outputLanguage != CanonicalLanguage {
		translated, err = p.translateText(ctx, canonical, outputLanguage)
		if err != nil {
			p.logger.Warn("summary translation failed, serving canonical text",
				"meeting_id", meetingID,
				"template_id", templateID,
				"language", outputLanguage,
				"error", err,
			)
			translated = ""
		}
	}

	merge := func(payload Payload) {
		payload.Set(templateID, canonical)
		if translated != "" {
			payload.Set(TranslatedKey(templateID, outputLanguage), translated)
		}
	}
	if err := p.mergeVariants(ctx, meetingID, templateID, merge); err != nil {
		p.logger.Error("summary variant merge failed", "meeting_id", meetingID, "error", err)
		if ferr := p.summaries.SetFailed(ctx, meetingID, err.Error()); ferr != nil {
			p.logger.Error("failed to mark summary failed", "meeting_id", meetingID, "error", ferr)
		}
		p.metrics.RecordSummary(ctx, templateID, string(meeting.SummaryFailed))
		return
	}

	p.metrics.RecordSummary(ctx, templateID, string(meeting.SummaryCompleted))
	p.logger.Info("summary generated",
		"meeting_id", meetingID,
		"template_id", templateID,
		"translated", translated != "",
	)
}

// Translate synchronously translates an existing canonical summary into
// language and stores it under the "templateID_lang" key. The canonical
// text is resolved through the compatibility chain templateID → "default" →
// "standard"; ErrNoCanonicalSummary when nothing exists. Other variants are
// untouched.
func (p *Pipeline) Translate(ctx context.Context, meetingID, templateID, language string) (*Variant, error) {
	if templateID == "" {
		templateID = NoTemplateID
	}

	lock := p.meetingLock(meetingID)
	lock.Lock()
	defer lock.Unlock()

	rec, err := p.summaries.Get(ctx, meetingID)
	if err != nil {
		if errors.Is(err, meeting.ErrNotFound) {
			return nil, ErrNoCanonicalSummary
		}
		return nil, fmt.Errorf("summary: load record: %w", err)
	}

	payload := DecodePayload(rec.Result, rec.TemplateID)
	canonical, ok := payload.CanonicalForTranslation(templateID)
	if !ok {
		return nil, ErrNoCanonicalSummary
	}

	translated, err := p.translateText(ctx, canonical, language)
	if err != nil {
		return nil, fmt.Errorf("summary: translate: %w", err)
	}

	merge := func(payload Payload) {
		payload.Set(TranslatedKey(templateID, language), translated)
	}
	if err := p.mergeVariantsLocked(ctx, meetingID, rec.TemplateID, merge); err != nil {
		return nil, err
	}
	return &Variant{Text: translated, Source: SourceTranslated}, nil
}

// Get resolves a (template, language) variant for a meeting. Returns
// (nil, nil) when the meeting has no summary record or the template was
// never generated — callers use that to trigger auto-generation.
func (p *Pipeline) Get(ctx context.Context, meetingID, templateID, language string) (*Variant, error) {
	if templateID == "" {
		templateID = NoTemplateID
	}

	rec, err := p.summaries.Get(ctx, meetingID)
	if err != nil {
		if errors.Is(err, meeting.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("summary: load record: %w", err)
	}

	payload := DecodePayload(rec.Result, rec.TemplateID)
	return payload.Lookup(templateID, language), nil
}

// Record returns the raw summary record for status polling, or nil when
// none exists.
func (p *Pipeline) Record(ctx context.Context, meetingID string) (*meeting.SummaryRecord, error) {
	rec, err := p.summaries.Get(ctx, meetingID)
	if err != nil {
		if errors.Is(err, meeting.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

// Set overwrites one variant with user-edited text, bypassing generation.
// Legacy plain-text records are migrated first under the record's own
// template id, so an edit targeting a different template preserves the old
// text instead of clobbering it.
func (p *Pipeline) Set(ctx context.Context, meetingID, templateID, text string) (*Variant, error) {
	if templateID == "" {
		templateID = NoTemplateID
	}

	lock := p.meetingLock(meetingID)
	lock.Lock()
	defer lock.Unlock()

	rec, err := p.summaries.Get(ctx, meetingID)
	if err != nil {
		if !errors.Is(err, meeting.ErrNotFound) {
			return nil, fmt.Errorf("summary: load record: %w", err)
		}
		rec, err = p.summaries.Upsert(ctx, meeting.SummaryRecord{
			MeetingID:  meetingID,
			Status:     meeting.SummaryCompleted,
			TemplateID: templateID,
		})
		if err != nil {
			return nil, fmt.Errorf("summary: create record: %w", err)
		}
	}

	merge := func(payload Payload) {
		payload.Set(templateID, text)
	}
	if err := p.mergeVariantsLocked(ctx, meetingID, rec.TemplateID, merge); err != nil {
		return nil, err
	}
	return &Variant{Text: text, Source: SourceCanonical}, nil
}

// mergeVariants takes the meeting lock and merges.
func (p *Pipeline) mergeVariants(ctx context.Context, meetingID, activeTemplateID string, merge func(Payload)) error {
	lock := p.meetingLock(meetingID)
	lock.Lock()
	defer lock.Unlock()
	return p.mergeVariantsLocked(ctx, meetingID, activeTemplateID, merge)
}

// mergeVariantsLocked performs one read-modify-write of the variant mapping
// under the store's optimistic version check, retrying on conflicts from
// writers in other processes. Caller holds the meeting lock.
func (p *Pipeline) mergeVariantsLocked(ctx context.Context, meetingID, activeTemplateID string, merge func(Payload)) error {
	for attempt := 0; attempt < setResultAttempts; attempt++ {
		rec, err := p.summaries.Get(ctx, meetingID)
		if err != nil {
			return fmt.Errorf("summary: load record: %w", err)
		}

		payload := DecodePayload(rec.Result, rec.TemplateID)
		merge(payload)

		encoded, err := payload.Encode()
		if err != nil {
			return fmt.Errorf("summary: encode variants: %w", err)
		}

		tid := activeTemplateID
		if tid == "" {
			tid = rec.TemplateID
		}
		_, err = p.summaries.SetResult(ctx, meetingID, rec.Version, encoded, meeting.SummaryCompleted, tid)
		if err == nil {
			return nil
		}
		if !errors.Is(err, meeting.ErrVersionConflict) {
			return fmt.Errorf("summary: store variants: %w", err)
		}
	}
	return fmt.Errorf("summary: store variants for meeting %s: %w", meetingID, meeting.ErrVersionConflict)
}

// translateText runs one Markdown-preserving translation.
func (p *Pipeline) translateText(ctx context.Context, markdown, language string) (string, error) {
	system, user := BuildTranslationPrompt(markdown, transcribe.LanguageName(language))
	start := time.Now()
	resp, err := p.llm.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: system,
		Messages:     []llm.Message{{Role: "user", Content: user}},
		Temperature:  translateTemperature,
		MaxTokens:    translateMaxTokens,
	})
	p.metrics.ObserveLLM(ctx, "translate", time.Since(start), err)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", errors.New("empty translation")
	}
	return text, nil
}

// formatTranscript renders ordered segments as the transcript text fed to
// the model, one "[MM:SS] text" line per segment.
func formatTranscript(segs []meeting.Segment) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.Label)
		b.WriteString(" ")
		b.WriteString(s.Text)
		b.WriteString("\n")
	}
	return b.String()
}
