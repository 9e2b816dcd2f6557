package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/benvon/sparkreply/internal/logger"
	"github.com/benvon/sparkreply/internal/metrics"
	"github.com/benvon/sparkreply/internal/models"
	"github.com/benvon/sparkreply/internal/services/completion"
	"github.com/benvon/sparkreply/internal/telemetry"
	"github.com/benvon/sparkreply/internal/validation"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// DefaultCompletionTimeout bounds the completion call
const DefaultCompletionTimeout = 45 * time.Second

// SettingsStore reads per-user defaults. Missing settings are not an error.
type SettingsStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error)
}

// TargetSummary is the denormalised target returned with a result
type TargetSummary struct {
	Name      string `json:"name"`
	Username  string `json:"username"`
	Bio       string `json:"bio,omitempty"`
	Followers int    `json:"followers"`
}

// Result is the outcome of a successful generation
type Result struct {
	ID          uuid.UUID
	ContentType models.ContentType
	Spec        *ContentSpec
	Variants    models.Variants
	Target      *TargetSummary
	Input       models.Metadata
	// Original holds the source tweets of a thread rewrite
	Original  []string
	Tier      Tier
	CreatedAt time.Time
}

// Config wires a Pipeline
type Config struct {
	Profile           *Enricher
	Completion        completion.Provider
	Templates         *Templates
	Extractor         *Extractor
	Recorder          Recorder
	Settings          SettingsStore
	CompletionTimeout time.Duration
	Logger            *zap.Logger
	Metrics           *metrics.Collector
}

// Pipeline runs validate, enrich, prompt, complete, extract and persist for every content type
type Pipeline struct {
	enricher          *Enricher
	completion        completion.Provider
	builder           *PromptBuilder
	extractor         *Extractor
	recorder          Recorder
	settings          SettingsStore
	completionTimeout time.Duration
	logger            *zap.Logger
	metrics           *metrics.Collector
}

// NewPipeline fills unset dependencies with their disabled forms
func NewPipeline(cfg Config) *Pipeline {
	p := &Pipeline{
		enricher:          cfg.Profile,
		completion:        cfg.Completion,
		extractor:         cfg.Extractor,
		recorder:          cfg.Recorder,
		settings:          cfg.Settings,
		completionTimeout: cfg.CompletionTimeout,
		logger:            cfg.Logger,
		metrics:           cfg.Metrics,
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	if p.enricher == nil {
		p.enricher = NewEnricher(nil, 0, p.logger, p.metrics)
	}
	if p.completion == nil {
		p.completion = completion.Disabled{}
	}
	templates := cfg.Templates
	if templates == nil {
		templates = DefaultTemplates()
	}
	p.builder = NewPromptBuilder(templates)
	if p.extractor == nil {
		p.extractor = NewExtractor()
	}
	if p.recorder == nil {
		p.recorder = NopRecorder{}
	}
	if p.completionTimeout <= 0 {
		p.completionTimeout = DefaultCompletionTimeout
	}
	return p
}

// Generate produces content of ct for the caller. Validation happens before any
// network call; enrichment and persistence never fail the request.
func (p *Pipeline) Generate(ctx context.Context, identity *models.Identity, ct models.ContentType, input models.GenerationRequest) (*Result, error) {
	ctx, span := telemetry.StartSpan(ctx, "generation.generate", attribute.String("content_type", string(ct)))
	result, err := p.generate(ctx, identity, ct, input)
	if result != nil {
		span.SetAttributes(attribute.String("extraction_tier", string(result.Tier)))
	}
	telemetry.EndSpan(span, err)
	return result, err
}

func (p *Pipeline) generate(ctx context.Context, identity *models.Identity, ct models.ContentType, input models.GenerationRequest) (*Result, error) {
	if identity == nil {
		return nil, ErrUnauthorized
	}

	req := input
	req.ContentType = ct
	if err := validation.ValidateGenerationRequest(&req); err != nil {
		p.metrics.RecordGeneration(string(ct), "invalid")
		var fields validation.Errors
		if errors.As(err, &fields) {
			return nil, &ValidationError{Fields: fields}
		}
		return nil, err
	}
	spec, err := Spec(ct)
	if err != nil {
		return nil, InvalidField("content_type", err.Error())
	}

	start := time.Now()
	settings := p.userSettings(ctx, identity.UserID)
	applyDefaults(&req, settings)

	enrichCtx, enrichSpan := telemetry.StartSpan(ctx, "generation.enrich")
	target, source, err := p.enricher.Enrich(enrichCtx, &req)
	telemetry.EndSpan(enrichSpan, err)
	if err != nil {
		p.metrics.RecordGeneration(string(ct), "invalid")
		return nil, err
	}

	schema := spec.Schema(len(source))
	view := p.builder.View(&req, target, schema, source)
	prompt, err := p.builder.Build(view)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s prompt: %w", ct, err)
	}

	content, err := p.complete(ctx, spec, prompt)
	if err != nil {
		p.metrics.RecordGeneration(string(ct), "failed")
		return nil, err
	}

	extraction := p.extractor.Extract(content, schema, func() []string { return p.builder.Fallback(view) })
	p.metrics.RecordExtraction(string(ct), string(extraction.Tier))
	variants := applyLengthLimit(extraction.Variants, settings)

	gen := &models.Generation{
		ID:             uuid.New(),
		UserID:         identity.UserID,
		ContentType:    ct,
		Input:          inputMetadata(&req),
		Variants:       variants,
		TargetContext:  target,
		ExtractionTier: string(extraction.Tier),
		CreatedAt:      time.Now().UTC(),
	}
	p.recorder.Record(ctx, gen)
	if settings != nil && settings.AutoSave && len(variants) > 0 {
		p.recorder.RecordSaved(ctx, autoSaveItem(gen))
	}

	p.metrics.RecordGeneration(string(ct), "success")
	p.logger.Info("generation_completed",
		zap.String("content_type", string(ct)),
		zap.String("user_id", identity.UserID.String()),
		zap.String("generation_id", gen.ID.String()),
		zap.String("tier", string(extraction.Tier)),
		zap.Int("variants", len(variants)),
		zap.Bool("enriched", target != nil),
		zap.Duration("duration", time.Since(start)),
	)

	result := &Result{
		ID:          gen.ID,
		ContentType: ct,
		Spec:        spec,
		Variants:    variants,
		Target:      summarize(target),
		Input:       gen.Input,
		Tier:        extraction.Tier,
		CreatedAt:   gen.CreatedAt,
	}
	if ct == models.ContentTypeThreadRewrite {
		result.Original = source
	}
	return result, nil
}

func (p *Pipeline) complete(ctx context.Context, spec *ContentSpec, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.completionTimeout)
	defer cancel()
	ctx, span := telemetry.StartSpan(ctx, "generation.complete", attribute.String("provider", p.completion.Name()))
	defer span.End()

	start := time.Now()
	resp, err := p.completion.Complete(ctx, completion.Request{
		Operation:   string(spec.Type),
		Prompt:      prompt,
		Temperature: spec.Temperature,
		MaxTokens:   spec.MaxTokens,
	})
	reason := completion.Reason(err)
	p.metrics.ObserveCompletion(string(spec.Type), reason, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, reason)
		p.logger.Error("completion_failed",
			zap.String("content_type", string(spec.Type)),
			zap.String("provider", p.completion.Name()),
			zap.String("reason", reason),
			zap.String("error", logger.SanitizeError(err)),
		)
		return "", &GenerationError{
			ContentType: string(spec.Type),
			Reason:      reason,
			Details:     failureDetails(spec.Type, reason, err),
			Err:         err,
		}
	}
	return resp.Content, nil
}

func failureDetails(ct models.ContentType, reason string, err error) map[string]any {
	details := map[string]any{"reason": reason, "content_type": string(ct)}
	if apiErr := completion.ExtractAPIError(err); apiErr != nil {
		for k, v := range apiErr.Details() {
			details[k] = v
		}
		details["message"] = logger.SanitizeString(apiErr.Message, logger.MaxErrorMessageLength)
	}
	return details
}

func (p *Pipeline) userSettings(ctx context.Context, userID uuid.UUID) *models.UserSettings {
	if p.settings == nil {
		return nil
	}
	settings, err := p.settings.Get(ctx, userID)
	if err != nil {
		p.logger.Warn("settings_lookup_failed",
			zap.String("user_id", userID.String()),
			zap.String("error", logger.SanitizeError(err)),
		)
		return nil
	}
	return settings
}

// applyDefaults fills the tone from the user's settings when the request has none
func applyDefaults(req *models.GenerationRequest, settings *models.UserSettings) {
	if settings == nil || req.Tone != "" || settings.DefaultTone == "" {
		return
	}
	switch req.ContentType {
	case models.ContentTypePost:
		for _, tone := range validation.PostTones {
			if tone == settings.DefaultTone {
				req.Tone = tone
			}
		}
	case models.ContentTypeThread, models.ContentTypeThreadRewrite:
		req.Tone = settings.DefaultTone
	}
}

// applyLengthLimit tightens the ceiling to the user's tweet_length_limit when it is lower
func applyLengthLimit(variants models.Variants, settings *models.UserSettings) models.Variants {
	if settings == nil || settings.TweetLengthLimit <= 3 || settings.TweetLengthLimit >= MaxCharacters {
		return variants
	}
	for i := range variants {
		variants[i].Text = Truncate(variants[i].Text, settings.TweetLengthLimit)
	}
	return variants
}

func inputMetadata(req *models.GenerationRequest) models.Metadata {
	data, err := json.Marshal(req)
	if err != nil {
		return models.Metadata{}
	}
	var m models.Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return models.Metadata{}
	}
	return m
}

func summarize(target *models.TargetContext) *TargetSummary {
	if target == nil || target.Profile == nil {
		return nil
	}
	return &TargetSummary{
		Name:      target.Profile.Name,
		Username:  target.Profile.Username,
		Bio:       target.Profile.Bio,
		Followers: target.Profile.Followers,
	}
}

func autoSaveItem(g *models.Generation) *models.SavedContent {
	first := g.Variants[0]
	title := fmt.Sprintf("%s (%s)", g.ContentType.Slug(), first.Key)
	return &models.SavedContent{
		ID:      uuid.New(),
		UserID:  g.UserID,
		Type:    g.ContentType,
		Title:   title,
		Content: first.Text,
		Metadata: models.Metadata{
			"generation_id": g.ID.String(),
			"variant":       first.Key,
			"auto_saved":    true,
		},
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.CreatedAt,
	}
}
