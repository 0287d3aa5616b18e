// Package extract turns guest conversations into task drafts using a
// text-generation model, gated on the caller's subscription.
package extract

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/PortNumber53/cohost-tasks/backend/internal/apperr"
	"github.com/PortNumber53/cohost-tasks/backend/internal/metrics"
	"github.com/PortNumber53/cohost-tasks/backend/internal/models"
)

// MaxOutputTokens bounds each generation call.
const MaxOutputTokens = 1024

// Gate answers whether a user may run extraction.
type Gate interface {
	Check(ctx context.Context, userID string) (bool, error)
}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Request is the caller input for one extraction.
type Request struct {
	UserID       string
	Conversation string
	ListingName  string
	GuestName    string
}

// Pipeline runs gate, prompt, rate limit, generation and parse in order.
type Pipeline struct {
	gate      Gate
	generator Generator
	limiter   *rate.Limiter
	metrics   *metrics.Metrics
}

// NewPipeline wires a pipeline. generator may be nil when no model is
// configured; limiter and m may be nil.
func NewPipeline(gate Gate, generator Generator, limiter *rate.Limiter, m *metrics.Metrics) *Pipeline {
	return &Pipeline{gate: gate, generator: generator, limiter: limiter, metrics: m}
}

// NewLimiter returns a token bucket allowing perMinute calls per minute with a
// burst of the same size.
func NewLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute)
}

// Extract returns the drafts found in req.Conversation. Non-entitled callers
// get EntitlementRequired and the generator is not called. Parse problems
// yield an empty slice, never an error.
func (p *Pipeline) Extract(ctx context.Context, req Request) ([]models.TaskDraft, error) {
	if strings.TrimSpace(req.Conversation) == "" {
		return nil, apperr.Validation("conversation is required")
	}

	entitled, err := p.gate.Check(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if !entitled {
		p.metrics.IncExtraction(metrics.ExtractionDenied)
		return nil, apperr.EntitlementRequired()
	}

	if p.generator == nil {
		p.metrics.IncExtraction(metrics.ExtractionUpstreamError)
		return nil, apperr.Upstream("extract: generate", "task extraction failed", errors.New("no text-generation client configured"))
	}

	if p.limiter != nil {
		if err := p.limiter.Wait(ctx); err != nil {
			p.metrics.IncExtraction(metrics.ExtractionUpstreamError)
			return nil, apperr.Upstream("extract: rate limit", "task extraction failed", err)
		}
	}

	prompt := BuildPrompt(req.Conversation, req.ListingName, req.GuestName)
	text, err := p.generator.Generate(ctx, prompt, MaxOutputTokens)
	if err != nil {
		p.metrics.IncExtraction(metrics.ExtractionUpstreamError)
		return nil, apperr.Upstream("extract: generate", "task extraction failed", err)
	}

	drafts, outcome := ParseDrafts(text)
	p.metrics.IncExtraction(outcome)
	if outcome != metrics.ExtractionOK {
		log.Debug().Str("user_id", req.UserID).Str("outcome", outcome).Int("drafts", len(drafts)).Msg("extract: parsed model output")
	}
	return drafts, nil
}
