package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PortNumber53/cohost-tasks/backend/internal/apperr"
	"github.com/PortNumber53/cohost-tasks/backend/internal/metrics"
	"github.com/PortNumber53/cohost-tasks/backend/internal/models"
)

type stubGate struct {
	pro map[string]bool
	err error
}

func (g stubGate) Check(_ context.Context, userID string) (bool, error) {
	if g.err != nil {
		return false, g.err
	}
	return g.pro[userID], nil
}

type stubGenerator struct {
	out       string
	err       error
	calls     int
	prompt    string
	maxTokens int
}

func (g *stubGenerator) Generate(_ context.Context, prompt string, maxTokens int) (string, error) {
	g.calls++
	g.prompt = prompt
	g.maxTokens = maxTokens
	return g.out, g.err
}

func TestExtractDeniesNonProWithoutCallingGenerator(t *testing.T) {
	gen := &stubGenerator{out: "[]"}
	m := metrics.New()
	p := NewPipeline(stubGate{pro: map[string]bool{}}, gen, nil, m)

	_, err := p.Extract(context.Background(), Request{UserID: "free-user", Conversation: "Can you restock towels?"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrEntitlement))
	assert.Equal(t, "Pro subscription required", apperr.PublicMessage(err))
	assert.Zero(t, gen.calls)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExtractionsTotal.WithLabelValues(metrics.ExtractionDenied)))
}

func TestExtractSalvagesArrayFromProse(t *testing.T) {
	gen := &stubGenerator{out: "Sure! Here you go: [{\"title\":\"Clean unit\",\"type\":\"clean\",\"dueDate\":null,\"priority\":\"high\",\"notes\":\"\"}]"}
	m := metrics.New()
	p := NewPipeline(stubGate{pro: map[string]bool{"u1": true}}, gen, NewLimiter(60), m)

	drafts, err := p.Extract(context.Background(), Request{UserID: "u1", Conversation: "The unit is dirty"})
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "Clean unit", drafts[0].Title)
	assert.Equal(t, models.TaskTypeClean, drafts[0].Type)
	assert.Equal(t, models.PriorityHigh, drafts[0].Priority)
	assert.Nil(t, drafts[0].DueDate)
	assert.Equal(t, MaxOutputTokens, gen.maxTokens)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExtractionsTotal.WithLabelValues(metrics.ExtractionSalvaged)))
}

func TestExtractGarbageYieldsEmptyList(t *testing.T) {
	gen := &stubGenerator{out: "I could not find any tasks, sorry."}
	p := NewPipeline(stubGate{pro: map[string]bool{"u1": true}}, gen, nil, nil)

	drafts, err := p.Extract(context.Background(), Request{UserID: "u1", Conversation: "hello"})
	require.NoError(t, err)
	assert.NotNil(t, drafts)
	assert.Empty(t, drafts)
}

func TestExtractGeneratorFailureIsUpstream(t *testing.T) {
	gen := &stubGenerator{err: errors.New("overloaded")}
	p := NewPipeline(stubGate{pro: map[string]bool{"u1": true}}, gen, nil, nil)

	_, err := p.Extract(context.Background(), Request{UserID: "u1", Conversation: "hello"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrUpstream))
	assert.Equal(t, "task extraction failed", apperr.PublicMessage(err))
	assert.Equal(t, 1, gen.calls)
}

func TestExtractWithoutGenerator(t *testing.T) {
	p := NewPipeline(stubGate{pro: map[string]bool{"u1": true}}, nil, nil, nil)

	_, err := p.Extract(context.Background(), Request{UserID: "u1", Conversation: "hello"})
	assert.True(t, errors.Is(err, apperr.ErrUpstream))
}

func TestExtractRequiresConversation(t *testing.T) {
	gen := &stubGenerator{out: "[]"}
	p := NewPipeline(stubGate{pro: map[string]bool{"u1": true}}, gen, nil, nil)

	_, err := p.Extract(context.Background(), Request{UserID: "u1", Conversation: "   "})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.Zero(t, gen.calls)
}

func TestExtractGateFailurePropagates(t *testing.T) {
	gen := &stubGenerator{out: "[]"}
	gateErr := apperr.Upstream("entitlement: check", "failed to check subscription status", errors.New("db down"))
	p := NewPipeline(stubGate{err: gateErr}, gen, nil, nil)

	_, err := p.Extract(context.Background(), Request{UserID: "u1", Conversation: "hello"})
	assert.True(t, errors.Is(err, apperr.ErrUpstream))
	assert.Zero(t, gen.calls)
}

func TestExtractCancelledWhileRateLimited(t *testing.T) {
	gen := &stubGenerator{out: "[]"}
	limiter := NewLimiter(1)
	require.True(t, limiter.Allow())
	p := NewPipeline(stubGate{pro: map[string]bool{"u1": true}}, gen, limiter, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Extract(ctx, Request{UserID: "u1", Conversation: "hello"})
	assert.True(t, errors.Is(err, apperr.ErrUpstream))
	assert.Zero(t, gen.calls)
}

func TestBuildPromptDefaultsAndVerbatimConversation(t *testing.T) {
	conversation := "Guest: the {{.Secret}} <door> code isn't working!"
	prompt := BuildPrompt(conversation, "", "  ")

	assert.Contains(t, prompt, "Listing: Unknown")
	assert.Contains(t, prompt, "Guest: Guest")
	assert.Contains(t, prompt, conversation)
	assert.Contains(t, prompt, "[]")
	for _, tt := range models.TaskTypes {
		assert.True(t, strings.Contains(prompt, `"`+string(tt)+`"`), "prompt missing type %s", tt)
	}
}

func TestBuildPromptUsesNames(t *testing.T) {
	prompt := BuildPrompt("hi", "Beach House", "Ana")
	assert.Contains(t, prompt, "Listing: Beach House")
	assert.Contains(t, prompt, "Guest: Ana")
}
