// Package openai asks a chat-completion model for focus tasks that fit a
// free slot.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	goopenai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/Type-PrAsH/SchedWise/internal/domain"
)

const providerName = "openai"

const systemPrompt = "You are SchedWise, a study planner for students. " +
	"Tone: smart, student-friendly, slightly witty. Reply with JSON only."

// Observer receives one call per completion request and every breaker
// state change.
type Observer interface {
	ObserveCall(provider string, took time.Duration, err error)
	SetCircuitOpen(provider string, open bool)
}

type nopObserver struct{}

func (nopObserver) ObserveCall(string, time.Duration, error) {}
func (nopObserver) SetCircuitOpen(string, bool)              {}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	// Rate is the sustained number of requests per second.
	Rate         float64
	BreakerDelay time.Duration
}

// Provider implements domain.SuggestionProvider.
type Provider struct {
	client  *goopenai.Client
	model   string
	limiter *rate.Limiter
	cb      circuitbreaker.CircuitBreaker[any]
	obs     Observer
}

var _ domain.SuggestionProvider = (*Provider)(nil)

// New builds a provider. obs may be nil.
func New(cfg Config, obs Observer) *Provider {
	if obs == nil {
		obs = nopObserver{}
	}
	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.BreakerDelay <= 0 {
		cfg.BreakerDelay = 30 * time.Second
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 1
	}

	cb := circuitbreaker.NewBuilder[any]().
		WithFailureRateThreshold(0.6, 5, time.Minute).
		WithDelay(cfg.BreakerDelay).
		WithSuccessThreshold(1).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			slog.Warn("Circuit breaker state changed",
				"component", providerName,
				"from", e.OldState.String(),
				"to", e.NewState.String(),
			)
			obs.SetCircuitOpen(providerName, e.NewState != circuitbreaker.ClosedState)
		}).
		Build()

	return &Provider{
		client:  goopenai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		limiter: rate.NewLimiter(rate.Limit(cfg.Rate), 1),
		cb:      cb,
		obs:     obs,
	}
}

func (p *Provider) GetSuggestions(ctx context.Context, slot domain.FreeSlot, skills []domain.Skill) ([]domain.FocusTask, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("suggestion rate limit: %w", err)
	}
	if !p.cb.TryAcquirePermit() {
		return nil, fmt.Errorf("openai: %w", circuitbreaker.ErrOpen)
	}

	start := time.Now()
	tasks, err := p.complete(ctx, slot, skills)
	p.obs.ObserveCall(providerName, time.Since(start), err)

	switch {
	case err == nil:
		p.cb.RecordSuccess()
	case errors.Is(err, context.Canceled):
		// the caller went away; says nothing about the provider
		p.cb.RecordSuccess()
	default:
		p.cb.RecordError(err)
	}
	return tasks, err
}

func (p *Provider) complete(ctx context.Context, slot domain.FreeSlot, skills []domain.Skill) ([]domain.FocusTask, error) {
	prompt, err := buildPrompt(slot, skills)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: p.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai returned no choices")
	}
	slog.DebugContext(ctx, "Received suggestions from OpenAI",
		"model", p.model,
		"finish_reason", string(resp.Choices[0].FinishReason))

	return parseTasks(resp.Choices[0].Message.Content)
}

type promptSkill struct {
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Priority string `json:"priority"`
}

func buildPrompt(slot domain.FreeSlot, skills []domain.Skill) (string, error) {
	list := make([]promptSkill, 0, len(skills))
	for _, s := range skills {
		list = append(list, promptSkill{Name: s.Name, Category: s.Category, Priority: string(s.Priority)})
	}
	encoded, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("encode skills: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "A student has a free slot of %d minutes (%s).\n", slot.DurationMinutes, slot)
	fmt.Fprintf(&b, "Their skills and priorities: %s.\n\n", encoded)
	b.WriteString("Suggest 3 specific productive activities.\n")
	b.WriteString("Rules:\n")
	b.WriteString("- under 30 minutes: a light task (flashcards, quick review, reading)\n")
	b.WriteString("- 30 to 60 minutes: a practice task (problems, coding exercise, active recall)\n")
	b.WriteString("- over 60 minutes: deep study (conceptual learning, project work, writing)\n")
	b.WriteString("- respect skill priority, High before Medium before Low\n")
	fmt.Fprintf(&b, "- no activity may be longer than %d minutes\n\n", slot.DurationMinutes)
	b.WriteString(`Answer as {"suggestions":[{"title":"","description":"","skill":"","duration":0,` +
		`"type":"light|practice|deep","recommended":false}]} with exactly one recommended item.`)
	return b.String(), nil
}

type envelope struct {
	Suggestions []domain.FocusTask `json:"suggestions"`
}

// parseTasks accepts the requested envelope, a bare array, and either one
// wrapped in a markdown code fence.
func parseTasks(content string) ([]domain.FocusTask, error) {
	content = stripFence(content)
	if content == "" {
		return nil, errors.New("openai returned empty content")
	}

	if strings.HasPrefix(content, "[") {
		var tasks []domain.FocusTask
		if err := json.Unmarshal([]byte(content), &tasks); err != nil {
			return nil, fmt.Errorf("decode suggestions: %w", err)
		}
		return tasks, nil
	}

	var env envelope
	if err := json.Unmarshal([]byte(content), &env); err != nil {
		return nil, fmt.Errorf("decode suggestions: %w", err)
	}
	return env.Suggestions, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
