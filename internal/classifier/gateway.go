package classifier

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/civicdesk/complaint-service/internal/config"
)

// TextClassifier is the capability the triage pipeline consumes. Every failure
// path degrades to "": callers always need a local fallback and never see an
// error from this interface.
type TextClassifier interface {
	Classify(ctx context.Context, prompt string, maxTokens int) string
}

// Caller performs one raw model invocation. Implemented by the HTTP client in
// remote.go and by stubs in tests.
type Caller interface {
	Generate(ctx context.Context, model, prompt string, maxTokens int) (string, error)
}

// Gateway wraps a remote model behind an ordered fallback list with a
// credential cooldown. Cooldown state is per-instance so independent gateways
// (e.g. in tests) do not interfere.
type Gateway struct {
	caller     Caller
	models     []string
	cooldown   time.Duration
	retryDelay time.Duration
	logger     *zap.Logger

	mu            sync.Mutex
	disabledUntil time.Time

	now   func() time.Time
	sleep func(time.Duration)
}

// NewGateway builds a gateway over the given caller.
func NewGateway(caller Caller, cfg config.ClassifierConfig, logger *zap.Logger) *Gateway {
	return &Gateway{
		caller:     caller,
		models:     cfg.Models,
		cooldown:   cfg.Cooldown(),
		retryDelay: cfg.RetryDelay(),
		logger:     logger,
		now:        time.Now,
		sleep:      time.Sleep,
	}
}

// Classify asks each model in order until one answers. Auth failures trip the
// cooldown, rate limits skip to the next model, transient server errors get a
// single delayed retry. Returns "" when every path is exhausted.
func (g *Gateway) Classify(ctx context.Context, prompt string, maxTokens int) string {
	if g.caller == nil || len(g.models) == 0 {
		return ""
	}

	g.mu.Lock()
	if g.now().Before(g.disabledUntil) {
		g.mu.Unlock()
		return ""
	}
	g.mu.Unlock()

	for _, model := range g.models {
		text, err := g.callModel(ctx, model, prompt, maxTokens)
		if err == nil {
			g.mu.Lock()
			g.disabledUntil = time.Time{}
			g.mu.Unlock()
			return text
		}

		switch {
		case IsAuthError(err):
			until := g.now().Add(g.cooldown)
			g.mu.Lock()
			g.disabledUntil = until
			g.mu.Unlock()
			g.logger.Warn("classifier credential rejected, cooling down",
				zap.String("model", model),
				zap.Time("until", until),
				zap.Error(err))
			return ""
		case IsRateLimited(err):
			g.logger.Debug("classifier rate limited, trying next model",
				zap.String("model", model))
			continue
		default:
			g.logger.Debug("classifier call failed",
				zap.String("model", model),
				zap.Error(err))
			continue
		}
	}
	return ""
}

// callModel invokes a single model, retrying once on transient server errors.
func (g *Gateway) callModel(ctx context.Context, model, prompt string, maxTokens int) (string, error) {
	text, err := g.caller.Generate(ctx, model, prompt, maxTokens)
	if err == nil {
		return text, nil
	}
	if !IsServerError(err) {
		return "", err
	}
	g.sleep(g.retryDelay)
	return g.caller.Generate(ctx, model, prompt, maxTokens)
}

// Disabled never reaches the network. It is the always-local variant used when
// no API key is configured and as a deterministic stand-in for tests.
type Disabled struct{}

// Classify always reports the classifier as unavailable.
func (Disabled) Classify(context.Context, string, int) string { return "" }
