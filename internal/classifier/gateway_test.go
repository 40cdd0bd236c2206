package classifier

import (
	"context"
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/civicdesk/complaint-service/internal/config"
)

type scriptedCall struct {
	text string
	err  error
}

// scriptedCaller replays a fixed sequence of responses and records the models
// it was asked for.
type scriptedCaller struct {
	script []scriptedCall
	models []string
}

func (c *scriptedCaller) Generate(ctx context.Context, model, prompt string, maxTokens int) (string, error) {
	c.models = append(c.models, model)
	if len(c.script) == 0 {
		return "", &APIError{StatusCode: http.StatusInternalServerError}
	}
	next := c.script[0]
	c.script = c.script[1:]
	return next.text, next.err
}

func newTestGateway(t *testing.T, caller Caller) *Gateway {
	t.Helper()
	gw := NewGateway(caller, config.ClassifierConfig{
		Models: []string{"model-a", "model-b", "model-c"},
	}, zap.NewNop())
	gw.sleep = func(time.Duration) {}
	return gw
}

func TestClassifySuccess(t *testing.T) {
	caller := &scriptedCaller{script: []scriptedCall{{text: "Roads & Highways"}}}
	gw := newTestGateway(t, caller)

	got := gw.Classify(context.Background(), "prompt", 16)
	if got != "Roads & Highways" {
		t.Fatalf("expected answer, got %q", got)
	}
	if len(caller.models) != 1 || caller.models[0] != "model-a" {
		t.Fatalf("expected single call to model-a, got %v", caller.models)
	}
}

func TestClassifyRateLimitSkipsToNextModel(t *testing.T) {
	caller := &scriptedCaller{script: []scriptedCall{
		{err: &APIError{StatusCode: http.StatusTooManyRequests}},
		{text: "Water Resources"},
	}}
	gw := newTestGateway(t, caller)

	got := gw.Classify(context.Background(), "prompt", 16)
	if got != "Water Resources" {
		t.Fatalf("expected fallback model answer, got %q", got)
	}
	if len(caller.models) != 2 || caller.models[1] != "model-b" {
		t.Fatalf("expected model-a then model-b, got %v", caller.models)
	}
}

func TestClassifyServerErrorRetriesOnce(t *testing.T) {
	caller := &scriptedCaller{script: []scriptedCall{
		{err: &APIError{StatusCode: http.StatusInternalServerError}},
		{text: "Electricity"},
	}}
	gw := newTestGateway(t, caller)

	slept := 0
	gw.sleep = func(time.Duration) { slept++ }

	got := gw.Classify(context.Background(), "prompt", 16)
	if got != "Electricity" {
		t.Fatalf("expected retried answer, got %q", got)
	}
	if len(caller.models) != 2 || caller.models[0] != "model-a" || caller.models[1] != "model-a" {
		t.Fatalf("retry must hit the same model, got %v", caller.models)
	}
	if slept != 1 {
		t.Fatalf("expected one retry delay, got %d", slept)
	}
}

func TestClassifyAuthErrorTripsCooldown(t *testing.T) {
	caller := &scriptedCaller{script: []scriptedCall{
		{err: &APIError{StatusCode: http.StatusUnauthorized}},
		{text: "answer after cooldown"},
	}}
	gw := newTestGateway(t, caller)

	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	gw.now = func() time.Time { return current }

	if got := gw.Classify(context.Background(), "prompt", 16); got != "" {
		t.Fatalf("auth failure must return empty, got %q", got)
	}
	calls := len(caller.models)

	// Inside the cooldown window no network call happens at all.
	current = current.Add(4 * time.Minute)
	if got := gw.Classify(context.Background(), "prompt", 16); got != "" {
		t.Fatalf("cooldown must return empty, got %q", got)
	}
	if len(caller.models) != calls {
		t.Fatalf("caller must not be invoked during cooldown, got %v", caller.models)
	}

	// After the window the gateway tries again.
	current = current.Add(2 * time.Minute)
	if got := gw.Classify(context.Background(), "prompt", 16); got != "answer after cooldown" {
		t.Fatalf("expected retry after cooldown, got %q", got)
	}
}

func TestClassifyAllModelsExhausted(t *testing.T) {
	caller := &scriptedCaller{script: []scriptedCall{
		{err: &APIError{StatusCode: http.StatusTooManyRequests}},
		{err: &APIError{StatusCode: http.StatusTooManyRequests}},
		{err: &APIError{StatusCode: http.StatusBadRequest}},
	}}
	gw := newTestGateway(t, caller)

	if got := gw.Classify(context.Background(), "prompt", 16); got != "" {
		t.Fatalf("exhausted gateway must return empty, got %q", got)
	}
	if len(caller.models) != 3 {
		t.Fatalf("expected all three models tried, got %v", caller.models)
	}
}

func TestClassifyWithoutCallerOrModels(t *testing.T) {
	gw := newTestGateway(t, nil)
	if got := gw.Classify(context.Background(), "prompt", 16); got != "" {
		t.Fatalf("nil caller must return empty, got %q", got)
	}

	gw = NewGateway(&scriptedCaller{}, config.ClassifierConfig{}, zap.NewNop())
	if got := gw.Classify(context.Background(), "prompt", 16); got != "" {
		t.Fatalf("empty model list must return empty, got %q", got)
	}
}

func TestDisabledClassifier(t *testing.T) {
	var d Disabled
	if got := d.Classify(context.Background(), "prompt", 16); got != "" {
		t.Fatalf("disabled classifier must return empty, got %q", got)
	}
}
