package triage

import (
	"context"
	"testing"

	"github.com/civicdesk/complaint-service/internal/domain"
)

// stubClassifier returns a canned answer and records prompts it saw.
type stubClassifier struct {
	answer string
	calls  int
}

func (s *stubClassifier) Classify(ctx context.Context, prompt string, maxTokens int) string {
	s.calls++
	return s.answer
}

func TestAssignLocalKeywords(t *testing.T) {
	assigner := NewPriorityAssigner(nil)
	ctx := context.Background()

	cases := []struct {
		name        string
		description string
		department  domain.Department
		want        domain.ComplaintPriority
	}{
		{
			name:        "critical fire",
			description: "fire broke out near the transformer",
			department:  domain.DepartmentElectricity,
			want:        domain.PriorityCritical,
		},
		{
			name:        "flooding is high",
			description: "flooding in the basement after pipe burst",
			department:  domain.DepartmentWater,
			want:        domain.PriorityHigh,
		},
		{
			name:        "pothole is medium",
			description: "pothole on the service lane",
			department:  domain.DepartmentRoads,
			want:        domain.PriorityMedium,
		},
		{
			name:        "cosmetic is low",
			description: "request to repaint the faded zebra crossing",
			department:  domain.DepartmentRoads,
			want:        domain.PriorityLow,
		},
		{
			name:        "no keywords defaults to medium",
			description: "something odd going on in our locality",
			department:  domain.DepartmentGeneral,
			want:        domain.PriorityMedium,
		},
		{
			name:        "critical outranks high on ties",
			description: "gas leak and a blocked exit",
			department:  domain.DepartmentGeneral,
			want:        domain.PriorityCritical,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := assigner.Assign(ctx, tc.description, tc.department)
			if got != tc.want {
				t.Fatalf("Assign(%q, %s) = %s, want %s", tc.description, tc.department, got, tc.want)
			}
		})
	}
}

func TestAssignUsesGatewayAnswer(t *testing.T) {
	stub := &stubClassifier{answer: "HIGH"}
	assigner := NewPriorityAssigner(stub)

	got := assigner.Assign(context.Background(), "pothole on the lane", domain.DepartmentRoads)
	if got != domain.PriorityHigh {
		t.Fatalf("expected gateway verdict HIGH, got %s", got)
	}
	if stub.calls != 1 {
		t.Fatalf("expected 1 gateway call, got %d", stub.calls)
	}
}

func TestAssignFallsBackOnGarbageAnswer(t *testing.T) {
	stub := &stubClassifier{answer: "cannot say for sure"}
	assigner := NewPriorityAssigner(stub)

	got := assigner.Assign(context.Background(), "pothole on the lane", domain.DepartmentRoads)
	if got != domain.PriorityMedium {
		t.Fatalf("expected local fallback MEDIUM, got %s", got)
	}
}

func TestAssignFallsBackOnEmptyAnswer(t *testing.T) {
	stub := &stubClassifier{answer: ""}
	assigner := NewPriorityAssigner(stub)

	got := assigner.Assign(context.Background(), "fire near the substation", domain.DepartmentElectricity)
	if got != domain.PriorityCritical {
		t.Fatalf("expected local fallback CRITICAL, got %s", got)
	}
}

func TestFirstPriorityWord(t *testing.T) {
	cases := []struct {
		answer string
		want   domain.ComplaintPriority
		ok     bool
	}{
		{"HIGH", domain.PriorityHigh, true},
		{"high", domain.PriorityHigh, true},
		{"The priority is CRITICAL.", domain.PriorityCritical, true},
		{"medium, probably", domain.PriorityMedium, true},
		{"no idea", "", false},
	}
	for _, tc := range cases {
		got, ok := firstPriorityWord(tc.answer)
		if ok != tc.ok || got != tc.want {
			t.Errorf("firstPriorityWord(%q) = (%s, %v), want (%s, %v)", tc.answer, got, ok, tc.want, tc.ok)
		}
	}
}
