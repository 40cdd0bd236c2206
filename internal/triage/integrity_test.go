package triage

import (
	"context"
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/civicdesk/complaint-service/internal/classifier"
	"github.com/civicdesk/complaint-service/internal/config"
	"github.com/civicdesk/complaint-service/internal/domain"
)

func newFilter(gateway classifier.TextClassifier) *IntegrityFilter {
	return NewIntegrityFilter(gateway, config.TriageConfig{})
}

func TestFakeChecks(t *testing.T) {
	filter := newFilter(nil)
	ctx := context.Background()

	cases := []struct {
		name        string
		description string
		remark      string
	}{
		{"too short", "bad road", "too short"},
		{"gibberish", "asdf asdf asdf", "gibberish"},
		{"keyboard mash", "qwerty asdfgh zxcvbn typing here", "keyboard-mashing"},
		{"repeated run", "aaaaaaaaaa broken pipe here", "repeated character runs"},
		{"single word repeated", "water water water", "single word repeated"},
		{"no words", "!!! ??? ...", "no recognizable words"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := filter.Check(ctx, tc.description, "Ward 4", nil)
			if !result.IsFake {
				t.Fatalf("expected %q to be flagged fake", tc.description)
			}
			if !strings.Contains(result.Remarks, tc.remark) {
				t.Fatalf("expected remark containing %q, got %q", tc.remark, result.Remarks)
			}
		})
	}
}

func TestGenuineDescriptionPasses(t *testing.T) {
	filter := newFilter(nil)

	result := filter.Check(context.Background(),
		"There is a large pothole near the main bus stop and water collects in it every night",
		"Ward 4", nil)

	if result.IsFake || result.IsDuplicate {
		t.Fatalf("genuine description flagged: %+v", result)
	}
}

func TestDuplicateSameArea(t *testing.T) {
	filter := newFilter(nil)
	existing := []domain.Complaint{
		{
			TicketID:    "CMP-AAA11111",
			Area:        "Chennai",
			Description: "Large pothole near the main bus stop filling with water",
		},
	}

	result := filter.Check(context.Background(),
		"Large pothole near the main bus stop filling with water",
		"Chennai", existing)

	if !result.IsDuplicate {
		t.Fatalf("expected duplicate, got %+v", result)
	}
	if result.DuplicateOf != "CMP-AAA11111" {
		t.Fatalf("expected duplicate of CMP-AAA11111, got %s", result.DuplicateOf)
	}
	if !strings.Contains(result.Remarks, "100%") {
		t.Fatalf("expected similarity in remark, got %q", result.Remarks)
	}
}

func TestDuplicateToleratesWordVariants(t *testing.T) {
	filter := newFilter(nil)
	existing := []domain.Complaint{
		{
			TicketID:    "CMP-AAA11111",
			Area:        "Chennai",
			Description: "water pipe leaking near main road causing flooding",
		},
	}

	result := filter.Check(context.Background(),
		"water pipeline leak on main road flooding the street",
		"Chennai", existing)

	if !result.IsDuplicate {
		t.Fatalf("reworded complaint about the same leak must be flagged, got %+v", result)
	}
	if result.DuplicateOf != "CMP-AAA11111" {
		t.Fatalf("expected duplicate of CMP-AAA11111, got %s", result.DuplicateOf)
	}
}

func TestDescriptionSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b string
		want float64
	}{
		{
			"word variants pair up",
			"water pipeline leak on main road flooding the street",
			"water pipe leaking near main road causing flooding",
			0.6,
		},
		{"identical", "pothole near the school", "pothole near the school", 1},
		{"disjoint", "garbage pile behind market", "streetlight flickering badly", 0},
		{"empty side", "", "pothole near the school", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := descriptionSimilarity(uniqueWords(tc.a), uniqueWords(tc.b))
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("similarity = %f, want %f", got, tc.want)
			}
		})
	}
}

func TestDuplicateIgnoresOtherAreas(t *testing.T) {
	filter := newFilter(nil)
	existing := []domain.Complaint{
		{
			TicketID:    "CMP-AAA11111",
			Area:        "Mumbai",
			Description: "Large pothole near the main bus stop filling with water",
		},
	}

	result := filter.Check(context.Background(),
		"Large pothole near the main bus stop filling with water",
		"Chennai", existing)

	if result.IsDuplicate {
		t.Fatalf("different area must not match: %+v", result)
	}
}

func TestDuplicateBelowThreshold(t *testing.T) {
	filter := newFilter(nil)
	existing := []domain.Complaint{
		{
			TicketID:    "CMP-AAA11111",
			Area:        "Chennai",
			Description: "Streetlight flickering outside the community hall since last week",
		},
	}

	result := filter.Check(context.Background(),
		"Garbage piling up behind the vegetable market for several days now",
		"Chennai", existing)

	if result.IsDuplicate || result.IsFake {
		t.Fatalf("unrelated complaints must pass: %+v", result)
	}
}

func TestRemoteOpinionAddsPositive(t *testing.T) {
	stub := &stubClassifier{
		answer: `{"isDuplicate":true,"duplicateOf":"CMP-AAA11111","isFake":false,"remarks":"same pothole"}`,
	}
	filter := newFilter(stub)
	existing := []domain.Complaint{
		{TicketID: "CMP-AAA11111", Area: "Chennai", Description: "Pothole by the school gate"},
	}

	result := filter.Check(context.Background(),
		"Deep crater in the road close to the school entrance gate",
		"Chennai", existing)

	if !result.IsDuplicate || result.DuplicateOf != "CMP-AAA11111" {
		t.Fatalf("expected remote duplicate verdict, got %+v", result)
	}
}

func TestRemoteOpinionMalformedDiscarded(t *testing.T) {
	stub := &stubClassifier{answer: "I think it might be a duplicate?"}
	filter := newFilter(stub)

	result := filter.Check(context.Background(),
		"Deep crater in the road close to the school entrance gate",
		"Chennai", nil)

	if result.IsDuplicate || result.IsFake {
		t.Fatalf("malformed remote verdict must be discarded: %+v", result)
	}
}

func TestRemoteOpinionUnknownTicketDiscarded(t *testing.T) {
	stub := &stubClassifier{
		answer: `{"isDuplicate":true,"duplicateOf":"CMP-DOESNOTEXIST","isFake":false,"remarks":"dup"}`,
	}
	filter := newFilter(stub)
	existing := []domain.Complaint{
		{TicketID: "CMP-AAA11111", Area: "Chennai", Description: "Pothole by the school gate"},
	}

	result := filter.Check(context.Background(),
		"Deep crater in the road close to the school entrance gate",
		"Chennai", existing)

	if result.IsDuplicate {
		t.Fatalf("verdict naming an unknown ticket must be discarded: %+v", result)
	}
}

func TestRemoteNotConsultedAfterLocalPositive(t *testing.T) {
	stub := &stubClassifier{answer: `{"isDuplicate":false,"isFake":false}`}
	filter := newFilter(stub)

	result := filter.Check(context.Background(), "asdf asdf asdf", "Chennai", nil)

	if !result.IsFake {
		t.Fatal("expected local fake verdict")
	}
	if stub.calls != 0 {
		t.Fatalf("gateway must not be consulted after a local positive, got %d calls", stub.calls)
	}
}

func TestTruncateKeepsRunesIntact(t *testing.T) {
	got := truncate("créé un trou énorme sur la route", 10)
	if !utf8.ValidString(got) {
		t.Fatalf("truncated text is not valid UTF-8: %q", got)
	}
	if n := len([]rune(got)); n != 10 {
		t.Fatalf("expected 10 runes, got %d (%q)", n, got)
	}
	if short := truncate("short", 10); short != "short" {
		t.Fatalf("short text must pass through, got %q", short)
	}
}

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"```json\n{\"isFake\":true}\n```", `{"isFake":true}`},
		{`{"isFake":false}`, `{"isFake":false}`},
		{"no braces here", "no braces here"},
	}
	for _, tc := range cases {
		if got := extractJSONObject(tc.in); got != tc.want {
			t.Errorf("extractJSONObject(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
