package triage

import (
	"context"
	"strings"

	"github.com/civicdesk/complaint-service/internal/classifier"
	"github.com/civicdesk/complaint-service/internal/domain"
)

var criticalKeywords = []string{
	"fire", "explosion", "electrocution", "collapse", "collapsed", "fatal",
	"death", "emergency", "danger", "dangerous", "live wire", "gas leak",
	"accident", "injured", "injury", "sinkhole",
}

var highKeywords = []string{
	"flooding", "flood", "burst", "major", "blocked", "overflow",
	"no water", "no power", "outage", "broken", "sewage", "contaminated",
	"exposed", "hazard",
}

var mediumKeywords = []string{
	"leak", "leaking", "pothole", "damaged", "crack", "not working",
	"streetlight", "garbage", "smell", "noise", "stray",
}

var lowKeywords = []string{
	"request", "suggestion", "minor", "faded", "trim", "repaint",
	"cosmetic", "slow",
}

// departmentBoost nudges Critical/High scores for departments where failures
// carry public-safety impact.
var departmentBoost = map[domain.Department][2]float64{
	domain.DepartmentElectricity:  {1.0, 0.5},
	domain.DepartmentWater:        {1.0, 0.5},
	domain.DepartmentPublicHealth: {1.0, 0.5},
	domain.DepartmentRoads:        {0.5, 0.25},
}

// PriorityAssigner scores complaint text into one of four priority levels.
// With a live gateway it asks the remote model first; the keyword path is the
// deterministic fallback and the only path when the gateway is absent.
type PriorityAssigner struct {
	gateway classifier.TextClassifier
}

// NewPriorityAssigner constructs the assigner. A nil gateway means
// fallback-only operation.
func NewPriorityAssigner(gateway classifier.TextClassifier) *PriorityAssigner {
	return &PriorityAssigner{gateway: gateway}
}

// Assign produces a priority for the description within its department.
func (p *PriorityAssigner) Assign(ctx context.Context, description string, department domain.Department) domain.ComplaintPriority {
	if p.gateway != nil {
		prompt := "Classify the urgency of this civic complaint as exactly one of " +
			"CRITICAL, HIGH, MEDIUM or LOW. Respond with the single word only.\n" +
			"Department: " + string(department) + "\nComplaint: " + description
		if answer := p.gateway.Classify(ctx, prompt, 8); answer != "" {
			if priority, ok := firstPriorityWord(answer); ok {
				return priority
			}
		}
	}
	return p.assignLocal(description, department)
}

// assignLocal is a pure function of (description, department).
func (p *PriorityAssigner) assignLocal(description string, department domain.Department) domain.ComplaintPriority {
	text := strings.ToLower(description + " " + string(department))

	scores := map[domain.ComplaintPriority]float64{}
	for _, kw := range criticalKeywords {
		if strings.Contains(text, kw) {
			scores[domain.PriorityCritical] += 3
		}
	}
	for _, kw := range highKeywords {
		if strings.Contains(text, kw) {
			scores[domain.PriorityHigh] += 2
		}
	}
	for _, kw := range mediumKeywords {
		if strings.Contains(text, kw) {
			scores[domain.PriorityMedium]++
		}
	}
	for _, kw := range lowKeywords {
		if strings.Contains(text, kw) {
			scores[domain.PriorityLow]++
		}
	}

	if boost, ok := departmentBoost[department]; ok {
		if scores[domain.PriorityCritical] > 0 {
			scores[domain.PriorityCritical] += boost[0]
		}
		if scores[domain.PriorityHigh] > 0 {
			scores[domain.PriorityHigh] += boost[1]
		}
	}

	// fixed precedence breaks ties: Critical > High > Medium > Low
	order := []domain.ComplaintPriority{
		domain.PriorityCritical,
		domain.PriorityHigh,
		domain.PriorityMedium,
		domain.PriorityLow,
	}
	best := domain.PriorityMedium
	var bestScore float64
	for _, level := range order {
		if scores[level] > bestScore {
			bestScore = scores[level]
			best = level
		}
	}
	if bestScore == 0 {
		return domain.PriorityMedium
	}
	return best
}

// firstPriorityWord scans a model response for the first valid priority word.
func firstPriorityWord(answer string) (domain.ComplaintPriority, bool) {
	for _, field := range strings.Fields(strings.ToUpper(answer)) {
		cleaned := strings.Trim(field, ".,:;!\"'")
		switch domain.ComplaintPriority(cleaned) {
		case domain.PriorityCritical, domain.PriorityHigh, domain.PriorityMedium, domain.PriorityLow:
			return domain.ComplaintPriority(cleaned), true
		}
	}
	return "", false
}
