package classifier

import (
	"context"
	"strings"

	"github.com/civicdesk/complaint-service/internal/domain"
)

// ImageClassifier extracts department-routing evidence from a complaint photo.
// Implementations must tolerate being entirely absent or always failing; the
// detector falls back to keyword scoring over whatever evidence it gets.
type ImageClassifier interface {
	ClassifyImage(ctx context.Context, photoRef string) (*domain.VisionEvidence, error)
}

// GatewayImageClassifier asks the text gateway for a direct department guess
// about the referenced photo. When the gateway is down it returns empty
// evidence, never an error.
type GatewayImageClassifier struct {
	gateway TextClassifier
}

// NewGatewayImageClassifier wraps a text classifier.
func NewGatewayImageClassifier(gateway TextClassifier) *GatewayImageClassifier {
	return &GatewayImageClassifier{gateway: gateway}
}

// ClassifyImage requests a single department name for the photo.
func (g *GatewayImageClassifier) ClassifyImage(ctx context.Context, photoRef string) (*domain.VisionEvidence, error) {
	evidence := &domain.VisionEvidence{}
	if g.gateway == nil || photoRef == "" {
		return evidence, nil
	}

	prompt := "A citizen filed a civic complaint with the attached photo (" + photoRef + "). " +
		"Answer with exactly one department name from this list and nothing else: " +
		departmentList() + "."
	answer := strings.TrimSpace(g.gateway.Classify(ctx, prompt, 16))
	if answer == "" {
		return evidence, nil
	}
	if dept, ok := domain.ParseDepartment(answer); ok {
		evidence.DirectDepartment = string(dept)
		evidence.Reason = "remote classifier identified the department from the photo"
	}
	return evidence, nil
}

func departmentList() string {
	names := make([]string, 0, len(domain.Departments()))
	for _, dept := range domain.Departments() {
		names = append(names, string(dept))
	}
	return strings.Join(names, ", ")
}
