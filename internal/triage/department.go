package triage

import (
	"fmt"
	"math"
	"strings"

	"github.com/civicdesk/complaint-service/internal/domain"
)

// Evidence source weights. Labels are the strongest signal, then localized
// objects, then related web entities. On-image text contributes a flat low
// weight per keyword hit regardless of OCR confidence.
const (
	labelWeight     = 1.0
	objectWeight    = 0.8
	webEntityWeight = 0.5
	ocrTextWeight   = 0.3

	directGuessConfidence = 85
	maxConfidence         = 99
)

// departmentKeywords maps every department to the terms its complaints tend
// to surface in photo evidence.
var departmentKeywords = map[domain.Department][]string{
	domain.DepartmentRoads: {
		"pothole", "road", "highway", "asphalt", "pavement", "street damage",
		"road damage", "crack", "speed breaker", "sidewalk", "footpath",
		"bridge", "traffic", "divider",
	},
	domain.DepartmentWater: {
		"water", "pipe", "pipeline", "leak", "leakage", "drainage", "sewage",
		"flood", "flooding", "tap", "valve", "borewell", "tank", "puddle",
	},
	domain.DepartmentElectricity: {
		"electricity", "power", "transformer", "wire", "cable", "pole",
		"voltage", "short circuit", "spark", "meter", "fuse", "electric",
	},
	domain.DepartmentSanitation: {
		"garbage", "trash", "waste", "litter", "dump", "dumpster", "debris",
		"rubbish", "bin", "landfill", "plastic", "dirty",
	},
	domain.DepartmentPublicHealth: {
		"mosquito", "stagnant", "hygiene", "toilet", "epidemic", "disease",
		"clinic", "hospital", "contamination", "rodent", "pest",
	},
	domain.DepartmentParks: {
		"park", "tree", "branch", "garden", "playground", "bench", "lawn",
		"fallen tree", "grass", "swing",
	},
	domain.DepartmentStreetLight: {
		"street light", "streetlight", "lamp", "lamp post", "bulb",
		"light pole", "dark street", "floodlight",
	},
}

// departmentWeights scale each department's raw keyword score. Departments
// whose evidence terms are generic get slightly damped.
var departmentWeights = map[domain.Department]float64{
	domain.DepartmentRoads:        1.0,
	domain.DepartmentWater:        1.0,
	domain.DepartmentElectricity:  1.0,
	domain.DepartmentSanitation:   0.9,
	domain.DepartmentPublicHealth: 0.9,
	domain.DepartmentParks:        0.8,
	domain.DepartmentStreetLight:  1.0,
}

// DepartmentDetector maps photo evidence to a department with a confidence.
type DepartmentDetector struct{}

// NewDepartmentDetector constructs the detector.
func NewDepartmentDetector() *DepartmentDetector {
	return &DepartmentDetector{}
}

// Detect resolves a department from vision evidence. A valid direct guess from
// the classifier short-circuits keyword scoring.
func (d *DepartmentDetector) Detect(evidence *domain.VisionEvidence) domain.ClassificationResult {
	if evidence == nil {
		evidence = &domain.VisionEvidence{}
	}

	if evidence.DirectDepartment != "" {
		if dept, ok := domain.ParseDepartment(evidence.DirectDepartment); ok {
			reason := evidence.Reason
			if reason == "" {
				reason = fmt.Sprintf("classifier identified %s directly", dept)
			}
			return domain.ClassificationResult{
				Department: dept,
				Confidence: directGuessConfidence,
				Evidence:   []string{evidence.DirectDepartment},
				Reason:     reason,
			}
		}
	}

	scores := make(map[domain.Department]float64, len(departmentKeywords))
	matched := make(map[domain.Department][]string, len(departmentKeywords))

	score := func(term string, weight float64) {
		lowered := strings.ToLower(strings.TrimSpace(term))
		if lowered == "" {
			return
		}
		for dept, keywords := range departmentKeywords {
			for _, keyword := range keywords {
				if termMatches(lowered, keyword) {
					scores[dept] += weight * departmentWeights[dept]
					matched[dept] = append(matched[dept], lowered)
					break
				}
			}
		}
	}

	for _, label := range evidence.Labels {
		score(label.Term, label.Confidence*labelWeight)
	}
	for _, object := range evidence.Objects {
		score(object.Term, object.Confidence*objectWeight)
	}
	for _, entity := range evidence.WebEntities {
		score(entity.Term, entity.Confidence*webEntityWeight)
	}
	for _, text := range evidence.Texts {
		score(text, ocrTextWeight)
	}

	var best domain.Department
	var bestScore, sum float64
	// enumeration order breaks ties deterministically
	for _, dept := range domain.Departments() {
		s := scores[dept]
		if s <= 0 {
			continue
		}
		sum += s
		if s > bestScore {
			bestScore = s
			best = dept
		}
	}

	if bestScore <= 0 {
		return domain.ClassificationResult{
			Department: domain.DepartmentGeneral,
			Confidence: 0,
			Reason:     "no department keywords matched the photo evidence",
		}
	}

	confidence := int(math.Round(bestScore / sum * 100))
	if confidence > maxConfidence {
		confidence = maxConfidence
	}
	return domain.ClassificationResult{
		Department: best,
		Confidence: confidence,
		Evidence:   matched[best],
		Reason: fmt.Sprintf("matched %d evidence term(s) for %s",
			len(matched[best]), best),
	}
}

// termMatches checks substring containment in either direction so that
// "road damage" matches the keyword "road" and "pipe" matches "pipeline".
func termMatches(term, keyword string) bool {
	return strings.Contains(term, keyword) || strings.Contains(keyword, term)
}
