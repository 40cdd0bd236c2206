package domain

// ClassificationResult is the transient outcome of department detection.
// It is folded into the complaint at creation and never persisted on its own.
type ClassificationResult struct {
	Department Department
	Confidence int
	Evidence   []string
	Reason     string
}

// DuplicateCheckResult is the transient outcome of the integrity filter.
type DuplicateCheckResult struct {
	IsDuplicate bool
	DuplicateOf string
	IsFake      bool
	Remarks     string
}

// VisionEvidence carries the signals an image classifier extracted from a
// complaint photo. Any field may be empty.
type VisionEvidence struct {
	Labels      []WeightedTerm
	Objects     []WeightedTerm
	Texts       []string
	WebEntities []WeightedTerm
	// DirectDepartment is a classifier-provided department guess that, when it
	// matches the enumeration, bypasses keyword scoring.
	DirectDepartment string
	Reason           string
}

// WeightedTerm is a detected term with the classifier's own confidence (0-1).
type WeightedTerm struct {
	Term       string
	Confidence float64
}
