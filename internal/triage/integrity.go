package triage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/civicdesk/complaint-service/internal/classifier"
	"github.com/civicdesk/complaint-service/internal/config"
	"github.com/civicdesk/complaint-service/internal/domain"
)

const (
	minDescriptionLength = 10
	maxRemoteCandidates  = 15
)

// keyboard-mashing substrings from adjacent key runs
var mashPatterns = []string{
	"qwer", "wert", "erty", "asdf", "sdfg", "dfgh", "zxcv", "xcvb", "cvbn",
	"hjkl", "jkl;", "qaz", "wsx", "edc", "uiop", "fghj",
}

// knownWords is a fixed set of short words common in genuine complaints.
// Longer words (6+ chars) are treated as presumptively real without lookup.
var knownWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"the", "and", "for", "near", "not", "our", "from", "this", "that",
		"with", "very", "have", "has", "been", "are", "was", "road", "water",
		"pipe", "leak", "light", "power", "fire", "wire", "pole", "tree",
		"park", "drain", "smell", "dirty", "waste", "trash", "main", "area",
		"street", "house", "broken", "days", "week", "since", "please",
		"still", "open", "large", "small", "big", "bad", "fix", "help",
		"issue", "there", "here", "over", "under", "after", "before",
	} {
		knownWords[w] = struct{}{}
	}
}

// IntegrityFilter detects fake submissions and near-duplicates. The fake check
// runs first and short-circuits: a fake complaint is never evaluated for
// duplication.
type IntegrityFilter struct {
	gateway            classifier.TextClassifier
	duplicateThreshold float64
	knownWordRatio     float64
}

// NewIntegrityFilter builds the filter with policy thresholds from config.
func NewIntegrityFilter(gateway classifier.TextClassifier, cfg config.TriageConfig) *IntegrityFilter {
	threshold := cfg.DuplicateThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = 0.6
	}
	ratio := cfg.KnownWordRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 0.3
	}
	return &IntegrityFilter{
		gateway:            gateway,
		duplicateThreshold: threshold,
		knownWordRatio:     ratio,
	}
}

// Check runs the fake and duplicate checks against existing non-rejected
// complaints of the same department. Candidates for the duplicate check are
// further restricted to the exact same area string.
func (f *IntegrityFilter) Check(ctx context.Context, description, area string, existing []domain.Complaint) domain.DuplicateCheckResult {
	if result, fake := f.fakeCheck(description); fake {
		return result
	}
	if result := f.duplicateCheck(description, area, existing); result.IsDuplicate {
		return result
	}
	// Local pass found nothing; a remote second opinion may only add
	// positive findings, never override them.
	if f.gateway != nil {
		if remote, ok := f.remoteOpinion(ctx, description, existing); ok {
			return remote
		}
	}
	return domain.DuplicateCheckResult{}
}

func (f *IntegrityFilter) fakeCheck(description string) (domain.DuplicateCheckResult, bool) {
	fake := func(remark string) (domain.DuplicateCheckResult, bool) {
		return domain.DuplicateCheckResult{IsFake: true, Remarks: remark}, true
	}

	trimmed := strings.TrimSpace(description)
	if len(trimmed) < minDescriptionLength {
		return fake("description too short to describe a real issue")
	}

	words := extractWords(trimmed)
	if len(words) == 0 {
		return fake("description contains no recognizable words")
	}

	if hasRepeatedRun(trimmed, 5) {
		return fake("description contains long repeated character runs")
	}

	if len(words) >= 3 {
		recognizable := 0
		for _, word := range words {
			if _, ok := knownWords[word]; ok || len(word) >= 6 {
				recognizable++
			}
		}
		if float64(recognizable)/float64(len(words)) < f.knownWordRatio {
			return fake("description appears to be gibberish")
		}
	}

	if countMashMatches(strings.ToLower(trimmed)) >= 2 {
		return fake("description looks like keyboard-mashing")
	}

	unique := map[string]int{}
	for _, word := range words {
		unique[word]++
	}
	if len(unique) == 1 && len(words) > 2 {
		return fake("description is a single word repeated")
	}

	return domain.DuplicateCheckResult{}, false
}

func (f *IntegrityFilter) duplicateCheck(description, area string, existing []domain.Complaint) domain.DuplicateCheckResult {
	newWords := uniqueWords(description)
	if len(newWords) == 0 {
		return domain.DuplicateCheckResult{}
	}

	var bestSimilarity float64
	var bestTicket string
	for _, candidate := range existing {
		if candidate.Area != area {
			continue
		}
		similarity := descriptionSimilarity(newWords, uniqueWords(candidate.Description))
		if similarity > bestSimilarity {
			bestSimilarity = similarity
			bestTicket = candidate.TicketID
		}
	}

	if bestSimilarity >= f.duplicateThreshold {
		return domain.DuplicateCheckResult{
			IsDuplicate: true,
			DuplicateOf: bestTicket,
			Remarks: fmt.Sprintf("%.0f%% similar to existing complaint %s",
				bestSimilarity*100, bestTicket),
		}
	}
	return domain.DuplicateCheckResult{}
}

type remoteVerdict struct {
	IsDuplicate bool   `json:"isDuplicate"`
	DuplicateOf string `json:"duplicateOf"`
	IsFake      bool   `json:"isFake"`
	Remarks     string `json:"remarks"`
}

// remoteOpinion corroborates with the classifier. Malformed or unparsable
// responses are discarded and the local negative result stands.
func (f *IntegrityFilter) remoteOpinion(ctx context.Context, description string, existing []domain.Complaint) (domain.DuplicateCheckResult, bool) {
	var summary strings.Builder
	count := 0
	for _, candidate := range existing {
		if count >= maxRemoteCandidates {
			break
		}
		fmt.Fprintf(&summary, "- %s: %s\n", candidate.TicketID, truncate(candidate.Description, 120))
		count++
	}

	prompt := "You review civic complaints for spam and duplicates. Existing complaints:\n" +
		summary.String() +
		"New complaint: " + description + "\n" +
		`Respond with strict JSON only: {"isDuplicate":bool,"duplicateOf":"ticket id or empty","isFake":bool,"remarks":"short reason"}`

	answer := f.gateway.Classify(ctx, prompt, 128)
	if answer == "" {
		return domain.DuplicateCheckResult{}, false
	}

	var verdict remoteVerdict
	if err := json.Unmarshal([]byte(extractJSONObject(answer)), &verdict); err != nil {
		return domain.DuplicateCheckResult{}, false
	}
	if !verdict.IsDuplicate && !verdict.IsFake {
		return domain.DuplicateCheckResult{}, false
	}
	if verdict.IsDuplicate && !ticketExists(verdict.DuplicateOf, existing) {
		return domain.DuplicateCheckResult{}, false
	}
	return domain.DuplicateCheckResult{
		IsDuplicate: verdict.IsDuplicate,
		DuplicateOf: verdict.DuplicateOf,
		IsFake:      verdict.IsFake,
		Remarks:     verdict.Remarks,
	}, true
}

func ticketExists(ticketID string, existing []domain.Complaint) bool {
	for _, candidate := range existing {
		if candidate.TicketID == ticketID {
			return true
		}
	}
	return false
}

// extractWords returns lowercase alphanumeric tokens longer than 2 chars.
func extractWords(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return ' '
	}, strings.ToLower(text))

	var words []string
	for _, token := range strings.Fields(cleaned) {
		if len(token) > 2 {
			words = append(words, token)
		}
	}
	return words
}

// uniqueWords deduplicates extracted words while keeping first-seen order.
func uniqueWords(text string) []string {
	seen := map[string]struct{}{}
	var words []string
	for _, word := range extractWords(text) {
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		words = append(words, word)
	}
	return words
}

// descriptionSimilarity computes intersection-over-union of two word sets.
// A pair counts as shared when either word contains the other, so that
// "pipe" pairs with "pipeline" and "leak" with "leaking". Each word pairs at
// most once.
func descriptionSimilarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	used := make([]bool, len(b))
	intersection := 0
	for _, wordA := range a {
		for i, wordB := range b {
			if !used[i] && termMatches(wordA, wordB) {
				used[i] = true
				intersection++
				break
			}
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

func hasRepeatedRun(text string, limit int) bool {
	run := 1
	var prev rune
	for i, r := range text {
		if i > 0 && r == prev {
			run++
			if run >= limit {
				return true
			}
		} else {
			run = 1
		}
		prev = r
	}
	return false
}

func countMashMatches(text string) int {
	count := 0
	for _, pattern := range mashPatterns {
		count += strings.Count(text, pattern)
	}
	return count
}

// extractJSONObject trims any prose or code fencing around the first JSON
// object in a model response.
func extractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return text
	}
	return text[start : end+1]
}

// truncate shortens text to at most max runes without splitting a multibyte
// sequence.
func truncate(text string, max int) string {
	text = strings.TrimSpace(text)
	if len(text) <= max {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
