package matching

import (
	"sort"
	"strings"

	"github.com/xrash/smetrics"
)

// Weights for the weighted token-set similarity computed in step 3 of the
// algorithm (spec.md §4.1).
const (
	weightTitle    = 0.45
	weightArtist   = 0.30
	weightAlbum    = 0.15
	weightDuration = 0.10

	// AutoThreshold and CandidateThreshold are the defaults from spec.md §6;
	// Matcher.AutoThreshold/CandidateThreshold may override them per the
	// loaded Configuration.
	AutoThreshold      = 0.82
	CandidateThreshold = 0.60

	durationToleranceMs = 3000
)

// Candidate is the platform-side (or library-side) track data being compared
// against a Track — title/artist/album/duration plus optional strong
// identifiers, mirroring spec.md §4.1's "platform track candidate".
type Candidate struct {
	Title         string
	Artist        string
	Album         string
	DurationMs    *int
	ExternalID    string
	ISRC          string
	DiscogsRelease string
	FileHash      string
}

// Subject is the library-side input to a match computation.
type Subject struct {
	Title         string
	Artist        string
	Album         string
	DurationMs    *int
	ISRC          string
	DiscogsRelease string
	FileHash      string
}

// Result is the outcome of comparing a Subject against one Candidate.
type Result struct {
	Candidate      Candidate
	Confidence     float64
	IsMatch        bool
	NeedsConfirm   bool
}

// Matcher computes match confidence using configurable thresholds, so a
// loaded Configuration's match_auto_threshold/match_candidate_threshold
// (spec.md §6) can override the package defaults without touching the
// similarity math.
type Matcher struct {
	AutoThreshold      float64
	CandidateThreshold float64
}

// NewMatcher returns a Matcher using the spec's default thresholds.
func NewMatcher() *Matcher {
	return &Matcher{AutoThreshold: AutoThreshold, CandidateThreshold: CandidateThreshold}
}

// Score computes match_confidence and is_match for one (Subject, Candidate)
// pair per spec.md §4.1 steps 1–4.
func (m *Matcher) Score(subject Subject, candidate Candidate) Result {
	if strings.TrimSpace(subject.Title) == "" || strings.TrimSpace(subject.Artist) == "" ||
		strings.TrimSpace(candidate.Title) == "" || strings.TrimSpace(candidate.Artist) == "" {
		return Result{Candidate: candidate, Confidence: 0}
	}

	if strongIdentifierMatch(subject, candidate) {
		return Result{Candidate: candidate, Confidence: 1.0, IsMatch: true}
	}

	confidence := weightTitle*tokenSetSimilarity(subject.Title, candidate.Title) +
		weightArtist*tokenSetSimilarity(subject.Artist, candidate.Artist) +
		weightAlbum*tokenSetSimilarity(subject.Album, candidate.Album) +
		weightDuration*durationAgreement(subject.DurationMs, candidate.DurationMs)

	result := Result{Candidate: candidate, Confidence: confidence}
	switch {
	case confidence >= m.AutoThreshold:
		result.IsMatch = true
	case confidence >= m.CandidateThreshold:
		result.NeedsConfirm = true
	}
	return result
}

// Best scores subject against every candidate and returns the winner after
// applying the step-5 tie-breakers: share an album, then shortest duration
// delta, then lowest external id lexicographically. Returns false if
// candidates is empty.
func (m *Matcher) Best(subject Subject, candidates []Candidate) (Result, bool) {
	if len(candidates) == 0 {
		return Result{}, false
	}
	results := make([]Result, len(candidates))
	for i, c := range candidates {
		results[i] = m.Score(subject, c)
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Confidence != results[j].Confidence {
			return results[i].Confidence > results[j].Confidence
		}
		iAlbum := sameAlbum(subject.Album, results[i].Candidate.Album)
		jAlbum := sameAlbum(subject.Album, results[j].Candidate.Album)
		if iAlbum != jAlbum {
			return iAlbum
		}
		iDelta := durationDeltaMs(subject.DurationMs, results[i].Candidate.DurationMs)
		jDelta := durationDeltaMs(subject.DurationMs, results[j].Candidate.DurationMs)
		if iDelta != jDelta {
			return iDelta < jDelta
		}
		return results[i].Candidate.ExternalID < results[j].Candidate.ExternalID
	})
	return results[0], true
}

func strongIdentifierMatch(s Subject, c Candidate) bool {
	if s.ISRC != "" && c.ISRC != "" && s.ISRC == c.ISRC {
		return true
	}
	if s.DiscogsRelease != "" && c.DiscogsRelease != "" && s.DiscogsRelease == c.DiscogsRelease {
		return true
	}
	if s.FileHash != "" && c.FileHash != "" && s.FileHash == c.FileHash {
		return true
	}
	return false
}

// tokenSetSimilarity compares two strings as unordered token sets: each
// token in a is paired with its best Jaro-Winkler match in b, and the
// overall score is the mean of those best matches over a's tokens. The
// score is not symmetric: tokens of b with no counterpart in a do not
// lower it.
func tokenSetSimilarity(a, b string) float64 {
	tokensA := Tokenize(a)
	tokensB := Tokenize(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	var total float64
	for _, ta := range tokensA {
		best := 0.0
		for _, tb := range tokensB {
			score := smetrics.JaroWinkler(ta, tb, 0.7, 4)
			if score > best {
				best = score
			}
		}
		total += best
	}
	return total / float64(len(tokensA))
}

func durationAgreement(a, b *int) float64 {
	if a == nil || b == nil {
		return 0
	}
	delta := *a - *b
	if delta < 0 {
		delta = -delta
	}
	if delta <= durationToleranceMs {
		return 1.0
	}
	return 0
}

func durationDeltaMs(a, b *int) int {
	if a == nil || b == nil {
		return int(^uint(0) >> 1) // treat unknown duration as maximally distant
	}
	delta := *a - *b
	if delta < 0 {
		delta = -delta
	}
	return delta
}

func sameAlbum(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return Normalize(a) == Normalize(b)
}
