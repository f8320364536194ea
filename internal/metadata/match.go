package metadata

import "strings"

// Score weights. An exact normalized-name match dominates everything else;
// year and publisher only separate candidates that already share a name.
const (
	scoreExactName   = 50
	scorePartialName = 20
	scoreYearMatch   = 15
	scorePublisher   = 15
)

// MatchCandidate is the minimal identity a record needs to participate in
// cross-source matching. ID carries whatever the caller uses to resolve the
// winner (a series row ID, a provider sourceId).
type MatchCandidate struct {
	ID        string
	Name      string
	StartYear int
	Publisher string
}

// MatchResult is the winning candidate with its confidence score.
type MatchResult struct {
	Candidate MatchCandidate
	Score     int
	ExactName bool
}

// FindBestMatch picks the candidate most likely to be the same entity as
// target, or nil when no candidate shares any name overlap. Identical inputs
// always return the same candidate: scoring is pure, and ties keep the
// earliest candidate in input order (a tied later candidate wins only by
// adding a publisher match the incumbent lacks).
func FindBestMatch(target MatchCandidate, candidates []MatchCandidate) *MatchResult {
	if len(candidates) == 0 {
		return nil
	}

	targetName := NormalizeName(target.Name)
	if targetName == "" {
		return nil
	}

	var best *MatchResult
	bestPublisher := false
	for _, cand := range candidates {
		score, exact, pubMatch := scoreCandidate(targetName, target, cand)
		if score <= 0 {
			continue
		}
		switch {
		case best == nil || score > best.Score:
			best = &MatchResult{Candidate: cand, Score: score, ExactName: exact}
			bestPublisher = pubMatch
		case score == best.Score && pubMatch && !bestPublisher:
			best = &MatchResult{Candidate: cand, Score: score, ExactName: exact}
			bestPublisher = true
		}
	}
	return best
}

// scoreCandidate returns the candidate's score, whether the name matched
// exactly, and whether the publishers agreed. A candidate with zero name
// overlap scores zero regardless of year or publisher: year and publisher
// alone never justify a match.
func scoreCandidate(targetName string, target, cand MatchCandidate) (score int, exact, pubMatch bool) {
	candName := NormalizeName(cand.Name)
	if candName == "" {
		return 0, false, false
	}

	switch {
	case candName == targetName:
		score += scoreExactName
		exact = true
	case strings.Contains(candName, targetName) || strings.Contains(targetName, candName):
		score += scorePartialName
	default:
		return 0, false, false
	}

	if target.StartYear != 0 && cand.StartYear == target.StartYear {
		score += scoreYearMatch
	}
	if SamePublisher(target.Publisher, cand.Publisher) {
		score += scorePublisher
		pubMatch = true
	}
	return score, exact, pubMatch
}
