package report

import (
	"sort"

	"github.com/verte-zerg/calificador/internal/exam"
	"github.com/verte-zerg/calificador/internal/model"
)

// DefaultLeaderboardLimit caps each per-career ranking in the document report.
const DefaultLeaderboardLimit = 50

// Leaderboard ranks the results assigned to a path by total, highest first.
// Candidates flagged for manual review are left out. Ties are broken by
// student code. A non-positive limit keeps every entry.
func Leaderboard(results []model.CandidateResult, path exam.CareerPath, limit int) []model.CandidateResult {
	ranked := make([]model.CandidateResult, 0, len(results))
	for _, r := range results {
		if r.Path != path || r.NeedsReview() {
			continue
		}
		ranked = append(ranked, r)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		ti, tj := ranked[i].Total(), ranked[j].Total()
		if ti == tj {
			return ranked[i].StudentCode < ranked[j].StudentCode
		}
		return ti > tj
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// ReviewList returns the results that must be checked by hand, in batch order.
func ReviewList(results []model.CandidateResult) []model.CandidateResult {
	var out []model.CandidateResult
	for _, r := range results {
		if r.NeedsReview() {
			out = append(out, r)
		}
	}
	return out
}
