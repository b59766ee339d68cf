// Package scoring holds the pure score calculator: vote tallies and review age
// in, verification score / status label / ranking score out. It keeps no state
// of its own; all weights and thresholds arrive as Params on each call.
package scoring

// VoteCounts is a snapshot of a review's six verdict tallies.
type VoteCounts struct {
	True         int
	MostlyTrue   int
	Mixed        int
	MostlyFalse  int
	False        int
	Inconclusive int
}

// Total counts every vote, inconclusive included.
func (c VoteCounts) Total() int {
	return c.True + c.MostlyTrue + c.Mixed + c.MostlyFalse + c.False + c.Inconclusive
}

// Scored counts the votes that contribute to the score denominator.
func (c VoteCounts) Scored() int {
	return c.Total() - c.Inconclusive
}

// Params carries the externally configured weights and thresholds.
type Params struct {
	VerificationWeight  float64
	RecencyWeight       float64
	HalfLifeDays        float64
	StaleThresholdDays  float64
	StalePenalty        float64
	ConfidenceThreshold int
	ConfidenceWeight    float64
	PendingThreshold    int
}

// VerificationScore is the weighted mean of verdict votes in [-2, +2].
// Inconclusive votes count toward participation but not toward the score:
// they appear in neither numerator nor denominator.
func VerificationScore(c VoteCounts) float64 {
	scored := c.Scored()
	if scored == 0 {
		return 0
	}
	sum := float64(c.True)*VerdictTrue.weight() +
		float64(c.MostlyTrue)*VerdictMostlyTrue.weight() +
		float64(c.MostlyFalse)*VerdictMostlyFalse.weight() +
		float64(c.False)*VerdictFalse.weight()
	return sum / float64(scored)
}

// VerificationStatus maps a score and vote count to the coarse label.
// Counts below pendingThreshold are deliberately hidden behind "pending"
// to deter vote-count gaming. Bucket boundaries are inclusive on the
// lower edge.
func VerificationStatus(score float64, totalVotes, pendingThreshold int) Status {
	if totalVotes == 0 {
		return StatusUnverified
	}
	if totalVotes < pendingThreshold {
		return StatusPending
	}
	switch {
	case score >= 1.5:
		return StatusAccurate
	case score >= 0.5:
		return StatusMostlyAccurate
	case score >= -0.5:
		return StatusMixed
	case score >= -1.5:
		return StatusMostlyInaccurate
	}
	return StatusInaccurate
}

// RecencyScore decays harmonically with age: 1/(1+age/halfLife). Past the
// stale threshold the result is additionally multiplied by stalePenalty,
// a deliberate step down that pushes stale reviews sharply in ranking.
// The discontinuity at the threshold is policy; do not smooth it.
func RecencyScore(ageDays, halfLifeDays, staleThresholdDays, stalePenalty float64) float64 {
	score := 1 / (1 + ageDays/halfLifeDays)
	if ageDays > staleThresholdDays {
		score *= stalePenalty
	}
	return score
}

// ConfidenceBonus rewards verification engagement, capped at weight once
// the vote count reaches threshold.
func ConfidenceBonus(totalVotes, threshold int, weight float64) float64 {
	if threshold <= 0 {
		return 0
	}
	ratio := float64(totalVotes) / float64(threshold)
	if ratio > 1 {
		ratio = 1
	}
	return ratio * weight
}

// SortScore is the composite ranking value driving default list order.
// The verification score is normalized from [-2,+2] to [0,1]; a review
// with no votes sits at the neutral 0.5.
func SortScore(verifyScore float64, totalVotes int, ageDays float64, p Params) float64 {
	normalized := 0.5
	if totalVotes > 0 {
		normalized = (verifyScore + 2) / 4
	}
	recency := RecencyScore(ageDays, p.HalfLifeDays, p.StaleThresholdDays, p.StalePenalty)
	bonus := ConfidenceBonus(totalVotes, p.ConfidenceThreshold, p.ConfidenceWeight)
	return p.VerificationWeight*normalized + p.RecencyWeight*recency + bonus
}

// SeedSortScore is the value a brand-new review starts with: neutral
// verification, maximum freshness, no confidence bonus. It is fixed by
// definition rather than computed through SortScore with age zero.
func SeedSortScore(p Params) float64 {
	return p.VerificationWeight*0.5 + p.RecencyWeight*1.0
}
