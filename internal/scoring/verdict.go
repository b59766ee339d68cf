package scoring

// Verdict is a fact-check label a voter assigns to a review.
type Verdict string

const (
	VerdictTrue         Verdict = "true"
	VerdictMostlyTrue   Verdict = "mostly_true"
	VerdictMixed        Verdict = "mixed"
	VerdictMostlyFalse  Verdict = "mostly_false"
	VerdictFalse        Verdict = "false"
	VerdictInconclusive Verdict = "inconclusive"
)

func (v Verdict) Valid() bool {
	switch v {
	case VerdictTrue, VerdictMostlyTrue, VerdictMixed,
		VerdictMostlyFalse, VerdictFalse, VerdictInconclusive:
		return true
	}
	return false
}

// weight is the contribution of one vote to the verification score.
// Inconclusive votes carry no weight and are excluded from the denominator.
func (v Verdict) weight() float64 {
	switch v {
	case VerdictTrue:
		return 2
	case VerdictMostlyTrue:
		return 1
	case VerdictMostlyFalse:
		return -1
	case VerdictFalse:
		return -2
	}
	return 0
}

// Status is the coarse verification label shown next to a review.
type Status string

const (
	StatusUnverified       Status = "unverified"
	StatusPending          Status = "pending"
	StatusAccurate         Status = "accurate"
	StatusMostlyAccurate   Status = "mostly-accurate"
	StatusMixed            Status = "mixed"
	StatusMostlyInaccurate Status = "mostly-inaccurate"
	StatusInaccurate       Status = "inaccurate"
)

func (s Status) Valid() bool {
	switch s {
	case StatusUnverified, StatusPending, StatusAccurate, StatusMostlyAccurate,
		StatusMixed, StatusMostlyInaccurate, StatusInaccurate:
		return true
	}
	return false
}
