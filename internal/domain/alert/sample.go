package alert

// shortIdentityLength is the number of hash characters shown to humans.
const shortIdentityLength = 7

// MetricSample is an immutable observation of the tracked change count.
type MetricSample struct {
	// Insertions is the number of inserted lines.
	Insertions int
	// Deletions is the number of deleted lines.
	Deletions int
	// Total is always Insertions + Deletions.
	Total int
	// Identity is the commit the changes are measured against.
	Identity string
	// PreviousIdentity is the identity seen by the poll before this one, empty if unknown.
	PreviousIdentity string
}

// NewSample builds a sample and derives its total.
func NewSample(insertions, deletions int, identity, previousIdentity string) MetricSample {
	return MetricSample{
		Insertions:       insertions,
		Deletions:        deletions,
		Total:            insertions + deletions,
		Identity:         identity,
		PreviousIdentity: previousIdentity,
	}
}

// Above reports whether the sample exceeds the threshold.
func (s MetricSample) Above(threshold int) bool {
	return s.Total > threshold
}

// Committed reports whether the identity moved since the previous poll.
func (s MetricSample) Committed() bool {
	return s.PreviousIdentity != "" && s.PreviousIdentity != s.Identity
}

// ShortIdentity returns the abbreviated identity.
func (s MetricSample) ShortIdentity() string {
	if len(s.Identity) <= shortIdentityLength {
		return s.Identity
	}

	return s.Identity[:shortIdentityLength]
}

// MateriallyDifferent reports whether next should be processed after prev.
// A missing prev always counts as different.
func MateriallyDifferent(prev *MetricSample, next MetricSample) bool {
	if prev == nil {
		return true
	}

	return prev.Identity != next.Identity ||
		prev.Total != next.Total ||
		prev.Insertions != next.Insertions ||
		prev.Deletions != next.Deletions
}
