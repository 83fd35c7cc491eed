package types

import "time"

// Promotion thresholds for code patterns.
const (
	PromotionMinFrequency = 3
	PromotionMinAvgScore  = 0.5
)

// CodePattern is a structural shape seen across generated artifacts.
// Promoted only ever moves from false to true.
type CodePattern struct {
	SkeletonHash string    `json:"skeleton_hash"`
	Skeleton     string    `json:"skeleton"`
	Snippet      string    `json:"snippet"`
	Frequency    int       `json:"frequency"`
	AvgScore     float64   `json:"avg_score"`
	Promoted     bool      `json:"promoted"`
	FirstSeen    time.Time `json:"first_seen"`
	LastSeen     time.Time `json:"last_seen"`
}

// PromotionCandidate reports whether the pattern crossed the promotion
// thresholds and is not yet promoted.
func (p *CodePattern) PromotionCandidate() bool {
	return !p.Promoted && p.Frequency >= PromotionMinFrequency && p.AvgScore > PromotionMinAvgScore
}
