package pattern

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/motif/pkg/types"
)

// MaxSnippetBytes caps the representative snippet stored with a pattern.
const MaxSnippetBytes = 4096

// ErrNoStructure is returned for artifacts without any element.
var ErrNoStructure = errors.New("artifact has no markup structure")

// Detector observes generated artifacts and maintains their patterns.
type Detector struct {
	patterns types.PatternStore
	feedback types.FeedbackStore
	logger   *zap.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Detector) {
		if l != nil {
			d.logger = l.Named("pattern")
		}
	}
}

// NewDetector returns a Detector. feedback may be nil when ObserveFeedback
// is not used.
func NewDetector(patterns types.PatternStore, feedback types.FeedbackStore, opts ...Option) *Detector {
	d := &Detector{patterns: patterns, feedback: feedback, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Observe fingerprints code and records one sighting scored score. The
// first sighting creates the pattern; repeats update frequency and the
// running average, and the promotion rule is applied in the same
// transaction.
func (d *Detector) Observe(ctx context.Context, code string, score float64) (*types.CodePattern, error) {
	skel := ExtractSkeleton(code)
	if skel == "" {
		return nil, ErrNoStructure
	}
	p, promoted, err := d.patterns.ObservePattern(ctx, types.CodePattern{
		SkeletonHash: Hash(skel),
		Skeleton:     skel,
		Snippet:      snippet(code),
	}, score)
	if err != nil {
		return nil, fmt.Errorf("observing pattern: %w", err)
	}
	d.logPromotion(p, promoted)
	return p, nil
}

// atomicRecorder is implemented by stores that can append feedback and
// observe its pattern in one transaction.
type atomicRecorder interface {
	RecordObserved(ctx context.Context, rec types.FeedbackRecord, p types.CodePattern) (string, *types.CodePattern, bool, error)
}

// ObserveFeedback records rec with its CodeHash set to the skeleton hash of
// code, then observes the pattern with rec.Score. When one store backs both
// sides and supports it, the two writes commit together; otherwise a failed
// observation leaves the feedback recorded and its ID is still returned.
func (d *Detector) ObserveFeedback(ctx context.Context, rec types.FeedbackRecord, code string) (string, *types.CodePattern, error) {
	if d.feedback == nil {
		return "", nil, types.ErrStoreRequired
	}
	skel := ExtractSkeleton(code)
	if skel == "" {
		return "", nil, ErrNoStructure
	}
	cp := types.CodePattern{SkeletonHash: Hash(skel), Skeleton: skel, Snippet: snippet(code)}

	if ar, ok := d.feedback.(atomicRecorder); ok && any(d.feedback) == any(d.patterns) {
		id, p, promoted, err := ar.RecordObserved(ctx, rec, cp)
		if err != nil {
			return "", nil, fmt.Errorf("recording feedback: %w", err)
		}
		d.logPromotion(p, promoted)
		return id, p, nil
	}

	rec.CodeHash = cp.SkeletonHash
	id, err := d.feedback.Record(ctx, rec)
	if err != nil {
		return "", nil, fmt.Errorf("recording feedback: %w", err)
	}
	p, err := d.Observe(ctx, code, rec.Score)
	if err != nil {
		return id, nil, err
	}
	return id, p, nil
}

func (d *Detector) logPromotion(p *types.CodePattern, promoted bool) {
	if promoted {
		d.logger.Info("promotion candidate",
			zap.String("hash", p.SkeletonHash),
			zap.String("skeleton", p.Skeleton))
	}
}

// Candidates returns promoted patterns, most frequent first.
func (d *Detector) Candidates(ctx context.Context) ([]types.CodePattern, error) {
	return d.patterns.ListPatterns(ctx, true)
}

// Patterns returns every tracked pattern, most frequent first.
func (d *Detector) Patterns(ctx context.Context) ([]types.CodePattern, error) {
	return d.patterns.ListPatterns(ctx, false)
}

// Get returns the pattern with hash, or nil.
func (d *Detector) Get(ctx context.Context, hash string) (*types.CodePattern, error) {
	return d.patterns.GetPattern(ctx, hash)
}

// snippet truncates code to MaxSnippetBytes on a rune boundary.
func snippet(code string) string {
	if len(code) <= MaxSnippetBytes {
		return code
	}
	cut := MaxSnippetBytes
	for cut > 0 && !utf8.RuneStart(code[cut]) {
		cut--
	}
	return code[:cut]
}
