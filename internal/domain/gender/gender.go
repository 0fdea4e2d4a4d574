// Package gender defines the contract for inferring a gender label from
// a first name.
package gender

import (
	"context"
	"strings"
	"sync"

	"github.com/ivasko/courtline/internal/domain/model"
)

// Default inference configuration constants.
const (
	defaultConfidenceMin = 0.6
	suffixConfidence     = 0.7
	lexiconConfidence    = 0.95
)

// Option applies a configuration option to the LexiconInferrer.
type Option func(*LexiconInferrer)

// WithConfidenceMin sets the minimum confidence below which the result
// collapses to unknown.
func WithConfidenceMin(min float64) Option {
	return func(i *LexiconInferrer) {
		if min >= 0 && min <= 1 {
			i.confidenceMin = min
		}
	}
}

// WithOverrides adds or replaces lexicon entries. Useful for
// deployment-specific name lists.
func WithOverrides(entries map[string]model.Gender) Option {
	return func(i *LexiconInferrer) {
		for name, g := range entries {
			i.lexicon[foldKey(name)] = g
		}
	}
}

// Input carries the person fields relevant to inference.
type Input struct {
	PersonID  string
	GivenName string
}

// Result is the inferred label with its confidence. Confidence is 0
// when the label is unknown.
type Result struct {
	PersonID   string
	Gender     model.Gender
	Confidence float64
}

// Inferrer produces a gender label for an input. Implementations must
// be deterministic: the same name always yields the same result.
type Inferrer interface {
	Infer(ctx context.Context, in Input) (Result, error)
}

// LexiconInferrer implements Inferrer with an embedded Croatian name
// lexicon plus a morphological fallback: most Croatian female given
// names end in -a, so an unlisted name ending in -a scores female at
// reduced confidence and anything else scores male.
type LexiconInferrer struct {
	lexicon       map[string]model.Gender
	confidenceMin float64

	mu    sync.RWMutex
	cache map[string]Result
}

// New creates an inferrer with configuration options.
func New(opts ...Option) *LexiconInferrer {
	i := &LexiconInferrer{
		lexicon:       make(map[string]model.Gender, len(femaleNames)+len(maleNames)+len(unisexNames)),
		confidenceMin: defaultConfidenceMin,
		cache:         make(map[string]Result),
	}
	for _, name := range femaleNames {
		i.lexicon[name] = model.GenderFemale
	}
	for _, name := range maleNames {
		i.lexicon[name] = model.GenderMale
	}
	for _, name := range unisexNames {
		i.lexicon[name] = model.GenderUnknown
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Infer returns the label for the given name. It never fails on
// unrecognized input; absence of signal is the unknown label, not an
// error.
func (i *LexiconInferrer) Infer(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	key := foldKey(in.GivenName)

	i.mu.RLock()
	cached, hit := i.cache[key]
	i.mu.RUnlock()
	if hit {
		cached.PersonID = in.PersonID
		return cached, nil
	}

	res := i.classify(key)
	res.PersonID = in.PersonID

	i.mu.Lock()
	i.cache[key] = Result{Gender: res.Gender, Confidence: res.Confidence}
	i.mu.Unlock()
	return res, nil
}

func (i *LexiconInferrer) classify(key string) Result {
	if key == "" {
		return Result{Gender: model.GenderUnknown}
	}

	if g, ok := i.lexicon[key]; ok {
		if g == model.GenderUnknown {
			// explicitly unisex, no amount of confidence helps
			return Result{Gender: model.GenderUnknown}
		}
		return i.threshold(g, lexiconConfidence)
	}

	if strings.HasSuffix(key, "a") {
		return i.threshold(model.GenderFemale, suffixConfidence)
	}
	return i.threshold(model.GenderMale, suffixConfidence)
}

func (i *LexiconInferrer) threshold(g model.Gender, confidence float64) Result {
	if confidence < i.confidenceMin {
		return Result{Gender: model.GenderUnknown}
	}
	return Result{Gender: g, Confidence: confidence}
}

// foldKey takes the first token of a possibly compound name, lowered.
// "Ana Marija" classifies by "ana".
func foldKey(name string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(name)))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
