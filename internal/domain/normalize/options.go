package normalize

import (
	"strings"

	"github.com/ivasko/courtline/pkg/logger"
)

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLogger sets the logger used by the normalizer.
func WithLogger(log logger.Logger) Option {
	return func(n *Normalizer) {
		n.log = log
	}
}

// WithIgnoredTitles excludes events whose canonical title matches one
// of the given titles, quarantining their reservations. Used to keep
// operator test events out of the analytics.
func WithIgnoredTitles(titles ...string) Option {
	return func(n *Normalizer) {
		for _, t := range titles {
			n.ignoredTitles[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
		}
	}
}

// WithTitleFixes maps known misspelled canonical titles to their
// corrected form.
func WithTitleFixes(fixes map[string]string) Option {
	return func(n *Normalizer) {
		for from, to := range fixes {
			n.titleFixes[strings.ToLower(strings.TrimSpace(from))] = strings.ToLower(strings.TrimSpace(to))
		}
	}
}
