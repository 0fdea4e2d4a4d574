package normalize

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ivasko/courtline/internal/domain/model"
)

// groupSuffix matches a trailing session-group marker such as
// "badminton group 2" or "odbojka grupa 3".
var groupSuffix = regexp.MustCompile(`(?i)\s+(?:group|grupa)\s+(\d+)\s*$`)

// trailingQualifier matches a free-text qualifier after a dash, e.g.
// "football - beginners".
var trailingQualifier = regexp.MustCompile(`\s+-\s+.*$`)

// normalizeEvents canonicalizes titles, splits out group numbers, and
// separates cancelled or operator-ignored events from the active set.
// The returned map holds IDs whose reservations must be quarantined.
func (n *Normalizer) normalizeEvents(raws []EventRecord) ([]model.Event, map[string]bool) {
	events := make([]model.Event, 0, len(raws))
	excluded := map[string]bool{}

	for _, raw := range raws {
		title, group := n.CanonicalTitle(raw.Title)

		if raw.Cancelled {
			excluded[raw.ID] = true
			continue
		}
		if _, ignored := n.ignoredTitles[title]; ignored {
			excluded[raw.ID] = true
			continue
		}

		events = append(events, model.Event{
			ID:       raw.ID,
			Title:    title,
			Sport:    title,
			Group:    group,
			Venue:    strings.TrimSpace(raw.Location),
			StartsAt: raw.StartsAt,
			Capacity: raw.Capacity,
		})
	}

	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return events, excluded
}

// CanonicalTitle collapses spelling variants of the same recurring
// session into one canonical, lowercase title and extracts the group
// number when the title carries one.
func (n *Normalizer) CanonicalTitle(raw string) (title, group string) {
	title = strings.ToLower(strings.TrimSpace(raw))
	title = strings.Join(strings.Fields(title), " ")

	if m := groupSuffix.FindStringSubmatch(title); m != nil {
		group = m[1]
		title = strings.TrimSpace(title[:len(title)-len(m[0])])
	}
	title = trailingQualifier.ReplaceAllString(title, "")

	if fixed, ok := n.titleFixes[title]; ok {
		title = fixed
	}
	return title, group
}
