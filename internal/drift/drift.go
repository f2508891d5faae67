// Package drift compares code-side and design-side field snapshots of a
// component and classifies the divergence. Pure, no I/O.
package drift

import (
	"sort"
	"strings"

	"github.com/marcus/driftsync/internal/models"
)

// DefaultSeverityThreshold is the change count at which a component is
// considered medium drift (high at twice the threshold).
const DefaultSeverityThreshold = 5

// defaultIgnoreKeys are volatile, timestamp-like fields that churn on every
// export and never represent real drift.
var defaultIgnoreKeys = []string{
	"createdAt",
	"created_at",
	"lastModified",
	"modifiedAt",
	"syncedAt",
	"timestamp",
	"updatedAt",
	"updated_at",
}

// defaultWhitespaceInsensitive are free-text fields where design tools
// routinely reflow whitespace without changing meaning.
var defaultWhitespaceInsensitive = []string{
	"content",
	"description",
	"label",
	"text",
}

// Source is one component's pair of flat field snapshots.
type Source struct {
	ComponentID  string
	ComponentRef string
	Code         map[string]string
	Design       map[string]string
}

// Options tunes detection. Caller lists are merged with the defaults.
type Options struct {
	IgnoreKeys            []string
	WhitespaceInsensitive []string
	SeverityThreshold     int
}

func mergeSet(defaults, extra []string) map[string]bool {
	set := make(map[string]bool, len(defaults)+len(extra))
	for _, k := range defaults {
		set[k] = true
	}
	for _, k := range extra {
		set[k] = true
	}
	return set
}

// normalizeWhitespace collapses all whitespace runs to single spaces and
// trims the ends, so reflowed text compares equal.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Detect compares each source's code and design snapshots and reports the
// components that have genuinely drifted. Components whose every difference
// is filtered by the ignore list or whitespace normalization are excluded
// entirely and counted in FalsePositiveHeuristicsApplied, not reported as
// low severity.
func Detect(sources []Source, opts Options) models.DriftSummary {
	threshold := opts.SeverityThreshold
	if threshold <= 0 {
		threshold = DefaultSeverityThreshold
	}
	ignored := mergeSet(defaultIgnoreKeys, opts.IgnoreKeys)
	wsInsensitive := mergeSet(defaultWhitespaceInsensitive, opts.WhitespaceInsensitive)

	summary := models.DriftSummary{Items: []models.DiffItem{}}

	for _, src := range sources {
		keys := make(map[string]bool, len(src.Code)+len(src.Design))
		for k := range src.Code {
			keys[k] = true
		}
		for k := range src.Design {
			keys[k] = true
		}

		var added, removed, modified []string
		suppressed := 0

		for k := range keys {
			codeVal, inCode := src.Code[k]
			designVal, inDesign := src.Design[k]

			switch {
			case !inCode && inDesign:
				if ignored[k] {
					suppressed++
					continue
				}
				added = append(added, k)
			case inCode && !inDesign:
				if ignored[k] {
					suppressed++
					continue
				}
				removed = append(removed, k)
			case codeVal != designVal:
				if ignored[k] {
					suppressed++
					continue
				}
				if wsInsensitive[k] && normalizeWhitespace(codeVal) == normalizeWhitespace(designVal) {
					suppressed++
					continue
				}
				modified = append(modified, k)
			}
		}

		total := len(added) + len(removed) + len(modified)
		if total == 0 {
			if suppressed > 0 {
				summary.FalsePositiveHeuristicsApplied++
			}
			continue
		}

		changeTypes := make([]string, 0, total)
		for _, f := range added {
			changeTypes = append(changeTypes, "added:"+f)
		}
		for _, f := range removed {
			changeTypes = append(changeTypes, "removed:"+f)
		}
		for _, f := range modified {
			changeTypes = append(changeTypes, "modified:"+f)
		}
		sort.Strings(changeTypes)

		summary.Items = append(summary.Items, models.DiffItem{
			ComponentID: src.ComponentID,
			ChangeTypes: changeTypes,
			Severity:    classify(total, threshold),
		})
	}

	summary.Total = len(summary.Items)
	return summary
}

// classify assigns severity from the change count: high at twice the
// threshold, medium at the threshold, low below it.
func classify(total, threshold int) models.Severity {
	switch {
	case total >= 2*threshold:
		return models.SeverityHigh
	case total >= threshold:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}
