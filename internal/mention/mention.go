// Package mention extracts user mentions from comment text.
// Markup form: @[Display Name](123) where 123 is the user id.
package mention

import (
	"regexp"
	"strconv"
)

var markupPattern = regexp.MustCompile(`@\[[^\]]*\]\((\d+)\)`)

// ParseIDs scans text for mention markup and returns the distinct user ids
// in order of first appearance.
func ParseIDs(text string) []int64 {
	matches := markupPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[int64]struct{}, len(matches))
	ids := make([]int64, 0, len(matches))
	for _, match := range matches {
		id, err := strconv.ParseInt(match[1], 10, 64)
		if err != nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// CandidateIDs resolves the mention id source for a new comment: an explicit
// list wins when supplied, otherwise the markup embedded in the text.
// The result is de-duplicated; existence is checked by the caller.
func CandidateIDs(explicit []int64, text string) []int64 {
	if len(explicit) > 0 {
		seen := make(map[int64]struct{}, len(explicit))
		ids := make([]int64, 0, len(explicit))
		for _, id := range explicit {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
		return ids
	}
	return ParseIDs(text)
}
