package latestver

import (
	"strconv"
	"strings"
	"unicode"
)

// Tags that name release channels rather than versions.
// They never win the selection.
var channelTags = map[string]struct{}{
	"latest":       {},
	"experimental": {},
	"head":         {},
	"edge":         {},
}

type version []string

// parse splits a tag into semver-like fields.
//
// Example:
// parse("2.5.1") = ["2", "5", "1"]
func parse(tag string) version {
	return strings.FieldsFunc(tag, func(r rune) bool {
		return r == '.' || r == '-' || unicode.IsSpace(r)
	})
}

// isGreater reports whether a is a later version than b.
// Numeric fields compare numerically, everything else lexicographically.
func isGreater(a, b version) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		numA, errA := strconv.ParseUint(a[i], 10, 64)
		numB, errB := strconv.ParseUint(b[i], 10, 64)

		if errA == nil && errB == nil {
			if numA != numB {
				return numA > numB
			}
		} else if a[i] != b[i] {
			return a[i] > b[i]
		}
	}

	return len(a) > len(b)
}

// Latest picks the greatest version-like tag from the list.
// It returns false when no candidate remains after channel
// tags are dropped.
func Latest(tags []string) (string, bool) {
	var best string
	var bestParsed version
	var found bool

	for _, tag := range tags {
		_, skip := channelTags[strings.ToLower(tag)]
		if skip {
			continue
		}

		parsed := parse(tag)
		if !found || isGreater(parsed, bestParsed) {
			best = tag
			bestParsed = parsed
			found = true
		}
	}

	return best, found
}
