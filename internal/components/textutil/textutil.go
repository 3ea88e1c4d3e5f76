package textutil

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeName lowercases a name and strips all of its whitespace so that
// names differing only in spacing or case compare equal.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// Closest returns the candidate most similar to `name` by Jaro-Winkler
// similarity of the normalized names, along with that similarity (0 to 1).
func Closest(name string, candidates []string) (string, float64) {
	normalized := NormalizeName(name)

	var best float64
	var closest string
	for _, candidate := range candidates {
		similarity := matchr.JaroWinkler(normalized, NormalizeName(candidate), false)
		if similarity > best {
			best = similarity
			closest = candidate
		}
	}
	return closest, best
}
