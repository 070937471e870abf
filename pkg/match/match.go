// Package match implements MOO verb-name matching: a name
// without a star matches case-insensitively as a whole word; a name with a
// star matches any string that begins with the characters before the star
// and whose remainder, after that prefix is stripped, is itself a prefix of
// the characters after the star. A trailing star (nothing follows it) drops
// that remainder requirement entirely: any suffix is accepted.
package match

import "strings"

// Name reports whether pattern matches input under verb-name matching
// rules. pattern is a single name token (no embedded spaces); callers
// resolving a VerbDef with multiple name tokens should call Name once per
// token.
func Name(pattern, input string) bool {
	star := strings.IndexByte(pattern, '*')
	if star < 0 {
		return strings.EqualFold(pattern, input)
	}

	prefix := pattern[:star]
	suffix := pattern[star+1:]

	lowerInput := strings.ToLower(input)
	lowerPrefix := strings.ToLower(prefix)
	if !strings.HasPrefix(lowerInput, lowerPrefix) {
		return false
	}
	if suffix == "" {
		return true
	}
	remainder := lowerInput[len(lowerPrefix):]
	return strings.HasPrefix(strings.ToLower(suffix), remainder)
}

// Any reports whether input matches any of the given name tokens.
func Any(names []string, input string) bool {
	for _, n := range names {
		if Name(n, input) {
			return true
		}
	}
	return false
}
