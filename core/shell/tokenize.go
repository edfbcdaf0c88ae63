package shell

import "strings"

// DefaultMaxTokens is the word limit applied when none is configured.
const DefaultMaxTokens = 10

// Tokenize splits line into at most max words, splitting on runs of
// whitespace. Empty words are dropped rather than kept as empty strings, and
// words past the limit are silently discarded. The result is a fresh slice
// on every call; Tokenize keeps no state between calls and never fails.
func Tokenize(line string, max int) []string {
	if max <= 0 {
		max = DefaultMaxTokens
	}

	words := strings.Fields(line)
	if len(words) == 0 {
		return nil
	}
	if len(words) > max {
		words = words[:max]
	}
	return words
}
