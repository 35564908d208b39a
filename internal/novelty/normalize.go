package novelty

import (
	"strings"
	"unicode"
)

// openerCap bounds an opener when the sentence has no clause-ending mark.
const openerCap = 8

// patternPrefixLen is the number of normalized runes kept as a pattern prefix.
const patternPrefixLen = 10

// strippedPunctuation is removed during normalization.
const strippedPunctuation = "，。！？、；：“”‘’（）《》〈〉【】「」『』…—～·" +
	",.!?;:'\"()[]{}<>-~`"

// clauseEnders terminate an opener.
const clauseEnders = "，。！？；,.!?;"

// sentenceEnders are the marks a finished sentence ends with.
const sentenceEnders = "。！？!?.…"

// closingMarks may follow the final punctuation of a sentence.
const closingMarks = "”’」』）)\"'"

// Normalize strips whitespace and punctuation from a sentence.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || strings.ContainsRune(strippedPunctuation, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Opener returns the leading run of a sentence up to its first clause-ending
// mark, or its first eight characters when it has none.
func Opener(s string) string {
	runes := []rune(stripSpace(s))
	for i, r := range runes {
		if strings.ContainsRune(clauseEnders, r) {
			return string(runes[:i])
		}
	}
	if len(runes) > openerCap {
		runes = runes[:openerCap]
	}
	return string(runes)
}

// PatternPrefix returns the first normalized characters of a sentence.
func PatternPrefix(s string) string {
	runes := []rune(Normalize(s))
	if len(runes) > patternPrefixLen {
		runes = runes[:patternPrefixLen]
	}
	return string(runes)
}

// Bigrams returns the set of two-character substrings of normalized text.
func Bigrams(normalized string) map[string]struct{} {
	runes := []rune(normalized)
	set := make(map[string]struct{}, len(runes))
	for i := 0; i+1 < len(runes); i++ {
		set[string(runes[i:i+2])] = struct{}{}
	}
	return set
}

// Jaccard returns |a∩b| / |a∪b|, or 0 when either set is empty.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	intersection := 0
	for k := range a {
		if _, ok := b[k]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// HasNaturalEnding reports whether a sentence ends with terminal punctuation,
// optionally followed by closing quotes or brackets.
func HasNaturalEnding(s string) bool {
	runes := []rune(strings.TrimSpace(s))
	for len(runes) > 0 && strings.ContainsRune(closingMarks, runes[len(runes)-1]) {
		runes = runes[:len(runes)-1]
	}
	if len(runes) == 0 {
		return false
	}
	return strings.ContainsRune(sentenceEnders, runes[len(runes)-1])
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
