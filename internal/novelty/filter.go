package novelty

import (
	"fmt"
	"strings"

	"github.com/phrazzld/cizu-api/internal/domain"
)

// Window caps and the similarity threshold.
const (
	OpenerWindowSize  = 25
	PatternWindowSize = 40

	// NearDuplicateThreshold is exclusive: similarity must exceed it.
	NearDuplicateThreshold = 0.7
)

// Verdict is the outcome of checking a sentence triple.
type Verdict struct {
	Accepted bool

	// Reasons describe each violation found, for logging.
	Reasons []string

	// AvoidOpeners and AvoidPatterns are steering hints for the next attempt.
	AvoidOpeners  []string
	AvoidPatterns []string
}

// Filter tracks the sentences accepted during one generation run.
//
// A Filter is not safe for concurrent use; callers serialize access so that a
// check and its registration happen as one step.
type Filter struct {
	openers  *Window
	patterns *Window
	bodies   []map[string]struct{}
}

// New creates an empty Filter for a single run.
func New() *Filter {
	return &Filter{
		openers:  NewWindow(OpenerWindowSize),
		patterns: NewWindow(PatternWindowSize),
	}
}

// Check evaluates a triple against the run's history without registering it.
func (f *Filter) Check(word string, triple domain.SentenceTriple) Verdict {
	var v Verdict
	seenOpeners := make(map[string]struct{}, len(triple))
	seenHints := make(map[string]struct{})
	accepted := make([]map[string]struct{}, 0, len(triple))

	addOpener := func(o string) {
		if _, ok := seenHints["o:"+o]; ok || o == "" {
			return
		}
		seenHints["o:"+o] = struct{}{}
		v.AvoidOpeners = append(v.AvoidOpeners, o)
	}
	addPattern := func(p string) {
		if _, ok := seenHints["p:"+p]; ok || p == "" {
			return
		}
		seenHints["p:"+p] = struct{}{}
		v.AvoidPatterns = append(v.AvoidPatterns, p)
	}

	word = strings.TrimSpace(word)
	for _, s := range triple {
		label := string(s.Tier)

		if word != "" && !strings.Contains(s.Hanzi, word) {
			v.Reasons = append(v.Reasons, fmt.Sprintf("%s: missing target word %q", label, word))
		}

		if s.Style != domain.StyleChatReply && !HasNaturalEnding(s.Hanzi) {
			v.Reasons = append(v.Reasons, fmt.Sprintf("%s: no closing punctuation", label))
		}

		opener := Opener(s.Hanzi)
		if f.openers.Contains(opener) {
			v.Reasons = append(v.Reasons, fmt.Sprintf("%s: opener %q used recently", label, opener))
			addOpener(opener)
		} else if _, dup := seenOpeners[opener]; dup {
			v.Reasons = append(v.Reasons, fmt.Sprintf("%s: opener %q repeated in triple", label, opener))
			addOpener(opener)
		}
		seenOpeners[opener] = struct{}{}

		grams := Bigrams(Normalize(s.Hanzi))
		if score, ok := f.nearDuplicate(grams, accepted); ok {
			v.Reasons = append(v.Reasons, fmt.Sprintf("%s: near-duplicate (similarity %.2f)", label, score))
			addPattern(PatternPrefix(s.Hanzi))
		}
		accepted = append(accepted, grams)
	}

	v.Accepted = len(v.Reasons) == 0
	return v
}

// CheckAndRegister checks a triple and, if it is accepted, registers it.
func (f *Filter) CheckAndRegister(word string, triple domain.SentenceTriple) Verdict {
	v := f.Check(word, triple)
	if v.Accepted {
		f.Register(triple)
	}
	return v
}

// Register records a triple as accepted regardless of any violations.
func (f *Filter) Register(triple domain.SentenceTriple) {
	for _, s := range triple {
		f.openers.Add(Opener(s.Hanzi))
		f.patterns.Add(PatternPrefix(s.Hanzi))
		f.bodies = append(f.bodies, Bigrams(Normalize(s.Hanzi)))
	}
}

// RecentOpeners returns the openers in the window, oldest first.
func (f *Filter) RecentOpeners() []string {
	return f.openers.Items()
}

// RecentPatterns returns the pattern prefixes in the window, oldest first.
func (f *Filter) RecentPatterns() []string {
	return f.patterns.Items()
}

// nearDuplicate compares grams against every registered body and the
// earlier sentences of the triple under evaluation.
func (f *Filter) nearDuplicate(grams map[string]struct{}, pending []map[string]struct{}) (float64, bool) {
	for _, sets := range [][]map[string]struct{}{f.bodies, pending} {
		for _, other := range sets {
			if score := Jaccard(grams, other); score > NearDuplicateThreshold {
				return score, true
			}
		}
	}
	return 0, false
}
